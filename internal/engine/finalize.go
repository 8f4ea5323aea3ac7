package engine

import (
	"context"
	"math"
	"time"

	"github.com/pavelanni/proctor/internal/deadline"
	"github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/model"
)

// Finalize turns a raw session score into the bounded final result:
// the tiered late penalty is applied, the score is clamped to [0, 10] and
// rounded to one decimal, and a human-readable note is packaged. Calling it
// twice with identical inputs yields identical output.
func Finalize(ctx context.Context, rawScore float64, due, submitTime time.Time) model.FinalResult {
	res := model.FinalResult{RawScore: round1(rawScore)}

	amount, tier, minutes := deadline.Assess(rawScore, submitTime, due)
	if tier != model.TierNone {
		res.Late = &model.LatePenalty{
			Amount: round1(amount),
			Tier:   tier,
			Note:   penaltyNote(ctx, tier, amount, minutes),
		}
	}

	final := rawScore - amount
	if final < 0 {
		final = 0
	}
	if final > 10 {
		final = 10
	}
	res.FinalScore = round1(final)
	return res
}

func penaltyNote(ctx context.Context, tier model.PenaltyTier, amount float64, minutes int) string {
	data := map[string]any{"Minutes": minutes, "Amount": round1(amount)}
	switch tier {
	case model.TierHalfCut:
		return i18n.TData(ctx, "PenaltyHalved", data)
	default:
		return i18n.TData(ctx, "PenaltyFlat", data)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
