package deadline

import (
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

// MinutesLate returns how many minutes past the deadline the submission was,
// clamped at zero for on-time submissions.
func MinutesLate(submitTime, deadline time.Time) float64 {
	late := submitTime.Sub(deadline).Minutes()
	if late < 0 {
		return 0
	}
	return late
}

// Assess computes the late-submission deduction for a raw score:
//
//	on time        -> no penalty
//	(0, 30] min    -> flat 0.5
//	(30, 60] min   -> flat 2
//	over 60 min    -> half of the raw score
//
// A zero raw score is never reduced further, so the clamp downstream can
// never produce a negative-score artifact.
func Assess(rawScore float64, submitTime, deadline time.Time) (amount float64, tier model.PenaltyTier, minutesLate int) {
	late := MinutesLate(submitTime, deadline)
	minutesLate = int(late)
	if late == 0 || rawScore <= 0 {
		return 0, model.TierNone, minutesLate
	}
	switch {
	case late <= 30:
		return 0.5, model.TierHalf, minutesLate
	case late <= 60:
		return 2, model.TierTwo, minutesLate
	default:
		return rawScore / 2, model.TierHalfCut, minutesLate
	}
}
