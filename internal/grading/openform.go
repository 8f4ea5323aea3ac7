package grading

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pavelanni/proctor/internal/llm"
	"github.com/pavelanni/proctor/internal/llm/prompts"
	"github.com/pavelanni/proctor/internal/model"
)

// minEffortPercent is granted when a non-empty answer defeats every parsing
// attempt: a non-trivial attempt is never scored exactly zero.
const minEffortPercent = 5

// openFormStrategy grades written and essay sessions with partial credit.
// Unlike the closed-form path, the judge's grand total is logged for
// comparison but never authoritative; the session total is the sum of the
// clamped per-question scores.
type openFormStrategy struct {
	llm llm.Client
	log *slog.Logger
}

func (s *openFormStrategy) Grade(ctx context.Context, questions []model.Question, answers map[string]string) (*Outcome, error) {
	maxPer := 10.0 / float64(len(questions))

	raw, err := s.llm.Generate(ctx, llm.Request{
		Prompt: prompts.BuildOpenFormGrading(questions, answers, maxPer),
		System: prompts.GradingSystem,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Degrade toward the learner: unreachable judge means every
		// non-empty answer gets the minimum-effort floor.
		s.log.Warn("judge call failed, applying minimum-effort grading", "error", err)
		raw = ""
	}

	verdicts, judgeTotal := parseOpenFormJudgment(raw, len(questions))

	out := &Outcome{JudgeTotal: judgeTotal}
	total := 0.0
	for i, q := range questions {
		userAnswer := answers[q.ID]
		res := s.gradeOne(q, userAnswer, verdicts[i], maxPer)
		total += res.Score
		out.Results = append(out.Results, res)
	}

	out.RawScore = round2(clamp(total, 0, 10))
	if judgeTotal >= 0 {
		s.log.Info("open-form totals", "computed", out.RawScore, "judge_reported", judgeTotal)
	}
	return out, nil
}

func (s *openFormStrategy) gradeOne(q model.Question, userAnswer string, v openVerdict, maxPer float64) model.GradingResult {
	res := model.GradingResult{
		QuestionID: q.ID,
		UserAnswer: userAnswer,
		MaxScore:   round2(maxPer),
	}
	empty := strings.TrimSpace(userAnswer) == ""

	switch {
	case v.Matched:
		max := maxPer
		if !v.PercentOnly && v.Max > 0 {
			max = v.Max
			res.MaxScore = round2(v.Max)
		}
		pct := v.Percent
		if pct == 0 && v.Score > 0 && max > 0 {
			pct = v.Score / max * 100
		}
		res.Score = round2(clamp(pct/100*max, 0, max))
		res.Status = statusForPercent(pct, empty)
		res.Explanation = explanationFor(v)
	case empty:
		res.Status = model.StatusUnanswered
	default:
		// Both the block pattern and the percent fallback failed, but the
		// learner wrote something.
		res.Score = round2(minEffortPercent / 100.0 * maxPer)
		res.Status = model.StatusPartial
		res.Explanation = "answer could not be auto-graded in detail; minimum effort credit granted"
	}
	return res
}

// statusForPercent maps a completion percentage to a result status. Only a
// truly empty answer reads as unanswered.
func statusForPercent(pct float64, emptyAnswer bool) model.AnswerStatus {
	switch {
	case pct >= 85:
		return model.StatusCorrect
	case pct > 0:
		return model.StatusPartial
	case emptyAnswer:
		return model.StatusUnanswered
	default:
		return model.StatusIncorrect
	}
}

func explanationFor(v openVerdict) string {
	var parts []string
	if v.Level != "" {
		parts = append(parts, v.Level)
	}
	if v.Breakdown != "" {
		parts = append(parts, v.Breakdown)
	}
	if v.Answer != "" {
		parts = append(parts, "Expected: "+v.Answer)
	}
	return strings.Join(parts, ". ")
}
