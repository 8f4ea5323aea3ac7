package grading

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pavelanni/proctor/internal/llm"
	"github.com/pavelanni/proctor/internal/llm/prompts"
	"github.com/pavelanni/proctor/internal/model"
)

// mcqStrategy grades closed-form sessions. The judge's verdict token is
// trusted, but a deterministic cross-check against the canonical answer can
// only upgrade a verdict, never downgrade it. Ties break toward the learner.
// Per-item credit is binary.
type mcqStrategy struct {
	llm llm.Client
	log *slog.Logger
}

func (s *mcqStrategy) Grade(ctx context.Context, questions []model.Question, answers map[string]string) (*Outcome, error) {
	raw, err := s.llm.Generate(ctx, llm.Request{
		Prompt: prompts.BuildMCQGrading(questions, answers),
		System: prompts.GradingSystem,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The judge being unreachable must not void the attempt; fall back
		// to the deterministic matcher alone.
		s.log.Warn("judge call failed, grading deterministically", "error", err)
		raw = ""
	}

	verdicts, judgeTotal := parseMCQJudgment(raw, len(questions))
	maxPer := 10.0 / float64(len(questions))

	out := &Outcome{JudgeTotal: judgeTotal}
	correct := 0
	for i, q := range questions {
		userAnswer := answers[q.ID]
		v := verdicts[i]

		res := model.GradingResult{
			QuestionID: q.ID,
			UserAnswer: userAnswer,
			MaxScore:   round2(maxPer),
			Status:     model.StatusUnanswered,
		}

		canonical := q.CorrectAnswer
		if v.Answer != "" {
			canonical = v.Answer
		}
		res.Explanation = v.Reason

		switch {
		case strings.TrimSpace(userAnswer) == "":
			res.Status = model.StatusUnanswered
		case v.Matched && v.Verdict == "correct":
			res.Status = model.StatusCorrect
		case answersMatch(userAnswer, canonical):
			// Cross-check: the judge said otherwise (or nothing), but the
			// normalized strings agree.
			res.Status = model.StatusCorrect
		case v.Matched:
			res.Status = model.StatusIncorrect
		default:
			res.Status = model.StatusIncorrect
		}

		if res.Status == model.StatusCorrect {
			res.Score = res.MaxScore
			correct++
		}
		out.Results = append(out.Results, res)
	}

	// The higher of the judge's own total and the recount wins.
	recount := float64(correct) / float64(len(questions)) * 10
	out.RawScore = clamp(recount, 0, 10)
	if judgeTotal > out.RawScore {
		out.RawScore = clamp(judgeTotal, 0, 10)
	}
	out.RawScore = round2(out.RawScore)
	return out, nil
}

// answersMatch reports whether the learner's text and the canonical answer
// agree after normalization: exact match, containment either way, or
// matching option-letter prefixes.
func answersMatch(user, canonical string) bool {
	if ul, cl := optionLetter(user), optionLetter(canonical); ul != "" && ul == cl {
		return true
	}
	u := normalizeAnswer(user)
	c := normalizeAnswer(canonical)
	if u == "" || c == "" {
		return false
	}
	return u == c || strings.Contains(u, c) || strings.Contains(c, u)
}

// normalizeAnswer case-folds, collapses whitespace, and strips a leading
// option-letter prefix like "C. ".
func normalizeAnswer(s string) string {
	s = stripOptionLetter(strings.TrimSpace(s))
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func stripOptionLetter(s string) string {
	if len(s) >= 2 {
		first := s[0]
		isLetter := (first >= 'A' && first <= 'Z') || (first >= 'a' && first <= 'z')
		if isLetter && (s[1] == '.' || s[1] == ')' || s[1] == ':') {
			return strings.TrimSpace(s[2:])
		}
	}
	return s
}

// optionLetter returns the lowercased leading option letter, or "".
func optionLetter(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first := s[0]
		isLetter := (first >= 'A' && first <= 'Z') || (first >= 'a' && first <= 'z')
		if isLetter && (s[1] == '.' || s[1] == ')' || s[1] == ':') {
			return strings.ToLower(s[:1])
		}
	}
	return ""
}
