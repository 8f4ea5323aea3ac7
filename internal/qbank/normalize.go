package qbank

import (
	"strings"

	"github.com/pavelanni/proctor/internal/model"
)

// Normalize forces a question into the session's pinned kind. Batches that
// come back with the wrong shape are reshaped rather than discarded:
// completeness wins over strict fidelity.
func Normalize(q model.Question, pinned model.Kind) model.Question {
	q.Kind = pinned
	switch pinned {
	case model.KindMultipleChoice:
		if q.CorrectAnswer == "" && len(q.Options) > 0 {
			q.CorrectAnswer = q.Options[0]
		}
	default:
		q.Options = nil
	}
	return stripPassageEcho(q)
}

// stripPassageEcho removes any copy of the shared passage from the
// question's own text.
func stripPassageEcho(q model.Question) model.Question {
	if q.Passage == "" {
		return q
	}
	passage := strings.TrimSpace(q.Passage)
	if passage == "" || !strings.Contains(q.Text, passage) {
		return q
	}
	q.Text = strings.TrimSpace(strings.ReplaceAll(q.Text, passage, ""))
	return q
}

// inferKind resolves the session kind from a batch of raw questions: a
// majority with option lists means multiple-choice, otherwise written.
func inferKind(qs []rawQuestion) model.Kind {
	if len(qs) == 0 {
		return model.KindEssay
	}
	withOptions := 0
	for _, q := range qs {
		if len(q.Options) > 0 {
			withOptions++
		}
	}
	if withOptions*2 >= len(qs) {
		return model.KindMultipleChoice
	}
	return model.KindWritten
}
