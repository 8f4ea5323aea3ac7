package qbank

import (
	"testing"

	"github.com/pavelanni/proctor/internal/model"
)

func TestNormalize(t *testing.T) {
	t.Run("written question forced to multiple choice keeps a correct answer", func(t *testing.T) {
		q := model.Question{
			Text:    "Pick one",
			Options: []string{"A. yes", "B. no"},
			Kind:    model.KindWritten,
		}
		got := Normalize(q, model.KindMultipleChoice)
		if got.Kind != model.KindMultipleChoice {
			t.Errorf("kind = %q, want multiple choice", got.Kind)
		}
		if got.CorrectAnswer != "A. yes" {
			t.Errorf("correct answer = %q, want first option", got.CorrectAnswer)
		}
	})

	t.Run("multiple choice forced to written drops options", func(t *testing.T) {
		q := model.Question{
			Text:          "Explain",
			Options:       []string{"A. yes", "B. no"},
			CorrectAnswer: "A. yes",
			Kind:          model.KindMultipleChoice,
		}
		got := Normalize(q, model.KindWritten)
		if got.Kind != model.KindWritten {
			t.Errorf("kind = %q, want written", got.Kind)
		}
		if got.Options != nil {
			t.Errorf("options = %v, want none", got.Options)
		}
		if got.CorrectAnswer != "A. yes" {
			t.Errorf("correct answer dropped, want it kept as the model answer")
		}
	})

	t.Run("passage echo stripped from text", func(t *testing.T) {
		passage := "The quick brown fox jumps over the lazy dog."
		q := model.Question{
			Text:    passage + " What does the fox do?",
			Passage: passage,
			GroupID: "g1",
			Kind:    model.KindWritten,
		}
		got := Normalize(q, model.KindWritten)
		if got.Text != "What does the fox do?" {
			t.Errorf("text = %q, passage echo not stripped", got.Text)
		}
		if got.Passage != passage {
			t.Errorf("passage changed: %q", got.Passage)
		}
	})
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		name string
		qs   []rawQuestion
		want model.Kind
	}{
		{"empty", nil, model.KindEssay},
		{"all with options", []rawQuestion{
			{Text: "q", Options: []string{"A. x", "B. y"}},
			{Text: "q", Options: []string{"A. x", "B. y"}},
		}, model.KindMultipleChoice},
		{"none with options", []rawQuestion{
			{Text: "q"}, {Text: "q"}, {Text: "q"},
		}, model.KindWritten},
		{"majority with options", []rawQuestion{
			{Text: "q", Options: []string{"A. x"}},
			{Text: "q", Options: []string{"A. x"}},
			{Text: "q"},
		}, model.KindMultipleChoice},
		{"minority with options", []rawQuestion{
			{Text: "q", Options: []string{"A. x"}},
			{Text: "q"}, {Text: "q"},
		}, model.KindWritten},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferKind(tt.qs); got != tt.want {
				t.Errorf("inferKind() = %q, want %q", got, tt.want)
			}
		})
	}
}
