package prompts

import (
	"strings"
	"testing"

	"github.com/pavelanni/proctor/internal/model"
)

func TestBuildSinglePass(t *testing.T) {
	doc := model.Document{ID: "doc1", Text: "The TCP handshake has three steps."}

	t.Run("generate mode", func(t *testing.T) {
		p := BuildSinglePass(doc, model.BuildConfig{Mode: model.ModeGenerate, QuestionCount: 10})
		for _, want := range []string{"Author 10 new questions", "DOCUMENT:", doc.Text} {
			if !strings.Contains(p, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
	})

	t.Run("extract mode", func(t *testing.T) {
		p := BuildSinglePass(doc, model.BuildConfig{Mode: model.ModeExtract, QuestionCount: 5})
		if !strings.Contains(p, "Extract up to 5 existing questions") {
			t.Errorf("prompt missing extract instruction:\n%s", p)
		}
	})

	t.Run("attachment only", func(t *testing.T) {
		p := BuildSinglePass(model.Document{ID: "doc1"}, model.BuildConfig{QuestionCount: 5})
		if !strings.Contains(p, "see the attached file") {
			t.Errorf("prompt missing attachment reference:\n%s", p)
		}
	})
}

func TestBuildBatch(t *testing.T) {
	doc := model.Document{ID: "doc1", Text: "material"}
	cfg := model.BuildConfig{Mode: model.ModeGenerate, QuestionCount: 45}

	t.Run("first batch decides the kind", func(t *testing.T) {
		p := BuildBatch(doc, cfg, 0, 20, "", nil)
		if !strings.Contains(p, "batch 1") {
			t.Errorf("prompt missing batch number:\n%s", p)
		}
		if !strings.Contains(p, "Decide the question kind") {
			t.Errorf("first batch should leave the kind open:\n%s", p)
		}
	})

	t.Run("later batches pin the kind", func(t *testing.T) {
		existing := []model.Question{{ID: "q1_1", Text: "What is a SYN packet?"}}
		p := BuildBatch(doc, cfg, 1, 20, model.KindMultipleChoice, existing)
		if !strings.Contains(p, "batch 2") {
			t.Errorf("prompt missing batch number:\n%s", p)
		}
		if !strings.Contains(p, "already fixed: multiple-choice") {
			t.Errorf("pinned kind missing:\n%s", p)
		}
		if !strings.Contains(p, "What is a SYN packet?") {
			t.Errorf("existing questions not listed:\n%s", p)
		}
	})
}

func TestBuildMCQGrading(t *testing.T) {
	questions := []model.Question{
		{ID: "q1_1", Text: "Pick one.", Options: []string{"A. yes", "B. no"}, CorrectAnswer: "A. yes"},
		{ID: "q1_2", Text: "Pick another.", Options: []string{"A. up", "B. down"}, CorrectAnswer: "B. down"},
	}
	p := BuildMCQGrading(questions, map[string]string{"q1_1": "A. yes"})

	for _, want := range []string{
		"Question 1: Pick one.",
		"Question 2: Pick another.",
		"Expected answer: A. yes",
		"Learner's answer: A. yes",
		"Total: X/10",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// The unanswered question still appears, with an empty learner answer.
	if !strings.Contains(p, "Learner's answer: \n") {
		t.Errorf("missing empty-answer line:\n%s", p)
	}
}

func TestBuildOpenFormGrading(t *testing.T) {
	questions := []model.Question{
		{ID: "q1_1", Text: "Explain the handshake.", Passage: "Background text.", Kind: model.KindWritten},
	}
	p := BuildOpenFormGrading(questions, map[string]string{"q1_1": "three steps"}, 2.5)

	for _, want := range []string{
		"worth 2.50 points",
		"Score: <actual>/<max>",
		"Percent: NN%",
		"Question 1: Explain the handshake.",
		"Passage: Background text.",
		"Learner's answer: three steps",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
