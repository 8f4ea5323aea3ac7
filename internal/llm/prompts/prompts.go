// Package prompts builds the prompt text for question generation and
// grading. Builders are pure functions so they can be tested against the
// exact wording the parsers depend on.
package prompts

import (
	"fmt"
	"strings"

	"github.com/pavelanni/proctor/internal/model"
)

// GenerationSystem is the system instruction for all question-generation
// calls.
const GenerationSystem = "You are an exam author assisting a learning platform. " +
	"You always answer with a single JSON array and nothing else. " +
	"Each element is an object with fields: text, options (array of strings " +
	"prefixed A./B./C./D., empty for open-form questions), correct_answer " +
	"(empty for open-form), passage (shared reading block, empty if none), " +
	"group (identifier shared by questions on the same passage, empty if none). " +
	"If the document describes a practical or essay task with no discrete " +
	"questions, answer with an empty array []."

// GradingSystem is the system instruction for all grading calls.
const GradingSystem = "You are a strict but fair exam grader. " +
	"Follow the requested output format exactly, one block per question, " +
	"keyed by question number. Do not add commentary outside the format."

// BuildSinglePass builds the one-shot generation prompt used when the
// requested question count fits in a single batch.
func BuildSinglePass(doc model.Document, cfg model.BuildConfig) string {
	var sb strings.Builder
	writeModeInstruction(&sb, cfg.Mode, cfg.QuestionCount)
	sb.WriteString("First classify the material into exactly one kind: ")
	sb.WriteString("multiple-choice (lettered or numbered option lists), ")
	sb.WriteString("written (blank markers, short-answer verbs such as define/list/state), ")
	sb.WriteString("or an unstructured practical essay task.\n")
	sb.WriteString("Produce every question under that single kind. ")
	sb.WriteString("For an essay task return the empty array.\n")
	sb.WriteString("If the material ties questions to shared reading passages, keep the ")
	sb.WriteString("same number of passages and the same per-passage question counts, ")
	sb.WriteString("put the passage text only in the passage field, and never repeat it ")
	sb.WriteString("inside a question's text.\n\n")
	writeDocument(&sb, doc)
	return sb.String()
}

// BuildBatch builds the prompt for one batch of a multi-batch generation
// run. For the first batch pinned is empty and the service decides the kind;
// later batches must not deviate from it.
func BuildBatch(doc model.Document, cfg model.BuildConfig, batchIndex, batchSize int, pinned model.Kind, existing []model.Question) string {
	var sb strings.Builder
	writeModeInstruction(&sb, cfg.Mode, batchSize)
	fmt.Fprintf(&sb, "This is batch %d of a longer exam.\n", batchIndex+1)

	if pinned == "" {
		sb.WriteString("Decide the question kind from the document's signals: ")
		sb.WriteString("option lists mean multiple-choice; blank markers and ")
		sb.WriteString("short-answer verbs mean written. Use that kind for every ")
		sb.WriteString("question in this batch.\n")
	} else {
		fmt.Fprintf(&sb, "The exam kind is already fixed: %s. Every question in this batch must be of that kind; do not deviate.\n", kindLabel(pinned))
	}

	if len(existing) > 0 {
		sb.WriteString("Questions already produced (do not repeat or rephrase any of them):\n")
		for _, q := range existing {
			sb.WriteString("- " + q.Text + "\n")
		}
	}
	sb.WriteString("\n")
	writeDocument(&sb, doc)
	return sb.String()
}

// BuildMCQGrading builds the closed-form grading prompt. The response format
// is one line per question:
//
//	Question N: Correct|Incorrect|Unanswered | Answer: <correct answer> | Reason: <short rationale>
//
// followed by a final line "Total: X/10".
func BuildMCQGrading(questions []model.Question, answers map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Grade the learner's multiple-choice exam below.\n")
	sb.WriteString("For every question output exactly one line in this format:\n")
	sb.WriteString("Question N: Correct | Answer: <the correct answer> | Reason: <one short sentence>\n")
	sb.WriteString("where the first field is one of Correct, Incorrect, Unanswered ")
	sb.WriteString("(Unanswered only when the learner's answer is empty).\n")
	sb.WriteString("Finish with a line: Total: X/10 where X is the overall score out of 10.\n\n")

	for i, q := range questions {
		fmt.Fprintf(&sb, "Question %d: %s\n", i+1, q.Text)
		if q.Passage != "" {
			sb.WriteString("Passage: " + q.Passage + "\n")
		}
		for _, opt := range q.Options {
			sb.WriteString(opt + "\n")
		}
		if q.CorrectAnswer != "" {
			sb.WriteString("Expected answer: " + q.CorrectAnswer + "\n")
		}
		fmt.Fprintf(&sb, "Learner's answer: %s\n\n", answers[q.ID])
	}
	return sb.String()
}

// BuildOpenFormGrading builds the partial-credit grading prompt for written
// and essay answers. The response format is one block per question:
//
//	Question N:
//	Score: <actual>/<max>
//	Percent: NN%
//	Level: <Excellent|Good|Fair|Weak|None>
//	Answer: <canonical answer>
//	Breakdown: <per sub-point grading>
func BuildOpenFormGrading(questions []model.Question, answers map[string]string, maxPerQuestion float64) string {
	var sb strings.Builder
	sb.WriteString("Grade the learner's open-form exam below with partial credit.\n")
	sb.WriteString("Decompose each question into its sub-points and grade every ")
	sb.WriteString("sub-point at one of five levels: 100%, 75%, 50%, 25%, or 0%.\n")
	fmt.Fprintf(&sb, "Each question is worth %.2f points.\n", maxPerQuestion)
	sb.WriteString("For every question output exactly this block:\n")
	sb.WriteString("Question N:\n")
	sb.WriteString("Score: <actual>/<max>\n")
	sb.WriteString("Percent: NN%\n")
	sb.WriteString("Level: <Excellent|Good|Fair|Weak|None>\n")
	sb.WriteString("Answer: <the canonical answer>\n")
	sb.WriteString("Breakdown: <sub-point grading, one sentence>\n\n")

	for i, q := range questions {
		fmt.Fprintf(&sb, "Question %d: %s\n", i+1, q.Text)
		if q.Passage != "" {
			sb.WriteString("Passage: " + q.Passage + "\n")
		}
		fmt.Fprintf(&sb, "Learner's answer: %s\n\n", answers[q.ID])
	}
	return sb.String()
}

func writeModeInstruction(sb *strings.Builder, mode model.BuildMode, count int) {
	switch mode {
	case model.ModeExtract:
		fmt.Fprintf(sb, "Extract up to %d existing questions from the document verbatim.\n", count)
	default:
		fmt.Fprintf(sb, "Author %d new questions on the same topic and at the same difficulty as the document.\n", count)
	}
}

func writeDocument(sb *strings.Builder, doc model.Document) {
	if doc.Text != "" {
		sb.WriteString("DOCUMENT:\n" + doc.Text + "\n")
	} else {
		sb.WriteString("DOCUMENT: see the attached file.\n")
	}
}

func kindLabel(k model.Kind) string {
	switch k {
	case model.KindMultipleChoice:
		return "multiple-choice"
	case model.KindWritten:
		return "written short-answer"
	default:
		return string(k)
	}
}
