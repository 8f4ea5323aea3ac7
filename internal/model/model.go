package model

import "time"

// Kind is the structural category of a question.
type Kind string

const (
	// KindMultipleChoice is a closed-form question with lettered options.
	KindMultipleChoice Kind = "multiple_choice"
	// KindWritten is a short open-form question graded with partial credit.
	KindWritten Kind = "written"
	// KindEssay is an unstructured practical task with no discrete questions.
	KindEssay Kind = "essay"
)

// BuildMode selects how the question bank is derived from a document.
type BuildMode string

const (
	// ModeExtract pulls questions that already exist in the document.
	ModeExtract BuildMode = "extract"
	// ModeGenerate authors new questions on the document's topic.
	ModeGenerate BuildMode = "generate"
)

// AnswerStatus is the per-question grading outcome.
type AnswerStatus string

const (
	StatusCorrect    AnswerStatus = "correct"
	StatusPartial    AnswerStatus = "partial"
	StatusIncorrect  AnswerStatus = "incorrect"
	StatusUnanswered AnswerStatus = "unanswered"
)

// Question is a single exam item. Options is empty for open-form kinds.
// GroupID links several questions to one shared Passage; passage text is
// never duplicated inside Text.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Passage       string   `json:"passage,omitempty"`
	GroupID       string   `json:"group_id,omitempty"`
	Kind          Kind     `json:"kind"`
}

// Attachment carries the source document's binary form for providers that
// accept file input alongside a prompt.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Document is the source material a session is built from.
type Document struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// BuildConfig controls question bank construction.
type BuildConfig struct {
	Mode           BuildMode `json:"mode"`
	QuestionCount  int       `json:"question_count"`
	Shuffle        bool      `json:"shuffle"`
	ShuffleOptions bool      `json:"shuffle_options"`
}

// Session is one learner's active attempt. Answers maps question ID to the
// learner's text. ExpiresAt is absolute so remaining time stays correct even
// if the process was unloaded for an arbitrary interval.
type Session struct {
	Key              string            `json:"key"`
	Answers          map[string]string `json:"answers"`
	CurrentIndex     int               `json:"current_index"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	TimeLeftSeconds  int               `json:"time_left_seconds,omitempty"`
	TotalTimeSeconds int               `json:"total_time_seconds,omitempty"`
	LastUpdated      time.Time         `json:"last_updated"`
}

// GradingResult is the graded outcome for a single question.
// Invariant: 0 <= Score <= MaxScore.
type GradingResult struct {
	QuestionID  string       `json:"question_id"`
	UserAnswer  string       `json:"user_answer"`
	Status      AnswerStatus `json:"status"`
	Score       float64      `json:"score"`
	MaxScore    float64      `json:"max_score"`
	Explanation string       `json:"explanation,omitempty"`
}

// PenaltyTier identifies the late-submission bracket that was applied.
type PenaltyTier string

const (
	TierNone    PenaltyTier = "none"
	TierHalf    PenaltyTier = "flat_half"     // up to 30 minutes late
	TierTwo     PenaltyTier = "flat_two"      // up to 60 minutes late
	TierHalfCut PenaltyTier = "half_of_score" // more than 60 minutes late
)

// LatePenalty records the deduction applied for a late submission.
type LatePenalty struct {
	Amount float64     `json:"amount"`
	Tier   PenaltyTier `json:"tier"`
	Note   string      `json:"note"`
}

// FinalResult is the finalized session outcome handed to the submission
// backend. FinalScore = max(0, RawScore - Late.Amount), rounded to one
// decimal, always within [0, 10].
type FinalResult struct {
	RawScore     float64         `json:"raw_score"`
	Late         *LatePenalty    `json:"late_penalty,omitempty"`
	FinalScore   float64         `json:"final_score"`
	SubmissionID string          `json:"submission_id,omitempty"`
	Details      []GradingResult `json:"details,omitempty"`
}
