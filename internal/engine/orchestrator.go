// Package engine sequences the assessment lifecycle: check for a prior
// result, build the question bank, present under a time budget, submit,
// grade, and finalize.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pavelanni/proctor/internal/deadline"
	"github.com/pavelanni/proctor/internal/grading"
	"github.com/pavelanni/proctor/internal/model"
	"github.com/pavelanni/proctor/internal/qbank"
	"github.com/pavelanni/proctor/internal/store"
	"github.com/pavelanni/proctor/internal/submit"
)

// State is the orchestrator's lifecycle position.
type State string

const (
	StateIdle          State = "idle"
	StateCheckingPrior State = "checking_prior_result"
	StateBuilding      State = "building_questions"
	StatePresenting    State = "presenting"
	StateSubmitting    State = "submitting"
	StateGrading       State = "grading"
	StateCompleted     State = "completed"
	// StateError is entered only when the submission backend is unreachable
	// after grading already produced a FinalResult. The result is retained;
	// RetrySubmit re-sends it without re-grading.
	StateError State = "error"
)

// EssayAnswerID is the answer key used for essay sessions, which have no
// discrete questions: the learner's whole submission is graded as one item.
const EssayAnswerID = "essay_1"

// ErrInvalidState is returned when an operation does not apply to the
// current lifecycle state.
var ErrInvalidState = errors.New("operation not valid in current state")

// Progress is the question-building sub-progress exposed while in
// StateBuilding.
type Progress struct {
	Batch        int `json:"batch"`
	TotalBatches int `json:"total_batches"`
	Questions    int `json:"questions"`
}

// Builder is the question bank dependency.
type Builder interface {
	Build(ctx context.Context, doc model.Document, cfg model.BuildConfig, progress qbank.ProgressFunc) (*qbank.Result, error)
	ClearCache(ctx context.Context, documentID string)
}

// Grader is the grading dependency.
type Grader interface {
	Grade(ctx context.Context, kind model.Kind, questions []model.Question, answers map[string]string) (*grading.Outcome, error)
}

// Backend is the submission backend dependency.
type Backend interface {
	Submit(ctx context.Context, req submit.Request) (string, error)
	PriorResult(ctx context.Context, sessionOwner, documentID string) (*model.FinalResult, error)
}

// Config holds the per-session parameters.
type Config struct {
	Owner            string
	Document         model.Document
	Build            model.BuildConfig
	TimeLimitSeconds int // 0 means untimed
}

// Orchestrator drives exactly one learner's one active attempt. It owns the
// session state; callers interact through the lifecycle methods and never
// share it across attempts.
type Orchestrator struct {
	cfg      Config
	builder  Builder
	grader   Grader
	sessions *store.SessionStore
	backend  Backend
	log      *slog.Logger

	mu        sync.Mutex
	state     State
	questions []model.Question
	kind      model.Kind
	answers   map[string]string
	current   int
	due       time.Time
	timer     *deadline.Timer
	cancel    context.CancelFunc
	progress  Progress
	result    *model.FinalResult
}

// New creates an idle orchestrator.
func New(cfg Config, builder Builder, grader Grader, sessions *store.SessionStore, backend Backend) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		builder:  builder,
		grader:   grader,
		sessions: sessions,
		backend:  backend,
		log:      slog.Default().With("document", cfg.Document.ID, "owner", cfg.Owner),
		state:    StateIdle,
		answers:  make(map[string]string),
	}
}

// Start moves the session from Idle to Presenting (or straight to Completed
// when a prior result already exists). A session record left by an earlier
// attempt is resumed: answers, position, and remaining time are restored.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidState, o.state)
	}
	o.state = StateCheckingPrior
	o.mu.Unlock()

	prior, err := o.backend.PriorResult(ctx, o.cfg.Owner, o.cfg.Document.ID)
	if err != nil {
		// An unreachable backend must not block the attempt.
		o.log.Warn("prior result check failed, continuing", "error", err)
	}
	if prior != nil {
		o.mu.Lock()
		o.result = prior
		o.state = StateCompleted
		o.mu.Unlock()
		return nil
	}

	o.mu.Lock()
	o.state = StateBuilding
	o.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	bank, err := o.builder.Build(runCtx, o.cfg.Document, o.cfg.Build, func(batch, total, built int) {
		o.mu.Lock()
		o.progress = Progress{Batch: batch, TotalBatches: total, Questions: built}
		o.mu.Unlock()
	})
	if err != nil {
		cancel()
		o.mu.Lock()
		o.state = StateIdle
		o.mu.Unlock()
		return fmt.Errorf("build questions: %w", err)
	}

	// Resume any session record left by a reload or crash.
	sess, err := o.sessions.Load(ctx, o.cfg.Document.ID)
	if err != nil {
		o.log.Warn("session restore failed, starting fresh", "error", err)
		sess = nil
	}

	remaining := o.cfg.TimeLimitSeconds
	o.mu.Lock()
	o.questions = bank.Questions
	o.kind = bank.Kind
	if sess != nil {
		for id, text := range sess.Answers {
			o.answers[id] = text
		}
		o.current = sess.CurrentIndex
		if sess.ExpiresAt != nil {
			remaining = sess.TimeLeftSeconds
		}
	}
	timed := o.cfg.TimeLimitSeconds > 0
	if timed {
		o.due = time.Now().Add(time.Duration(remaining) * time.Second)
		o.timer = deadline.New(remaining, o.cfg.TimeLimitSeconds)
	}
	o.state = StatePresenting
	timer := o.timer
	due := o.due
	o.mu.Unlock()

	if timed {
		total := o.cfg.TimeLimitSeconds
		if err := o.sessions.Save(ctx, o.cfg.Document.ID, store.SessionPatch{
			ExpiresAt:        &due,
			TotalTimeSeconds: &total,
		}); err != nil {
			o.log.Warn("persist session deadline", "error", err)
		}
		timer.Start(runCtx)
		go o.watchTimer(runCtx, timer)
	}
	return nil
}

// watchTimer translates timer events into persistence and auto-submission.
func (o *Orchestrator) watchTimer(ctx context.Context, t *deadline.Timer) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-t.Events():
			switch ev.Type {
			case deadline.EventTick:
				if _, err := o.sessions.SaveTimer(ctx, o.cfg.Document.ID, ev.Remaining); err != nil {
					// Countdown continues in memory.
					o.log.Warn("persist countdown", "error", err)
				}
			case deadline.EventExpire:
				o.log.Info("time budget expired, auto-submitting")
				if _, err := o.submit(ctx, true); err != nil && !errors.Is(err, ErrInvalidState) {
					o.log.Error("auto-submit failed", "error", err)
				}
				return
			}
		}
	}
}

// Answer records the learner's answer for a question and persists it
// immediately.
func (o *Orchestrator) Answer(ctx context.Context, questionID, text string) error {
	o.mu.Lock()
	if o.state != StatePresenting {
		o.mu.Unlock()
		return fmt.Errorf("%w: answer in %s", ErrInvalidState, o.state)
	}
	o.answers[questionID] = text
	o.mu.Unlock()

	return o.sessions.Save(ctx, o.cfg.Document.ID, store.SessionPatch{
		Answers: map[string]string{questionID: text},
	})
}

// Navigate records the learner's current question index and persists it
// immediately.
func (o *Orchestrator) Navigate(ctx context.Context, index int) error {
	o.mu.Lock()
	if o.state != StatePresenting {
		o.mu.Unlock()
		return fmt.Errorf("%w: navigate in %s", ErrInvalidState, o.state)
	}
	o.current = index
	o.mu.Unlock()

	return o.sessions.Save(ctx, o.cfg.Document.ID, store.SessionPatch{
		CurrentIndex: &index,
	})
}

// Submit is the learner-initiated submission.
func (o *Orchestrator) Submit(ctx context.Context) (*model.FinalResult, error) {
	return o.submit(ctx, false)
}

func (o *Orchestrator) submit(ctx context.Context, auto bool) (*model.FinalResult, error) {
	o.mu.Lock()
	if o.state != StatePresenting {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: submit in %s", ErrInvalidState, o.state)
	}
	o.state = StateSubmitting
	if o.timer != nil {
		o.timer.Suspend()
	}
	questions := o.gradableQuestions()
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		answers[q.ID] = o.answers[q.ID] // absent keys default to ""
	}
	kind := o.kind
	due := o.due
	o.mu.Unlock()

	submitTime := time.Now()

	o.mu.Lock()
	o.state = StateGrading
	o.mu.Unlock()

	outcome, err := o.grader.Grade(ctx, kind, questions, answers)
	if err != nil {
		// Grading only fails on cancellation; put the session back so a
		// resume can retry.
		o.mu.Lock()
		o.state = StatePresenting
		if o.timer != nil && !auto {
			o.timer.Resume()
		}
		o.mu.Unlock()
		return nil, fmt.Errorf("grade session: %w", err)
	}

	if due.IsZero() {
		due = submitTime // untimed sessions are never late
	}
	result := Finalize(ctx, outcome.RawScore, due, submitTime)
	result.Details = outcome.Results

	o.mu.Lock()
	o.result = &result
	o.mu.Unlock()

	return o.deliver(ctx, answers)
}

// deliver hands the finalized result to the submission backend and closes
// the session. On backend failure the result is retained and the state
// machine parks in StateError for RetrySubmit.
func (o *Orchestrator) deliver(ctx context.Context, answers map[string]string) (*model.FinalResult, error) {
	o.mu.Lock()
	result := *o.result
	o.mu.Unlock()

	id, err := o.backend.Submit(ctx, submit.Request{
		SessionOwner: o.cfg.Owner,
		DocumentID:   o.cfg.Document.ID,
		Answers:      answers,
		Score:        result.FinalScore,
		Details:      result.Details,
		LatePenalty:  result.Late,
	})
	if err != nil {
		o.mu.Lock()
		o.state = StateError
		o.mu.Unlock()
		return &result, fmt.Errorf("submit result: %w", err)
	}

	o.mu.Lock()
	o.result.SubmissionID = id
	result = *o.result
	o.state = StateCompleted
	if o.timer != nil {
		o.timer.Stop()
	}
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := o.sessions.Clear(ctx, o.cfg.Document.ID); err != nil {
		o.log.Warn("clear session after submission", "error", err)
	}
	o.builder.ClearCache(ctx, o.cfg.Document.ID)
	return &result, nil
}

// RetrySubmit re-sends the already-computed FinalResult after a backend
// failure. It never re-grades.
func (o *Orchestrator) RetrySubmit(ctx context.Context) (*model.FinalResult, error) {
	o.mu.Lock()
	if o.state != StateError || o.result == nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: retry in %s", ErrInvalidState, o.state)
	}
	answers := make(map[string]string, len(o.answers))
	for id, text := range o.answers {
		answers[id] = text
	}
	o.mu.Unlock()

	return o.deliver(ctx, answers)
}

// Abandon cancels the attempt before submission. The session record is left
// in place so a later attempt resumes; the timer and any in-flight
// generation call are canceled.
func (o *Orchestrator) Abandon() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.state {
	case StateSubmitting, StateGrading, StateCompleted, StateError:
		return fmt.Errorf("%w: abandon in %s", ErrInvalidState, o.state)
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	if o.cancel != nil {
		o.cancel()
	}
	o.state = StateIdle
	return nil
}

// gradableQuestions returns the question set grading runs against. Essay
// sessions have no discrete questions; the learner's whole submission is
// graded as a single open-form item. Callers must hold o.mu.
func (o *Orchestrator) gradableQuestions() []model.Question {
	if o.kind == model.KindEssay && len(o.questions) == 0 {
		text := "Practical submission for the assigned task"
		if t := strings.TrimSpace(o.cfg.Document.Text); t != "" {
			text = t
		}
		return []model.Question{{ID: EssayAnswerID, Text: text, Kind: model.KindEssay}}
	}
	return o.questions
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Questions returns the resolved question bank.
func (o *Orchestrator) Questions() []model.Question {
	o.mu.Lock()
	defer o.mu.Unlock()
	qs := make([]model.Question, len(o.questions))
	copy(qs, o.questions)
	return qs
}

// Kind returns the session's resolved question kind.
func (o *Orchestrator) Kind() model.Kind {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.kind
}

// Progress returns the building sub-progress.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Result returns the final result, or nil before completion.
func (o *Orchestrator) Result() *model.FinalResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return nil
	}
	r := *o.result
	return &r
}

// Remaining returns the seconds left on the clock, or -1 for untimed
// sessions.
func (o *Orchestrator) Remaining() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.timer == nil {
		return -1
	}
	return o.timer.Remaining()
}

// CurrentIndex returns the learner's current question position.
func (o *Orchestrator) CurrentIndex() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}
