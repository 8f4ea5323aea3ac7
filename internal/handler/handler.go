// Package handler exposes the assessment engine to the UI layer as a JSON
// HTTP facade.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pavelanni/proctor/internal/engine"
	"github.com/pavelanni/proctor/internal/model"
	"github.com/pavelanni/proctor/internal/store"
)

// Deps are the shared engine dependencies handed to every session.
type Deps struct {
	Builder  engine.Builder
	Grader   engine.Grader
	Sessions *store.SessionStore
	Backend  engine.Backend
}

// Handler holds the active orchestrators, one per started session.
type Handler struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*engine.Orchestrator
}

// New creates a Handler.
func New(deps Deps) *Handler {
	return &Handler{deps: deps, sessions: make(map[string]*engine.Orchestrator)}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Get("/sessions/{sessionID}", h.handleGet)
	r.Put("/sessions/{sessionID}/answers/{questionID}", h.handleAnswer)
	r.Put("/sessions/{sessionID}/position", h.handlePosition)
	r.Post("/sessions/{sessionID}/submit", h.handleSubmit)
	r.Post("/sessions/{sessionID}/retry", h.handleRetry)
	r.Delete("/sessions/{sessionID}", h.handleAbandon)
}

type createRequest struct {
	SessionOwner     string            `json:"session_owner"`
	DocumentID       string            `json:"document_id"`
	DocumentText     string            `json:"document_text"`
	Attachment       *model.Attachment `json:"attachment,omitempty"`
	Mode             model.BuildMode   `json:"mode"`
	QuestionCount    int               `json:"question_count"`
	Shuffle          bool              `json:"shuffle"`
	ShuffleOptions   bool              `json:"shuffle_options"`
	TimeLimitSeconds int               `json:"time_limit_seconds"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" {
		http.Error(w, "document_id is required", http.StatusBadRequest)
		return
	}
	if req.QuestionCount <= 0 {
		req.QuestionCount = 10
	}

	orc := engine.New(engine.Config{
		Owner: req.SessionOwner,
		Document: model.Document{
			ID:         req.DocumentID,
			Text:       req.DocumentText,
			Attachment: req.Attachment,
		},
		Build: model.BuildConfig{
			Mode:           req.Mode,
			QuestionCount:  req.QuestionCount,
			Shuffle:        req.Shuffle,
			ShuffleOptions: req.ShuffleOptions,
		},
		TimeLimitSeconds: req.TimeLimitSeconds,
	}, h.deps.Builder, h.deps.Grader, h.deps.Sessions, h.deps.Backend)

	id := uuid.NewString()
	h.mu.Lock()
	h.sessions[id] = orc
	h.mu.Unlock()

	// Building can take several generation calls; the client polls for
	// progress. The session outlives this request.
	go func() {
		if err := orc.Start(context.Background()); err != nil {
			slog.Error("session start failed", "session", id, "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"session_id": id})
}

type sessionView struct {
	State        engine.State       `json:"state"`
	Kind         model.Kind         `json:"kind,omitempty"`
	Questions    []model.Question   `json:"questions,omitempty"`
	CurrentIndex int                `json:"current_index"`
	TimeLeft     int                `json:"time_left_seconds"`
	Progress     engine.Progress    `json:"progress"`
	Result       *model.FinalResult `json:"result,omitempty"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	orc := h.session(w, r)
	if orc == nil {
		return
	}

	view := sessionView{
		State:        orc.State(),
		Kind:         orc.Kind(),
		Questions:    presentable(orc.Questions()),
		CurrentIndex: orc.CurrentIndex(),
		TimeLeft:     orc.Remaining(),
		Progress:     orc.Progress(),
		Result:       orc.Result(),
	}
	writeJSON(w, view)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	orc := h.session(w, r)
	if orc == nil {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := orc.Answer(r.Context(), chi.URLParam(r, "questionID"), body.Text); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePosition(w http.ResponseWriter, r *http.Request) {
	orc := h.session(w, r)
	if orc == nil {
		return
	}
	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := orc.Navigate(r.Context(), body.Index); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	orc := h.session(w, r)
	if orc == nil {
		return
	}
	result, err := orc.Submit(r.Context())
	if err != nil {
		if result != nil {
			// Graded but not delivered; the client may retry with the same
			// result.
			w.WriteHeader(http.StatusBadGateway)
			writeJSON(w, map[string]any{"result": result, "error": err.Error()})
			return
		}
		writeEngineError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	orc := h.session(w, r)
	if orc == nil {
		return
	}
	result, err := orc.RetrySubmit(r.Context())
	if err != nil {
		if result != nil {
			w.WriteHeader(http.StatusBadGateway)
			writeJSON(w, map[string]any{"result": result, "error": err.Error()})
			return
		}
		writeEngineError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	orc := h.session(w, r)
	if orc == nil {
		return
	}
	if err := orc.Abandon(); err != nil {
		writeEngineError(w, err)
		return
	}
	id := chi.URLParam(r, "sessionID")
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *engine.Orchestrator {
	id := chi.URLParam(r, "sessionID")
	h.mu.Lock()
	orc := h.sessions[id]
	h.mu.Unlock()
	if orc == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil
	}
	return orc
}

// presentable strips grading keys before questions go to the learner's UI.
func presentable(qs []model.Question) []model.Question {
	out := make([]model.Question, len(qs))
	for i, q := range qs {
		q.CorrectAnswer = ""
		out[i] = q
	}
	return out
}

func writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrInvalidState) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
