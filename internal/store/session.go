package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

// timerSaveGap throttles countdown persistence. Answer and position edits are
// always written immediately.
const timerSaveGap = 10 * time.Second

// SessionPatch is a partial session update. Nil fields are left untouched;
// Answers entries are merged key by key.
type SessionPatch struct {
	Answers          map[string]string
	CurrentIndex     *int
	TotalTimeSeconds *int
	ExpiresAt        *time.Time
}

// SessionStore persists session state with read-merge-write semantics so
// answers, position, and timer can be updated independently without
// clobbering each other. A session has exactly one active writer, so no
// record locking is needed; overwrites are idempotent.
type SessionStore struct {
	kv KV

	mu            sync.Mutex
	lastTimerSave map[string]time.Time

	now func() time.Time
}

// NewSessionStore wraps a KV backend.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{
		kv:            kv,
		lastTimerSave: make(map[string]time.Time),
		now:           time.Now,
	}
}

// Save merges the patch into the persisted record for key and writes it back.
func (s *SessionStore) Save(ctx context.Context, key string, patch SessionPatch) error {
	sess, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if sess == nil {
		sess = &model.Session{Key: key, Answers: make(map[string]string)}
	}
	if sess.Answers == nil {
		sess.Answers = make(map[string]string)
	}

	for id, text := range patch.Answers {
		sess.Answers[id] = text
	}
	if patch.CurrentIndex != nil {
		sess.CurrentIndex = *patch.CurrentIndex
	}
	if patch.TotalTimeSeconds != nil {
		sess.TotalTimeSeconds = *patch.TotalTimeSeconds
	}
	if patch.ExpiresAt != nil {
		sess.ExpiresAt = patch.ExpiresAt
	}
	sess.LastUpdated = s.now()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.kv.Set(ctx, SessionKey(key), data)
}

// SaveTimer persists the countdown as an absolute expiry timestamp, at most
// once per 10 seconds per session. It reports whether a write happened.
func (s *SessionStore) SaveTimer(ctx context.Context, key string, remainingSeconds int) (bool, error) {
	now := s.now()

	s.mu.Lock()
	if last, ok := s.lastTimerSave[key]; ok && now.Sub(last) < timerSaveGap {
		s.mu.Unlock()
		return false, nil
	}
	s.lastTimerSave[key] = now
	s.mu.Unlock()

	expires := now.Add(time.Duration(remainingSeconds) * time.Second)
	if err := s.Save(ctx, key, SessionPatch{ExpiresAt: &expires}); err != nil {
		return false, err
	}
	return true, nil
}

// Load returns the session for key, or nil if none is stored. The remaining
// time is recomputed from the stored absolute expiry so it is correct no
// matter how long the process was gone.
func (s *SessionStore) Load(ctx context.Context, key string) (*model.Session, error) {
	sess, err := s.load(ctx, key)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Answers == nil {
		sess.Answers = make(map[string]string)
	}
	if sess.ExpiresAt != nil {
		left := int(sess.ExpiresAt.Sub(s.now()).Round(time.Second) / time.Second)
		if left < 0 {
			left = 0
		}
		sess.TimeLeftSeconds = left
	}
	return sess, nil
}

// Clear removes the session record.
func (s *SessionStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.lastTimerSave, key)
	s.mu.Unlock()
	return s.kv.Delete(ctx, SessionKey(key))
}

func (s *SessionStore) load(ctx context.Context, key string) (*model.Session, error) {
	data, err := s.kv.Get(ctx, SessionKey(key))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}
	if data == nil {
		return nil, nil
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	return &sess, nil
}
