package store

import (
	"context"
	"testing"
	"time"
)

type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memKV) Close() error { return nil }

func intPtr(v int) *int { return &v }

func TestSessionStoreMerge(t *testing.T) {
	s := NewSessionStore(newMemKV())
	ctx := context.Background()

	if err := s.Save(ctx, "doc1", SessionPatch{Answers: map[string]string{"q1_1": "first"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "doc1", SessionPatch{CurrentIndex: intPtr(3)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "doc1", SessionPatch{Answers: map[string]string{"q1_2": "second"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	sess, err := s.Load(ctx, "doc1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Each patch touched one field; nothing got clobbered.
	if sess.Answers["q1_1"] != "first" || sess.Answers["q1_2"] != "second" {
		t.Errorf("answers = %v", sess.Answers)
	}
	if sess.CurrentIndex != 3 {
		t.Errorf("current index = %d, want 3", sess.CurrentIndex)
	}
}

func TestSessionStoreLoadMissing(t *testing.T) {
	s := NewSessionStore(newMemKV())
	sess, err := s.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess != nil {
		t.Errorf("missing session = %+v, want nil", sess)
	}
}

func TestSessionStoreRemainingFromExpiry(t *testing.T) {
	s := NewSessionStore(newMemKV())
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	expires := base.Add(10 * time.Minute)
	if err := s.Save(ctx, "doc1", SessionPatch{ExpiresAt: &expires, TotalTimeSeconds: intPtr(1200)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The process was gone for four minutes; remaining time shrinks by the
	// same amount.
	s.now = func() time.Time { return base.Add(4 * time.Minute) }
	sess, err := s.Load(ctx, "doc1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.TimeLeftSeconds != 360 {
		t.Errorf("time left = %d, want 360", sess.TimeLeftSeconds)
	}
	if sess.TotalTimeSeconds != 1200 {
		t.Errorf("total = %d, want 1200", sess.TotalTimeSeconds)
	}

	// Long after expiry, remaining clamps at zero.
	s.now = func() time.Time { return base.Add(time.Hour) }
	sess, err = s.Load(ctx, "doc1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.TimeLeftSeconds != 0 {
		t.Errorf("time left = %d, want 0", sess.TimeLeftSeconds)
	}
}

func TestSessionStoreSaveTimerDebounce(t *testing.T) {
	s := NewSessionStore(newMemKV())
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	wrote, err := s.SaveTimer(ctx, "doc1", 600)
	if err != nil || !wrote {
		t.Fatalf("first SaveTimer = (%v, %v), want a write", wrote, err)
	}

	now = now.Add(3 * time.Second)
	wrote, err = s.SaveTimer(ctx, "doc1", 597)
	if err != nil || wrote {
		t.Fatalf("SaveTimer inside the gap = (%v, %v), want skip", wrote, err)
	}

	now = now.Add(8 * time.Second)
	wrote, err = s.SaveTimer(ctx, "doc1", 589)
	if err != nil || !wrote {
		t.Fatalf("SaveTimer past the gap = (%v, %v), want a write", wrote, err)
	}

	sess, err := s.Load(ctx, "doc1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.TimeLeftSeconds != 589 {
		t.Errorf("time left = %d, want 589", sess.TimeLeftSeconds)
	}

	// Another session is debounced independently.
	wrote, err = s.SaveTimer(ctx, "doc2", 100)
	if err != nil || !wrote {
		t.Fatalf("other session SaveTimer = (%v, %v), want a write", wrote, err)
	}
}

func TestSessionStoreClear(t *testing.T) {
	kv := newMemKV()
	s := NewSessionStore(kv)
	ctx := context.Background()

	if err := s.Save(ctx, "doc1", SessionPatch{Answers: map[string]string{"q1_1": "x"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(ctx, "doc1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	sess, err := s.Load(ctx, "doc1")
	if err != nil || sess != nil {
		t.Errorf("after Clear: (%+v, %v), want (nil, nil)", sess, err)
	}
}
