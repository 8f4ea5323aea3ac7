// Package deadline holds the countdown timer and the late-submission
// penalty rules.
package deadline

import (
	"context"
	"sync"
	"time"
)

// State is the timer's lifecycle position.
type State int

const (
	StateArmed State = iota
	StateTicking
	StateExpired
	StateStopped
)

// EventType distinguishes timer events.
type EventType int

const (
	// EventTick fires once per second while the timer runs unsuspended.
	EventTick EventType = iota
	// EventExpire fires exactly once, when the countdown reaches zero.
	EventExpire
)

// Event is a timer message delivered on the Events channel. The timer never
// mutates shared state directly; consumers react to events.
type Event struct {
	Type      EventType
	Remaining int
}

// Timer counts a session's time budget down, one tick per second. It can be
// suspended (while a submission is in flight) and stopped (on abandonment).
type Timer struct {
	mu        sync.Mutex
	state     State
	remaining int
	total     int
	suspended bool

	events   chan Event
	stop     chan struct{}
	stopOnce sync.Once
}

// New arms a timer with the remaining and total budget in seconds.
func New(remainingSeconds, totalSeconds int) *Timer {
	return &Timer{
		state:     StateArmed,
		remaining: remainingSeconds,
		total:     totalSeconds,
		events:    make(chan Event, 4),
		stop:      make(chan struct{}),
	}
}

// Events is the channel tick and expire events are delivered on.
func (t *Timer) Events() <-chan Event { return t.events }

// Start begins ticking. It returns immediately; the countdown runs until
// expiry, Stop, or ctx cancellation.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	if t.state != StateArmed {
		t.mu.Unlock()
		return
	}
	t.state = StateTicking
	t.mu.Unlock()

	go t.run(ctx)
}

func (t *Timer) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.stop:
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		if t.suspended || t.state != StateTicking {
			t.mu.Unlock()
			continue
		}
		t.remaining--
		remaining := t.remaining
		expired := remaining <= 0
		if expired {
			t.state = StateExpired
		}
		t.mu.Unlock()

		if expired {
			// The expire event must not be lost even if the consumer is
			// mid-iteration; block until delivered or the timer is stopped.
			select {
			case t.events <- Event{Type: EventExpire, Remaining: 0}:
			case <-t.stop:
			case <-ctx.Done():
			}
			return
		}

		// Ticks are advisory; a slow consumer just misses some.
		select {
		case t.events <- Event{Type: EventTick, Remaining: remaining}:
		default:
		}
	}
}

// Suspend pauses the countdown while a submission is in flight, so an
// auto-submit cannot race a user-initiated one.
func (t *Timer) Suspend() {
	t.mu.Lock()
	t.suspended = true
	t.mu.Unlock()
}

// Resume continues a suspended countdown.
func (t *Timer) Resume() {
	t.mu.Lock()
	t.suspended = false
	t.mu.Unlock()
}

// Stop cancels the timer. Safe to call more than once.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		if t.state != StateExpired {
			t.state = StateStopped
		}
		t.mu.Unlock()
		close(t.stop)
	})
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Total returns the session's full time budget in seconds.
func (t *Timer) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// State returns the timer's current lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
