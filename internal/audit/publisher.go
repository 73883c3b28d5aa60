package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher is the sink services emit to.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Noop discards events. Used when Kafka is not configured.
type Noop struct{}

func (Noop) Emit(context.Context, Event) error { return nil }

// Memory collects events for assertions in tests.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Emit(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&event)
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// ByAction filters emitted events by action.
func (m *Memory) ByAction(action Action) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func stamp(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
}
