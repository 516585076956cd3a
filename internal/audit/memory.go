package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryEmitter collects entries in memory for tests.
type MemoryEmitter struct {
	mu      sync.Mutex
	entries []Entry
	FailAll error // when set, every Emit returns this error
}

func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

func (m *MemoryEmitter) Emit(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAll != nil {
		return m.FailAll
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *MemoryEmitter) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// ByAction returns the recorded entries carrying the given action label.
func (m *MemoryEmitter) ByAction(a Action) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for _, e := range m.entries {
		if e.Action == a {
			out = append(out, e)
		}
	}
	return out
}
