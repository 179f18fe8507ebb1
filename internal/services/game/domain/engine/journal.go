package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/aggregate"
)

var (
	// ErrJournalRequired indicates a missing journal.
	ErrJournalRequired = errors.New("journal is required")
)

// Entry is one accepted action in a game's journal.
type Entry struct {
	Seq    int                 `json:"seq"`
	Action action.Action       `json:"action"`
	Round  aggregate.RoundKind `json:"round"`
	At     time.Time           `json:"at"`
}

// Journal records accepted actions in order.
type Journal interface {
	Append(ctx context.Context, entry Entry) error
}

// Memory is an in-memory journal.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores an entry. Sequence numbers must be contiguous from 1.
func (m *Memory) Append(ctx context.Context, entry Entry) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if m == nil {
		return ErrJournalRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if want := len(m.entries) + 1; entry.Seq != want {
		return fmt.Errorf("journal sequence gap: expected %d got %d", want, entry.Seq)
	}
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of the stored entries.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Actions returns the journaled actions in order.
func (m *Memory) Actions() []action.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]action.Action, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}
