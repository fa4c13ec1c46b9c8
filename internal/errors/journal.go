package errors

import (
	"context"
	"fmt"
	"sync"
)

// UndoFunc reverses a single recorded action.
type UndoFunc func(ctx context.Context) error

// JournalEntry pairs a completed action with the action that reverses it.
type JournalEntry struct {
	Action string
	Undo   UndoFunc
}

// Journal is a staging log of completed mutations. Entries are recorded
// only after the mutation succeeded and are replayed newest first.
type Journal struct {
	entries []JournalEntry
	mu      sync.Mutex
}

func NewJournal() *Journal {
	return &Journal{
		entries: make([]JournalEntry, 0),
	}
}

// Record appends a completed action. A nil undo marks an action that has
// nothing to reverse; it is kept for the log only.
func (j *Journal) Record(action string, undo UndoFunc) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, JournalEntry{Action: action, Undo: undo})
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Actions lists recorded action descriptions in the order they happened.
func (j *Journal) Actions() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	actions := make([]string, len(j.entries))
	for i, entry := range j.entries {
		actions[i] = entry.Action
	}
	return actions
}

// Rollback runs every undo action in reverse order and empties the journal.
// It keeps going past failing undo actions and reports them together.
func (j *Journal) Rollback(ctx context.Context) error {
	j.mu.Lock()
	entries := j.entries
	j.entries = make([]JournalEntry, 0)
	j.mu.Unlock()

	collector := NewErrorCollector()
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.Undo == nil {
			continue
		}
		if err := entry.Undo(ctx); err != nil {
			collector.AddError(NewErrorBuilder().
				Category(ErrorCategoryUnknown).
				Severity(ErrorSeverityHigh).
				Operation("rollback").
				Message(fmt.Sprintf("undo of '%s' failed", entry.Action)).
				Cause(err).
				Build())
		}
	}

	return collector.ToError()
}
