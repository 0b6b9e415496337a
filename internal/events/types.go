// Package events carries in-process notifications between the layout store,
// its readiness coordinator and persistence adapters.
package events

import (
	"time"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// StateChanged is the persistence signal emitted after every accepted command.
// State is an immutable snapshot that adapters may serialize freely.
type StateChanged struct {
	Document  string
	Revision  uint64
	Command   string
	Origin    string
	Label     string
	State     layout.Snapshot
	ChangedAt time.Time
}

// HistoryMoved is emitted after an undo or redo was applied.
type HistoryMoved struct {
	Document string
	Action   string // "undo" or "redo"
	Cursor   int
	Entries  int
	Label    string
	MovedAt  time.Time
}

// ReadinessFailed is the diagnostic emitted when a dependency did not announce
// readiness within its deadline.
type ReadinessFailed struct {
	Waiter   string
	Missing  []string
	Ready    []string
	Waited   time.Duration
	FailedAt time.Time
}
