package history

import (
	"context"
	"time"
)

// Action names a history transition.
type Action string

const (
	ActionSeeded   Action = "history.seeded"
	ActionCaptured Action = "history.captured"
	ActionEvicted  Action = "history.evicted"
	ActionUndo     Action = "history.undo"
	ActionRedo     Action = "history.redo"
	ActionCleared  Action = "history.cleared"
)

// Record describes one transition for a Journal.
type Record struct {
	Action  Action
	Entry   Entry
	Cursor  int
	Entries int
	At      time.Time
}

// Journal persists history transitions. Failures are logged and never undo
// the in-memory transition.
type Journal interface {
	Record(ctx context.Context, rec Record) error
}
