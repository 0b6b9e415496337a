package store

import (
	"git.home.luguber.info/inful/layoutstate/internal/diff"
	"git.home.luguber.info/inful/layoutstate/internal/foundation"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// Origin tags where a state transition came from.
type Origin string

const (
	OriginUser     Origin = "user"
	OriginReplay   Origin = "replay"
	OriginExternal Origin = "external"
	OriginHydrate  Origin = "hydrate"
)

// Notification is delivered to every subscriber once per accepted command.
// State is immutable; call State.State() for a mutable copy.
type Notification struct {
	ChangeSet diff.ChangeSet
	Strategy  diff.Strategy
	State     layout.Snapshot
	Revision  uint64
	Command   string
	Origin    Origin
	Label     string
	// Changed is false when the command left the content hash unchanged.
	// Renderers may skip such notifications.
	Changed bool
}

// Outcome describes an accepted command.
type Outcome struct {
	Command  string `json:"command"`
	Label    string `json:"label,omitempty"`
	Revision uint64 `json:"revision"`
	Changed  bool   `json:"changed"`
	// Moved reports that undo or redo stepped the history cursor. It stays
	// false at either end of the history.
	Moved       bool          `json:"moved,omitempty"`
	Strategy    diff.Strategy `json:"strategy,omitempty"`
	Changes     diff.Summary  `json:"changes"`
	Hash        string        `json:"hash"`
	ComponentID string        `json:"component_id,omitempty"`
	SectionID   string        `json:"section_id,omitempty"`
	Adopted     []string      `json:"adopted,omitempty"`
}

// Result is the typed outcome of a command: an Outcome or a classified error.
type Result = foundation.Result[Outcome, *ferrors.ClassifiedError]

func ok(o Outcome) Result { return foundation.Ok[Outcome, *ferrors.ClassifiedError](o) }

func fail(err error) Result {
	return foundation.Err[Outcome, *ferrors.ClassifiedError](classify(err))
}

// classify maps any command error onto the classified taxonomy. Unclassified
// errors are internal.
func classify(err error) *ferrors.ClassifiedError {
	if ce, isClassified := ferrors.AsClassified(err); isClassified {
		return ce
	}
	return ferrors.WrapError(err, ferrors.CategoryInternal, "command failed").
		WithContext("reason", "internal").
		Build()
}
