package store

import (
	"fmt"
	"runtime"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

// DefaultBatchChunk is the number of commands a batch applies between
// context checks.
const DefaultBatchChunk = 50

// Batch applies Commands as one transition: one notification, one history
// entry. Any failing command rejects the whole batch. Between chunks the
// batch yields and checks its context; cancellation rejects the batch.
type Batch struct {
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	Commands  []Command `json:"-" yaml:"-"`
	ChunkSize int       `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
}

func (Batch) Name() string { return "batch" }

func (b Batch) Apply(tx *Tx) error {
	chunk := b.ChunkSize
	if chunk <= 0 {
		chunk = DefaultBatchChunk
	}
	for i, cmd := range b.Commands {
		if i > 0 && i%chunk == 0 {
			runtime.Gosched()
			if err := tx.Context().Err(); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryInternal, "batch canceled").
					WithContext("batch_index", i).
					WithContext("reason", "canceled").
					Build()
			}
		}
		if cmd == nil {
			return ferrors.ValidationError("batch contains a nil command").
				WithContext("batch_index", i).
				WithContext("reason", "invalid_command").
				Build()
		}
		if err := cmd.Apply(tx); err != nil {
			return classify(err).
				WithContext("batch_index", i).
				WithContext("batch_command", cmd.Name())
		}
	}

	label := b.Label
	if label == "" {
		label = fmt.Sprintf("Batch: %d commands", len(b.Commands))
	}
	tx.SetLabel(label)
	return nil
}
