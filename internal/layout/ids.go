package layout

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces unique ids with the given prefix.
type IDGenerator func(prefix string) string

// UUIDGenerator returns ids of the form "<prefix>-<uuid>".
func UUIDGenerator() IDGenerator {
	return func(prefix string) string {
		return prefix + "-" + uuid.NewString()
	}
}

// SequentialGenerator returns ids of the form "<prefix>-<n>", useful for
// deterministic fixtures.
func SequentialGenerator() IDGenerator {
	var n atomic.Uint64
	return func(prefix string) string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
