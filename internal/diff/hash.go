package diff

import (
	"sync"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// Hash returns the content hash of st. Nil hashes like an empty state.
func Hash(st *layout.State) string {
	return st.Hash()
}

// Tracker remembers the hash of the last rendered state so renderers can skip
// no-op renders.
type Tracker struct {
	mu   sync.Mutex
	last string
}

// HasChanged reports whether st differs from the state seen by the previous
// call, and records st as seen.
func (t *Tracker) HasChanged(st *layout.State) bool {
	h := Hash(st)
	t.mu.Lock()
	defer t.mu.Unlock()
	if h == t.last {
		return false
	}
	t.last = h
	return true
}

// Reset forgets the last seen state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.last = ""
	t.mu.Unlock()
}
