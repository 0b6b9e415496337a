// Package diff computes change sets between two layout states and picks the
// cheapest render strategy that can apply them.
package diff

import (
	"fmt"
	"log/slog"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
)

// ChangeSet lists the component ids that differ between two states.
type ChangeSet struct {
	Added   mapset.Set[string]
	Removed mapset.Set[string]
	Updated mapset.Set[string]
	Moved   mapset.Set[string]
}

// NewChangeSet returns an empty change set.
func NewChangeSet() ChangeSet {
	return ChangeSet{
		Added:   mapset.NewThreadUnsafeSet[string](),
		Removed: mapset.NewThreadUnsafeSet[string](),
		Updated: mapset.NewThreadUnsafeSet[string](),
		Moved:   mapset.NewThreadUnsafeSet[string](),
	}
}

// IsEmpty reports whether nothing changed.
func (c ChangeSet) IsEmpty() bool {
	return c.Size() == 0
}

// Size returns the total number of changed ids.
func (c ChangeSet) Size() int {
	n := 0
	for _, s := range []mapset.Set[string]{c.Added, c.Removed, c.Updated, c.Moved} {
		if s != nil {
			n += s.Cardinality()
		}
	}
	return n
}

// Summary is the serializable form of a ChangeSet with sorted ids.
type Summary struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Updated []string `json:"updated"`
	Moved   []string `json:"moved"`
}

// Summary returns sorted id lists.
func (c ChangeSet) Summary() Summary {
	return Summary{
		Added:   sorted(c.Added),
		Removed: sorted(c.Removed),
		Updated: sorted(c.Updated),
		Moved:   sorted(c.Moved),
	}
}

// String renders the change set compactly.
func (c ChangeSet) String() string {
	s := c.Summary()
	return fmt.Sprintf("added=%v removed=%v updated=%v moved=%v", s.Added, s.Removed, s.Updated, s.Moved)
}

func sorted(s mapset.Set[string]) []string {
	if s == nil {
		return []string{}
	}
	out := s.ToSlice()
	sort.Strings(out)
	return out
}

// Engine computes diffs. The zero value is ready to use and logs to slog.Default().
type Engine struct {
	Logger *slog.Logger

	// Compare overrides the content comparison of two components with the same id.
	// It exists for tests and is nil in production.
	Compare func(a, b layout.Component) bool
}

// Diff is shorthand for a zero Engine's Diff.
func Diff(prev, next *layout.State) ChangeSet {
	var e Engine
	return e.Diff(prev, next)
}

// Diff compares prev and next. Nil states are treated as empty. Content
// differences (type and props) mark an id updated. When both render orders
// have equal length, ids present in neither added, removed nor updated are
// marked moved if their render position changed.
func (e *Engine) Diff(prev, next *layout.State) ChangeSet {
	cs := NewChangeSet()

	prevEmpty := prev == nil || len(prev.Components) == 0
	nextEmpty := next == nil || len(next.Components) == 0

	switch {
	case prevEmpty && nextEmpty:
		return cs
	case prevEmpty:
		for id := range next.Components {
			cs.Added.Add(id)
		}
		return cs
	case nextEmpty:
		for id := range prev.Components {
			cs.Removed.Add(id)
		}
		return cs
	}

	prevIDs := mapset.NewThreadUnsafeSetFromMapKeys(prev.Components)
	nextIDs := mapset.NewThreadUnsafeSetFromMapKeys(next.Components)

	cs.Added = nextIDs.Difference(prevIDs)
	cs.Removed = prevIDs.Difference(nextIDs)

	for id := range prevIDs.Intersect(nextIDs).Iter() {
		if !e.sameContent(id, prev.Components[id], next.Components[id]) {
			cs.Updated.Add(id)
		}
	}

	if len(prev.Layout) == len(next.Layout) {
		prevPos := prev.Positions()
		nextPos := next.Positions()
		for _, id := range next.Layout {
			if cs.Added.Contains(id) || cs.Removed.Contains(id) || cs.Updated.Contains(id) {
				continue
			}
			before, ok := prevPos[id]
			if !ok {
				continue
			}
			if before != nextPos[id] {
				cs.Moved.Add(id)
			}
		}
	}

	return cs
}

var contentOpts = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmpopts.IgnoreFields(layout.Component{}, "SectionID", "ColumnIndex"),
}

// sameContent compares type and props. A comparison that fails is logged and
// treated as a difference.
func (e *Engine) sameContent(id string, a, b layout.Component) (same bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger().Warn("component comparison failed; marking updated",
				logfields.ComponentID(id),
				slog.Any("panic", r))
			same = false
		}
	}()
	if e.Compare != nil {
		return e.Compare(a, b)
	}
	return cmp.Equal(a, b, contentOpts...)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
