package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// memJournal records transitions in memory.
type memJournal struct {
	mu   sync.Mutex
	recs []Record
	err  error
}

func (j *memJournal) Record(_ context.Context, rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, rec)
	return j.err
}

func (j *memJournal) actions() []Action {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Action, 0, len(j.recs))
	for _, r := range j.recs {
		out = append(out, r.Action)
	}
	return out
}

func snapWith(n int) layout.Snapshot {
	st := layout.NewState()
	for i := range n {
		id := fmt.Sprintf("c%d", i)
		st.Components[id] = layout.Component{ID: id, Type: "text", ColumnIndex: 1}
	}
	st.Normalize()
	return layout.NewSnapshot(&st)
}

// target mimics the store: it holds the current snapshot and re-captures
// applied entries as replays.
type target struct {
	m       *Manager
	current layout.Snapshot
}

func (tg *target) apply(ctx context.Context, e Entry) error {
	tg.current = e.Snapshot
	tg.m.Capture(ctx, e.Snapshot, "replay", true)
	return nil
}

func (tg *target) mutate(ctx context.Context, snap layout.Snapshot) {
	tg.current = snap
	tg.m.Capture(ctx, snap, "mutation", false)
}

func TestBoundaries(t *testing.T) {
	m := New()
	tg := &target{m: m}

	assert.False(t, m.Undo(t.Context(), tg.apply), "empty history")
	assert.False(t, m.Redo(t.Context(), tg.apply), "empty history")

	m.Seed(t.Context(), snapWith(0), "Initial state")
	assert.False(t, m.Undo(t.Context(), tg.apply), "cursor at 0")
	assert.False(t, m.Redo(t.Context(), tg.apply), "cursor at end")
	assert.Equal(t, 0, m.Cursor())
	assert.Equal(t, Idle, m.Phase())
}

func TestUndoRedo(t *testing.T) {
	ctx := t.Context()
	m := New()
	tg := &target{m: m}
	m.Seed(ctx, snapWith(0), "Initial state")

	for i := 1; i <= 3; i++ {
		tg.mutate(ctx, snapWith(i))
	}
	require.Equal(t, 4, m.Len())
	require.Equal(t, 3, m.Cursor())

	require.True(t, m.Undo(ctx, tg.apply))
	assert.Equal(t, snapWith(2).Hash(), tg.current.Hash())
	assert.Equal(t, 4, m.Len(), "replay must not capture")

	require.True(t, m.Redo(ctx, tg.apply))
	assert.Equal(t, snapWith(3).Hash(), tg.current.Hash())
	assert.False(t, m.CanRedo())
	assert.True(t, m.CanUndo())
}

func TestCaptureDiscardsRedoTail(t *testing.T) {
	ctx := t.Context()
	m := New()
	tg := &target{m: m}
	m.Seed(ctx, snapWith(0), "Initial state")
	tg.mutate(ctx, snapWith(1))
	tg.mutate(ctx, snapWith(2))

	require.True(t, m.Undo(ctx, tg.apply))
	require.True(t, m.Undo(ctx, tg.apply))
	require.True(t, m.CanRedo())

	tg.mutate(ctx, snapWith(5))
	assert.False(t, m.CanRedo())
	assert.False(t, m.Redo(ctx, tg.apply))
	assert.Equal(t, 2, m.Len())
}

func TestNoopSuppression(t *testing.T) {
	ctx := t.Context()
	m := New()
	m.Seed(ctx, snapWith(1), "Initial state")

	assert.False(t, m.Capture(ctx, snapWith(1), "same", false))
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Capture(ctx, snapWith(2), "different", false))
}

func TestCapacityEviction(t *testing.T) {
	ctx := t.Context()
	j := &memJournal{}
	m := New(WithCapacity(3), WithJournal(j))
	m.Seed(ctx, snapWith(0), "Initial state")

	for i := 1; i <= 4; i++ {
		require.True(t, m.Capture(ctx, snapWith(i), fmt.Sprintf("step %d", i), false))
	}

	entries := m.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 2, m.Cursor())
	assert.Equal(t, "step 2", entries[0].Label)
	assert.Equal(t, snapWith(4).Hash(), entries[2].Snapshot.Hash())
	assert.Contains(t, j.actions(), ActionEvicted)
}

func TestReentrantCaptureIgnored(t *testing.T) {
	ctx := t.Context()
	m := New()
	m.Seed(ctx, snapWith(0), "Initial state")
	m.Capture(ctx, snapWith(1), "add", false)

	var nested bool
	ok := m.Undo(ctx, func(ctx context.Context, e Entry) error {
		assert.Equal(t, Replaying, m.Phase())
		nested = m.Capture(ctx, snapWith(7), "sneaky", false)
		return nil
	})
	require.True(t, ok)
	assert.False(t, nested)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 0, m.Cursor())
	assert.Equal(t, Idle, m.Phase())
}

func TestNestedMoveRejected(t *testing.T) {
	ctx := t.Context()
	m := New()
	m.Seed(ctx, snapWith(0), "Initial state")
	m.Capture(ctx, snapWith(1), "a", false)
	m.Capture(ctx, snapWith(2), "b", false)

	var inner bool
	m.Undo(ctx, func(ctx context.Context, _ Entry) error {
		inner = m.Undo(ctx, func(context.Context, Entry) error { return nil })
		return nil
	})
	assert.False(t, inner)
	assert.Equal(t, 1, m.Cursor())
}

func TestApplyFailureKeepsCursor(t *testing.T) {
	ctx := t.Context()
	m := New()
	m.Seed(ctx, snapWith(0), "Initial state")
	m.Capture(ctx, snapWith(1), "add", false)

	ok := m.Undo(ctx, func(context.Context, Entry) error { return errors.New("store closed") })
	assert.False(t, ok)
	assert.Equal(t, 1, m.Cursor())
	assert.Equal(t, Idle, m.Phase())
}

func TestJournalFailureDoesNotBlock(t *testing.T) {
	ctx := t.Context()
	j := &memJournal{err: errors.New("disk full")}
	m := New(WithJournal(j))
	m.Seed(ctx, snapWith(0), "Initial state")
	assert.True(t, m.Capture(ctx, snapWith(1), "add", false))
	assert.Equal(t, []Action{ActionSeeded, ActionCaptured}, j.actions())
}

func TestStatsAndClear(t *testing.T) {
	ctx := t.Context()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := New(WithCapacity(10), WithClock(func() time.Time { now = now.Add(time.Second); return now }))
	m.Seed(ctx, snapWith(0), "Initial state")
	m.Capture(ctx, snapWith(1), Label("add_component", "hero"), false)
	m.Capture(ctx, snapWith(2), Label("create_section", ""), false)

	s := m.Stats()
	assert.Equal(t, 3, s.Entries)
	assert.Equal(t, 2, s.Cursor)
	assert.Equal(t, 10, s.Capacity)
	assert.True(t, s.CanUndo)
	assert.False(t, s.CanRedo)
	assert.Equal(t, "idle", s.Phase)
	assert.True(t, s.Newest.After(s.Oldest))
	assert.Equal(t, []string{"Create Section", "Add Component: hero", "Initial state"}, s.RecentLabels)

	m.Clear(ctx, snapWith(2))
	assert.Equal(t, 1, m.Len())
	assert.False(t, m.CanUndo())
}

// TestRoundTripProperty checks that undoing N accepted mutations restores the
// starting state and redoing them restores the final one.
func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		capacity := rapid.IntRange(2, 12).Draw(rt, "capacity")
		m := New(WithCapacity(capacity))
		tg := &target{m: m}
		start := snapWith(0)
		tg.current = start
		m.Seed(ctx, start, "Initial state")

		sizes := rapid.SliceOfN(rapid.IntRange(1, 6), 1, 10).Draw(rt, "sizes")
		for _, n := range sizes {
			tg.mutate(ctx, snapWith(n))
		}
		final := tg.current.Hash()

		undos := 0
		for m.Undo(ctx, tg.apply) {
			undos++
		}
		if undos != m.Len()-1 {
			rt.Fatalf("undo count %d, entries %d", undos, m.Len())
		}
		if oldest := m.Entries()[0].Snapshot.Hash(); tg.current.Hash() != oldest {
			rt.Fatalf("undo did not reach oldest entry")
		}
		for m.Redo(ctx, tg.apply) {
		}
		if tg.current.Hash() != final {
			rt.Fatalf("redo did not restore final state")
		}
	})
}
