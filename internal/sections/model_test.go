package sections

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newModel() *Model {
	return New(WithIDGenerator(layout.SequentialGenerator()), WithClock(func() time.Time { return fixedNow }))
}

func stateWith(ids ...string) layout.State {
	st := layout.NewState()
	for _, id := range ids {
		st.Components[id] = layout.Component{ID: id, Type: "text", ColumnIndex: 1}
	}
	st.Normalize()
	return st
}

func TestCreateSection(t *testing.T) {
	m := newModel()
	st := layout.NewState()

	sec, err := m.CreateSection(&st, "two-column", layout.Props{"padding": "0"})
	require.NoError(t, err)

	assert.Equal(t, "section-1", sec.ID)
	assert.Equal(t, layout.TwoColumn, sec.LayoutType)
	assert.Equal(t, "0", sec.Config["padding"])
	assert.InDelta(t, 2.0, sec.Config["columns"], 0)
	assert.Equal(t, fixedNow, sec.CreatedAt)
	assert.Equal(t, []string{"section-1"}, st.SectionIDs())

	_, err = m.CreateSection(&st, "sidebar", nil)
	require.Error(t, err)
	assert.Len(t, st.Sections, 1)
}

func TestAssignComponent(t *testing.T) {
	m := newModel()
	st := stateWith("a", "b")
	s1, _ := m.CreateSection(&st, "two_column", nil)
	s2, _ := m.CreateSection(&st, "full_width", nil)

	changed, err := m.AssignComponent(&st, "a", s1.ID, 2)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, s1.ID, st.Components["a"].SectionID)
	assert.Equal(t, 2, st.Components["a"].ColumnIndex)

	t.Run("same section and column is a no-op", func(t *testing.T) {
		changed, err := m.AssignComponent(&st, "a", s1.ID, 2)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("reassignment replaces stale ref", func(t *testing.T) {
		changed, err := m.AssignComponent(&st, "a", s2.ID, 5)
		require.NoError(t, err)
		assert.True(t, changed)

		sec1, _, _ := st.Section(s1.ID)
		sec2, _, _ := st.Section(s2.ID)
		assert.Empty(t, sec1.ComponentRefs)
		assert.Equal(t, []layout.ComponentRef{{ComponentID: "a", ColumnIndex: 1}}, sec2.ComponentRefs)
		assert.Empty(t, Check(&st))
	})

	t.Run("unknown section", func(t *testing.T) {
		before := st.Clone()
		_, err := m.AssignComponent(&st, "b", "nope", 1)
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
		assert.Equal(t, "section_not_found", ferrors.ReasonCode(err))
		assert.Equal(t, before.Hash(), st.Hash())
	})

	t.Run("unknown component", func(t *testing.T) {
		_, err := m.AssignComponent(&st, "ghost", s1.ID, 1)
		assert.Equal(t, "component_not_found", ferrors.ReasonCode(err))
	})

	t.Run("negative column", func(t *testing.T) {
		_, err := m.AssignComponent(&st, "b", s1.ID, -1)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	})
}

func TestMoveAppendsToDestinationColumn(t *testing.T) {
	m := newModel()
	st := stateWith("c1", "c2", "c3")
	s, _ := m.CreateSection(&st, "two_column", nil)
	_, _ = m.AssignComponent(&st, "c1", s.ID, 1)
	_, _ = m.AssignComponent(&st, "c2", s.ID, 2)
	_, _ = m.AssignComponent(&st, "c3", s.ID, 2)

	_, err := m.AssignComponent(&st, "c1", s.ID, 2)
	require.NoError(t, err)

	sec, _, _ := st.Section(s.ID)
	assert.Equal(t, []string{"c2", "c3", "c1"}, sec.ColumnOrder(2))
	assert.Empty(t, sec.ColumnOrder(1))
}

func TestRemoveSectionOrphansComponents(t *testing.T) {
	m := newModel()
	st := stateWith("a", "b")
	s, _ := m.CreateSection(&st, "two_column", nil)
	_, _ = m.AssignComponent(&st, "a", s.ID, 2)
	_, _ = m.AssignComponent(&st, "b", s.ID, 1)

	assert.True(t, m.RemoveSection(&st, s.ID))
	assert.Empty(t, st.Sections)
	for _, id := range []string{"a", "b"} {
		assert.Empty(t, st.Components[id].SectionID)
		assert.Equal(t, 1, st.Components[id].ColumnIndex)
	}

	assert.False(t, m.RemoveSection(&st, s.ID), "second removal is a no-op")
}

func TestAutoAdopt(t *testing.T) {
	m := newModel()

	t.Run("creates default section", func(t *testing.T) {
		st := stateWith("a", "b")
		id, adopted, err := m.AutoAdopt(&st)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.Equal(t, []string{"a", "b"}, adopted)

		sec, _, ok := st.Section(id)
		require.True(t, ok)
		assert.Equal(t, layout.FullWidth, sec.LayoutType)
		assert.Equal(t, []string{"a", "b"}, sec.ColumnOrder(1))
		assert.Empty(t, Check(&st))
	})

	t.Run("uses first existing section", func(t *testing.T) {
		st := stateWith("a")
		first, _ := m.CreateSection(&st, "hero", nil)
		_, _ = m.CreateSection(&st, "grid", nil)

		id, _, err := m.AutoAdopt(&st)
		require.NoError(t, err)
		assert.Equal(t, first.ID, id)
		assert.Len(t, st.Sections, 2)
	})

	t.Run("nothing to adopt", func(t *testing.T) {
		st := layout.NewState()
		id, adopted, err := m.AutoAdopt(&st)
		require.NoError(t, err)
		assert.Empty(t, id)
		assert.Empty(t, adopted)
		assert.Empty(t, st.Sections)
	})
}

func TestUnassignAndForget(t *testing.T) {
	m := newModel()
	st := stateWith("a")
	s, _ := m.CreateSection(&st, "full_width", nil)
	_, _ = m.AssignComponent(&st, "a", s.ID, 1)

	assert.True(t, m.Unassign(&st, "a"))
	assert.False(t, m.Unassign(&st, "a"))
	assert.False(t, st.Components["a"].Placed())

	_, _ = m.AssignComponent(&st, "a", s.ID, 1)
	delete(st.Components, "a")
	m.Forget(&st, "a")
	sec, _, _ := st.Section(s.ID)
	assert.Empty(t, sec.ComponentRefs)
}

func TestUpdateSection(t *testing.T) {
	m := newModel()
	st := stateWith("a")
	s, _ := m.CreateSection(&st, "three_column", nil)
	_, _ = m.AssignComponent(&st, "a", s.ID, 3)

	require.NoError(t, m.UpdateSection(&st, s.ID, "two_column", layout.Props{"background": "#fff"}))

	sec, _, _ := st.Section(s.ID)
	assert.Equal(t, layout.TwoColumn, sec.LayoutType)
	assert.Equal(t, "#fff", sec.Config["background"])
	assert.Equal(t, 2, st.Components["a"].ColumnIndex)
	assert.Equal(t, 2, sec.ComponentRefs[0].ColumnIndex)

	err := m.UpdateSection(&st, "missing", "", nil)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestReorderSections(t *testing.T) {
	m := newModel()
	st := layout.NewState()
	a, _ := m.CreateSection(&st, "", nil)
	b, _ := m.CreateSection(&st, "", nil)

	require.NoError(t, m.ReorderSections(&st, []string{b.ID, a.ID}))
	assert.Equal(t, []string{b.ID, a.ID}, st.SectionIDs())

	for _, bad := range [][]string{{a.ID}, {a.ID, a.ID}, {a.ID, "x"}} {
		err := m.ReorderSections(&st, bad)
		assert.Equal(t, "invalid_order", ferrors.ReasonCode(err))
	}
}

func TestCheckAndRepair(t *testing.T) {
	m := newModel()
	st := stateWith("a", "b", "c")
	s, _ := m.CreateSection(&st, "two_column", nil)

	// a: component claims the section, no ref.
	ca := st.Components["a"]
	ca.SectionID = s.ID
	st.Components["a"] = ca
	// b: points at an unknown section.
	cb := st.Components["b"]
	cb.SectionID = "gone"
	st.Components["b"] = cb
	// c: listed twice although unplaced; plus a dangling ref.
	st.Sections[0].ComponentRefs = []layout.ComponentRef{
		{ComponentID: "c", ColumnIndex: 1},
		{ComponentID: "c", ColumnIndex: 1},
		{ComponentID: "ghost", ColumnIndex: 1},
	}

	kinds := map[IssueKind]bool{}
	for _, is := range Check(&st) {
		kinds[is.Kind] = true
	}
	assert.True(t, kinds[MissingRef])
	assert.True(t, kinds[MissingSection])
	assert.True(t, kinds[ForeignRef])
	assert.True(t, kinds[DanglingRef])

	assert.Positive(t, m.Repair(&st))
	assert.Empty(t, Check(&st))

	sec, _, _ := st.Section(s.ID)
	assert.Equal(t, []layout.ComponentRef{{ComponentID: "a", ColumnIndex: 1}}, sec.ComponentRefs)
	assert.False(t, st.Components["b"].Placed())
	assert.Zero(t, m.Repair(&st))
}
