package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

func twoColumnState() layout.State {
	st := layout.NewState()
	st.Components["c1"] = layout.Component{ID: "c1", Type: "text", SectionID: "S", ColumnIndex: 1}
	st.Components["c2"] = layout.Component{ID: "c2", Type: "image", SectionID: "S", ColumnIndex: 2}
	st.Sections = []layout.Section{{
		ID:         "S",
		LayoutType: layout.TwoColumn,
		ComponentRefs: []layout.ComponentRef{
			{ComponentID: "c1", ColumnIndex: 1},
			{ComponentID: "c2", ColumnIndex: 2},
		},
	}}
	st.Layout = []string{"c1", "c2"}
	return st
}

func TestDiff_EmptyCases(t *testing.T) {
	empty := layout.NewState()
	full := twoColumnState()

	assert.True(t, Diff(nil, nil).IsEmpty())
	assert.True(t, Diff(&empty, nil).IsEmpty())

	added := Diff(&empty, &full)
	assert.ElementsMatch(t, []string{"c1", "c2"}, added.Added.ToSlice())
	assert.Equal(t, AddComponents, Classify(added))

	removed := Diff(&full, nil)
	assert.ElementsMatch(t, []string{"c1", "c2"}, removed.Removed.ToSlice())
	assert.Equal(t, RemoveComponents, Classify(removed))
}

func TestDiff_Reflexive(t *testing.T) {
	st := twoColumnState()
	clone := st.Clone()
	cs := Diff(&st, &clone)
	assert.True(t, cs.IsEmpty(), cs.String())
	assert.Equal(t, FullRender, Classify(cs))
}

func TestDiff_UpdateIgnoresPlacement(t *testing.T) {
	prev := twoColumnState()
	next := prev.Clone()
	c := next.Components["c1"]
	c.Props = layout.Props{"text": "hello"}
	next.Components["c1"] = c

	cs := Diff(&prev, &next)
	assert.Equal(t, []string{"c1"}, cs.Summary().Updated)
	assert.Empty(t, cs.Summary().Moved)
	assert.Equal(t, UpdateComponents, Classify(cs))
}

func TestDiff_MoveBetweenColumns(t *testing.T) {
	prev := twoColumnState()
	next := prev.Clone()

	// c1 moves to the end of column 2.
	c1 := next.Components["c1"]
	c1.ColumnIndex = 2
	next.Components["c1"] = c1
	next.Sections[0].ComponentRefs = []layout.ComponentRef{
		{ComponentID: "c2", ColumnIndex: 2},
		{ComponentID: "c1", ColumnIndex: 2},
	}

	cs := Diff(&prev, &next)
	assert.Equal(t, Summary{Added: []string{}, Removed: []string{}, Updated: []string{}, Moved: []string{"c1"}}, cs.Summary())
	assert.Equal(t, ReorderOnly, Classify(cs))
}

func TestDiff_ReorderedLayoutIsMove(t *testing.T) {
	prev := twoColumnState()
	next := prev.Clone()
	next.Layout = []string{"c2", "c1"}

	cs := Diff(&prev, &next)
	assert.Equal(t, []string{"c1", "c2"}, cs.Summary().Moved)
	assert.Equal(t, ReorderOnly, Classify(cs))
}

func TestDiff_ReorderedSectionsIsMove(t *testing.T) {
	prev := twoColumnState()
	prev.Sections = append(prev.Sections, layout.Section{ID: "T", LayoutType: layout.FullWidth, ComponentRefs: []layout.ComponentRef{}})
	next := prev.Clone()
	next.Sections[0], next.Sections[1] = next.Sections[1], next.Sections[0]

	cs := Diff(&prev, &next)
	assert.Equal(t, []string{"c1", "c2"}, cs.Summary().Moved)
	assert.Equal(t, ReorderOnly, Classify(cs))
}

func TestDiff_MoveSkippedWhenLayoutLengthDiffers(t *testing.T) {
	prev := twoColumnState()
	next := prev.Clone()
	next.Components["c3"] = layout.Component{ID: "c3", Type: "text", ColumnIndex: 1}
	next.Layout = []string{"c3", "c2", "c1"}

	cs := Diff(&prev, &next)
	assert.Equal(t, []string{"c3"}, cs.Summary().Added)
	assert.Empty(t, cs.Summary().Moved)
	assert.Equal(t, AddComponents, Classify(cs))
}

func TestDiff_UnplacedReorder(t *testing.T) {
	prev := layout.NewState()
	prev.Components["a"] = layout.Component{ID: "a", Type: "text", ColumnIndex: 1}
	prev.Components["b"] = layout.Component{ID: "b", Type: "text", ColumnIndex: 1}
	prev.Layout = []string{"a", "b"}
	next := prev.Clone()
	next.Layout = []string{"b", "a"}

	cs := Diff(&prev, &next)
	assert.ElementsMatch(t, []string{"a", "b"}, cs.Moved.ToSlice())
	assert.Equal(t, ReorderOnly, Classify(cs))
}

func TestDiff_ComparisonFailureMarksUpdated(t *testing.T) {
	prev := twoColumnState()
	next := prev.Clone()

	e := Engine{Compare: func(a, _ layout.Component) bool {
		if a.ID == "c2" {
			panic("boom")
		}
		return true
	}}
	cs := e.Diff(&prev, &next)
	assert.Equal(t, []string{"c2"}, cs.Summary().Updated)
}

func TestClassify_Precedence(t *testing.T) {
	cs := NewChangeSet()
	cs.Moved.Add("m")
	require.Equal(t, ReorderOnly, Classify(cs))

	cs.Updated.Add("u")
	assert.Equal(t, UpdateComponents, Classify(cs))
	cs.Removed.Add("r")
	assert.Equal(t, RemoveComponents, Classify(cs))
	cs.Added.Add("a")
	assert.Equal(t, AddComponents, Classify(cs))

	assert.Equal(t, FullRender, Classify(ChangeSet{}))
}

func TestTracker(t *testing.T) {
	var tr Tracker
	st := twoColumnState()

	assert.True(t, tr.HasChanged(&st))
	assert.False(t, tr.HasChanged(&st))

	clone := st.Clone()
	assert.False(t, tr.HasChanged(&clone))

	clone.Layout = []string{"c2", "c1"}
	assert.True(t, tr.HasChanged(&clone))

	tr.Reset()
	assert.True(t, tr.HasChanged(&clone))
}

// genState draws a random but internally consistent state.
func genState(t *rapid.T) layout.State {
	st := layout.NewState()
	n := rapid.IntRange(0, 8).Draw(t, "components")
	for i := range n {
		id := rapid.StringMatching(`[a-z]{1,3}`).Draw(t, "id") + string(rune('0'+i))
		st.Components[id] = layout.Component{
			ID:    id,
			Type:  rapid.SampledFrom([]string{"hero", "text", "image"}).Draw(t, "type"),
			Props: layout.Props{"v": float64(rapid.IntRange(0, 3).Draw(t, "v"))},
		}
	}
	st.Normalize()
	return st
}

func TestDiff_ReflexiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		st := genState(t)
		clone := st.Clone()
		if cs := Diff(&st, &clone); !cs.IsEmpty() {
			t.Fatalf("diff(A, A) not empty: %s", cs)
		}
		if Hash(&st) != Hash(&clone) {
			t.Fatalf("hash differs for clones")
		}
	})
}
