package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/store"
)

func TestParseScript(t *testing.T) {
	data := []byte(`
payload: layout.yaml
commands:
  - create_section: {layout_type: two_column}
  - add_component:
      type: hero
      id: hero-1
      props: {title: Welcome}
      target: {section_id: s1, column: 2}
  - move_component: {id: hero-1, target: {section_id: ""}, index: 0}
  - auto_adopt:
  - undo: {}
  - batch:
      label: Tidy up
      commands:
        - set_theme: {theme: dark}
        - remove_component: {id: hero-1}
`)
	s, err := Parse(data, "/work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "layout.yaml"), s.Payload)
	require.Len(t, s.Commands, 6)

	assert.Equal(t, store.CreateSection{LayoutType: "two_column"}, s.Commands[0])

	add, ok := s.Commands[1].(store.AddComponent)
	require.True(t, ok)
	assert.Equal(t, "hero-1", add.ID)
	assert.Equal(t, "Welcome", add.Props["title"])
	require.NotNil(t, add.Target)
	assert.Equal(t, store.Target{SectionID: "s1", Column: 2}, *add.Target)

	move, ok := s.Commands[2].(store.MoveComponent)
	require.True(t, ok)
	require.NotNil(t, move.Index)
	assert.Equal(t, 0, *move.Index)

	assert.Equal(t, store.AutoAdopt{}, s.Commands[3])
	assert.Equal(t, store.Undo{}, s.Commands[4])

	batch, ok := s.Commands[5].(store.Batch)
	require.True(t, ok)
	assert.Equal(t, "Tidy up", batch.Label)
	assert.Equal(t, []store.Command{
		store.SetTheme{Theme: "dark"},
		store.RemoveComponent{ID: "hero-1"},
	}, batch.Commands)
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		reason string
	}{
		{"unknown command", "commands:\n  - explode: {}\n", "unknown_command"},
		{"two keys", "commands:\n  - {undo: {}, redo: {}}\n", "malformed_script"},
		{"not yaml", "commands: [", "malformed_script"},
		{"bad arguments", "commands:\n  - add_component: [1, 2]\n", "malformed_script"},
		{"replace without path", "commands:\n  - replace_state: {label: x}\n", "missing_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "")
			require.Error(t, err)
			assert.Equal(t, tt.reason, ferrors.ReasonCode(err))
		})
	}
}

func TestReplaceStateLoadsPayload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "next.yaml"),
		[]byte("components:\n  - id: a\n    type: text\nlayout: [a]\n"), 0o600))
	path := filepath.Join(dir, "script.yaml")
	require.NoError(t, os.WriteFile(path,
		[]byte("commands:\n  - replace_state: {path: next.yaml, label: Reset}\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	require.Len(t, s.Commands, 1)
	rs, ok := s.Commands[0].(store.ReplaceState)
	require.True(t, ok)
	assert.Equal(t, "Reset", rs.Label)
	assert.Contains(t, rs.State.Components, "a")
}

func TestNamesCoverEveryCommand(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "add_component")
	assert.Contains(t, names, "batch")
	assert.Contains(t, names, "replace_state")
	assert.IsIncreasing(t, names)
}
