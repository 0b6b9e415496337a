// Package script decodes YAML command scripts: an optional hydration payload
// followed by a list of store commands, each written as a single-key mapping
// from the command name to its arguments.
//
//	payload: ./layout.yaml
//	commands:
//	  - create_section: {layout_type: two_column}
//	  - add_component: {type: hero, id: hero-1, props: {title: Welcome}}
//	  - assign_component: {id: hero-1, section_id: section-1, column: 2}
//	  - undo: {}
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/store"
)

// Script is a decoded command script.
type Script struct {
	// Payload is the hydration payload path, resolved against the script's
	// directory. Empty means start from an empty document.
	Payload  string
	Commands []store.Command
}

type rawScript struct {
	Payload  string      `yaml:"payload"`
	Commands []yaml.Node `yaml:"commands"`
}

type decoder func(node *yaml.Node, baseDir string) (store.Command, error)

func decodeAs[T store.Command](node *yaml.Node, _ string) (store.Command, error) {
	var c T
	if node.Kind == 0 || node.Tag == "!!null" {
		return c, nil
	}
	if err := node.Decode(&c); err != nil {
		return nil, err
	}
	return c, nil
}

var decoders map[string]decoder

func init() {
	decoders = map[string]decoder{
		store.AddComponent{}.Name():         decodeAs[store.AddComponent],
		store.UpdateComponent{}.Name():      decodeAs[store.UpdateComponent],
		store.RemoveComponent{}.Name():      decodeAs[store.RemoveComponent],
		store.MoveComponent{}.Name():        decodeAs[store.MoveComponent],
		store.AssignComponent{}.Name():      decodeAs[store.AssignComponent],
		store.DuplicateComponent{}.Name():   decodeAs[store.DuplicateComponent],
		store.CreateSection{}.Name():        decodeAs[store.CreateSection],
		store.RemoveSection{}.Name():        decodeAs[store.RemoveSection],
		store.UpdateSection{}.Name():        decodeAs[store.UpdateSection],
		store.ReorderSections{}.Name():      decodeAs[store.ReorderSections],
		store.ReorderComponents{}.Name():    decodeAs[store.ReorderComponents],
		store.SetTheme{}.Name():             decodeAs[store.SetTheme],
		store.UpdateGlobalSettings{}.Name(): decodeAs[store.UpdateGlobalSettings],
		store.AutoAdopt{}.Name():            decodeAs[store.AutoAdopt],
		store.Undo{}.Name():                 decodeAs[store.Undo],
		store.Redo{}.Name():                 decodeAs[store.Redo],
		store.ReplaceState{}.Name():         decodeReplace,
		store.Batch{}.Name():                decodeBatch,
	}
}

// Names lists the command names a script may use, sorted.
func Names() []string {
	out := make([]string, 0, len(decoders))
	for n := range decoders {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Load reads and decodes the script at path.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read script").
			WithContext("path", path).
			Build()
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a script. Relative paths inside it resolve against baseDir.
func Parse(data []byte, baseDir string) (Script, error) {
	var raw rawScript
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Script{}, malformed(err, -1)
	}
	out := Script{Payload: resolve(raw.Payload, baseDir)}
	cmds, err := decodeSteps(raw.Commands, baseDir)
	if err != nil {
		return Script{}, err
	}
	out.Commands = cmds
	return out, nil
}

func decodeSteps(nodes []yaml.Node, baseDir string) ([]store.Command, error) {
	out := make([]store.Command, 0, len(nodes))
	for i := range nodes {
		cmd, err := decodeStep(&nodes[i], baseDir)
		if err != nil {
			if ce, ok := ferrors.AsClassified(err); ok {
				return nil, ce.WithContext("step", i)
			}
			return nil, malformed(err, i)
		}
		out = append(out, cmd)
	}
	return out, nil
}

func decodeStep(node *yaml.Node, baseDir string) (store.Command, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, ferrors.ValidationError("each step must be a single-key mapping of command name to arguments").
			WithContext("line", node.Line).
			WithContext("reason", "malformed_script").
			Build()
	}
	name := node.Content[0].Value
	dec, ok := decoders[name]
	if !ok {
		return nil, ferrors.ValidationError("unknown command").
			WithContext("command", name).
			WithContext("line", node.Line).
			WithContext("reason", "unknown_command").
			Build()
	}
	return dec(node.Content[1], baseDir)
}

type rawReplace struct {
	Path  string `yaml:"path"`
	Label string `yaml:"label"`
}

func decodeReplace(node *yaml.Node, baseDir string) (store.Command, error) {
	var raw rawReplace
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}
	if raw.Path == "" {
		return nil, ferrors.ValidationError("replace_state needs a payload path").
			WithContext("reason", "missing_path").
			Build()
	}
	st, err := layout.LoadPayload(resolve(raw.Path, baseDir))
	if err != nil {
		return nil, err
	}
	return store.ReplaceState{State: st, Label: raw.Label}, nil
}

type rawBatch struct {
	Label     string      `yaml:"label"`
	ChunkSize int         `yaml:"chunk_size"`
	Commands  []yaml.Node `yaml:"commands"`
}

func decodeBatch(node *yaml.Node, baseDir string) (store.Command, error) {
	var raw rawBatch
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}
	cmds, err := decodeSteps(raw.Commands, baseDir)
	if err != nil {
		return nil, err
	}
	return store.Batch{Label: raw.Label, Commands: cmds, ChunkSize: raw.ChunkSize}, nil
}

func resolve(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func malformed(err error, step int) error {
	b := ferrors.WrapError(err, ferrors.CategoryValidation, fmt.Sprintf("malformed script: %v", err)).
		WithContext("reason", "malformed_script")
	if step >= 0 {
		b = b.WithContext("step", step)
	}
	return b.Build()
}
