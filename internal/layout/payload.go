package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

// rawPayload mirrors the hydration document. Components and sections may be
// given either as a list or as a map keyed by id.
type rawPayload struct {
	Components     yaml.Node `yaml:"components"`
	Sections       yaml.Node `yaml:"sections"`
	Layout         []string  `yaml:"layout"`
	Theme          string    `yaml:"theme"`
	GlobalSettings Props     `yaml:"globalSettings"`
}

// ParsePayload decodes a hydration payload ({components, sections, layout}) in
// JSON or YAML. Empty input yields an empty state.
func ParsePayload(data []byte) (State, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewState(), nil
	}

	var raw rawPayload
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return State{}, ferrors.WrapError(err, ferrors.CategoryValidation, "malformed hydration payload").
			WithContext("reason", "malformed_payload").
			Build()
	}

	st := NewState()
	st.Layout = raw.Layout
	st.Theme = raw.Theme
	st.GlobalSettings = raw.GlobalSettings

	components, err := decodeComponents(&raw.Components)
	if err != nil {
		return State{}, err
	}
	for _, c := range components {
		if c.ID == "" || c.Type == "" {
			return State{}, ferrors.ValidationError("component requires id and type").
				WithContext("component_id", c.ID).
				WithContext("reason", "malformed_payload").
				Build()
		}
		c.Props = normalizeProps(c.Props)
		st.Components[c.ID] = c
	}

	sections, err := decodeSections(&raw.Sections)
	if err != nil {
		return State{}, err
	}
	for _, sec := range sections {
		if sec.ID == "" {
			return State{}, ferrors.ValidationError("section requires section_id").
				WithContext("reason", "malformed_payload").
				Build()
		}
		lt, err := ParseLayoutType(string(sec.LayoutType))
		if err != nil {
			return State{}, err
		}
		sec.LayoutType = lt
		sec.Config = normalizeProps(sec.Config)
		st.Sections = append(st.Sections, sec)
	}

	st.GlobalSettings = normalizeProps(st.GlobalSettings)
	st.Normalize()
	return st, nil
}

// LoadPayload reads and parses a hydration payload file.
func LoadPayload(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return State{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read hydration payload").
			WithContext("path", path).
			Build()
	}
	return ParsePayload(data)
}

func decodeComponents(node *yaml.Node) ([]Component, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var list []Component
		if err := node.Decode(&list); err != nil {
			return nil, wrapDecode(err, "components")
		}
		return list, nil
	case yaml.MappingNode:
		var byID map[string]Component
		if err := node.Decode(&byID); err != nil {
			return nil, wrapDecode(err, "components")
		}
		list := make([]Component, 0, len(byID))
		for id, c := range byID {
			if c.ID == "" {
				c.ID = id
			}
			list = append(list, c)
		}
		return list, nil
	default:
		return nil, wrapDecode(fmt.Errorf("unexpected node kind %d", node.Kind), "components")
	}
}

func decodeSections(node *yaml.Node) ([]Section, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var list []Section
		if err := node.Decode(&list); err != nil {
			return nil, wrapDecode(err, "sections")
		}
		return list, nil
	case yaml.MappingNode:
		// Map form carries no order; keep the order of appearance in the document.
		var list []Section
		for i := 0; i+1 < len(node.Content); i += 2 {
			var sec Section
			if err := node.Content[i+1].Decode(&sec); err != nil {
				return nil, wrapDecode(err, "sections")
			}
			if sec.ID == "" {
				sec.ID = node.Content[i].Value
			}
			list = append(list, sec)
		}
		return list, nil
	default:
		return nil, wrapDecode(fmt.Errorf("unexpected node kind %d", node.Kind), "sections")
	}
}

func wrapDecode(err error, field string) error {
	return ferrors.WrapError(err, ferrors.CategoryValidation, "malformed hydration payload").
		WithContext("field", field).
		WithContext("reason", "malformed_payload").
		Build()
}

// normalizeProps round-trips props through JSON so every value has the shape
// encoding/json produces (float64 numbers, map[string]any objects).
func normalizeProps(p Props) Props {
	if len(p) == 0 {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return p
	}
	var out Props
	if err := json.Unmarshal(data, &out); err != nil {
		return p
	}
	return out
}

// NormalizeProps validates that p is JSON-serializable and returns it in
// canonical JSON shape.
func NormalizeProps(p Props) (Props, error) {
	if len(p) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "props must be JSON-serializable").
			WithContext("reason", "invalid_props").
			Build()
	}
	var out Props
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "props must be JSON-serializable").
			WithContext("reason", "invalid_props").
			Build()
	}
	return out, nil
}

// Encode renders the state as indented JSON.
func (s *State) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
