package layout

import (
	"slices"
	"sort"

	"github.com/mitchellh/copystructure"
)

// State is the authoritative layout document.
type State struct {
	Components     map[string]Component `json:"components" yaml:"components"`
	Sections       []Section            `json:"sections" yaml:"sections"`
	Layout         []string             `json:"layout" yaml:"layout"`
	Theme          string               `json:"theme,omitempty" yaml:"theme,omitempty"`
	GlobalSettings Props                `json:"globalSettings,omitempty" yaml:"globalSettings,omitempty"`
}

// NewState returns an empty, normalized state.
func NewState() State {
	return State{Components: map[string]Component{}, Sections: []Section{}, Layout: []string{}}
}

// Clone returns a deep copy sharing no maps or slices with s.
func (s *State) Clone() State {
	if s == nil {
		return NewState()
	}
	out := copystructure.Must(copystructure.Copy(*s)).(State)
	out.ensure()
	return out
}

// IsEmpty reports whether the state holds neither components nor sections.
func (s *State) IsEmpty() bool {
	return s == nil || (len(s.Components) == 0 && len(s.Sections) == 0)
}

func (s *State) ensure() {
	if s.Components == nil {
		s.Components = map[string]Component{}
	}
	if s.Sections == nil {
		s.Sections = []Section{}
	}
	if s.Layout == nil {
		s.Layout = []string{}
	}
}

// Section returns the section with id and its index in the section order.
func (s *State) Section(id string) (Section, int, bool) {
	for i, sec := range s.Sections {
		if sec.ID == id {
			return sec, i, true
		}
	}
	return Section{}, -1, false
}

// SectionIDs returns the section ids in render order.
func (s *State) SectionIDs() []string {
	ids := make([]string, 0, len(s.Sections))
	for _, sec := range s.Sections {
		ids = append(ids, sec.ID)
	}
	return ids
}

// ComponentIDs returns all component ids sorted lexically.
func (s *State) ComponentIDs() []string {
	ids := make([]string, 0, len(s.Components))
	for id := range s.Components {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Orphans returns the ids of components without a section, in layout order.
func (s *State) Orphans() []string {
	var out []string
	for _, id := range s.Layout {
		if c, ok := s.Components[id]; ok && !c.Placed() {
			out = append(out, id)
		}
	}
	return out
}

// Normalize repairs structural details that carry no meaning of their own:
// nil collections, component ids that disagree with their map key, column
// indexes below one, and a layout list that must hold every component id
// exactly once. Ids missing from the layout are appended in lexical order.
func (s *State) Normalize() {
	s.ensure()
	for key, c := range s.Components {
		c.ID = key
		if c.ColumnIndex < 1 {
			c.ColumnIndex = 1
		}
		s.Components[key] = c
	}

	seen := make(map[string]struct{}, len(s.Layout))
	layout := make([]string, 0, len(s.Components))
	for _, id := range s.Layout {
		if _, ok := s.Components[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		layout = append(layout, id)
	}
	for _, id := range s.ComponentIDs() {
		if _, ok := seen[id]; !ok {
			layout = append(layout, id)
		}
	}
	s.Layout = layout

	for i := range s.Sections {
		if s.Sections[i].ComponentRefs == nil {
			s.Sections[i].ComponentRefs = []ComponentRef{}
		}
	}
}

// RemoveFromLayout drops id from the render order.
func (s *State) RemoveFromLayout(id string) {
	s.Layout = slices.DeleteFunc(s.Layout, func(v string) bool { return v == id })
}

// Position identifies where a component renders. SectionIndex is the
// section's place in the section order; LayoutIndex is the component's place
// in the layout list, -1 when it is not listed.
type Position struct {
	SectionID    string
	SectionIndex int
	Column       int
	Index        int
	LayoutIndex  int
}

// Positions maps every component id to its render position: the section,
// column and ordinal within that column for placed components, and the index
// in the layout list for unplaced ones. Both carry the layout index, so a
// reorder of sections or of the layout list shows up as a position change.
func (s *State) Positions() map[string]Position {
	if s == nil {
		return map[string]Position{}
	}
	out := make(map[string]Position, len(s.Components))
	layoutIndex := make(map[string]int, len(s.Layout))
	for i, id := range s.Layout {
		if _, seen := layoutIndex[id]; !seen {
			layoutIndex[id] = i
		}
	}
	indexOf := func(id string) int {
		if i, ok := layoutIndex[id]; ok {
			return i
		}
		return -1
	}
	for si, sec := range s.Sections {
		ordinal := map[int]int{}
		for _, ref := range sec.ComponentRefs {
			out[ref.ComponentID] = Position{
				SectionID:    sec.ID,
				SectionIndex: si,
				Column:       ref.ColumnIndex,
				Index:        ordinal[ref.ColumnIndex],
				LayoutIndex:  indexOf(ref.ComponentID),
			}
			ordinal[ref.ColumnIndex]++
		}
	}
	for i, id := range s.Layout {
		c, ok := s.Components[id]
		if !ok {
			continue
		}
		if _, placed := out[id]; placed && c.Placed() {
			continue
		}
		out[id] = Position{Index: i, LayoutIndex: i}
	}
	return out
}
