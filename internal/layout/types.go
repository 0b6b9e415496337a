// Package layout defines the canonical layout document: components, sections and
// the render order, plus immutable snapshots and their content hash.
//
// Cross references are plain id strings. A component points to its section through
// SectionID and a section lists its components through ComponentRefs; both sides are
// kept in agreement by the sections package.
package layout

import "time"

// Props is the key/value configuration of a component or section.
// Values must be JSON-serializable.
type Props map[string]any

// Component is a content element placed in the layout.
type Component struct {
	ID          string `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"`
	Props       Props  `json:"props,omitempty" yaml:"props,omitempty"`
	SectionID   string `json:"sectionId,omitempty" yaml:"sectionId,omitempty"`
	ColumnIndex int    `json:"columnIndex,omitempty" yaml:"columnIndex,omitempty"`
}

// Placed reports whether the component belongs to a section.
func (c Component) Placed() bool { return c.SectionID != "" }

// ComponentRef is a section's entry for one assigned component.
type ComponentRef struct {
	ComponentID string `json:"component_id" yaml:"component_id"`
	ColumnIndex int    `json:"column_index" yaml:"column_index"`
}

// Section is a layout container with one or more columns.
type Section struct {
	ID            string         `json:"section_id" yaml:"section_id"`
	LayoutType    LayoutType     `json:"layoutType" yaml:"layoutType"`
	Config        Props          `json:"config,omitempty" yaml:"config,omitempty"`
	ComponentRefs []ComponentRef `json:"componentRefs" yaml:"componentRefs"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
}

// Columns returns the number of columns the section renders.
func (s Section) Columns() int {
	if n, ok := s.Config["columns"]; ok {
		if cols := toInt(n); cols > 0 {
			return cols
		}
	}
	return s.LayoutType.Columns()
}

// RefIndex returns the position of componentID in the section's refs or -1.
func (s Section) RefIndex(componentID string) int {
	for i, ref := range s.ComponentRefs {
		if ref.ComponentID == componentID {
			return i
		}
	}
	return -1
}

// ColumnOrder returns the component ids assigned to column in render order.
func (s Section) ColumnOrder(column int) []string {
	var ids []string
	for _, ref := range s.ComponentRefs {
		if ref.ColumnIndex == column {
			ids = append(ids, ref.ComponentID)
		}
	}
	return ids
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
