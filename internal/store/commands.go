package store

import (
	"maps"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/history"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

// Target names a placement: a section and a column inside it. An empty
// SectionID means "no section".
type Target struct {
	SectionID string `json:"section_id" yaml:"section_id"`
	Column    int    `json:"column,omitempty" yaml:"column,omitempty"`
}

func componentNotFound(id string) error {
	return ferrors.NotFoundError("component not found").
		WithContext("component_id", id).
		WithContext("reason", "component_not_found").
		Build()
}

func missingField(field string) error {
	return ferrors.ValidationError(field+" is required").
		WithContext("field", field).
		WithContext("reason", "missing_"+field).
		Build()
}

// mergeProps applies patch over base. A nil value in patch deletes the key.
func mergeProps(base, patch layout.Props) layout.Props {
	out := maps.Clone(base)
	if out == nil {
		out = layout.Props{}
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// AddComponent creates a component of Type and appends it to the render
// order. With a Target it is also placed in that section.
type AddComponent struct {
	Type   string       `json:"type" yaml:"type"`
	Props  layout.Props `json:"props,omitempty" yaml:"props,omitempty"`
	Target *Target      `json:"target,omitempty" yaml:"target,omitempty"`
	// ID overrides the generated id. It must not be in use.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
}

func (AddComponent) Name() string { return "add_component" }

func (c AddComponent) Apply(tx *Tx) error {
	typ := strings.TrimSpace(c.Type)
	if typ == "" {
		return missingField("type")
	}
	props, err := layout.NormalizeProps(c.Props)
	if err != nil {
		return err
	}
	st := tx.State()
	id := c.ID
	if id == "" {
		id = tx.NewID(typ)
	} else if _, exists := st.Components[id]; exists {
		return ferrors.ValidationError("component id already in use").
			WithContext("component_id", id).
			WithContext("reason", "duplicate_id").
			Build()
	}

	st.Components[id] = layout.Component{ID: id, Type: typ, Props: props, ColumnIndex: 1}
	st.Layout = append(st.Layout, id)
	if c.Target != nil && c.Target.SectionID != "" {
		if _, err := tx.Sections().AssignComponent(st, id, c.Target.SectionID, c.Target.Column); err != nil {
			return err
		}
	}
	tx.Created(id, "")
	tx.SetLabel(history.Label(c.Name(), typ))
	return nil
}

// UpdateComponent merges Props into the component's props, or replaces them
// when Replace is set.
type UpdateComponent struct {
	ID      string       `json:"id" yaml:"id"`
	Props   layout.Props `json:"props" yaml:"props"`
	Replace bool         `json:"replace,omitempty" yaml:"replace,omitempty"`
}

func (UpdateComponent) Name() string { return "update_component" }

func (c UpdateComponent) Apply(tx *Tx) error {
	if c.ID == "" {
		return missingField("id")
	}
	st := tx.State()
	comp, found := st.Components[c.ID]
	if !found {
		return componentNotFound(c.ID)
	}
	patch, err := layout.NormalizeProps(c.Props)
	if err != nil {
		return err
	}
	if c.Replace {
		comp.Props = patch
	} else {
		comp.Props = mergeProps(comp.Props, patch)
	}
	st.Components[c.ID] = comp
	tx.SetLabel(history.Label(c.Name(), comp.Type))
	return nil
}

// RemoveComponent deletes a component. Removing an unknown id is a no-op.
type RemoveComponent struct {
	ID string `json:"id" yaml:"id"`
}

func (RemoveComponent) Name() string { return "remove_component" }

func (c RemoveComponent) Apply(tx *Tx) error {
	if c.ID == "" {
		return missingField("id")
	}
	st := tx.State()
	comp, found := st.Components[c.ID]
	tx.SetLabel(history.Label(c.Name(), comp.Type))
	if !found {
		return nil
	}
	tx.Sections().Forget(st, c.ID)
	delete(st.Components, c.ID)
	st.RemoveFromLayout(c.ID)
	return nil
}

// MoveComponent changes a component's placement. An empty target section
// takes the component out of its section. Index, when set, also moves it to
// that position in the render order.
type MoveComponent struct {
	ID     string `json:"id" yaml:"id"`
	Target Target `json:"target" yaml:"target"`
	Index  *int   `json:"index,omitempty" yaml:"index,omitempty"`
}

func (MoveComponent) Name() string { return "move_component" }

func (c MoveComponent) Apply(tx *Tx) error {
	if c.ID == "" {
		return missingField("id")
	}
	st := tx.State()
	comp, found := st.Components[c.ID]
	if !found {
		return componentNotFound(c.ID)
	}
	if c.Target.SectionID == "" {
		tx.Sections().Unassign(st, c.ID)
	} else if _, err := tx.Sections().AssignComponent(st, c.ID, c.Target.SectionID, c.Target.Column); err != nil {
		return err
	}
	if c.Index != nil {
		st.RemoveFromLayout(c.ID)
		at := min(max(*c.Index, 0), len(st.Layout))
		st.Layout = slices.Insert(st.Layout, at, c.ID)
	}
	tx.SetLabel(history.Label(c.Name(), comp.Type))
	return nil
}

// AssignComponent places a component in a section column.
type AssignComponent struct {
	ID        string `json:"id" yaml:"id"`
	SectionID string `json:"section_id" yaml:"section_id"`
	Column    int    `json:"column,omitempty" yaml:"column,omitempty"`
}

func (AssignComponent) Name() string { return "assign_component" }

func (c AssignComponent) Apply(tx *Tx) error {
	if c.ID == "" {
		return missingField("id")
	}
	if c.SectionID == "" {
		return missingField("section_id")
	}
	if _, err := tx.Sections().AssignComponent(tx.State(), c.ID, c.SectionID, c.Column); err != nil {
		return err
	}
	tx.SetLabel(history.Label(c.Name(), c.SectionID))
	return nil
}

// DuplicateComponent copies a component next to the original, in the same
// section column.
type DuplicateComponent struct {
	ID string `json:"id" yaml:"id"`
}

func (DuplicateComponent) Name() string { return "duplicate_component" }

func (c DuplicateComponent) Apply(tx *Tx) error {
	if c.ID == "" {
		return missingField("id")
	}
	st := tx.State()
	src, found := st.Components[c.ID]
	if !found {
		return componentNotFound(c.ID)
	}
	props, err := layout.NormalizeProps(src.Props)
	if err != nil {
		return err
	}
	id := tx.NewID(src.Type)
	st.Components[id] = layout.Component{ID: id, Type: src.Type, Props: props, ColumnIndex: 1}
	at := slices.Index(st.Layout, c.ID) + 1
	st.Layout = slices.Insert(st.Layout, at, id)
	if src.Placed() {
		if _, err := tx.Sections().AssignComponent(st, id, src.SectionID, src.ColumnIndex); err != nil {
			return err
		}
	}
	tx.Created(id, "")
	tx.SetLabel(history.Label(c.Name(), src.Type))
	return nil
}

// CreateSection appends a section of LayoutType.
type CreateSection struct {
	LayoutType string       `json:"layout_type" yaml:"layout_type"`
	Config     layout.Props `json:"config,omitempty" yaml:"config,omitempty"`
}

func (CreateSection) Name() string { return "create_section" }

func (c CreateSection) Apply(tx *Tx) error {
	sec, err := tx.Sections().CreateSection(tx.State(), c.LayoutType, c.Config)
	if err != nil {
		return err
	}
	tx.Created("", sec.ID)
	tx.SetLabel(history.Label(c.Name(), string(sec.LayoutType)))
	return nil
}

// RemoveSection deletes a section and orphans its components. Removing an
// unknown section is a no-op.
type RemoveSection struct {
	ID string `json:"id" yaml:"id"`
}

func (RemoveSection) Name() string { return "remove_section" }

func (c RemoveSection) Apply(tx *Tx) error {
	if c.ID == "" {
		return missingField("id")
	}
	tx.Sections().RemoveSection(tx.State(), c.ID)
	tx.SetLabel(history.Label(c.Name(), c.ID))
	return nil
}

// UpdateSection merges Config into a section and optionally changes its
// layout type.
type UpdateSection struct {
	ID         string       `json:"id" yaml:"id"`
	LayoutType string       `json:"layout_type,omitempty" yaml:"layout_type,omitempty"`
	Config     layout.Props `json:"config,omitempty" yaml:"config,omitempty"`
}

func (UpdateSection) Name() string { return "update_section" }

func (c UpdateSection) Apply(tx *Tx) error {
	if c.ID == "" {
		return missingField("id")
	}
	if err := tx.Sections().UpdateSection(tx.State(), c.ID, c.LayoutType, c.Config); err != nil {
		return err
	}
	tx.SetLabel(history.Label(c.Name(), c.ID))
	return nil
}

// ReorderSections sets the section order. Order must list every section once.
type ReorderSections struct {
	Order []string `json:"order" yaml:"order"`
}

func (ReorderSections) Name() string { return "reorder_sections" }

func (c ReorderSections) Apply(tx *Tx) error {
	if err := tx.Sections().ReorderSections(tx.State(), c.Order); err != nil {
		return err
	}
	tx.SetLabel(history.Label(c.Name(), ""))
	return nil
}

// ReorderComponents sets the render order. Order must list every component once.
type ReorderComponents struct {
	Order []string `json:"order" yaml:"order"`
}

func (ReorderComponents) Name() string { return "reorder_components" }

func (c ReorderComponents) Apply(tx *Tx) error {
	st := tx.State()
	want := st.ComponentIDs()
	got := slices.Clone(c.Order)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return ferrors.ValidationError("component order must list every component exactly once").
			WithContext("order", c.Order).
			WithContext("reason", "invalid_order").
			Build()
	}
	st.Layout = slices.Clone(c.Order)
	tx.SetLabel(history.Label(c.Name(), ""))
	return nil
}

// SetTheme selects the document theme.
type SetTheme struct {
	Theme string `json:"theme" yaml:"theme"`
}

func (SetTheme) Name() string { return "set_theme" }

func (c SetTheme) Apply(tx *Tx) error {
	theme := strings.TrimSpace(c.Theme)
	if theme == "" {
		return missingField("theme")
	}
	tx.State().Theme = theme
	tx.SetLabel(history.Label(c.Name(), theme))
	return nil
}

// UpdateGlobalSettings merges Settings into the document settings, or
// replaces them when Replace is set.
type UpdateGlobalSettings struct {
	Settings layout.Props `json:"settings" yaml:"settings"`
	Replace  bool         `json:"replace,omitempty" yaml:"replace,omitempty"`
}

func (UpdateGlobalSettings) Name() string { return "update_global_settings" }

func (c UpdateGlobalSettings) Apply(tx *Tx) error {
	patch, err := layout.NormalizeProps(c.Settings)
	if err != nil {
		return err
	}
	st := tx.State()
	if c.Replace {
		st.GlobalSettings = patch
	} else {
		st.GlobalSettings = mergeProps(st.GlobalSettings, patch)
	}
	tx.SetLabel(history.Label(c.Name(), ""))
	return nil
}

// AutoAdopt places every unplaced component, creating a full-width section
// when the document has none.
type AutoAdopt struct{}

func (AutoAdopt) Name() string { return "auto_adopt" }

func (c AutoAdopt) Apply(tx *Tx) error {
	sectionID, adopted, err := tx.Sections().AutoAdopt(tx.State())
	if err != nil {
		return err
	}
	tx.Created("", sectionID)
	tx.Adopted(adopted...)
	tx.SetLabel(history.Label(c.Name(), ""))
	return nil
}

// ReplaceState swaps in a whole document, typically one reloaded from disk.
type ReplaceState struct {
	State layout.State `json:"state" yaml:"state"`
	Label string       `json:"label,omitempty" yaml:"label,omitempty"`
}

func (ReplaceState) Name() string { return "replace_state" }

func (c ReplaceState) Apply(tx *Tx) error {
	next := c.State.Clone()
	next.Normalize()
	*tx.State() = next
	label := c.Label
	if label == "" {
		label = history.Label(c.Name(), "")
	}
	tx.SetLabel(label)
	return nil
}

// Undo moves history one entry back. It is handled by the store itself and
// cannot run inside a batch.
type Undo struct{}

func (Undo) Name() string { return "undo" }

func (Undo) Apply(*Tx) error { return replayInsideCommand("undo") }

// Redo moves history one entry forward. It is handled by the store itself
// and cannot run inside a batch.
type Redo struct{}

func (Redo) Name() string { return "redo" }

func (Redo) Apply(*Tx) error { return replayInsideCommand("redo") }

func replayInsideCommand(name string) error {
	return ferrors.ValidationError(name+" cannot run inside another command").
		WithContext("command", name).
		WithContext("reason", "invalid_batch").
		Build()
}
