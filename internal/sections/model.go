// Package sections owns component placement: which section and column each
// component renders in, and the agreement between a component's SectionID and
// its section's ComponentRefs.
//
// All operations work on a caller-owned *layout.State (the store's private
// working copy) and never retain it.
package sections

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
)

// Model implements section and placement operations.
type Model struct {
	ids    layout.IDGenerator
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator overrides section id generation.
func WithIDGenerator(gen layout.IDGenerator) Option {
	return func(m *Model) { m.ids = gen }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// New returns a Model with uuid ids and the wall clock.
func New(opts ...Option) *Model {
	m := &Model{ids: layout.UUIDGenerator(), now: time.Now, logger: slog.Default()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CreateSection appends a new section of layoutType. config is merged over
// the layout type's defaults.
func (m *Model) CreateSection(st *layout.State, layoutType string, config layout.Props) (layout.Section, error) {
	lt, err := layout.ParseLayoutType(layoutType)
	if err != nil {
		return layout.Section{}, err
	}
	cfg := layout.DefaultSectionConfig(lt)
	user, err := layout.NormalizeProps(config)
	if err != nil {
		return layout.Section{}, err
	}
	maps.Copy(cfg, user)
	cfg, _ = layout.NormalizeProps(cfg)

	sec := layout.Section{
		ID:            m.ids("section"),
		LayoutType:    lt,
		Config:        cfg,
		ComponentRefs: []layout.ComponentRef{},
		CreatedAt:     m.now().UTC(),
	}
	st.Sections = append(st.Sections, sec)
	m.logger.Debug("section created", logfields.SectionID(sec.ID), slog.String("layout_type", string(lt)))
	return sec, nil
}

// RemoveSection deletes the section and orphans its components. Removing an
// unknown section is a no-op and reports false.
func (m *Model) RemoveSection(st *layout.State, id string) bool {
	sec, idx, ok := st.Section(id)
	if !ok {
		return false
	}
	for _, ref := range sec.ComponentRefs {
		m.orphan(st, ref.ComponentID, id)
	}
	// Components claiming the section without a ref are orphaned too.
	for cid, c := range st.Components {
		if c.SectionID == id {
			m.orphan(st, cid, id)
		}
	}
	st.Sections = slices.Delete(st.Sections, idx, idx+1)
	m.logger.Debug("section removed", logfields.SectionID(id), slog.Int("orphaned", len(sec.ComponentRefs)))
	return true
}

func (m *Model) orphan(st *layout.State, componentID, sectionID string) {
	c, ok := st.Components[componentID]
	if !ok || c.SectionID != sectionID {
		return
	}
	c.SectionID = ""
	c.ColumnIndex = 1
	st.Components[componentID] = c
}

// AssignComponent places the component at the end of column in the section,
// replacing any entry it had in another section. Column 0 means the first
// column and columns past the section's width are clamped to its last column.
// It reports whether anything changed; assigning to the current
// (section, column) is a no-op.
func (m *Model) AssignComponent(st *layout.State, componentID, sectionID string, column int) (bool, error) {
	c, ok := st.Components[componentID]
	if !ok {
		return false, ferrors.NotFoundError("component not found").
			WithContext("component_id", componentID).
			WithContext("reason", "component_not_found").
			Build()
	}
	sec, idx, ok := st.Section(sectionID)
	if !ok {
		return false, ferrors.NotFoundError("section not found").
			WithContext("section_id", sectionID).
			WithContext("reason", "section_not_found").
			Build()
	}
	col, err := clampColumn(column, sec.Columns())
	if err != nil {
		return false, err
	}

	if c.SectionID == sectionID && c.ColumnIndex == col {
		if i := sec.RefIndex(componentID); i >= 0 && sec.ComponentRefs[i].ColumnIndex == col {
			return false, nil
		}
	}

	m.dropRefs(st, componentID)
	st.Sections[idx].ComponentRefs = append(st.Sections[idx].ComponentRefs,
		layout.ComponentRef{ComponentID: componentID, ColumnIndex: col})
	c.SectionID = sectionID
	c.ColumnIndex = col
	st.Components[componentID] = c

	m.logger.Debug("component assigned",
		logfields.ComponentID(componentID), logfields.SectionID(sectionID), logfields.Column(col))
	return true, nil
}

// Unassign removes the component from its section. It reports false when the
// component was not placed.
func (m *Model) Unassign(st *layout.State, componentID string) bool {
	c, ok := st.Components[componentID]
	if !ok {
		return false
	}
	dropped := m.dropRefs(st, componentID)
	if !c.Placed() && !dropped {
		return false
	}
	c.SectionID = ""
	c.ColumnIndex = 1
	st.Components[componentID] = c
	return true
}

// Forget drops every ref to a component that is being removed.
func (m *Model) Forget(st *layout.State, componentID string) {
	m.dropRefs(st, componentID)
}

func (m *Model) dropRefs(st *layout.State, componentID string) bool {
	dropped := false
	for i := range st.Sections {
		before := len(st.Sections[i].ComponentRefs)
		st.Sections[i].ComponentRefs = slices.DeleteFunc(st.Sections[i].ComponentRefs, func(r layout.ComponentRef) bool {
			return r.ComponentID == componentID
		})
		if len(st.Sections[i].ComponentRefs) != before {
			dropped = true
		}
	}
	return dropped
}

// AutoAdopt assigns every unplaced component to a section, creating a default
// full-width section when none exists. It returns the adopting section id (empty
// when there was nothing to adopt) and the adopted component ids.
func (m *Model) AutoAdopt(st *layout.State) (string, []string, error) {
	orphans := st.Orphans()
	if len(orphans) == 0 {
		return "", nil, nil
	}

	var target string
	if len(st.Sections) == 0 {
		sec, err := m.CreateSection(st, string(layout.FullWidth), nil)
		if err != nil {
			return "", nil, err
		}
		target = sec.ID
	} else {
		target = st.Sections[0].ID
	}

	for _, id := range orphans {
		if _, err := m.AssignComponent(st, id, target, 1); err != nil {
			return "", nil, err
		}
	}
	m.logger.Info("adopted unplaced components", logfields.SectionID(target), slog.Int("count", len(orphans)))
	return target, orphans, nil
}

// UpdateSection merges config into the section and optionally changes its
// layout type. Components in columns beyond the new width move to the last column.
func (m *Model) UpdateSection(st *layout.State, id, layoutType string, config layout.Props) error {
	sec, idx, ok := st.Section(id)
	if !ok {
		return ferrors.NotFoundError("section not found").
			WithContext("section_id", id).
			WithContext("reason", "section_not_found").
			Build()
	}
	if layoutType != "" {
		lt, err := layout.ParseLayoutType(layoutType)
		if err != nil {
			return err
		}
		if lt != sec.LayoutType {
			sec.LayoutType = lt
			if sec.Config == nil {
				sec.Config = layout.Props{}
			}
			sec.Config["columns"] = float64(lt.Columns())
		}
	}
	patch, err := layout.NormalizeProps(config)
	if err != nil {
		return err
	}
	if len(patch) > 0 {
		if sec.Config == nil {
			sec.Config = layout.Props{}
		}
		maps.Copy(sec.Config, patch)
	}

	cols := sec.Columns()
	for i, ref := range sec.ComponentRefs {
		if ref.ColumnIndex > cols {
			sec.ComponentRefs[i].ColumnIndex = cols
			if c, ok := st.Components[ref.ComponentID]; ok {
				c.ColumnIndex = cols
				st.Components[ref.ComponentID] = c
			}
		}
	}
	st.Sections[idx] = sec
	return nil
}

// ReorderSections sets the section render order. order must be a permutation
// of the current section ids.
func (m *Model) ReorderSections(st *layout.State, order []string) error {
	current := st.SectionIDs()
	if len(order) != len(current) {
		return invalidOrder(order)
	}
	sorted := slices.Clone(order)
	slices.Sort(sorted)
	slices.Sort(current)
	if !slices.Equal(sorted, current) {
		return invalidOrder(order)
	}

	byID := make(map[string]layout.Section, len(st.Sections))
	for _, sec := range st.Sections {
		byID[sec.ID] = sec
	}
	out := make([]layout.Section, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	st.Sections = out
	return nil
}

func invalidOrder(order []string) error {
	return ferrors.ValidationError("section order must list every section exactly once").
		WithContext("order", order).
		WithContext("reason", "invalid_order").
		Build()
}

func clampColumn(column, columns int) (int, error) {
	switch {
	case column < 0:
		return 0, ferrors.ValidationError("column index must be positive").
			WithContext("column", column).
			WithContext("reason", "invalid_column").
			Build()
	case column == 0:
		return 1, nil
	case columns > 0 && column > columns:
		return columns, nil
	default:
		return column, nil
	}
}
