package sections

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
)

// IssueKind names a divergence between components and section refs.
type IssueKind string

const (
	MissingSection IssueKind = "missing_section" // component points at an unknown section
	MissingRef     IssueKind = "missing_ref"     // component claims a section that does not list it
	DanglingRef    IssueKind = "dangling_ref"    // ref to an unknown component
	ForeignRef     IssueKind = "foreign_ref"     // ref to a component placed elsewhere
	DuplicateRef   IssueKind = "duplicate_ref"   // component listed more than once
	ColumnMismatch IssueKind = "column_mismatch" // ref and component disagree on the column
)

// Issue is one detected divergence.
type Issue struct {
	Kind        IssueKind
	ComponentID string
	SectionID   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s(component=%s section=%s)", i.Kind, i.ComponentID, i.SectionID)
}

// Check lists every divergence between component placement and section refs.
func Check(st *layout.State) []Issue {
	var issues []Issue
	listed := map[string]string{}

	for _, sec := range st.Sections {
		for _, ref := range sec.ComponentRefs {
			c, ok := st.Components[ref.ComponentID]
			switch {
			case !ok:
				issues = append(issues, Issue{DanglingRef, ref.ComponentID, sec.ID})
				continue
			case listed[ref.ComponentID] != "":
				issues = append(issues, Issue{DuplicateRef, ref.ComponentID, sec.ID})
				continue
			case c.SectionID != sec.ID:
				issues = append(issues, Issue{ForeignRef, ref.ComponentID, sec.ID})
				continue
			case c.ColumnIndex != ref.ColumnIndex:
				issues = append(issues, Issue{ColumnMismatch, ref.ComponentID, sec.ID})
			}
			listed[ref.ComponentID] = sec.ID
		}
	}

	for _, id := range st.ComponentIDs() {
		c := st.Components[id]
		if !c.Placed() {
			continue
		}
		if _, _, ok := st.Section(c.SectionID); !ok {
			issues = append(issues, Issue{MissingSection, id, c.SectionID})
			continue
		}
		if listed[id] != c.SectionID {
			issues = append(issues, Issue{MissingRef, id, c.SectionID})
		}
	}
	return issues
}

// Repair restores agreement between placement and refs and returns the number
// of fixes applied. The component record is authoritative: refs that disagree
// with it are dropped or corrected, and components pointing at unknown
// sections are orphaned.
func (m *Model) Repair(st *layout.State) int {
	fixes := 0
	seen := map[string]bool{}

	for i := range st.Sections {
		sec := &st.Sections[i]
		kept := sec.ComponentRefs[:0]
		for _, ref := range sec.ComponentRefs {
			c, ok := st.Components[ref.ComponentID]
			if !ok || seen[ref.ComponentID] || c.SectionID != sec.ID {
				fixes++
				continue
			}
			if c.ColumnIndex != ref.ColumnIndex {
				ref.ColumnIndex = c.ColumnIndex
				fixes++
			}
			seen[ref.ComponentID] = true
			kept = append(kept, ref)
		}
		sec.ComponentRefs = kept
	}

	for _, id := range st.ComponentIDs() {
		c := st.Components[id]
		if !c.Placed() || seen[id] {
			continue
		}
		_, idx, ok := st.Section(c.SectionID)
		if !ok {
			c.SectionID = ""
			c.ColumnIndex = 1
			st.Components[id] = c
			fixes++
			continue
		}
		st.Sections[idx].ComponentRefs = append(st.Sections[idx].ComponentRefs,
			layout.ComponentRef{ComponentID: id, ColumnIndex: c.ColumnIndex})
		fixes++
	}

	if fixes > 0 {
		m.logger.Warn("repaired section references", slog.Int("fixes", fixes), logfields.Entries(len(st.Sections)))
	}
	return fixes
}
