package history

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stats summarizes the log for display.
type Stats struct {
	Entries      int       `json:"entries"`
	Cursor       int       `json:"cursor"`
	Capacity     int       `json:"capacity"`
	CanUndo      bool      `json:"canUndo"`
	CanRedo      bool      `json:"canRedo"`
	Phase        string    `json:"phase"`
	Oldest       time.Time `json:"oldest,omitzero"`
	Newest       time.Time `json:"newest,omitzero"`
	RecentLabels []string  `json:"recentLabels"`
}

const recentLabelCount = 5

// Stats returns a summary of the log.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Entries:      len(m.entries),
		Cursor:       m.cursor,
		Capacity:     m.capacity,
		CanUndo:      m.phase == Idle && m.cursor > 0,
		CanRedo:      m.phase == Idle && m.cursor < len(m.entries)-1,
		Phase:        m.phase.String(),
		RecentLabels: []string{},
	}
	if len(m.entries) > 0 {
		s.Oldest = m.entries[0].Timestamp
		s.Newest = m.entries[len(m.entries)-1].Timestamp
	}
	for i := m.cursor; i >= 0 && i < len(m.entries) && len(s.RecentLabels) < recentLabelCount; i-- {
		s.RecentLabels = append(s.RecentLabels, m.entries[i].Label)
	}
	return s
}

// Label turns a command name such as "add_component" and an optional detail
// into a human-readable entry label ("Add Component: hero").
func Label(command, detail string) string {
	words := strings.ReplaceAll(command, "_", " ")
	label := cases.Title(language.English).String(words)
	if detail != "" {
		label += ": " + detail
	}
	return label
}
