// Package history keeps the navigable snapshot log behind undo and redo.
//
// The log is a bounded list of entries with a cursor at the entry matching the
// current store state. Capturing drops everything after the cursor; undo and
// redo move the cursor and hand that entry's snapshot to an apply function,
// during which captures are ignored.
package history

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/metrics"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 100

// Phase is the manager's state machine position.
type Phase int

const (
	Idle Phase = iota
	Capturing
	Replaying
)

func (p Phase) String() string {
	switch p {
	case Capturing:
		return "capturing"
	case Replaying:
		return "replaying"
	default:
		return "idle"
	}
}

// Entry is one point in the history.
type Entry struct {
	Snapshot  layout.Snapshot
	Timestamp time.Time
	Label     string
}

// ApplyFunc applies a history entry to the store. An error aborts the move
// and leaves the cursor where it was.
type ApplyFunc func(ctx context.Context, e Entry) error

// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	entries  []Entry
	cursor   int
	capacity int
	phase    Phase

	journal  Journal
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCapacity bounds the number of entries. Values below 2 fall back to the default.
func WithCapacity(n int) Option {
	return func(m *Manager) {
		if n >= 2 {
			m.capacity = n
		}
	}
}

// WithJournal records every history transition.
func WithJournal(j Journal) Option { return func(m *Manager) { m.journal = j } }

// WithRecorder reports history depth and capture results.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) { m.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// New returns an empty manager in the Idle phase.
func New(opts ...Option) *Manager {
	m := &Manager{
		capacity: DefaultCapacity,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Seed replaces the log with a single entry for snap, typically the hydrated state.
func (m *Manager) Seed(ctx context.Context, snap layout.Snapshot, label string) {
	m.mu.Lock()
	e := Entry{Snapshot: snap, Timestamp: m.now(), Label: label}
	m.entries = []Entry{e}
	m.cursor = 0
	m.phase = Idle
	m.recorder.SetHistoryDepth(1, 0)
	m.mu.Unlock()

	m.record(ctx, Record{Action: ActionSeeded, Entry: e, Cursor: 0, Entries: 1})
}

// Capture appends snap after the cursor and drops any redo entries. replay
// marks a store change caused by Undo or Redo; those never create entries.
// A non-replay capture while a replay is being applied is a reentrancy
// violation: it is logged and ignored. A snapshot identical to the entry under
// the cursor is suppressed. Capture reports whether an entry was stored.
func (m *Manager) Capture(ctx context.Context, snap layout.Snapshot, label string, replay bool) bool {
	m.mu.Lock()
	if replay {
		m.mu.Unlock()
		return false
	}
	if m.phase == Replaying {
		m.mu.Unlock()
		err := ferrors.ReentrancyViolation("history capture during replay ignored").
			WithContext("label", label).
			Build()
		m.logger.Warn(err.Message(), logfields.Error(err), slog.String("label", label))
		m.recorder.IncHistoryCapture(metrics.CaptureReentrant)
		return false
	}

	m.phase = Capturing
	if len(m.entries) > 0 && m.entries[m.cursor].Snapshot.Hash() == snap.Hash() {
		m.phase = Idle
		m.mu.Unlock()
		m.recorder.IncHistoryCapture(metrics.CaptureSuppressed)
		m.logger.Debug("history capture suppressed", logfields.Hash(snap.Hash()))
		return false
	}

	e := Entry{Snapshot: snap, Timestamp: m.now(), Label: label}
	if len(m.entries) > 0 {
		m.entries = m.entries[:m.cursor+1]
	}
	m.entries = append(m.entries, e)
	m.cursor = len(m.entries) - 1

	var evicted []Entry
	if over := len(m.entries) - m.capacity; over > 0 {
		evicted = slices.Clone(m.entries[:over])
		m.entries = slices.Clone(m.entries[over:])
		m.cursor -= over
	}
	cursor, total := m.cursor, len(m.entries)
	m.phase = Idle
	m.mu.Unlock()

	m.recorder.IncHistoryCapture(metrics.CaptureStored)
	m.recorder.SetHistoryDepth(total, cursor)
	m.record(ctx, Record{Action: ActionCaptured, Entry: e, Cursor: cursor, Entries: total})
	for _, ev := range evicted {
		m.recorder.IncHistoryCapture(metrics.CaptureEvicted)
		m.record(ctx, Record{Action: ActionEvicted, Entry: ev, Cursor: cursor, Entries: total})
	}
	return true
}

// Undo moves the cursor back one entry and applies it. It returns false
// without side effects at the oldest entry, while another move is in
// progress, or when apply fails.
func (m *Manager) Undo(ctx context.Context, apply ApplyFunc) bool {
	return m.move(ctx, -1, ActionUndo, apply)
}

// Redo moves the cursor forward one entry and applies it. It returns false
// without side effects at the newest entry, while another move is in
// progress, or when apply fails.
func (m *Manager) Redo(ctx context.Context, apply ApplyFunc) bool {
	return m.move(ctx, +1, ActionRedo, apply)
}

func (m *Manager) move(ctx context.Context, step int, action Action, apply ApplyFunc) bool {
	m.mu.Lock()
	target := m.cursor + step
	if m.phase != Idle || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	from := m.cursor
	m.cursor = target
	m.phase = Replaying
	e := m.entries[target]
	m.mu.Unlock()

	err := apply(ctx, e)

	m.mu.Lock()
	m.phase = Idle
	if err != nil {
		m.cursor = from
		m.mu.Unlock()
		m.logger.Warn("history replay failed", slog.String("action", string(action)), logfields.Error(err))
		return false
	}
	cursor, total := m.cursor, len(m.entries)
	m.mu.Unlock()

	m.recorder.SetHistoryDepth(total, cursor)
	m.record(ctx, Record{Action: action, Entry: e, Cursor: cursor, Entries: total})
	m.logger.Debug("history moved", slog.String("action", string(action)), logfields.Cursor(cursor))
	return true
}

// Clear keeps only snap, usually the current store state.
func (m *Manager) Clear(ctx context.Context, snap layout.Snapshot) {
	m.mu.Lock()
	e := Entry{Snapshot: snap, Timestamp: m.now(), Label: "Clear history"}
	m.entries = []Entry{e}
	m.cursor = 0
	m.mu.Unlock()

	m.recorder.SetHistoryDepth(1, 0)
	m.record(ctx, Record{Action: ActionCleared, Entry: e, Cursor: 0, Entries: 1})
}

// CanUndo reports whether Undo would move.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == Idle && m.cursor > 0
}

// CanRedo reports whether Redo would move.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == Idle && m.cursor < len(m.entries)-1
}

// Cursor returns the index of the current entry.
func (m *Manager) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// Len returns the number of entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Phase returns the current state machine phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Entries returns a copy of the log.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Current returns the entry under the cursor.
func (m *Manager) Current() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *Manager) record(ctx context.Context, rec Record) {
	if m.journal == nil {
		return
	}
	rec.At = m.now()
	if err := m.journal.Record(ctx, rec); err != nil {
		m.logger.Warn("history journal write failed", slog.String("action", string(rec.Action)), logfields.Error(err))
	}
}
