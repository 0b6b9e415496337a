// Package store holds the authoritative layout document and is the only place
// it changes.
//
// Every command runs against a private clone of the current state. Only a
// clone that the command finished without error is committed; the commit
// classifies the change, captures history and notifies subscribers, in that
// order, once per command. Dispatch, hydration, undo and redo are serialized.
package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/layoutstate/internal/diff"
	"git.home.luguber.info/inful/layoutstate/internal/events"
	"git.home.luguber.info/inful/layoutstate/internal/history"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/metrics"
	"git.home.luguber.info/inful/layoutstate/internal/observability"
	"git.home.luguber.info/inful/layoutstate/internal/readiness"
	"git.home.luguber.info/inful/layoutstate/internal/sections"
)

// DefaultDocument is the document id used when none is configured.
const DefaultDocument = "default"

const publishTimeout = 2 * time.Second

type subscription struct {
	id uint64
	fn func(Notification)
}

// Store is the state handle injected into every dependent.
type Store struct {
	// opMu serializes every transition; mu guards the committed state for readers.
	opMu     sync.Mutex
	mu       sync.RWMutex
	state    layout.State
	revision uint64
	hydrated bool

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64

	history atomic.Pointer[history.Manager]

	document    string
	diff        *diff.Engine
	sections    *sections.Model
	ids         layout.IDGenerator
	bus         *events.Bus
	coordinator *readiness.Coordinator
	recorder    metrics.Recorder
	base        *slog.Logger
	logger      observability.Logger
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithDocument sets the document id carried by notifications and events.
func WithDocument(id string) Option { return func(s *Store) { s.document = id } }

// WithDiff sets the diff engine.
func WithDiff(e *diff.Engine) Option { return func(s *Store) { s.diff = e } }

// WithSections sets the placement model.
func WithSections(m *sections.Model) Option { return func(s *Store) { s.sections = m } }

// WithHistory attaches a history manager at construction.
func WithHistory(h *history.Manager) Option { return func(s *Store) { s.history.Store(h) } }

// WithIDGenerator sets component id generation, and section id generation
// when no placement model is given.
func WithIDGenerator(gen layout.IDGenerator) Option { return func(s *Store) { s.ids = gen } }

// WithBus publishes StateChanged and HistoryMoved events on bus.
func WithBus(bus *events.Bus) Option { return func(s *Store) { s.bus = bus } }

// WithCoordinator announces the store signal once hydrated.
func WithCoordinator(c *readiness.Coordinator) Option {
	return func(s *Store) { s.coordinator = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) { s.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.base = l } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		state:    layout.NewState(),
		document: DefaultDocument,
		ids:      layout.UUIDGenerator(),
		recorder: metrics.NoopRecorder{},
		base:     slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.diff == nil {
		s.diff = &diff.Engine{Logger: s.base}
	}
	if s.sections == nil {
		s.sections = sections.New(sections.WithIDGenerator(s.ids), sections.WithLogger(s.base), sections.WithClock(s.now))
	}
	s.logger = observability.NewLogger(s.base)
	if h := s.history.Load(); h != nil {
		h.Seed(context.Background(), s.Get(), "Initial state")
	}
	return s
}

// Document returns the document id.
func (s *Store) Document() string { return s.document }

// Get returns an immutable snapshot of the committed state.
func (s *Store) Get() layout.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return layout.NewSnapshot(&s.state)
}

// Revision counts committed transitions that changed the content hash.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Hydrated reports whether Hydrate has run.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// History returns the attached history manager, or nil.
func (s *Store) History() *history.Manager { return s.history.Load() }

// AttachHistory connects h and seeds it with the current state.
func (s *Store) AttachHistory(ctx context.Context, h *history.Manager) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.history.Store(h)
	h.Seed(ctx, s.Get(), "Initial state")
}

// ClearHistory drops every entry but the current state.
func (s *Store) ClearHistory(ctx context.Context) bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	h := s.history.Load()
	if h == nil {
		return false
	}
	h.Clear(ctx, s.Get())
	return true
}

// Subscribe registers fn for every notification, delivered synchronously in
// dispatch order. fn must not dispatch on the calling goroutine. The
// returned function unsubscribes.
func (s *Store) Subscribe(fn func(Notification)) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(ctx context.Context, n Notification) {
	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error(ctx, "subscriber panicked", slog.Any("panic", r))
				}
			}()
			sub.fn(n)
		}()
	}
}

func (s *Store) publish(ctx context.Context, evt any) {
	if s.bus == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.bus.Publish(pctx, evt); err != nil {
		s.logger.Warn(ctx, "state event not delivered", logfields.Error(err))
	}
}
