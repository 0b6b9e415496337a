// Package autosave periodically writes the layout document to a sink when it
// changed since the last write.
package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/metrics"
)

// Source is the state being saved. *store.Store satisfies it.
type Source interface {
	Document() string
	Revision() uint64
	Get() layout.Snapshot
}

// Sink persists one state.
type Sink interface {
	Name() string
	Save(ctx context.Context, document string, revision uint64, snap layout.Snapshot) error
}

// Saver wraps a gocron scheduler running the autosave job.
type Saver struct {
	scheduler gocron.Scheduler
	source    Source
	sink      Sink
	interval  time.Duration
	recorder  metrics.Recorder
	logger    *slog.Logger

	mu    sync.Mutex
	saved uint64
	jobID string
}

// Option configures a Saver.
type Option func(*Saver)

// WithRecorder counts sink writes.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Saver) { s.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Saver) { s.logger = l } }

// New creates a saver. Revision 0 counts as already saved: the hydrated
// document is on disk by definition.
func New(source Source, sink Sink, interval time.Duration, opts ...Option) (*Saver, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("autosave interval must be positive, got %s", interval)
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	s := &Saver{
		scheduler: sched,
		source:    source,
		sink:      sink,
		interval:  interval,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Start schedules the job and starts the scheduler.
func (s *Saver) Start(ctx context.Context) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.tick, ctx),
		gocron.WithName("autosave"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create autosave job: %w", err)
	}
	s.mu.Lock()
	s.jobID = job.ID().String()
	s.mu.Unlock()

	s.logger.Info("Starting autosave",
		logfields.JobID(job.ID().String()),
		slog.Duration("interval", s.interval),
		slog.String("sink", s.sink.Name()))
	s.scheduler.Start()
	return nil
}

// JobID returns the scheduled job id, empty before Start.
func (s *Saver) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

func (s *Saver) tick(ctx context.Context) {
	if _, err := s.Flush(ctx); err != nil {
		s.logger.Error("Autosave failed", slog.String("sink", s.sink.Name()), logfields.Error(err))
	}
}

// Flush writes the current state when its revision advanced since the last
// successful write. It reports whether anything was written.
func (s *Saver) Flush(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := s.source.Revision()
	if rev == s.saved {
		return false, nil
	}
	start := time.Now()
	err := s.sink.Save(ctx, s.source.Document(), rev, s.source.Get())
	s.recorder.IncPublish(s.sink.Name(), err == nil)
	if err != nil {
		return false, err
	}
	s.saved = rev
	s.logger.Debug("Autosaved",
		logfields.Document(s.source.Document()),
		logfields.Revision(rev),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return true, nil
}

// Stop flushes pending changes and shuts the scheduler down.
func (s *Saver) Stop(ctx context.Context) error {
	s.logger.Info("Stopping autosave")
	_, flushErr := s.Flush(ctx)
	if err := s.scheduler.Shutdown(); err != nil {
		return err
	}
	return flushErr
}
