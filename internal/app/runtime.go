// Package app assembles a layoutstate runtime from configuration: the store
// and its core collaborators, the readiness coordinator that connects them,
// and the optional persistence, publishing, watching and metrics adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/layoutstate/internal/autosave"
	"git.home.luguber.info/inful/layoutstate/internal/config"
	"git.home.luguber.info/inful/layoutstate/internal/diff"
	"git.home.luguber.info/inful/layoutstate/internal/events"
	"git.home.luguber.info/inful/layoutstate/internal/eventstore"
	"git.home.luguber.info/inful/layoutstate/internal/history"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/metrics"
	"git.home.luguber.info/inful/layoutstate/internal/publish"
	"git.home.luguber.info/inful/layoutstate/internal/readiness"
	"git.home.luguber.info/inful/layoutstate/internal/retry"
	"git.home.luguber.info/inful/layoutstate/internal/sections"
	"git.home.luguber.info/inful/layoutstate/internal/store"
	"git.home.luguber.info/inful/layoutstate/internal/watch"
)

// Status is the runtime lifecycle position.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// Runtime owns one layout document and everything attached to it.
type Runtime struct {
	cfg    *config.Config
	logger *slog.Logger

	bus         *events.Bus
	coordinator *readiness.Coordinator
	registry    *prom.Registry
	recorder    metrics.Recorder
	store       *store.Store
	history     *history.Manager

	mu         sync.Mutex
	status     Status
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	events     *eventstore.SQLiteStore
	publisher  *publish.NATSPublisher
	saver      *autosave.Saver
	watcher    *watch.PayloadWatcher
	metricsSrv *http.Server
	cancels    []func()
}

// New builds the core: bus, coordinator, store, diff engine and placement
// model. Nothing is opened or started until Start.
func New(cfg *config.Config, logger *slog.Logger) *Runtime {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runtime{
		cfg:      cfg,
		logger:   logger,
		bus:      events.NewBus(),
		recorder: metrics.NoopRecorder{},
		status:   StatusStopped,
	}
	if cfg.Metrics.Enabled {
		r.registry = prom.NewRegistry()
		r.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
		r.recorder = metrics.NewPrometheusRecorder(r.registry)
	}
	r.coordinator = readiness.New(
		readiness.WithBus(r.bus),
		readiness.WithRecorder(r.recorder),
		readiness.WithLogger(logger),
		readiness.WithDefaultTimeout(cfg.Readiness.Timeout),
	)

	engine := &diff.Engine{Logger: logger}
	model := sections.New(sections.WithLogger(logger))
	r.store = store.New(
		store.WithDocument(cfg.Document.ID),
		store.WithDiff(engine),
		store.WithSections(model),
		store.WithBus(r.bus),
		store.WithCoordinator(r.coordinator),
		store.WithRecorder(r.recorder),
		store.WithLogger(logger),
	)
	r.coordinator.Announce(readiness.SignalDiff, engine)
	r.coordinator.Announce(readiness.SignalSections, model)
	return r
}

// Store returns the document store.
func (r *Runtime) Store() *store.Store { return r.store }

// Bus returns the event bus.
func (r *Runtime) Bus() *events.Bus { return r.bus }

// Coordinator returns the readiness coordinator.
func (r *Runtime) Coordinator() *readiness.Coordinator { return r.coordinator }

// Registry returns the Prometheus registry, nil when metrics are disabled.
func (r *Runtime) Registry() *prom.Registry { return r.registry }

// Status returns the lifecycle position.
func (r *Runtime) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Start opens persistence, registers adapters against their readiness
// signals, hydrates the store and waits for history to attach. Adapters that
// fail to start are logged; only failures that leave the store unusable are
// returned.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.status != StatusStopped {
		r.mu.Unlock()
		return fmt.Errorf("runtime is not stopped: %s", r.status)
	}
	r.status = StatusStarting
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	r.mu.Unlock()

	if err := r.start(ctx, runCtx); err != nil {
		_ = r.Stop(context.WithoutCancel(ctx))
		return err
	}

	r.mu.Lock()
	r.status = StatusRunning
	r.mu.Unlock()
	r.logger.Info("Layout runtime started",
		logfields.Document(r.store.Document()),
		logfields.Revision(r.store.Revision()),
		slog.Any("signals", r.coordinator.Signals()))
	return nil
}

func (r *Runtime) start(ctx, runCtx context.Context) error {
	cfg := r.cfg
	historyOpts := []history.Option{
		history.WithCapacity(cfg.History.Capacity),
		history.WithRecorder(r.recorder),
		history.WithLogger(r.logger),
	}
	if cfg.Persistence.JournalPath != "" {
		es, err := eventstore.NewSQLiteStore(cfg.Persistence.JournalPath)
		if err != nil {
			return err
		}
		r.events = es
		historyOpts = append(historyOpts, history.WithJournal(
			eventstore.NewJournal(es, r.store.Document(), cfg.Persistence.JournalState)))
	}
	r.history = history.New(historyOpts...)

	r.track(r.coordinator.OnReady(readiness.SignalStore, func(h any) {
		st, ok := h.(*store.Store)
		if !ok {
			return
		}
		st.AttachHistory(runCtx, r.history)
		r.coordinator.Announce(readiness.SignalHistory, r.history)
	}))

	if cfg.NATS.Enabled {
		pub, err := publish.NewNATSPublisher(ctx, cfg.NATS, r.logger)
		if err != nil {
			return err
		}
		r.publisher = pub
		fwd := &publish.Forwarder{
			Sink:     pub,
			Retry:    retry.FromConfig(cfg.NATS.Retry),
			Recorder: r.recorder,
			Logger:   r.logger,
		}
		forward := fwd.Attach(r.bus)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			forward(runCtx)
		}()
	}

	if cfg.Persistence.AutosavePath != "" {
		r.track(r.coordinator.WaitAll("autosave",
			[]string{readiness.SignalStore, readiness.SignalHistory}, 0,
			func(map[string]any) { r.startAutosave(runCtx) }))
	}
	if cfg.Hydration.Watch && cfg.Hydration.Path != "" {
		r.track(r.coordinator.WaitAll("watch",
			[]string{readiness.SignalStore}, 0,
			func(map[string]any) { r.startWatcher(runCtx) }))
	}
	if r.registry != nil && cfg.Metrics.Addr != "" {
		r.startMetrics()
	}

	initial, source, err := r.initialState(ctx)
	if err != nil {
		return err
	}
	res := r.store.Hydrate(runCtx, initial)
	if res.IsErr() {
		return res.UnwrapErr()
	}
	r.logger.Info("Hydrated layout document",
		slog.String("source", source),
		logfields.Hash(res.Unwrap().Hash),
		slog.Int("adopted", len(res.Unwrap().Adopted)))

	if _, err := r.coordinator.Await(ctx, readiness.SignalHistory); err != nil {
		return err
	}
	return nil
}

func (r *Runtime) track(cancel func()) {
	r.mu.Lock()
	r.cancels = append(r.cancels, cancel)
	r.mu.Unlock()
}

// initialState picks the hydration payload: the configured file, then the
// latest journaled state, then the latest published state, then empty.
func (r *Runtime) initialState(ctx context.Context) (layout.State, string, error) {
	if path := r.cfg.Hydration.Path; path != "" {
		st, err := layout.LoadPayload(path)
		if err != nil {
			return layout.State{}, "", err
		}
		return st, "file", nil
	}
	if r.events != nil {
		st, found, err := eventstore.LatestState(ctx, r.events, r.store.Document())
		if err != nil {
			r.logger.Warn("Journal state unavailable", logfields.Error(err))
		} else if found {
			return st, "journal", nil
		}
	}
	if r.publisher != nil {
		st, found, err := r.publisher.Latest(ctx, r.store.Document())
		if err != nil {
			r.logger.Warn("Published state unavailable", logfields.Error(err))
		} else if found {
			return st, "nats", nil
		}
	}
	return layout.NewState(), "empty", nil
}

func (r *Runtime) startAutosave(ctx context.Context) {
	saver, err := autosave.New(r.store,
		autosave.FileSink{Path: r.cfg.Persistence.AutosavePath},
		r.cfg.Persistence.AutosaveInterval,
		autosave.WithRecorder(r.recorder),
		autosave.WithLogger(r.logger))
	if err == nil {
		err = saver.Start(ctx)
	}
	if err != nil {
		r.logger.Error("Failed to start autosave", logfields.Error(err))
		return
	}
	r.mu.Lock()
	r.saver = saver
	r.mu.Unlock()
}

func (r *Runtime) startWatcher(ctx context.Context) {
	w, err := watch.New(r.cfg.Hydration.Path, r.store,
		watch.WithDebounce(r.cfg.Hydration.Debounce),
		watch.WithLogger(r.logger))
	if err == nil {
		err = w.Start(ctx)
	}
	if err != nil {
		r.logger.Error("Failed to start payload watcher", logfields.Path(r.cfg.Hydration.Path), logfields.Error(err))
		return
	}
	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
}

func (r *Runtime) startMetrics() {
	srv := &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           metrics.NewMux(r.registry, func() bool { return r.Status() == StatusRunning }),
		ReadHeaderTimeout: 5 * time.Second,
	}
	r.metricsSrv = srv
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.logger.Info("Serving metrics", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}

// Stop shuts adapters down in reverse start order, flushing autosave and
// draining the publisher.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.status == StatusStopped && r.cancel == nil {
		r.mu.Unlock()
		return nil
	}
	r.status = StatusStopping
	cancels := r.cancels
	r.cancels = nil
	watcher, saver := r.watcher, r.saver
	r.mu.Unlock()

	for _, c := range cancels {
		c()
	}

	var errs []error
	if watcher != nil {
		errs = append(errs, watcher.Stop())
	}
	if saver != nil {
		errs = append(errs, saver.Stop(ctx))
	}
	if r.metricsSrv != nil {
		errs = append(errs, r.metricsSrv.Shutdown(ctx))
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	if r.publisher != nil {
		errs = append(errs, r.publisher.Close())
	}
	if r.events != nil {
		errs = append(errs, r.events.Close())
	}
	r.bus.Close()

	r.mu.Lock()
	r.status = StatusStopped
	r.cancel = nil
	r.mu.Unlock()
	r.logger.Info("Layout runtime stopped", logfields.Revision(r.store.Revision()))
	return errors.Join(errs...)
}
