// Package readiness lets components that start in any order find each other.
//
// A component announces a named signal once, with a handle to itself. Consumers
// either run a callback when the signal fires or block until it does. The
// check for an already-fired signal and the registration for a future one
// happen under one lock, so no announcement can slip between them and nothing
// polls.
package readiness

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/layoutstate/internal/events"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/metrics"
)

// Core signal names.
const (
	SignalStore    = "store"
	SignalDiff     = "diff"
	SignalSections = "sections"
	SignalHistory  = "history"
)

// DefaultTimeout bounds waits that carry no deadline of their own.
const DefaultTimeout = 5 * time.Second

type waiter struct {
	id uint64
	fn func(handle any)
}

// Coordinator tracks ready signals and their waiters.
type Coordinator struct {
	mu      sync.Mutex
	ready   map[string]any
	waiters map[string][]waiter
	nextID  uint64

	bus      *events.Bus
	recorder metrics.Recorder
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBus publishes ReadinessFailed diagnostics on bus.
func WithBus(bus *events.Bus) Option { return func(c *Coordinator) { c.bus = bus } }

// WithRecorder counts readiness failures.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Coordinator) { c.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithDefaultTimeout sets the timeout for waits without a deadline.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New returns an empty Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		ready:    map[string]any{},
		waiters:  map[string][]waiter{},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Announce fires the named signal with handle. Only the first announcement of
// a name counts; later ones are ignored and report false. Waiters run on the
// announcing goroutine in registration order.
func (c *Coordinator) Announce(name string, handle any) bool {
	c.mu.Lock()
	if _, done := c.ready[name]; done {
		c.mu.Unlock()
		c.logger.Debug("duplicate ready announcement ignored", logfields.Signal(name))
		return false
	}
	c.ready[name] = handle
	ws := c.waiters[name]
	delete(c.waiters, name)
	c.mu.Unlock()

	c.logger.Debug("component ready", logfields.Signal(name), slog.Int("waiters", len(ws)))
	for _, w := range ws {
		w.fn(handle)
	}
	return true
}

// Lookup returns the handle of a fired signal.
func (c *Coordinator) Lookup(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.ready[name]
	return h, ok
}

// Get returns the handle of a fired signal as T.
func Get[T any](c *Coordinator, name string) (T, bool) {
	h, ok := c.Lookup(name)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := h.(T)
	return v, ok
}

// Ready reports whether every named signal has fired.
func (c *Coordinator) Ready(names ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		if _, ok := c.ready[n]; !ok {
			return false
		}
	}
	return true
}

// Signals returns the names of fired signals, sorted.
func (c *Coordinator) Signals() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.ready))
	for n := range c.ready {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// OnReady runs fn with the signal's handle: immediately when the signal has
// already fired, otherwise when it fires. The returned func cancels a pending
// registration.
func (c *Coordinator) OnReady(name string, fn func(handle any)) (cancel func()) {
	c.mu.Lock()
	if h, ok := c.ready[name]; ok {
		c.mu.Unlock()
		fn(h)
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.waiters[name] = append(c.waiters[name], waiter{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.waiters[name] = slices.DeleteFunc(c.waiters[name], func(w waiter) bool { return w.id == id })
		if len(c.waiters[name]) == 0 {
			delete(c.waiters, name)
		}
	}
}

// Await blocks until the signal fires or ctx ends. Without a deadline on ctx
// the coordinator's default timeout applies. A timeout emits a ReadinessFailed
// diagnostic and returns a readiness error.
func (c *Coordinator) Await(ctx context.Context, name string) (any, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := c.now()
	got := make(chan any, 1)
	unregister := c.OnReady(name, func(h any) { got <- h })

	select {
	case h := <-got:
		return h, nil
	case <-ctx.Done():
		unregister()
		// The signal may have fired between ctx ending and unregister.
		select {
		case h := <-got:
			return h, nil
		default:
		}
		c.reportFailure("await", []string{name}, c.now().Sub(start))
		return nil, ferrors.WrapError(ctx.Err(), ferrors.CategoryReadiness, "dependency not ready").
			WithContext("signal", name).
			WithContext("reason", "not_ready").
			Build()
	}
}

// WaitAll runs fn once every named signal has fired, without blocking the
// caller. If they have not all fired within timeout (the default when zero), a
// ReadinessFailed diagnostic lists the missing ones; fn still runs if they
// arrive later. The returned func cancels the wait.
func (c *Coordinator) WaitAll(waiterName string, names []string, timeout time.Duration, fn func(handles map[string]any)) (cancel func()) {
	if timeout <= 0 {
		timeout = c.timeout
	}

	var (
		mu       sync.Mutex
		handles  = make(map[string]any, len(names))
		finished bool
		cancels  []func()
	)
	start := c.now()

	complete := func() {
		mu.Lock()
		if finished || len(handles) < len(names) {
			mu.Unlock()
			return
		}
		finished = true
		out := make(map[string]any, len(handles))
		for k, v := range handles {
			out[k] = v
		}
		mu.Unlock()
		fn(out)
	}

	timer := time.AfterFunc(timeout, func() {
		mu.Lock()
		if finished {
			mu.Unlock()
			return
		}
		var missing, ready []string
		for _, n := range names {
			if _, ok := handles[n]; ok {
				ready = append(ready, n)
			} else {
				missing = append(missing, n)
			}
		}
		mu.Unlock()
		c.reportFailure(waiterName, missing, c.now().Sub(start), ready...)
	})

	for _, n := range names {
		name := n
		cf := c.OnReady(name, func(h any) {
			mu.Lock()
			handles[name] = h
			mu.Unlock()
			complete()
		})
		mu.Lock()
		cancels = append(cancels, cf)
		mu.Unlock()
	}
	if len(names) == 0 {
		complete()
	}
	mu.Lock()
	if finished {
		timer.Stop()
	}
	mu.Unlock()

	return func() {
		timer.Stop()
		mu.Lock()
		finished = true
		cs := cancels
		mu.Unlock()
		for _, cf := range cs {
			cf()
		}
	}
}

func (c *Coordinator) reportFailure(waiterName string, missing []string, waited time.Duration, ready ...string) {
	for _, m := range missing {
		c.recorder.IncReadinessFailure(m)
	}
	c.logger.Warn("dependencies not ready before deadline",
		slog.String("waiter", waiterName),
		slog.Any("missing", missing),
		slog.Duration("waited", waited))

	if c.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	evt := events.ReadinessFailed{Waiter: waiterName, Missing: missing, Ready: ready, Waited: waited, FailedAt: c.now()}
	if err := c.bus.Publish(ctx, evt); err != nil {
		c.logger.Warn("readiness diagnostic not delivered", logfields.Error(err))
	}
}
