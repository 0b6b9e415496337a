// Package watch reloads the hydration payload when it changes on disk and
// feeds it to the store as an external ReplaceState command.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/store"
)

// Dispatcher is the part of the store the watcher drives.
type Dispatcher interface {
	Get() layout.Snapshot
	DispatchFrom(ctx context.Context, cmd store.Command, origin store.Origin) store.Result
}

// PayloadWatcher monitors one payload file.
type PayloadWatcher struct {
	path       string
	target     Dispatcher
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	debounce   time.Duration
	mu         sync.Mutex
	stopChan   chan struct{}
	reloadChan chan struct{}
	stopped    bool
	reloads    func(store.Result)
}

// Option configures a PayloadWatcher.
type Option func(*PayloadWatcher)

// WithDebounce sets how long writes must settle before a reload.
func WithDebounce(d time.Duration) Option { return func(w *PayloadWatcher) { w.debounce = d } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(w *PayloadWatcher) { w.logger = l } }

// OnReload registers fn to observe the result of every reload that reached
// the store.
func OnReload(fn func(store.Result)) Option { return func(w *PayloadWatcher) { w.reloads = fn } }

// New creates a watcher for path.
func New(path string, target Dispatcher, opts ...Option) (*PayloadWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to resolve payload path: %w", err)
	}
	w := &PayloadWatcher{
		path:       absPath,
		target:     target,
		watcher:    fw,
		logger:     slog.Default(),
		debounce:   250 * time.Millisecond,
		stopChan:   make(chan struct{}),
		reloadChan: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Start watches the payload's directory; editors often replace files rather
// than write them in place.
func (w *PayloadWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch payload directory").
			WithContext("path", dir).
			Build()
	}
	w.logger.Info("Starting payload watcher", logfields.Path(w.path))

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop ends both loops and closes the fsnotify watcher. It is idempotent.
func (w *PayloadWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	return w.watcher.Close()
}

func (w *PayloadWatcher) watchLoop(ctx context.Context) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Rename):
				w.logger.Debug("Payload change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				w.trigger()
			case event.Op.Has(fsnotify.Remove):
				w.logger.Warn("Payload file removed", logfields.Path(event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Payload watcher error", logfields.Error(err))
		}
	}
}

func (w *PayloadWatcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	for {
		select {
		case <-ctx.Done():
			stop()
			return
		case <-w.stopChan:
			stop()
			return
		case <-w.reloadChan:
			stop()
			timer = time.AfterFunc(w.debounce, func() {
				if _, err := w.Reload(ctx); err != nil {
					w.logger.Error("Failed to reload payload", logfields.Path(w.path), logfields.Error(err))
				}
			})
		}
	}
}

func (w *PayloadWatcher) trigger() {
	select {
	case w.reloadChan <- struct{}{}:
	default:
	}
}

// Reload parses the payload and replaces the store state with it. A payload
// whose content hash matches the store is skipped. It reports whether the
// store was asked to change.
func (w *PayloadWatcher) Reload(ctx context.Context) (bool, error) {
	st, err := layout.LoadPayload(w.path)
	if err != nil {
		return false, err
	}
	st.Normalize()
	if st.Hash() == w.target.Get().Hash() {
		w.logger.Debug("Payload unchanged", logfields.Path(w.path))
		return false, nil
	}

	res := w.target.DispatchFrom(ctx, store.ReplaceState{
		State: st,
		Label: "Reload " + filepath.Base(w.path),
	}, store.OriginExternal)
	if w.reloads != nil {
		w.reloads(res)
	}
	if res.IsErr() {
		return false, res.UnwrapErr()
	}
	w.logger.Info("Payload reloaded",
		logfields.Path(w.path),
		logfields.Revision(res.Unwrap().Revision))
	return true, nil
}
