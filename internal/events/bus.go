package events

import (
	"context"
	"reflect"
	"sync"

	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
)

// Bus fans typed events out from the store to in-process listeners: the
// publisher, diagnostics and tests. Delivery is synchronous with backpressure
// and nothing is retained; internal/eventstore keeps the durable journal.
//
// A listener subscribes to a concrete event type or to an interface; the
// latter receives every event whose type implements it.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]listener
	seq    uint64
	closed bool
}

type listener interface {
	eventType() reflect.Type
	accepts(t reflect.Type) bool
	deliver(ctx context.Context, evt any) error
	shutdown()
}

// NewBus returns an open bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]listener)}
}

// subscription owns its channel. The channel is closed only under the write
// lock, and deliveries hold the read lock, so a send never meets a closed
// channel; done wakes deliveries blocked on a full channel first.
type subscription[T any] struct {
	typ  reflect.Type
	ch   chan T
	done chan struct{}

	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

func (s *subscription[T]) eventType() reflect.Type { return s.typ }

func (s *subscription[T]) accepts(t reflect.Type) bool {
	if t == s.typ {
		return true
	}
	return s.typ.Kind() == reflect.Interface && t.Implements(s.typ)
}

func (s *subscription[T]) deliver(ctx context.Context, evt any) error {
	v, ok := evt.(T)
	if !ok {
		return ferrors.InternalError("event type mismatch").
			WithContext("expected", s.typ.String()).
			WithContext("actual", reflect.TypeOf(evt).String()).
			Build()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return nil
	}
	select {
	case s.ch <- v:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ferrors.WrapError(ctx.Err(), ferrors.CategoryPersistence, "event publish canceled").
			WithContext("event_type", s.typ.String()).
			Build()
	}
}

func (s *subscription[T]) shutdown() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.stopped = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// Subscribe registers a listener for events of type T and returns its
// channel and an idempotent unsubscribe. On a closed bus the channel comes
// back already closed.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	sub := &subscription[T]{
		typ:  reflect.TypeFor[T](),
		ch:   make(chan T, max(buffer, 0)),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.shutdown()
		return sub.ch, func() {}
	}
	b.seq++
	id := b.seq
	b.subs[id] = sub
	b.mu.Unlock()

	return sub.ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		sub.shutdown()
	}
}

// SubscriberCount reports how many listeners subscribed to exactly T.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	want := reflect.TypeFor[T]()

	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, l := range b.subs {
		if l.eventType() == want {
			n++
		}
	}
	return n
}

// Publish hands evt to every matching listener in turn, blocking while a
// listener's buffer is full. It returns the first delivery error, which is a
// persistence error when ctx ends first.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return ferrors.ValidationError("event cannot be nil").Build()
	}
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}
	t := reflect.TypeOf(evt)

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ferrors.InternalError("event bus is closed").Build()
	}
	targets := make([]listener, 0, len(b.subs))
	for _, l := range b.subs {
		if l.accepts(t) {
			targets = append(targets, l)
		}
	}
	b.mu.RUnlock()

	for _, l := range targets {
		if err := l.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the bus and closes every subscription channel. Publishes that
// are blocked on a listener return; later ones fail.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[uint64]listener)
	b.mu.Unlock()

	for _, l := range subs {
		l.shutdown()
	}
}
