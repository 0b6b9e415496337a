package publish

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/layoutstate/internal/events"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/metrics"
	"git.home.luguber.info/inful/layoutstate/internal/retry"
)

// Sink receives state changes.
type Sink interface {
	Name() string
	Publish(ctx context.Context, evt events.StateChanged) error
}

// Forwarder relays StateChanged events from a bus to a sink until its
// context ends or the bus closes. A zero Retry publishes each event once.
type Forwarder struct {
	Sink     Sink
	Retry    retry.Policy
	Recorder metrics.Recorder
	Logger   *slog.Logger
	Buffer   int
}

// Run subscribes to bus and blocks. Publish failures are logged and counted;
// they never stop the loop.
func (f *Forwarder) Run(ctx context.Context, bus *events.Bus) {
	f.Attach(bus)(ctx)
}

// Attach subscribes to bus before returning and hands back the forwarding
// loop. Events published between Attach and the loop starting are buffered.
func (f *Forwarder) Attach(bus *events.Bus) func(ctx context.Context) {
	buffer := f.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	ch, unsubscribe := events.Subscribe[events.StateChanged](bus, buffer)
	return func(ctx context.Context) {
		defer unsubscribe()
		f.forward(ctx, ch)
	}
}

func (f *Forwarder) forward(ctx context.Context, ch <-chan events.StateChanged) {
	recorder := metrics.OrNoop(f.Recorder)
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			err := f.Retry.Do(ctx, func(ctx context.Context) error {
				return f.Sink.Publish(ctx, evt)
			}, func(attempt int, err error) {
				logger.Debug("Retrying state change publish",
					slog.String("sink", f.Sink.Name()),
					logfields.Revision(evt.Revision),
					slog.Int("attempt", attempt),
					logfields.Error(err))
			})
			recorder.IncPublish(f.Sink.Name(), err == nil)
			if err != nil {
				logger.Warn("state change not published",
					slog.String("sink", f.Sink.Name()),
					logfields.Document(evt.Document),
					logfields.Revision(evt.Revision),
					logfields.Error(err))
			}
		}
	}
}
