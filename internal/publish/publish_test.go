package publish

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/layoutstate/internal/config"
	"git.home.luguber.info/inful/layoutstate/internal/events"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/metrics"
	"git.home.luguber.info/inful/layoutstate/internal/retry"
)

func sampleEvent() events.StateChanged {
	st := layout.NewState()
	st.Components["hero-1"] = layout.Component{ID: "hero-1", Type: "hero", ColumnIndex: 1}
	st.Layout = []string{"hero-1"}
	return events.StateChanged{
		Document:  "landing page",
		Revision:  3,
		Command:   "add_component",
		Origin:    "user",
		Label:     "Add Component: hero",
		State:     layout.NewSnapshot(&st),
		ChangedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncodeDecode(t *testing.T) {
	evt := sampleEvent()
	data, err := Encode(evt)
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "landing page", msg.Document)
	assert.Equal(t, uint64(3), msg.Revision)
	assert.Equal(t, evt.State.Hash(), msg.Hash)
	assert.Equal(t, evt.State.Hash(), msg.State.Hash())
}

func TestSubjectNaming(t *testing.T) {
	assert.Equal(t, "layoutstate.state.landing_page", Subject("layoutstate.state", "landing page"))
	assert.Equal(t, "layoutstate.state.a_b_c", Subject("layoutstate.state", "a.b*c"))
	assert.Equal(t, "layoutstate.state._", Subject("layoutstate.state", ""))
	assert.Equal(t, []string{"layoutstate.state.>"}, StreamSubjects("layoutstate.state"))
	assert.Equal(t, "LAYOUTSTATE_STATE", StreamName("layoutstate.state"))
	assert.Equal(t, "doc.landing_page", KVKey("landing page"))

	evt := sampleEvent()
	assert.Regexp(t, `^landing_page-[0-9a-f]{16}-3$`, MsgID(evt))
}

type fakeSink struct {
	mu        sync.Mutex
	got       []events.StateChanged
	fail      bool
	failTimes int
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Publish(_ context.Context, evt events.StateChanged) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, evt)
	if f.failTimes > 0 {
		f.failTimes--
		return errors.New("unavailable")
	}
	if f.fail {
		return errors.New("down")
	}
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

type publishCounter struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	success map[bool]int
}

func (p *publishCounter) IncPublish(_ string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.success[ok]++
}

func TestForwarder(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sink := &fakeSink{fail: true}
	rec := &publishCounter{success: map[bool]int{}}
	fwd := &Forwarder{Sink: sink, Recorder: rec}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		fwd.Run(ctx, bus)
		close(done)
	}()

	require.Eventually(t, func() bool { return events.SubscriberCount[events.StateChanged](bus) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Publish(t.Context(), sampleEvent()))
	require.NoError(t, bus.Publish(t.Context(), sampleEvent()))
	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	rec.mu.Lock()
	assert.Equal(t, 2, rec.success[false])
	rec.mu.Unlock()
}

func TestForwarderAttachKeepsEventsPublishedBeforeLoop(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sink := &fakeSink{}
	fwd := &Forwarder{Sink: sink}

	forward := fwd.Attach(bus)
	require.Equal(t, 1, events.SubscriberCount[events.StateChanged](bus))
	hydrated := sampleEvent()
	hydrated.Command = "hydrate"
	require.NoError(t, bus.Publish(t.Context(), hydrated))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		forward(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	sink.mu.Lock()
	assert.Equal(t, "hydrate", sink.got[0].Command)
	sink.mu.Unlock()
	assert.Zero(t, events.SubscriberCount[events.StateChanged](bus))
}

func TestForwarderRetriesTransientFailures(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sink := &fakeSink{failTimes: 2}
	rec := &publishCounter{success: map[bool]int{}}
	fwd := &Forwarder{
		Sink:     sink,
		Retry:    retry.Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 3},
		Recorder: rec,
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		fwd.Run(ctx, bus)
		close(done)
	}()

	require.Eventually(t, func() bool { return events.SubscriberCount[events.StateChanged](bus) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Publish(t.Context(), sampleEvent()))
	require.Eventually(t, func() bool { return sink.count() == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.success[true])
	assert.Zero(t, rec.success[false])
}
