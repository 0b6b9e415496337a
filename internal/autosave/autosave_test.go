package autosave

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/layoutstate/internal/layout"
)

type fakeSource struct {
	rev atomic.Uint64
	st  layout.State
}

func (f *fakeSource) Document() string     { return "doc" }
func (f *fakeSource) Revision() uint64     { return f.rev.Load() }
func (f *fakeSource) Get() layout.Snapshot { return layout.NewSnapshot(&f.st) }

type memSink struct {
	mu    sync.Mutex
	saves []uint64
	err   error
}

func (m *memSink) Name() string { return "mem" }

func (m *memSink) Save(_ context.Context, _ string, rev uint64, _ layout.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, rev)
	return nil
}

func (m *memSink) revisions() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.saves...)
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := New(&fakeSource{}, &memSink{}, 0)
	require.Error(t, err)
}

func TestFlushOnlyWhenRevisionAdvanced(t *testing.T) {
	src := &fakeSource{st: layout.NewState()}
	sink := &memSink{}
	s, err := New(src, sink, time.Hour)
	require.NoError(t, err)

	wrote, err := s.Flush(t.Context())
	require.NoError(t, err)
	assert.False(t, wrote)

	src.rev.Store(2)
	wrote, err = s.Flush(t.Context())
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = s.Flush(t.Context())
	require.NoError(t, err)
	assert.False(t, wrote)

	sink.err = errors.New("disk full")
	src.rev.Store(3)
	_, err = s.Flush(t.Context())
	require.Error(t, err)

	sink.err = nil
	wrote, err = s.Flush(t.Context())
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, []uint64{2, 3}, sink.revisions())
}

func TestScheduledAutosave(t *testing.T) {
	src := &fakeSource{st: layout.NewState()}
	src.rev.Store(1)
	sink := &memSink{}
	s, err := New(src, sink, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, s.Start(t.Context()))
	assert.NotEmpty(t, s.JobID())

	require.Eventually(t, func() bool { return len(sink.revisions()) == 1 }, 2*time.Second, 10*time.Millisecond)

	src.rev.Store(5)
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []uint64{1, 5}, sink.revisions())
}

func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "autosave.json")
	st := layout.NewState()
	st.Components["hero-1"] = layout.Component{ID: "hero-1", Type: "hero", Props: layout.Props{"title": "A"}, ColumnIndex: 1}
	st.Layout = []string{"hero-1"}

	require.NoError(t, FileSink{Path: path}.Save(t.Context(), "doc", 1, layout.NewSnapshot(&st)))

	loaded, err := layout.LoadPayload(path)
	require.NoError(t, err)
	assert.Equal(t, st.Hash(), loaded.Hash())

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".autosave.json.*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
