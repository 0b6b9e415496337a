package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/layoutstate/internal/logfields"
)

func TestContextValues(t *testing.T) {
	ctx := WithDocument(context.Background(), "doc-1")
	ctx = WithCommand(ctx, "add_component")
	ctx = WithOrigin(ctx, "user")
	ctx = WithRevision(ctx, 4)

	lc := GetContext(ctx)
	assert.Equal(t, "doc-1", lc.Document)
	assert.Equal(t, "add_component", lc.Command)
	assert.Equal(t, "user", lc.Origin)
	assert.Equal(t, uint64(4), lc.Revision)
	assert.Equal(t, "doc-1/add_component@4", lc.String())

	assert.True(t, HasContextValue(ctx, logfields.KeyCommand))
	assert.False(t, HasContextValue(context.Background(), logfields.KeyDocument))
}

func TestLoggerPrependsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx := WithCommand(WithDocument(t.Context(), "doc-9"), "undo")
	logger.Info(ctx, "dispatch accepted", logfields.Strategy("full-render"))

	out := buf.String()
	require.Contains(t, out, "dispatch accepted")
	assert.Contains(t, out, "document=doc-9")
	assert.Contains(t, out, "command=undo")
	assert.Contains(t, out, "strategy=full-render")
}
