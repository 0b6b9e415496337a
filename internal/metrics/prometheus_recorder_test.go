package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveDispatchDuration("add_component", 150*time.Microsecond)
	pr.IncDispatch("add_component", OutcomeAccepted)
	pr.IncDispatch("add_component", OutcomeAccepted)
	pr.IncRenderStrategy("add-components")
	pr.SetHistoryDepth(3, 2)
	pr.IncHistoryCapture(CaptureSuppressed)
	pr.IncReadinessFailure("history")
	pr.AddConsistencyRepairs(2)
	pr.IncPublish("nats", false)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	assert.InDelta(t, 2.0, testutil.ToFloat64(pr.dispatches.WithLabelValues("add_component", "accepted")), 0)
	assert.InDelta(t, 3.0, testutil.ToFloat64(pr.historyEntries), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(pr.consistencyRepairs), 0)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncDispatch("undo", OutcomeNoop)
		pr.SetHistoryDepth(1, 0)
		pr.IncPublish("autosave", true)
	})
}

func TestNewMux(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncRenderStrategy("full-render")
	ready := false
	mux := NewMux(reg, func() bool { return ready })

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "layoutstate_render_strategy_total")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
