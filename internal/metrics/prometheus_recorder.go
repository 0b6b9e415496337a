package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "layoutstate"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	dispatchDuration   *prom.HistogramVec
	dispatches         *prom.CounterVec
	renderStrategies   *prom.CounterVec
	historyEntries     prom.Gauge
	historyCursor      prom.Gauge
	historyCaptures    *prom.CounterVec
	readinessFailures  *prom.CounterVec
	consistencyRepairs prom.Counter
	publishes          *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.dispatchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of command dispatches",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"command"})
		pr.dispatches = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Command dispatches by outcome",
		}, []string{"command", "outcome"})
		pr.renderStrategies = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "render_strategy_total",
			Help:      "Render notifications by strategy",
		}, []string{"strategy"})
		pr.historyEntries = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "history_entries",
			Help:      "Number of history entries retained",
		})
		pr.historyCursor = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "history_cursor",
			Help:      "Current history cursor position",
		})
		pr.historyCaptures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "history_captures_total",
			Help:      "History capture attempts by result",
		}, []string{"result"})
		pr.readinessFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "readiness_failures_total",
			Help:      "Dependencies that did not become ready in time",
		}, []string{"signal"})
		pr.consistencyRepairs = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "consistency_repairs_total",
			Help:      "Section reference fixes applied after mutations",
		})
		pr.publishes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "state_publishes_total",
			Help:      "State change deliveries to persistence sinks",
		}, []string{"sink", "result"})
		reg.MustRegister(pr.dispatchDuration, pr.dispatches, pr.renderStrategies, pr.historyEntries,
			pr.historyCursor, pr.historyCaptures, pr.readinessFailures, pr.consistencyRepairs, pr.publishes)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveDispatchDuration(command string, d time.Duration) {
	if p == nil || p.dispatchDuration == nil {
		return
	}
	p.dispatchDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDispatch(command string, outcome Outcome) {
	if p == nil || p.dispatches == nil {
		return
	}
	p.dispatches.WithLabelValues(command, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRenderStrategy(strategy string) {
	if p == nil || p.renderStrategies == nil {
		return
	}
	p.renderStrategies.WithLabelValues(strategy).Inc()
}

func (p *PrometheusRecorder) SetHistoryDepth(entries, cursor int) {
	if p == nil || p.historyEntries == nil {
		return
	}
	p.historyEntries.Set(float64(entries))
	p.historyCursor.Set(float64(cursor))
}

func (p *PrometheusRecorder) IncHistoryCapture(result CaptureResult) {
	if p == nil || p.historyCaptures == nil {
		return
	}
	p.historyCaptures.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncReadinessFailure(signal string) {
	if p == nil || p.readinessFailures == nil {
		return
	}
	p.readinessFailures.WithLabelValues(signal).Inc()
}

func (p *PrometheusRecorder) AddConsistencyRepairs(fixes int) {
	if p == nil || p.consistencyRepairs == nil || fixes <= 0 {
		return
	}
	p.consistencyRepairs.Add(float64(fixes))
}

func (p *PrometheusRecorder) IncPublish(sink string, success bool) {
	if p == nil || p.publishes == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.publishes.WithLabelValues(sink, res).Inc()
}
