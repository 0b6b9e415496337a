package metrics

import "time"

// Outcome enumerates dispatch outcomes for counters.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeNoop     Outcome = "noop"
)

// CaptureResult enumerates what happened to a history capture.
type CaptureResult string

const (
	CaptureStored     CaptureResult = "stored"
	CaptureSuppressed CaptureResult = "suppressed"
	CaptureReentrant  CaptureResult = "reentrant"
	CaptureEvicted    CaptureResult = "evicted"
)

// Recorder defines observability hooks for the layout state core. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveDispatchDuration(command string, d time.Duration)
	IncDispatch(command string, outcome Outcome)
	IncRenderStrategy(strategy string)
	SetHistoryDepth(entries, cursor int)
	IncHistoryCapture(result CaptureResult)
	IncReadinessFailure(signal string)
	AddConsistencyRepairs(fixes int)
	IncPublish(sink string, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveDispatchDuration(string, time.Duration) {}
func (NoopRecorder) IncDispatch(string, Outcome)                   {}
func (NoopRecorder) IncRenderStrategy(string)                      {}
func (NoopRecorder) SetHistoryDepth(int, int)                      {}
func (NoopRecorder) IncHistoryCapture(CaptureResult)               {}
func (NoopRecorder) IncReadinessFailure(string)                    {}
func (NoopRecorder) AddConsistencyRepairs(int)                     {}
func (NoopRecorder) IncPublish(string, bool)                       {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
