package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoopRecorder{}, OrNoop(nil))

	pr := NewPrometheusRecorder(nil)
	assert.Same(t, pr, OrNoop(pr))

	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)
}
