package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder_AllMethodsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("parse", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncDocumentResult(ResultSuccess)
	r.IncBuildOutcome("success")
	r.IncDanglingReferences(3)
	r.IncCacheLookup(true)
}

func TestPrometheusRecorder_CountsDocumentResults(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncDocumentResult(ResultSuccess)
	r.IncDocumentResult(ResultSuccess)
	r.IncDocumentResult(ResultFatal)

	count := testutil.CollectAndCount(r.documentResults)
	require.Equal(t, 2, count) // two label values seen

	require.Equal(t, float64(2), testutil.ToFloat64(r.documentResults.WithLabelValues("success")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.documentResults.WithLabelValues("fatal")))
}

func TestPrometheusRecorder_DanglingCounterIgnoresNonPositive(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncDanglingReferences(0)
	r.IncDanglingReferences(-1)
	r.IncDanglingReferences(2)

	require.Equal(t, float64(2), testutil.ToFloat64(r.danglingRefs))
}

func TestPrometheusRecorder_NilReceiverSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveStageDuration("parse", time.Second)
	r.IncDocumentResult(ResultWarning)
	r.IncCacheLookup(false)
}
