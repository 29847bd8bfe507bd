package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	documentResults *prom.CounterVec
	buildOutcome    *prom.CounterVec
	danglingRefs    prom.Counter
	cacheLookups    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "contentpress",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "contentpress",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.documentResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "contentpress",
			Name:      "document_results_total",
			Help:      "Per-document processing results",
		}, []string{"result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "contentpress",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.danglingRefs = prom.NewCounter(prom.CounterOpts{
			Namespace: "contentpress",
			Name:      "dangling_references_total",
			Help:      "Dangling internal references found by the resolver",
		})
		pr.cacheLookups = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "contentpress",
			Name:      "render_cache_lookups_total",
			Help:      "Render cache lookups by hit/miss",
		}, []string{"result"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.documentResults, pr.buildOutcome, pr.danglingRefs, pr.cacheLookups)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocumentResult(result ResultLabel) {
	if p == nil || p.documentResults == nil {
		return
	}
	p.documentResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncDanglingReferences(n int) {
	if p == nil || p.danglingRefs == nil || n <= 0 {
		return
	}
	p.danglingRefs.Add(float64(n))
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	p.cacheLookups.WithLabelValues(label).Inc()
}
