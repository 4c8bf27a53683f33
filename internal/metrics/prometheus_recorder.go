package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "folio"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	extractDuration *prom.HistogramVec
	extractOutcome  *prom.CounterVec
	resources       *prom.CounterVec
	tocKinds        *prom.CounterVec
	uploads         *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		extractDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Duration of package extractions",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		extractOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extractions by outcome",
		}, []string{"outcome"}),
		resources: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "extracted_resources_total",
			Help:      "Documents, images and stylesheets placed in extracted models",
		}, []string{"kind"}),
		tocKinds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "toc_outlines_total",
			Help:      "Resolved table of contents outlines by variant",
		}, []string{"kind"}),
		uploads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Package uploads by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.extractDuration, pr.extractOutcome, pr.resources, pr.tocKinds, pr.uploads)
	return pr
}

func (p *PrometheusRecorder) ObserveExtraction(d time.Duration, outcome string) {
	if p == nil {
		return
	}
	p.extractDuration.WithLabelValues(outcome).Observe(d.Seconds())
	p.extractOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddResources(kind string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.resources.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) IncTocKind(kind string) {
	if p == nil {
		return
	}
	p.tocKinds.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncUpload(success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.uploads.WithLabelValues(res).Inc()
}
