package pubgen

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for publishing and previewing.
//
//   - pubgen_documents_total{outcome}: documents processed, "published" or "failed"
//   - pubgen_index_persist_seconds: duration of index rewrites
//   - pubgen_index_records: records in the index after the last persist
//   - pubgen_preview_requests_total{route,status}: preview server requests
//
// A nil *Metrics records nothing.
type Metrics struct {
	Documents       *prometheus.CounterVec
	PersistSeconds  prometheus.Histogram
	IndexRecords    prometheus.Gauge
	PreviewRequests *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pubgen_documents_total",
			Help: "Documents processed by outcome.",
		}, []string{"outcome"}),
		PersistSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pubgen_index_persist_seconds",
			Help:    "Time spent rewriting the index.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		}),
		IndexRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "pubgen_index_records",
			Help: "Records in the index after the last persist.",
		}),
		PreviewRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pubgen_preview_requests_total",
			Help: "Preview server requests by route and status.",
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) observeDocument(ok bool) {
	if m == nil {
		return
	}
	outcome := "published"
	if !ok {
		outcome = "failed"
	}
	m.Documents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observePersist(start time.Time, records int) {
	if m == nil {
		return
	}
	m.PersistSeconds.Observe(time.Since(start).Seconds())
	m.IndexRecords.Set(float64(records))
}

func (m *Metrics) observeRequest(route, status string) {
	if m == nil {
		return
	}
	m.PreviewRequests.WithLabelValues(route, status).Inc()
}
