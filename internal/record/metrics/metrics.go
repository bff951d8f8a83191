package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the record module: merge throughput,
// lock rejections, and discrepancy volume.
type Metrics struct {
	MergesTotal         *prometheus.CounterVec
	MergeRejections     *prometheus.CounterVec
	DiscrepanciesFound  prometheus.Counter
	MergeDuration       prometheus.Histogram
	StatusUpdatesTotal  prometheus.Counter
	SummaryCacheResults *prometheus.CounterVec
}

// New creates a Metrics instance with all record module metrics registered.
func New() *Metrics {
	return &Metrics{
		MergesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_merges_total",
			Help: "Total merges processed, labeled by entity role",
		}, []string{"role"}),
		MergeRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_merge_rejections_total",
			Help: "Merges rejected per entity, labeled by error code",
		}, []string{"code"}),
		DiscrepanciesFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_discrepancies_total",
			Help: "Newly detected discrepancies across merges",
		}),
		MergeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attest_merge_duration_seconds",
			Help:    "Duration of load-merge-save cycles per entity",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		StatusUpdatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_status_updates_total",
			Help: "Explicit verification status updates",
		}),
		SummaryCacheResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_summary_cache_results_total",
			Help: "Summary cache lookups, labeled hit or miss",
		}, []string{"result"}),
	}
}

// ObserveMerge records one completed per-entity merge cycle.
func (m *Metrics) ObserveMerge(role string, start time.Time) {
	m.MergesTotal.WithLabelValues(role).Inc()
	m.MergeDuration.Observe(time.Since(start).Seconds())
}

// IncRejection records a rejected merge by error code.
func (m *Metrics) IncRejection(code string) {
	m.MergeRejections.WithLabelValues(code).Inc()
}

// IncSummaryCache records a summary cache hit or miss.
func (m *Metrics) IncSummaryCache(result string) {
	m.SummaryCacheResults.WithLabelValues(result).Inc()
}
