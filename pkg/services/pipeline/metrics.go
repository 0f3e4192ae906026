package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the pipeline's Prometheus collectors.
type Metrics struct {
	RowsParsed     *prometheus.CounterVec
	TablesWritten  *prometheus.CounterVec
	NumericSkipped *prometheus.CounterVec
	RunDuration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transparency",
			Name:      "rows_parsed_total",
			Help:      "Data rows parsed from category exports.",
		}, []string{"category"}),
		TablesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transparency",
			Name:      "tables_written_total",
			Help:      "Report tables handed to the sink.",
		}, []string{"category", "kind"}),
		NumericSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transparency",
			Name:      "numeric_domain_skipped_total",
			Help:      "Z-score tables skipped because the statistic is undefined.",
		}, []string{"category", "metric"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transparency",
			Name:      "run_duration_seconds",
			Help:      "Duration of complete pipeline runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RowsParsed, m.TablesWritten, m.NumericSkipped, m.RunDuration)
	}
	return m
}
