package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	recordsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseline",
			Name:      "pipeline_records_processed_total",
			Help:      "Records extracted and handed to transformation, per stream.",
		},
		[]string{"stream"},
	)
	recordsLoadedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseline",
			Name:      "pipeline_records_loaded_total",
			Help:      "Records committed to storage, per stream.",
		},
		[]string{"stream"},
	)
	recordsInvalidTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseline",
			Name:      "pipeline_records_invalid_total",
			Help:      "Records rejected during transformation, per stream.",
		},
		[]string{"stream"},
	)
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseline",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline run outcomes.",
		},
		[]string{"outcome"},
	)
)

// InitMetrics registers the pipeline collectors with the default
// registry. Called once from the entry points.
func InitMetrics() {
	prometheus.MustRegister(recordsProcessedTotal, recordsLoadedTotal, recordsInvalidTotal, runsTotal)
}
