package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeComplete labels report jobs that produced a result.
	OutcomeComplete = "complete"
	// OutcomeFailed labels report jobs that ended in the Failed state.
	OutcomeFailed = "failed"
)

var (
	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storewatch",
			Name:      "reports_total",
			Help:      "Total number of report jobs finished, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	reportDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "storewatch",
			Name:      "report_seconds",
			Help:      "Report job latency in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	reportsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storewatch",
			Name:      "reports_running",
			Help:      "Number of report jobs currently running.",
		},
	)

	storesEvaluatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storewatch",
			Name:      "stores_evaluated_total",
			Help:      "Total number of store rows produced across report runs.",
		},
	)

	recordsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storewatch",
			Name:      "records_skipped_total",
			Help:      "Malformed input records skipped, partitioned by record kind.",
		},
		[]string{"record"},
	)
)

// Register attaches storewatch collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		reportsTotal,
		reportDurationSeconds,
		reportsRunning,
		storesEvaluatedTotal,
		recordsSkippedTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ReportStarted marks a report job as running.
func ReportStarted() {
	reportsRunning.Inc()
}

// ObserveReport records a finished report job's duration and outcome label.
func ObserveReport(duration time.Duration, outcome string) {
	reportsRunning.Dec()
	label := outcome
	if label != OutcomeFailed {
		label = OutcomeComplete
	}
	reportsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	reportDurationSeconds.Observe(duration.Seconds())
}

// AddStoresEvaluated counts rows produced by an aggregation run.
func AddStoresEvaluated(n int) {
	storesEvaluatedTotal.Add(float64(n))
}

// RecordSkipped counts one malformed record of the given kind.
func RecordSkipped(record string) {
	recordsSkippedTotal.WithLabelValues(record).Inc()
}
