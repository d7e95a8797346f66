package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harvest",
		Name:      "jobs_total",
		Help:      "Finished jobs by final status.",
	}, []string{"status"})

	metricItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harvest",
		Name:      "items_total",
		Help:      "Items with a terminal result, by status.",
	}, []string{"status"})

	metricAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harvest",
		Name:      "attempts_total",
		Help:      "Item attempts by outcome.",
	}, []string{"status"})

	metricStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "harvest",
		Name:      "step_duration_seconds",
		Help:      "Duration of remote UI steps.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"step", "result"})

	metricSnapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "harvest",
		Name:      "snapshot_failures_total",
		Help:      "Diagnostic snapshots that could not be captured or saved.",
	})

	metricAuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "harvest",
		Name:      "auth_failures_total",
		Help:      "Jobs rejected because the session was not authenticated.",
	})
)

// RecordJob учитывает завершённый job.
func RecordJob(status string) {
	metricJobs.WithLabelValues(status).Inc()
}

// RecordItem учитывает терминальный результат item.
func RecordItem(status string) {
	metricItems.WithLabelValues(status).Inc()
}

// RecordAttempt учитывает завершённую попытку.
func RecordAttempt(status string) {
	metricAttempts.WithLabelValues(status).Inc()
}

// ObserveStep записывает длительность шага.
func ObserveStep(step string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metricStepDuration.WithLabelValues(step, result).Observe(d.Seconds())
}

// RecordSnapshotFailure учитывает потерянный снимок.
func RecordSnapshotFailure() {
	metricSnapshotFailures.Inc()
}

// RecordAuthFailure учитывает job, не прошедший проверку аутентификации.
func RecordAuthFailure() {
	metricAuthFailures.Inc()
}
