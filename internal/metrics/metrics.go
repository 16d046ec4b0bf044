package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed analysis runs.
	OutcomeSuccess = "success"
	// OutcomeError labels failed runs (snapshot source unavailable).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiops_engine",
			Name:      "analyses_total",
			Help:      "Total number of analysis runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aiops_engine",
			Name:      "analysis_seconds",
			Help:      "Analysis run latency in seconds.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	alertsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiops_engine",
			Name:      "alerts_generated_total",
			Help:      "Alerts produced by the alert engine, partitioned by type.",
		},
		[]string{"type"},
	)

	activeAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aiops_engine",
			Name:      "active_alerts",
			Help:      "Number of alerts currently in active status.",
		},
	)
)

// Register attaches collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		alertsGeneratedTotal,
		activeAlerts,
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

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// AlertGenerated counts one generated alert of the given type.
func AlertGenerated(alertType string) {
	alertsGeneratedTotal.WithLabelValues(alertType).Inc()
}

// SetActiveAlerts updates the active-alert gauge.
func SetActiveAlerts(count int) {
	activeAlerts.Set(float64(count))
}
