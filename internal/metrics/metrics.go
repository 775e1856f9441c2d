// Package metrics exposes Prometheus collectors for the validation and
// analysis pipelines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// VerdictValid labels alerts that passed validation.
	VerdictValid = "valid"
	// VerdictFalsePositive labels alerts flagged as false positives.
	VerdictFalsePositive = "false_positive"
	// VerdictFailOpen labels alerts passed through because history was unavailable.
	VerdictFailOpen = "fail_open"

	// OutcomeSuccess labels successful analysis runs.
	OutcomeSuccess = "success"
	// OutcomeError labels failed analysis runs.
	OutcomeError = "error"
)

var (
	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silpredict",
			Name:      "validations_total",
			Help:      "Total number of alert validations, partitioned by verdict.",
		},
		[]string{"verdict"},
	)

	validationConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "silpredict",
			Name:      "validation_confidence",
			Help:      "False-positive confidence of validation results.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
		},
	)

	alertsRaisedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silpredict",
			Name:      "alerts_raised_total",
			Help:      "Total number of alerts raised from measurements, partitioned by gravity.",
		},
		[]string{"gravity"},
	)

	analysisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silpredict",
			Name:      "analysis_runs_total",
			Help:      "Total number of root cause analysis runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "silpredict",
			Name:      "analysis_seconds",
			Help:      "Root cause analysis latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

// Register attaches the collectors to the supplied Prometheus registerer
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		validationsTotal,
		validationConfidence,
		alertsRaisedTotal,
		analysisRunsTotal,
		analysisDurationSeconds,
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

// ObserveValidation records one validation verdict and its confidence
func ObserveValidation(verdict string, confidence float64) {
	validationsTotal.WithLabelValues(verdict).Inc()
	validationConfidence.Observe(confidence)
}

// ObserveAlertRaised records one alert raised from a measurement
func ObserveAlertRaised(gravity string) {
	alertsRaisedTotal.WithLabelValues(gravity).Inc()
}

// ObserveAnalysis records an analysis duration and outcome label
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysisRunsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}
