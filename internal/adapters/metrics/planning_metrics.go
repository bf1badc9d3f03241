package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harborops/quayplan/internal/domain/conflict"
)

// PlanningMetricsCollector handles allocation, suggestion, and conflict metrics
type PlanningMetricsCollector struct {
	allocationsTotal   *prometheus.CounterVec
	suggestionsTotal   *prometheus.CounterVec
	suggestionDuration prometheus.Histogram
	suggestionWidth    prometheus.Histogram
	conflictsDetected  *prometheus.CounterVec
	conflictsResolved  *prometheus.CounterVec
	alertsRaised       *prometheus.CounterVec
}

// NewPlanningMetricsCollector creates a new planning metrics collector
func NewPlanningMetricsCollector() *PlanningMetricsCollector {
	return &PlanningMetricsCollector{
		allocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "allocations_total",
				Help:      "Total berth allocation attempts by outcome",
			},
			[]string{"outcome"},
		),
		suggestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "suggestions_total",
				Help:      "Total suggestion runs by outcome",
			},
			[]string{"outcome"},
		),
		suggestionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "suggestion_duration_seconds",
				Help:      "Suggestion pipeline duration distribution",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
		),
		suggestionWidth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "suggestion_candidates",
				Help:      "Feasible candidate berths per suggestion run",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		conflictsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "conflicts_detected_total",
				Help:      "Total conflicts detected by kind and severity",
			},
			[]string{"kind", "severity"},
		),
		conflictsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "conflicts_resolved_total",
				Help:      "Total conflicts resolved by strategy",
			},
			[]string{"strategy"},
		),
		alertsRaised: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "alerts_raised_total",
				Help:      "Total alerts raised by severity",
			},
			[]string{"severity"},
		),
	}
}

// Register registers all planning metrics with the Prometheus registry
func (c *PlanningMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.allocationsTotal,
		c.suggestionsTotal,
		c.suggestionDuration,
		c.suggestionWidth,
		c.conflictsDetected,
		c.conflictsResolved,
		c.alertsRaised,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordAllocation records an allocation attempt outcome
func (c *PlanningMetricsCollector) RecordAllocation(outcome string) {
	c.allocationsTotal.WithLabelValues(outcome).Inc()
}

// RecordSuggestion records one suggestion run
func (c *PlanningMetricsCollector) RecordSuggestion(outcome string, candidates int, duration float64) {
	c.suggestionsTotal.WithLabelValues(outcome).Inc()
	c.suggestionDuration.Observe(duration)
	c.suggestionWidth.Observe(float64(candidates))
}

// RecordConflictDetected records a detected conflict
func (c *PlanningMetricsCollector) RecordConflictDetected(kind conflict.Kind, severity conflict.Severity) {
	c.conflictsDetected.WithLabelValues(string(kind), string(severity)).Inc()
}

// RecordConflictResolved records an applied resolution
func (c *PlanningMetricsCollector) RecordConflictResolved(strategy conflict.Strategy) {
	c.conflictsResolved.WithLabelValues(string(strategy)).Inc()
}

// RecordAlertRaised records a raised alert
func (c *PlanningMetricsCollector) RecordAlertRaised(severity conflict.Severity) {
	c.alertsRaised.WithLabelValues(string(severity)).Inc()
}
