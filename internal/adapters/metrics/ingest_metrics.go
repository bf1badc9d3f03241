package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// feedStates enumerates the AIS client states exported as a one-hot gauge
var feedStates = []string{"DISCONNECTED", "CONNECTING", "SUBSCRIBED", "RUNNING", "DEGRADED"}

// IngestMetricsCollector handles position pipeline and event bus metrics
type IngestMetricsCollector struct {
	positionsIngested prometheus.Counter
	positionsDropped  *prometheus.CounterVec
	busDropped        prometheus.Counter
	feedState         *prometheus.GaugeVec
}

// NewIngestMetricsCollector creates a new ingest metrics collector
func NewIngestMetricsCollector() *IngestMetricsCollector {
	return &IngestMetricsCollector{
		positionsIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "positions_ingested_total",
				Help:      "Total position reports accepted into the store",
			},
		),
		positionsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "positions_dropped_total",
				Help:      "Total position reports dropped by reason",
			},
			[]string{"reason"},
		),
		busDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "bus_events_dropped_total",
				Help:      "Total events lost to slow event bus subscribers",
			},
		),
		feedState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ais_feed_state",
				Help:      "Current AIS feed connection state (one-hot)",
			},
			[]string{"state"},
		),
	}
}

// Register registers all ingest metrics with the Prometheus registry
func (c *IngestMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.positionsIngested,
		c.positionsDropped,
		c.busDropped,
		c.feedState,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordPositionIngested records one accepted position report
func (c *IngestMetricsCollector) RecordPositionIngested() {
	c.positionsIngested.Inc()
}

// RecordPositionDropped records one dropped position report
func (c *IngestMetricsCollector) RecordPositionDropped(reason string) {
	c.positionsDropped.WithLabelValues(reason).Inc()
}

// RecordBusDrop records one event lost to a slow subscriber
func (c *IngestMetricsCollector) RecordBusDrop() {
	c.busDropped.Inc()
}

// SetFeedState publishes the AIS feed connection state
func (c *IngestMetricsCollector) SetFeedState(state string) {
	for _, s := range feedStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		c.feedState.WithLabelValues(s).Set(v)
	}
}
