package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harborops/quayplan/internal/domain/conflict"
)

const (
	// Namespace for all metrics
	namespace = "quayplan"
	// Subsystem for daemon metrics
	subsystem = "daemon"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalPlanningCollector is set by SetGlobalPlanningCollector when metrics are enabled
	globalPlanningCollector PlanningMetricsRecorder

	// globalIngestCollector is set by SetGlobalIngestCollector when metrics are enabled
	globalIngestCollector IngestMetricsRecorder
)

// PlanningMetricsRecorder records allocation and conflict lifecycle events
type PlanningMetricsRecorder interface {
	RecordAllocation(outcome string)
	RecordSuggestion(outcome string, candidates int, duration float64)
	RecordConflictDetected(kind conflict.Kind, severity conflict.Severity)
	RecordConflictResolved(strategy conflict.Strategy)
	RecordAlertRaised(severity conflict.Severity)
}

// IngestMetricsRecorder records the position pipeline's throughput
type IngestMetricsRecorder interface {
	RecordPositionIngested()
	RecordPositionDropped(reason string)
	RecordBusDrop()
	SetFeedState(state string)
}

// InitRegistry initializes the Prometheus registry.
// Called once at daemon startup when metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global registry, nil when metrics are disabled
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalPlanningCollector sets the global planning metrics collector
func SetGlobalPlanningCollector(collector PlanningMetricsRecorder) {
	globalPlanningCollector = collector
}

// SetGlobalIngestCollector sets the global ingest metrics collector
func SetGlobalIngestCollector(collector IngestMetricsRecorder) {
	globalIngestCollector = collector
}

// RecordAllocation records an allocation attempt outcome globally
func RecordAllocation(outcome string) {
	if globalPlanningCollector != nil {
		globalPlanningCollector.RecordAllocation(outcome)
	}
}

// RecordSuggestion records a suggestion run globally
func RecordSuggestion(outcome string, candidates int, duration float64) {
	if globalPlanningCollector != nil {
		globalPlanningCollector.RecordSuggestion(outcome, candidates, duration)
	}
}

// RecordConflictDetected records a detected conflict globally
func RecordConflictDetected(kind conflict.Kind, severity conflict.Severity) {
	if globalPlanningCollector != nil {
		globalPlanningCollector.RecordConflictDetected(kind, severity)
	}
}

// RecordConflictResolved records an applied resolution globally
func RecordConflictResolved(strategy conflict.Strategy) {
	if globalPlanningCollector != nil {
		globalPlanningCollector.RecordConflictResolved(strategy)
	}
}

// RecordAlertRaised records a raised alert globally
func RecordAlertRaised(severity conflict.Severity) {
	if globalPlanningCollector != nil {
		globalPlanningCollector.RecordAlertRaised(severity)
	}
}

// RecordPositionIngested records one accepted position report globally
func RecordPositionIngested() {
	if globalIngestCollector != nil {
		globalIngestCollector.RecordPositionIngested()
	}
}

// RecordPositionDropped records one dropped position report globally
func RecordPositionDropped(reason string) {
	if globalIngestCollector != nil {
		globalIngestCollector.RecordPositionDropped(reason)
	}
}

// RecordBusDrop records one event lost to a slow subscriber globally
func RecordBusDrop() {
	if globalIngestCollector != nil {
		globalIngestCollector.RecordBusDrop()
	}
}

// SetFeedState publishes the AIS feed connection state globally
func SetFeedState(state string) {
	if globalIngestCollector != nil {
		globalIngestCollector.SetFeedState(state)
	}
}
