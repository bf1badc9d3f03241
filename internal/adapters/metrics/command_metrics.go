package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/harborops/quayplan/internal/application/common"
)

// CommandMetricsCollector handles all command/query execution metrics
type CommandMetricsCollector struct {
	commandDuration *prometheus.HistogramVec
	commandsTotal   *prometheus.CounterVec
}

// NewCommandMetricsCollector creates a new command metrics collector
func NewCommandMetricsCollector() *CommandMetricsCollector {
	return &CommandMetricsCollector{
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "command_duration_seconds",
				Help:      "Command execution duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"command", "status"},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_total",
				Help:      "Total number of commands executed by type and status",
			},
			[]string{"command", "status"},
		),
	}
}

// Register registers all command metrics with the Prometheus registry
func (c *CommandMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.commandDuration,
		c.commandsTotal,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordCommandExecution records one command or query execution
func (c *CommandMetricsCollector) RecordCommandExecution(commandName string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.commandDuration.WithLabelValues(commandName, status).Observe(duration)
	c.commandsTotal.WithLabelValues(commandName, status).Inc()
}

// InstrumentedMediator wraps a mediator and records per-command metrics.
// A nil collector passes requests straight through.
type InstrumentedMediator struct {
	inner     common.Mediator
	collector *CommandMetricsCollector
}

// NewInstrumentedMediator wraps inner with command metrics
func NewInstrumentedMediator(inner common.Mediator, collector *CommandMetricsCollector) *InstrumentedMediator {
	return &InstrumentedMediator{inner: inner, collector: collector}
}

// Register delegates to the wrapped mediator
func (m *InstrumentedMediator) Register(requestType reflect.Type, handler common.RequestHandler) error {
	return m.inner.Register(requestType, handler)
}

// Send dispatches the request, timing it when metrics are enabled
func (m *InstrumentedMediator) Send(ctx context.Context, request common.Request) (common.Response, error) {
	if m.collector == nil {
		return m.inner.Send(ctx, request)
	}
	name := extractCommandName(request)
	start := time.Now()
	response, err := m.inner.Send(ctx, request)
	m.collector.RecordCommandExecution(name, time.Since(start).Seconds(), err == nil)
	return response, err
}

// extractCommandName turns "*commands.AllocateBerthCommand" into "AllocateBerthCommand"
func extractCommandName(request common.Request) string {
	if request == nil {
		return "UnknownCommand"
	}
	fullName := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	parts := strings.Split(fullName, ".")
	return parts[len(parts)-1]
}
