package common

import (
	"context"
	"log"
)

// Logger is the structured logging port carried through context
type Logger interface {
	Log(level, message string, metadata map[string]interface{})
}

type contextKey int

const loggerKey contextKey = iota

// WithLogger attaches a logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger, falling back to a no-op
func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return &noOpLogger{}
}

type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {}

// StdLogger writes through the standard library logger; used by the daemon
// until a sink with rotation is configured.
type StdLogger struct{}

func (l *StdLogger) Log(level, message string, metadata map[string]interface{}) {
	if len(metadata) > 0 {
		log.Printf("[%s] %s %v", level, message, metadata)
		return
	}
	log.Printf("[%s] %s", level, message)
}
