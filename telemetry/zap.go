package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// ZapLogger delegates to a *zap.SugaredLogger for runtime logging.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger constructs a Logger backed by the given zap logger.
func NewZapLogger(l *zap.Logger) Logger {
	return ZapLogger{log: l.Sugar()}
}

// Debug emits a debug-level log message with structured key-value pairs.
func (z ZapLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	z.log.Debugw(msg, keyvals...)
}

// Info emits an info-level log message with structured key-value pairs.
func (z ZapLogger) Info(_ context.Context, msg string, keyvals ...any) {
	z.log.Infow(msg, keyvals...)
}

// Warn emits a warning-level log message with structured key-value pairs.
func (z ZapLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	z.log.Warnw(msg, keyvals...)
}

// Error emits an error-level log message with structured key-value pairs.
func (z ZapLogger) Error(_ context.Context, msg string, keyvals ...any) {
	z.log.Errorw(msg, keyvals...)
}
