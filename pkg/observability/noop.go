package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NoopLogger is a logger implementation that discards all messages
type NoopLogger struct{}

// NewNoopLogger creates a logger that does nothing
func NewNoopLogger() Logger {
	return &NoopLogger{}
}

// Debug is a no-op implementation
func (l *NoopLogger) Debug(msg string, fields map[string]interface{}) {}

// Info is a no-op implementation
func (l *NoopLogger) Info(msg string, fields map[string]interface{}) {}

// Warn is a no-op implementation
func (l *NoopLogger) Warn(msg string, fields map[string]interface{}) {}

// Error is a no-op implementation
func (l *NoopLogger) Error(msg string, fields map[string]interface{}) {}

// Debugf is a no-op implementation
func (l *NoopLogger) Debugf(format string, args ...interface{}) {}

// Infof is a no-op implementation
func (l *NoopLogger) Infof(format string, args ...interface{}) {}

// Warnf is a no-op implementation
func (l *NoopLogger) Warnf(format string, args ...interface{}) {}

// Errorf is a no-op implementation
func (l *NoopLogger) Errorf(format string, args ...interface{}) {}

// WithPrefix returns the same no-op logger
func (l *NoopLogger) WithPrefix(prefix string) Logger { return l }

// With returns the same no-op logger
func (l *NoopLogger) With(fields map[string]interface{}) Logger { return l }

// noOpMetricsClient is a no-op implementation of MetricsClient for testing
type noOpMetricsClient struct{}

// NewNoOpMetricsClient creates a new no-op metrics client that does nothing
func NewNoOpMetricsClient() MetricsClient {
	return &noOpMetricsClient{}
}

// RecordEvent is a no-op implementation
func (n *noOpMetricsClient) RecordEvent(source, eventType string) {}

// RecordCounter is a no-op implementation
func (n *noOpMetricsClient) RecordCounter(name string, value float64, labels map[string]string) {}

// RecordHistogram is a no-op implementation
func (n *noOpMetricsClient) RecordHistogram(name string, value float64, labels map[string]string) {}

// RecordDuration is a no-op implementation
func (n *noOpMetricsClient) RecordDuration(name string, duration time.Duration) {}

// StartTimer is a no-op implementation
func (n *noOpMetricsClient) StartTimer(name string, labels map[string]string) func() {
	return func() {}
}

// Close is a no-op implementation
func (n *noOpMetricsClient) Close() error { return nil }

// NoopSpan is a no-op implementation of the Span interface
type NoopSpan struct{}

// End is a no-op implementation
func (s *NoopSpan) End() {}

// SetAttribute is a no-op implementation
func (s *NoopSpan) SetAttribute(key string, value interface{}) {}

// RecordError is a no-op implementation
func (s *NoopSpan) RecordError(err error) {}

// SpanContext is a no-op implementation
func (s *NoopSpan) SpanContext() trace.SpanContext {
	return trace.SpanContext{}
}

// NoopStartSpan is a no-op implementation of StartSpanFunc
func NoopStartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	return ctx, &NoopSpan{}
}
