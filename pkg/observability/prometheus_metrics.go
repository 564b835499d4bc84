package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetricsClient implements MetricsClient using Prometheus
type PrometheusMetricsClient struct {
	namespace string
	subsystem string

	// Metric collectors
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec

	// Each client owns its registry so repeated construction never
	// collides on collector registration
	registry *prometheus.Registry

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewPrometheusMetricsClient creates a new Prometheus metrics client
func NewPrometheusMetricsClient(namespace, subsystem string) *PrometheusMetricsClient {
	client := &PrometheusMetricsClient{
		namespace:  namespace,
		subsystem:  subsystem,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registry:   prometheus.NewRegistry(),
	}

	// Register default metrics
	client.registerDefaultMetrics()

	return client
}

// Registry exposes the underlying registry so callers can mount an
// HTTP handler or gather metrics in tests
func (c *PrometheusMetricsClient) Registry() *prometheus.Registry {
	return c.registry
}

// registerDefaultMetrics registers the event delivery metrics
func (c *PrometheusMetricsClient) registerDefaultMetrics() {
	c.getOrCreateCounter("events_emitted_total", "Total events emitted", []string{"source", "event_type"})
	c.getOrCreateCounter("events_silenced_total", "Total emissions dropped while silenced", []string{"event_type"})
	c.getOrCreateCounter("event_callbacks_total", "Total callback invocations", []string{"event_type", "status"})
	c.getOrCreateHistogram("emit_duration_seconds", "Emit dispatch duration", []string{"event_type"}, prometheus.DefBuckets)
}

// RecordEvent records a delivered event by source and type
func (c *PrometheusMetricsClient) RecordEvent(source, eventType string) {
	c.RecordCounter("events_emitted_total", 1, map[string]string{
		"source":     source,
		"event_type": eventType,
	})
}

// RecordCounter records a counter metric
func (c *PrometheusMetricsClient) RecordCounter(name string, value float64, labels map[string]string) {
	counter := c.getOrCreateCounter(name, fmt.Sprintf("Counter for %s", name), labelNames(labels))
	counter.With(prometheus.Labels(labels)).Add(value)
}

// RecordHistogram records a histogram metric
func (c *PrometheusMetricsClient) RecordHistogram(name string, value float64, labels map[string]string) {
	histogram := c.getOrCreateHistogram(name, fmt.Sprintf("Histogram for %s", name), labelNames(labels), prometheus.DefBuckets)
	histogram.With(prometheus.Labels(labels)).Observe(value)
}

// RecordDuration records a duration as a histogram in seconds
func (c *PrometheusMetricsClient) RecordDuration(name string, duration time.Duration) {
	c.RecordHistogram(name, duration.Seconds(), nil)
}

// StartTimer returns a stop function that records the elapsed time
func (c *PrometheusMetricsClient) StartTimer(name string, labels map[string]string) func() {
	start := time.Now()
	return func() {
		c.RecordHistogram(name, time.Since(start).Seconds(), labels)
	}
}

// Close releases resources held by the client
func (c *PrometheusMetricsClient) Close() error {
	// Prometheus collectors have no teardown
	return nil
}

// getOrCreateCounter returns an existing counter or creates and registers one
func (c *PrometheusMetricsClient) getOrCreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	c.mu.RLock()
	counter, exists := c.counters[name]
	c.mu.RUnlock()
	if exists {
		return counter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if counter, exists = c.counters[name]; exists {
		return counter
	}

	counter = promauto.With(c.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	c.counters[name] = counter
	return counter
}

// getOrCreateHistogram returns an existing histogram or creates and registers one
func (c *PrometheusMetricsClient) getOrCreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	c.mu.RLock()
	histogram, exists := c.histograms[name]
	c.mu.RUnlock()
	if exists {
		return histogram
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if histogram, exists = c.histograms[name]; exists {
		return histogram
	}

	histogram = promauto.With(c.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	c.histograms[name] = histogram
	return histogram
}

// labelNames extracts the label name set from a label map
func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	return names
}
