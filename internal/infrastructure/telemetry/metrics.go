package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// ERPDurationBuckets are histogram boundaries (seconds) for ERP round trips.
// Record and query calls routinely take several seconds.
var ERPDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30}

// HTTPDurationBuckets are histogram boundaries (seconds) for inbound requests.
// A batch sync request spans many ERP round trips.
var HTTPDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Metric attribute keys
var (
	AttrERPMethod  = attribute.Key("erp.method")
	AttrERPRoute   = attribute.Key("erp.route")
	AttrERPStatus  = attribute.Key("erp.status_code")
	AttrERPOutcome = attribute.Key("erp.outcome")
	AttrStrategy   = attribute.Key("resolution_strategy")
	AttrSyncResult = attribute.Key("sync_result")

	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
)

// Counter wraps an Int64Counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Counter metric.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter by value
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram wraps a Float64Histogram
type Histogram struct {
	histogram metric.Float64Histogram
}

// HistogramOpts provides options for creating a histogram.
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

// NewHistogram creates a new Histogram metric.
func NewHistogram(meter metric.Meter, opts HistogramOpts) (*Histogram, error) {
	histogramOpts := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(opts.Boundaries) > 0 {
		histogramOpts = append(histogramOpts, metric.WithExplicitBucketBoundaries(opts.Boundaries...))
	}

	h, err := meter.Float64Histogram(opts.Name, histogramOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", opts.Name, err)
	}
	return &Histogram{histogram: h}, nil
}

// Record records v
func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, v, metric.WithAttributes(attrs...))
}

// RecordDuration records d in seconds
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// ---------------------------------------------------------------------------
// Sync metrics
// ---------------------------------------------------------------------------

// SyncMetrics records ERP round trips and order synchronization outcomes
type SyncMetrics struct {
	requestDuration *Histogram
	requestTotal    *Counter
	ordersTotal     *Counter
}

// NewSyncMetrics registers the instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "ordersync_erp_request_duration_seconds",
		Description: "ERP request duration",
		Unit:        "s",
		Boundaries:  ERPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	requests, err := NewCounter(meter, "ordersync_erp_requests_total", "Total number of ERP requests", "{requests}")
	if err != nil {
		return nil, err
	}
	orders, err := NewCounter(meter, "ordersync_orders_total", "Total number of order sync attempts", "{orders}")
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{requestDuration: duration, requestTotal: requests, ordersTotal: orders}, nil
}

// RecordERPRequest records one ERP round trip. statusCode 0 means no response.
func (m *SyncMetrics) RecordERPRequest(ctx context.Context, method, route string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	switch {
	case statusCode == 0:
		outcome = "unavailable"
	case statusCode >= 300:
		outcome = "error"
	}
	attrs := []attribute.KeyValue{
		AttrERPMethod.String(method),
		AttrERPRoute.String(route),
		AttrERPStatus.String(strconv.Itoa(statusCode)),
		AttrERPOutcome.String(outcome),
	}
	m.requestDuration.RecordDuration(ctx, d, attrs...)
	m.requestTotal.Inc(ctx, attrs...)
}

// RecordOrderSync records one order sync attempt
func (m *SyncMetrics) RecordOrderSync(ctx context.Context, strategy string, success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.ordersTotal.Inc(ctx, AttrStrategy.String(strategy), AttrSyncResult.String(result))
}
