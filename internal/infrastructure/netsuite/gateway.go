package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/telemetry"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SuiteQLEndpoint routes Execute to the structured query service instead of
// the record service
const SuiteQLEndpoint = "suiteql"

const (
	// maxResponseBytes caps response bodies at 10MB
	maxResponseBytes = 10 * 1024 * 1024

	routeRecord = "record"
	routeQuery  = "query"
)

// locationIDPattern extracts the trailing numeric id of a Location header,
// e.g. ".../record/v1/customer/4521"
var locationIDPattern = regexp.MustCompile(`/(\d+)/?$`)

// errServerFault marks 5xx responses as failures for the circuit breaker
var errServerFault = errors.New("netsuite: server fault")

// IDFromLocation returns the record id at the end of a Location header
func IDFromLocation(location string) (string, bool) {
	m := locationIDPattern.FindStringSubmatch(strings.TrimSpace(location))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ---------------------------------------------------------------------------
// APIError
// ---------------------------------------------------------------------------

// APIError is a non-2xx ERP response. It wraps integration.ErrERPRequestFailed.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
	// Code and Detail come from the first entry of o:errorDetails, if any
	Code   string
	Detail string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s %s: HTTP %d", integration.ErrERPRequestFailed, e.Method, e.Endpoint, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return integration.ErrERPRequestFailed
}

// IsNotFound returns true when err is an APIError with status 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func newAPIError(method, endpoint string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Body:       string(body),
	}
	var resp errorResponse
	if json.Unmarshal(body, &resp) == nil {
		apiErr.Detail = resp.Title
		if len(resp.ErrorDetails) > 0 {
			apiErr.Code = resp.ErrorDetails[0].ErrorCode
			apiErr.Detail = resp.ErrorDetails[0].Detail
		}
	}
	return apiErr
}

// ---------------------------------------------------------------------------
// Gateway
// ---------------------------------------------------------------------------

// Gateway performs signed calls against the record and query services and
// normalizes their responses. Each call is attempted exactly once.
type Gateway struct {
	config     *Config
	signer     *RequestSigner
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *telemetry.SyncMetrics
	logger     *zap.Logger
}

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		g.httpClient = client
	}
}

// WithSigner replaces the request signer
func WithSigner(signer *RequestSigner) GatewayOption {
	return func(g *Gateway) {
		g.signer = signer
	}
}

// WithMetrics records request metrics
func WithMetrics(metrics *telemetry.SyncMetrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// NewGateway creates a gateway for the configured account
func NewGateway(config *Config, logger *zap.Logger, opts ...GatewayOption) (*Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout()},
		logger:     logger.Named("netsuite"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.signer == nil {
		g.signer = NewRequestSigner(config, g.logger)
	}
	if config.BreakerFailureThreshold > 0 {
		g.breaker = newBreaker(config, g.logger)
	}
	return g, nil
}

func newBreaker(config *Config, logger *zap.Logger) *gobreaker.CircuitBreaker {
	threshold := config.BreakerFailureThreshold
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "netsuite-" + strings.ToLower(config.AccountID),
		MaxRequests: 1,
		Timeout:     config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Execute signs and sends one call. endpoint is a record path such as
// "customer/42", or SuiteQLEndpoint. body is JSON-encoded unless it is nil
// or []byte. A no-content create response yields a result whose ID comes
// from the Location header; IDResolved is false when that header is absent
// or unparsable.
func (g *Gateway) Execute(ctx context.Context, method, endpoint string, body any, query url.Values) (*integration.GatewayResult, error) {
	route := routeRecord
	target := g.config.RecordURL(endpoint)
	if endpoint == SuiteQLEndpoint {
		route = routeQuery
		target = g.config.QueryURL()
	}
	if len(query) > 0 {
		target += "?" + encodeQuery(query)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	auth, err := g.signer.Authorization(method, target, nil)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "netsuite."+route,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrERPMethod, method),
		telemetry.WithAttribute(telemetry.SpanAttrERPRoute, endpoint),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, target, bytesReader(payload))
	if err != nil {
		return nil, fmt.Errorf("netsuite: build request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if route == routeQuery {
		req.Header.Set("Prefer", "transient")
	}

	start := time.Now()
	ex, err := g.send(req)
	duration := time.Since(start)

	statusCode := 0
	if ex != nil {
		statusCode = ex.statusCode
	}
	g.metrics.RecordERPRequest(ctx, method, route, statusCode, duration)
	telemetry.SetAttribute(span, telemetry.SpanAttrERPStatus, statusCode)

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", statusCode),
		zap.Duration("duration", duration),
	}
	if traceID := telemetry.GetTraceID(ctx); traceID != "" {
		fields = append(fields,
			zap.String("trace_id", traceID),
			zap.String("span_id", telemetry.GetSpanID(ctx)),
		)
	}

	if err != nil {
		telemetry.RecordError(span, err)
		g.logger.Error("ERP request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	if ex.statusCode < 200 || ex.statusCode >= 300 {
		apiErr := newAPIError(method, endpoint, ex.statusCode, ex.body)
		telemetry.RecordError(span, apiErr)
		g.logger.Warn("ERP request rejected", append(fields, zap.String("detail", apiErr.Detail))...)
		return nil, apiErr
	}
	g.logger.Info("ERP request", fields...)

	result, err := normalize(ex)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	return result, nil
}

// exchange is a completed HTTP round trip
type exchange struct {
	statusCode int
	header     http.Header
	body       []byte
}

func (g *Gateway) send(req *http.Request) (*exchange, error) {
	if g.breaker == nil {
		return g.roundTrip(req)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		ex, err := g.roundTrip(req)
		if err != nil {
			return nil, err
		}
		if ex.statusCode >= 500 {
			return ex, errServerFault
		}
		return ex, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", integration.ErrERPUnavailable, err)
	case errors.Is(err, errServerFault):
		return out.(*exchange), nil
	case err != nil:
		return nil, err
	}
	return out.(*exchange), nil
}

func (g *Gateway) roundTrip(req *http.Request) (*exchange, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrERPUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", integration.ErrERPUnavailable, err)
	}
	return &exchange{statusCode: resp.StatusCode, header: resp.Header, body: body}, nil
}

func normalize(ex *exchange) (*integration.GatewayResult, error) {
	result := &integration.GatewayResult{
		StatusCode: ex.statusCode,
		Body:       ex.body,
		Location:   ex.header.Get("Location"),
	}

	if len(bytes.TrimSpace(ex.body)) > 0 {
		var record map[string]any
		if err := json.Unmarshal(ex.body, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrInvalidERPResponse, err)
		}
		result.Record = record
		if id := integration.Row(record).String("id"); id != "" {
			result.ID = id
			result.IDResolved = true
		}
	}

	if !result.IDResolved && result.Location != "" {
		if id, ok := IDFromLocation(result.Location); ok {
			result.ID = id
			result.IDResolved = true
		}
	}
	return result, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("netsuite: encode body: %w", err)
		}
		return data, nil
	}
}

func bytesReader(b []byte) io.Reader {
	if b == nil {
		return http.NoBody
	}
	return bytes.NewReader(b)
}

// encodeQuery percent-encodes the query the same way the signer does so the
// signed and transmitted parameters match
func encodeQuery(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(query))
	for _, k := range keys {
		for _, v := range query[k] {
			parts = append(parts, percentEncode(k)+"="+percentEncode(v))
		}
	}
	return strings.Join(parts, "&")
}

var _ integration.RecordGateway = (*Gateway)(nil)
