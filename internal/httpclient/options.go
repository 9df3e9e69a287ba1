// Package httpclient is the instrumented HTTP client used for upstream
// REST APIs. Every request is traced through OTEL and counted per
// provider, so feed outages show up in telemetry before they show up
// as stale data.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceOption selects which payloads are attached to request spans.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

// ClientOptions holds client-wide configuration.
type ClientOptions struct {
	httpClient     *http.Client
	providerName   string
	requestTimeout time.Duration
	headers        map[string]string
	baseURL        string
	tracer         trace.Tracer
	logRequest     bool
	logResponse    bool
}

// ClientOption configures the client at construction.
type ClientOption func(*ClientOptions)

// WithHTTPClient supplies a pre-built http.Client, for tests or custom
// transports. Its transport still gets wrapped with instrumentation.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *ClientOptions) {
		o.httpClient = client
	}
}

// WithProviderName tags metrics and spans with the upstream API name.
func WithProviderName(name string) ClientOption {
	return func(o *ClientOptions) {
		o.providerName = name
	}
}

// WithRequestTimeout bounds each request end to end.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.requestTimeout = timeout
	}
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) {
		o.headers = headers
	}
}

// WithBaseURL resolves relative request paths against the given URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *ClientOptions) {
		o.baseURL = baseURL
	}
}

// WithTraceOptions sets the tracer and enables body logging on spans.
// Bodies can carry API keys in some providers, so logging is opt-in.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(o *ClientOptions) {
		o.tracer = tracer
		for _, opt := range opts {
			switch opt {
			case TraceRequest:
				o.logRequest = true
			case TraceResponse:
				o.logResponse = true
			}
		}
	}
}

// RequestOptions holds per-request configuration.
type RequestOptions struct {
	errorHandler ResponseErrorHandler
	labels       []*Label
}

// RequestOption configures a single request.
type RequestOption func(*RequestOptions)

// ResponseErrorHandler inspects a response and turns provider-specific
// error payloads into errors. A nil return means the response is fine.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithResponseErrorHandler sets the provider error decoder.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *RequestOptions) {
		o.errorHandler = handler
	}
}

// Label is a key-value pair added to the request metrics.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a metric label.
func NewLabel(key, value string) *Label {
	return &Label{Key: key, Value: value}
}

// WithLabels adds metric labels, typically the endpoint name.
func WithLabels(labels ...*Label) RequestOption {
	return func(o *RequestOptions) {
		o.labels = labels
	}
}
