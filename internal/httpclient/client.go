package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultDialKeepAlive   = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	instrumentationName  = "httpclient"
	metricRequestCounter = "http_client_requests_total"
)

// Client builds and executes requests against one upstream API.
type Client interface {
	// NewRequest starts a request with the client defaults.
	NewRequest() Request
	// NewRequestWithOptions starts a request with per-request options.
	NewRequestWithOptions(opts ...RequestOption) Request
}

type instrumentedClient struct {
	httpClient     *http.Client
	requestCounter metric.Int64Counter
	options        *ClientOptions
}

// NewInstrumentedClient creates a client whose transport traces every
// request and whose request counter is labeled with the provider name.
func NewInstrumentedClient(opts ...ClientOption) (Client, error) {
	options := &ClientOptions{}
	for _, o := range opts {
		o(options)
	}
	if options.providerName == "" {
		options.providerName = "default"
	}
	if options.requestTimeout <= 0 {
		options.requestTimeout = defaultRequestTimeout
	}
	if options.tracer == nil {
		options.tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = options.requestTimeout
	if httpClient.Transport == nil {
		httpClient.Transport = &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}
	httpClient.Transport = otelhttp.NewTransport(
		httpClient.Transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	meter := otel.GetMeterProvider().Meter(
		instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", options.providerName)),
	)
	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("HTTP requests by provider and outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &instrumentedClient{
		httpClient:     httpClient,
		requestCounter: requestCounter,
		options:        options,
	}, nil
}

func (c *instrumentedClient) NewRequest() Request {
	return c.NewRequestWithOptions()
}

func (c *instrumentedClient) NewRequestWithOptions(opts ...RequestOption) Request {
	reqOpts := &RequestOptions{}
	for _, o := range opts {
		o(reqOpts)
	}

	headers := make(map[string]string, len(c.options.headers))
	for k, v := range c.options.headers {
		headers[k] = v
	}

	return &requestBuilder{
		client:         c.httpClient,
		requestCounter: c.requestCounter,
		providerName:   c.options.providerName,
		tracer:         c.options.tracer,
		baseURL:        c.options.baseURL,
		headers:        headers,
		errorHandler:   reqOpts.errorHandler,
		labels:         reqOpts.labels,
		logRequest:     c.options.logRequest,
		logResponse:    c.options.logResponse,
	}
}
