// Package coingecko implements the USD price feed against the
// CoinGecko simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tamago-labs/kaia-mcp/business/pricing/app"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/circuitbreaker"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/httpclient"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
	"github.com/tamago-labs/kaia-mcp/internal/ratelimit"
)

const (
	tracerName = "coingecko"
	meterName  = "coingecko"

	// BaseAPIURL is the public API host.
	BaseAPIURL = "https://api.coingecko.com"

	simplePriceEndpoint = "/api/v3/simple/price"

	httpTimeout = 10 * time.Second

	// The public API allows roughly 30 calls per minute.
	defaultRequestsPerMinute = 30
)

// Ensure Client implements the app port.
var _ app.PriceProvider = (*Client)(nil)

// clientMetrics holds OTEL metric instruments.
type clientMetrics struct {
	fetchesTotal metric.Int64Counter
	fetchErrors  metric.Int64Counter
	fetchLatency metric.Float64Histogram
}

// Client fetches USD prices from CoinGecko. Requests go through a rate
// limiter sized for the public API tier and a circuit breaker, so a
// broken feed degrades to cached and fallback prices instead of
// hammering the API.
type Client struct {
	client  httpclient.Client
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[map[string]decimal.Decimal]

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *clientMetrics
}

// NewClient creates a CoinGecko client from the feed configuration.
func NewClient(cfg config.PriceFeedConfig, log logger.LoggerInterface) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = httpTimeout
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("coingecko"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	breakerCfg := circuitbreaker.DefaultConfig("coingecko")
	breakerCfg.OnStateChange = func(name, from, to string) {
		log.Warn(context.Background(), "price feed breaker state changed",
			"breaker", name, "from", from, "to", to)
	}

	c := &Client{
		client:  client,
		limiter: ratelimit.New(rpm),
		breaker: circuitbreaker.New[map[string]decimal.Decimal](breakerCfg),
		logger:  log,
		tracer:  tracer,
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.fetchesTotal, err = meter.Int64Counter(
		"pricefeed_fetches_total",
		metric.WithDescription("Total price feed requests"),
	)
	if err != nil {
		return err
	}

	c.metrics.fetchErrors, err = meter.Int64Counter(
		"pricefeed_fetch_errors_total",
		metric.WithDescription("Total price feed request errors"),
	)
	if err != nil {
		return err
	}

	c.metrics.fetchLatency, err = meter.Float64Histogram(
		"pricefeed_fetch_latency_ms",
		metric.WithDescription("Price feed request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// simplePriceResponse is the /simple/price payload: coin id to a map
// of vs-currency to price. json.Number keeps full precision.
type simplePriceResponse map[string]map[string]json.Number

// FetchUSDPrices fetches USD prices for the given coin ids in one
// request. Ids the feed does not know are absent from the result.
func (c *Client) FetchUSDPrices(ctx context.Context, coinIDs []string) (map[string]decimal.Decimal, error) {
	ctx, span := c.tracer.Start(ctx, "coingecko.fetch_usd_prices",
		trace.WithAttributes(attribute.Int("coins", len(coinIDs))),
	)
	defer span.End()

	start := time.Now()
	c.metrics.fetchesTotal.Add(ctx, 1)

	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.fetchErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.New(apperror.CodePriceFeedError,
			apperror.WithCause(err),
			apperror.WithContext("rate limit wait cancelled"))
	}

	prices, err := c.breaker.Execute(func() (map[string]decimal.Decimal, error) {
		return c.fetch(ctx, coinIDs)
	})
	c.metrics.fetchLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		c.metrics.fetchErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		if circuitbreaker.IsOpen(err) {
			return nil, apperror.New(apperror.CodePriceFeedError,
				apperror.WithCause(err),
				apperror.WithContext("price feed circuit open"))
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("prices", len(prices)))
	span.SetStatus(codes.Ok, "prices fetched")

	return prices, nil
}

func (c *Client) fetch(ctx context.Context, coinIDs []string) (map[string]decimal.Decimal, error) {
	var result simplePriceResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(
			httpclient.NewLabel("endpoint", "simple_price"),
		),
		httpclient.WithResponseErrorHandler(coinGeckoErrorHandler),
	).
		SetQueryParam("ids", strings.Join(coinIDs, ",")).
		SetQueryParam("vs_currencies", "usd").
		SetResult(&result).
		Get(ctx, simplePriceEndpoint)

	if err != nil {
		return nil, apperror.New(apperror.CodePriceFeedError,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch prices"))
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodePriceFeedError,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
	}

	prices := make(map[string]decimal.Decimal, len(result))
	for id, quotes := range result {
		raw, ok := quotes["usd"]
		if !ok {
			c.logger.Debug(ctx, "no usd quote for coin", "coin", id)
			continue
		}
		price, err := decimal.NewFromString(raw.String())
		if err != nil {
			c.logger.Debug(ctx, "undecodable price", "coin", id, "value", raw.String())
			continue
		}
		prices[id] = price
	}

	c.logger.Debug(ctx, "fetched prices",
		"requested", len(coinIDs),
		"received", len(prices))

	return prices, nil
}

// CoinGeckoAPIError represents an error response from the CoinGecko API.
type CoinGeckoAPIError struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

func (e *CoinGeckoAPIError) Error() string {
	return fmt.Sprintf("coingecko API error %d: %s", e.Status.ErrorCode, e.Status.ErrorMessage)
}

// coinGeckoErrorHandler parses CoinGecko API error responses.
func coinGeckoErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr CoinGeckoAPIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Status.ErrorCode != 0 {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
