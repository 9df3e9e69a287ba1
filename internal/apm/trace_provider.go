// Package apm bootstraps the OTEL tracer provider. One backend is
// selected at startup; with telemetry disabled the no-op provider
// keeps instrumented code free of nil checks.
package apm

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Provider names a span export backend.
type Provider string

const (
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	ZipkinProvider   Provider = "zipkin"
	ConsoleProvider  Provider = "console"
	EmptyProvider    Provider = "empty"
)

// TraceProvider owns the span pipeline. Stop flushes buffered spans
// and shuts the pipeline down.
type TraceProvider interface {
	Stop() error
}

// TracerOptions is the assembled provider configuration.
type TracerOptions struct {
	exporter     sdktrace.SpanExporter
	serviceName  string
	providerName Provider
	useEmpty     bool
	err          error
}

// TracerOption configures the provider.
type TracerOption func(*TracerOptions)

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) TracerOption {
	return func(o *TracerOptions) {
		o.serviceName = name
	}
}

// WithProvider selects a backend by name. Unknown names fall back to
// the no-op provider so a typo in configuration cannot take the
// process down.
func WithProvider(provider Provider, endpoint string, headers map[string]string) TracerOption {
	switch provider {
	case OTLPGRPCProvider:
		return WithOTLPGRPC(endpoint, headers)
	case OTLPHTTPProvider:
		return WithOTLPHTTP(endpoint, headers)
	case ZipkinProvider:
		return WithZipkin(endpoint)
	case ConsoleProvider:
		return WithConsole()
	default:
		return withEmpty()
	}
}

// WithOTLPGRPC exports spans to an OTLP collector over gRPC. An empty
// endpoint defers to the OTEL_EXPORTER_OTLP_ENDPOINT environment.
func WithOTLPGRPC(endpoint string, headers map[string]string) TracerOption {
	return func(o *TracerOptions) {
		var opts []otlptracegrpc.Option
		if endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(endpoint))
		}
		if len(headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(headers))
		}

		exporter, err := otlptracegrpc.New(context.Background(), opts...)
		if err != nil {
			o.err = fmt.Errorf("failed to create otlp grpc exporter: %w", err)
			return
		}
		o.exporter = exporter
		o.providerName = OTLPGRPCProvider
	}
}

// WithOTLPHTTP exports spans to an OTLP collector over http/protobuf.
func WithOTLPHTTP(endpoint string, headers map[string]string) TracerOption {
	return func(o *TracerOptions) {
		var opts []otlptracehttp.Option
		if endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		}
		if len(headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(headers))
		}

		exporter, err := otlptracehttp.New(context.Background(), opts...)
		if err != nil {
			o.err = fmt.Errorf("failed to create otlp http exporter: %w", err)
			return
		}
		o.exporter = exporter
		o.providerName = OTLPHTTPProvider
	}
}

// WithZipkin exports spans to a Zipkin collector. An empty URL uses
// the default local collector.
func WithZipkin(url string) TracerOption {
	return func(o *TracerOptions) {
		exporter, err := zipkin.New(url)
		if err != nil {
			o.err = fmt.Errorf("failed to create zipkin exporter: %w", err)
			return
		}
		o.exporter = exporter
		o.providerName = ZipkinProvider
	}
}

// WithConsole pretty-prints spans to stderr. Stdout carries the MCP
// stream and must stay clean of anything but protocol frames.
func WithConsole() TracerOption {
	return func(o *TracerOptions) {
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(os.Stderr),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			o.err = fmt.Errorf("failed to create console exporter: %w", err)
			return
		}
		o.exporter = exporter
		o.providerName = ConsoleProvider
	}
}

func withEmpty() TracerOption {
	return func(o *TracerOptions) {
		o.useEmpty = true
		o.providerName = EmptyProvider
	}
}

// NewTraceProvider builds the tracer provider, installs it globally
// and wires W3C trace context propagation.
func NewTraceProvider(options ...TracerOption) (TraceProvider, error) {
	opts := &TracerOptions{}
	for _, opt := range options {
		opt(opts)
	}
	if opts.err != nil {
		return nil, opts.err
	}
	if opts.useEmpty || opts.exporter == nil {
		return NewEmptyTraceProvider(), nil
	}

	serviceName := opts.serviceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("otel.provider", string(opts.providerName)),
		))
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &traceProvider{tp: tp}, nil
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

func (p *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

type emptyTraceProvider struct{}

// NewEmptyTraceProvider returns the no-op provider used when telemetry
// is disabled.
func NewEmptyTraceProvider() TraceProvider {
	return emptyTraceProvider{}
}

func (emptyTraceProvider) Stop() error { return nil }
