package metrics

import "strings"

// Provider names a metrics export path.
type Provider string

const (
	// PrometheusProvider exposes a pull endpoint for scraping.
	PrometheusProvider Provider = "prometheus"
	// OtelCollector pushes to an OTLP collector over gRPC.
	OtelCollector Provider = "otelCollector"
)

// Config is the assembled metric pipeline configuration.
type Config struct {
	ServiceName string
	Providers   []ProviderCfg
}

// ProviderCfg configures one export path.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// OptionFn mutates the pipeline configuration.
type OptionFn func(Config) Config

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) OptionFn {
	return func(cfg Config) Config {
		cfg.ServiceName = name
		return cfg
	}
}

// WithPrometheus adds a Prometheus pull exporter.
func WithPrometheus() OptionFn {
	return func(cfg Config) Config {
		cfg.Providers = append(cfg.Providers, ProviderCfg{Provider: PrometheusProvider})
		return cfg
	}
}

// WithOtelCollector adds an OTLP gRPC push exporter.
func WithOtelCollector(endpoint string, headers map[string]string, insecure bool) OptionFn {
	return func(cfg Config) Config {
		cfg.Providers = append(cfg.Providers, ProviderCfg{
			Provider: OtelCollector,
			Endpoint: endpoint,
			Headers:  headers,
			Insecure: insecure,
		})
		return cfg
	}
}

// ParseHeaders decodes the OTLP header list format "key=value,key=value"
// used by OTEL_EXPORTER_OTLP_HEADERS. Malformed pairs are skipped.
func ParseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}
