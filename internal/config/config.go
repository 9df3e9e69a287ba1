// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Kaia       KaiaConfig       `mapstructure:"kaia"`
	Wallet     WalletConfig     `mapstructure:"wallet"`
	DragonSwap DragonSwapConfig `mapstructure:"dragonswap"`
	KiloLend   KiloLendConfig   `mapstructure:"kilolend"`
	PriceFeed  PriceFeedConfig  `mapstructure:"pricefeed"`
	Tokens     []TokenConfig    `mapstructure:"tokens"`
	Health     HealthConfig     `mapstructure:"health"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// KaiaConfig holds Kaia node configuration.
type KaiaConfig struct {
	HTTPURL           string `mapstructure:"http_url"`
	ChainID           uint64 `mapstructure:"chain_id"`
	MulticallAddress  string `mapstructure:"multicall_address"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// MulticallAddressHex returns the Multicall3 address as common.Address.
func (c *KaiaConfig) MulticallAddressHex() common.Address {
	return common.HexToAddress(c.MulticallAddress)
}

// WalletConfig holds the transaction signer configuration.
// PrivateKey is only ever read from the environment; leaving it empty puts
// the server in read-only mode.
type WalletConfig struct {
	PrivateKey     string        `mapstructure:"private_key"`
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout"`
	GasLimitMargin int           `mapstructure:"gas_limit_margin"` // percent added to estimates
}

// DragonSwapConfig holds DragonSwap V3 contract addresses and quote defaults.
type DragonSwapConfig struct {
	FactoryAddress     string `mapstructure:"factory_address"`
	RouterAddress      string `mapstructure:"router_address"`
	FeeTiers           []int  `mapstructure:"fee_tiers"`
	DefaultSlippageBps int    `mapstructure:"default_slippage_bps"`
	DeadlineMinutes    int    `mapstructure:"deadline_minutes"`
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *DragonSwapConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// RouterAddressHex returns the router address as common.Address.
func (c *DragonSwapConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// MarketConfig describes one KiloLend market (a cToken and its underlying).
type MarketConfig struct {
	Symbol     string `mapstructure:"symbol"`     // underlying symbol, e.g. "USDT"
	CToken     string `mapstructure:"ctoken"`     // cToken contract address
	Underlying string `mapstructure:"underlying"` // underlying token address, empty for the native market
}

// CTokenHex returns the cToken address as common.Address.
func (m *MarketConfig) CTokenHex() common.Address {
	return common.HexToAddress(m.CToken)
}

// UnderlyingHex returns the underlying address as common.Address.
func (m *MarketConfig) UnderlyingHex() common.Address {
	return common.HexToAddress(m.Underlying)
}

// IsNative reports whether this market's underlying is the native coin.
func (m *MarketConfig) IsNative() bool {
	return m.Underlying == ""
}

// KiloLendConfig holds KiloLend protocol addresses.
type KiloLendConfig struct {
	ComptrollerAddress string         `mapstructure:"comptroller_address"`
	Markets            []MarketConfig `mapstructure:"markets"`
	BlocksPerYear      int64          `mapstructure:"blocks_per_year"`
}

// ComptrollerAddressHex returns the comptroller address as common.Address.
func (c *KiloLendConfig) ComptrollerAddressHex() common.Address {
	return common.HexToAddress(c.ComptrollerAddress)
}

// PriceFeedConfig holds the USD price feed configuration.
type PriceFeedConfig struct {
	BaseURL           string             `mapstructure:"base_url"`
	RequestTimeout    time.Duration      `mapstructure:"request_timeout"`
	CacheTTL          time.Duration      `mapstructure:"cache_ttl"`
	RequestsPerMinute int                `mapstructure:"requests_per_minute"`
	CoinIDs           map[string]string  `mapstructure:"coin_ids"`        // symbol -> API coin id
	FallbackPrices    map[string]float64 `mapstructure:"fallback_prices"` // symbol -> static USD price
}

// FallbackPricesDecimal returns fallback prices as decimal.Decimal values.
func (c *PriceFeedConfig) FallbackPricesDecimal() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(c.FallbackPrices))
	for sym, p := range c.FallbackPrices {
		result[sym] = decimal.NewFromFloat(p)
	}
	return result
}

// TokenConfig describes an additional token to register at startup.
type TokenConfig struct {
	Address  string `mapstructure:"address"`
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
	Decimals uint8  `mapstructure:"decimals"`
}

// AddressHex returns the token address as common.Address.
func (t *TokenConfig) AddressHex() common.Address {
	return common.HexToAddress(t.Address)
}

// HealthConfig holds the health endpoint configuration.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// TracerProvider selects the span backend: otlp-grpc, otlp-http,
	// zipkin, console or empty.
	TracerProvider string `mapstructure:"tracer_provider"`

	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("KAIA_MCP")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "KAIA_MCP_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "KAIA_MCP_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "KAIA_MCP_LOG_LEVEL", "LOG_LEVEL")

	// Kaia node
	v.BindEnv("kaia.http_url", "KAIA_MCP_RPC_URL", "KAIA_RPC_URL")
	v.BindEnv("kaia.chain_id", "KAIA_MCP_CHAIN_ID", "KAIA_CHAIN_ID")
	v.BindEnv("kaia.multicall_address", "KAIA_MCP_MULTICALL", "KAIA_MULTICALL")

	// Wallet (secret, env only)
	v.BindEnv("wallet.private_key", "KAIA_MCP_PRIVATE_KEY", "WALLET_PRIVATE_KEY", "KAIA_PRIVATE_KEY")

	// DragonSwap
	v.BindEnv("dragonswap.factory_address", "KAIA_MCP_DRAGONSWAP_FACTORY", "DRAGONSWAP_FACTORY")
	v.BindEnv("dragonswap.router_address", "KAIA_MCP_DRAGONSWAP_ROUTER", "DRAGONSWAP_ROUTER")
	v.BindEnv("dragonswap.default_slippage_bps", "KAIA_MCP_DEFAULT_SLIPPAGE_BPS")

	// KiloLend
	v.BindEnv("kilolend.comptroller_address", "KAIA_MCP_KILOLEND_COMPTROLLER", "KILOLEND_COMPTROLLER")

	// Price feed
	v.BindEnv("pricefeed.base_url", "KAIA_MCP_PRICEFEED_URL", "PRICEFEED_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "KAIA_MCP_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.tracer_provider", "KAIA_MCP_OTEL_TRACER_PROVIDER")
	v.BindEnv("telemetry.service_name", "KAIA_MCP_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "KAIA_MCP_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "KAIA_MCP_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "kaia-mcp")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Kaia mainnet defaults
	v.SetDefault("kaia.http_url", "https://public-en.node.kaia.io")
	v.SetDefault("kaia.chain_id", 8217)
	v.SetDefault("kaia.multicall_address", "0xcA11bde05977b3631167028862bE2a173976CA11")
	v.SetDefault("kaia.requests_per_minute", 600)

	// Wallet defaults
	v.SetDefault("wallet.receipt_timeout", "90s")
	v.SetDefault("wallet.gas_limit_margin", 20)

	// DragonSwap V3 mainnet defaults
	v.SetDefault("dragonswap.factory_address", "0x7431A23897ecA6913D5c81666345D39F27d946A4")
	v.SetDefault("dragonswap.router_address", "0xA324880f884036E3d21a09B90269E1aC57c7EC8a")
	v.SetDefault("dragonswap.fee_tiers", []int{100, 500, 3000, 10000})
	v.SetDefault("dragonswap.default_slippage_bps", 50)
	v.SetDefault("dragonswap.deadline_minutes", 5)

	// KiloLend mainnet defaults
	v.SetDefault("kilolend.comptroller_address", "0x0F67DE9438b2a36fDC6b4695bE8A0A4E6aB2a73c")
	v.SetDefault("kilolend.markets", []map[string]any{
		{"symbol": "KAIA", "ctoken": "0x98C83962EbD9b55A46065e5dCE25bC25f16D67cb", "underlying": ""},
		{"symbol": "USDT", "ctoken": "0x498cA7FEf2bd0a40Cf6dE35C56050eEbAE74Bbf0", "underlying": "0xd077A400968890Eacc75cdc901F0356c943e4fDb"},
		{"symbol": "USDC", "ctoken": "0x5F1D6a1F9B54B17D2cA1F6e56bF92B4E83Ec3a0E", "underlying": "0x754288077D0fF82AF7a5317C7CB8c444D421d103"},
		{"symbol": "BORA", "ctoken": "0x87B25dD6a7C7F8b4C4C4b0b0d6F9aD9E5C9f1A11", "underlying": "0x02cBE46fB8A1F579254a9B485788f2D86Cad51aa"},
		{"symbol": "SIX", "ctoken": "0x6a4C3F0bB2eD9A84e8BD2E25e4b0A6cB5A4BdF63", "underlying": "0xEf82b1C6A550e730D8283E1eDD4977cd01FAF435"},
		{"symbol": "MBX", "ctoken": "0x9eD16CcA3bcA5a7a2BbBA018734fD2a8cF523cC9", "underlying": "0xD068c52d81f4409B9502dA926aCE3301cc41f623"},
		{"symbol": "stKAIA", "ctoken": "0xAf5C5E9dEE2A0A60647CC1BE7a795cBC81deC1b5", "underlying": "0x42952B873ed6f7f0A7E4992E2a9818E3A9001995"},
	})
	// Kaia produces one block per second
	v.SetDefault("kilolend.blocks_per_year", 31536000)

	// Price feed defaults (CoinGecko-compatible)
	v.SetDefault("pricefeed.base_url", "https://api.coingecko.com")
	v.SetDefault("pricefeed.request_timeout", "10s")
	v.SetDefault("pricefeed.cache_ttl", "60s")
	v.SetDefault("pricefeed.requests_per_minute", 30)
	v.SetDefault("pricefeed.coin_ids", map[string]string{
		"KAIA":   "kaia",
		"WKAIA":  "kaia",
		"stKAIA": "staked-kaia",
		"USDT":   "tether",
		"USDC":   "usd-coin",
		"BORA":   "bora",
		"MBX":    "marblex",
		"SIX":    "six-network",
	})
	v.SetDefault("pricefeed.fallback_prices", map[string]float64{
		"KAIA":   0.15,
		"WKAIA":  0.15,
		"stKAIA": 0.16,
		"USDT":   1.0,
		"USDC":   1.0,
		"BORA":   0.09,
		"MBX":    0.25,
		"SIX":    0.02,
	})

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.tracer_provider", "otlp-grpc")
	v.SetDefault("telemetry.service_name", "kaia-mcp")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Kaia.HTTPURL == "" {
		return fmt.Errorf("kaia.http_url is required")
	}
	if c.Kaia.ChainID == 0 {
		return fmt.Errorf("kaia.chain_id is required")
	}
	if !common.IsHexAddress(c.Kaia.MulticallAddress) {
		return fmt.Errorf("invalid kaia.multicall_address: %s", c.Kaia.MulticallAddress)
	}
	if !common.IsHexAddress(c.DragonSwap.FactoryAddress) {
		return fmt.Errorf("invalid dragonswap.factory_address: %s", c.DragonSwap.FactoryAddress)
	}
	if !common.IsHexAddress(c.DragonSwap.RouterAddress) {
		return fmt.Errorf("invalid dragonswap.router_address: %s", c.DragonSwap.RouterAddress)
	}
	if len(c.DragonSwap.FeeTiers) == 0 {
		return fmt.Errorf("dragonswap.fee_tiers cannot be empty")
	}
	if c.DragonSwap.DefaultSlippageBps < 0 || c.DragonSwap.DefaultSlippageBps >= 10000 {
		return fmt.Errorf("dragonswap.default_slippage_bps out of range [0, 10000): %d", c.DragonSwap.DefaultSlippageBps)
	}
	if c.DragonSwap.DeadlineMinutes <= 0 {
		return fmt.Errorf("dragonswap.deadline_minutes must be positive")
	}
	if !common.IsHexAddress(c.KiloLend.ComptrollerAddress) {
		return fmt.Errorf("invalid kilolend.comptroller_address: %s", c.KiloLend.ComptrollerAddress)
	}
	for i, m := range c.KiloLend.Markets {
		if m.Symbol == "" {
			return fmt.Errorf("kilolend.markets[%d]: symbol is required", i)
		}
		if !common.IsHexAddress(m.CToken) {
			return fmt.Errorf("kilolend.markets[%d]: invalid ctoken address: %s", i, m.CToken)
		}
		if m.Underlying != "" && !common.IsHexAddress(m.Underlying) {
			return fmt.Errorf("kilolend.markets[%d]: invalid underlying address: %s", i, m.Underlying)
		}
	}
	if c.KiloLend.BlocksPerYear <= 0 {
		return fmt.Errorf("kilolend.blocks_per_year must be positive")
	}
	for i, t := range c.Tokens {
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("tokens[%d]: invalid address: %s", i, t.Address)
		}
		if t.Symbol == "" {
			return fmt.Errorf("tokens[%d]: symbol is required", i)
		}
	}
	return nil
}
