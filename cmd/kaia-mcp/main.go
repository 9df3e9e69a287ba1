// Package main is the entry point for the Kaia MCP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"

	"github.com/tamago-labs/kaia-mcp/business/chain"
	chainDI "github.com/tamago-labs/kaia-mcp/business/chain/di"
	"github.com/tamago-labs/kaia-mcp/business/dex"
	dexDI "github.com/tamago-labs/kaia-mcp/business/dex/di"
	"github.com/tamago-labs/kaia-mcp/business/lending"
	lendingDI "github.com/tamago-labs/kaia-mcp/business/lending/di"
	"github.com/tamago-labs/kaia-mcp/business/pricing"
	pricingDI "github.com/tamago-labs/kaia-mcp/business/pricing/di"
	"github.com/tamago-labs/kaia-mcp/business/wallet"
	walletDI "github.com/tamago-labs/kaia-mcp/business/wallet/di"
	"github.com/tamago-labs/kaia-mcp/internal/apm"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/health"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
	"github.com/tamago-labs/kaia-mcp/internal/metrics"
	"github.com/tamago-labs/kaia-mcp/internal/monolith"
	"github.com/tamago-labs/kaia-mcp/pkg/tools"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const serverInstructions = `Tools for DeFi on the Kaia blockchain: DragonSwap swap quoting and
execution, KiloLend lending markets and positions, wallet balances, gas
and USD token prices. Read tools work without a wallet; transaction
tools (execute_swap, supply, withdraw, borrow, repay, enter_markets)
need KAIA_MCP_PRIVATE_KEY configured and report WALLET_READ_ONLY
otherwise. Amounts are human units of the named token.`

const shutdownTimeout = 5 * time.Second

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	useSSE := flag.Bool("sse", false, "Serve MCP over SSE instead of stdio")
	sseAddr := flag.String("sse-addr", ":8080", "Listen address for SSE mode")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("kaia-mcp %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *useSSE, *sseAddr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, useSSE bool, sseAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Stdout carries the MCP stream in stdio mode, so all logging goes
	// to stderr.
	log := newLogger(cfg)
	log.Info(ctx, "starting Kaia MCP server",
		"version", version,
		"environment", cfg.App.Environment,
		"chain_id", cfg.Kaia.ChainID,
	)

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	if cfg.Health.Enabled {
		healthServer := health.NewServer(cfg.Health.Port, cfg.App.Name, version, log)
		healthServer.RegisterCheck("kaia-rpc", func(ctx context.Context) (bool, string) {
			if _, err := mono.EthClient().BlockNumber(ctx); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
		healthServer.Start()
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			healthServer.Stop(shCtx)
		}()
	}

	// Modules in dependency order: chain provides the RPC plumbing,
	// pricing feeds lending's USD views, wallet signs for both
	// transaction-capable modules.
	modules := []monolith.Module{
		&chain.Module{},
		&pricing.Module{},
		&wallet.Module{},
		&lending.Module{},
		&dex.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	handler := tools.NewHandler(tools.Deps{
		Network: chainDI.GetChainService(mono.Services()),
		Wallet:  walletDI.GetWalletService(mono.Services()),
		Quotes:  dexDI.GetQuoteService(mono.Services()),
		Swaps:   dexDI.GetSwapExecutor(mono.Services()),
		Lending: lendingDI.GetLendingService(mono.Services()),
		Prices:  pricingDI.GetPriceService(mono.Services()),
		Logger:  log,
	})

	mcpServer := server.NewMCPServer(
		cfg.App.Name,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)
	handler.RegisterAll(mcpServer)

	if useSSE {
		return serveSSE(ctx, mcpServer, sseAddr, log)
	}
	return serveStdio(ctx, mcpServer, log)
}

func newLogger(cfg *config.Config) *logger.Logger {
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var traceIDFn logger.TraceIDFn
	if cfg.Telemetry.Enabled {
		traceIDFn = func(ctx context.Context) string {
			if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
				return sc.TraceID().String()
			}
			return ""
		}
	}

	return logger.New(os.Stderr, logLevel, cfg.App.Name, traceIDFn)
}

// setupTelemetry wires tracing and metrics when enabled and returns
// the teardown that flushes both.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	headers := metrics.ParseHeaders(cfg.Telemetry.OTLPHeaders)

	traceProvider, err := apm.NewTraceProvider(
		apm.WithServiceName(cfg.Telemetry.ServiceName),
		apm.WithProvider(apm.Provider(cfg.Telemetry.TracerProvider), cfg.Telemetry.OTLPEndpoint, headers),
	)
	if err != nil {
		log.Warn(ctx, "tracing disabled", "error", err)
		traceProvider = apm.NewEmptyTraceProvider()
	} else {
		log.Info(ctx, "tracing initialized",
			"provider", cfg.Telemetry.TracerProvider,
			"endpoint", cfg.Telemetry.OTLPEndpoint)
	}

	metricOpts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithPrometheus(),
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		metricOpts = append(metricOpts, metrics.WithOtelCollector(cfg.Telemetry.OTLPEndpoint, headers, false))
	}

	var promServer *http.Server
	metricProvider, err := metrics.NewMetricProvider(ctx, metricOpts...)
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	} else {
		promServer = metrics.ServePrometheusMetrics(cfg.Telemetry.PrometheusPort, log)
	}

	return func() {
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if promServer != nil {
			promServer.Shutdown(shCtx)
		}
		if metricProvider != nil {
			if err := metricProvider.Shutdown(shCtx); err != nil {
				log.Warn(shCtx, "metric provider shutdown failed", "error", err)
			}
		}
		if err := traceProvider.Stop(); err != nil {
			log.Warn(shCtx, "trace provider shutdown failed", "error", err)
		}
	}
}

func serveStdio(ctx context.Context, mcpServer *server.MCPServer, log *logger.Logger) error {
	log.Info(ctx, "serving MCP over stdio")

	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(stdlog.New(os.Stderr, "", stdlog.LstdFlags))

	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}

	log.Info(ctx, "shutting down")
	return nil
}

func serveSSE(ctx context.Context, mcpServer *server.MCPServer, addr string, log *logger.Logger) error {
	log.Info(ctx, "serving MCP over SSE", "addr", addr)

	sse := server.NewSSEServer(mcpServer)
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sse.Shutdown(shCtx)
	}()

	if err := sse.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("sse server: %w", err)
	}

	log.Info(ctx, "shutting down")
	return nil
}
