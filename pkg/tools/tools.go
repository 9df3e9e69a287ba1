// Package tools exposes the application services as MCP tools.
//
// Every tool returns a JSON text result with a success envelope:
// {"success":true,...} on success, {"success":false,"error":{...}} on
// failure. Service errors become tool results, never protocol errors,
// so the calling agent always sees the error code and message.
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	chaindomain "github.com/tamago-labs/kaia-mcp/business/chain/domain"
	dexapp "github.com/tamago-labs/kaia-mcp/business/dex/app"
	dexdomain "github.com/tamago-labs/kaia-mcp/business/dex/domain"
	lendapp "github.com/tamago-labs/kaia-mcp/business/lending/app"
	lenddomain "github.com/tamago-labs/kaia-mcp/business/lending/domain"
	pricingdomain "github.com/tamago-labs/kaia-mcp/business/pricing/domain"
	walletdomain "github.com/tamago-labs/kaia-mcp/business/wallet/domain"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

// NetworkService reads network-level chain state.
type NetworkService interface {
	ChainID() uint64
	NetworkStatus(ctx context.Context) (*chaindomain.NetworkStatus, error)
}

// WalletService reads the wallet account and arbitrary balances.
type WalletService interface {
	Status(ctx context.Context) (*walletdomain.Status, error)
	TokenBalances(ctx context.Context, addressRef string, include []string) ([]asset.Amount, error)
}

// QuoteService computes DragonSwap quotes and pool listings.
type QuoteService interface {
	GetQuote(ctx context.Context, req dexapp.QuoteRequest) (*dexdomain.SwapQuote, error)
	ListPools(ctx context.Context, tokenInRef, tokenOutRef string) ([]dexapp.PoolInfo, *asset.Asset, *asset.Asset, error)
	DefaultSlippageBps() int64
}

// SwapService executes DragonSwap swaps.
type SwapService interface {
	Execute(ctx context.Context, req dexapp.ExecuteRequest) (*dexapp.SwapResult, error)
}

// LendingService reads KiloLend markets and drives the write path.
type LendingService interface {
	Markets(ctx context.Context) ([]lendapp.MarketView, error)
	Position(ctx context.Context, addressRef string) (*lenddomain.Position, error)
	Supply(ctx context.Context, symbol, amount string) (*lendapp.TxResult, error)
	Withdraw(ctx context.Context, symbol, amount string) (*lendapp.TxResult, error)
	Borrow(ctx context.Context, symbol, amount string) (*lendapp.TxResult, error)
	Repay(ctx context.Context, symbol, amount string) (*lendapp.TxResult, error)
	EnterMarkets(ctx context.Context, symbols []string) (*lendapp.EnterResult, error)
}

// PriceService resolves USD token prices.
type PriceService interface {
	TokenPrices(ctx context.Context, symbols []string) ([]pricingdomain.TokenPrice, error)
}

// Deps are the services the tool handlers delegate to.
type Deps struct {
	Network NetworkService
	Wallet  WalletService
	Quotes  QuoteService
	Swaps   SwapService
	Lending LendingService
	Prices  PriceService
	Logger  logger.LoggerInterface
}

// Handler implements every MCP tool handler.
type Handler struct {
	network NetworkService
	wallet  WalletService
	quotes  QuoteService
	swaps   SwapService
	lending LendingService
	prices  PriceService
	logger  logger.LoggerInterface
}

// NewHandler creates a Handler from its service dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		network: d.Network,
		wallet:  d.Wallet,
		quotes:  d.Quotes,
		swaps:   d.Swaps,
		lending: d.Lending,
		prices:  d.Prices,
		logger:  d.Logger,
	}
}

// RegisterAll adds every tool to the MCP server.
func (h *Handler) RegisterAll(s *server.MCPServer) {
	h.registerWalletTools(s)
	h.registerDexTools(s)
	h.registerLendingTools(s)
	h.registerPriceTools(s)
	h.registerNetworkTools(s)
}
