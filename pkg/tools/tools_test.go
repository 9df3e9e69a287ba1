package tools

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	chaindomain "github.com/tamago-labs/kaia-mcp/business/chain/domain"
	dexapp "github.com/tamago-labs/kaia-mcp/business/dex/app"
	dexdomain "github.com/tamago-labs/kaia-mcp/business/dex/domain"
	lendapp "github.com/tamago-labs/kaia-mcp/business/lending/app"
	lenddomain "github.com/tamago-labs/kaia-mcp/business/lending/domain"
	pricingdomain "github.com/tamago-labs/kaia-mcp/business/pricing/domain"
	walletdomain "github.com/tamago-labs/kaia-mcp/business/wallet/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const testChainID = 8217

var (
	walletAddr = common.HexToAddress("0x00000000000000000000000000000000000000EE")
	usdtAddr   = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	cUSDTAddr  = common.HexToAddress("0x00000000000000000000000000000000000000D1")
	poolAddr   = common.HexToAddress("0x00000000000000000000000000000000000000F1")
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big.Int literal %q", s)
	}
	return v
}

func testUSDT() *asset.Asset {
	return asset.MustNewToken(testChainID, usdtAddr, "USDT", "Tether USD", 6)
}

func testKAIA() *asset.Asset {
	return asset.MustNewNative(testChainID, "KAIA", "Kaia", 18)
}

// --- fakes ---

type fakeNetwork struct {
	status *chaindomain.NetworkStatus
	err    error
}

func (f *fakeNetwork) ChainID() uint64 { return testChainID }

func (f *fakeNetwork) NetworkStatus(ctx context.Context) (*chaindomain.NetworkStatus, error) {
	return f.status, f.err
}

type fakeWallet struct {
	status      *walletdomain.Status
	balances    []asset.Amount
	err         error
	lastAddress string
	lastExtra   []string
}

func (f *fakeWallet) Status(ctx context.Context) (*walletdomain.Status, error) {
	return f.status, f.err
}

func (f *fakeWallet) TokenBalances(ctx context.Context, addressRef string, include []string) ([]asset.Amount, error) {
	f.lastAddress = addressRef
	f.lastExtra = include
	return f.balances, f.err
}

type fakeQuotes struct {
	quote    *dexdomain.SwapQuote
	pools    []dexapp.PoolInfo
	err      error
	lastReq  dexapp.QuoteRequest
	slippage int64
}

func (f *fakeQuotes) GetQuote(ctx context.Context, req dexapp.QuoteRequest) (*dexdomain.SwapQuote, error) {
	f.lastReq = req
	return f.quote, f.err
}

func (f *fakeQuotes) ListPools(ctx context.Context, tokenInRef, tokenOutRef string) ([]dexapp.PoolInfo, *asset.Asset, *asset.Asset, error) {
	return f.pools, testUSDT(), testKAIA(), f.err
}

func (f *fakeQuotes) DefaultSlippageBps() int64 { return f.slippage }

type fakeSwaps struct {
	result  *dexapp.SwapResult
	err     error
	lastReq dexapp.ExecuteRequest
}

func (f *fakeSwaps) Execute(ctx context.Context, req dexapp.ExecuteRequest) (*dexapp.SwapResult, error) {
	f.lastReq = req
	return f.result, f.err
}

type fakeLending struct {
	markets     []lendapp.MarketView
	position    *lenddomain.Position
	txResult    *lendapp.TxResult
	enterResult *lendapp.EnterResult
	err         error
	lastMarket  string
	lastAmount  string
	lastSymbols []string
}

func (f *fakeLending) Markets(ctx context.Context) ([]lendapp.MarketView, error) {
	return f.markets, f.err
}

func (f *fakeLending) Position(ctx context.Context, addressRef string) (*lenddomain.Position, error) {
	return f.position, f.err
}

func (f *fakeLending) write(market, amount string) (*lendapp.TxResult, error) {
	f.lastMarket = market
	f.lastAmount = amount
	return f.txResult, f.err
}

func (f *fakeLending) Supply(ctx context.Context, symbol, amount string) (*lendapp.TxResult, error) {
	return f.write(symbol, amount)
}

func (f *fakeLending) Withdraw(ctx context.Context, symbol, amount string) (*lendapp.TxResult, error) {
	return f.write(symbol, amount)
}

func (f *fakeLending) Borrow(ctx context.Context, symbol, amount string) (*lendapp.TxResult, error) {
	return f.write(symbol, amount)
}

func (f *fakeLending) Repay(ctx context.Context, symbol, amount string) (*lendapp.TxResult, error) {
	return f.write(symbol, amount)
}

func (f *fakeLending) EnterMarkets(ctx context.Context, symbols []string) (*lendapp.EnterResult, error) {
	f.lastSymbols = symbols
	return f.enterResult, f.err
}

type fakePrices struct {
	prices []pricingdomain.TokenPrice
	err    error
}

func (f *fakePrices) TokenPrices(ctx context.Context, symbols []string) ([]pricingdomain.TokenPrice, error) {
	return f.prices, f.err
}

// --- helpers ---

func newTestHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = &mockLogger{}
	}
	return NewHandler(deps)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if res == nil {
		t.Fatal("nil tool result")
	}
	if len(res.Content) != 1 {
		t.Fatalf("result has %d content blocks, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, text.Text)
	}
	return payload
}

func requireSuccess(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	payload := decodeResult(t, res)
	if payload["success"] != true {
		t.Fatalf("success = %v, want true: %v", payload["success"], payload)
	}
	if res.IsError {
		t.Fatal("IsError = true on a success result")
	}
	return payload
}

func requireFailure(t *testing.T, res *mcp.CallToolResult, code apperror.Code) map[string]any {
	t.Helper()
	payload := decodeResult(t, res)
	if payload["success"] != false {
		t.Fatalf("success = %v, want false: %v", payload["success"], payload)
	}
	if !res.IsError {
		t.Error("IsError = false on a failure result")
	}
	detail, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("error detail missing: %v", payload)
	}
	if detail["code"] != string(code) {
		t.Errorf("error code = %v, want %s", detail["code"], code)
	}
	return detail
}

// --- wallet tools ---

func TestWalletStatus_ReadOnly(t *testing.T) {
	h := newTestHandler(Deps{
		Network: &fakeNetwork{},
		Wallet: &fakeWallet{status: &walletdomain.Status{
			ReadOnly:      true,
			NativeBalance: asset.Zero(testKAIA()),
		}},
	})

	payload := requireSuccess(t, mustCall(t, h.handleWalletStatus, nil))

	if payload["readOnly"] != true {
		t.Error("readOnly = false, want true")
	}
	if payload["address"] != nil {
		t.Errorf("address = %v, want null", payload["address"])
	}
	if _, ok := payload["nativeBalance"]; ok {
		t.Error("nativeBalance should be absent in read-only mode")
	}
	if payload["network"] != "mainnet" {
		t.Errorf("network = %v, want mainnet", payload["network"])
	}
}

func TestWalletStatus_Active(t *testing.T) {
	kaia := testKAIA()
	h := newTestHandler(Deps{
		Network: &fakeNetwork{},
		Wallet: &fakeWallet{status: &walletdomain.Status{
			Address:       walletAddr,
			NativeBalance: asset.NewAmount(kaia, mustBig(t, "1500000000000000000")),
		}},
	})

	payload := requireSuccess(t, mustCall(t, h.handleWalletStatus, nil))

	if payload["address"] != walletAddr.Hex() {
		t.Errorf("address = %v, want %s", payload["address"], walletAddr.Hex())
	}
	balance, ok := payload["nativeBalance"].(map[string]any)
	if !ok {
		t.Fatal("nativeBalance missing")
	}
	if balance["amount"] != "1.5" {
		t.Errorf("nativeBalance.amount = %v, want 1.5", balance["amount"])
	}
	if balance["symbol"] != "KAIA" {
		t.Errorf("nativeBalance.symbol = %v, want KAIA", balance["symbol"])
	}
}

func TestTokenBalances_ForwardsAddressAndExtras(t *testing.T) {
	usdt := testUSDT()
	wallet := &fakeWallet{balances: []asset.Amount{
		asset.NewAmount(testKAIA(), mustBig(t, "1000000000000000000")),
		asset.NewAmount(usdt, big.NewInt(250_000_000)),
	}}
	h := newTestHandler(Deps{Network: &fakeNetwork{}, Wallet: wallet})

	payload := requireSuccess(t, mustCall(t, h.handleTokenBalances, map[string]any{
		"address": walletAddr.Hex(),
		"tokens":  "BORA, 0x00000000000000000000000000000000000000C1",
	}))

	if wallet.lastAddress != walletAddr.Hex() {
		t.Errorf("address forwarded = %q, want %q", wallet.lastAddress, walletAddr.Hex())
	}
	if len(wallet.lastExtra) != 2 || wallet.lastExtra[0] != "BORA" {
		t.Errorf("extras forwarded = %v, want [BORA 0x...C1]", wallet.lastExtra)
	}
	if payload["count"] != float64(2) {
		t.Errorf("count = %v, want 2", payload["count"])
	}

	rows := payload["balances"].([]any)
	first := rows[0].(map[string]any)
	if _, ok := first["address"]; ok {
		t.Error("native row should have no address")
	}
	second := rows[1].(map[string]any)
	if second["address"] != usdtAddr.Hex() {
		t.Errorf("token row address = %v, want %s", second["address"], usdtAddr.Hex())
	}
}

// --- dex tools ---

func testQuote(t *testing.T) *dexdomain.SwapQuote {
	usdt := testUSDT()
	kaia := testKAIA()
	return &dexdomain.SwapQuote{
		TokenIn:            usdt,
		TokenOut:           kaia,
		AmountIn:           asset.NewAmount(usdt, big.NewInt(100_000_000)),
		AmountOut:          asset.NewAmount(kaia, mustBig(t, "650000000000000000000")),
		AmountOutMinimum:   asset.NewAmount(kaia, mustBig(t, "646750000000000000000")),
		FeeTierUsed:        dexdomain.FeeTier030,
		PoolAddress:        poolAddr,
		PriceImpactPercent: 0.42,
		LiquidityScore:     87.5,
		SlippageBps:        50,
		ExecutionPrice:     decimal.RequireFromString("6.5"),
	}
}

func TestSwapQuote_DefaultsSlippage(t *testing.T) {
	quotes := &fakeQuotes{quote: testQuote(t), slippage: 50}
	h := newTestHandler(Deps{Quotes: quotes})

	payload := requireSuccess(t, mustCall(t, h.handleSwapQuote, map[string]any{
		"tokenIn":  "USDT",
		"tokenOut": "KAIA",
		"amountIn": "100",
	}))

	if quotes.lastReq.SlippageBps != 50 {
		t.Errorf("SlippageBps = %d, want default 50", quotes.lastReq.SlippageBps)
	}

	quote := payload["quote"].(map[string]any)
	out := quote["amountOut"].(map[string]any)
	if out["amount"] != "650" {
		t.Errorf("amountOut.amount = %v, want 650", out["amount"])
	}
	if quote["feeTier"] != float64(3000) {
		t.Errorf("feeTier = %v, want 3000", quote["feeTier"])
	}
	if quote["pool"] != poolAddr.Hex() {
		t.Errorf("pool = %v, want %s", quote["pool"], poolAddr.Hex())
	}
}

func TestSwapQuote_ExplicitSlippage(t *testing.T) {
	quotes := &fakeQuotes{quote: testQuote(t), slippage: 50}
	h := newTestHandler(Deps{Quotes: quotes})

	requireSuccess(t, mustCall(t, h.handleSwapQuote, map[string]any{
		"tokenIn":     "USDT",
		"tokenOut":    "KAIA",
		"amountIn":    "100",
		"slippageBps": float64(100),
	}))

	if quotes.lastReq.SlippageBps != 100 {
		t.Errorf("SlippageBps = %d, want 100", quotes.lastReq.SlippageBps)
	}
}

func TestSwapQuote_MissingArgumentRejected(t *testing.T) {
	h := newTestHandler(Deps{Quotes: &fakeQuotes{quote: testQuote(t)}})

	requireFailure(t, mustCall(t, h.handleSwapQuote, map[string]any{
		"tokenOut": "KAIA",
		"amountIn": "100",
	}), apperror.CodeInvalidInput)
}

func TestSwapQuote_ServiceErrorBecomesEnvelope(t *testing.T) {
	h := newTestHandler(Deps{Quotes: &fakeQuotes{
		err:      apperror.New(apperror.CodeNoPool, apperror.WithMessage("no available pools for USDT/KAIA")),
		slippage: 50,
	}})

	detail := requireFailure(t, mustCall(t, h.handleSwapQuote, map[string]any{
		"tokenIn":  "USDT",
		"tokenOut": "KAIA",
		"amountIn": "100",
	}), apperror.CodeNoPool)

	if detail["message"] != "no available pools for USDT/KAIA" {
		t.Errorf("message = %v", detail["message"])
	}
}

func TestExecuteSwap_RendersTransaction(t *testing.T) {
	deadline := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	swaps := &fakeSwaps{result: &dexapp.SwapResult{
		Quote:          testQuote(t),
		TxHash:         common.HexToHash("0xbbbb"),
		ApprovalTxHash: common.HexToHash("0xaaaa"),
		Recipient:      walletAddr,
		Deadline:       deadline,
	}}
	h := newTestHandler(Deps{Quotes: &fakeQuotes{slippage: 50}, Swaps: swaps})

	payload := requireSuccess(t, mustCall(t, h.handleExecuteSwap, map[string]any{
		"tokenIn":         "USDT",
		"tokenOut":        "KAIA",
		"amountIn":        "100",
		"deadlineMinutes": float64(10),
	}))

	if swaps.lastReq.DeadlineMinutes != 10 {
		t.Errorf("DeadlineMinutes = %d, want 10", swaps.lastReq.DeadlineMinutes)
	}
	if payload["txHash"] != common.HexToHash("0xbbbb").Hex() {
		t.Errorf("txHash = %v", payload["txHash"])
	}
	if payload["approvalTxHash"] != common.HexToHash("0xaaaa").Hex() {
		t.Errorf("approvalTxHash = %v", payload["approvalTxHash"])
	}
	if payload["deadline"] != "2026-08-25T12:00:00Z" {
		t.Errorf("deadline = %v", payload["deadline"])
	}
}

func TestExecuteSwap_NoApprovalOmitsHash(t *testing.T) {
	swaps := &fakeSwaps{result: &dexapp.SwapResult{
		Quote:     testQuote(t),
		TxHash:    common.HexToHash("0xbbbb"),
		Recipient: walletAddr,
		Deadline:  time.Now(),
	}}
	h := newTestHandler(Deps{Quotes: &fakeQuotes{slippage: 50}, Swaps: swaps})

	payload := requireSuccess(t, mustCall(t, h.handleExecuteSwap, map[string]any{
		"tokenIn":  "KAIA",
		"tokenOut": "USDT",
		"amountIn": "10",
	}))

	if _, ok := payload["approvalTxHash"]; ok {
		t.Error("approvalTxHash should be absent when no approval was sent")
	}
}

func TestListPools_RendersRows(t *testing.T) {
	quotes := &fakeQuotes{pools: []dexapp.PoolInfo{{
		FeeTier:         dexdomain.FeeTier005,
		PoolAddress:     poolAddr,
		Liquidity:       "123456789",
		PriceToken1Per0: decimal.RequireFromString("6.5"),
		Tick:            -12345,
		Token0:          usdtAddr,
		Token1:          common.HexToAddress("0x00000000000000000000000000000000000000B2"),
	}}}
	h := newTestHandler(Deps{Quotes: quotes})

	payload := requireSuccess(t, mustCall(t, h.handleListPools, map[string]any{
		"tokenIn":  "USDT",
		"tokenOut": "KAIA",
	}))

	pools := payload["pools"].([]any)
	if len(pools) != 1 {
		t.Fatalf("pools = %d rows, want 1", len(pools))
	}
	row := pools[0].(map[string]any)
	if row["feeTier"] != float64(500) {
		t.Errorf("feeTier = %v, want 500", row["feeTier"])
	}
	if row["feePercent"] != 0.05 {
		t.Errorf("feePercent = %v, want 0.05", row["feePercent"])
	}
	if row["liquidity"] != "123456789" {
		t.Errorf("liquidity = %v", row["liquidity"])
	}
}

// --- lending tools ---

func testMarketView(t *testing.T) lendapp.MarketView {
	usdt := testUSDT()
	ref := lenddomain.MarketRef{Symbol: "USDT", CToken: cUSDTAddr, Under: usdt}
	return lendapp.MarketView{
		Market: &lenddomain.Market{
			Ref:                ref,
			ExchangeRate:       mustBig(t, "21000000000000000"),
			SupplyRatePerBlock: big.NewInt(1157407407),
			BorrowRatePerBlock: big.NewInt(2314814814),
			Cash:               big.NewInt(700_000_000),
			TotalBorrows:       big.NewInt(400_000_000),
			TotalReserves:      big.NewInt(100_000_000),
			TotalSupply:        mustBig(t, "47619047619"),
			CollateralFactor:   mustBig(t, "800000000000000000"),
		},
		SupplyAPY:       3.72,
		BorrowAPY:       7.58,
		Utilization:     40,
		PriceUSD:        decimal.NewFromInt(1),
		TotalSupplyUSD:  decimal.NewFromInt(1000),
		TotalBorrowsUSD: decimal.NewFromInt(400),
	}
}

func TestMarketData_RendersMarkets(t *testing.T) {
	h := newTestHandler(Deps{Lending: &fakeLending{markets: []lendapp.MarketView{testMarketView(t)}}})

	payload := requireSuccess(t, mustCall(t, h.handleMarketData, nil))

	markets := payload["markets"].([]any)
	if len(markets) != 1 {
		t.Fatalf("markets = %d rows, want 1", len(markets))
	}
	row := markets[0].(map[string]any)
	if row["symbol"] != "USDT" {
		t.Errorf("symbol = %v, want USDT", row["symbol"])
	}
	if row["underlying"] != usdtAddr.Hex() {
		t.Errorf("underlying = %v, want %s", row["underlying"], usdtAddr.Hex())
	}
	if row["supplyApyPercent"] != 3.72 {
		t.Errorf("supplyApyPercent = %v, want 3.72", row["supplyApyPercent"])
	}
	if row["collateralFactor"] != 0.8 {
		t.Errorf("collateralFactor = %v, want 0.8", row["collateralFactor"])
	}
	cash := row["cash"].(map[string]any)
	if cash["amount"] != "700" {
		t.Errorf("cash.amount = %v, want 700", cash["amount"])
	}
}

func TestAccountPosition_HealthFactorWithDebt(t *testing.T) {
	usdt := testUSDT()
	h := newTestHandler(Deps{Lending: &fakeLending{position: &lenddomain.Position{
		Address: walletAddr,
		Entries: []lenddomain.PositionEntry{{
			Market:      lenddomain.MarketRef{Symbol: "USDT", CToken: cUSDTAddr, Under: usdt},
			Supplied:    asset.NewAmount(usdt, big.NewInt(1_000_000_000)),
			Borrowed:    asset.NewAmount(usdt, big.NewInt(100_000_000)),
			SuppliedUSD: decimal.NewFromInt(1000),
			BorrowedUSD: decimal.NewFromInt(100),
			Collateral:  true,
		}},
		LiquidityUSD:     decimal.NewFromInt(700),
		TotalSuppliedUSD: decimal.NewFromInt(1000),
		TotalBorrowedUSD: decimal.NewFromInt(100),
		HealthFactor:     8,
		HasBorrows:       true,
	}}})

	payload := requireSuccess(t, mustCall(t, h.handleAccountPosition, nil))

	if payload["healthFactor"] != float64(8) {
		t.Errorf("healthFactor = %v, want 8", payload["healthFactor"])
	}
	entries := payload["entries"].([]any)
	entry := entries[0].(map[string]any)
	if entry["collateral"] != true {
		t.Error("collateral = false, want true")
	}
}

func TestAccountPosition_NoDebtOmitsHealthFactor(t *testing.T) {
	h := newTestHandler(Deps{Lending: &fakeLending{position: &lenddomain.Position{
		Address:    walletAddr,
		HasBorrows: false,
	}}})

	payload := requireSuccess(t, mustCall(t, h.handleAccountPosition, nil))

	if _, ok := payload["healthFactor"]; ok {
		t.Error("healthFactor should be absent without debt")
	}
	if payload["hasBorrows"] != false {
		t.Errorf("hasBorrows = %v, want false", payload["hasBorrows"])
	}
}

func TestSupply_RendersTxResult(t *testing.T) {
	usdt := testUSDT()
	lending := &fakeLending{txResult: &lendapp.TxResult{
		Market:         lenddomain.MarketRef{Symbol: "USDT", CToken: cUSDTAddr, Under: usdt},
		Amount:         asset.NewAmount(usdt, big.NewInt(250_000_000)),
		TxHash:         common.HexToHash("0xbbbb"),
		ApprovalTxHash: common.HexToHash("0xaaaa"),
	}}
	h := newTestHandler(Deps{Lending: lending})
	handler := h.lendingWrite("supply", lending.Supply)

	payload := requireSuccess(t, mustCall(t, handler, map[string]any{
		"market": "usdt",
		"amount": "250",
	}))

	if lending.lastMarket != "usdt" || lending.lastAmount != "250" {
		t.Errorf("forwarded (%q, %q), want (usdt, 250)", lending.lastMarket, lending.lastAmount)
	}
	if payload["operation"] != "supply" {
		t.Errorf("operation = %v, want supply", payload["operation"])
	}
	amount := payload["amount"].(map[string]any)
	if amount["amount"] != "250" {
		t.Errorf("amount = %v, want 250", amount["amount"])
	}
	if payload["approvalTxHash"] != common.HexToHash("0xaaaa").Hex() {
		t.Errorf("approvalTxHash = %v", payload["approvalTxHash"])
	}
}

func TestLendingWrite_ServiceErrorBecomesEnvelope(t *testing.T) {
	lending := &fakeLending{err: apperror.New(apperror.CodeMarketNotFound,
		apperror.WithMessage("unknown market \"DOGE\""))}
	h := newTestHandler(Deps{Lending: lending})
	handler := h.lendingWrite("borrow", lending.Borrow)

	requireFailure(t, mustCall(t, handler, map[string]any{
		"market": "DOGE",
		"amount": "1",
	}), apperror.CodeMarketNotFound)
}

func TestEnterMarkets_SplitsSymbolList(t *testing.T) {
	usdt := testUSDT()
	kaia := testKAIA()
	lending := &fakeLending{enterResult: &lendapp.EnterResult{
		Markets: []lenddomain.MarketRef{
			{Symbol: "USDT", CToken: cUSDTAddr, Under: usdt},
			{Symbol: "KAIA", Under: kaia, IsNative: true},
		},
		TxHash: common.HexToHash("0xbbbb"),
	}}
	h := newTestHandler(Deps{Lending: lending})

	payload := requireSuccess(t, mustCall(t, h.handleEnterMarkets, map[string]any{
		"markets": "USDT, KAIA",
	}))

	if len(lending.lastSymbols) != 2 || lending.lastSymbols[1] != "KAIA" {
		t.Errorf("symbols forwarded = %v, want [USDT KAIA]", lending.lastSymbols)
	}
	markets := payload["markets"].([]any)
	if len(markets) != 2 || markets[0] != "USDT" {
		t.Errorf("markets = %v, want [USDT KAIA]", markets)
	}
}

// --- price and network tools ---

func TestTokenPrices_RendersRows(t *testing.T) {
	fetched := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)
	h := newTestHandler(Deps{Prices: &fakePrices{prices: []pricingdomain.TokenPrice{
		{Symbol: "KAIA", PriceUSD: decimal.RequireFromString("0.16"), Source: pricingdomain.SourceLive, FetchedAt: fetched},
		{Symbol: "SIX", PriceUSD: decimal.RequireFromString("0.02"), Source: pricingdomain.SourceFallback, Stale: true, FetchedAt: fetched},
	}}})

	payload := requireSuccess(t, mustCall(t, h.handleTokenPrices, map[string]any{
		"symbols": "KAIA,SIX",
	}))

	rows := payload["prices"].([]any)
	if len(rows) != 2 {
		t.Fatalf("prices = %d rows, want 2", len(rows))
	}
	live := rows[0].(map[string]any)
	if live["source"] != "live" || live["stale"] != false {
		t.Errorf("live row = %v", live)
	}
	fallback := rows[1].(map[string]any)
	if fallback["source"] != "fallback" || fallback["stale"] != true {
		t.Errorf("fallback row = %v", fallback)
	}
	if fallback["priceUsd"] != "0.02" {
		t.Errorf("priceUsd = %v, want 0.02", fallback["priceUsd"])
	}
}

func TestNetworkInfo_RendersStatus(t *testing.T) {
	h := newTestHandler(Deps{Network: &fakeNetwork{status: &chaindomain.NetworkStatus{
		ChainID:     testChainID,
		BlockNumber: 123456,
		GasPrice:    chaindomain.NewGasPrice(big.NewInt(27_500_000_000)),
	}}})

	payload := requireSuccess(t, mustCall(t, h.handleNetworkInfo, nil))

	if payload["chainId"] != float64(testChainID) {
		t.Errorf("chainId = %v, want %d", payload["chainId"], testChainID)
	}
	if payload["network"] != "mainnet" {
		t.Errorf("network = %v, want mainnet", payload["network"])
	}
	if payload["blockNumber"] != float64(123456) {
		t.Errorf("blockNumber = %v, want 123456", payload["blockNumber"])
	}
	gas := payload["gasPrice"].(map[string]any)
	if gas["kei"] != "27500000000" {
		t.Errorf("gasPrice.kei = %v", gas["kei"])
	}
	if gas["ston"] != 27.5 {
		t.Errorf("gasPrice.ston = %v, want 27.5", gas["ston"])
	}
}

// mustCall invokes a handler and fails the test on a protocol error,
// which no handler is allowed to return.
func mustCall(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := handler(context.Background(), callRequest(args))
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	return res
}
