package kilolend

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	chainapp "github.com/tamago-labs/kaia-mcp/business/chain/app"
	chaindomain "github.com/tamago-labs/kaia-mcp/business/chain/domain"
	"github.com/tamago-labs/kaia-mcp/business/lending/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

var (
	comptrollerAddr = common.HexToAddress("0x00000000000000000000000000000000000000CE")
	cUSDTAddr       = common.HexToAddress("0x00000000000000000000000000000000000000D1")
	cKAIAAddr       = common.HexToAddress("0x00000000000000000000000000000000000000D2")
	usdtAddr        = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	accountAddr     = common.HexToAddress("0x00000000000000000000000000000000000000EE")
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

// marketFixture is an in-memory market the fake chain answers for.
type marketFixture struct {
	cToken           common.Address
	exchangeRate     *big.Int
	supplyRate       *big.Int
	borrowRate       *big.Int
	cash             *big.Int
	borrows          *big.Int
	reserves         *big.Int
	totalSupply      *big.Int
	listed           bool
	collateralFactor *big.Int

	snapErr     *big.Int
	snapCTokens *big.Int
	snapBorrow  *big.Int
	snapRate    *big.Int

	failMethod string // this cToken method reverts when set
}

// fakeChain answers cToken and comptroller calls with real ABI-encoded
// return data so the reader's decode path is exercised.
type fakeChain struct {
	t              *testing.T
	cTokenABI      abi.ABI
	comptrollerABI abi.ABI
	markets        map[common.Address]*marketFixture

	liqErr    *big.Int
	liquidity *big.Int
	shortfall *big.Int
	entered   []common.Address
}

var _ chainapp.ChainReader = (*fakeChain)(nil)

func newFakeChain(t *testing.T, fixtures ...*marketFixture) *fakeChain {
	t.Helper()

	cTokenABI, err := abi.JSON(strings.NewReader(CTokenABI))
	if err != nil {
		t.Fatalf("parse cToken ABI: %v", err)
	}
	comptrollerABI, err := abi.JSON(strings.NewReader(ComptrollerABI))
	if err != nil {
		t.Fatalf("parse comptroller ABI: %v", err)
	}

	fc := &fakeChain{
		t:              t,
		cTokenABI:      cTokenABI,
		comptrollerABI: comptrollerABI,
		markets:        make(map[common.Address]*marketFixture),
		liqErr:         big.NewInt(0),
		liquidity:      big.NewInt(0),
		shortfall:      big.NewInt(0),
	}
	for _, f := range fixtures {
		fc.markets[f.cToken] = f
	}
	return fc
}

func (fc *fakeChain) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	res := fc.dispatch(to, data)
	if !res.Success {
		return nil, apperror.New(apperror.CodeContractCallFailed)
	}
	return res.ReturnData, nil
}

func (fc *fakeChain) Multicall(ctx context.Context, calls []chaindomain.Call) ([]chaindomain.CallResult, error) {
	results := make([]chaindomain.CallResult, len(calls))
	for i, call := range calls {
		results[i] = fc.dispatch(call.Target, call.CallData)
	}
	return results, nil
}

func (fc *fakeChain) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	fc.t.Fatal("unexpected NativeBalance call")
	return nil, nil
}

func (fc *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	fc.t.Fatal("unexpected BlockNumber call")
	return 0, nil
}

func (fc *fakeChain) dispatch(to common.Address, data []byte) chaindomain.CallResult {
	if len(data) < 4 {
		return chaindomain.CallResult{Success: false}
	}
	selector := data[:4]

	if to == comptrollerAddr {
		return fc.dispatchComptroller(selector, data[4:])
	}

	market, ok := fc.markets[to]
	if !ok {
		return chaindomain.CallResult{Success: false}
	}

	for name, method := range fc.cTokenABI.Methods {
		if !bytes.Equal(selector, method.ID) {
			continue
		}
		if market.failMethod == name {
			return chaindomain.CallResult{Success: false}
		}

		var (
			ret []byte
			err error
		)
		switch name {
		case "exchangeRateStored":
			ret, err = method.Outputs.Pack(market.exchangeRate)
		case "supplyRatePerBlock":
			ret, err = method.Outputs.Pack(market.supplyRate)
		case "borrowRatePerBlock":
			ret, err = method.Outputs.Pack(market.borrowRate)
		case "getCash":
			ret, err = method.Outputs.Pack(market.cash)
		case "totalBorrows":
			ret, err = method.Outputs.Pack(market.borrows)
		case "totalReserves":
			ret, err = method.Outputs.Pack(market.reserves)
		case "totalSupply":
			ret, err = method.Outputs.Pack(market.totalSupply)
		case "getAccountSnapshot":
			ret, err = method.Outputs.Pack(market.snapErr, market.snapCTokens, market.snapBorrow, market.snapRate)
		default:
			fc.t.Fatalf("unexpected cToken method %s", name)
		}
		if err != nil {
			fc.t.Fatalf("pack %s result: %v", name, err)
		}
		return chaindomain.CallResult{Success: true, ReturnData: ret}
	}

	fc.t.Fatalf("unknown cToken selector %x", selector)
	return chaindomain.CallResult{}
}

func (fc *fakeChain) dispatchComptroller(selector, args []byte) chaindomain.CallResult {
	for name, method := range fc.comptrollerABI.Methods {
		if !bytes.Equal(selector, method.ID) {
			continue
		}

		var (
			ret []byte
			err error
		)
		switch name {
		case "markets":
			in, uerr := method.Inputs.Unpack(args)
			if uerr != nil {
				fc.t.Fatalf("unpack markets args: %v", uerr)
			}
			market, ok := fc.markets[in[0].(common.Address)]
			if !ok {
				ret, err = method.Outputs.Pack(false, big.NewInt(0), false)
				break
			}
			ret, err = method.Outputs.Pack(market.listed, market.collateralFactor, true)
		case "getAccountLiquidity":
			ret, err = method.Outputs.Pack(fc.liqErr, fc.liquidity, fc.shortfall)
		case "getAssetsIn":
			ret, err = method.Outputs.Pack(fc.entered)
		default:
			fc.t.Fatalf("unexpected comptroller method %s", name)
		}
		if err != nil {
			fc.t.Fatalf("pack %s result: %v", name, err)
		}
		return chaindomain.CallResult{Success: true, ReturnData: ret}
	}

	fc.t.Fatalf("unknown comptroller selector %x", selector)
	return chaindomain.CallResult{}
}

func testMarketRefs(t *testing.T) []domain.MarketRef {
	t.Helper()
	usdt := asset.MustNewToken(8217, usdtAddr, "USDT", "Tether USD", 6)
	kaia := asset.MustNewNative(8217, "KAIA", "Kaia", 18)
	return []domain.MarketRef{
		{Symbol: "USDT", CToken: cUSDTAddr, Under: usdt},
		{Symbol: "KAIA", CToken: cKAIAAddr, Under: kaia, IsNative: true},
	}
}

func usdtFixture(t *testing.T) *marketFixture {
	return &marketFixture{
		cToken:           cUSDTAddr,
		exchangeRate:     mustBig(t, "21000000000000000"), // 2.1e16, 6-decimal underlying
		supplyRate:       big.NewInt(1157407407),
		borrowRate:       big.NewInt(2314814814),
		cash:             big.NewInt(700_000_000),
		borrows:          big.NewInt(400_000_000),
		reserves:         big.NewInt(100_000_000),
		totalSupply:      big.NewInt(50_000_000_000),
		listed:           true,
		collateralFactor: mustBig(t, "800000000000000000"), // 0.8
		snapErr:          big.NewInt(0),
		snapCTokens:      big.NewInt(25_000_000_000),
		snapBorrow:       big.NewInt(150_000_000),
		snapRate:         mustBig(t, "21000000000000000"),
	}
}

func kaiaFixture(t *testing.T) *marketFixture {
	return &marketFixture{
		cToken:           cKAIAAddr,
		exchangeRate:     mustBig(t, "20000000000000000000000000000"), // 2e28, 18-decimal underlying
		supplyRate:       big.NewInt(500000000),
		borrowRate:       big.NewInt(900000000),
		cash:             mustBig(t, "1000000000000000000000"),
		borrows:          mustBig(t, "250000000000000000000"),
		reserves:         mustBig(t, "50000000000000000000"),
		totalSupply:      big.NewInt(6_000_000_000),
		listed:           true,
		collateralFactor: mustBig(t, "750000000000000000"), // 0.75
		snapErr:          big.NewInt(0),
		snapCTokens:      big.NewInt(0),
		snapBorrow:       big.NewInt(0),
		snapRate:         mustBig(t, "20000000000000000000000000000"),
	}
}

func newTestReader(t *testing.T, fc *fakeChain, refs []domain.MarketRef) *Reader {
	t.Helper()
	r, err := NewReader(fc, comptrollerAddr, refs, &mockLogger{})
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	return r
}

func TestMarketStates_ReadsAllMarkets(t *testing.T) {
	usdt := usdtFixture(t)
	kaia := kaiaFixture(t)
	refs := testMarketRefs(t)
	reader := newTestReader(t, newFakeChain(t, usdt, kaia), refs)

	markets, err := reader.MarketStates(context.Background())
	if err != nil {
		t.Fatalf("MarketStates() error = %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("MarketStates() returned %d markets, want 2", len(markets))
	}

	// Results follow the configured market order.
	m := markets[0]
	if m.Ref.Symbol != "USDT" {
		t.Fatalf("markets[0] = %s, want USDT", m.Ref.Symbol)
	}
	if m.ExchangeRate.Cmp(usdt.exchangeRate) != 0 {
		t.Errorf("ExchangeRate = %s, want %s", m.ExchangeRate, usdt.exchangeRate)
	}
	if m.SupplyRatePerBlock.Cmp(usdt.supplyRate) != 0 {
		t.Errorf("SupplyRatePerBlock = %s, want %s", m.SupplyRatePerBlock, usdt.supplyRate)
	}
	if m.BorrowRatePerBlock.Cmp(usdt.borrowRate) != 0 {
		t.Errorf("BorrowRatePerBlock = %s, want %s", m.BorrowRatePerBlock, usdt.borrowRate)
	}
	if m.Cash.Cmp(usdt.cash) != 0 {
		t.Errorf("Cash = %s, want %s", m.Cash, usdt.cash)
	}
	if m.TotalBorrows.Cmp(usdt.borrows) != 0 {
		t.Errorf("TotalBorrows = %s, want %s", m.TotalBorrows, usdt.borrows)
	}
	if m.TotalReserves.Cmp(usdt.reserves) != 0 {
		t.Errorf("TotalReserves = %s, want %s", m.TotalReserves, usdt.reserves)
	}
	if m.TotalSupply.Cmp(usdt.totalSupply) != 0 {
		t.Errorf("TotalSupply = %s, want %s", m.TotalSupply, usdt.totalSupply)
	}
	if m.CollateralFactor.Cmp(usdt.collateralFactor) != 0 {
		t.Errorf("CollateralFactor = %s, want %s", m.CollateralFactor, usdt.collateralFactor)
	}

	if markets[1].Ref.Symbol != "KAIA" {
		t.Fatalf("markets[1] = %s, want KAIA", markets[1].Ref.Symbol)
	}
	if markets[1].CollateralFactor.Cmp(kaia.collateralFactor) != 0 {
		t.Errorf("KAIA CollateralFactor = %s, want %s", markets[1].CollateralFactor, kaia.collateralFactor)
	}
}

func TestMarketStates_SkipsRevertedMarket(t *testing.T) {
	usdt := usdtFixture(t)
	usdt.failMethod = "getCash"
	kaia := kaiaFixture(t)
	reader := newTestReader(t, newFakeChain(t, usdt, kaia), testMarketRefs(t))

	markets, err := reader.MarketStates(context.Background())
	if err != nil {
		t.Fatalf("MarketStates() error = %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("MarketStates() returned %d markets, want 1", len(markets))
	}
	if markets[0].Ref.Symbol != "KAIA" {
		t.Errorf("surviving market = %s, want KAIA", markets[0].Ref.Symbol)
	}
}

func TestMarketStates_UnlistedMarketZeroFactor(t *testing.T) {
	usdt := usdtFixture(t)
	usdt.listed = false
	reader := newTestReader(t, newFakeChain(t, usdt, kaiaFixture(t)), testMarketRefs(t))

	markets, err := reader.MarketStates(context.Background())
	if err != nil {
		t.Fatalf("MarketStates() error = %v", err)
	}
	if markets[0].CollateralFactor.Sign() != 0 {
		t.Errorf("unlisted CollateralFactor = %s, want 0", markets[0].CollateralFactor)
	}
}

func TestAccountSnapshots_ReadsBalances(t *testing.T) {
	usdt := usdtFixture(t)
	reader := newTestReader(t, newFakeChain(t, usdt, kaiaFixture(t)), testMarketRefs(t))

	snaps, err := reader.AccountSnapshots(context.Background(), accountAddr)
	if err != nil {
		t.Fatalf("AccountSnapshots() error = %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("AccountSnapshots() returned %d snapshots, want 2", len(snaps))
	}

	snap := snaps[0]
	if snap.Market.Symbol != "USDT" {
		t.Fatalf("snaps[0] = %s, want USDT", snap.Market.Symbol)
	}
	if snap.CTokenBalance.Cmp(usdt.snapCTokens) != 0 {
		t.Errorf("CTokenBalance = %s, want %s", snap.CTokenBalance, usdt.snapCTokens)
	}
	if snap.BorrowBalance.Cmp(usdt.snapBorrow) != 0 {
		t.Errorf("BorrowBalance = %s, want %s", snap.BorrowBalance, usdt.snapBorrow)
	}
	if snap.ExchangeRate.Cmp(usdt.snapRate) != 0 {
		t.Errorf("ExchangeRate = %s, want %s", snap.ExchangeRate, usdt.snapRate)
	}
}

func TestAccountSnapshots_SkipsErrorCode(t *testing.T) {
	usdt := usdtFixture(t)
	usdt.snapErr = big.NewInt(13)
	reader := newTestReader(t, newFakeChain(t, usdt, kaiaFixture(t)), testMarketRefs(t))

	snaps, err := reader.AccountSnapshots(context.Background(), accountAddr)
	if err != nil {
		t.Fatalf("AccountSnapshots() error = %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("AccountSnapshots() returned %d snapshots, want 1", len(snaps))
	}
	if snaps[0].Market.Symbol != "KAIA" {
		t.Errorf("surviving snapshot = %s, want KAIA", snaps[0].Market.Symbol)
	}
}

func TestAccountLiquidity_Solvent(t *testing.T) {
	fc := newFakeChain(t, usdtFixture(t), kaiaFixture(t))
	fc.liquidity = mustBig(t, "1500000000000000000") // 1.5 USD
	reader := newTestReader(t, fc, testMarketRefs(t))

	liq, err := reader.AccountLiquidity(context.Background(), accountAddr)
	if err != nil {
		t.Fatalf("AccountLiquidity() error = %v", err)
	}
	if liq.Liquidity.Cmp(fc.liquidity) != 0 {
		t.Errorf("Liquidity = %s, want %s", liq.Liquidity, fc.liquidity)
	}
	if liq.Shortfall.Sign() != 0 {
		t.Errorf("Shortfall = %s, want 0", liq.Shortfall)
	}
}

func TestAccountLiquidity_ErrorCodeRejected(t *testing.T) {
	fc := newFakeChain(t, usdtFixture(t), kaiaFixture(t))
	fc.liqErr = big.NewInt(2)
	reader := newTestReader(t, fc, testMarketRefs(t))

	_, err := reader.AccountLiquidity(context.Background(), accountAddr)
	if err == nil {
		t.Fatal("AccountLiquidity() expected error, got nil")
	}
	if got := apperror.GetCode(err); got != apperror.CodeComptrollerRejected {
		t.Errorf("error code = %s, want %s", got, apperror.CodeComptrollerRejected)
	}
}

func TestEnteredMarkets_RoundTrip(t *testing.T) {
	fc := newFakeChain(t, usdtFixture(t), kaiaFixture(t))
	fc.entered = []common.Address{cUSDTAddr}
	reader := newTestReader(t, fc, testMarketRefs(t))

	entered, err := reader.EnteredMarkets(context.Background(), accountAddr)
	if err != nil {
		t.Fatalf("EnteredMarkets() error = %v", err)
	}
	if len(entered) != 1 || entered[0] != cUSDTAddr {
		t.Errorf("EnteredMarkets() = %v, want [%s]", entered, cUSDTAddr.Hex())
	}
}
