package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	chaindomain "github.com/tamago-labs/kaia-mcp/business/chain/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const testChainID = 8217

var (
	walletAddr  = common.HexToAddress("0x00000000000000000000000000000000000000EE")
	spenderAddr = common.HexToAddress("0x00000000000000000000000000000000000000DD")
	tokenAAddr  = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	tokenBAddr  = common.HexToAddress("0x00000000000000000000000000000000000000B1")
	customAddr  = common.HexToAddress("0x00000000000000000000000000000000000000C1")
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

type fakeSigner struct {
	addr        common.Address
	readOnly    bool
	submitErr   error
	submitCalls int
	lastTo      common.Address
	lastData    []byte
	lastValue   *big.Int
}

func (f *fakeSigner) Address() common.Address { return f.addr }
func (f *fakeSigner) IsReadOnly() bool        { return f.readOnly }

func (f *fakeSigner) SubmitAndConfirm(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	f.submitCalls++
	f.lastTo = to
	f.lastData = data
	f.lastValue = value
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return common.HexToHash("0xbbbb"), nil
}

type fakeERC20 struct {
	allowance      *big.Int
	balances       map[common.Address]*big.Int
	allowanceCalls int
	lastOwner      common.Address
}

func (f *fakeERC20) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if raw, ok := f.balances[token]; ok && raw != nil {
		return new(big.Int).Set(raw), nil
	}
	return nil, apperror.New(apperror.CodeContractCallFailed)
}

func (f *fakeERC20) BalancesOf(ctx context.Context, tokens []common.Address, owner common.Address) ([]*big.Int, error) {
	f.lastOwner = owner
	out := make([]*big.Int, len(tokens))
	for i, token := range tokens {
		if raw, ok := f.balances[token]; ok && raw != nil {
			out[i] = new(big.Int).Set(raw)
		}
	}
	return out, nil
}

func (f *fakeERC20) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	f.allowanceCalls++
	if f.allowance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeERC20) ApproveCalldata(spender common.Address, amount *big.Int) ([]byte, error) {
	return []byte{0x09, 0x5e, 0xa7, 0xb3}, nil
}

type fakeChainReader struct {
	t             *testing.T
	nativeBalance *big.Int
	nativeCalls   int
}

func (f *fakeChainReader) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	f.t.Fatal("unexpected Call")
	return nil, nil
}

func (f *fakeChainReader) Multicall(ctx context.Context, calls []chaindomain.Call) ([]chaindomain.CallResult, error) {
	f.t.Fatal("unexpected Multicall")
	return nil, nil
}

func (f *fakeChainReader) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	f.nativeCalls++
	return new(big.Int).Set(f.nativeBalance), nil
}

func (f *fakeChainReader) BlockNumber(ctx context.Context) (uint64, error) {
	f.t.Fatal("unexpected BlockNumber")
	return 0, nil
}

type fakeResolver struct {
	assets map[string]*asset.Asset
}

func (f *fakeResolver) Resolve(ctx context.Context, ref string, decimalsHint int) (*asset.Asset, error) {
	if a, ok := f.assets[ref]; ok {
		return a, nil
	}
	return nil, apperror.New(apperror.CodeInvalidToken,
		apperror.WithMessage("unknown token "+ref))
}

func testRegistry(t *testing.T) (*asset.Registry, *asset.Asset, *asset.Asset, *asset.Asset) {
	t.Helper()
	native := asset.MustNewNative(testChainID, "KAIA", "Kaia", 18)
	tokenA := asset.MustNewToken(testChainID, tokenAAddr, "AAA", "Token A", 18)
	tokenB := asset.MustNewToken(testChainID, tokenBAddr, "BBB", "Token B", 6)

	registry := asset.NewRegistry()
	registry.Register(native)
	registry.Register(tokenA)
	registry.Register(tokenB)
	return registry, native, tokenA, tokenB
}

func newTestService(t *testing.T, signer *fakeSigner, erc20 *fakeERC20, chain *fakeChainReader, resolver TokenResolver) *Service {
	t.Helper()
	registry, _, _, _ := testRegistry(t)
	if resolver == nil {
		resolver = &fakeResolver{}
	}
	return NewService(testChainID, signer, chain, erc20, registry, resolver, &mockLogger{})
}

func TestStatus_ReadOnlyWallet(t *testing.T) {
	chain := &fakeChainReader{t: t, nativeBalance: big.NewInt(999)}
	svc := newTestService(t, &fakeSigner{readOnly: true}, &fakeERC20{}, chain, nil)

	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if !status.ReadOnly {
		t.Error("ReadOnly = false, want true")
	}
	if status.Address != (common.Address{}) {
		t.Errorf("Address = %s, want zero address", status.Address.Hex())
	}
	if !status.NativeBalance.IsZero() {
		t.Errorf("NativeBalance = %s, want zero", status.NativeBalance.Raw())
	}
	if chain.nativeCalls != 0 {
		t.Errorf("native balance read %d times in read-only mode, want 0", chain.nativeCalls)
	}
}

func TestStatus_ReadsNativeBalance(t *testing.T) {
	chain := &fakeChainReader{t: t, nativeBalance: big.NewInt(5_000_000)}
	svc := newTestService(t, &fakeSigner{addr: walletAddr}, &fakeERC20{}, chain, nil)

	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if status.ReadOnly {
		t.Error("ReadOnly = true, want false")
	}
	if status.Address != walletAddr {
		t.Errorf("Address = %s, want %s", status.Address.Hex(), walletAddr.Hex())
	}
	if status.NativeBalance.Raw().Cmp(big.NewInt(5_000_000)) != 0 {
		t.Errorf("NativeBalance = %s, want 5000000", status.NativeBalance.Raw())
	}
	if status.NativeBalance.Asset().Symbol() != "KAIA" {
		t.Errorf("native symbol = %s, want KAIA", status.NativeBalance.Asset().Symbol())
	}
}

func TestTokenBalances_NativeFirstThenSortedTokens(t *testing.T) {
	chain := &fakeChainReader{t: t, nativeBalance: big.NewInt(7)}
	erc20 := &fakeERC20{balances: map[common.Address]*big.Int{
		tokenAAddr: big.NewInt(100),
		tokenBAddr: big.NewInt(200),
	}}
	svc := newTestService(t, &fakeSigner{addr: walletAddr}, erc20, chain, nil)

	balances, err := svc.TokenBalances(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("TokenBalances() error = %v", err)
	}

	if erc20.lastOwner != walletAddr {
		t.Errorf("balances read for %s, want wallet %s", erc20.lastOwner.Hex(), walletAddr.Hex())
	}

	want := []struct {
		symbol string
		raw    int64
	}{
		{"KAIA", 7},
		{"AAA", 100},
		{"BBB", 200},
	}
	if len(balances) != len(want) {
		t.Fatalf("TokenBalances() returned %d entries, want %d", len(balances), len(want))
	}
	for i, w := range want {
		if got := balances[i].Asset().Symbol(); got != w.symbol {
			t.Errorf("balances[%d].Symbol = %s, want %s", i, got, w.symbol)
		}
		if got := balances[i].Raw(); got.Cmp(big.NewInt(w.raw)) != 0 {
			t.Errorf("balances[%d].Raw = %s, want %d", i, got, w.raw)
		}
	}
}

func TestTokenBalances_IncludesResolvedExtras(t *testing.T) {
	custom := asset.MustNewToken(testChainID, customAddr, "CUST", "Custom Token", 18)
	resolver := &fakeResolver{assets: map[string]*asset.Asset{"CUST": custom}}

	chain := &fakeChainReader{t: t, nativeBalance: big.NewInt(1)}
	erc20 := &fakeERC20{balances: map[common.Address]*big.Int{
		tokenAAddr: big.NewInt(100),
		tokenBAddr: big.NewInt(200),
		customAddr: big.NewInt(300),
	}}
	svc := newTestService(t, &fakeSigner{addr: walletAddr}, erc20, chain, resolver)

	balances, err := svc.TokenBalances(context.Background(), "", []string{"CUST"})
	if err != nil {
		t.Fatalf("TokenBalances() error = %v", err)
	}

	if len(balances) != 4 {
		t.Fatalf("TokenBalances() returned %d entries, want 4", len(balances))
	}
	last := balances[len(balances)-1]
	if last.Asset().Symbol() != "CUST" || last.Raw().Cmp(big.NewInt(300)) != 0 {
		t.Errorf("last balance = %s %s, want CUST 300", last.Asset().Symbol(), last.Raw())
	}
}

func TestTokenBalances_SkipsUnreadableToken(t *testing.T) {
	chain := &fakeChainReader{t: t, nativeBalance: big.NewInt(1)}
	erc20 := &fakeERC20{balances: map[common.Address]*big.Int{
		tokenBAddr: big.NewInt(200),
		// tokenAAddr missing: its balanceOf fails
	}}
	svc := newTestService(t, &fakeSigner{addr: walletAddr}, erc20, chain, nil)

	balances, err := svc.TokenBalances(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("TokenBalances() error = %v", err)
	}

	if len(balances) != 2 {
		t.Fatalf("TokenBalances() returned %d entries, want 2", len(balances))
	}
	if balances[1].Asset().Symbol() != "BBB" {
		t.Errorf("balances[1].Symbol = %s, want BBB", balances[1].Asset().Symbol())
	}
}

func TestTokenBalances_ExplicitAddressWithReadOnlyWallet(t *testing.T) {
	other := common.HexToAddress("0x0000000000000000000000000000000000000099")
	chain := &fakeChainReader{t: t, nativeBalance: big.NewInt(1)}
	erc20 := &fakeERC20{balances: map[common.Address]*big.Int{
		tokenAAddr: big.NewInt(100),
		tokenBAddr: big.NewInt(200),
	}}
	svc := newTestService(t, &fakeSigner{readOnly: true}, erc20, chain, nil)

	balances, err := svc.TokenBalances(context.Background(), other.Hex(), nil)
	if err != nil {
		t.Fatalf("TokenBalances() error = %v", err)
	}

	if erc20.lastOwner != other {
		t.Errorf("balances read for %s, want %s", erc20.lastOwner.Hex(), other.Hex())
	}
	if len(balances) != 3 {
		t.Fatalf("TokenBalances() returned %d entries, want 3", len(balances))
	}
}

func TestTokenBalances_ReadOnlyWithoutAddressRejected(t *testing.T) {
	chain := &fakeChainReader{t: t, nativeBalance: big.NewInt(1)}
	svc := newTestService(t, &fakeSigner{readOnly: true}, &fakeERC20{}, chain, nil)

	_, err := svc.TokenBalances(context.Background(), "", nil)
	if err == nil {
		t.Fatal("TokenBalances() expected error, got nil")
	}
	if got := apperror.GetCode(err); got != apperror.CodeWalletReadOnly {
		t.Errorf("error code = %s, want %s", got, apperror.CodeWalletReadOnly)
	}
}

func TestTokenBalances_BadAddressRejected(t *testing.T) {
	chain := &fakeChainReader{t: t, nativeBalance: big.NewInt(1)}
	svc := newTestService(t, &fakeSigner{addr: walletAddr}, &fakeERC20{}, chain, nil)

	_, err := svc.TokenBalances(context.Background(), "not-an-address", nil)
	if err == nil {
		t.Fatal("TokenBalances() expected error, got nil")
	}
	if got := apperror.GetCode(err); got != apperror.CodeInvalidInput {
		t.Errorf("error code = %s, want %s", got, apperror.CodeInvalidInput)
	}
}

func TestEnsureAllowance_SufficientSkipsApproval(t *testing.T) {
	signer := &fakeSigner{addr: walletAddr}
	erc20 := &fakeERC20{allowance: big.NewInt(1000)}
	svc := newTestService(t, signer, erc20, &fakeChainReader{t: t, nativeBalance: big.NewInt(0)}, nil)

	hash, err := svc.EnsureAllowance(context.Background(), tokenAAddr, spenderAddr, big.NewInt(500))
	if err != nil {
		t.Fatalf("EnsureAllowance() error = %v", err)
	}
	if hash != (common.Hash{}) {
		t.Errorf("hash = %s, want zero hash when allowance sufficient", hash.Hex())
	}
	if signer.submitCalls != 0 {
		t.Errorf("submit calls = %d, want 0", signer.submitCalls)
	}
}

func TestEnsureAllowance_InsufficientApproves(t *testing.T) {
	signer := &fakeSigner{addr: walletAddr}
	erc20 := &fakeERC20{allowance: big.NewInt(100)}
	svc := newTestService(t, signer, erc20, &fakeChainReader{t: t, nativeBalance: big.NewInt(0)}, nil)

	hash, err := svc.EnsureAllowance(context.Background(), tokenAAddr, spenderAddr, big.NewInt(500))
	if err != nil {
		t.Fatalf("EnsureAllowance() error = %v", err)
	}
	if hash == (common.Hash{}) {
		t.Error("hash should be set when approval was submitted")
	}
	if signer.submitCalls != 1 {
		t.Errorf("submit calls = %d, want 1", signer.submitCalls)
	}
	if signer.lastTo != tokenAAddr {
		t.Errorf("approval sent to %s, want token %s", signer.lastTo.Hex(), tokenAAddr.Hex())
	}
	if signer.lastValue != nil {
		t.Errorf("approval value = %s, want nil", signer.lastValue)
	}
}

func TestEnsureAllowance_ReadOnlyRejected(t *testing.T) {
	svc := newTestService(t, &fakeSigner{readOnly: true}, &fakeERC20{}, &fakeChainReader{t: t, nativeBalance: big.NewInt(0)}, nil)

	_, err := svc.EnsureAllowance(context.Background(), tokenAAddr, spenderAddr, big.NewInt(1))
	if err == nil {
		t.Fatal("EnsureAllowance() expected error, got nil")
	}
	if got := apperror.GetCode(err); got != apperror.CodeWalletReadOnly {
		t.Errorf("error code = %s, want %s", got, apperror.CodeWalletReadOnly)
	}
}

func TestSubmitAndConfirm_ReadOnlyRejected(t *testing.T) {
	svc := newTestService(t, &fakeSigner{readOnly: true}, &fakeERC20{}, &fakeChainReader{t: t, nativeBalance: big.NewInt(0)}, nil)

	_, err := svc.SubmitAndConfirm(context.Background(), spenderAddr, []byte{0x01}, nil)
	if err == nil {
		t.Fatal("SubmitAndConfirm() expected error, got nil")
	}
	if got := apperror.GetCode(err); got != apperror.CodeWalletReadOnly {
		t.Errorf("error code = %s, want %s", got, apperror.CodeWalletReadOnly)
	}
}
