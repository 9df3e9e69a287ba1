package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/business/dex/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
)

var routerAddr = common.HexToAddress("0x00000000000000000000000000000000000000DD")

type fakeRouter struct {
	lastParams ExactInputSingleParams
	packCalls  int
}

func (f *fakeRouter) Address() common.Address {
	return routerAddr
}

func (f *fakeRouter) ExactInputSingle(params ExactInputSingleParams) ([]byte, error) {
	f.packCalls++
	f.lastParams = params
	return []byte{0xde, 0xad, 0xbe, 0xef}, nil
}

type fakeSigner struct {
	readOnly       bool
	address        common.Address
	approveErr     error
	submitErr      error
	needsApproval  bool
	allowanceCalls int
	submitCalls    int
	lastValue      *big.Int
	lastSpender    common.Address
}

func (f *fakeSigner) Address() common.Address { return f.address }
func (f *fakeSigner) IsReadOnly() bool        { return f.readOnly }

func (f *fakeSigner) EnsureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	f.allowanceCalls++
	f.lastSpender = spender
	if f.approveErr != nil {
		return common.Hash{}, f.approveErr
	}
	if f.needsApproval {
		return common.HexToHash("0xaaaa"), nil
	}
	return common.Hash{}, nil
}

func (f *fakeSigner) SubmitAndConfirm(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	f.submitCalls++
	f.lastValue = value
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return common.HexToHash("0xbbbb"), nil
}

func executorWith(reader PoolReader, signer *fakeSigner, router *fakeRouter) *SwapExecutor {
	svc := newService(reader)
	return NewSwapExecutor(svc, router, signer, 5, &mockLogger{})
}

func erc20PairReader(t *testing.T) *fakePoolReader {
	t.Helper()
	pool := poolFor(common.HexToAddress("0x1000000000000000000000000000000000000001"),
		addrTKA, addrTKB, domain.FeeTier030,
		bigFrom(t, "1000000000000000000000"), sqrtPriceX96For(1))
	return &fakePoolReader{tokenX: addrTKA, tokenY: addrTKB,
		pools: map[domain.FeeTier]*domain.PoolState{domain.FeeTier030: pool}}
}

func TestExecute_ReadOnlyWalletRejected(t *testing.T) {
	signer := &fakeSigner{readOnly: true}
	exec := executorWith(erc20PairReader(t), signer, &fakeRouter{})

	_, err := exec.Execute(context.Background(), ExecuteRequest{
		QuoteRequest: QuoteRequest{TokenIn: "TKA", TokenOut: "TKB", AmountIn: "1", SlippageBps: 50},
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if got := apperror.GetCode(err); got != apperror.CodeWalletReadOnly {
		t.Errorf("error code = %s, want %s", got, apperror.CodeWalletReadOnly)
	}
}

func TestExecute_ERC20SwapApprovesAndSubmits(t *testing.T) {
	signer := &fakeSigner{
		address:       common.HexToAddress("0x00000000000000000000000000000000000000EE"),
		needsApproval: true,
	}
	router := &fakeRouter{}
	exec := executorWith(erc20PairReader(t), signer, router)

	res, err := exec.Execute(context.Background(), ExecuteRequest{
		QuoteRequest: QuoteRequest{TokenIn: "TKA", TokenOut: "TKB", AmountIn: "100", SlippageBps: 50},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if signer.allowanceCalls != 1 {
		t.Errorf("EnsureAllowance calls = %d, want 1", signer.allowanceCalls)
	}
	if signer.lastSpender != routerAddr {
		t.Errorf("allowance spender = %s, want router %s", signer.lastSpender.Hex(), routerAddr.Hex())
	}
	if signer.submitCalls != 1 {
		t.Errorf("SubmitAndConfirm calls = %d, want 1", signer.submitCalls)
	}
	if signer.lastValue != nil {
		t.Errorf("swap value = %s, want nil for ERC-20 input", signer.lastValue)
	}
	if res.ApprovalTxHash == (common.Hash{}) {
		t.Error("ApprovalTxHash should be set when approval was submitted")
	}
	if res.TxHash == (common.Hash{}) {
		t.Error("TxHash should be set")
	}
	if res.Recipient != signer.address {
		t.Errorf("Recipient = %s, want signer %s", res.Recipient.Hex(), signer.address.Hex())
	}

	// Router params carry the minimum-out bound and the chosen tier.
	if router.lastParams.Fee != domain.FeeTier030 {
		t.Errorf("router fee = %d, want %d", router.lastParams.Fee, domain.FeeTier030)
	}
	wantMin := "99500000000000000000"
	if router.lastParams.AmountOutMinimum.String() != wantMin {
		t.Errorf("router minOut = %s, want %s", router.lastParams.AmountOutMinimum, wantMin)
	}
	if router.lastParams.Deadline == nil || router.lastParams.Deadline.Sign() <= 0 {
		t.Error("router deadline should be a future unix timestamp")
	}
}

func TestExecute_NativeInputSkipsAllowance(t *testing.T) {
	pool := poolFor(common.HexToAddress("0x1000000000000000000000000000000000000077"),
		addrTKA, addrWKAIA, domain.FeeTier030,
		bigFrom(t, "1000000000000000000000"), sqrtPriceX96For(1))
	reader := &fakePoolReader{tokenX: addrWKAIA, tokenY: addrTKA,
		pools: map[domain.FeeTier]*domain.PoolState{domain.FeeTier030: pool}}

	signer := &fakeSigner{address: common.HexToAddress("0x00000000000000000000000000000000000000EE")}
	router := &fakeRouter{}
	exec := executorWith(reader, signer, router)

	_, err := exec.Execute(context.Background(), ExecuteRequest{
		QuoteRequest: QuoteRequest{TokenIn: "KAIA", TokenOut: "TKA", AmountIn: "2", SlippageBps: 50},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if signer.allowanceCalls != 0 {
		t.Errorf("EnsureAllowance calls = %d, want 0 for native input", signer.allowanceCalls)
	}
	want := "2000000000000000000"
	if signer.lastValue == nil || signer.lastValue.String() != want {
		t.Errorf("swap value = %v, want %s", signer.lastValue, want)
	}
	if router.lastParams.TokenIn != addrWKAIA {
		t.Errorf("router tokenIn = %s, want WKAIA %s", router.lastParams.TokenIn.Hex(), addrWKAIA.Hex())
	}
}

func TestExecute_ApprovalFailureAborts(t *testing.T) {
	signer := &fakeSigner{
		address:    common.HexToAddress("0x00000000000000000000000000000000000000EE"),
		approveErr: apperror.New(apperror.CodeApprovalFailed),
	}
	exec := executorWith(erc20PairReader(t), signer, &fakeRouter{})

	_, err := exec.Execute(context.Background(), ExecuteRequest{
		QuoteRequest: QuoteRequest{TokenIn: "TKA", TokenOut: "TKB", AmountIn: "1", SlippageBps: 50},
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if got := apperror.GetCode(err); got != apperror.CodeApprovalFailed {
		t.Errorf("error code = %s, want %s", got, apperror.CodeApprovalFailed)
	}
	if signer.submitCalls != 0 {
		t.Errorf("swap was submitted despite approval failure: %d calls", signer.submitCalls)
	}
}

func TestExecute_InvalidRecipientRejected(t *testing.T) {
	signer := &fakeSigner{address: common.HexToAddress("0x00000000000000000000000000000000000000EE")}
	exec := executorWith(erc20PairReader(t), signer, &fakeRouter{})

	_, err := exec.Execute(context.Background(), ExecuteRequest{
		QuoteRequest: QuoteRequest{TokenIn: "TKA", TokenOut: "TKB", AmountIn: "1", SlippageBps: 50},
		Recipient:    "not-an-address",
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if got := apperror.GetCode(err); got != apperror.CodeInvalidInput {
		t.Errorf("error code = %s, want %s", got, apperror.CodeInvalidInput)
	}
}
