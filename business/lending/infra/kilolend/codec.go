package kilolend

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/business/lending/app"
)

// Ensure Codec implements the app port.
var _ app.CTokenCodec = (*Codec)(nil)

// Codec encodes cToken and comptroller calldata. It builds calldata
// only; signing and submission belong to the wallet.
type Codec struct {
	cToken         abi.ABI
	cNative        abi.ABI
	comptrollerABI abi.ABI
}

// NewCodec parses the KiloLend ABIs.
func NewCodec() (*Codec, error) {
	cToken, err := abi.JSON(strings.NewReader(CTokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse cToken ABI: %w", err)
	}
	cNative, err := abi.JSON(strings.NewReader(CNativeABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse native cToken ABI: %w", err)
	}
	comptrollerABI, err := abi.JSON(strings.NewReader(ComptrollerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse comptroller ABI: %w", err)
	}

	return &Codec{
		cToken:         cToken,
		cNative:        cNative,
		comptrollerABI: comptrollerABI,
	}, nil
}

// MintCalldata encodes mint(amount) for an ERC-20 market.
func (c *Codec) MintCalldata(amount *big.Int) ([]byte, error) {
	return c.pack(c.cToken, "mint", amount)
}

// MintPayableCalldata encodes mint() for the native market; the amount
// travels as msg.value.
func (c *Codec) MintPayableCalldata() ([]byte, error) {
	return c.pack(c.cNative, "mint")
}

// RedeemUnderlyingCalldata encodes redeemUnderlying(amount).
func (c *Codec) RedeemUnderlyingCalldata(amount *big.Int) ([]byte, error) {
	return c.pack(c.cToken, "redeemUnderlying", amount)
}

// BorrowCalldata encodes borrow(amount).
func (c *Codec) BorrowCalldata(amount *big.Int) ([]byte, error) {
	return c.pack(c.cToken, "borrow", amount)
}

// RepayBorrowCalldata encodes repayBorrow(amount) for an ERC-20 market.
func (c *Codec) RepayBorrowCalldata(amount *big.Int) ([]byte, error) {
	return c.pack(c.cToken, "repayBorrow", amount)
}

// RepayBorrowPayableCalldata encodes repayBorrow() for the native
// market; the amount travels as msg.value.
func (c *Codec) RepayBorrowPayableCalldata() ([]byte, error) {
	return c.pack(c.cNative, "repayBorrow")
}

// EnterMarketsCalldata encodes comptroller enterMarkets(cTokens).
func (c *Codec) EnterMarketsCalldata(cTokens []common.Address) ([]byte, error) {
	return c.pack(c.comptrollerABI, "enterMarkets", cTokens)
}

func (c *Codec) pack(contract abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	return data, nil
}
