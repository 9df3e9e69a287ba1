// Package app contains application services and port definitions for the lending context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/tamago-labs/kaia-mcp/business/lending/domain"
)

// MarketReader reads KiloLend protocol state. Market and account reads
// are batched through multicall so each result set reflects one block.
type MarketReader interface {
	// MarketStates reads every configured market. Markets whose reads
	// fail are omitted.
	MarketStates(ctx context.Context) ([]*domain.Market, error)

	// AccountSnapshots reads the account's balance snapshot in every
	// configured market.
	AccountSnapshots(ctx context.Context, account common.Address) ([]*domain.AccountSnapshot, error)

	// AccountLiquidity reads the comptroller's solvency view.
	AccountLiquidity(ctx context.Context, account common.Address) (*domain.AccountLiquidity, error)

	// EnteredMarkets reads which cTokens the account uses as collateral.
	EnteredMarkets(ctx context.Context, account common.Address) ([]common.Address, error)
}

// CTokenCodec encodes cToken and comptroller calls. ERC-20 markets and
// the payable native market use different entrypoints.
type CTokenCodec interface {
	MintCalldata(amount *big.Int) ([]byte, error)
	MintPayableCalldata() ([]byte, error)
	RedeemUnderlyingCalldata(amount *big.Int) ([]byte, error)
	BorrowCalldata(amount *big.Int) ([]byte, error)
	RepayBorrowCalldata(amount *big.Int) ([]byte, error)
	RepayBorrowPayableCalldata() ([]byte, error)
	EnterMarketsCalldata(cTokens []common.Address) ([]byte, error)
}

// Signer is the wallet collaborator for the lending write path.
type Signer interface {
	Address() common.Address
	IsReadOnly() bool
	EnsureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
	SubmitAndConfirm(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}

// PriceFeed quotes USD prices by token symbol. Implementations never
// fail outright: a static fallback price is served when live data is
// unavailable.
type PriceFeed interface {
	USDPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}
