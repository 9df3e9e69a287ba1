package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tamago-labs/kaia-mcp/business/lending/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const tracerName = "lending"

// MarketView is the tool-facing view of one market: raw state plus
// derived display figures.
type MarketView struct {
	Market          *domain.Market
	SupplyAPY       float64
	BorrowAPY       float64
	Utilization     float64
	PriceUSD        decimal.Decimal
	TotalSupplyUSD  decimal.Decimal
	TotalBorrowsUSD decimal.Decimal
}

// TxResult reports one confirmed market transaction.
type TxResult struct {
	Market         domain.MarketRef
	Amount         asset.Amount
	TxHash         common.Hash
	ApprovalTxHash common.Hash // zero when no approval was needed
}

// EnterResult reports a confirmed enterMarkets transaction.
type EnterResult struct {
	Markets []domain.MarketRef
	TxHash  common.Hash
}

// Service exposes KiloLend reads and writes: market data, account
// positions, and the supply/withdraw/borrow/repay lifecycle.
type Service struct {
	markets       []domain.MarketRef
	blocksPerYear int64
	comptroller   common.Address
	reader        MarketReader
	codec         CTokenCodec
	signer        Signer
	prices        PriceFeed

	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewService creates a lending Service.
func NewService(
	markets []domain.MarketRef,
	blocksPerYear int64,
	comptroller common.Address,
	reader MarketReader,
	codec CTokenCodec,
	signer Signer,
	prices PriceFeed,
	log logger.LoggerInterface,
) *Service {
	return &Service{
		markets:       markets,
		blocksPerYear: blocksPerYear,
		comptroller:   comptroller,
		reader:        reader,
		codec:         codec,
		signer:        signer,
		prices:        prices,
		logger:        log,
		tracer:        otel.Tracer(tracerName),
	}
}

// Markets reads every configured market and derives APYs, utilization
// and USD sizes.
func (s *Service) Markets(ctx context.Context) ([]MarketView, error) {
	ctx, span := s.tracer.Start(ctx, "lending.markets")
	defer span.End()

	states, err := s.reader.MarketStates(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	views := make([]MarketView, 0, len(states))
	for _, m := range states {
		price := s.priceOrZero(ctx, m.Ref.Symbol)
		decimals := -int32(m.Ref.Under.Decimals())

		views = append(views, MarketView{
			Market:          m,
			SupplyAPY:       m.SupplyAPY(s.blocksPerYear),
			BorrowAPY:       m.BorrowAPY(s.blocksPerYear),
			Utilization:     m.Utilization(),
			PriceUSD:        price,
			TotalSupplyUSD:  decimal.NewFromBigInt(m.TotalUnderlying(), decimals).Mul(price),
			TotalBorrowsUSD: decimal.NewFromBigInt(m.TotalBorrows, decimals).Mul(price),
		})
	}

	span.SetAttributes(attribute.Int("markets", len(views)))
	span.SetStatus(codes.Ok, "markets read")

	return views, nil
}

// Position reads an account's full protocol position. An empty
// addressRef means the wallet account.
func (s *Service) Position(ctx context.Context, addressRef string) (*domain.Position, error) {
	ctx, span := s.tracer.Start(ctx, "lending.position")
	defer span.End()

	addr, err := s.resolveAccount(addressRef)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("account", addr.Hex()))

	states, err := s.reader.MarketStates(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	factors := make(map[common.Address]*domain.Market, len(states))
	for _, m := range states {
		factors[m.Ref.CToken] = m
	}

	snaps, err := s.reader.AccountSnapshots(ctx, addr)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	enteredList, err := s.reader.EnteredMarkets(ctx, addr)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	entered := make(map[common.Address]bool, len(enteredList))
	for _, cToken := range enteredList {
		entered[cToken] = true
	}

	liq, err := s.reader.AccountLiquidity(ctx, addr)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	pos := &domain.Position{
		Address:      addr,
		LiquidityUSD: liq.LiquidityUSD(),
		ShortfallUSD: liq.ShortfallUSD(),
	}

	weighted := decimal.Zero
	for _, snap := range snaps {
		suppliedRaw := snap.SupplyBalanceUnderlying()
		borrowedRaw := snap.BorrowBalance
		if borrowedRaw == nil {
			borrowedRaw = new(big.Int)
		}
		if suppliedRaw.Sign() == 0 && borrowedRaw.Sign() == 0 {
			continue
		}

		under := snap.Market.Under
		price := s.priceOrZero(ctx, snap.Market.Symbol)
		decimals := -int32(under.Decimals())

		suppliedUSD := decimal.NewFromBigInt(suppliedRaw, decimals).Mul(price)
		borrowedUSD := decimal.NewFromBigInt(borrowedRaw, decimals).Mul(price)
		isCollateral := entered[snap.Market.CToken]

		pos.Entries = append(pos.Entries, domain.PositionEntry{
			Market:      snap.Market,
			Supplied:    asset.NewAmount(under, suppliedRaw),
			Borrowed:    asset.NewAmount(under, borrowedRaw),
			SuppliedUSD: suppliedUSD,
			BorrowedUSD: borrowedUSD,
			Collateral:  isCollateral,
		})
		pos.TotalSuppliedUSD = pos.TotalSuppliedUSD.Add(suppliedUSD)
		pos.TotalBorrowedUSD = pos.TotalBorrowedUSD.Add(borrowedUSD)

		if isCollateral {
			if market, ok := factors[snap.Market.CToken]; ok {
				cf := decimal.NewFromBigInt(market.CollateralFactor, -18)
				weighted = weighted.Add(suppliedUSD.Mul(cf))
			}
		}
	}

	if pos.TotalBorrowedUSD.IsPositive() {
		pos.HasBorrows = true
		pos.HealthFactor = weighted.Div(pos.TotalBorrowedUSD).InexactFloat64()
	}

	span.SetAttributes(
		attribute.Int("entries", len(pos.Entries)),
		attribute.Bool("has_borrows", pos.HasBorrows),
	)
	span.SetStatus(codes.Ok, "position read")

	return pos, nil
}

// Supply deposits underlying into a market, approving the cToken first
// for ERC-20 markets. The native market attaches KAIA as msg.value.
func (s *Service) Supply(ctx context.Context, symbol, amountStr string) (*TxResult, error) {
	ctx, span := s.tracer.Start(ctx, "lending.supply",
		trace.WithAttributes(attribute.String("market", symbol)),
	)
	defer span.End()

	ref, amount, err := s.prepareWrite(symbol, amountStr)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &TxResult{Market: ref, Amount: amount}
	raw := amount.Raw()

	var data []byte
	var value = raw
	if ref.IsNative {
		data, err = s.codec.MintPayableCalldata()
	} else {
		value = nil
		result.ApprovalTxHash, err = s.signer.EnsureAllowance(ctx, ref.Under.Address(), ref.CToken, raw)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, apperror.Wrap(err, apperror.CodeApprovalFailed,
				fmt.Sprintf("approve %s for market %s", ref.Under.Symbol(), ref.Symbol))
		}
		data, err = s.codec.MintCalldata(raw)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result.TxHash, err = s.signer.SubmitAndConfirm(ctx, ref.CToken, data, value)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodeTransactionFailed,
			fmt.Sprintf("supply %s to %s", amount.String(), ref.Symbol))
	}

	s.logger.Info(ctx, "supply confirmed",
		"market", ref.Symbol,
		"amount", amount.String(),
		"tx_hash", result.TxHash.Hex(),
	)
	span.SetAttributes(attribute.String("tx_hash", result.TxHash.Hex()))
	span.SetStatus(codes.Ok, "supply confirmed")

	return result, nil
}

// Withdraw redeems underlying from a market.
func (s *Service) Withdraw(ctx context.Context, symbol, amountStr string) (*TxResult, error) {
	ctx, span := s.tracer.Start(ctx, "lending.withdraw",
		trace.WithAttributes(attribute.String("market", symbol)),
	)
	defer span.End()

	ref, amount, err := s.prepareWrite(symbol, amountStr)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := s.codec.RedeemUnderlyingCalldata(amount.Raw())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &TxResult{Market: ref, Amount: amount}
	result.TxHash, err = s.signer.SubmitAndConfirm(ctx, ref.CToken, data, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodeTransactionFailed,
			fmt.Sprintf("withdraw %s from %s", amount.String(), ref.Symbol))
	}

	s.logger.Info(ctx, "withdraw confirmed",
		"market", ref.Symbol,
		"amount", amount.String(),
		"tx_hash", result.TxHash.Hex(),
	)
	span.SetAttributes(attribute.String("tx_hash", result.TxHash.Hex()))
	span.SetStatus(codes.Ok, "withdraw confirmed")

	return result, nil
}

// Borrow draws underlying against posted collateral.
func (s *Service) Borrow(ctx context.Context, symbol, amountStr string) (*TxResult, error) {
	ctx, span := s.tracer.Start(ctx, "lending.borrow",
		trace.WithAttributes(attribute.String("market", symbol)),
	)
	defer span.End()

	ref, amount, err := s.prepareWrite(symbol, amountStr)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := s.codec.BorrowCalldata(amount.Raw())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &TxResult{Market: ref, Amount: amount}
	result.TxHash, err = s.signer.SubmitAndConfirm(ctx, ref.CToken, data, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodeTransactionFailed,
			fmt.Sprintf("borrow %s from %s", amount.String(), ref.Symbol))
	}

	s.logger.Info(ctx, "borrow confirmed",
		"market", ref.Symbol,
		"amount", amount.String(),
		"tx_hash", result.TxHash.Hex(),
	)
	span.SetAttributes(attribute.String("tx_hash", result.TxHash.Hex()))
	span.SetStatus(codes.Ok, "borrow confirmed")

	return result, nil
}

// Repay pays down a borrow. The amount "max" repays the full stored
// borrow balance.
func (s *Service) Repay(ctx context.Context, symbol, amountStr string) (*TxResult, error) {
	ctx, span := s.tracer.Start(ctx, "lending.repay",
		trace.WithAttributes(attribute.String("market", symbol)),
	)
	defer span.End()

	if s.signer.IsReadOnly() {
		err := readOnlyErr()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ref, err := s.market(symbol)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var amount asset.Amount
	if strings.EqualFold(amountStr, "max") {
		amount, err = s.fullBorrowBalance(ctx, ref)
	} else {
		amount, err = parseAmount(ref, amountStr)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &TxResult{Market: ref, Amount: amount}
	raw := amount.Raw()

	var data []byte
	var value = raw
	if ref.IsNative {
		data, err = s.codec.RepayBorrowPayableCalldata()
	} else {
		value = nil
		result.ApprovalTxHash, err = s.signer.EnsureAllowance(ctx, ref.Under.Address(), ref.CToken, raw)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, apperror.Wrap(err, apperror.CodeApprovalFailed,
				fmt.Sprintf("approve %s for market %s", ref.Under.Symbol(), ref.Symbol))
		}
		data, err = s.codec.RepayBorrowCalldata(raw)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result.TxHash, err = s.signer.SubmitAndConfirm(ctx, ref.CToken, data, value)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodeTransactionFailed,
			fmt.Sprintf("repay %s to %s", amount.String(), ref.Symbol))
	}

	s.logger.Info(ctx, "repay confirmed",
		"market", ref.Symbol,
		"amount", amount.String(),
		"tx_hash", result.TxHash.Hex(),
	)
	span.SetAttributes(attribute.String("tx_hash", result.TxHash.Hex()))
	span.SetStatus(codes.Ok, "repay confirmed")

	return result, nil
}

// EnterMarkets marks markets as collateral with the comptroller.
func (s *Service) EnterMarkets(ctx context.Context, symbols []string) (*EnterResult, error) {
	ctx, span := s.tracer.Start(ctx, "lending.enter_markets",
		trace.WithAttributes(attribute.Int("markets", len(symbols))),
	)
	defer span.End()

	if s.signer.IsReadOnly() {
		err := readOnlyErr()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(symbols) == 0 {
		err := apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage("no markets given to enter"))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	refs := make([]domain.MarketRef, 0, len(symbols))
	cTokens := make([]common.Address, 0, len(symbols))
	for _, symbol := range symbols {
		ref, err := s.market(symbol)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		refs = append(refs, ref)
		cTokens = append(cTokens, ref.CToken)
	}

	data, err := s.codec.EnterMarketsCalldata(cTokens)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	hash, err := s.signer.SubmitAndConfirm(ctx, s.comptroller, data, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodeTransactionFailed, "enter markets")
	}

	s.logger.Info(ctx, "markets entered",
		"markets", symbols,
		"tx_hash", hash.Hex(),
	)
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))
	span.SetStatus(codes.Ok, "markets entered")

	return &EnterResult{Markets: refs, TxHash: hash}, nil
}

// MarketRefs returns the configured market set.
func (s *Service) MarketRefs() []domain.MarketRef {
	out := make([]domain.MarketRef, len(s.markets))
	copy(out, s.markets)
	return out
}

// prepareWrite runs the shared write-path validation: wallet present,
// market known, amount positive.
func (s *Service) prepareWrite(symbol, amountStr string) (domain.MarketRef, asset.Amount, error) {
	if s.signer.IsReadOnly() {
		return domain.MarketRef{}, asset.Amount{}, readOnlyErr()
	}

	ref, err := s.market(symbol)
	if err != nil {
		return domain.MarketRef{}, asset.Amount{}, err
	}

	amount, err := parseAmount(ref, amountStr)
	if err != nil {
		return domain.MarketRef{}, asset.Amount{}, err
	}
	return ref, amount, nil
}

func (s *Service) market(symbol string) (domain.MarketRef, error) {
	for _, ref := range s.markets {
		if strings.EqualFold(ref.Symbol, symbol) {
			return ref, nil
		}
	}

	known := make([]string, len(s.markets))
	for i, ref := range s.markets {
		known[i] = ref.Symbol
	}
	return domain.MarketRef{}, apperror.New(apperror.CodeMarketNotFound,
		apperror.WithMessage(fmt.Sprintf("unknown market %q; available: %s", symbol, strings.Join(known, ", "))))
}

func (s *Service) resolveAccount(addressRef string) (common.Address, error) {
	if addressRef == "" {
		if s.signer.IsReadOnly() {
			return common.Address{}, apperror.New(apperror.CodeWalletReadOnly,
				apperror.WithMessage("no wallet configured; pass an explicit account address"))
		}
		return s.signer.Address(), nil
	}
	if !common.IsHexAddress(addressRef) {
		return common.Address{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage(fmt.Sprintf("account %q is not a hex address", addressRef)))
	}
	return common.HexToAddress(addressRef), nil
}

// fullBorrowBalance reads the wallet's current borrow in one market.
func (s *Service) fullBorrowBalance(ctx context.Context, ref domain.MarketRef) (asset.Amount, error) {
	snaps, err := s.reader.AccountSnapshots(ctx, s.signer.Address())
	if err != nil {
		return asset.Amount{}, err
	}
	for _, snap := range snaps {
		if snap.Market.CToken != ref.CToken {
			continue
		}
		if snap.BorrowBalance == nil || snap.BorrowBalance.Sign() == 0 {
			return asset.Amount{}, apperror.New(apperror.CodeInvalidAmount,
				apperror.WithMessage(fmt.Sprintf("nothing to repay in market %s", ref.Symbol)))
		}
		return asset.NewAmount(ref.Under, snap.BorrowBalance), nil
	}
	return asset.Amount{}, apperror.New(apperror.CodeMarketNotFound,
		apperror.WithMessage(fmt.Sprintf("no snapshot for market %s", ref.Symbol)))
}

func (s *Service) priceOrZero(ctx context.Context, symbol string) decimal.Decimal {
	price, err := s.prices.USDPrice(ctx, symbol)
	if err != nil {
		s.logger.Debug(ctx, "price unavailable", "symbol", symbol, "error", err.Error())
		return decimal.Zero
	}
	return price
}

func parseAmount(ref domain.MarketRef, amountStr string) (asset.Amount, error) {
	amount, err := asset.ParseString(ref.Under, amountStr)
	if err != nil {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithCause(err),
			apperror.WithMessage(fmt.Sprintf("amount %q is not a valid %s amount", amountStr, ref.Under.Symbol())))
	}
	if !amount.IsPositive() {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithMessage("amount must be positive"))
	}
	return amount, nil
}

func readOnlyErr() error {
	return apperror.New(apperror.CodeWalletReadOnly,
		apperror.WithMessage("no wallet configured; transaction tools are disabled"))
}
