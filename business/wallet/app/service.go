package app

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chainapp "github.com/tamago-labs/kaia-mcp/business/chain/app"
	"github.com/tamago-labs/kaia-mcp/business/wallet/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const tracerName = "wallet"

// Service exposes the wallet account to the rest of the application:
// status and balance reads, allowance management and transaction
// submission. Other contexts depend on it for their write paths.
type Service struct {
	chainID  uint64
	signer   TransactionSigner
	chain    chainapp.ChainReader
	erc20    ERC20
	registry *asset.Registry
	resolver TokenResolver

	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewService creates a wallet Service.
func NewService(
	chainID uint64,
	signer TransactionSigner,
	chain chainapp.ChainReader,
	erc20 ERC20,
	registry *asset.Registry,
	resolver TokenResolver,
	log logger.LoggerInterface,
) *Service {
	return &Service{
		chainID:  chainID,
		signer:   signer,
		chain:    chain,
		erc20:    erc20,
		registry: registry,
		resolver: resolver,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// Address returns the signing account address.
func (s *Service) Address() common.Address {
	return s.signer.Address()
}

// IsReadOnly reports whether no private key is configured.
func (s *Service) IsReadOnly() bool {
	return s.signer.IsReadOnly()
}

// Status returns the wallet address, mode and native balance.
func (s *Service) Status(ctx context.Context) (*domain.Status, error) {
	ctx, span := s.tracer.Start(ctx, "wallet.status")
	defer span.End()

	native, ok := s.registry.GetNative(s.chainID)
	if !ok {
		return nil, apperror.New(apperror.CodeInternalError,
			apperror.WithMessage(fmt.Sprintf("native asset not registered for chain %d", s.chainID)))
	}

	status := &domain.Status{
		Address:       s.signer.Address(),
		ReadOnly:      s.signer.IsReadOnly(),
		NativeBalance: asset.Zero(native),
	}
	if status.ReadOnly {
		span.SetStatus(codes.Ok, "read-only wallet")
		return status, nil
	}

	raw, err := s.chain.NativeBalance(ctx, status.Address)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	status.NativeBalance = asset.NewAmount(native, raw)

	span.SetAttributes(
		attribute.String("address", status.Address.Hex()),
		attribute.String("native_balance", status.NativeBalance.Raw().String()),
	)
	span.SetStatus(codes.Ok, "status read")

	return status, nil
}

// TokenBalances reads an account's balances for every well-known token
// on the configured chain, plus any explicitly requested tokens. An
// empty addressRef means the wallet account. The native balance leads
// the result. Tokens whose balanceOf call fails are skipped.
func (s *Service) TokenBalances(ctx context.Context, addressRef string, include []string) ([]asset.Amount, error) {
	ctx, span := s.tracer.Start(ctx, "wallet.token_balances",
		trace.WithAttributes(attribute.Int("requested_extra", len(include))),
	)
	defer span.End()

	owner, err := s.resolveOwner(addressRef)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	tokens := s.chainTokens()
	seen := make(map[common.Address]bool, len(tokens))
	for _, a := range tokens {
		seen[a.Address()] = true
	}
	for _, ref := range include {
		a, err := s.resolver.Resolve(ctx, ref, 0)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if !a.IsToken() || seen[a.Address()] {
			continue
		}
		seen[a.Address()] = true
		tokens = append(tokens, a)
	}

	addrs := make([]common.Address, len(tokens))
	for i, a := range tokens {
		addrs[i] = a.Address()
	}

	raws, err := s.erc20.BalancesOf(ctx, addrs, owner)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	balances := make([]asset.Amount, 0, len(tokens)+1)

	if native, ok := s.registry.GetNative(s.chainID); ok {
		nativeRaw, err := s.chain.NativeBalance(ctx, owner)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		balances = append(balances, asset.NewAmount(native, nativeRaw))
	}

	for i, raw := range raws {
		if raw == nil {
			s.logger.Debug(ctx, "skipping unreadable token balance",
				"token", tokens[i].Symbol(),
				"address", tokens[i].Address().Hex(),
			)
			continue
		}
		balances = append(balances, asset.NewAmount(tokens[i], raw))
	}

	span.SetAttributes(attribute.Int("balances", len(balances)))
	span.SetStatus(codes.Ok, "balances read")

	return balances, nil
}

// EnsureAllowance checks the ERC-20 allowance for spender and submits
// an approval for the exact amount when the current allowance is too
// low. Returns the approval tx hash, or the zero hash when no approval
// was needed.
func (s *Service) EnsureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	ctx, span := s.tracer.Start(ctx, "wallet.ensure_allowance",
		trace.WithAttributes(
			attribute.String("token", token.Hex()),
			attribute.String("spender", spender.Hex()),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	if s.signer.IsReadOnly() {
		return common.Hash{}, apperror.New(apperror.CodeWalletReadOnly,
			apperror.WithMessage("cannot approve tokens without a wallet"))
	}

	current, err := s.erc20.Allowance(ctx, token, s.signer.Address(), spender)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return common.Hash{}, err
	}
	if current.Cmp(amount) >= 0 {
		span.SetStatus(codes.Ok, "allowance sufficient")
		return common.Hash{}, nil
	}

	data, err := s.erc20.ApproveCalldata(spender, amount)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return common.Hash{}, err
	}

	hash, err := s.signer.SubmitAndConfirm(ctx, token, data, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return common.Hash{}, apperror.Wrap(err, apperror.CodeApprovalFailed,
			fmt.Sprintf("approve %s for %s", token.Hex(), spender.Hex()))
	}

	s.logger.Info(ctx, "approval confirmed",
		"token", token.Hex(),
		"spender", spender.Hex(),
		"amount", amount.String(),
		"tx_hash", hash.Hex(),
	)
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))
	span.SetStatus(codes.Ok, "approval confirmed")

	return hash, nil
}

// SubmitAndConfirm signs, broadcasts and waits for a contract call.
func (s *Service) SubmitAndConfirm(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	if s.signer.IsReadOnly() {
		return common.Hash{}, apperror.New(apperror.CodeWalletReadOnly,
			apperror.WithMessage("cannot submit transactions without a wallet"))
	}
	return s.signer.SubmitAndConfirm(ctx, to, data, value)
}

// resolveOwner maps an optional address argument to the account to
// read. Empty means the wallet account, which requires a configured
// key.
func (s *Service) resolveOwner(addressRef string) (common.Address, error) {
	if addressRef == "" {
		if s.signer.IsReadOnly() {
			return common.Address{}, apperror.New(apperror.CodeWalletReadOnly,
				apperror.WithMessage("no wallet configured; pass an explicit account address"))
		}
		return s.signer.Address(), nil
	}
	if !common.IsHexAddress(addressRef) {
		return common.Address{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage(fmt.Sprintf("%q is not a valid address", addressRef)))
	}
	return common.HexToAddress(addressRef), nil
}

// chainTokens returns the registered tokens for the configured chain,
// sorted by symbol for stable listings.
func (s *Service) chainTokens() []*asset.Asset {
	all := s.registry.All()
	tokens := make([]*asset.Asset, 0, len(all))
	for _, a := range all {
		if a.ChainID() == s.chainID && a.IsToken() {
			tokens = append(tokens, a)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Symbol() < tokens[j].Symbol()
	})
	return tokens
}
