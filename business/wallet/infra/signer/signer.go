// Package signer implements transaction signing and submission for the
// wallet account on Kaia.
package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chainapp "github.com/tamago-labs/kaia-mcp/business/chain/app"
	"github.com/tamago-labs/kaia-mcp/business/wallet/app"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const (
	tracerName = "signer"
	meterName  = "signer"

	// Kaia produces one block per second, so receipts land quickly.
	receiptPollInterval = time.Second
)

// Ensure Signer implements the app port.
var _ app.TransactionSigner = (*Signer)(nil)

// SignerConfig holds signer configuration.
type SignerConfig struct {
	ChainID        uint64
	PrivateKey     string        // hex, with or without 0x prefix; empty means read-only
	ReceiptTimeout time.Duration // how long to wait for a receipt
	GasLimitMargin int           // percent added to gas estimates
}

// signerMetrics holds OTEL metric instruments.
type signerMetrics struct {
	txTotal        metric.Int64Counter
	txErrors       metric.Int64Counter
	confirmLatency metric.Float64Histogram
}

// Signer signs and submits legacy transactions for a single account.
// The submit path is serialized so nonces stay ordered.
type Signer struct {
	client         *ethclient.Client
	oracle         chainapp.GasOracle
	txSigner       types.Signer
	priv           *ecdsa.PrivateKey
	address        common.Address
	readOnly       bool
	receiptTimeout time.Duration
	gasLimitMargin int

	mu sync.Mutex

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *signerMetrics
}

// NewSigner creates a Signer. An empty private key yields a read-only
// signer whose submit methods fail with WALLET_READ_ONLY.
func NewSigner(client *ethclient.Client, oracle chainapp.GasOracle, cfg SignerConfig, log logger.LoggerInterface) (*Signer, error) {
	s := &Signer{
		client:         client,
		oracle:         oracle,
		txSigner:       types.LatestSignerForChainID(new(big.Int).SetUint64(cfg.ChainID)),
		readOnly:       true,
		receiptTimeout: cfg.ReceiptTimeout,
		gasLimitMargin: cfg.GasLimitMargin,
		logger:         log,
		tracer:         otel.Tracer(tracerName),
	}
	if s.receiptTimeout <= 0 {
		s.receiptTimeout = 90 * time.Second
	}
	if s.gasLimitMargin <= 0 {
		s.gasLimitMargin = 20
	}

	if key := strings.TrimSpace(cfg.PrivateKey); key != "" {
		priv, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidPrivateKey,
				apperror.WithCause(err),
				apperror.WithMessage("wallet private key is not valid hex"))
		}
		s.priv = priv
		s.address = crypto.PubkeyToAddress(priv.PublicKey)
		s.readOnly = false
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return s, nil
}

func (s *Signer) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &signerMetrics{}

	s.metrics.txTotal, err = meter.Int64Counter(
		"wallet_tx_total",
		metric.WithDescription("Total transaction submissions"),
	)
	if err != nil {
		return err
	}

	s.metrics.txErrors, err = meter.Int64Counter(
		"wallet_tx_errors_total",
		metric.WithDescription("Total failed transaction submissions"),
	)
	if err != nil {
		return err
	}

	s.metrics.confirmLatency, err = meter.Float64Histogram(
		"wallet_tx_confirm_latency_ms",
		metric.WithDescription("Time from submission to receipt in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Address returns the signing account address.
func (s *Signer) Address() common.Address {
	return s.address
}

// IsReadOnly reports whether no private key is configured.
func (s *Signer) IsReadOnly() bool {
	return s.readOnly
}

// SubmitAndConfirm signs, broadcasts and waits for the receipt of a
// contract call. Failed submissions are never retried; the caller
// decides whether to build a fresh transaction.
func (s *Signer) SubmitAndConfirm(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	ctx, span := s.tracer.Start(ctx, "signer.submit_and_confirm",
		trace.WithAttributes(attribute.String("to", to.Hex())),
	)
	defer span.End()

	if s.readOnly {
		return common.Hash{}, apperror.New(apperror.CodeWalletReadOnly,
			apperror.WithMessage("cannot submit transactions without a wallet"))
	}

	// One submission at a time keeps nonces ordered.
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.metrics.txTotal.Add(ctx, 1)

	if value == nil {
		value = big.NewInt(0)
	}

	signed, err := s.buildAndSign(ctx, to, data, value)
	if err != nil {
		s.metrics.txErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return common.Hash{}, err
	}
	hash := signed.Hash()
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		s.metrics.txErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return common.Hash{}, apperror.New(apperror.CodeTransactionFailed,
			apperror.WithCause(err),
			apperror.WithTxHash(hash.Hex()),
			apperror.WithContext("broadcast failed"))
	}

	s.logger.Debug(ctx, "transaction broadcast",
		"tx_hash", hash.Hex(),
		"to", to.Hex(),
		"nonce", signed.Nonce(),
	)

	receipt, err := s.waitReceipt(ctx, hash)
	s.metrics.confirmLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.metrics.txErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return common.Hash{}, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		s.metrics.txErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "transaction reverted")
		return common.Hash{}, apperror.New(apperror.CodeTransactionFailed,
			apperror.WithTxHash(hash.Hex()),
			apperror.WithMessage(fmt.Sprintf("transaction %s reverted", hash.Hex())))
	}

	s.logger.Info(ctx, "transaction confirmed",
		"tx_hash", hash.Hex(),
		"block", receipt.BlockNumber.String(),
		"gas_used", receipt.GasUsed,
	)
	span.SetAttributes(attribute.Int64("gas_used", int64(receipt.GasUsed)))
	span.SetStatus(codes.Ok, "transaction confirmed")

	return hash, nil
}

// buildAndSign assembles a legacy transaction with the current nonce,
// oracle gas price and a margin-padded gas estimate.
func (s *Signer) buildAndSign(ctx context.Context, to common.Address, data []byte, value *big.Int) (*types.Transaction, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, apperror.New(apperror.CodeRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch nonce"))
	}

	price, err := s.oracle.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	estimate, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.address,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeGasEstimationFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("estimate for call to %s", to.Hex())))
	}
	gasLimit := estimate * uint64(100+s.gasLimitMargin) / 100

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: price.Kei,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})

	signed, err := types.SignTx(tx, s.txSigner, s.priv)
	if err != nil {
		return nil, apperror.New(apperror.CodeTransactionFailed,
			apperror.WithCause(err),
			apperror.WithContext("signing failed"))
	}
	return signed, nil
}

// waitReceipt polls for the receipt until it lands or the timeout
// elapses. Transient RPC errors keep the poll alive: the transaction
// is already broadcast and may still confirm.
func (s *Signer) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			s.logger.Debug(ctx, "receipt poll error",
				"tx_hash", hash.Hex(),
				"error", err.Error(),
			)
		}

		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeTransactionTimeout,
				apperror.WithTxHash(hash.Hex()),
				apperror.WithMessage(fmt.Sprintf("timed out waiting for receipt of %s", hash.Hex())))
		case <-ticker.C:
		}
	}
}
