package app

import (
	"context"

	"github.com/tamago-labs/kaia-mcp/business/chain/domain"
)

// ChainService coordinates network-level reads for the tool layer.
type ChainService struct {
	chainID   uint64
	reader    ChainReader
	gasOracle GasOracle
}

// NewChainService creates a new ChainService.
func NewChainService(chainID uint64, reader ChainReader, gasOracle GasOracle) *ChainService {
	return &ChainService{
		chainID:   chainID,
		reader:    reader,
		gasOracle: gasOracle,
	}
}

// ChainID returns the configured chain ID.
func (s *ChainService) ChainID() uint64 {
	return s.chainID
}

// NetworkStatus returns the current block number and gas price.
func (s *ChainService) NetworkStatus(ctx context.Context) (*domain.NetworkStatus, error) {
	block, err := s.reader.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	price, err := s.gasOracle.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.NetworkStatus{
		ChainID:     s.chainID,
		BlockNumber: block,
		GasPrice:    price,
	}, nil
}

// GetGasPrice retrieves the current gas price.
func (s *ChainService) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.gasOracle.GetGasPrice(ctx)
}
