package domain

import "github.com/ethereum/go-ethereum/common"

// Call is a single contract call in a multicall batch.
type Call struct {
	Target   common.Address
	CallData []byte
}

// CallResult is the outcome of one call in a multicall batch.
// Success is false when the individual call reverted; the batch
// itself still succeeds.
type CallResult struct {
	Success    bool
	ReturnData []byte
}

// NetworkStatus is a snapshot of the connected network.
type NetworkStatus struct {
	ChainID     uint64
	BlockNumber uint64
	GasPrice    *GasPrice
}
