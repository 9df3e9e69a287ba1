package kaia

import "github.com/ethereum/go-ethereum/common"

const (
	tracerName = "kaia"
	meterName  = "kaia"
)

// Multicall3ABI is the ABI for the canonical Multicall3 contract.
// Only includes aggregate3, which we use for atomic batched reads.
const Multicall3ABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "target", "type": "address"},
					{"internalType": "bool", "name": "allowFailure", "type": "bool"},
					{"internalType": "bytes", "name": "callData", "type": "bytes"}
				],
				"internalType": "struct Multicall3.Call3[]",
				"name": "calls",
				"type": "tuple[]"
			}
		],
		"name": "aggregate3",
		"outputs": [
			{
				"components": [
					{"internalType": "bool", "name": "success", "type": "bool"},
					{"internalType": "bytes", "name": "returnData", "type": "bytes"}
				],
				"internalType": "struct Multicall3.Result[]",
				"name": "returnData",
				"type": "tuple[]"
			}
		],
		"stateMutability": "payable",
		"type": "function"
	}
]`

// aggregate3Call mirrors the Multicall3.Call3 tuple for ABI packing.
type aggregate3Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// aggregate3Result mirrors the Multicall3.Result tuple for ABI unpacking.
type aggregate3Result struct {
	Success    bool
	ReturnData []byte
}
