package kilolend

import "math/big"

// CTokenABI covers the cToken views shared by every market plus the
// ERC-20 market writes. The payable native-market writes live in
// CNativeABI because mint and repayBorrow take no arguments there.
const CTokenABI = `[
	{
		"name": "getAccountSnapshot",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "account", "type": "address"}],
		"outputs": [
			{"name": "errCode", "type": "uint256"},
			{"name": "cTokenBalance", "type": "uint256"},
			{"name": "borrowBalance", "type": "uint256"},
			{"name": "exchangeRateMantissa", "type": "uint256"}
		]
	},
	{
		"name": "exchangeRateStored",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "rate", "type": "uint256"}]
	},
	{
		"name": "supplyRatePerBlock",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "rate", "type": "uint256"}]
	},
	{
		"name": "borrowRatePerBlock",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "rate", "type": "uint256"}]
	},
	{
		"name": "getCash",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "cash", "type": "uint256"}]
	},
	{
		"name": "totalBorrows",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "borrows", "type": "uint256"}]
	},
	{
		"name": "totalReserves",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "reserves", "type": "uint256"}]
	},
	{
		"name": "totalSupply",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "supply", "type": "uint256"}]
	},
	{
		"name": "mint",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "mintAmount", "type": "uint256"}],
		"outputs": [{"name": "errCode", "type": "uint256"}]
	},
	{
		"name": "redeemUnderlying",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "redeemAmount", "type": "uint256"}],
		"outputs": [{"name": "errCode", "type": "uint256"}]
	},
	{
		"name": "borrow",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "borrowAmount", "type": "uint256"}],
		"outputs": [{"name": "errCode", "type": "uint256"}]
	},
	{
		"name": "repayBorrow",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "repayAmount", "type": "uint256"}],
		"outputs": [{"name": "errCode", "type": "uint256"}]
	}
]`

// CNativeABI holds the payable writes of the native KAIA market, where
// the amount travels as msg.value.
const CNativeABI = `[
	{
		"name": "mint",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [],
		"outputs": []
	},
	{
		"name": "repayBorrow",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [],
		"outputs": []
	}
]`

// ComptrollerABI covers market listings, account liquidity and
// collateral management.
const ComptrollerABI = `[
	{
		"name": "markets",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "cToken", "type": "address"}],
		"outputs": [
			{"name": "isListed", "type": "bool"},
			{"name": "collateralFactorMantissa", "type": "uint256"},
			{"name": "isKiloed", "type": "bool"}
		]
	},
	{
		"name": "getAccountLiquidity",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "account", "type": "address"}],
		"outputs": [
			{"name": "errCode", "type": "uint256"},
			{"name": "liquidity", "type": "uint256"},
			{"name": "shortfall", "type": "uint256"}
		]
	},
	{
		"name": "getAssetsIn",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "account", "type": "address"}],
		"outputs": [{"name": "markets", "type": "address[]"}]
	},
	{
		"name": "enterMarkets",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "cTokens", "type": "address[]"}],
		"outputs": [{"name": "errCodes", "type": "uint256[]"}]
	}
]`

// accountSnapshotResult mirrors the getAccountSnapshot return tuple.
type accountSnapshotResult struct {
	ErrCode              *big.Int
	CTokenBalance        *big.Int
	BorrowBalance        *big.Int
	ExchangeRateMantissa *big.Int
}

// marketsResult mirrors the comptroller markets(address) return tuple.
type marketsResult struct {
	IsListed                 bool
	CollateralFactorMantissa *big.Int
	IsKiloed                 bool
}

// accountLiquidityResult mirrors the getAccountLiquidity return tuple.
// At most one of Liquidity and Shortfall is nonzero.
type accountLiquidityResult struct {
	ErrCode   *big.Int
	Liquidity *big.Int
	Shortfall *big.Int
}
