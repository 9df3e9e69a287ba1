package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDKaia   = 8217 // Kaia mainnet
	ChainIDKairos = 1001 // Kairos testnet
	ChainIDFiat   = 0    // Off-chain / fiat
)

// Well-known token addresses on Kaia Mainnet
var (
	// Wrapped native
	AddrWKAIA = common.HexToAddress("0x19Aac5f612f524B754CA7e7c41cbFa2E981A4432")

	// Stablecoins
	AddrUSDT = common.HexToAddress("0xd077A400968890Eacc75cdc901F0356c943e4fDb")
	AddrUSDC = common.HexToAddress("0x754288077D0fF82AF7a5317C7CB8c444D421d103")

	// Ecosystem tokens
	AddrBORA   = common.HexToAddress("0x02cBE46fB8A1F579254a9B485788f2D86Cad51aa")
	AddrMBX    = common.HexToAddress("0xD068c52d81f4409B9502dA926aCE3301cc41f623")
	AddrSIX    = common.HexToAddress("0xEf82b1C6A550e730D8283E1eDD4977cd01FAF435")
	AddrStKAIA = common.HexToAddress("0x42952B873ed6f7f0A7E4992E2a9818E3A9001995")

	// Kairos testnet
	AddrWKAIAKairos = common.HexToAddress("0x043c471bEe060e00A56CcD02c0Ca286808a5A436")
)

// Well-known AssetIDs
var (
	// Kaia Mainnet
	IDKaiaKAIA   = NewNativeAssetID(ChainIDKaia)
	IDKaiaWKAIA  = NewTokenAssetID(ChainIDKaia, AddrWKAIA)
	IDKaiaUSDT   = NewTokenAssetID(ChainIDKaia, AddrUSDT)
	IDKaiaUSDC   = NewTokenAssetID(ChainIDKaia, AddrUSDC)
	IDKaiaBORA   = NewTokenAssetID(ChainIDKaia, AddrBORA)
	IDKaiaMBX    = NewTokenAssetID(ChainIDKaia, AddrMBX)
	IDKaiaSIX    = NewTokenAssetID(ChainIDKaia, AddrSIX)
	IDKaiaStKAIA = NewTokenAssetID(ChainIDKaia, AddrStKAIA)

	// Kairos testnet
	IDKairosKAIA  = NewNativeAssetID(ChainIDKairos)
	IDKairosWKAIA = NewTokenAssetID(ChainIDKairos, AddrWKAIAKairos)

	// Fiat
	IDUSD = NewFiatAssetID("USD")
	IDKRW = NewFiatAssetID("KRW")
)

// Well-known Assets (pre-created instances)
var (
	// Kaia Mainnet
	KAIA   = NewAssetWithName(IDKaiaKAIA, "KAIA", "Kaia", 18)
	WKAIA  = NewAssetWithName(IDKaiaWKAIA, "WKAIA", "Wrapped Kaia", 18)
	USDT   = NewAssetWithName(IDKaiaUSDT, "USDT", "Tether USD", 6)
	USDC   = NewAssetWithName(IDKaiaUSDC, "USDC", "USD Coin", 6)
	BORA   = NewAssetWithName(IDKaiaBORA, "BORA", "BORA", 18)
	MBX    = NewAssetWithName(IDKaiaMBX, "MBX", "MARBLEX", 18)
	SIX    = NewAssetWithName(IDKaiaSIX, "SIX", "SIX Protocol", 18)
	StKAIA = NewAssetWithName(IDKaiaStKAIA, "stKAIA", "Staked Kaia", 18)

	// Kairos testnet
	KairosKAIA  = NewAssetWithName(IDKairosKAIA, "KAIA", "Kaia (Kairos)", 18)
	KairosWKAIA = NewAssetWithName(IDKairosWKAIA, "WKAIA", "Wrapped Kaia (Kairos)", 18)

	// Fiat
	USD = NewAssetWithName(IDUSD, "USD", "US Dollar", 2)
	KRW = NewAssetWithName(IDKRW, "KRW", "Korean Won", 0)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Kaia Mainnet
	r.Register(KAIA)
	r.Register(WKAIA)
	r.Register(USDT)
	r.Register(USDC)
	r.Register(BORA)
	r.Register(MBX)
	r.Register(SIX)
	r.Register(StKAIA)

	// Kairos testnet
	r.Register(KairosKAIA)
	r.Register(KairosWKAIA)

	// Fiat
	r.Register(USD)
	r.Register(KRW)

	return r
}

// MustNewToken creates a new ERC20 token asset with the given parameters.
// This is a convenience function for registering custom tokens.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	id := NewTokenAssetID(chainID, address)
	return NewAssetWithName(id, symbol, name, decimals)
}

// MustNewNative creates a new native coin asset.
func MustNewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	id := NewNativeAssetID(chainID)
	return NewAssetWithName(id, symbol, name, decimals)
}
