package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Kaia chain error codes
const (
	CodeRPCConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeRPCError            Code = "RPC_ERROR"
	CodeChainIDMismatch     Code = "CHAIN_ID_MISMATCH"
	CodeContractCallFailed  Code = "CONTRACT_CALL_FAILED"
	CodeGasEstimationFailed Code = "GAS_ESTIMATION_FAILED"
)

// Token and swap error codes
const (
	CodeInvalidToken    Code = "INVALID_TOKEN"
	CodeInvalidAmount   Code = "INVALID_AMOUNT"
	CodeNoPool          Code = "NO_POOL"
	CodeNoLiquidity     Code = "NO_LIQUIDITY"
	CodeInvalidPair     Code = "INVALID_PAIR"
	CodeInvalidSlippage Code = "INVALID_SLIPPAGE"
	CodeQuoteFailed     Code = "QUOTE_FAILED"
)

// Wallet and transaction error codes
const (
	CodeWalletReadOnly        Code = "WALLET_READ_ONLY"
	CodeInvalidPrivateKey     Code = "INVALID_PRIVATE_KEY"
	CodeInsufficientBalance   Code = "INSUFFICIENT_BALANCE"
	CodeInsufficientAllowance Code = "INSUFFICIENT_ALLOWANCE"
	CodeApprovalFailed        Code = "APPROVAL_FAILED"
	CodeTransactionFailed     Code = "TRANSACTION_FAILED"
	CodeTransactionTimeout    Code = "TRANSACTION_TIMEOUT"
)

// Lending market error codes
const (
	CodeMarketNotFound         Code = "MARKET_NOT_FOUND"
	CodeComptrollerRejected    Code = "COMPTROLLER_REJECTED"
	CodeInsufficientCollateral Code = "INSUFFICIENT_COLLATERAL"
)

// Price feed error codes
const (
	CodePriceFeedError   Code = "PRICE_FEED_ERROR"
	CodePriceUnavailable Code = "PRICE_UNAVAILABLE"
)

// Cache and circuit breaker error codes
const (
	CodeCacheMiss    Code = "CACHE_MISS"
	CodeCacheExpired Code = "CACHE_EXPIRED"

	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
