package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Kaia chain errors
	CodeRPCConnectionFailed: "Failed to connect to Kaia RPC node",
	CodeRPCError:            "Kaia RPC call failed",
	CodeChainIDMismatch:     "RPC node chain ID does not match configuration",
	CodeContractCallFailed:  "Smart contract call failed",
	CodeGasEstimationFailed: "Gas estimation failed",

	// Token and swap errors
	CodeInvalidToken:    "Unknown token symbol or invalid token address",
	CodeInvalidAmount:   "Invalid token amount",
	CodeNoPool:          "No pool exists for this token pair",
	CodeNoLiquidity:     "No liquidity available for this token pair",
	CodeInvalidPair:     "Token is not part of this pool",
	CodeInvalidSlippage: "Slippage tolerance out of range",
	CodeQuoteFailed:     "Failed to compute swap quote",

	// Wallet and transaction errors
	CodeWalletReadOnly:        "No private key configured, wallet is read-only",
	CodeInvalidPrivateKey:     "Invalid private key",
	CodeInsufficientBalance:   "Insufficient balance",
	CodeInsufficientAllowance: "Insufficient token allowance for router",
	CodeApprovalFailed:        "Token approval failed",
	CodeTransactionFailed:     "Transaction reverted on chain",
	CodeTransactionTimeout:    "Timed out waiting for transaction receipt",

	// Lending market errors
	CodeMarketNotFound:         "Lending market not found",
	CodeComptrollerRejected:    "Comptroller rejected the operation",
	CodeInsufficientCollateral: "Insufficient collateral for borrow",

	// Price feed errors
	CodePriceFeedError:   "Price feed request failed",
	CodePriceUnavailable: "No price available for token",

	// Cache errors
	CodeCacheMiss:    "Cache miss",
	CodeCacheExpired: "Cache entry expired",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
