package domain

import "errors"

// Every failure inside a mutating fund operation aborts the whole operation
// with zero partial state change. Callers dispatch on these sentinels with
// errors.Is; retry policy is theirs, not the engine's.
var (
	// ErrInvalidArgument reports a zero or negative amount or share count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientPayment reports that the attached payment does not cover
	// the cost of the requested shares. No partial fill is ever made.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrInsufficientBalance reports a redemption of more shares than owned.
	ErrInsufficientBalance = errors.New("insufficient share balance")

	// ErrInsufficientLiquidity reports a cash redemption exceeding the
	// custody adapter's available base currency. There is no forced
	// liquidation path.
	ErrInsufficientLiquidity = errors.New("insufficient custody liquidity")

	// ErrArithmeticOverflow reports a checked-math guard violation.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrExternalTransfer reports a payment, refund or custody transfer that
	// did not succeed. Never silently absorbed.
	ErrExternalTransfer = errors.New("external transfer failed")

	// ErrPrecisionMismatch reports a holding whose precision disagrees with
	// its price quote. A configuration fault; valuation fails closed.
	ErrPrecisionMismatch = errors.New("holding and quote precision mismatch")
)
