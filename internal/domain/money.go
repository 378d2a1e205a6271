package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places carried by all fund amounts:
// share counts, base-currency amounts and prices alike.
const Precision = 7

// BaseUnit is the price of one share in a fund that has seen no performance
// change: exactly one unit of the base currency.
var BaseUnit = decimal.NewFromInt(1)

// maxMagnitude bounds every committed amount. Custodial counterparties reject
// transfers beyond this magnitude, so arithmetic that would exceed it fails
// closed instead of propagating an unrepresentable value.
var maxMagnitude = decimal.New(1, 24)

// CheckedAdd returns a+b, or ErrArithmeticOverflow if the result leaves the
// representable range.
func CheckedAdd(a, b decimal.Decimal) (decimal.Decimal, error) {
	sum := a.Add(b)
	if sum.Abs().GreaterThan(maxMagnitude) {
		return decimal.Zero, fmt.Errorf("%w: %s + %s", ErrArithmeticOverflow, a, b)
	}
	return sum, nil
}

// CheckedSub returns a-b, or ErrArithmeticOverflow if the result is negative.
// Fund quantities (shares, balances, counters) are never negative.
func CheckedSub(a, b decimal.Decimal) (decimal.Decimal, error) {
	diff := a.Sub(b)
	if diff.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s - %s is negative", ErrArithmeticOverflow, a, b)
	}
	return diff, nil
}

// CheckedMul returns a*b rounded to Precision, or ErrArithmeticOverflow if
// the result leaves the representable range.
func CheckedMul(a, b decimal.Decimal) (decimal.Decimal, error) {
	prod := a.Mul(b).Round(Precision)
	if prod.Abs().GreaterThan(maxMagnitude) {
		return decimal.Zero, fmt.Errorf("%w: %s * %s", ErrArithmeticOverflow, a, b)
	}
	return prod, nil
}

// Round normalizes an amount to the fund's fixed-point precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}
