// Package fees implements the fund's pluggable fee-accrual policies.
//
// A Strategy is held by reference inside the valuation engine and consulted
// on every NAV computation. Accrue is a pure preview so read-only valuation
// queries never advance fee state; Realize both reports the fee and advances
// the strategy's internal state (accrual clock, high-water mark) and is only
// called under the fund's single-writer gate during mark-to-market.
package fees

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
)

// Strategy is the polymorphic fee-accrual capability.
type Strategy interface {
	// Accrue reports the fee owed as of now against the given pre-fee value,
	// without touching strategy state.
	Accrue(now time.Time, gross decimal.Decimal) decimal.Decimal
	// Realize reports the same fee and advances the strategy's state.
	Realize(now time.Time, gross decimal.Decimal) decimal.Decimal
}

// None is the zero-fee strategy.
type None struct{}

func (None) Accrue(time.Time, decimal.Decimal) decimal.Decimal  { return decimal.Zero }
func (None) Realize(time.Time, decimal.Decimal) decimal.Decimal { return decimal.Zero }

// LinearTimeFee accrues a flat ratePerDay for every day elapsed since the
// last realization, with no intra-interval compounding.
type LinearTimeFee struct {
	mu         sync.Mutex
	ratePerDay decimal.Decimal
	accruedTo  time.Time
}

// NewLinearTimeFee creates a linear time fee. The accrual clock starts at
// `start`; the first realization charges for time elapsed since then.
func NewLinearTimeFee(ratePerDay decimal.Decimal, start time.Time) *LinearTimeFee {
	return &LinearTimeFee{ratePerDay: ratePerDay, accruedTo: start}
}

func (f *LinearTimeFee) fee(now time.Time) decimal.Decimal {
	if !now.After(f.accruedTo) {
		return decimal.Zero
	}
	elapsed := decimal.NewFromInt(int64(now.Sub(f.accruedTo) / time.Second))
	days := elapsed.Div(decimal.NewFromInt(86400))
	return domain.Round(f.ratePerDay.Mul(days))
}

// Accrue reports the fee owed for the time elapsed since the last realization.
func (f *LinearTimeFee) Accrue(now time.Time, _ decimal.Decimal) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fee(now)
}

// Realize reports the elapsed-time fee and restarts the accrual clock at now.
func (f *LinearTimeFee) Realize(now time.Time, _ decimal.Decimal) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	fee := f.fee(now)
	if now.After(f.accruedTo) {
		f.accruedTo = now
	}
	return fee
}

// PerformanceFee charges rate on the fund value above its high-water mark.
// The mark only advances when a positive fee is realized, so drawdowns are
// recovered fee-free before any new performance fee is charged.
type PerformanceFee struct {
	mu            sync.Mutex
	rate          decimal.Decimal
	highWaterMark decimal.Decimal
}

// NewPerformanceFee creates a performance fee with the given rate (a
// fraction, e.g. 0.2 for twenty percent) and an initial high-water mark.
func NewPerformanceFee(rate, highWaterMark decimal.Decimal) *PerformanceFee {
	return &PerformanceFee{rate: rate, highWaterMark: highWaterMark}
}

func (f *PerformanceFee) fee(gross decimal.Decimal) decimal.Decimal {
	excess := gross.Sub(f.highWaterMark)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	return domain.Round(excess.Mul(f.rate))
}

// Accrue reports the fee owed on value above the high-water mark.
func (f *PerformanceFee) Accrue(_ time.Time, gross decimal.Decimal) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fee(gross)
}

// Realize reports the performance fee and, when it is positive, raises the
// high-water mark to the realized gross value.
func (f *PerformanceFee) Realize(_ time.Time, gross decimal.Decimal) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	fee := f.fee(gross)
	if fee.IsPositive() {
		f.highWaterMark = gross
	}
	return fee
}

// HighWaterMark returns the current high-water mark.
func (f *PerformanceFee) HighWaterMark() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.highWaterMark
}
