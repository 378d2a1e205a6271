// Package valuation computes the fund's gross and net asset value and
// derives the share price from the chain-linked performance index.
package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
	"github.com/unitfund/fundd/internal/fees"
)

// AssetRegistry enumerates the custodied assets.
type AssetRegistry interface {
	Assets() []domain.Asset
}

// PriceFeed serves per-asset price quotes in base currency.
type PriceFeed interface {
	Price(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error)
}

// Custody exposes the custody adapter's positions.
type Custody interface {
	Available(ctx context.Context) (decimal.Decimal, error)
	Holding(ctx context.Context, asset domain.Asset) (domain.AssetHolding, error)
}

// Mark is the result of one valuation pass.
type Mark struct {
	GAV   decimal.Decimal `json:"gav"`
	NAV   decimal.Decimal `json:"nav"`
	Delta decimal.Decimal `json:"delta"`
	At    time.Time       `json:"at"`
}

// Snapshot converts the mark into the fund's analytics snapshot.
func (m Mark) Snapshot() domain.AnalyticsSnapshot {
	return domain.AnalyticsSnapshot{NAV: m.NAV, Delta: m.Delta, At: m.At}
}

// Engine values the fund against the registry, the price feed and the fee
// strategies.
type Engine struct {
	fund        *domain.Fund
	registry    AssetRegistry
	feed        PriceFeed
	custody     Custody
	management  fees.Strategy
	performance fees.Strategy
	now         func() time.Time
}

// NewEngine creates a valuation engine. All dependencies are required; pass
// fees.None for a fund without one of the fee components.
func NewEngine(fund *domain.Fund, registry AssetRegistry, feed PriceFeed, custody Custody, management, performance fees.Strategy) *Engine {
	if fund == nil {
		panic("valuation.NewEngine: fund is nil")
	}
	if registry == nil {
		panic("valuation.NewEngine: registry is nil")
	}
	if feed == nil {
		panic("valuation.NewEngine: feed is nil")
	}
	if custody == nil {
		panic("valuation.NewEngine: custody is nil")
	}
	if management == nil || performance == nil {
		panic("valuation.NewEngine: fee strategy is nil")
	}
	return &Engine{
		fund:        fund,
		registry:    registry,
		feed:        feed,
		custody:     custody,
		management:  management,
		performance: performance,
		now:         time.Now,
	}
}

// gav sums the custodied asset values in base currency: the base-currency
// holding one-to-one, plus quantity times price for every registered asset.
// A holding whose precision disagrees with its quote fails closed.
func (e *Engine) gav(ctx context.Context) (decimal.Decimal, error) {
	total, err := e.custody.Available(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading base holding: %w", err)
	}

	for _, asset := range e.registry.Assets() {
		holding, err := e.custody.Holding(ctx, asset)
		if err != nil {
			return decimal.Zero, fmt.Errorf("reading %s holding: %w", asset.Code, err)
		}
		q, err := e.feed.Price(ctx, asset)
		if err != nil {
			return decimal.Zero, fmt.Errorf("pricing %s: %w", asset.Code, err)
		}
		if holding.Precision != q.Precision {
			return decimal.Zero, fmt.Errorf("%w: %s holding precision %d, quote precision %d",
				domain.ErrPrecisionMismatch, asset.Code, holding.Precision, q.Precision)
		}

		value, err := domain.CheckedMul(holding.Quantity, q.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("valuing %s: %w", asset.Code, err)
		}
		total, err = domain.CheckedAdd(total, value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("valuing %s: %w", asset.Code, err)
		}
	}

	return total, nil
}

// GAV returns the gross asset value. Pure query: two consecutive calls with
// no intervening mutation return equal values.
func (e *Engine) GAV(ctx context.Context) (decimal.Decimal, error) {
	return e.gav(ctx)
}

// NAV returns GAV minus the previewed management and performance accruals.
// Pure query; fee state is not advanced.
func (e *Engine) NAV(ctx context.Context) (decimal.Decimal, error) {
	_, _, nav, err := e.valueAt(ctx, e.now())
	return nav, err
}

// valueAt computes gross and net value as of one instant. The performance
// fee is charged on the management-fee-adjusted value; fee accruals
// exceeding the gross value fail closed through the checked subtraction.
func (e *Engine) valueAt(ctx context.Context, now time.Time) (gross, afterManagement, nav decimal.Decimal, err error) {
	gross, err = e.gav(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	afterManagement, err = domain.CheckedSub(gross, e.management.Accrue(now, gross))
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("applying management fee: %w", err)
	}
	nav, err = domain.CheckedSub(afterManagement, e.performance.Accrue(now, afterManagement))
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("applying performance fee: %w", err)
	}
	return gross, afterManagement, nav, nil
}

// Quote runs one valuation pass and returns the resulting mark together with
// a fee-realization closure. The caller must hold the fund's single-writer
// gate, and must invoke the closure exactly once, immediately before
// committing the operation's state; abandoning it leaves all state untouched.
func (e *Engine) Quote(ctx context.Context) (Mark, func(), error) {
	now := e.now()
	gross, afterManagement, nav, err := e.valueAt(ctx, now)
	if err != nil {
		return Mark{}, nil, err
	}

	prev := e.fund.Analytics()

	// Chain-linked performance index. A fund that has never held capital, or
	// has just been fully redeemed, restarts at one base unit; the latter
	// case also keeps the next cycle from dividing by zero.
	var delta decimal.Decimal
	switch {
	case prev.NAV.IsZero():
		delta = domain.BaseUnit
	case nav.IsZero():
		delta = domain.BaseUnit
	default:
		delta = domain.Round(prev.Delta.Mul(nav).Div(prev.NAV))
	}

	mark := Mark{GAV: gross, NAV: nav, Delta: delta, At: now}
	commitFees := func() {
		e.management.Realize(now, gross)
		e.performance.Realize(now, afterManagement)
	}
	return mark, commitFees, nil
}

// MarkToMarket values the fund and commits the resulting analytics snapshot.
// Mutating: callers must treat it as mark-to-market, not an idempotent read.
func (e *Engine) MarkToMarket(ctx context.Context) (Mark, error) {
	release := e.fund.Exclusive()
	defer release()
	return e.markLocked(ctx)
}

// markLocked is MarkToMarket for callers already holding the fund gate.
func (e *Engine) markLocked(ctx context.Context) (Mark, error) {
	mark, commitFees, err := e.Quote(ctx)
	if err != nil {
		return Mark{}, err
	}
	commitFees()
	e.fund.CommitMark(mark.Snapshot())
	return mark, nil
}

// SharePrice marks the fund to market and returns the resulting share price:
// the performance index, denominated so one share costs one base unit before
// any performance change.
func (e *Engine) SharePrice(ctx context.Context) (decimal.Decimal, error) {
	mark, err := e.MarkToMarket(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return mark.Delta, nil
}
