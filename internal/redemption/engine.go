// Package redemption implements the atomic redeem operations: cash
// redemption at the marked share price, and in-kind redemption paying out a
// pro-rata slice of the underlying assets. The two are distinct modes and
// never mixed.
package redemption

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
	"github.com/unitfund/fundd/internal/valuation"
)

// Valuer marks the fund to market and quotes the share price.
type Valuer interface {
	Quote(ctx context.Context) (valuation.Mark, func(), error)
}

// Ledger is the share register consumed by redemption.
type Ledger interface {
	BalanceOf(owner string) decimal.Decimal
	Burn(owner string, amount decimal.Decimal) error
}

// Custody settles payouts and exposes the positions sliced by in-kind
// redemption.
type Custody interface {
	Available(ctx context.Context) (decimal.Decimal, error)
	TransferOut(ctx context.Context, recipient string, amount decimal.Decimal) error
	Holding(ctx context.Context, asset domain.Asset) (domain.AssetHolding, error)
	TransferAsset(ctx context.Context, recipient string, asset domain.Asset, quantity decimal.Decimal) error
}

// AssetRegistry enumerates the custodied assets for in-kind payouts.
type AssetRegistry interface {
	Assets() []domain.Asset
}

// EventSink records committed fund events.
type EventSink interface {
	Record(ctx context.Context, ev domain.Event) error
}

// Receipt reports the committed effects of a successful cash redemption.
type Receipt struct {
	Owner     string          `json:"owner"`
	Shares    decimal.Decimal `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Payout    decimal.Decimal `json:"payout"`
	Delivered decimal.Decimal `json:"delivered"`
	Refund    decimal.Decimal `json:"refund"`
}

// AssetPayout is one leg of an in-kind redemption.
type AssetPayout struct {
	Asset    domain.Asset    `json:"asset"`
	Quantity decimal.Decimal `json:"quantity"`
}

// InKindReceipt reports the committed effects of an in-kind redemption.
type InKindReceipt struct {
	Owner      string          `json:"owner"`
	Shares     decimal.Decimal `json:"shares"`
	BaseAmount decimal.Decimal `json:"baseAmount"`
	Assets     []AssetPayout   `json:"assets"`
}

// Engine performs atomic share redemption.
type Engine struct {
	fund     *domain.Fund
	valuer   Valuer
	ledger   Ledger
	custody  Custody
	registry AssetRegistry
	events   EventSink
	now      func() time.Time
}

// NewEngine creates a redemption engine. All dependencies are required.
func NewEngine(fund *domain.Fund, valuer Valuer, ledger Ledger, custody Custody, registry AssetRegistry, events EventSink) *Engine {
	if fund == nil {
		panic("redemption.NewEngine: fund is nil")
	}
	if valuer == nil {
		panic("redemption.NewEngine: valuer is nil")
	}
	if ledger == nil {
		panic("redemption.NewEngine: ledger is nil")
	}
	if custody == nil {
		panic("redemption.NewEngine: custody is nil")
	}
	if registry == nil {
		panic("redemption.NewEngine: registry is nil")
	}
	if events == nil {
		panic("redemption.NewEngine: events is nil")
	}
	return &Engine{
		fund:     fund,
		valuer:   valuer,
		ledger:   ledger,
		custody:  custody,
		registry: registry,
		events:   events,
		now:      time.Now,
	}
}

// Redeem converts offeredShares into wantedAmount of base currency at the
// current share price. All or nothing: if the shares are worth less than
// wantedAmount the whole call fails, and the cash is delivered before the
// shares are burned — shares must never be destroyed against a payout that
// cannot be delivered.
func (e *Engine) Redeem(ctx context.Context, owner string, offeredShares, wantedAmount decimal.Decimal) (Receipt, error) {
	if owner == "" {
		return Receipt{}, fmt.Errorf("%w: empty owner", domain.ErrInvalidArgument)
	}
	if !offeredShares.IsPositive() {
		return Receipt{}, fmt.Errorf("%w: offered shares %s", domain.ErrInvalidArgument, offeredShares)
	}
	if !wantedAmount.IsPositive() {
		return Receipt{}, fmt.Errorf("%w: wanted amount %s", domain.ErrInvalidArgument, wantedAmount)
	}

	release := e.fund.Exclusive()
	defer release()

	if balance := e.ledger.BalanceOf(owner); balance.LessThan(offeredShares) {
		return Receipt{}, fmt.Errorf("%w: %s holds %s, offered %s",
			domain.ErrInsufficientBalance, owner, balance, offeredShares)
	}

	mark, commitFees, err := e.valuer.Quote(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("marking to market: %w", err)
	}
	price := mark.Delta

	payout, err := domain.CheckedMul(price, offeredShares)
	if err != nil {
		return Receipt{}, err
	}
	if wantedAmount.GreaterThan(payout) {
		// The offered shares are the payment here; no short-pay.
		return Receipt{}, fmt.Errorf("%w: shares worth %s, wanted %s",
			domain.ErrInsufficientPayment, payout, wantedAmount)
	}

	available, err := e.custody.Available(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("reading custody availability: %w", err)
	}
	if payout.GreaterThan(available) {
		// Total outflow is the payout: delivery plus any surplus refund.
		// No forced-liquidation path: illiquid holdings stay put.
		return Receipt{}, fmt.Errorf("%w: %s available, payout %s",
			domain.ErrInsufficientLiquidity, available, payout)
	}

	if _, err := domain.CheckedAdd(e.fund.State().SumWithdrawn, payout); err != nil {
		return Receipt{}, err
	}

	// Point of no return: cash leaves custody before the burn.
	if err := e.custody.TransferOut(ctx, owner, wantedAmount); err != nil {
		return Receipt{}, fmt.Errorf("%w: delivering %s to %s: %w",
			domain.ErrExternalTransfer, wantedAmount, owner, err)
	}

	refund := payout.Sub(wantedAmount)
	if refund.IsPositive() {
		if err := e.custody.TransferOut(ctx, owner, refund); err != nil {
			slog.Error("redemption: refund failed after delivery, manual reconciliation required",
				"owner", owner, "delivered", wantedAmount.String(), "refund", refund.String(), "error", err)
			return Receipt{}, fmt.Errorf("%w: refunding %s to %s: %w",
				domain.ErrExternalTransfer, refund, owner, err)
		}
	}

	if err := e.ledger.Burn(owner, offeredShares); err != nil {
		slog.Error("redemption: burn failed after delivery, manual reconciliation required",
			"owner", owner, "shares", offeredShares.String(), "error", err)
		return Receipt{}, fmt.Errorf("burning %s shares of %s: %w", offeredShares, owner, err)
	}

	commitFees()
	e.fund.CommitRedeem(offeredShares, payout, mark.Snapshot())

	e.record(ctx, domain.NewSharesRedeemed(owner, offeredShares, price, e.now()))
	if refund.IsPositive() {
		e.record(ctx, domain.NewRefunded(owner, refund, e.now()))
	}

	return Receipt{
		Owner:     owner,
		Shares:    offeredShares,
		Price:     price,
		Payout:    payout,
		Delivered: wantedAmount,
		Refund:    refund,
	}, nil
}

// RedeemInKind burns numShares and assigns the owner the matching pro-rata
// slice of the base currency and of every custodied asset. No pricing step
// is involved.
func (e *Engine) RedeemInKind(ctx context.Context, owner string, numShares decimal.Decimal) (InKindReceipt, error) {
	if owner == "" {
		return InKindReceipt{}, fmt.Errorf("%w: empty owner", domain.ErrInvalidArgument)
	}
	if !numShares.IsPositive() {
		return InKindReceipt{}, fmt.Errorf("%w: shares %s", domain.ErrInvalidArgument, numShares)
	}

	release := e.fund.Exclusive()
	defer release()

	if balance := e.ledger.BalanceOf(owner); balance.LessThan(numShares) {
		return InKindReceipt{}, fmt.Errorf("%w: %s holds %s, redeeming %s",
			domain.ErrInsufficientBalance, owner, balance, numShares)
	}
	totalShares := e.fund.TotalShares()
	if !totalShares.IsPositive() {
		return InKindReceipt{}, fmt.Errorf("%w: fund has no shares", domain.ErrInvalidArgument)
	}
	fraction := numShares.Div(totalShares)

	available, err := e.custody.Available(ctx)
	if err != nil {
		return InKindReceipt{}, fmt.Errorf("reading custody availability: %w", err)
	}
	baseSlice := domain.Round(available.Mul(fraction))

	type slice struct {
		asset    domain.Asset
		quantity decimal.Decimal
	}
	var slices []slice
	for _, asset := range e.registry.Assets() {
		holding, err := e.custody.Holding(ctx, asset)
		if err != nil {
			return InKindReceipt{}, fmt.Errorf("reading %s holding: %w", asset.Code, err)
		}
		qty := holding.Quantity.Mul(fraction).Round(holding.Precision)
		if qty.IsPositive() {
			slices = append(slices, slice{asset: asset, quantity: qty})
		}
	}

	// Point of no return: assets leave custody before the burn.
	if baseSlice.IsPositive() {
		if err := e.custody.TransferOut(ctx, owner, baseSlice); err != nil {
			return InKindReceipt{}, fmt.Errorf("%w: delivering base slice %s to %s: %w",
				domain.ErrExternalTransfer, baseSlice, owner, err)
		}
	}
	receipt := InKindReceipt{Owner: owner, Shares: numShares, BaseAmount: baseSlice}
	for _, s := range slices {
		if err := e.custody.TransferAsset(ctx, owner, s.asset, s.quantity); err != nil {
			slog.Error("redemption: in-kind transfer failed mid-payout, manual reconciliation required",
				"owner", owner, "asset", s.asset.Code, "quantity", s.quantity.String(), "error", err)
			return InKindReceipt{}, fmt.Errorf("%w: delivering %s %s to %s: %w",
				domain.ErrExternalTransfer, s.quantity, s.asset.Code, owner, err)
		}
		receipt.Assets = append(receipt.Assets, AssetPayout{Asset: s.asset, Quantity: s.quantity})
	}

	if err := e.ledger.Burn(owner, numShares); err != nil {
		slog.Error("redemption: burn failed after in-kind payout, manual reconciliation required",
			"owner", owner, "shares", numShares.String(), "error", err)
		return InKindReceipt{}, fmt.Errorf("burning %s shares of %s: %w", numShares, owner, err)
	}
	e.fund.CommitBurn(numShares)

	e.record(ctx, domain.NewSharesRedeemed(owner, numShares, decimal.Zero, e.now()))

	return receipt, nil
}

func (e *Engine) record(ctx context.Context, ev domain.Event) {
	if err := e.events.Record(ctx, ev); err != nil {
		slog.Warn("redemption: recording event failed", "kind", string(ev.Kind), "error", err)
	}
}
