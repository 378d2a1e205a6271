// Package issuance implements the atomic invest operation: payment in,
// shares out, all or nothing.
package issuance

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

// Ledger is the share register consumed by issuance.
type Ledger interface {
	BalanceOf(owner string) decimal.Decimal
	Mint(owner string, amount decimal.Decimal) error
}

// Custody settles the base-currency legs of an issuance.
type Custody interface {
	Deposit(ctx context.Context, amount decimal.Decimal) error
	TransferOut(ctx context.Context, recipient string, amount decimal.Decimal) error
	Refund(ctx context.Context, to string, amount decimal.Decimal) error
}

// EventSink records committed fund events.
type EventSink interface {
	Record(ctx context.Context, ev domain.Event) error
}

// Receipt reports the committed effects of a successful invest call.
type Receipt struct {
	Investor string          `json:"investor"`
	Shares   decimal.Decimal `json:"shares"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Refund   decimal.Decimal `json:"refund"`
}

// Engine performs atomic share issuance.
type Engine struct {
	fund    *domain.Fund
	valuer  Valuer
	ledger  Ledger
	custody Custody
	events  EventSink
	now     func() time.Time
}

// NewEngine creates an issuance engine. All dependencies are required.
func NewEngine(fund *domain.Fund, valuer Valuer, ledger Ledger, custody Custody, events EventSink) *Engine {
	if fund == nil {
		panic("issuance.NewEngine: fund is nil")
	}
	if valuer == nil {
		panic("issuance.NewEngine: valuer is nil")
	}
	if ledger == nil {
		panic("issuance.NewEngine: ledger is nil")
	}
	if custody == nil {
		panic("issuance.NewEngine: custody is nil")
	}
	if events == nil {
		panic("issuance.NewEngine: events is nil")
	}
	return &Engine{
		fund:    fund,
		valuer:  valuer,
		ledger:  ledger,
		custody: custody,
		events:  events,
		now:     time.Now,
	}
}

// Invest converts payment into exactly wantedShares at the current share
// price. A limit order: the investor gets the exact share count at a price
// not worse than payment/wantedShares, or nothing at all. Excess payment is
// refunded; a failed refund aborts the whole operation, since an unrefunded,
// uncredited payment is unacceptable.
func (e *Engine) Invest(ctx context.Context, investor string, payment, wantedShares decimal.Decimal) (Receipt, error) {
	if investor == "" {
		return Receipt{}, fmt.Errorf("%w: empty investor", domain.ErrInvalidArgument)
	}
	if !payment.IsPositive() {
		return Receipt{}, fmt.Errorf("%w: payment %s", domain.ErrInvalidArgument, payment)
	}
	if !wantedShares.IsPositive() {
		return Receipt{}, fmt.Errorf("%w: wanted shares %s", domain.ErrInvalidArgument, wantedShares)
	}

	release := e.fund.Exclusive()
	defer release()

	mark, commitFees, err := e.valuer.Quote(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("marking to market: %w", err)
	}
	price := mark.Delta

	cost, err := domain.CheckedMul(price, wantedShares)
	if err != nil {
		return Receipt{}, err
	}
	if cost.GreaterThan(payment) {
		return Receipt{}, fmt.Errorf("%w: cost %s exceeds payment %s",
			domain.ErrInsufficientPayment, cost, payment)
	}

	// Every checked addition the commit will perform is validated up front,
	// so nothing can fail after the external transfers have settled.
	state := e.fund.State()
	if _, err := domain.CheckedAdd(state.TotalShares, wantedShares); err != nil {
		return Receipt{}, err
	}
	if _, err := domain.CheckedAdd(state.SumInvested, cost); err != nil {
		return Receipt{}, err
	}
	if _, err := domain.CheckedAdd(e.ledger.BalanceOf(investor), wantedShares); err != nil {
		return Receipt{}, err
	}

	// Point of no return: the payment is forwarded into custody. From here
	// the operation either commits fully or compensates the deposit back out.
	if err := e.custody.Deposit(ctx, cost); err != nil {
		return Receipt{}, fmt.Errorf("%w: forwarding cost into custody: %w", domain.ErrExternalTransfer, err)
	}

	refund := payment.Sub(cost)
	if refund.IsPositive() {
		if err := e.custody.Refund(ctx, investor, refund); err != nil {
			e.compensate(ctx, investor, cost)
			return Receipt{}, fmt.Errorf("%w: refunding %s to %s: %w",
				domain.ErrExternalTransfer, refund, investor, err)
		}
	}

	if err := e.ledger.Mint(investor, wantedShares); err != nil {
		e.compensate(ctx, investor, cost)
		return Receipt{}, fmt.Errorf("minting %s shares to %s: %w", wantedShares, investor, err)
	}

	commitFees()
	e.fund.CommitIssue(wantedShares, cost, mark.Snapshot())

	e.record(ctx, domain.NewSharesIssued(investor, wantedShares, price, e.now()))
	if refund.IsPositive() {
		e.record(ctx, domain.NewRefunded(investor, refund, e.now()))
	}

	return Receipt{
		Investor: investor,
		Shares:   wantedShares,
		Price:    price,
		Cost:     cost,
		Refund:   refund,
	}, nil
}

// compensate returns a settled deposit to the investor after a later step of
// the operation failed. Failure here is logged for reconciliation; the
// operation has already failed either way.
func (e *Engine) compensate(ctx context.Context, investor string, cost decimal.Decimal) {
	if err := e.custody.TransferOut(ctx, investor, cost); err != nil {
		slog.Error("issuance: compensating transfer failed, manual reconciliation required",
			"investor", investor, "amount", cost.String(), "error", err)
	}
}

func (e *Engine) record(ctx context.Context, ev domain.Event) {
	if err := e.events.Record(ctx, ev); err != nil {
		slog.Warn("issuance: recording event failed", "kind", string(ev.Kind), "error", err)
	}
}
