package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind discriminates fund lifecycle events.
type EventKind string

const (
	EventSharesIssued   EventKind = "shares_issued"
	EventSharesRedeemed EventKind = "shares_redeemed"
	EventRefunded       EventKind = "refunded"
)

// Event records one committed effect of an issuance or redemption.
type Event struct {
	Kind EventKind `json:"kind"`
	// Party is the investor for issuance events, the owner for redemption
	// events and the recipient for refunds.
	Party      string          `json:"party"`
	Shares     decimal.Decimal `json:"shares"`
	Amount     decimal.Decimal `json:"amount"`
	Price      decimal.Decimal `json:"price"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewSharesIssued builds a SharesIssued event.
func NewSharesIssued(investor string, shares, price decimal.Decimal, at time.Time) Event {
	return Event{Kind: EventSharesIssued, Party: investor, Shares: shares, Price: price, OccurredAt: at}
}

// NewSharesRedeemed builds a SharesRedeemed event.
func NewSharesRedeemed(owner string, shares, price decimal.Decimal, at time.Time) Event {
	return Event{Kind: EventSharesRedeemed, Party: owner, Shares: shares, Price: price, OccurredAt: at}
}

// NewRefunded builds a Refunded event.
func NewRefunded(to string, amount decimal.Decimal, at time.Time) Event {
	return Event{Kind: EventRefunded, Party: to, Amount: amount, OccurredAt: at}
}
