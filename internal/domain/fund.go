package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsSnapshot is the fund's last mark-to-market result. It is rewritten
// as a whole on every valuation; Delta is the compounding performance index
// used as the price-per-share multiplier, deliberately decoupled from
// investment flows so fee and market effects persist across deposits and
// withdrawals.
type AnalyticsSnapshot struct {
	NAV   decimal.Decimal `json:"nav"`
	Delta decimal.Decimal `json:"delta"`
	At    time.Time       `json:"at"`
}

// FundState is a consistent read-only view of the fund's committed state.
type FundState struct {
	TotalShares  decimal.Decimal   `json:"totalShares"`
	SumInvested  decimal.Decimal   `json:"sumInvested"`
	SumWithdrawn decimal.Decimal   `json:"sumWithdrawn"`
	SharePrice   decimal.Decimal   `json:"sharePrice"`
	Analytics    AnalyticsSnapshot `json:"analytics"`
}

// Fund is the pooled-fund aggregate. A fund is created empty and never
// deleted; sumInvested and sumWithdrawn only ever grow.
//
// Mutating operations (invest, redeem, mark-to-market) are fully serialized:
// each one holds the gate returned by Exclusive for its whole duration, so no
// two operations interleave effects. Field state is committed in a single
// Commit* call under the inner lock, so concurrent readers observe either the
// state before an operation or after it, never a torn intermediate.
type Fund struct {
	gate sync.Mutex

	mu           sync.RWMutex
	totalShares  decimal.Decimal
	sumInvested  decimal.Decimal
	sumWithdrawn decimal.Decimal
	sharePrice   decimal.Decimal
	analytics    AnalyticsSnapshot
}

// NewFund creates an empty fund: no shares, NAV zero, delta at one base unit.
func NewFund() *Fund {
	return &Fund{
		totalShares:  decimal.Zero,
		sumInvested:  decimal.Zero,
		sumWithdrawn: decimal.Zero,
		sharePrice:   BaseUnit,
		analytics: AnalyticsSnapshot{
			NAV:   decimal.Zero,
			Delta: BaseUnit,
		},
	}
}

// Exclusive acquires the fund's single-writer gate and returns its release.
// Every mutating operation runs entirely between Exclusive and release.
func (f *Fund) Exclusive() (release func()) {
	f.gate.Lock()
	return f.gate.Unlock
}

// State returns a consistent snapshot of the committed fund state.
func (f *Fund) State() FundState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return FundState{
		TotalShares:  f.totalShares,
		SumInvested:  f.sumInvested,
		SumWithdrawn: f.sumWithdrawn,
		SharePrice:   f.sharePrice,
		Analytics:    f.analytics,
	}
}

// Analytics returns the last committed mark-to-market snapshot.
func (f *Fund) Analytics() AnalyticsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.analytics
}

// TotalShares returns the committed share supply.
func (f *Fund) TotalShares() decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.totalShares
}

// CommitMark commits a mark-to-market snapshot and the share price derived
// from it. Caller holds the gate.
func (f *Fund) CommitMark(snap AnalyticsSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analytics = snap
	f.sharePrice = snap.Delta
}

// CommitIssue commits all in-memory effects of a successful issuance: the
// fresh valuation snapshot, the minted shares, the invested cost and the
// bookkeeping NAV increment. One atomic commit, applied only after every
// external transfer has succeeded.
func (f *Fund) CommitIssue(shares, cost decimal.Decimal, snap AnalyticsSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap.NAV = snap.NAV.Add(cost)
	f.analytics = snap
	f.sharePrice = snap.Delta
	f.totalShares = f.totalShares.Add(shares)
	f.sumInvested = f.sumInvested.Add(cost)
}

// CommitRedeem commits all in-memory effects of a successful cash redemption.
func (f *Fund) CommitRedeem(shares, payout decimal.Decimal, snap AnalyticsSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap.NAV = snap.NAV.Sub(payout)
	f.analytics = snap
	f.sharePrice = snap.Delta
	f.totalShares = f.totalShares.Sub(shares)
	f.sumWithdrawn = f.sumWithdrawn.Add(payout)
}

// CommitBurn commits the share-supply reduction of an in-kind redemption.
// In-kind redemption has no pricing step, so analytics are left untouched.
func (f *Fund) CommitBurn(shares decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalShares = f.totalShares.Sub(shares)
}
