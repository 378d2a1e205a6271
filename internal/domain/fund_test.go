package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewFundIsEmpty(t *testing.T) {
	f := NewFund()
	st := f.State()

	if !st.TotalShares.IsZero() {
		t.Errorf("TotalShares = %s, want 0", st.TotalShares)
	}
	if !st.Analytics.NAV.IsZero() {
		t.Errorf("NAV = %s, want 0", st.Analytics.NAV)
	}
	if !st.Analytics.Delta.Equal(BaseUnit) {
		t.Errorf("Delta = %s, want 1", st.Analytics.Delta)
	}
	if !st.SharePrice.Equal(BaseUnit) {
		t.Errorf("SharePrice = %s, want 1", st.SharePrice)
	}
}

func TestCommitIssueAppliesAllFields(t *testing.T) {
	f := NewFund()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f.CommitIssue(dec("10"), dec("10"), AnalyticsSnapshot{NAV: decimal.Zero, Delta: BaseUnit, At: at})

	st := f.State()
	if !st.TotalShares.Equal(dec("10")) {
		t.Errorf("TotalShares = %s, want 10", st.TotalShares)
	}
	if !st.SumInvested.Equal(dec("10")) {
		t.Errorf("SumInvested = %s, want 10", st.SumInvested)
	}
	// Bookkeeping increment: snapshot NAV plus the invested cost.
	if !st.Analytics.NAV.Equal(dec("10")) {
		t.Errorf("NAV = %s, want 10", st.Analytics.NAV)
	}
}

func TestCommitRedeemKeepsCountersMonotone(t *testing.T) {
	f := NewFund()
	f.CommitIssue(dec("10"), dec("10"), AnalyticsSnapshot{NAV: decimal.Zero, Delta: BaseUnit})
	before := f.State()

	f.CommitRedeem(dec("5"), dec("10"), AnalyticsSnapshot{NAV: dec("20"), Delta: dec("2")})

	st := f.State()
	if !st.TotalShares.Equal(dec("5")) {
		t.Errorf("TotalShares = %s, want 5", st.TotalShares)
	}
	if !st.SumWithdrawn.Equal(dec("10")) {
		t.Errorf("SumWithdrawn = %s, want 10", st.SumWithdrawn)
	}
	if st.SumInvested.LessThan(before.SumInvested) {
		t.Error("SumInvested decreased")
	}
	if !st.Analytics.NAV.Equal(dec("10")) {
		t.Errorf("NAV = %s, want 10", st.Analytics.NAV)
	}
	if !st.SharePrice.Equal(dec("2")) {
		t.Errorf("SharePrice = %s, want 2", st.SharePrice)
	}
}

func TestCommitBurnLeavesAnalyticsUntouched(t *testing.T) {
	f := NewFund()
	f.CommitIssue(dec("10"), dec("10"), AnalyticsSnapshot{NAV: decimal.Zero, Delta: BaseUnit})
	analyticsBefore := f.Analytics()

	f.CommitBurn(dec("4"))

	if !f.TotalShares().Equal(dec("6")) {
		t.Errorf("TotalShares = %s, want 6", f.TotalShares())
	}
	if !f.Analytics().NAV.Equal(analyticsBefore.NAV) {
		t.Error("in-kind burn must not touch analytics")
	}
}
