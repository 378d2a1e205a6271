package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLinearTimeFeeAccruesPerDay(t *testing.T) {
	f := NewLinearTimeFee(dec("2"), t0)

	fee := f.Accrue(t0.Add(36*time.Hour), decimal.Zero)
	if !fee.Equal(dec("3")) {
		t.Errorf("fee = %s, want 3 (1.5 days at rate 2/day)", fee)
	}
}

func TestLinearTimeFeeAccrueIsPure(t *testing.T) {
	f := NewLinearTimeFee(dec("1"), t0)
	at := t0.Add(24 * time.Hour)

	first := f.Accrue(at, decimal.Zero)
	second := f.Accrue(at, decimal.Zero)
	if !first.Equal(second) {
		t.Errorf("repeated Accrue disagreed: %s vs %s", first, second)
	}
}

func TestLinearTimeFeeRealizeAdvancesClock(t *testing.T) {
	f := NewLinearTimeFee(dec("1"), t0)
	at := t0.Add(48 * time.Hour)

	if fee := f.Realize(at, decimal.Zero); !fee.Equal(dec("2")) {
		t.Errorf("first realize = %s, want 2", fee)
	}
	// Clock restarted: same instant accrues nothing further.
	if fee := f.Realize(at, decimal.Zero); !fee.IsZero() {
		t.Errorf("second realize = %s, want 0", fee)
	}
}

func TestLinearTimeFeeClockNeverRewinds(t *testing.T) {
	f := NewLinearTimeFee(dec("1"), t0)
	if fee := f.Realize(t0.Add(-time.Hour), decimal.Zero); !fee.IsZero() {
		t.Errorf("fee for past instant = %s, want 0", fee)
	}
	if fee := f.Accrue(t0.Add(24*time.Hour), decimal.Zero); !fee.Equal(dec("1")) {
		t.Errorf("fee = %s, want 1 (clock must not rewind)", fee)
	}
}

func TestPerformanceFeeChargesAboveHighWaterMark(t *testing.T) {
	f := NewPerformanceFee(dec("0.2"), dec("100"))

	if fee := f.Accrue(t0, dec("150")); !fee.Equal(dec("10")) {
		t.Errorf("fee = %s, want 10 (20%% of 50 excess)", fee)
	}
	if fee := f.Accrue(t0, dec("80")); !fee.IsZero() {
		t.Errorf("fee below mark = %s, want 0", fee)
	}
}

func TestPerformanceFeeMarkAdvancesOnlyOnPositiveFee(t *testing.T) {
	f := NewPerformanceFee(dec("0.2"), dec("100"))

	f.Realize(t0, dec("80"))
	if !f.HighWaterMark().Equal(dec("100")) {
		t.Errorf("mark moved on zero fee: %s", f.HighWaterMark())
	}

	f.Realize(t0, dec("150"))
	if !f.HighWaterMark().Equal(dec("150")) {
		t.Errorf("mark = %s, want 150", f.HighWaterMark())
	}

	// Back under the new mark: no fee, mark holds.
	if fee := f.Realize(t0, dec("120")); !fee.IsZero() {
		t.Errorf("fee = %s, want 0", fee)
	}
	if !f.HighWaterMark().Equal(dec("150")) {
		t.Errorf("mark = %s, want 150", f.HighWaterMark())
	}
}

func TestNoneChargesNothing(t *testing.T) {
	var f None
	if !f.Accrue(t0, dec("1000")).IsZero() || !f.Realize(t0, dec("1000")).IsZero() {
		t.Error("None must never charge a fee")
	}
}
