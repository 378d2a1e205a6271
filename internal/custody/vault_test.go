package custody

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var gold = domain.Asset{Code: "GOLD", Precision: 7, FeedSymbol: "gold"}

func TestDepositAndTransferOut(t *testing.T) {
	ctx := context.Background()
	v := NewVault()

	if err := v.Deposit(ctx, dec("100")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := v.TransferOut(ctx, "alice", dec("40")); err != nil {
		t.Fatalf("transfer out: %v", err)
	}

	available, _ := v.Available(ctx)
	if !available.Equal(dec("60")) {
		t.Errorf("available = %s, want 60", available)
	}

	transfers := v.Transfers()
	if len(transfers) != 1 || transfers[0].Recipient != "alice" || !transfers[0].Amount.Equal(dec("40")) {
		t.Errorf("transfer log = %+v", transfers)
	}
}

func TestTransferOutRejectsOverdraw(t *testing.T) {
	ctx := context.Background()
	v := NewVault()
	v.Deposit(ctx, dec("10"))

	err := v.TransferOut(ctx, "alice", dec("11"))
	if !errors.Is(err, domain.ErrExternalTransfer) {
		t.Fatalf("err = %v, want ErrExternalTransfer", err)
	}
	available, _ := v.Available(ctx)
	if !available.Equal(dec("10")) {
		t.Errorf("failed transfer changed balance: %s", available)
	}
}

func TestTransferAsset(t *testing.T) {
	ctx := context.Background()
	v := NewVault()
	v.Seed(gold, dec("12.5"), 7)

	if err := v.TransferAsset(ctx, "alice", gold, dec("2.5")); err != nil {
		t.Fatalf("transfer asset: %v", err)
	}

	h, _ := v.Holding(ctx, gold)
	if !h.Quantity.Equal(dec("10")) {
		t.Errorf("holding = %s, want 10", h.Quantity)
	}

	if err := v.TransferAsset(ctx, "alice", gold, dec("20")); !errors.Is(err, domain.ErrExternalTransfer) {
		t.Errorf("err = %v, want ErrExternalTransfer", err)
	}
}

func TestHoldingUnknownAssetIsEmpty(t *testing.T) {
	v := NewVault()
	h, err := v.Holding(context.Background(), gold)
	if err != nil {
		t.Fatalf("holding: %v", err)
	}
	if !h.Quantity.IsZero() || h.Precision != gold.Precision {
		t.Errorf("holding = %+v, want empty at precision %d", h, gold.Precision)
	}
}

func TestRefundOnlyLogs(t *testing.T) {
	ctx := context.Background()
	v := NewVault()
	v.Deposit(ctx, dec("5"))

	if err := v.Refund(ctx, "alice", dec("3")); err != nil {
		t.Fatalf("refund: %v", err)
	}
	available, _ := v.Available(ctx)
	if !available.Equal(dec("5")) {
		t.Errorf("refund drew on vault balance: %s", available)
	}
	if len(v.Transfers()) != 1 {
		t.Errorf("transfer log = %+v, want one refund entry", v.Transfers())
	}
}
