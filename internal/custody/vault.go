// Package custody provides the adapter holding the fund's assets.
//
// Vault is the in-process custody adapter: it holds the base currency and
// the per-asset positions, settles outbound transfers and refunds, and keeps
// an append-only transfer log for reconciliation. The engines consume it
// through their own interfaces, so a remote custodian can be substituted
// without touching the core.
package custody

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
)

// Transfer is one settled outbound movement, recorded for reconciliation.
type Transfer struct {
	Recipient string
	AssetCode string // empty for base currency
	Amount    decimal.Decimal
	At        time.Time
}

// Vault holds the fund's base currency and asset positions.
type Vault struct {
	mu       sync.RWMutex
	base     decimal.Decimal
	holdings map[string]domain.AssetHolding
	log      []Transfer
	now      func() time.Time
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		base:     decimal.Zero,
		holdings: make(map[string]domain.AssetHolding),
		now:      time.Now,
	}
}

// Seed sets an asset position. Used at startup and by tests; positions are
// otherwise only reduced through TransferAsset.
func (v *Vault) Seed(asset domain.Asset, quantity decimal.Decimal, precision int32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.holdings[asset.Code] = domain.AssetHolding{Asset: asset, Quantity: quantity, Precision: precision}
}

// Deposit credits the base-currency balance.
func (v *Vault) Deposit(_ context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount %s", domain.ErrInvalidArgument, amount)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	base, err := domain.CheckedAdd(v.base, amount)
	if err != nil {
		return err
	}
	v.base = base
	return nil
}

// Available returns the base currency available for payouts.
func (v *Vault) Available(_ context.Context) (decimal.Decimal, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.base, nil
}

// TransferOut settles a base-currency payout to recipient. Fails without
// effect when the balance does not cover the amount.
func (v *Vault) TransferOut(_ context.Context, recipient string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: transfer amount %s", domain.ErrInvalidArgument, amount)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.base.LessThan(amount) {
		return fmt.Errorf("%w: %s available, %s requested", domain.ErrExternalTransfer, v.base, amount)
	}
	v.base = v.base.Sub(amount)
	v.log = append(v.log, Transfer{Recipient: recipient, Amount: amount, At: v.now()})
	return nil
}

// Refund returns part of an inbound payment to its sender. The amount never
// entered the vault balance, so only the transfer log is written.
func (v *Vault) Refund(_ context.Context, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: refund amount %s", domain.ErrInvalidArgument, amount)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.log = append(v.log, Transfer{Recipient: to, Amount: amount, At: v.now()})
	return nil
}

// Holding returns the vault's position in the given asset. Unknown assets
// are an empty position at the asset's registry precision.
func (v *Vault) Holding(_ context.Context, asset domain.Asset) (domain.AssetHolding, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if h, ok := v.holdings[asset.Code]; ok {
		return h, nil
	}
	return domain.AssetHolding{Asset: asset, Quantity: decimal.Zero, Precision: asset.Precision}, nil
}

// TransferAsset moves quantity of asset out of the vault to recipient.
func (v *Vault) TransferAsset(_ context.Context, recipient string, asset domain.Asset, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: asset transfer quantity %s", domain.ErrInvalidArgument, quantity)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	h, ok := v.holdings[asset.Code]
	if !ok || h.Quantity.LessThan(quantity) {
		return fmt.Errorf("%w: %s holding %s, %s requested",
			domain.ErrExternalTransfer, asset.Code, h.Quantity, quantity)
	}
	h.Quantity = h.Quantity.Sub(quantity)
	v.holdings[asset.Code] = h
	v.log = append(v.log, Transfer{Recipient: recipient, AssetCode: asset.Code, Amount: quantity, At: v.now()})
	return nil
}

// Transfers returns a copy of the settled transfer log.
func (v *Vault) Transfers() []Transfer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Transfer(nil), v.log...)
}

// Holdings returns a copy of all asset positions.
func (v *Vault) Holdings() []domain.AssetHolding {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return lo.Values(v.holdings)
}
