// Package ledger provides the owner→shares balance store backing the fund.
//
// The transfer engines consume it through their own small interfaces; Book is
// the in-process implementation. It enforces the supply invariant locally:
// the sum of all balances always equals the total supply, and any mint or
// burn that would overflow or underflow is rejected before mutation.
package ledger

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
)

// Book is a thread-safe share register with a total-supply counter.
type Book struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
	supply   decimal.Decimal
}

// NewBook creates an empty share register.
func NewBook() *Book {
	return &Book{
		balances: make(map[string]decimal.Decimal),
		supply:   decimal.Zero,
	}
}

// BalanceOf returns the owner's share balance, zero for unknown owners.
func (b *Book) BalanceOf(owner string) decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[owner]
}

// TotalSupply returns the total number of shares in circulation.
func (b *Book) TotalSupply() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.supply
}

// Mint credits amount shares to owner. Rejects non-positive amounts and any
// balance or supply that would leave the representable range.
func (b *Book) Mint(owner string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: mint amount %s", domain.ErrInvalidArgument, amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	balance, err := domain.CheckedAdd(b.balances[owner], amount)
	if err != nil {
		return fmt.Errorf("minting to %s: %w", owner, err)
	}
	supply, err := domain.CheckedAdd(b.supply, amount)
	if err != nil {
		return fmt.Errorf("minting to %s: %w", owner, err)
	}

	b.balances[owner] = balance
	b.supply = supply
	return nil
}

// Burn debits amount shares from owner. Rejects non-positive amounts and
// burns exceeding the owner's balance.
func (b *Book) Burn(owner string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: burn amount %s", domain.ErrInvalidArgument, amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[owner].LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s, burning %s",
			domain.ErrInsufficientBalance, owner, b.balances[owner], amount)
	}

	balance := b.balances[owner].Sub(amount)
	if balance.IsZero() {
		delete(b.balances, owner)
	} else {
		b.balances[owner] = balance
	}
	b.supply = b.supply.Sub(amount)
	return nil
}

// Balances returns a copy of all owner balances.
func (b *Book) Balances() map[string]decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lo.Assign(map[string]decimal.Decimal{}, b.balances)
}
