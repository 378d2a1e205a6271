package ledger

import (
	"errors"
	"testing"

	"github.com/samber/lo"
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

// supplyMatchesBalances checks the register invariant: sum of all balances
// equals the total supply.
func supplyMatchesBalances(t *testing.T, b *Book) {
	t.Helper()
	sum := lo.Reduce(lo.Values(b.Balances()), func(acc decimal.Decimal, d decimal.Decimal, _ int) decimal.Decimal {
		return acc.Add(d)
	}, decimal.Zero)
	if !sum.Equal(b.TotalSupply()) {
		t.Fatalf("sum(balances) = %s, totalSupply = %s", sum, b.TotalSupply())
	}
}

func TestMintAndBurn(t *testing.T) {
	b := NewBook()

	if err := b.Mint("alice", dec("10")); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := b.Mint("bob", dec("5")); err != nil {
		t.Fatalf("mint: %v", err)
	}
	supplyMatchesBalances(t, b)

	if err := b.Burn("alice", dec("4")); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if !b.BalanceOf("alice").Equal(dec("6")) {
		t.Errorf("alice = %s, want 6", b.BalanceOf("alice"))
	}
	if !b.TotalSupply().Equal(dec("11")) {
		t.Errorf("supply = %s, want 11", b.TotalSupply())
	}
	supplyMatchesBalances(t, b)
}

func TestMintRejectsNonPositive(t *testing.T) {
	b := NewBook()
	for _, amount := range []string{"0", "-1"} {
		if err := b.Mint("alice", dec(amount)); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Mint(%s) err = %v, want ErrInvalidArgument", amount, err)
		}
	}
}

func TestBurnRejectsUnderflow(t *testing.T) {
	b := NewBook()
	b.Mint("alice", dec("3"))

	err := b.Burn("alice", dec("4"))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	// Failed burn must leave state untouched.
	if !b.BalanceOf("alice").Equal(dec("3")) {
		t.Errorf("alice = %s, want 3", b.BalanceOf("alice"))
	}
	supplyMatchesBalances(t, b)
}

func TestMintRejectsOverflow(t *testing.T) {
	b := NewBook()
	b.Mint("alice", decimal.New(1, 24))

	if err := b.Mint("alice", dec("1")); !errors.Is(err, domain.ErrArithmeticOverflow) {
		t.Errorf("err = %v, want ErrArithmeticOverflow", err)
	}
	supplyMatchesBalances(t, b)
}

func TestBurnToZeroRemovesOwner(t *testing.T) {
	b := NewBook()
	b.Mint("alice", dec("2"))
	b.Burn("alice", dec("2"))

	if len(b.Balances()) != 0 {
		t.Errorf("balances = %v, want empty", b.Balances())
	}
	supplyMatchesBalances(t, b)
}
