package pricing

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTokenAmount(t *testing.T) {
	// 10 USD unit price, 2 credits, 8 USD/token
	amount, err := TokenAmount(decimal.NewFromInt(10), decimal.NewFromInt(2), decimal.NewFromInt(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amount.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("expected 2.5 tokens, got %s", amount)
	}

	units := BaseUnits(amount)
	if units.Cmp(big.NewInt(250000000)) != 0 {
		t.Errorf("expected 250000000 base units, got %s", units)
	}
}

func TestTokenAmountRejectsNonPositiveRate(t *testing.T) {
	for _, rate := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-3)} {
		if _, err := TokenAmount(decimal.NewFromInt(10), decimal.NewFromInt(1), rate); err == nil {
			t.Errorf("expected error for rate %s", rate)
		}
	}
}

func TestBaseUnitsRounding(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"2.5", 250000000},
		{"0.000000004", 0},       // below half a base unit rounds down
		{"0.000000005", 1},       // half rounds away from zero
		{"1.234567895", 123456790},
		{"0", 0},
	}

	for _, tc := range cases {
		got := BaseUnits(decimal.RequireFromString(tc.amount))
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Errorf("BaseUnits(%s) = %s, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestNewQuoteDeterministic(t *testing.T) {
	unit := decimal.RequireFromString("12.34")
	qty := decimal.RequireFromString("3")
	rate := decimal.RequireFromString("4.8812")

	first, err := NewQuote(unit, qty, rate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewQuote(unit, qty, rate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.TokenAmount.Equal(second.TokenAmount) {
		t.Errorf("token amount not deterministic: %s vs %s", first.TokenAmount, second.TokenAmount)
	}
	if first.BaseUnits.Cmp(second.BaseUnits) != 0 {
		t.Errorf("base units not deterministic: %s vs %s", first.BaseUnits, second.BaseUnits)
	}
	if first.BaseUnits.Sign() < 0 {
		t.Errorf("base units must be non-negative, got %s", first.BaseUnits)
	}
	if !first.FiatTotal.Equal(decimal.RequireFromString("37.02")) {
		t.Errorf("expected fiat total 37.02, got %s", first.FiatTotal)
	}
}

func TestNewQuoteFractionalQuantityAccepted(t *testing.T) {
	// The design does not validate quantity as a positive integer; fractional
	// input flows through the same arithmetic.
	q, err := NewQuote(decimal.NewFromInt(10), decimal.RequireFromString("0.5"), decimal.NewFromInt(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.TokenAmount.Equal(decimal.RequireFromString("0.625")) {
		t.Errorf("expected 0.625 tokens, got %s", q.TokenAmount)
	}
}
