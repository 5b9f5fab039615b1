// Package pricing converts fiat-denominated credit prices into settlement
// token amounts at a live exchange rate.
package pricing

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/ecotoken/storefront/types"
)

var baseUnitFactor = decimal.New(1, types.BaseUnitDecimals)

// Quote is the derived cost of a checkout selection.
type Quote struct {
	// TokenAmount is the transfer amount in whole tokens.
	TokenAmount decimal.Decimal
	// BaseUnits is the transfer amount in the token's smallest indivisible
	// unit, rounded half away from zero.
	BaseUnits *big.Int
	// FiatTotal is unit price times quantity.
	FiatTotal decimal.Decimal
	// Rate is the exchange rate the quote was derived at.
	Rate decimal.Decimal
}

// TokenAmount computes unitPrice * quantity / rate.
func TokenAmount(unitPrice, quantity, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("exchange rate must be positive, got %s", rate)
	}
	return unitPrice.Mul(quantity).Div(rate), nil
}

// BaseUnits converts a whole-token amount to smallest indivisible units.
func BaseUnits(amount decimal.Decimal) *big.Int {
	return amount.Mul(baseUnitFactor).Round(0).BigInt()
}

// ConvertDecimals rescales an amount from one fixed-point precision to
// another. Wallets use it to move the 8-decimal token amount into their
// chain's native denomination.
func ConvertDecimals(amount *big.Int, fromDecimals, toDecimals int) *big.Int {
	if fromDecimals == toDecimals {
		return new(big.Int).Set(amount)
	}

	result := new(big.Int).Set(amount)

	if fromDecimals > toDecimals {
		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(fromDecimals-toDecimals)), nil)
		return result.Div(result, divisor)
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(toDecimals-fromDecimals)), nil)
	return result.Mul(result, multiplier)
}

// NewQuote derives the full quote for a selection. Quantity is not required
// to be a positive integer here; gating non-positive quantities is the
// caller's concern.
func NewQuote(unitPrice, quantity, rate decimal.Decimal) (*Quote, error) {
	amount, err := TokenAmount(unitPrice, quantity, rate)
	if err != nil {
		return nil, err
	}

	return &Quote{
		TokenAmount: amount,
		BaseUnits:   BaseUnits(amount),
		FiatTotal:   unitPrice.Mul(quantity),
		Rate:        rate,
	}, nil
}
