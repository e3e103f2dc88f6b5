// =============================================================================
// GAEB LV Tools - Monetary Rounding
// =============================================================================
//
// All prices in an LV are exact decimals (shopspring/decimal); binary floats
// are never stored or derived. This package holds the single rounding rule
// used everywhere a monetary value is computed: quantize to cents, ties away
// from zero (commercial "half up" rounding, never banker's rounding).
//
// =============================================================================

package money

import "github.com/shopspring/decimal"

// Round quantizes a monetary amount to two fractional digits with ties
// rounding away from zero: 2.005 -> 2.01. Round is idempotent.
//
// decimal.Decimal.Round implements exactly this tie-breaking rule, so Round
// exists to give the policy one name rather than scattering Round(2) calls.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundNull applies Round to a nullable amount, preserving invalidity.
func RoundNull(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NullDecimal{Decimal: Round(d.Decimal), Valid: true}
}
