// Package money converts minor-unit amounts for display and provider requests.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of decimal places stored in *_cents columns.
const MinorUnitExponent = 2

// FromCents returns the major-unit value of an amount stored in minor units.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -MinorUnitExponent)
}

// Format renders cents with grouped thousands, dropping a zero fraction:
// 2500000 -> "25,000", 2500050 -> "25,000.50".
func Format(cents int64) string {
	amount := FromCents(cents)
	negative := amount.IsNegative()
	amount = amount.Abs()

	whole := amount.Truncate(0)
	frac := amount.Sub(whole)

	out := group(whole.String())
	if !frac.IsZero() {
		out += strings.TrimPrefix(frac.StringFixed(MinorUnitExponent), "0")
	}
	if negative {
		return "-" + out
	}
	return out
}

// Label prefixes the formatted amount with the currency code: "TZS 25,000".
func Label(currency string, cents int64) string {
	return strings.ToUpper(strings.TrimSpace(currency)) + " " + Format(cents)
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
