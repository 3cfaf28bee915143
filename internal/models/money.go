package models

import "github.com/shopspring/decimal"

// FormatAmount renders a currency amount, omitting cents when the amount is whole
func FormatAmount(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	if amount.Equal(amount.Truncate(0)) {
		return sign + "$" + amount.StringFixed(0)
	}
	return sign + "$" + amount.StringFixed(2)
}

// FormatDelta renders a signed price delta such as "+$3" or "-$2"
func FormatDelta(delta decimal.Decimal) string {
	if delta.IsNegative() {
		return FormatAmount(delta)
	}
	return "+" + FormatAmount(delta)
}
