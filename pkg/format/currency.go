// Package format renders monetary amounts for people.
package format

import (
	"github.com/Rhymond/go-money"
	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns an amount with a currency sign and thousands separators
// (e.g., "-$1,234.56") in the default currency.
func Currency(amount float64) string {
	return CurrencyIn(amount, constants.DefaultCurrency)
}

// CurrencyIn is Currency for an ISO 4217 code. Unknown codes fall back to
// the default currency.
func CurrencyIn(amount float64, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		code = constants.DefaultCurrency
		cur = money.GetCurrency(code)
	}

	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)

	display := money.New(minor.Abs().IntPart(), code).Display()
	if minor.IsNegative() {
		return "-" + display
	}
	return display
}
