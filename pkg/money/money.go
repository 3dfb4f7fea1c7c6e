// Package money formats whole-yen amounts and computes shares of a total.
// Statement amounts carry no minor unit, so every value here is an int64
// count of yen.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// JPY is the only currency a card statement is issued in.
const JPY = money.JPY

// Yen wraps go-money for display.
type Yen struct {
	m *money.Money
}

// NewYen creates a yen value.
func NewYen(amount int64) *Yen {
	return &Yen{m: money.New(amount, JPY)}
}

// Display renders the amount with the currency grapheme, e.g. "¥10,000".
func (y *Yen) Display() string {
	if y == nil || y.m == nil {
		return NewYen(0).Display()
	}
	return y.m.Display()
}

// Display is a shortcut for NewYen(amount).Display().
func Display(amount int64) string {
	return NewYen(amount).Display()
}

// Share returns part/total as a percentage rounded to two places.
// A zero total yields zero.
func Share(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).
		Div(decimal.NewFromInt(total)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
