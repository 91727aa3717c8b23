package receipt

import (
	"github.com/shopspring/decimal"
)

// Money formats integer amounts held in minor currency units.
type Money struct {
	Currency string
	Exponent int32
}

// DefaultMoney is the won, which has no minor unit.
var DefaultMoney = Money{Currency: "원", Exponent: 0}

// Format renders minor as a fixed-point amount followed by the currency
func (m Money) Format(minor int64) string {
	amount := decimal.New(minor, -m.Exponent).StringFixed(m.Exponent)
	if m.Currency == "" {
		return amount
	}
	return amount + " " + m.Currency
}
