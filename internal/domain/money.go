package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units. KRW has no sub-unit, so one
// minor unit is one won.
type Money int64

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m > 0
}

// Decimal returns m as a decimal for ratio and percentage math.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

func (m Money) String() string {
	return strconv.FormatInt(int64(m), 10)
}

// MoneyFromDecimal truncates d towards negative infinity to whole minor units.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Floor().IntPart())
}
