package money

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeResult = errors.New("amount would go negative")
)

// Money is a whole-tugrik amount. The tugrik has no subunits in this
// product, so one unit is 1₮.
type Money int64

func (m Money) Add(other Money) Money {
	return m + other
}

// Sub fails with ErrNegativeResult instead of producing a negative amount.
func (m Money) Sub(other Money) (Money, error) {
	if other > m {
		return 0, ErrNegativeResult
	}
	return m - other, nil
}

// MulPercent computes m × rate / 100 with banker's rounding. All interest
// and fee computation routes through here so totals stay deterministic.
func (m Money) MulPercent(rate decimal.Decimal) Money {
	result := decimal.NewFromInt(int64(m)).Mul(rate).Div(decimal.NewFromInt(100))
	return Money(result.RoundBank(0).IntPart())
}

func (m Money) Int64() int64 {
	return int64(m)
}

// Format renders an amount with thousands separators, e.g. 50900 -> "50,900".
func (m Money) Format() string {
	negative := m < 0
	value := int64(m)
	if negative {
		value = -value
	}
	digits := strconv.FormatInt(value, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	formatted := strings.Join(groups, ",")
	if negative {
		return "-" + formatted
	}
	return formatted
}

// Parse reads a whole-tugrik amount. Fractions are rejected outright since
// the currency has no subunits.
func Parse(input string) (Money, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(input, ",", ""))
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	if strings.ContainsRune(trimmed, '.') {
		return 0, ErrInvalidAmount
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || value < 0 {
		return 0, ErrInvalidAmount
	}
	return Money(value), nil
}
