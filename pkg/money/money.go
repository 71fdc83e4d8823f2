// Package money parses statement amount tokens into exact decimals and formats
// signed amounts for display. Parsing works on decimal.Decimal so no value is
// ever routed through float64; display goes through go-money for ISO-4217
// aware symbols and grouping.
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	INR = "INR" // Indian Rupee
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
	GBP = "GBP" // British Pound
)

var (
	// ErrEmptyAmount is returned for blank cells and tokens.
	ErrEmptyAmount = errors.New("empty amount")
	// ErrInvalidAmount is returned when a token has no numeric reading.
	ErrInvalidAmount = errors.New("invalid amount")
)

// currencyMarks are stripped before numeric parsing. Longer marks first so
// "Rs." is removed before "Rs".
var currencyMarks = []string{"INR", "Rs.", "Rs", "₹", "$", "€", "£", "¥"}

var drcrSuffix = regexp.MustCompile(`(?i)\s*\(?\b(dr|cr)\b\)?\.?\s*$`)

// ParseAmount parses a statement amount token such as "1,234.50", "₹ 250.00",
// "(45.00)", "-12.00" or "500.00 Dr". Thousands separators and currency marks
// are dropped. Parentheses, a leading minus and a trailing Dr marker produce a
// negative value; a trailing Cr marker is positive.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if m := drcrSuffix.FindStringSubmatch(s); m != nil {
		negative = strings.EqualFold(m[1], "dr")
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "+")

	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// Money is a signed amount in a single currency.
type Money struct {
	m *money.Money
}

// NewFromDecimal creates Money from a decimal value, rounding to the
// currency's minor unit.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currencyCode = INR
		currency = money.GetCurrency(INR)
	}

	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()

	return &Money{m: money.New(minor, currencyCode)}
}

// Amount returns the amount in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsNegative reports whether the amount is money out.
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Display returns a formatted string for display (e.g. "-₹1,234.50").
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// ToDecimal converts back to decimal.Decimal.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	divisor := decimal.New(1, int32(m.m.Currency().Fraction))
	return decimal.NewFromInt(m.m.Amount()).Div(divisor)
}

// String returns the plain decimal form with the currency's fraction digits.
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction))
}

// Format is a shorthand for NewFromDecimal(amount, code).Display().
func Format(amount decimal.Decimal, currencyCode string) string {
	return NewFromDecimal(amount, currencyCode).Display()
}
