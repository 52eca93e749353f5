// Package money provides currency-safe arithmetic on integer minor units.
// Statement totals are accumulated here so that summing hundreds of
// two-decimal amounts never drifts the way float addition does.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	ZAR = "ZAR" // South African Rand
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
	GBP = "GBP" // British Pound
	JPY = "JPY" // Japanese Yen (no decimal places)
)

var (
	// ErrCurrencyMismatch is returned when combining values of different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrOutOfRange is returned for amounts whose minor units overflow int64.
	ErrOutOfRange = errors.New("amount out of range")
)

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// Money represents a monetary value with currency.
// It wraps go-money for safe arithmetic and shopspring/decimal for conversions.
type Money struct {
	m *money.Money
}

// New creates a new Money value from minor units and currency code.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{
		m: money.New(amountCents, currencyCode),
	}
}

// NewFromDecimal creates Money from a decimal.Decimal value, rounding to
// the currency's minor unit. Amounts beyond the int64 range return
// ErrOutOfRange.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) (*Money, error) {
	multiplier := decimal.New(1, int32(fraction(currencyCode)))
	cents := amount.Mul(multiplier).Round(0)
	if cents.Abs().GreaterThan(maxMinorUnits) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, amount)
	}
	return New(cents.IntPart(), currencyCode), nil
}

// NewFromString parses a canonical decimal amount such as "1200.00" or
// "-45.50". Thousands separators and symbols are not accepted here; raw
// statement values go through the normalizer first.
func NewFromString(amount string, currencyCode string) (*Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	return NewFromDecimal(d, currencyCode)
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Known reports whether the code is an ISO-4217 currency.
func Known(currencyCode string) bool {
	return money.GetCurrency(currencyCode) != nil
}

func fraction(currencyCode string) int {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	return currency.Fraction
}

// Amount returns the amount in minor units (cents)
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

// IsZero returns true if the amount is zero
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return Zero(USD)
	}
	return &Money{m: m.m.Absolute()}
}

// Add adds two Money values. Returns error if currencies don't match.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return &Money{m: sum}, nil
}

// Equals reports whether both values have the same amount and currency.
func (m *Money) Equals(other *Money) bool {
	if m == nil || other == nil || m.m == nil || other.m == nil {
		return m.IsZero() && other.IsZero()
	}
	eq, err := m.m.Equals(other.m)
	return err == nil && eq
}

// ToDecimal converts to decimal.Decimal for precise calculations
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	d := decimal.NewFromInt(m.m.Amount())
	divisor := decimal.New(1, int32(m.m.Currency().Fraction))
	return d.Div(divisor)
}

// String returns the amount with the currency's minor unit digits (e.g., "1234.50")
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction))
}

// Sum adds values of a single currency. An empty input returns zero.
func Sum(currencyCode string, values ...*Money) (*Money, error) {
	total := Zero(currencyCode)
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return nil, err
		}
		total = next
	}
	return total, nil
}

// Total accumulates statement amounts exactly. Amounts keep the precision
// they were written with regardless of the currency's minor unit, and large
// values never wrap.
type Total struct {
	currency string
	sum      decimal.Decimal
}

// NewTotal starts an empty total in the given currency.
func NewTotal(currencyCode string) *Total {
	return &Total{currency: currencyCode}
}

// AddString parses a canonical decimal amount and adds it.
func (t *Total) AddString(amount string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	t.sum = t.sum.Add(d)
	return nil
}

// AddAbsString adds the absolute value of an amount.
func (t *Total) AddAbsString(amount string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	t.sum = t.sum.Add(d.Abs())
	return nil
}

// Currency returns the ISO-4217 code of the total.
func (t *Total) Currency() string {
	return t.currency
}

// Decimal returns the exact sum.
func (t *Total) Decimal() decimal.Decimal {
	return t.sum
}

// String formats the sum with two decimals, the statement convention.
func (t *Total) String() string {
	return t.sum.StringFixed(2)
}

// Money rounds the total to the currency's minor unit.
func (t *Total) Money() (*Money, error) {
	return NewFromDecimal(t.sum, t.currency)
}
