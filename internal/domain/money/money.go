// Package money provides the fixed-point monetary value object used across
// the ledger. Amounts are arbitrary-precision decimals; combining two
// different currencies without an explicit conversion fails.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrCurrencyMismatch      = errors.New("currency mismatch")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
)

// Money represents an amount in a specific currency.
// The zero value is 0 units of the empty currency and is not valid for
// ledger operations; construct values with New or Zero.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New creates a Money value in the given currency.
func New(amount decimal.Decimal, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrencyFormat
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewFromString parses a decimal string amount into a Money value.
func NewFromString(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("amount must be numeric: %w", err)
	}
	return New(d, currency)
}

// Zero returns 0 in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns m + other. Fails if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot add %s to %s: %w", other.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Fails if the currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot subtract %s from %s: %w", other.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Mul multiplies the amount by rate and rounds half-up to the currency's
// decimal places.
func (m Money) Mul(rate decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(rate), Currency: m.Currency}.Round()
}

// Percent returns rate percent of the amount, rounded half-up to the
// currency's decimal places. Percent(d, 1.5) is 1.5% of d.
func (m Money) Percent(rate decimal.Decimal) Money {
	return m.Mul(rate.Div(decimal.NewFromInt(100)))
}

// Round rounds the amount half-up to the currency's decimal places.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.Round(DecimalPlaces(m.Currency)), Currency: m.Currency}
}

// Cmp compares two amounts of the same currency.
// Returns -1 if m < other, 0 if equal, 1 if m > other.
func (m Money) Cmp(other Money) (int, error) {
	if m.Currency != other.Currency {
		return 0, fmt.Errorf("cannot compare %s with %s: %w", m.Currency, other.Currency, ErrCurrencyMismatch)
	}
	return m.Amount.Cmp(other.Amount), nil
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// LessThan reports whether m < other. Panics on currency mismatch; callers
// comparing untrusted values should use Cmp.
func (m Money) LessThan(other Money) bool {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: comparing %s with %s", m.Currency, other.Currency))
	}
	return m.Amount.LessThan(other.Amount)
}

// String formats the amount at the currency's decimal places, e.g. "40.00 USD".
func (m Money) String() string {
	return m.Amount.StringFixed(DecimalPlaces(m.Currency)) + " " + m.Currency
}
