// Package money provides a fixed-point monetary value object.
//
// Amounts are stored as integers in the smallest currency unit (cents for
// USD) so that balance arithmetic is exact. All arithmetic operations
// require matching currencies.
package money

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidCurrencyCode is returned when a currency code is not a valid ISO 4217 code.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")

	// ErrCurrencyMismatch is returned when two Money values of different currencies are combined.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrAmountOverflow is returned when an operation would overflow the int64 amount.
	ErrAmountOverflow = errors.New("amount overflows maximum safe value")

	// ErrTooManyDecimals is returned when an amount has more decimal places than the currency allows.
	ErrTooManyDecimals = errors.New("amount has too many decimal places for currency")
)

// Code is an ISO 4217 currency code (3 uppercase letters).
type Code string

// DefaultCurrency is used when no currency code is supplied.
const DefaultCurrency Code = "USD"

// decimals maps supported currency codes to the number of digits after the
// decimal point in their main unit.
var decimals = map[Code]int{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"EGP": 2,
	"CAD": 2,
	"AUD": 2,
	"JPY": 0,
	"KWD": 3,
}

// IsValidFormat reports whether s has the shape of an ISO 4217 code.
func IsValidFormat(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// IsSupported reports whether the code is in the supported currency set.
func IsSupported(c Code) bool {
	_, ok := decimals[c]
	return ok
}

// Amount is a monetary amount in the smallest currency unit.
type Amount = int64

// Money is a monetary value in a specific currency.
//
// Invariants:
//   - the amount is stored in the smallest currency unit,
//   - the currency code is a supported ISO 4217 code.
type Money struct {
	amount   Amount
	currency Code
}

// New creates Money from an amount expressed in the currency's main unit
// (e.g. dollars for USD). The amount must not carry more decimal places
// than the currency allows.
func New(amount float64, currency Code) (Money, error) {
	c, dec, err := resolve(currency)
	if err != nil {
		return Money{}, err
	}
	factor := math.Pow10(dec)
	scaled := amount * factor
	if scaled > math.MaxInt64 || scaled < math.MinInt64 {
		return Money{}, ErrAmountOverflow
	}
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return Money{}, fmt.Errorf("%w: %v %s", ErrTooManyDecimals, amount, c)
	}
	return Money{amount: Amount(rounded), currency: c}, nil
}

// NewFromSmallestUnit creates Money directly from the smallest currency
// unit. Used for hydration from the store and for test fixtures.
func NewFromSmallestUnit(amount Amount, currency Code) (Money, error) {
	c, _, err := resolve(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: c}, nil
}

// Zero returns a zero value in the given currency.
func Zero(currency Code) (Money, error) {
	return NewFromSmallestUnit(0, currency)
}

func resolve(currency Code) (Code, int, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	if !IsValidFormat(string(currency)) {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, currency)
	}
	dec, ok := decimals[currency]
	if !ok {
		return "", 0, fmt.Errorf("%w: %q is not supported", ErrInvalidCurrencyCode, currency)
	}
	return currency, dec, nil
}

// Amount returns the amount in the smallest currency unit.
func (m Money) Amount() Amount { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Code { return m.currency }

// AmountFloat returns the amount in the currency's main unit.
func (m Money) AmountFloat() float64 {
	dec := decimals[m.currency]
	return float64(m.amount) / math.Pow10(dec)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount > 0 }

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool { return m.amount < 0 }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// IsSameCurrency reports whether both values share a currency.
func (m Money) IsSameCurrency(other Money) bool {
	return m.currency == other.currency
}

// Equals reports whether both values have the same amount and currency.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount == other.amount
}

// GreaterThan reports whether m > other. Currencies must match.
func (m Money) GreaterThan(other Money) (bool, error) {
	if !m.IsSameCurrency(other) {
		return false, ErrCurrencyMismatch
	}
	return m.amount > other.amount, nil
}

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, ErrCurrencyMismatch
	}
	sum := m.amount + other.amount
	if (other.amount > 0 && sum < m.amount) || (other.amount < 0 && sum > m.amount) {
		return Money{}, ErrAmountOverflow
	}
	return Money{amount: sum, currency: m.currency}, nil
}

// Sub returns m - other. Currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	neg, err := other.Negate()
	if err != nil {
		return Money{}, err
	}
	return m.Add(neg)
}

// Negate returns the value with the sign of the amount flipped.
func (m Money) Negate() (Money, error) {
	if m.amount == math.MinInt64 {
		return Money{}, ErrAmountOverflow
	}
	return Money{amount: -m.amount, currency: m.currency}, nil
}

// String renders the value as "12.34 USD".
func (m Money) String() string {
	dec := decimals[m.currency]
	return fmt.Sprintf("%.*f %s", dec, m.AmountFloat(), m.currency)
}
