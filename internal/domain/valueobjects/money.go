// Package valueobjects - Money is one of the most critical value objects in financial systems.
// It combines amount and currency to prevent common bugs like mixing currencies.
package valueobjects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money represents a monetary amount with its currency.
//
// Internal representation is integer minor units (kobo for NGN) rather than
// big.Rat: every amount the wallet ever handles already arrives quantized to
// two decimal places (provider quotes, webhook payloads, user-entered Naira
// amounts), so there is nothing for arbitrary-precision rational arithmetic
// to buy here, and kobo-integer arithmetic makes "balance >= 0" and "no
// margin on face-value products" checks exact by construction instead of by
// convention.
//
// Value Object Pattern:
// - Immutable: All operations return new Money instances
// - Self-validating: Cannot create invalid Money
// - Type-safe: Prevents mixing currencies
type Money struct {
	minorUnits int64
	currency   Currency
}

// Common domain errors for Money operations.
var (
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrCurrencyMismatch   = errors.New("cannot operate on different currencies")
	ErrInsufficientAmount = errors.New("insufficient amount")
	ErrInvalidAmount      = errors.New("invalid amount format")
)

// NewMoney creates a Money instance from a decimal major-unit string, e.g. "100.50".
func NewMoney(amountStr string, currency Currency) (Money, error) {
	amountStr = strings.TrimSpace(amountStr)
	if amountStr == "" {
		return Money{}, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	negative := false
	if strings.HasPrefix(amountStr, "-") {
		negative = true
		amountStr = amountStr[1:]
	}

	whole, frac, hasFrac := strings.Cut(amountStr, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac {
		switch len(frac) {
		case 0:
			frac = "00"
		case 1:
			frac += "0"
		case 2:
			// exact
		default:
			return Money{}, fmt.Errorf("%w: %s (more than 2 decimal places)", ErrInvalidAmount, amountStr)
		}
	} else {
		frac = "00"
	}

	wholeUnits, err := strconv.ParseInt(whole, 10, 63)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amountStr)
	}
	fracUnits, err := strconv.ParseInt(frac, 10, 63)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amountStr)
	}

	minorUnits := wholeUnits*100 + fracUnits
	if negative {
		minorUnits = -minorUnits
	}
	if minorUnits < 0 {
		return Money{}, ErrNegativeAmount
	}

	return Money{minorUnits: minorUnits, currency: currency}, nil
}

// NewMoneyFromInt creates Money from a whole major-unit amount (e.g. 100 Naira).
func NewMoneyFromInt(amount int64, currency Currency) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{minorUnits: amount * 100, currency: currency}, nil
}

// NewMoneyFromMinorUnits creates Money directly from kobo. This is the
// preferred constructor for hydrating Money from persisted storage, where
// amounts are always stored as the integer minor-unit column value.
func NewMoneyFromMinorUnits(minorUnits int64, currency Currency) (Money, error) {
	if minorUnits < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{minorUnits: minorUnits, currency: currency}, nil
}

// Zero creates a zero money amount for the given currency.
func Zero(currency Currency) Money {
	return Money{minorUnits: 0, currency: currency}
}

// Currency returns the currency of this money.
func (m Money) Currency() Currency {
	return m.currency
}

// MinorUnits returns the amount in kobo, the canonical storage representation.
func (m Money) MinorUnits() int64 {
	return m.minorUnits
}

// String returns a human-readable decimal representation, e.g. "100.50 NGN".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.DecimalString(), m.currency.Code())
}

// DecimalString returns the decimal major-unit representation alone, e.g. "100.50",
// the shape used when serializing amounts in API responses and provider payloads.
func (m Money) DecimalString() string {
	whole := m.minorUnits / 100
	frac := m.minorUnits % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d", whole, frac)
}

// Float64 returns the amount as float64. Use only for display/logging, never
// for arithmetic or comparisons - those stay on MinorUnits.
func (m Money) Float64() float64 {
	return float64(m.minorUnits) / 100
}

// Add returns a new Money with the sum of two amounts.
func (m Money) Add(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{minorUnits: m.minorUnits + other.minorUnits, currency: m.currency}, nil
}

// Subtract returns a new Money with the difference. Returns error if the
// result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}
	diff := m.minorUnits - other.minorUnits
	if diff < 0 {
		return Money{}, ErrInsufficientAmount
	}
	return Money{minorUnits: diff, currency: m.currency}, nil
}

// MultiplyRate returns a new Money scaled by a rate expressed in basis points
// (1/100 of a percent), rounding to the nearest kobo. Used for commission and
// fee calculations (e.g. rateBps=300 for a 3% provider commission).
func (m Money) MultiplyRate(rateBps int64) Money {
	// round-half-up on integer division to avoid silently losing kobo on every
	// commission calculation
	product := m.minorUnits*rateBps + 5000
	return Money{minorUnits: product / 10000, currency: m.currency}
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.minorUnits == 0
}

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.minorUnits > 0
}

// GreaterThan checks if this money is greater than another.
func (m Money) GreaterThan(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.minorUnits > other.minorUnits, nil
}

// GreaterThanOrEqual checks if this money is >= another.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.minorUnits >= other.minorUnits, nil
}

// LessThan checks if this money is less than another.
func (m Money) LessThan(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.minorUnits < other.minorUnits, nil
}

// Equals checks if two money values are equal (amount and currency).
func (m Money) Equals(other Money) bool {
	return m.currency.Equals(other.currency) && m.minorUnits == other.minorUnits
}
