// Package money holds the Money value used by billing and point-of-sale.
// Amounts are integers in the currency's minor unit; decimal.Decimal is only
// used to parse and render them, never floating point.
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// zeroDecimal lists ISO-4217 currencies without a minor unit.
var zeroDecimal = map[string]struct{}{
	"CLP": {}, "ISK": {}, "JPY": {}, "KRW": {}, "PYG": {}, "UGX": {}, "VND": {}, "XAF": {}, "XOF": {},
}

// Money is an immutable non-negative amount in minor units plus its currency.
type Money struct {
	amount   int64
	currency string
}

// New validates and builds a Money value.
func New(amount int64, currency string) (Money, error) {
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	if amount < 0 {
		return Money{}, apperr.InvalidField("amount", "amount must not be negative")
	}
	return Money{amount: amount, currency: cur}, nil
}

// Zero returns a zero amount in currency. The currency must be valid.
func Zero(currency string) (Money, error) {
	return New(0, currency)
}

// Parse reads a major-unit decimal string such as "12.50" into minor units.
// More fractional digits than the currency supports is rejected.
func Parse(value, currency string) (Money, error) {
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}

	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Money{}, apperr.InvalidField("amount", "malformed amount")
	}
	if d.IsNegative() {
		return Money{}, apperr.InvalidField("amount", "amount must not be negative")
	}

	minor := d.Shift(exponent(cur))
	if !minor.Equal(minor.Truncate(0)) {
		return Money{}, apperr.InvalidField("amount", "too many fractional digits for "+cur)
	}
	if minor.GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return Money{}, apperr.InvalidField("amount", "amount out of range")
	}

	return Money{amount: minor.IntPart(), currency: cur}, nil
}

// MaxAmount is the largest amount, in minor units, a Money or stored total may hold.
const MaxAmount = int64(1<<62 - 1)

// NormalizeCurrency upper-cases and validates an ISO-4217 code.
func NormalizeCurrency(currency string) (string, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if !currencyPattern.MatchString(cur) {
		return "", apperr.InvalidField("currency", "currency must be a 3-letter ISO code")
	}
	return cur, nil
}

// Amount returns the minor-unit amount.
func (m Money) Amount() int64 { return m.amount }

// Currency returns the ISO code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// Equal compares amount and currency.
func (m Money) Equal(o Money) bool { return m.amount == o.amount && m.currency == o.currency }

// Add returns m + o.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	if m.amount > MaxAmount-o.amount {
		return Money{}, apperr.InvalidField("amount", "amount out of range")
	}
	return Money{amount: m.amount + o.amount, currency: m.currency}, nil
}

// Sub returns m - o; a negative result is rejected.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	if o.amount > m.amount {
		return Money{}, apperr.InvalidField("amount", "amount must not be negative")
	}
	return Money{amount: m.amount - o.amount, currency: m.currency}, nil
}

// Mul returns m * qty.
func (m Money) Mul(qty int64) (Money, error) {
	if qty < 0 {
		return Money{}, apperr.InvalidField("qty", "quantity must not be negative")
	}
	if qty != 0 && m.amount > MaxAmount/qty {
		return Money{}, apperr.InvalidField("amount", "amount out of range")
	}
	return Money{amount: m.amount * qty, currency: m.currency}, nil
}

// Decimal renders the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -exponent(m.currency))
}

// Major renders the amount in major units with the currency's fixed scale, e.g. "12.50".
func (m Money) Major() string {
	return m.Decimal().StringFixed(exponent(m.currency))
}

// String formats as "12.50 USD".
func (m Money) String() string {
	if m.currency == "" {
		return "0"
	}
	return m.Major() + " " + m.currency
}

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return apperr.InvalidField("currency", "currency mismatch: "+m.currency+" vs "+o.currency)
	}
	return nil
}

func exponent(currency string) int32 {
	if _, ok := zeroDecimal[currency]; ok {
		return 0
	}
	return 2
}
