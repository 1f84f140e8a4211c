package domain

import (
	"fmt"
	"math"
)

// MaxAmount bounds every price so the signed increment between two amounts is exact
const MaxAmount uint64 = math.MaxInt64

// Currency is the closed set of currencies an auction can be held in
type Currency string

const (
	CurrencyMYR Currency = "MYR"
	CurrencySGD Currency = "SGD"
)

// Valid reports whether c belongs to the supported currency set.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyMYR, CurrencySGD:
		return true
	}
	return false
}

// ParseCurrency converts an ISO code into a Currency.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(code)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// Price is a currency tagged monetary value in the minor unit of its currency.
type Price struct {
	Currency Currency `json:"currency"`
	Amount   uint64   `json:"amount"`
}

func NewPrice(currency Currency, amount uint64) Price {
	return Price{Currency: currency, Amount: amount}
}

// SameCurrency reports whether both prices can be compared.
func (p Price) SameCurrency(other Price) bool {
	return p.Currency == other.Currency
}

// Compare returns -1, 0 or 1 when p is lower, equal or higher than other.
// Prices in different currencies are not comparable.
func (p Price) Compare(other Price) (int, error) {
	if !p.SameCurrency(other) {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, p.Currency, other.Currency)
	}
	switch {
	case p.Amount < other.Amount:
		return -1, nil
	case p.Amount > other.Amount:
		return 1, nil
	}
	return 0, nil
}

func (p Price) String() string {
	return fmt.Sprintf("%s %d", p.Currency, p.Amount)
}

// InRange reports whether the amount is at most MaxAmount.
func (p Price) InRange() bool {
	return p.Amount <= MaxAmount
}

// incrementBetween returns next - prev as a signed value, both amounts are at most MaxAmount.
func incrementBetween(prev, next uint64) int64 {
	return int64(next) - int64(prev)
}
