package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	INR Currency = "INR"
	CNY Currency = "CNY"
	JPY Currency = "JPY"
	KRW Currency = "KRW"
	KWD Currency = "KWD"
	BHD Currency = "BHD"
	OMR Currency = "OMR"
)

// DefaultCurrency is used when a voucher does not name one
const DefaultCurrency = USD

// defaultMinorUnits is the precision of any currency missing from the table
const defaultMinorUnits int32 = 2

var minorUnits = map[Currency]int32{
	JPY: 0,
	KRW: 0,
	KWD: 3,
	BHD: 3,
	OMR: 3,
}

// ParseCurrency normalizes and validates a three-letter currency code
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("invalid currency code %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("invalid currency code %q", code)
		}
	}
	return Currency(code), nil
}

// CurrencyPolicy provides the rounding precision for each currency
type CurrencyPolicy interface {
	MinorUnits(currency Currency) int32
}

// ISOCurrencyPolicy answers minor units from the ISO 4217 table
type ISOCurrencyPolicy struct {
	overrides map[Currency]int32
}

// NewISOCurrencyPolicy creates a policy, optionally overriding precision per currency
func NewISOCurrencyPolicy(overrides map[Currency]int32) *ISOCurrencyPolicy {
	return &ISOCurrencyPolicy{overrides: overrides}
}

// MinorUnits returns the number of decimal places used by the currency
func (p *ISOCurrencyPolicy) MinorUnits(currency Currency) int32 {
	if p != nil {
		if units, ok := p.overrides[currency]; ok {
			return units
		}
	}
	if units, ok := minorUnits[currency]; ok {
		return units
	}
	return defaultMinorUnits
}

// MinorUnit returns the smallest representable amount for the given precision (10^-places)
func MinorUnit(places int32) decimal.Decimal {
	return decimal.New(1, -places)
}

// RoundHalfUp rounds an amount to the given precision, ties away from zero
func RoundHalfUp(amount decimal.Decimal, places int32) decimal.Decimal {
	return amount.Round(places)
}

// Round rounds an amount to the currency's minor units using the policy
func Round(policy CurrencyPolicy, currency Currency, amount decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(amount, policy.MinorUnits(currency))
}

var _ CurrencyPolicy = (*ISOCurrencyPolicy)(nil)
