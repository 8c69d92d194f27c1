package model

import "strings"

// CountryCode is an ISO 3166-1 alpha-2 code such as "JP".
type CountryCode string

// CurrencyCode is an ISO 4217 code such as "JPY".
type CurrencyCode string

// DefaultReferenceCountry is the country whose record carries the expiration
// of a bulk fetch.
const DefaultReferenceCountry CountryCode = "JP"

// NormalizeCountryCode trims and upper-cases a user supplied code.
func NormalizeCountryCode(s string) CountryCode {
	return CountryCode(strings.ToUpper(strings.TrimSpace(s)))
}

// IsValid reports whether c looks like an alpha-2 code.
func (c CountryCode) IsValid() bool {
	if len(c) != 2 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (c CountryCode) String() string {
	return string(c)
}

func (c CurrencyCode) String() string {
	return string(c)
}
