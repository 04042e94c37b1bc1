package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhone is returned when a number cannot be parsed or is not a
// valid number for its region.
var ErrInvalidPhone = errors.New("invalid phone number")

// Phone is a parsed phone number in its stored form.
type Phone struct {
	// NationalNumber is the national significant number, digits only.
	NationalNumber string
	// CountryCode is the ISO 3166-1 alpha-2 region, upper case.
	CountryCode string
	// E164 is the delivery form, e.g. +84965445305.
	E164 string
}

// ParsePhone parses raw using countryCode as the default region. A number in
// international format overrides countryCode.
func ParsePhone(raw, countryCode string) (*Phone, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPhone)
	}

	num, err := phonenumbers.Parse(raw, strings.ToUpper(strings.TrimSpace(countryCode)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPhone, raw)
	}

	return &Phone{
		NationalNumber: phonenumbers.GetNationalSignificantNumber(num),
		CountryCode:    phonenumbers.GetRegionCodeForNumber(num),
		E164:           phonenumbers.Format(num, phonenumbers.E164),
	}, nil
}

// FormatE164 rebuilds the delivery form from a stored national number and region.
func FormatE164(nationalNumber, countryCode string) (string, error) {
	p, err := ParsePhone(nationalNumber, countryCode)
	if err != nil {
		return "", err
	}
	return p.E164, nil
}
