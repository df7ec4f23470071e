// Package cuit validates Argentine taxpayer identifiers (CUIT/CUIL).
//
// An identifier has 11 digits: a two-digit type prefix, an eight-digit
// document number and a mod-11 check digit. Separators are ignored.
package cuit

import (
	"errors"
	"fmt"
	"strings"
)

// Length is the number of digits in a normalized identifier.
const Length = 11

// ErrInvalid is returned for any identifier that fails validation.
var ErrInvalid = errors.New("invalid CUIT")

var weights = [Length - 1]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// Normalize strips every non-digit character.
func Normalize(identifier string) string {
	var b strings.Builder
	b.Grow(len(identifier))
	for _, r := range identifier {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckDigit computes the check digit for the first ten digits of a
// normalized identifier.
func CheckDigit(digits string) (int, error) {
	if len(digits) < Length-1 {
		return 0, fmt.Errorf("%w: need %d digits to compute check digit", ErrInvalid, Length-1)
	}

	sum := 0
	for i, w := range weights {
		d := digits[i]
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("%w: non-digit at position %d", ErrInvalid, i)
		}
		sum += int(d-'0') * w
	}

	c := 11 - sum%11
	switch c {
	case 11:
		c = 0
	case 10:
		c = 9
	}
	return c, nil
}

// Validate reports whether identifier is a well-formed CUIT with a correct
// check digit. All returned errors wrap ErrInvalid.
func Validate(identifier string) error {
	digits := Normalize(identifier)
	if len(digits) != Length {
		return fmt.Errorf("%w: must have %d digits, got %d", ErrInvalid, Length, len(digits))
	}

	expected, err := CheckDigit(digits)
	if err != nil {
		return err
	}

	if int(digits[Length-1]-'0') != expected {
		return fmt.Errorf("%w: check digit mismatch", ErrInvalid)
	}
	return nil
}

// IsValid is a boolean shorthand for Validate.
func IsValid(identifier string) bool {
	return Validate(identifier) == nil
}

// Format renders a valid-length identifier as XX-XXXXXXXX-X. Inputs that do
// not normalize to 11 digits are returned unchanged.
func Format(identifier string) string {
	digits := Normalize(identifier)
	if len(digits) != Length {
		return identifier
	}
	return digits[:2] + "-" + digits[2:10] + "-" + digits[10:]
}
