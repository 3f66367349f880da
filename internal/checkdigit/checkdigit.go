// Package checkdigit computes the modulo 10 check digit AFIP requires at the
// end of the interleaved 2-of-5 barcode printed on electronic bills.
//
// Digits are weighted from the rightmost position: the last digit weighs 3,
// the one before it 1, alternating towards the left.
package checkdigit

import (
	"github.com/rezonia/afip-bill/internal/model"
)

// Calculate returns the check digit of digits as a character in '0'..'9'.
// The empty string yields '0'.
func Calculate(digits string) (byte, error) {
	sum, err := weightedSum(digits, 3)
	if err != nil {
		return 0, err
	}
	return byte('0' + (10-sum%10)%10), nil
}

// Append returns digits followed by its check digit
func Append(digits string) (string, error) {
	d, err := Calculate(digits)
	if err != nil {
		return "", err
	}
	return digits + string(d), nil
}

// Verify reports whether the last character of code is the check digit of
// the characters before it.
func Verify(code string) bool {
	if code == "" {
		return false
	}
	// With the check digit in place the weights shift by one position, so the
	// whole code must sum to a multiple of ten starting from weight 1.
	sum, err := weightedSum(code, 1)
	if err != nil {
		return false
	}
	return sum%10 == 0
}

func weightedSum(digits string, lastWeight int) (int, error) {
	sum := 0
	weight := lastWeight
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, model.NewInvalidInputError("digits", "check digit input must contain only decimal digits")
		}
		sum += int(c-'0') * weight
		weight = 4 - weight
	}
	return sum, nil
}
