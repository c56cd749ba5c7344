package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/wichananm65/pet-shop-checkout/internal/apperr"
)

const maxAddressLength = 500

func validateAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", apperr.InvalidInput("shipping address is required")
	}
	if utf8.RuneCountInString(address) > maxAddressLength {
		return "", apperr.InvalidInput("shipping address must be at most %d characters", maxAddressLength)
	}
	return address, nil
}

// paymentLast4 checks a card-like reference and returns the only part that
// is ever stored. Spaces and dashes are ignored.
func paymentLast4(ref string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, ref)

	if digits == "" {
		return "", apperr.InvalidInput("payment reference is required")
	}
	if len(digits) < 12 || len(digits) > 19 {
		return "", apperr.InvalidInput("payment reference must have 12 to 19 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", apperr.InvalidInput("payment reference must contain digits only")
		}
	}
	if !luhnValid(digits) {
		return "", apperr.InvalidInput("payment reference failed checksum")
	}
	return digits[len(digits)-4:], nil
}

func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
