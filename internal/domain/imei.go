package domain

import (
	"fmt"
	"strings"
)

// IMEILength is the number of digits in a valid IMEI.
const IMEILength = 15

// IMEI is a trimmed, 15 digit identifier whose checksum has been verified.
type IMEI string

func (i IMEI) String() string {
	return string(i)
}

// ValidationErrorKind classifies IMEI validation failures.
type ValidationErrorKind string

const (
	ValidationEmpty       ValidationErrorKind = "EMPTY"
	ValidationNonDigit    ValidationErrorKind = "NON_DIGIT"
	ValidationWrongLength ValidationErrorKind = "WRONG_LENGTH"
	ValidationBadChecksum ValidationErrorKind = "BAD_CHECKSUM"
)

// Error lets a kind be used as an errors.Is target.
func (k ValidationErrorKind) Error() string {
	return string(k)
}

// ValidationError is returned by ValidateIMEI.
type ValidationError struct {
	Kind    ValidationErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches both the kind and another ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	switch t := target.(type) {
	case ValidationErrorKind:
		return e.Kind == t
	case *ValidationError:
		return t != nil && e.Kind == t.Kind
	}
	return false
}

// ValidateIMEI trims raw and checks it is a 15 digit string with a valid Luhn checksum.
func ValidateIMEI(raw string) (IMEI, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", &ValidationError{Kind: ValidationEmpty, Message: "IMEI cannot be empty"}
	}
	if !isDigits(value) {
		return "", &ValidationError{Kind: ValidationNonDigit, Message: "IMEI must contain only digits"}
	}
	if len(value) != IMEILength {
		return "", &ValidationError{
			Kind:    ValidationWrongLength,
			Message: fmt.Sprintf("IMEI must be exactly %d digits long, got %d digits", IMEILength, len(value)),
		}
	}
	if LuhnSum(value)%10 != 0 {
		return "", &ValidationError{Kind: ValidationBadChecksum, Message: "Invalid IMEI checksum"}
	}
	return IMEI(value), nil
}

// LuhnSum walks digits right to left, doubling every second one (folding values above 9)
// and returns the total. The caller guarantees digits holds only ASCII digits.
func LuhnSum(digits string) int {
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
	return sum
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
