package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidDescription   = errors.New("invalid description")
	ErrInvalidName          = errors.New("invalid name")
)

// Validation constants
const (
	MaxAccountNumberLength = 32
	MaxDescriptionLength   = 100
	MaxNameLength          = 50
)

var accountNumberRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)

// ValidateAccountNumber validates an account number such as "110-234-567890".
func ValidateAccountNumber(number string) error {
	number = strings.TrimSpace(number)

	if number == "" {
		return fmt.Errorf("%w: number cannot be empty", ErrInvalidAccountNumber)
	}

	if len(number) > MaxAccountNumberLength {
		return fmt.Errorf("%w: number exceeds %d characters", ErrInvalidAccountNumber, MaxAccountNumberLength)
	}

	if !accountNumberRegex.MatchString(number) {
		return fmt.Errorf("%w: only letters, digits and dashes are allowed", ErrInvalidAccountNumber)
	}

	return nil
}

// ValidateDescription validates a transfer description.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidDescription)
	}

	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}

	return nil
}

// ValidateName validates category and goal names.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
