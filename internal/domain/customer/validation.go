package customer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinNameLength is the minimum number of characters in a customer name
const MinNameLength = 3

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateName checks that name is not blank and long enough.
// Blankness is checked after trimming; length is counted on the value as given.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) < MinNameLength {
		return ErrNameTooShort
	}
	return nil
}

// ValidateEmailFormat checks email against the address pattern
func ValidateEmailFormat(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// ValidateEmail checks the format of email and that no stored customer uses it.
func ValidateEmail(ctx context.Context, email string, repo Repository) error {
	if err := ValidateEmailFormat(email); err != nil {
		return err
	}
	existing, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return ErrEmailAlreadyInUse
	}
	return nil
}

// ValidateAmount rejects amounts that are not finite numbers
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NewInvalidTypeError("amount", "number", fmt.Sprint(amount))
	}
	return nil
}

// ValidateAvailableCredit checks that amount is a finite, non-negative number
func ValidateAvailableCredit(amount float64) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if amount < 0 {
		return ErrNegativeCreditAmount
	}
	return nil
}

// ValidateCustomerExists fails with ErrCustomerNotFound when no customer has the given id.
func ValidateCustomerExists(ctx context.Context, id string, repo Repository) error {
	c, err := repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up customer: %w", err)
	}
	if c == nil {
		return ErrCustomerNotFound
	}
	return nil
}

// ValidateSortOrder resolves an optional sort order. A nil order means descending.
func ValidateSortOrder(order *string) (SortOrder, error) {
	if order == nil {
		return SortDesc, nil
	}
	switch SortOrder(*order) {
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	default:
		return "", ErrInvalidSortOrder
	}
}
