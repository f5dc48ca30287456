package customer

import (
	"fmt"
	"net/http"

	"github.com/motoshop/backend/internal/domain/shared"
)

// StatusNegativeCreditAmount is the non-standard status code answered when a
// credit amount is negative. Existing API clients depend on it.
const StatusNegativeCreditAmount = 452

// Error codes
const (
	CodeInvalidType          = "INVALID_TYPE"
	CodeEmptyName            = "EMPTY_NAME"
	CodeNameTooShort         = "NAME_TOO_SHORT"
	CodeInvalidEmailFormat   = "INVALID_EMAIL_FORMAT"
	CodeEmailAlreadyInUse    = "EMAIL_ALREADY_IN_USE"
	CodeCustomerNotFound     = "CUSTOMER_NOT_FOUND"
	CodeNegativeCreditAmount = "NEGATIVE_CREDIT_AMOUNT"
	CodeInvalidSortOrder     = "INVALID_SORT_ORDER"
)

// Customer domain errors. Use errors.Is to test for a kind; InvalidType
// values built by NewInvalidTypeError match ErrInvalidType.
var (
	ErrInvalidType          = shared.NewDomainErrorWithStatus(CodeInvalidType, "Invalid type.", http.StatusBadRequest)
	ErrEmptyName            = shared.NewDomainErrorWithStatus(CodeEmptyName, "Name cannot be empty.", http.StatusBadRequest)
	ErrNameTooShort         = shared.NewDomainErrorWithStatus(CodeNameTooShort, fmt.Sprintf("Name must be at least %d characters long.", MinNameLength), http.StatusBadRequest)
	ErrInvalidEmailFormat   = shared.NewDomainErrorWithStatus(CodeInvalidEmailFormat, "Invalid email format.", http.StatusBadRequest)
	ErrEmailAlreadyInUse    = shared.NewDomainErrorWithStatus(CodeEmailAlreadyInUse, "Email is already in use.", http.StatusConflict)
	ErrCustomerNotFound     = shared.NewDomainErrorWithStatus(CodeCustomerNotFound, "Customer not found.", http.StatusNotFound)
	ErrNegativeCreditAmount = shared.NewDomainErrorWithStatus(CodeNegativeCreditAmount, "Credit amount cannot be negative.", StatusNegativeCreditAmount)
	ErrInvalidSortOrder     = shared.NewDomainErrorWithStatus(CodeInvalidSortOrder, "Invalid sort order. Use 'asc' or 'desc'.", http.StatusBadRequest)
)

// NewInvalidTypeError reports a property whose runtime type does not match
// the expected one.
func NewInvalidTypeError(property, expected, received string) *shared.DomainError {
	return shared.NewDomainErrorWithStatus(
		CodeInvalidType,
		fmt.Sprintf("Invalid type for property %s: expected %s, but received %s.", property, expected, received),
		http.StatusBadRequest,
	)
}
