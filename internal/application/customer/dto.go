package customer

import (
	"encoding/json"
	"time"

	"github.com/motoshop/backend/internal/domain/customer"
)

// CreateCustomerRequest represents a request to create a new customer.
// Fields are pointers so that a missing field can be told apart from an
// empty one. Presence is checked by the service, in validation order.
type CreateCustomerRequest struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	AvailableCredit *float64 `json:"availableCredit"`

	typeErrs fieldTypeErrors
}

// UnmarshalJSON decodes each property on its own. A property with the wrong
// JSON type is reported when validation reaches it, not while decoding.
func (r *CreateCustomerRequest) UnmarshalJSON(data []byte) error {
	var raw customerBody
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = CreateCustomerRequest{}
	return raw.decodeInto(&r.Name, &r.Email, &r.AvailableCredit, &r.typeErrs)
}

// UpdateCustomerRequest represents a partial update; nil fields are left unchanged
type UpdateCustomerRequest struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	AvailableCredit *float64 `json:"availableCredit"`

	typeErrs fieldTypeErrors
}

// UnmarshalJSON decodes each property on its own, like CreateCustomerRequest
func (r *UpdateCustomerRequest) UnmarshalJSON(data []byte) error {
	var raw customerBody
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = UpdateCustomerRequest{}
	return raw.decodeInto(&r.Name, &r.Email, &r.AvailableCredit, &r.typeErrs)
}

// AddCreditRequest represents a request to add credit to a customer
type AddCreditRequest struct {
	ID     *string  `json:"id" binding:"required"`
	Amount *float64 `json:"amount" binding:"required"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	AvailableCredit float64   `json:"availableCredit"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:              c.ID(),
		Name:            c.Name(),
		Email:           c.Email(),
		AvailableCredit: c.AvailableCredit().InexactFloat64(),
		CreatedAt:       c.CreatedAt(),
		UpdatedAt:       c.UpdatedAt(),
	}
}

// ToCustomerResponses converts a slice of domain Customers to responses
func ToCustomerResponses(customers []*customer.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		responses[i] = ToCustomerResponse(c)
	}
	return responses
}
