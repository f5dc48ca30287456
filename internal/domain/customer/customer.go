package customer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a shop customer holding store credit.
// State is only reachable through methods that validate before mutating.
type Customer struct {
	id              string
	name            string
	email           string
	availableCredit decimal.Decimal
	createdAt       time.Time
	updatedAt       time.Time
}

// NewCustomer creates a new customer. Name, email format and credit are
// validated in that order; email uniqueness is the caller's concern.
func NewCustomer(id, name, email string, availableCredit float64) (*Customer, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateEmailFormat(email); err != nil {
		return nil, err
	}
	if err := ValidateAvailableCredit(availableCredit); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Customer{
		id:              id,
		name:            name,
		email:           email,
		availableCredit: decimal.NewFromFloat(availableCredit),
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Reconstitute rebuilds a customer from stored state without validation.
// Only repositories should call it.
func Reconstitute(id, name, email string, availableCredit decimal.Decimal, createdAt, updatedAt time.Time) *Customer {
	return &Customer{
		id:              id,
		name:            name,
		email:           email,
		availableCredit: availableCredit,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (c *Customer) ID() string                       { return c.id }
func (c *Customer) Name() string                     { return c.name }
func (c *Customer) Email() string                    { return c.email }
func (c *Customer) AvailableCredit() decimal.Decimal { return c.availableCredit }
func (c *Customer) CreatedAt() time.Time             { return c.createdAt }
func (c *Customer) UpdatedAt() time.Time             { return c.updatedAt }

// SetName validates and sets the customer name
func (c *Customer) SetName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	c.name = name
	c.touch()
	return nil
}

// SetEmail validates the format of email and sets it
func (c *Customer) SetEmail(email string) error {
	if err := ValidateEmailFormat(email); err != nil {
		return err
	}
	c.email = email
	c.touch()
	return nil
}

// SetAvailableCredit replaces the available credit
func (c *Customer) SetAvailableCredit(amount float64) error {
	if err := ValidateAvailableCredit(amount); err != nil {
		return err
	}
	c.availableCredit = decimal.NewFromFloat(amount)
	c.touch()
	return nil
}

// AddCredit adds a non-negative amount to the available credit.
// Adding zero is allowed and leaves the credit unchanged.
func (c *Customer) AddCredit(amount float64) error {
	if err := ValidateAvailableCredit(amount); err != nil {
		return err
	}
	c.availableCredit = c.availableCredit.Add(decimal.NewFromFloat(amount))
	c.touch()
	return nil
}

// Clone returns a copy that can be mutated independently
func (c *Customer) Clone() *Customer {
	cp := *c
	return &cp
}

func (c *Customer) touch() {
	c.updatedAt = time.Now()
}
