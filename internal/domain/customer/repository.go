package customer

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for customer persistence.
// Lookups return (nil, nil) when nothing matches; errors are reserved for
// storage failures.
type Repository interface {
	// Create stores a new customer
	Create(ctx context.Context, customer *Customer) error

	// FindAll returns every customer in insertion order
	FindAll(ctx context.Context) ([]*Customer, error)

	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id string) (*Customer, error)

	// FindByEmail finds a customer by email address
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	// Update replaces a stored customer. Returns ErrCustomerNotFound if the
	// customer is not stored.
	Update(ctx context.Context, customer *Customer) error

	// Delete removes a customer. Returns ErrCustomerNotFound if the customer
	// is not stored.
	Delete(ctx context.Context, id string) error

	// FindByAvailableCredit returns customers whose available credit is at
	// least minCredit, in insertion order
	FindByAvailableCredit(ctx context.Context, minCredit decimal.Decimal) ([]*Customer, error)

	// Clear removes every customer
	Clear(ctx context.Context) error
}
