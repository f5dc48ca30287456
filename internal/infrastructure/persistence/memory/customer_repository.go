// Package memory provides in-process repository implementations for local
// development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/shopspring/decimal"
)

// CustomerRepository keeps customers in a slice, in insertion order.
// Stored values are copies, so callers cannot mutate repository state
// without calling Update.
type CustomerRepository struct {
	mu        sync.RWMutex
	customers []*customer.Customer
}

// NewCustomerRepository creates an empty in-memory repository
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{}
}

// Create appends a new customer
func (r *CustomerRepository) Create(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(c.ID()) >= 0 {
		return fmt.Errorf("customer %s already exists", c.ID())
	}
	r.customers = append(r.customers, c.Clone())
	return nil
}

// FindAll returns every customer in insertion order
func (r *CustomerRepository) FindAll(_ context.Context) ([]*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*customer.Customer, len(r.customers))
	for i, c := range r.customers {
		result[i] = c.Clone()
	}
	return result, nil
}

// FindByID finds a customer by its ID
func (r *CustomerRepository) FindByID(_ context.Context, id string) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.customers[i].Clone(), nil
	}
	return nil, nil
}

// FindByEmail returns the first customer with the given email
func (r *CustomerRepository) FindByEmail(_ context.Context, email string) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.customers {
		if c.Email() == email {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

// Update replaces a stored customer in place, keeping its position
func (r *CustomerRepository) Update(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(c.ID())
	if i < 0 {
		return customer.ErrCustomerNotFound
	}
	r.customers[i] = c.Clone()
	return nil
}

// Delete removes a customer
func (r *CustomerRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return customer.ErrCustomerNotFound
	}
	r.customers = slices.Delete(r.customers, i, i+1)
	return nil
}

// FindByAvailableCredit returns customers with at least minCredit available
func (r *CustomerRepository) FindByAvailableCredit(_ context.Context, minCredit decimal.Decimal) ([]*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*customer.Customer, 0)
	for _, c := range r.customers {
		if c.AvailableCredit().GreaterThanOrEqual(minCredit) {
			result = append(result, c.Clone())
		}
	}
	return result, nil
}

// Clear removes every customer
func (r *CustomerRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.customers = nil
	return nil
}

// Count returns the number of stored customers
func (r *CustomerRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.customers)), nil
}

func (r *CustomerRepository) indexOf(id string) int {
	return slices.IndexFunc(r.customers, func(c *customer.Customer) bool {
		return c.ID() == id
	})
}

var _ customer.Repository = (*CustomerRepository)(nil)
