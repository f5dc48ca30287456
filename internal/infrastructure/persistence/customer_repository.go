package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/motoshop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCustomerRepository implements customer.Repository using GORM.
// The session must be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	model := models.CustomerModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return customer.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// FindAll returns every customer in creation order
func (r *GormCustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&customerModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return toDomainCustomers(customerModels), nil
}

// FindByID finds a customer by its ID. A missing customer yields nil, nil.
func (r *GormCustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find customer %s: %w", id, err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a customer by exact email. A missing customer yields nil, nil.
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}
	return model.ToDomain(), nil
}

// Update writes every mutable column of an existing customer
func (r *GormCustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	updatedAt := c.UpdatedAt()
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ?", c.ID()).
		Updates(map[string]any{
			"name":             c.Name(),
			"email":            c.Email(),
			"available_credit": c.AvailableCredit(),
			"updated_at":       updatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return customer.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("failed to update customer %s: %w", c.ID(), result.Error)
	}
	if result.RowsAffected == 0 {
		return customer.ErrCustomerNotFound
	}
	return nil
}

// Delete removes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete customer %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return customer.ErrCustomerNotFound
	}
	return nil
}

// FindByAvailableCredit returns customers with at least minCredit available
func (r *GormCustomerRepository) FindByAvailableCredit(ctx context.Context, minCredit decimal.Decimal) ([]*customer.Customer, error) {
	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("available_credit >= ?", minCredit).
		Order("created_at ASC").
		Order("id ASC").
		Find(&customerModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find customers by credit: %w", err)
	}
	return toDomainCustomers(customerModels), nil
}

// Clear removes every customer
func (r *GormCustomerRepository) Clear(ctx context.Context) error {
	if err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.CustomerModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear customers: %w", err)
	}
	return nil
}

// Count returns the number of stored customers
func (r *GormCustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

func toDomainCustomers(customerModels []models.CustomerModel) []*customer.Customer {
	customers := make([]*customer.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = customerModels[i].ToDomain()
	}
	return customers
}

var _ customer.Repository = (*GormCustomerRepository)(nil)
