package models

import (
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer entity
type CustomerModel struct {
	BaseModel
	Name            string          `gorm:"type:varchar(255);not null"`
	Email           string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_customers_email"`
	AvailableCredit decimal.Decimal `gorm:"type:numeric;not null;default:0;index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain rebuilds the domain entity without re-running validation
func (m *CustomerModel) ToDomain() *customer.Customer {
	return customer.Reconstitute(m.ID, m.Name, m.Email, m.AvailableCredit, m.CreatedAt, m.UpdatedAt)
}

// FromDomain copies the entity state into the model
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.ID = c.ID()
	m.Name = c.Name()
	m.Email = c.Email()
	m.AvailableCredit = c.AvailableCredit()
	m.CreatedAt = c.CreatedAt()
	m.UpdatedAt = c.UpdatedAt()
}

// CustomerModelFromDomain creates a model from a domain entity
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
