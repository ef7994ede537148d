package partner

import (
	"github.com/pos/backend/internal/domain/shared"
)

// Customer represents a registered buyer. Sales reference customers
// optionally; walk-in sales carry no customer at all.
type Customer struct {
	shared.BaseEntity
	Name  string `gorm:"type:varchar(100);not null;index"`
	Phone string `gorm:"type:varchar(30);index"`
	Email string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(name string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 100 characters")
	}

	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
	}, nil
}

// Update updates the customer's contact information
func (c *Customer) Update(name, phone, email string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}

	c.Name = name
	c.Phone = phone
	c.Email = email
	c.Touch()

	return nil
}
