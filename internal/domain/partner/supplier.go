package partner

import (
	"github.com/pos/backend/internal/domain/shared"
)

// Supplier represents a goods supplier. Suppliers are matched by name
// during import.
type Supplier struct {
	shared.BaseEntity
	Name    string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Contact string `gorm:"type:varchar(100)"`
	Phone   string `gorm:"type:varchar(30)"`
	Email   string `gorm:"type:varchar(100)"`
	Address string `gorm:"type:varchar(300)"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier
func NewSupplier(name string) (*Supplier, error) {
	if err := validateSupplierName(name); err != nil {
		return nil, err
	}

	return &Supplier{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
	}, nil
}

// Update updates the supplier's contact information
func (s *Supplier) Update(name, contact, phone, email, address string) error {
	if err := validateSupplierName(name); err != nil {
		return err
	}

	s.Name = name
	s.Contact = contact
	s.Phone = phone
	s.Email = email
	s.Address = address
	s.Touch()

	return nil
}

// validateSupplierName validates the supplier name
func validateSupplierName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 100 characters")
	}
	return nil
}
