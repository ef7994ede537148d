package catalog

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a sellable item in the catalog.
// Every product belongs to a category; the supplier link is optional.
type Product struct {
	shared.BaseEntity
	Name       string          `gorm:"type:varchar(200);not null;index"`
	Barcode    string          `gorm:"type:varchar(50);index"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cost       decimal.Decimal `gorm:"type:decimal(12,2)"`
	Stock      int             `gorm:"not null;default:0"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierID *uuid.UUID      `gorm:"type:uuid;index"`
	// ImagePath is operator-owned: the import pipeline never overwrites it
	// on existing products and new imports always start without one.
	ImagePath string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product in the given category
func NewProduct(name string, price decimal.Decimal, categoryID uuid.UUID) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Product requires a category")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Price:      price,
		CategoryID: categoryID,
	}, nil
}

// Update updates the product's mutable fields
func (p *Product) Update(name string, price, cost decimal.Decimal) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	p.Name = name
	p.Price = price
	p.Cost = cost
	p.Touch()

	return nil
}

// SetBarcode sets the product barcode
func (p *Product) SetBarcode(barcode string) error {
	if len(barcode) > 50 {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 50 characters")
	}
	p.Barcode = barcode
	p.Touch()
	return nil
}

// SetSupplier links the product to a supplier; pass nil to clear the link
func (p *Product) SetSupplier(supplierID *uuid.UUID) {
	p.SupplierID = supplierID
	p.Touch()
}

// SetStock sets the on-hand quantity
func (p *Product) SetStock(qty int) {
	p.Stock = qty
	p.Touch()
}

// SetImagePath sets the operator-owned image reference
func (p *Product) SetImagePath(path string) {
	p.ImagePath = path
	p.Touch()
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
