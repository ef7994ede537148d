package inventory

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// IsValid reports whether the movement type is one of the known values
func (t MovementType) IsValid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// StockMovement records one change of on-hand quantity for a product.
// The supplier link is optional and is nulled, not deleted, when the
// supplier is removed.
type StockMovement struct {
	shared.BaseEntity
	ProductID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	SupplierID *uuid.UUID   `gorm:"type:uuid;index"`
	Type       MovementType `gorm:"type:varchar(20);not null"`
	Quantity   int          `gorm:"not null"`
	Reason     string       `gorm:"type:varchar(300)"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement records a quantity change for a product
func NewStockMovement(productID uuid.UUID, movementType MovementType, quantity int, reason string) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Stock movement requires a product")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown stock movement type")
	}
	if quantity == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock movement quantity cannot be zero")
	}

	return &StockMovement{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Type:       movementType,
		Quantity:   quantity,
		Reason:     reason,
	}, nil
}

// SetSupplier links the movement to a supplier; pass nil to clear the link
func (m *StockMovement) SetSupplier(supplierID *uuid.UUID) {
	m.SupplierID = supplierID
	m.Touch()
}
