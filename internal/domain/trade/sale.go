package trade

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DeletedProductName is the sentinel shown for sale items whose product
// has been removed from the catalog. The item row itself is never broken
// by a product deletion.
const DeletedProductName = "[Deleted Product]"

// Sale represents a completed checkout. The customer link is optional.
type Sale struct {
	shared.BaseEntity
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(30);not null;default:'cash'"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// SaleItem is one line of a sale. ProductID is a soft reference: the catalog
// row may be deleted later without cascading into sales history, which is why
// the name and unit price are denormalized onto the item. A nil ProductID
// marks an item whose product no longer exists.
type SaleItem struct {
	shared.BaseEntity
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// NewSale creates a sale with the given items
func NewSale(customerID *uuid.UUID, paymentMethod string, items []SaleItem) (*Sale, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_SALE", "Sale requires at least one item")
	}
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	sale := &Sale{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		PaymentMethod: paymentMethod,
	}

	total := decimal.Zero
	for i := range items {
		items[i].SaleID = sale.ID
		total = total.Add(items[i].Subtotal)
	}
	sale.Items = items
	sale.Total = total

	return sale, nil
}

// NewSaleItem creates one sale line for the given product snapshot
func NewSaleItem(productID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal) (*SaleItem, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Sale item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Sale item price cannot be negative")
	}
	if productName == "" {
		productName = DeletedProductName
	}

	item := &SaleItem{
		BaseEntity:  shared.NewBaseEntity(),
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Subtotal:    unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
	if productID != uuid.Nil {
		item.ProductID = &productID
	}
	return item, nil
}

// DetachProduct clears the soft product reference after a catalog deletion
func (i *SaleItem) DetachProduct() {
	i.ProductID = nil
	i.ProductName = DeletedProductName
	i.Touch()
}

// DisplayName returns the denormalized product name, falling back to the
// deleted-product sentinel only when no name was ever recorded.
// DetachProduct writes the sentinel on real deletions, so a line whose
// soft reference simply never resolved keeps its imported name.
func (i *SaleItem) DisplayName() string {
	if i.ProductName != "" {
		return i.ProductName
	}
	return DeletedProductName
}
