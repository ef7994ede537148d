package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BulkPricingTier grants a discounted unit price once the purchased quantity
// reaches MinQuantity. A product has at most one tier per distinct threshold,
// and the discounted price must undercut the regular price.
type BulkPricingTier struct {
	shared.BaseEntity
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bulk_product_qty,priority:1"`
	MinQuantity int             `gorm:"not null;uniqueIndex:idx_bulk_product_qty,priority:2"`
	BulkPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (BulkPricingTier) TableName() string {
	return "bulk_pricing_tiers"
}

// NewBulkPricingTier creates a pricing tier for the given product.
// The tier is rejected when bulk_price >= product.price.
func NewBulkPricingTier(product *Product, minQuantity int, bulkPrice decimal.Decimal) (*BulkPricingTier, error) {
	if product == nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Bulk pricing tier requires a product")
	}
	if minQuantity < 2 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Bulk pricing threshold must be at least 2")
	}
	if bulkPrice.GreaterThanOrEqual(product.Price) {
		return nil, shared.NewDomainError("INVALID_BULK_PRICE",
			fmt.Sprintf("Bulk price %s must be lower than the product price %s", bulkPrice, product.Price))
	}

	return &BulkPricingTier{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   product.ID,
		MinQuantity: minQuantity,
		BulkPrice:   bulkPrice,
	}, nil
}

// AppliesTo reports whether the tier applies to the given quantity
func (t *BulkPricingTier) AppliesTo(quantity int) bool {
	return quantity >= t.MinQuantity
}
