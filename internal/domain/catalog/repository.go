package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// CategoryRepository defines the persistence interface for categories
type CategoryRepository interface {
	shared.NamedRepository[Category]

	// FindFirst returns the oldest category, used as the fallback parent
	// when a reference cannot be resolved any other way.
	FindFirst(ctx context.Context) (*Category, error)

	// HasProducts reports whether any product references the category
	HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error)
}

// ProductRepository defines the persistence interface for products
type ProductRepository interface {
	shared.NamedRepository[Product]

	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	FindByNameAndBarcode(ctx context.Context, name, barcode string) (*Product, error)
}

// BulkPricingRepository defines the persistence interface for bulk pricing tiers
type BulkPricingRepository interface {
	shared.Repository[BulkPricingTier]

	FindByProduct(ctx context.Context, productID uuid.UUID) ([]BulkPricingTier, error)
	ExistsForThreshold(ctx context.Context, productID uuid.UUID, minQuantity int) (bool, error)
}
