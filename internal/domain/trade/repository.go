package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// SaleRepository defines the persistence interface for sales and their items
type SaleRepository interface {
	shared.Repository[Sale]

	// FindItemsBySale returns the line items of one sale
	FindItemsBySale(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error)

	// FindAllItems returns every sale item, used by the export pipeline
	FindAllItems(ctx context.Context) ([]SaleItem, error)

	// CountItems counts all sale items
	CountItems(ctx context.Context) (int64, error)
}
