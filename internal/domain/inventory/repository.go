package inventory

import (
	"github.com/pos/backend/internal/domain/shared"
)

// StockMovementRepository defines the persistence interface for stock movements
type StockMovementRepository interface {
	shared.Repository[StockMovement]
}
