package persistence

import (
	"fmt"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/trade"
)

// AutoMigrate creates the UUID-keyed schema for all entities.
// Stores still on the legacy integer-keyed layout are rewritten by the
// migration engine instead; this only applies to fresh or already
// migrated stores.
func (d *Database) AutoMigrate() error {
	err := d.DB.AutoMigrate(
		&catalog.Category{},
		&partner.Supplier{},
		&partner.Customer{},
		&catalog.Product{},
		&trade.Sale{},
		&trade.SaleItem{},
		&finance.ExpenseCategory{},
		&finance.Expense{},
		&inventory.StockMovement{},
		&catalog.BulkPricingTier{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}
