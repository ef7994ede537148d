package exchange

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/persistence"
)

// testStore bundles a throwaway SQLite store with repositories over it
type testStore struct {
	categories        *persistence.GormCategoryRepository
	suppliers         *persistence.GormSupplierRepository
	products          *persistence.GormProductRepository
	customers         *persistence.GormCustomerRepository
	sales             *persistence.GormSaleRepository
	expenses          *persistence.GormExpenseRepository
	expenseCategories *persistence.GormExpenseCategoryRepository
	stockMovements    *persistence.GormStockMovementRepository
	bulkPricing       *persistence.GormBulkPricingRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "pos-test.db"),
		BusyTimeout: 5000,
	}
	db, err := persistence.NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate())

	return &testStore{
		categories:        persistence.NewGormCategoryRepository(db.DB),
		suppliers:         persistence.NewGormSupplierRepository(db.DB),
		products:          persistence.NewGormProductRepository(db.DB),
		customers:         persistence.NewGormCustomerRepository(db.DB),
		sales:             persistence.NewGormSaleRepository(db.DB),
		expenses:          persistence.NewGormExpenseRepository(db.DB),
		expenseCategories: persistence.NewGormExpenseCategoryRepository(db.DB),
		stockMovements:    persistence.NewGormStockMovementRepository(db.DB),
		bulkPricing:       persistence.NewGormBulkPricingRepository(db.DB),
	}
}

func (s *testStore) newImporter() *Importer {
	return NewImporter(s.categories, s.suppliers, s.products, s.customers,
		s.sales, s.expenses, s.expenseCategories, s.stockMovements,
		s.bulkPricing, zap.NewNop())
}

func (s *testStore) newExporter(store FileStore) *Exporter {
	return NewExporter(s.categories, s.suppliers, s.products, s.customers,
		s.sales, s.expenses, s.expenseCategories, s.stockMovements,
		s.bulkPricing, store, zap.NewNop())
}

func (s *testStore) newDetector() *Detector {
	return NewDetector(s.categories, s.suppliers, s.products, s.customers,
		s.sales, s.expenses, s.expenseCategories, zap.NewNop())
}

func (s *testStore) seedCategory(t *testing.T, name string) *catalog.Category {
	t.Helper()
	category, err := catalog.NewCategory(name, "")
	require.NoError(t, err)
	require.NoError(t, s.categories.Save(context.Background(), category))
	return category
}

func (s *testStore) seedSupplier(t *testing.T, name string) *partner.Supplier {
	t.Helper()
	supplier, err := partner.NewSupplier(name)
	require.NoError(t, err)
	require.NoError(t, s.suppliers.Save(context.Background(), supplier))
	return supplier
}

func (s *testStore) seedProduct(t *testing.T, name, price string, categoryID uuid.UUID) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(name, decimal.RequireFromString(price), categoryID)
	require.NoError(t, err)
	require.NoError(t, s.products.Save(context.Background(), product))
	return product
}
