package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a throwaway store under t.TempDir with the full schema
func newTestDB(t *testing.T) *Database {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "pos-test.db"),
		BusyTimeout: 5000,
	}
	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate())
	return db
}

func seedCategory(t *testing.T, db *Database, name string) *catalog.Category {
	t.Helper()
	category, err := catalog.NewCategory(name, "")
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db.DB).Save(context.Background(), category))
	return category
}

func seedProduct(t *testing.T, db *Database, name string, price string, categoryID uuid.UUID) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(name, decimal.RequireFromString(price), categoryID)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db.DB).Save(context.Background(), product))
	return product
}
