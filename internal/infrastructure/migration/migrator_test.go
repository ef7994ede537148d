package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type migratedRef struct {
	ID         string
	CategoryID *string
	SupplierID *string
	ImagePath  string
}

func TestMigrator_Run(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)
	seedLegacyStore(t, db)

	snapshotter := &fakeSnapshotter{}
	migrator := NewMigrator(db, snapshotter, zap.NewNop())

	result, err := migrator.Run(ctx)
	require.NoError(t, err)
	require.True(t, result.Migrated)

	t.Run("row counts survive the rewrite", func(t *testing.T) {
		assert.Equal(t, int64(2), result.RowCounts["categories"])
		assert.Equal(t, int64(1), result.RowCounts["suppliers"])
		assert.Equal(t, int64(3), result.RowCounts["products"])
		assert.Equal(t, int64(1), result.RowCounts["sales"])
		assert.Equal(t, int64(2), result.RowCounts["sale_items"])
	})

	t.Run("identifiers are rewritten to UUIDs", func(t *testing.T) {
		var ids []string
		require.NoError(t, db.Table("products").Pluck("id", &ids).Error)
		require.Len(t, ids, 3)
		for _, id := range ids {
			assert.Regexp(t, uuidPattern, id)
		}
	})

	t.Run("references follow their parents", func(t *testing.T) {
		var beveragesID string
		require.NoError(t, db.Table("categories").Where("name = ?", "Beverages").Pluck("id", &beveragesID).Error)
		var supplierID string
		require.NoError(t, db.Table("suppliers").Where("name = ?", "Tech Corp").Pluck("id", &supplierID).Error)

		var cola migratedRef
		require.NoError(t, db.Table("products").Select("id, category_id, supplier_id, image_path").
			Where("name = ?", "Cola").Scan(&cola).Error)
		require.NotNil(t, cola.CategoryID)
		assert.Equal(t, beveragesID, *cola.CategoryID)
		require.NotNil(t, cola.SupplierID)
		assert.Equal(t, supplierID, *cola.SupplierID)
		assert.Equal(t, "images/cola.png", cola.ImagePath)

		var colaItem struct{ ProductID *string }
		require.NoError(t, db.Table("sale_items").Select("product_id").
			Where("product_name = ?", "Cola").Scan(&colaItem).Error)
		require.NotNil(t, colaItem.ProductID)
		assert.Equal(t, cola.ID, *colaItem.ProductID)
	})

	t.Run("dangling required reference lands on the default parent", func(t *testing.T) {
		var beveragesID string
		require.NoError(t, db.Table("categories").Where("name = ?", "Beverages").Pluck("id", &beveragesID).Error)

		var mystery migratedRef
		require.NoError(t, db.Table("products").Select("id, category_id").
			Where("name = ?", "Mystery Box").Scan(&mystery).Error)
		require.NotNil(t, mystery.CategoryID)
		assert.Equal(t, beveragesID, *mystery.CategoryID)
	})

	t.Run("dangling optional and soft references are cleared", func(t *testing.T) {
		var chips migratedRef
		require.NoError(t, db.Table("products").Select("id, supplier_id").
			Where("name = ?", "Chips").Scan(&chips).Error)
		assert.Nil(t, chips.SupplierID)

		var gone struct{ ProductID *string }
		require.NoError(t, db.Table("sale_items").Select("product_id").
			Where("product_name = ?", "Gone Product").Scan(&gone).Error)
		assert.Nil(t, gone.ProductID)

		var sale struct{ CustomerID *string }
		require.NoError(t, db.Table("sales").Select("customer_id").Scan(&sale).Error)
		assert.Nil(t, sale.CustomerID)
	})

	t.Run("migrated store validates clean", func(t *testing.T) {
		require.NotNil(t, result.Validation)
		assert.True(t, result.Validation.Passed)
	})

	t.Run("snapshot is taken and discarded, never restored", func(t *testing.T) {
		assert.Equal(t, 1, snapshotter.snapshots)
		assert.Equal(t, []string{"snapshot-1"}, snapshotter.discards)
		assert.Empty(t, snapshotter.restores)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		again, err := migrator.Run(ctx)
		require.NoError(t, err)
		assert.False(t, again.Migrated)
		assert.Equal(t, 1, snapshotter.snapshots)
	})
}

func TestMigrator_Run_RestoresSnapshotOnFailure(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)

	// A required reference with no parent row to fall back on makes the
	// copy step fail.
	require.NoError(t, db.Exec(legacyDDL[0]).Error)
	require.NoError(t, db.Exec(legacyDDL[2]).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO products (id, name, price, stock, category_id) VALUES (1, 'Orphan', 1.00, 0, 42)`).Error)

	snapshotter := &fakeSnapshotter{}
	migrator := NewMigrator(db, snapshotter, zap.NewNop())

	_, err := migrator.Run(ctx)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "MIGRATION_STEP_FAILED", domainErr.Code)

	assert.Equal(t, []string{"snapshot-1"}, snapshotter.restores)
	assert.Empty(t, snapshotter.discards)

	t.Run("no staging tables are left behind", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Raw(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name LIKE '%_v2'").Scan(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("legacy rows are untouched", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Table("products").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestMigrator_IsComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store has nothing to migrate", func(t *testing.T) {
		migrator := NewMigrator(newStore(t), &fakeSnapshotter{}, zap.NewNop())
		complete, err := migrator.IsComplete(ctx)
		require.NoError(t, err)
		assert.True(t, complete)
	})

	t.Run("integer-keyed store is pending", func(t *testing.T) {
		db := newStore(t)
		seedLegacyStore(t, db)
		migrator := NewMigrator(db, &fakeSnapshotter{}, zap.NewNop())
		complete, err := migrator.IsComplete(ctx)
		require.NoError(t, err)
		assert.False(t, complete)
	})

	t.Run("text-keyed store is complete", func(t *testing.T) {
		db := newStore(t)
		require.NoError(t, db.Exec(
			`CREATE TABLE categories (id TEXT PRIMARY KEY, created_at DATETIME, updated_at DATETIME, name VARCHAR(100), description TEXT)`).Error)
		migrator := NewMigrator(db, &fakeSnapshotter{}, zap.NewNop())
		complete, err := migrator.IsComplete(ctx)
		require.NoError(t, err)
		assert.True(t, complete)
	})
}

func TestMigrator_Run_NullColumnsTakeStagingDefaults(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)

	// Legacy stores predate the NOT NULL constraints, so payload
	// columns can hold NULL where the new schema has a default.
	ddl := []string{
		`CREATE TABLE categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT, created_at DATETIME, updated_at DATETIME,
			name VARCHAR(100) NOT NULL, description TEXT)`,
		`CREATE TABLE products (
			id INTEGER PRIMARY KEY AUTOINCREMENT, created_at DATETIME, updated_at DATETIME,
			name VARCHAR(200) NOT NULL, barcode VARCHAR(50), price DECIMAL(12,2) NOT NULL,
			cost DECIMAL(12,2), stock INTEGER, image_path VARCHAR(500),
			category_id INTEGER, supplier_id INTEGER)`,
		`CREATE TABLE sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT, created_at DATETIME, updated_at DATETIME,
			total DECIMAL(12,2) NOT NULL, payment_method VARCHAR(30), customer_id INTEGER)`,
		`INSERT INTO categories (id, name) VALUES (1, 'Beverages')`,
		`INSERT INTO products (id, name, price, stock, category_id) VALUES (1, 'Cola', 1.50, NULL, 1)`,
		`INSERT INTO sales (id, total, payment_method) VALUES (1, 3.00, NULL)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}

	migrator := NewMigrator(db, &fakeSnapshotter{}, zap.NewNop())
	result, err := migrator.Run(ctx)
	require.NoError(t, err)
	require.True(t, result.Migrated)

	var stock int
	require.NoError(t, db.Raw(`SELECT stock FROM products`).Scan(&stock).Error)
	assert.Equal(t, 0, stock)

	var method string
	require.NoError(t, db.Raw(`SELECT payment_method FROM sales`).Scan(&method).Error)
	assert.Equal(t, "cash", method)
}
