package migration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newStore opens a throwaway SQLite store with no schema
func newStore(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// legacyDDL is the integer-keyed layout the migration engine rewrites
var legacyDDL = []string{
	`CREATE TABLE categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT, created_at DATETIME, updated_at DATETIME,
		name VARCHAR(100) NOT NULL, description TEXT)`,
	`CREATE TABLE suppliers (
		id INTEGER PRIMARY KEY AUTOINCREMENT, created_at DATETIME, updated_at DATETIME,
		name VARCHAR(100) NOT NULL, contact VARCHAR(100), phone VARCHAR(30),
		email VARCHAR(100), address VARCHAR(300))`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT, created_at DATETIME, updated_at DATETIME,
		name VARCHAR(200) NOT NULL, barcode VARCHAR(50), price DECIMAL(12,2) NOT NULL,
		cost DECIMAL(12,2), stock INTEGER NOT NULL DEFAULT 0, image_path VARCHAR(500),
		category_id INTEGER, supplier_id INTEGER)`,
	`CREATE TABLE sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT, created_at DATETIME, updated_at DATETIME,
		total DECIMAL(12,2) NOT NULL, payment_method VARCHAR(30) NOT NULL DEFAULT 'cash',
		customer_id INTEGER)`,
	`CREATE TABLE sale_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT, created_at DATETIME, updated_at DATETIME,
		product_name VARCHAR(200) NOT NULL, quantity INTEGER NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL, subtotal DECIMAL(12,2) NOT NULL,
		sale_id INTEGER, product_id INTEGER)`,
}

func seedLegacyStore(t *testing.T, db *gorm.DB) {
	t.Helper()

	for _, ddl := range legacyDDL {
		require.NoError(t, db.Exec(ddl).Error)
	}

	inserts := []string{
		`INSERT INTO categories (id, name, description) VALUES (1, 'Beverages', 'Cold drinks'), (2, 'Snacks', '')`,
		`INSERT INTO suppliers (id, name, contact) VALUES (1, 'Tech Corp', 'Ada')`,
		// Product 2 carries a dangling optional supplier, product 3 a
		// dangling required category.
		`INSERT INTO products (id, name, price, stock, image_path, category_id, supplier_id) VALUES
			(1, 'Cola', 1.50, 24, 'images/cola.png', 1, 1),
			(2, 'Chips', 2.20, 10, '', 2, 99),
			(3, 'Mystery Box', 9.99, 1, '', 42, NULL)`,
		`INSERT INTO sales (id, total, customer_id) VALUES (1, 3.00, 7)`,
		`INSERT INTO sale_items (id, product_name, quantity, unit_price, subtotal, sale_id, product_id) VALUES
			(1, 'Cola', 2, 1.50, 3.00, 1, 1),
			(2, 'Gone Product', 1, 0.50, 0.50, 1, 99)`,
	}
	for _, stmt := range inserts {
		require.NoError(t, db.Exec(stmt).Error)
	}
}

// fakeSnapshotter records snapshot lifecycle calls
type fakeSnapshotter struct {
	snapshots int
	restores  []string
	discards  []string
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context) (string, error) {
	f.snapshots++
	return fmt.Sprintf("snapshot-%d", f.snapshots), nil
}

func (f *fakeSnapshotter) Restore(ctx context.Context, handle string) error {
	f.restores = append(f.restores, handle)
	return nil
}

func (f *fakeSnapshotter) Discard(handle string) error {
	f.discards = append(f.discards, handle)
	return nil
}
