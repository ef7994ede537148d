package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens a GORM session over a sqlmock connection so store
// failures can be injected
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	// The driver probes the engine version on connect.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`select sqlite_version`).
		WillReturnRows(sqlmock.NewRows([]string{"sqlite_version()"}).AddRow("3.45.0"))

	db, err := gorm.Open(sqlite.Dialector{Conn: mockDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestGormCategoryRepository_FindAllPropagatesStoreErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormCategoryRepository(db)

	mock.ExpectQuery(`SELECT \* FROM .categories.`).
		WillReturnError(gorm.ErrInvalidDB)

	_, err := repo.FindAll(context.Background())
	assert.ErrorIs(t, err, gorm.ErrInvalidDB)
}

func TestGormProductRepository_CountPropagatesStoreErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormProductRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM .products.`).
		WillReturnError(gorm.ErrInvalidDB)

	_, err := repo.Count(context.Background())
	assert.ErrorIs(t, err, gorm.ErrInvalidDB)
}
