package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCategoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db.DB)

	category := seedCategory(t, db, "Beverages")
	product := seedProduct(t, db, "Cola", "1.50", category.ID)

	t.Run("refused while products reference the category", func(t *testing.T) {
		err := repo.Delete(ctx, category.ID)
		assert.ErrorIs(t, err, shared.ErrCategoryInUse)

		_, err = repo.FindByID(ctx, category.ID)
		assert.NoError(t, err)
	})

	t.Run("allowed once the category is empty", func(t *testing.T) {
		require.NoError(t, NewGormProductRepository(db.DB).Delete(ctx, product.ID))

		require.NoError(t, repo.Delete(ctx, category.ID))

		_, err := repo.FindByID(ctx, category.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		empty := seedCategory(t, db, "Empty")
		require.NoError(t, repo.Delete(ctx, empty.ID))

		err := repo.Delete(ctx, empty.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCategoryRepository_FindFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db.DB)

	_, err := repo.FindFirst(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	oldest := seedCategory(t, db, "Zeta")
	oldest.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, oldest))
	seedCategory(t, db, "Alpha")

	// Oldest by creation time wins, not alphabetical order.
	first, err := repo.FindFirst(ctx)
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, first.ID)
	assert.Equal(t, "Zeta", first.Name)
}

func TestGormCategoryRepository_FindByName(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db.DB)

	seedCategory(t, db, "Snacks")

	found, err := repo.FindByName(ctx, "Snacks")
	require.NoError(t, err)
	assert.Equal(t, "Snacks", found.Name)

	_, err = repo.FindByName(ctx, "snacks")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
