package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormExpenseCategoryRepository implements finance.ExpenseCategoryRepository using GORM
type GormExpenseCategoryRepository struct {
	db *gorm.DB
}

// NewGormExpenseCategoryRepository creates a new GormExpenseCategoryRepository
func NewGormExpenseCategoryRepository(db *gorm.DB) *GormExpenseCategoryRepository {
	return &GormExpenseCategoryRepository{db: db}
}

// FindByID finds an expense category by its ID
func (r *GormExpenseCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.ExpenseCategory, error) {
	var category finance.ExpenseCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindByName finds an expense category by its exact name
func (r *GormExpenseCategoryRepository) FindByName(ctx context.Context, name string) (*finance.ExpenseCategory, error) {
	var category finance.ExpenseCategory
	if err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindAll returns all expense categories
func (r *GormExpenseCategoryRepository) FindAll(ctx context.Context) ([]finance.ExpenseCategory, error) {
	var categories []finance.ExpenseCategory
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Save creates or updates an expense category
func (r *GormExpenseCategoryRepository) Save(ctx context.Context, category *finance.ExpenseCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// Delete deletes an expense category. Deletion is refused while expenses
// reference it.
func (r *GormExpenseCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	inUse, err := r.HasExpenses(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return shared.ErrCategoryInUse
	}

	result := r.db.WithContext(ctx).Delete(&finance.ExpenseCategory{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HasExpenses checks if any expense references the category
func (r *GormExpenseCategoryRepository) HasExpenses(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&finance.Expense{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count counts all expense categories
func (r *GormExpenseCategoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&finance.ExpenseCategory{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var expense finance.Expense
	if err := r.db.WithContext(ctx).First(&expense, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &expense, nil
}

// FindAll returns all expenses
func (r *GormExpenseRepository) FindAll(ctx context.Context) ([]finance.Expense, error) {
	var expenses []finance.Expense
	if err := r.db.WithContext(ctx).Order("incurred_at ASC").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

// Delete deletes an expense
func (r *GormExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&finance.Expense{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts all expenses
func (r *GormExpenseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&finance.Expense{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure repositories implement their interfaces
var (
	_ finance.ExpenseCategoryRepository = (*GormExpenseCategoryRepository)(nil)
	_ finance.ExpenseRepository         = (*GormExpenseRepository)(nil)
)
