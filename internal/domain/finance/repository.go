package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// ExpenseCategoryRepository defines the persistence interface for expense categories
type ExpenseCategoryRepository interface {
	shared.NamedRepository[ExpenseCategory]

	// HasExpenses reports whether any expense references the category
	HasExpenses(ctx context.Context, categoryID uuid.UUID) (bool, error)
}

// ExpenseRepository defines the persistence interface for expenses
type ExpenseRepository interface {
	shared.Repository[Expense]
}
