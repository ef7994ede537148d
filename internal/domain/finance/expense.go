package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExpenseCategory groups expenses for reporting. Like product categories,
// it cannot be removed while any expense still references it.
type ExpenseCategory struct {
	shared.BaseEntity
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExpenseCategory) TableName() string {
	return "expense_categories"
}

// NewExpenseCategory creates a new expense category
func NewExpenseCategory(name, description string) (*ExpenseCategory, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Expense category name cannot be empty")
	}

	return &ExpenseCategory{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Description: description,
	}, nil
}

// Expense records money spent by the shop
type Expense struct {
	shared.BaseEntity
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(300);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IncurredAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Expense) TableName() string {
	return "expenses"
}

// NewExpense creates a new expense in the given category
func NewExpense(categoryID uuid.UUID, description string, amount decimal.Decimal, incurredAt time.Time) (*Expense, error) {
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Expense requires a category")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if incurredAt.IsZero() {
		incurredAt = time.Now()
	}

	return &Expense{
		BaseEntity:  shared.NewBaseEntity(),
		CategoryID:  categoryID,
		Description: description,
		Amount:      amount,
		IncurredAt:  incurredAt,
	}, nil
}
