package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/trade"
)

// Classification is the single class assigned to every incoming record
type Classification string

const (
	ClassNew              Classification = "new"
	ClassUUIDConflict     Classification = "uuid-conflict"
	ClassNameConflict     Classification = "name-conflict"
	ClassValidationFailed Classification = "validation-failed"
)

// MatchKind tells which key matched an existing row
type MatchKind string

const (
	MatchedByUUID    MatchKind = "uuid"
	MatchedByName    MatchKind = "name"
	MatchedByBarcode MatchKind = "barcode"
)

// Conflict is one detected overlap or validation failure
type Conflict struct {
	Entity         string         `json:"entity"`
	Classification Classification `json:"classification"`
	MatchedBy      MatchKind      `json:"matchedBy,omitempty"`
	Message        string         `json:"message"`
	Incoming       any            `json:"incoming"`
	Existing       any            `json:"existing,omitempty"`
}

// ConflictReport groups detected conflicts by entity type
type ConflictReport struct {
	ByEntity map[string][]Conflict `json:"byEntity"`
}

// HasConflicts reports whether any entity type has at least one conflict
func (r *ConflictReport) HasConflicts() bool {
	for _, conflicts := range r.ByEntity {
		if len(conflicts) > 0 {
			return true
		}
	}
	return false
}

func (r *ConflictReport) add(c *Conflict) {
	if c == nil {
		return
	}
	if r.ByEntity == nil {
		r.ByEntity = make(map[string][]Conflict)
	}
	r.ByEntity[c.Entity] = append(r.ByEntity[c.Entity], *c)
}

// match pairs an existing row with how it was found. A nil match means
// the record is new to this store.
type match[T any] struct {
	existing *T
	conflict *Conflict
}

// Detector classifies incoming records against the live store.
// Validation runs first; among valid records a resolvable identifier
// always wins over any natural-key match, even when the names disagree.
type Detector struct {
	categoryRepo        catalog.CategoryRepository
	supplierRepo        partner.SupplierRepository
	productRepo         catalog.ProductRepository
	customerRepo        partner.CustomerRepository
	saleRepo            trade.SaleRepository
	expenseRepo         finance.ExpenseRepository
	expenseCategoryRepo finance.ExpenseCategoryRepository
	validate            *validator.Validate
	logger              *zap.Logger
}

// NewDetector creates a detector over the given repositories
func NewDetector(
	categoryRepo catalog.CategoryRepository,
	supplierRepo partner.SupplierRepository,
	productRepo catalog.ProductRepository,
	customerRepo partner.CustomerRepository,
	saleRepo trade.SaleRepository,
	expenseRepo finance.ExpenseRepository,
	expenseCategoryRepo finance.ExpenseCategoryRepository,
	logger *zap.Logger,
) *Detector {
	return &Detector{
		categoryRepo:        categoryRepo,
		supplierRepo:        supplierRepo,
		productRepo:         productRepo,
		customerRepo:        customerRepo,
		saleRepo:            saleRepo,
		expenseRepo:         expenseRepo,
		expenseCategoryRepo: expenseCategoryRepo,
		validate:            validator.New(),
		logger:              logger.Named("conflicts"),
	}
}

// DetectAll classifies every record in the batch and returns the
// conflicts grouped per entity type
func (d *Detector) DetectAll(ctx context.Context, batch *DataSet) (*ConflictReport, error) {
	report := &ConflictReport{ByEntity: make(map[string][]Conflict)}

	for i := range batch.Categories {
		m, err := d.ClassifyCategory(ctx, &batch.Categories[i])
		if err != nil {
			return nil, err
		}
		report.add(m.conflict)
	}
	for i := range batch.Suppliers {
		m, err := d.ClassifySupplier(ctx, &batch.Suppliers[i])
		if err != nil {
			return nil, err
		}
		report.add(m.conflict)
	}
	for i := range batch.ExpenseCategories {
		m, err := d.ClassifyExpenseCategory(ctx, &batch.ExpenseCategories[i])
		if err != nil {
			return nil, err
		}
		report.add(m.conflict)
	}
	for i := range batch.Products {
		m, err := d.ClassifyProduct(ctx, &batch.Products[i])
		if err != nil {
			return nil, err
		}
		report.add(m.conflict)
	}
	for i := range batch.Customers {
		m, err := d.ClassifyCustomer(ctx, &batch.Customers[i])
		if err != nil {
			return nil, err
		}
		report.add(m.conflict)
	}
	for i := range batch.Sales {
		m, err := d.ClassifySale(ctx, &batch.Sales[i])
		if err != nil {
			return nil, err
		}
		report.add(m.conflict)
	}
	for i := range batch.Expenses {
		m, err := d.ClassifyExpense(ctx, &batch.Expenses[i])
		if err != nil {
			return nil, err
		}
		report.add(m.conflict)
	}

	if report.HasConflicts() {
		total := 0
		for _, conflicts := range report.ByEntity {
			total += len(conflicts)
		}
		d.logger.Info("Conflicts detected in import batch", zap.Int("count", total))
	}
	return report, nil
}

// ClassifyCategory classifies one incoming category record
func (d *Detector) ClassifyCategory(ctx context.Context, rec *CategoryRecord) (match[catalog.Category], error) {
	if c := d.validationConflict("categories", rec); c != nil {
		return match[catalog.Category]{conflict: c}, nil
	}

	existing, err := findByRawID(ctx, d.categoryRepo, rec.ID)
	if err != nil {
		return match[catalog.Category]{}, err
	}
	if existing != nil {
		if existing.Name == rec.Name && existing.Description == rec.Description {
			return match[catalog.Category]{existing: existing}, nil
		}
		return match[catalog.Category]{existing: existing, conflict: &Conflict{
			Entity:         "categories",
			Classification: ClassUUIDConflict,
			MatchedBy:      MatchedByUUID,
			Message:        fmt.Sprintf("category %s already exists with different content", rec.ID),
			Incoming:       *rec,
			Existing:       existing,
		}}, nil
	}

	byName, err := d.categoryRepo.FindByName(ctx, rec.Name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return match[catalog.Category]{}, err
	}
	if byName != nil {
		return match[catalog.Category]{existing: byName, conflict: &Conflict{
			Entity:         "categories",
			Classification: ClassNameConflict,
			MatchedBy:      MatchedByName,
			Message:        fmt.Sprintf("category named %q already exists", rec.Name),
			Incoming:       *rec,
			Existing:       byName,
		}}, nil
	}
	return match[catalog.Category]{}, nil
}

// ClassifySupplier classifies one incoming supplier record
func (d *Detector) ClassifySupplier(ctx context.Context, rec *SupplierRecord) (match[partner.Supplier], error) {
	if c := d.validationConflict("suppliers", rec); c != nil {
		return match[partner.Supplier]{conflict: c}, nil
	}

	existing, err := findByRawID(ctx, d.supplierRepo, rec.ID)
	if err != nil {
		return match[partner.Supplier]{}, err
	}
	if existing != nil {
		if existing.Name == rec.Name && existing.Contact == rec.Contact &&
			existing.Phone == rec.Phone && existing.Email == rec.Email &&
			existing.Address == rec.Address {
			return match[partner.Supplier]{existing: existing}, nil
		}
		return match[partner.Supplier]{existing: existing, conflict: &Conflict{
			Entity:         "suppliers",
			Classification: ClassUUIDConflict,
			MatchedBy:      MatchedByUUID,
			Message:        fmt.Sprintf("supplier %s already exists with different content", rec.ID),
			Incoming:       *rec,
			Existing:       existing,
		}}, nil
	}

	byName, err := d.supplierRepo.FindByName(ctx, rec.Name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return match[partner.Supplier]{}, err
	}
	if byName != nil {
		return match[partner.Supplier]{existing: byName, conflict: &Conflict{
			Entity:         "suppliers",
			Classification: ClassNameConflict,
			MatchedBy:      MatchedByName,
			Message:        fmt.Sprintf("supplier named %q already exists", rec.Name),
			Incoming:       *rec,
			Existing:       byName,
		}}, nil
	}
	return match[partner.Supplier]{}, nil
}

// ClassifyExpenseCategory classifies one incoming expense category record
func (d *Detector) ClassifyExpenseCategory(ctx context.Context, rec *ExpenseCategoryRecord) (match[finance.ExpenseCategory], error) {
	if c := d.validationConflict("expenseCategories", rec); c != nil {
		return match[finance.ExpenseCategory]{conflict: c}, nil
	}

	existing, err := findByRawID(ctx, d.expenseCategoryRepo, rec.ID)
	if err != nil {
		return match[finance.ExpenseCategory]{}, err
	}
	if existing != nil {
		if existing.Name == rec.Name && existing.Description == rec.Description {
			return match[finance.ExpenseCategory]{existing: existing}, nil
		}
		return match[finance.ExpenseCategory]{existing: existing, conflict: &Conflict{
			Entity:         "expenseCategories",
			Classification: ClassUUIDConflict,
			MatchedBy:      MatchedByUUID,
			Message:        fmt.Sprintf("expense category %s already exists with different content", rec.ID),
			Incoming:       *rec,
			Existing:       existing,
		}}, nil
	}

	byName, err := d.expenseCategoryRepo.FindByName(ctx, rec.Name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return match[finance.ExpenseCategory]{}, err
	}
	if byName != nil {
		return match[finance.ExpenseCategory]{existing: byName, conflict: &Conflict{
			Entity:         "expenseCategories",
			Classification: ClassNameConflict,
			MatchedBy:      MatchedByName,
			Message:        fmt.Sprintf("expense category named %q already exists", rec.Name),
			Incoming:       *rec,
			Existing:       byName,
		}}, nil
	}
	return match[finance.ExpenseCategory]{}, nil
}

// ClassifyProduct classifies one incoming product record. Products match
// naturally on name plus barcode; barcode takes precedence when present.
func (d *Detector) ClassifyProduct(ctx context.Context, rec *ProductRecord) (match[catalog.Product], error) {
	if c := d.validationConflict("products", rec); c != nil {
		return match[catalog.Product]{conflict: c}, nil
	}
	if rec.Price.IsNegative() {
		return match[catalog.Product]{conflict: &Conflict{
			Entity:         "products",
			Classification: ClassValidationFailed,
			Message:        fmt.Sprintf("product %q has a negative price", rec.Name),
			Incoming:       *rec,
		}}, nil
	}

	existing, err := findByRawID(ctx, d.productRepo, rec.ID)
	if err != nil {
		return match[catalog.Product]{}, err
	}
	if existing != nil {
		if existing.Name == rec.Name && existing.Barcode == rec.Barcode &&
			existing.Price.Equal(rec.Price) {
			return match[catalog.Product]{existing: existing}, nil
		}
		return match[catalog.Product]{existing: existing, conflict: &Conflict{
			Entity:         "products",
			Classification: ClassUUIDConflict,
			MatchedBy:      MatchedByUUID,
			Message:        fmt.Sprintf("product %s already exists with different content", rec.ID),
			Incoming:       *rec,
			Existing:       existing,
		}}, nil
	}

	if rec.Barcode != "" {
		byKey, err := d.productRepo.FindByNameAndBarcode(ctx, rec.Name, rec.Barcode)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return match[catalog.Product]{}, err
		}
		if byKey != nil {
			return match[catalog.Product]{existing: byKey, conflict: &Conflict{
				Entity:         "products",
				Classification: ClassNameConflict,
				MatchedBy:      MatchedByBarcode,
				Message:        fmt.Sprintf("product %q with barcode %q already exists", rec.Name, rec.Barcode),
				Incoming:       *rec,
				Existing:       byKey,
			}}, nil
		}
		return match[catalog.Product]{}, nil
	}

	byName, err := d.productRepo.FindByName(ctx, rec.Name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return match[catalog.Product]{}, err
	}
	if byName != nil {
		return match[catalog.Product]{existing: byName, conflict: &Conflict{
			Entity:         "products",
			Classification: ClassNameConflict,
			MatchedBy:      MatchedByName,
			Message:        fmt.Sprintf("product named %q already exists", rec.Name),
			Incoming:       *rec,
			Existing:       byName,
		}}, nil
	}
	return match[catalog.Product]{}, nil
}

// ClassifyCustomer classifies one incoming customer record. Customers
// carry no natural key; only identifier matches count.
func (d *Detector) ClassifyCustomer(ctx context.Context, rec *CustomerRecord) (match[partner.Customer], error) {
	if c := d.validationConflict("customers", rec); c != nil {
		return match[partner.Customer]{conflict: c}, nil
	}

	existing, err := findByRawID(ctx, d.customerRepo, rec.ID)
	if err != nil {
		return match[partner.Customer]{}, err
	}
	if existing != nil {
		if existing.Name == rec.Name && existing.Phone == rec.Phone && existing.Email == rec.Email {
			return match[partner.Customer]{existing: existing}, nil
		}
		return match[partner.Customer]{existing: existing, conflict: &Conflict{
			Entity:         "customers",
			Classification: ClassUUIDConflict,
			MatchedBy:      MatchedByUUID,
			Message:        fmt.Sprintf("customer %s already exists with different content", rec.ID),
			Incoming:       *rec,
			Existing:       existing,
		}}, nil
	}
	return match[partner.Customer]{}, nil
}

// ClassifySale classifies one incoming sale record by identifier
func (d *Detector) ClassifySale(ctx context.Context, rec *SaleRecord) (match[trade.Sale], error) {
	if c := d.validationConflict("sales", rec); c != nil {
		return match[trade.Sale]{conflict: c}, nil
	}

	existing, err := findByRawID(ctx, d.saleRepo, rec.ID)
	if err != nil {
		return match[trade.Sale]{}, err
	}
	if existing != nil {
		return match[trade.Sale]{existing: existing}, nil
	}
	return match[trade.Sale]{}, nil
}

// ClassifyExpense classifies one incoming expense record by identifier
func (d *Detector) ClassifyExpense(ctx context.Context, rec *ExpenseRecord) (match[finance.Expense], error) {
	if c := d.validationConflict("expenses", rec); c != nil {
		return match[finance.Expense]{conflict: c}, nil
	}
	if !rec.Amount.IsPositive() {
		return match[finance.Expense]{conflict: &Conflict{
			Entity:         "expenses",
			Classification: ClassValidationFailed,
			Message:        "expense amount must be positive",
			Incoming:       *rec,
		}}, nil
	}

	existing, err := findByRawID(ctx, d.expenseRepo, rec.ID)
	if err != nil {
		return match[finance.Expense]{}, err
	}
	if existing != nil {
		return match[finance.Expense]{existing: existing}, nil
	}
	return match[finance.Expense]{}, nil
}

// validationConflict runs struct validation and converts a failure into
// a validation-failed conflict for the given entity type
func (d *Detector) validationConflict(entity string, rec any) *Conflict {
	err := d.validate.Struct(rec)
	if err == nil {
		return nil
	}
	return &Conflict{
		Entity:         entity,
		Classification: ClassValidationFailed,
		Message:        validationMessage(err),
		Incoming:       rec,
	}
}

// validationMessage renders a validator error as a short human-readable
// reason
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Sprintf("field %s failed %s validation", first.Field(), first.Tag())
	}
	return err.Error()
}

// findByRawID looks up a row by a raw identifier string. An empty,
// malformed, or unknown identifier yields no match rather than an error.
func findByRawID[T any](ctx context.Context, repo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
}, rawID string) (*T, error) {
	id, err := uuid.Parse(rawID)
	if err != nil || id == uuid.Nil {
		return nil, nil
	}
	existing, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}
