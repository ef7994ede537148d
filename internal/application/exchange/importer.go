package exchange

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/trade"
)

// EntityCounts tallies the outcome of an import per entity type
type EntityCounts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// ImportResult is the outward-facing outcome of one import run
type ImportResult struct {
	Success     bool                     `json:"success"`
	RecordCount int                      `json:"recordCount"`
	EmptyExport bool                     `json:"emptyExport,omitempty"`
	Counts      map[string]*EntityCounts `json:"counts"`
	Conflicts   []Conflict               `json:"conflicts,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// Importer applies an incoming batch to the store in entity dependency
// order. Each record is processed independently: a bad record is skipped
// with a recorded reason and the rest of the batch continues.
type Importer struct {
	categoryRepo        catalog.CategoryRepository
	supplierRepo        partner.SupplierRepository
	productRepo         catalog.ProductRepository
	customerRepo        partner.CustomerRepository
	saleRepo            trade.SaleRepository
	expenseRepo         finance.ExpenseRepository
	expenseCategoryRepo finance.ExpenseCategoryRepository
	stockMovementRepo   inventory.StockMovementRepository
	bulkPricingRepo     catalog.BulkPricingRepository

	detector *Detector
	resolver *Resolver
	logger   *zap.Logger
}

// NewImporter wires the import pipeline over the given repositories
func NewImporter(
	categoryRepo catalog.CategoryRepository,
	supplierRepo partner.SupplierRepository,
	productRepo catalog.ProductRepository,
	customerRepo partner.CustomerRepository,
	saleRepo trade.SaleRepository,
	expenseRepo finance.ExpenseRepository,
	expenseCategoryRepo finance.ExpenseCategoryRepository,
	stockMovementRepo inventory.StockMovementRepository,
	bulkPricingRepo catalog.BulkPricingRepository,
	logger *zap.Logger,
) *Importer {
	return &Importer{
		categoryRepo:        categoryRepo,
		supplierRepo:        supplierRepo,
		productRepo:         productRepo,
		customerRepo:        customerRepo,
		saleRepo:            saleRepo,
		expenseRepo:         expenseRepo,
		expenseCategoryRepo: expenseCategoryRepo,
		stockMovementRepo:   stockMovementRepo,
		bulkPricingRepo:     bulkPricingRepo,
		detector: NewDetector(categoryRepo, supplierRepo, productRepo,
			customerRepo, saleRepo, expenseRepo, expenseCategoryRepo, logger),
		resolver: NewResolver(categoryRepo, supplierRepo, expenseCategoryRepo, logger),
		logger:   logger.Named("importer"),
	}
}

// importRun carries the mutable state of one import pass
type importRun struct {
	result    *ImportResult
	seen      map[string]struct{}
	progress  ProgressFunc
	processed int
	total     int
}

func (r *importRun) counts(entity string) *EntityCounts {
	c, ok := r.result.Counts[entity]
	if !ok {
		c = &EntityCounts{}
		r.result.Counts[entity] = c
	}
	return c
}

// addConflict records a conflict, collapsing duplicates of the same
// entity, class, and message
func (r *importRun) addConflict(c *Conflict) {
	if c == nil {
		return
	}
	key := fmt.Sprintf("%s|%s|%s", c.Entity, c.Classification, c.Message)
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.result.Conflicts = append(r.result.Conflicts, *c)
}

func (r *importRun) step(stage string) {
	r.processed++
	notify(r.progress, stage, r.processed, r.total)
}

// Import applies the batch in dependency order: categories and suppliers
// first, then products and customers, then sales and expenses, then the
// rows that depend on products.
func (imp *Importer) Import(ctx context.Context, batch *DataSet, progress ProgressFunc) (*ImportResult, error) {
	run := &importRun{
		result: &ImportResult{
			Success: true,
			Counts:  make(map[string]*EntityCounts),
		},
		seen:     make(map[string]struct{}),
		progress: progress,
		total:    batch.RecordCount(),
	}
	run.result.RecordCount = run.total

	if batch.IsEmpty() {
		run.result.EmptyExport = true
		notify(progress, "complete", 0, 0)
		return run.result, nil
	}

	imp.importCategories(ctx, batch.Categories, run)
	imp.importExpenseCategories(ctx, batch.ExpenseCategories, run)
	imp.importSuppliers(ctx, batch.Suppliers, run)
	imp.importProducts(ctx, batch.Products, run)
	imp.importCustomers(ctx, batch.Customers, run)
	imp.importSales(ctx, batch.Sales, run)
	imp.importExpenses(ctx, batch.Expenses, run)
	imp.importStockMovements(ctx, batch.StockMovements, run)
	imp.importBulkPricing(ctx, batch.BulkPricing, run)

	notify(progress, "complete", run.total, run.total)

	imp.logger.Info("Import finished",
		zap.Int("records", run.total),
		zap.Int("conflicts", len(run.result.Conflicts)),
	)
	return run.result, nil
}

func (imp *Importer) importCategories(ctx context.Context, records []CategoryRecord, run *importRun) {
	counts := run.counts("categories")
	for i := range records {
		rec := &records[i]
		run.step("categories")

		m, err := imp.detector.ClassifyCategory(ctx, rec)
		if err != nil {
			imp.skipOnError(run, counts, "categories", err)
			continue
		}
		run.addConflict(m.conflict)

		switch {
		case m.conflict != nil && m.conflict.Classification == ClassValidationFailed:
			counts.Skipped++
		case m.existing != nil && m.conflict == nil:
			counts.Skipped++
		case m.existing != nil:
			if err := m.existing.Update(rec.Name, rec.Description); err != nil {
				imp.skipOnError(run, counts, "categories", err)
				continue
			}
			if err := imp.categoryRepo.Save(ctx, m.existing); err != nil {
				imp.skipOnError(run, counts, "categories", err)
				continue
			}
			counts.Updated++
		default:
			category, err := catalog.NewCategory(rec.Name, rec.Description)
			if err != nil {
				imp.skipOnError(run, counts, "categories", err)
				continue
			}
			adoptID(&category.ID, rec.ID)
			if err := imp.categoryRepo.Save(ctx, category); err != nil {
				imp.skipOnError(run, counts, "categories", err)
				continue
			}
			counts.Inserted++
		}
	}
}

func (imp *Importer) importExpenseCategories(ctx context.Context, records []ExpenseCategoryRecord, run *importRun) {
	counts := run.counts("expenseCategories")
	for i := range records {
		rec := &records[i]
		run.step("expenseCategories")

		m, err := imp.detector.ClassifyExpenseCategory(ctx, rec)
		if err != nil {
			imp.skipOnError(run, counts, "expenseCategories", err)
			continue
		}
		run.addConflict(m.conflict)

		switch {
		case m.conflict != nil && m.conflict.Classification == ClassValidationFailed:
			counts.Skipped++
		case m.existing != nil && m.conflict == nil:
			counts.Skipped++
		case m.existing != nil:
			m.existing.Name = rec.Name
			m.existing.Description = rec.Description
			m.existing.Touch()
			if err := imp.expenseCategoryRepo.Save(ctx, m.existing); err != nil {
				imp.skipOnError(run, counts, "expenseCategories", err)
				continue
			}
			counts.Updated++
		default:
			category, err := finance.NewExpenseCategory(rec.Name, rec.Description)
			if err != nil {
				imp.skipOnError(run, counts, "expenseCategories", err)
				continue
			}
			adoptID(&category.ID, rec.ID)
			if err := imp.expenseCategoryRepo.Save(ctx, category); err != nil {
				imp.skipOnError(run, counts, "expenseCategories", err)
				continue
			}
			counts.Inserted++
		}
	}
}

func (imp *Importer) importSuppliers(ctx context.Context, records []SupplierRecord, run *importRun) {
	counts := run.counts("suppliers")
	for i := range records {
		rec := &records[i]
		run.step("suppliers")

		m, err := imp.detector.ClassifySupplier(ctx, rec)
		if err != nil {
			imp.skipOnError(run, counts, "suppliers", err)
			continue
		}
		run.addConflict(m.conflict)

		switch {
		case m.conflict != nil && m.conflict.Classification == ClassValidationFailed:
			counts.Skipped++
		case m.existing != nil && m.conflict == nil:
			counts.Skipped++
		case m.existing != nil:
			if err := m.existing.Update(rec.Name, rec.Contact, rec.Phone, rec.Email, rec.Address); err != nil {
				imp.skipOnError(run, counts, "suppliers", err)
				continue
			}
			if err := imp.supplierRepo.Save(ctx, m.existing); err != nil {
				imp.skipOnError(run, counts, "suppliers", err)
				continue
			}
			counts.Updated++
		default:
			supplier, err := partner.NewSupplier(rec.Name)
			if err != nil {
				imp.skipOnError(run, counts, "suppliers", err)
				continue
			}
			adoptID(&supplier.ID, rec.ID)
			supplier.Contact = rec.Contact
			supplier.Phone = rec.Phone
			supplier.Email = rec.Email
			supplier.Address = rec.Address
			if err := imp.supplierRepo.Save(ctx, supplier); err != nil {
				imp.skipOnError(run, counts, "suppliers", err)
				continue
			}
			counts.Inserted++
		}
	}
}

func (imp *Importer) importProducts(ctx context.Context, records []ProductRecord, run *importRun) {
	counts := run.counts("products")
	for i := range records {
		rec := &records[i]
		run.step("products")

		m, err := imp.detector.ClassifyProduct(ctx, rec)
		if err != nil {
			imp.skipOnError(run, counts, "products", err)
			continue
		}
		run.addConflict(m.conflict)

		if m.conflict != nil && m.conflict.Classification == ClassValidationFailed {
			counts.Skipped++
			continue
		}
		if m.existing != nil && m.conflict == nil {
			counts.Skipped++
			continue
		}

		categoryID, err := imp.resolver.ResolveCategory(ctx, ParseRef(rec.CategoryID, rec.CategoryName))
		if err != nil {
			imp.skipOnError(run, counts, "products", err)
			continue
		}
		supplierID, err := imp.resolver.ResolveSupplier(ctx, ParseRef(rec.SupplierID, rec.SupplierName))
		if err != nil {
			imp.skipOnError(run, counts, "products", err)
			continue
		}

		if m.existing != nil {
			// The operator-owned image path is deliberately left alone.
			if err := m.existing.Update(rec.Name, rec.Price, rec.Cost); err != nil {
				imp.skipOnError(run, counts, "products", err)
				continue
			}
			if rec.Barcode != "" {
				if err := m.existing.SetBarcode(rec.Barcode); err != nil {
					imp.skipOnError(run, counts, "products", err)
					continue
				}
			}
			m.existing.CategoryID = categoryID
			m.existing.SetSupplier(supplierID)
			m.existing.SetStock(rec.Stock)
			if err := imp.productRepo.Save(ctx, m.existing); err != nil {
				imp.skipOnError(run, counts, "products", err)
				continue
			}
			counts.Updated++
			continue
		}

		product, err := catalog.NewProduct(rec.Name, rec.Price, categoryID)
		if err != nil {
			imp.skipOnError(run, counts, "products", err)
			continue
		}
		adoptID(&product.ID, rec.ID)
		product.Cost = rec.Cost
		product.Stock = rec.Stock
		if rec.Barcode != "" {
			if err := product.SetBarcode(rec.Barcode); err != nil {
				imp.skipOnError(run, counts, "products", err)
				continue
			}
		}
		product.SetSupplier(supplierID)
		if err := imp.productRepo.Save(ctx, product); err != nil {
			imp.skipOnError(run, counts, "products", err)
			continue
		}
		counts.Inserted++
	}
}

func (imp *Importer) importCustomers(ctx context.Context, records []CustomerRecord, run *importRun) {
	counts := run.counts("customers")
	for i := range records {
		rec := &records[i]
		run.step("customers")

		m, err := imp.detector.ClassifyCustomer(ctx, rec)
		if err != nil {
			imp.skipOnError(run, counts, "customers", err)
			continue
		}
		run.addConflict(m.conflict)

		switch {
		case m.conflict != nil && m.conflict.Classification == ClassValidationFailed:
			counts.Skipped++
		case m.existing != nil && m.conflict == nil:
			counts.Skipped++
		case m.existing != nil:
			if err := m.existing.Update(rec.Name, rec.Phone, rec.Email); err != nil {
				imp.skipOnError(run, counts, "customers", err)
				continue
			}
			if err := imp.customerRepo.Save(ctx, m.existing); err != nil {
				imp.skipOnError(run, counts, "customers", err)
				continue
			}
			counts.Updated++
		default:
			customer, err := partner.NewCustomer(rec.Name)
			if err != nil {
				imp.skipOnError(run, counts, "customers", err)
				continue
			}
			adoptID(&customer.ID, rec.ID)
			customer.Phone = rec.Phone
			customer.Email = rec.Email
			if err := imp.customerRepo.Save(ctx, customer); err != nil {
				imp.skipOnError(run, counts, "customers", err)
				continue
			}
			counts.Inserted++
		}
	}
}

func (imp *Importer) importSales(ctx context.Context, records []SaleRecord, run *importRun) {
	counts := run.counts("sales")
	for i := range records {
		rec := &records[i]
		run.step("sales")
		for range rec.Items {
			run.step("sales")
		}

		m, err := imp.detector.ClassifySale(ctx, rec)
		if err != nil {
			imp.skipOnError(run, counts, "sales", err)
			continue
		}
		run.addConflict(m.conflict)

		if m.conflict != nil && m.conflict.Classification == ClassValidationFailed {
			counts.Skipped++
			continue
		}
		// Sales are immutable history: a known identifier is never rewritten.
		if m.existing != nil {
			counts.Skipped++
			continue
		}

		customerID, err := imp.lookupCustomer(ctx, rec.CustomerID)
		if err != nil {
			imp.skipOnError(run, counts, "sales", err)
			continue
		}

		items := make([]trade.SaleItem, 0, len(rec.Items))
		itemOK := true
		for j := range rec.Items {
			itemRec := &rec.Items[j]
			productID := imp.lookupProduct(ctx, itemRec.ProductID)
			item, err := trade.NewSaleItem(productID, itemRec.ProductName, itemRec.Quantity, itemRec.UnitPrice)
			if err != nil {
				imp.skipOnError(run, counts, "sales", err)
				itemOK = false
				break
			}
			adoptID(&item.ID, itemRec.ID)
			items = append(items, *item)
		}
		if !itemOK {
			continue
		}

		sale, err := trade.NewSale(customerID, rec.PaymentMethod, items)
		if err != nil {
			imp.skipOnError(run, counts, "sales", err)
			continue
		}
		if adoptID(&sale.ID, rec.ID) {
			for j := range sale.Items {
				sale.Items[j].SaleID = sale.ID
			}
		}
		if err := imp.saleRepo.Save(ctx, sale); err != nil {
			imp.skipOnError(run, counts, "sales", err)
			continue
		}
		counts.Inserted++
	}
}

func (imp *Importer) importExpenses(ctx context.Context, records []ExpenseRecord, run *importRun) {
	counts := run.counts("expenses")
	for i := range records {
		rec := &records[i]
		run.step("expenses")

		m, err := imp.detector.ClassifyExpense(ctx, rec)
		if err != nil {
			imp.skipOnError(run, counts, "expenses", err)
			continue
		}
		run.addConflict(m.conflict)

		if m.conflict != nil && m.conflict.Classification == ClassValidationFailed {
			counts.Skipped++
			continue
		}
		if m.existing != nil {
			counts.Skipped++
			continue
		}

		categoryID, err := imp.resolver.ResolveExpenseCategory(ctx, ParseRef(rec.CategoryID, rec.CategoryName))
		if err != nil {
			imp.skipOnError(run, counts, "expenses", err)
			continue
		}

		expense, err := finance.NewExpense(categoryID, rec.Description, rec.Amount, rec.IncurredAt)
		if err != nil {
			imp.skipOnError(run, counts, "expenses", err)
			continue
		}
		adoptID(&expense.ID, rec.ID)
		if err := imp.expenseRepo.Save(ctx, expense); err != nil {
			imp.skipOnError(run, counts, "expenses", err)
			continue
		}
		counts.Inserted++
	}
}

func (imp *Importer) importStockMovements(ctx context.Context, records []StockMovementRecord, run *importRun) {
	counts := run.counts("stockMovements")
	for i := range records {
		rec := &records[i]
		run.step("stockMovements")

		if c := imp.detector.validationConflict("stockMovements", rec); c != nil {
			run.addConflict(c)
			counts.Skipped++
			continue
		}
		existing, err := findByRawID(ctx, imp.stockMovementRepo, rec.ID)
		if err != nil {
			imp.skipOnError(run, counts, "stockMovements", err)
			continue
		}
		if existing != nil {
			counts.Skipped++
			continue
		}

		productID, err := imp.resolveProductRef(ctx, rec.ProductID, rec.ProductName)
		if err != nil {
			imp.skipOnError(run, counts, "stockMovements", err)
			continue
		}
		supplierID, err := imp.resolver.ResolveSupplier(ctx, ParseRef(rec.SupplierID, rec.SupplierName))
		if err != nil {
			imp.skipOnError(run, counts, "stockMovements", err)
			continue
		}

		movement, err := inventory.NewStockMovement(productID, inventory.MovementType(rec.Type), rec.Quantity, rec.Reason)
		if err != nil {
			imp.skipOnError(run, counts, "stockMovements", err)
			continue
		}
		adoptID(&movement.ID, rec.ID)
		movement.SetSupplier(supplierID)
		if err := imp.stockMovementRepo.Save(ctx, movement); err != nil {
			imp.skipOnError(run, counts, "stockMovements", err)
			continue
		}
		counts.Inserted++
	}
}

func (imp *Importer) importBulkPricing(ctx context.Context, records []BulkPricingRecord, run *importRun) {
	counts := run.counts("bulkPricing")
	for i := range records {
		rec := &records[i]
		run.step("bulkPricing")

		if c := imp.detector.validationConflict("bulkPricing", rec); c != nil {
			run.addConflict(c)
			counts.Skipped++
			continue
		}
		existing, err := findByRawID(ctx, imp.bulkPricingRepo, rec.ID)
		if err != nil {
			imp.skipOnError(run, counts, "bulkPricing", err)
			continue
		}
		if existing != nil {
			counts.Skipped++
			continue
		}

		productID, err := imp.resolveProductRef(ctx, rec.ProductID, rec.ProductName)
		if err != nil {
			imp.skipOnError(run, counts, "bulkPricing", err)
			continue
		}
		product, err := imp.productRepo.FindByID(ctx, productID)
		if err != nil {
			imp.skipOnError(run, counts, "bulkPricing", err)
			continue
		}

		tier, err := catalog.NewBulkPricingTier(product, rec.MinQuantity, rec.BulkPrice)
		if err != nil {
			imp.skipOnError(run, counts, "bulkPricing", err)
			continue
		}
		adoptID(&tier.ID, rec.ID)
		if err := imp.bulkPricingRepo.Save(ctx, tier); err != nil {
			imp.skipOnError(run, counts, "bulkPricing", err)
			continue
		}
		counts.Inserted++
	}
}

// resolveProductRef resolves a required product reference by identifier,
// then by name. Products are never created on behalf of a dependent row.
func (imp *Importer) resolveProductRef(ctx context.Context, rawID, name string) (uuid.UUID, error) {
	existing, err := findByRawID(ctx, imp.productRepo, rawID)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	if name != "" {
		byName, err := imp.productRepo.FindByName(ctx, name)
		if err == nil {
			return byName.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("product reference %q / %q does not resolve", rawID, name)
}

// lookupCustomer resolves an optional customer reference; an unknown
// identifier becomes a walk-in sale rather than an error
func (imp *Importer) lookupCustomer(ctx context.Context, rawID string) (*uuid.UUID, error) {
	existing, err := findByRawID(ctx, imp.customerRepo, rawID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	return &existing.ID, nil
}

// lookupProduct resolves a soft product reference; unknown products
// yield the nil identifier and the denormalized name carries the line
func (imp *Importer) lookupProduct(ctx context.Context, rawID string) uuid.UUID {
	existing, err := findByRawID(ctx, imp.productRepo, rawID)
	if err != nil || existing == nil {
		return uuid.Nil
	}
	return existing.ID
}

// skipOnError records a failed record as skipped with its reason
func (imp *Importer) skipOnError(run *importRun, counts *EntityCounts, entity string, err error) {
	counts.Skipped++
	run.addConflict(&Conflict{
		Entity:         entity,
		Classification: ClassValidationFailed,
		Message:        err.Error(),
	})
	imp.logger.Warn("Record skipped", zap.String("entity", entity), zap.Error(err))
}

// adoptID keeps the incoming identifier on a newly created entity so
// rows referencing it keep resolving after a round trip. Reports whether
// the identifier was adopted.
func adoptID(target *uuid.UUID, rawID string) bool {
	id, err := uuid.Parse(rawID)
	if err != nil || id == uuid.Nil {
		return false
	}
	*target = id
	return true
}
