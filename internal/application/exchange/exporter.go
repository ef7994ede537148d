package exchange

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/trade"
	"github.com/pos/backend/internal/infrastructure/migration"
)

// FileStore persists export artifacts. The local implementation lives in
// the storage package.
type FileStore interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// ExportResult is the outward-facing outcome of one export run
type ExportResult struct {
	Success     bool      `json:"success"`
	RecordCount int       `json:"recordCount"`
	EmptyExport bool      `json:"emptyExport,omitempty"`
	FilePath    string    `json:"filePath,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Exporter serializes store contents into versioned envelope files.
// Scoped exports touch only the repositories their scope needs.
type Exporter struct {
	categoryRepo        catalog.CategoryRepository
	supplierRepo        partner.SupplierRepository
	productRepo         catalog.ProductRepository
	customerRepo        partner.CustomerRepository
	saleRepo            trade.SaleRepository
	expenseRepo         finance.ExpenseRepository
	expenseCategoryRepo finance.ExpenseCategoryRepository
	stockMovementRepo   inventory.StockMovementRepository
	bulkPricingRepo     catalog.BulkPricingRepository

	store  FileStore
	logger *zap.Logger
}

// NewExporter wires the export pipeline over the given repositories
func NewExporter(
	categoryRepo catalog.CategoryRepository,
	supplierRepo partner.SupplierRepository,
	productRepo catalog.ProductRepository,
	customerRepo partner.CustomerRepository,
	saleRepo trade.SaleRepository,
	expenseRepo finance.ExpenseRepository,
	expenseCategoryRepo finance.ExpenseCategoryRepository,
	stockMovementRepo inventory.StockMovementRepository,
	bulkPricingRepo catalog.BulkPricingRepository,
	store FileStore,
	logger *zap.Logger,
) *Exporter {
	return &Exporter{
		categoryRepo:        categoryRepo,
		supplierRepo:        supplierRepo,
		productRepo:         productRepo,
		customerRepo:        customerRepo,
		saleRepo:            saleRepo,
		expenseRepo:         expenseRepo,
		expenseCategoryRepo: expenseCategoryRepo,
		stockMovementRepo:   stockMovementRepo,
		bulkPricingRepo:     bulkPricingRepo,
		store:               store,
		logger:              logger.Named("exporter"),
	}
}

// ExportAll exports every entity type plus the relationship maps
func (e *Exporter) ExportAll(ctx context.Context, progress ProgressFunc) (*ExportResult, error) {
	return e.Export(ctx, ScopeComplete, progress)
}

// ExportProducts exports products with their categories and suppliers
func (e *Exporter) ExportProducts(ctx context.Context, progress ProgressFunc) (*ExportResult, error) {
	return e.Export(ctx, ScopeProducts, progress)
}

// ExportSales exports sales with their line items
func (e *Exporter) ExportSales(ctx context.Context, progress ProgressFunc) (*ExportResult, error) {
	return e.Export(ctx, ScopeSales, progress)
}

// ExportCustomers exports customers
func (e *Exporter) ExportCustomers(ctx context.Context, progress ProgressFunc) (*ExportResult, error) {
	return e.Export(ctx, ScopeCustomers, progress)
}

// ExportExpenses exports expenses with their categories
func (e *Exporter) ExportExpenses(ctx context.Context, progress ProgressFunc) (*ExportResult, error) {
	return e.Export(ctx, ScopeExpenses, progress)
}

// ExportStockMovements exports stock movements
func (e *Exporter) ExportStockMovements(ctx context.Context, progress ProgressFunc) (*ExportResult, error) {
	return e.Export(ctx, ScopeStockMovements, progress)
}

// ExportBulkPricing exports bulk pricing tiers
func (e *Exporter) ExportBulkPricing(ctx context.Context, progress ProgressFunc) (*ExportResult, error) {
	return e.Export(ctx, ScopeBulkPricing, progress)
}

// Export runs one export of the given scope. The final progress report
// of a successful run is always 100%.
func (e *Exporter) Export(ctx context.Context, scope Scope, progress ProgressFunc) (*ExportResult, error) {
	if !scope.IsValid() {
		return nil, shared.NewDomainError("INVALID_SCOPE", fmt.Sprintf("Unknown export scope %q", scope))
	}

	notify(progress, "collect", 0, 1)
	data, relationships, err := e.collect(ctx, scope)
	if err != nil {
		return nil, err
	}

	notify(progress, "serialize", 1, 3)
	envelope := e.buildEnvelope(scope, data, relationships)

	payload, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}
	// The file size can only be known after serializing once.
	envelope.Metadata.FileSize = int64(len(payload))
	payload, err = json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}

	notify(progress, "write", 2, 3)
	name := fmt.Sprintf("pos-export-%s-%s.json", scope, envelope.ExportDate.Format("20060102-150405"))
	path, err := e.store.Write(ctx, name, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	notify(progress, "complete", 3, 3)

	e.logger.Info("Export finished",
		zap.String("scope", string(scope)),
		zap.Int("records", envelope.Metadata.RecordCount),
		zap.String("path", path),
	)
	return &ExportResult{
		Success:     true,
		RecordCount: envelope.Metadata.RecordCount,
		EmptyExport: envelope.Metadata.EmptyExport,
		FilePath:    path,
		Metadata:    &envelope.Metadata,
	}, nil
}

// collect fetches exactly the entity types the scope covers
func (e *Exporter) collect(ctx context.Context, scope Scope) (*DataSet, *Relationships, error) {
	data := &DataSet{}

	if scope == ScopeComplete || scope == ScopeProducts {
		categories, err := e.categoryRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		suppliers, err := e.supplierRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		products, err := e.productRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		data.Categories = categoryRecords(categories)
		data.Suppliers = supplierRecords(suppliers)
		data.Products = productRecords(products)
	}

	if scope == ScopeComplete || scope == ScopeSales {
		sales, err := e.saleRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		items, err := e.saleRepo.FindAllItems(ctx)
		if err != nil {
			return nil, nil, err
		}
		data.Sales = saleRecords(sales, items)
	}

	if scope == ScopeComplete || scope == ScopeCustomers {
		customers, err := e.customerRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		data.Customers = customerRecords(customers)
	}

	if scope == ScopeComplete || scope == ScopeExpenses {
		expenseCategories, err := e.expenseCategoryRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		expenses, err := e.expenseRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		data.ExpenseCategories = expenseCategoryRecords(expenseCategories)
		data.Expenses = expenseRecords(expenses, expenseCategories)
	}

	if scope == ScopeComplete || scope == ScopeStockMovements {
		movements, err := e.stockMovementRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		data.StockMovements = stockMovementRecords(movements)
	}

	if scope == ScopeComplete || scope == ScopeBulkPricing {
		tiers, err := e.bulkPricingRepo.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		data.BulkPricing = bulkPricingRecords(tiers)
	}

	var relationships *Relationships
	switch scope {
	case ScopeComplete:
		names := make(map[string]string, len(data.Customers))
		for i := range data.Customers {
			names[data.Customers[i].ID] = data.Customers[i].Name
		}
		relationships = buildRelationships(data, names)
	case ScopeProducts:
		relationships = buildRelationships(data, nil)
	}

	return data, relationships, nil
}

// buildEnvelope assembles the versioned envelope around a collected set
func (e *Exporter) buildEnvelope(scope Scope, data *DataSet, relationships *Relationships) *Envelope {
	now := time.Now().UTC()
	count := data.RecordCount()

	checksum := checksumOf(data)
	envelope := &Envelope{
		Version:       EnvelopeVersion,
		ExportDate:    now,
		DataType:      scope,
		Data:          *data,
		Relationships: relationships,
		Integrity: Integrity{
			Checksum:     checksum,
			RecordCounts: recordCounts(data),
			ValidationRules: []string{
				migration.RuleUUIDFormat,
				migration.RuleForeignKeys,
				migration.RuleDataIntegrity,
			},
		},
	}
	envelope.Metadata = Metadata{
		ExportDate:        now,
		DataType:          scope,
		Version:           EnvelopeVersion,
		RecordCount:       count,
		ActualRecordCount: count,
		EmptyExport:       count == 0,
		Checksum:          checksum,
	}
	return envelope
}

// checksumOf hashes the serialized data section
func checksumOf(data *DataSet) string {
	payload, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// recordCounts tallies the records per entity type, skipping empty sets
func recordCounts(data *DataSet) map[string]int {
	counts := make(map[string]int)
	put := func(entity string, n int) {
		if n > 0 {
			counts[entity] = n
		}
	}
	put("categories", len(data.Categories))
	put("suppliers", len(data.Suppliers))
	put("products", len(data.Products))
	put("customers", len(data.Customers))
	put("sales", len(data.Sales))
	put("expenses", len(data.Expenses))
	put("expenseCategories", len(data.ExpenseCategories))
	put("stockMovements", len(data.StockMovements))
	put("bulkPricing", len(data.BulkPricing))
	items := 0
	for i := range data.Sales {
		items += len(data.Sales[i].Items)
	}
	put("saleItems", items)
	return counts
}

// buildRelationships derives the id-to-name lookup maps from the
// collected records themselves, so no extra store round trips happen
func buildRelationships(data *DataSet, customerNames map[string]string) *Relationships {
	rel := &Relationships{
		ProductCategories: make(map[string]string),
		ProductSuppliers:  make(map[string]string),
		SaleCustomers:     make(map[string]string),
	}

	categoryNames := make(map[string]string, len(data.Categories))
	for i := range data.Categories {
		categoryNames[data.Categories[i].ID] = data.Categories[i].Name
	}
	supplierNames := make(map[string]string, len(data.Suppliers))
	for i := range data.Suppliers {
		supplierNames[data.Suppliers[i].ID] = data.Suppliers[i].Name
	}

	for i := range data.Products {
		p := &data.Products[i]
		if name, ok := categoryNames[p.CategoryID]; ok {
			rel.ProductCategories[p.ID] = name
		}
		if name, ok := supplierNames[p.SupplierID]; ok {
			rel.ProductSuppliers[p.ID] = name
		}
	}
	for i := range data.Sales {
		s := &data.Sales[i]
		if name, ok := customerNames[s.CustomerID]; ok {
			rel.SaleCustomers[s.ID] = name
		}
	}
	return rel
}

func categoryRecords(categories []catalog.Category) []CategoryRecord {
	records := make([]CategoryRecord, len(categories))
	for i := range categories {
		c := &categories[i]
		records[i] = CategoryRecord{ID: c.ID.String(), Name: c.Name, Description: c.Description}
	}
	return records
}

func supplierRecords(suppliers []partner.Supplier) []SupplierRecord {
	records := make([]SupplierRecord, len(suppliers))
	for i := range suppliers {
		s := &suppliers[i]
		records[i] = SupplierRecord{
			ID:      s.ID.String(),
			Name:    s.Name,
			Contact: s.Contact,
			Phone:   s.Phone,
			Email:   s.Email,
			Address: s.Address,
		}
	}
	return records
}

func productRecords(products []catalog.Product) []ProductRecord {
	records := make([]ProductRecord, len(products))
	for i := range products {
		p := &products[i]
		rec := ProductRecord{
			ID:         p.ID.String(),
			Name:       p.Name,
			Barcode:    p.Barcode,
			Price:      p.Price,
			Cost:       p.Cost,
			Stock:      p.Stock,
			CategoryID: p.CategoryID.String(),
		}
		if p.SupplierID != nil {
			rec.SupplierID = p.SupplierID.String()
		}
		records[i] = rec
	}
	return records
}

func customerRecords(customers []partner.Customer) []CustomerRecord {
	records := make([]CustomerRecord, len(customers))
	for i := range customers {
		c := &customers[i]
		records[i] = CustomerRecord{ID: c.ID.String(), Name: c.Name, Phone: c.Phone, Email: c.Email}
	}
	return records
}

func saleRecords(sales []trade.Sale, items []trade.SaleItem) []SaleRecord {
	itemsBySale := make(map[string][]SaleItemRecord)
	for i := range items {
		item := &items[i]
		rec := SaleItemRecord{
			ID:          item.ID.String(),
			ProductName: item.DisplayName(),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		}
		if item.ProductID != nil {
			rec.ProductID = item.ProductID.String()
		}
		key := item.SaleID.String()
		itemsBySale[key] = append(itemsBySale[key], rec)
	}

	records := make([]SaleRecord, len(sales))
	for i := range sales {
		s := &sales[i]
		rec := SaleRecord{
			ID:            s.ID.String(),
			Total:         s.Total,
			PaymentMethod: s.PaymentMethod,
			CreatedAt:     s.CreatedAt,
			Items:         itemsBySale[s.ID.String()],
		}
		if s.CustomerID != nil {
			rec.CustomerID = s.CustomerID.String()
		}
		records[i] = rec
	}
	return records
}

func expenseCategoryRecords(categories []finance.ExpenseCategory) []ExpenseCategoryRecord {
	records := make([]ExpenseCategoryRecord, len(categories))
	for i := range categories {
		c := &categories[i]
		records[i] = ExpenseCategoryRecord{ID: c.ID.String(), Name: c.Name, Description: c.Description}
	}
	return records
}

func expenseRecords(expenses []finance.Expense, categories []finance.ExpenseCategory) []ExpenseRecord {
	names := make(map[string]string, len(categories))
	for i := range categories {
		names[categories[i].ID.String()] = categories[i].Name
	}
	records := make([]ExpenseRecord, len(expenses))
	for i := range expenses {
		x := &expenses[i]
		records[i] = ExpenseRecord{
			ID:           x.ID.String(),
			CategoryID:   x.CategoryID.String(),
			CategoryName: names[x.CategoryID.String()],
			Description:  x.Description,
			Amount:       x.Amount,
			IncurredAt:   x.IncurredAt,
		}
	}
	return records
}

func stockMovementRecords(movements []inventory.StockMovement) []StockMovementRecord {
	records := make([]StockMovementRecord, len(movements))
	for i := range movements {
		m := &movements[i]
		rec := StockMovementRecord{
			ID:        m.ID.String(),
			ProductID: m.ProductID.String(),
			Type:      string(m.Type),
			Quantity:  m.Quantity,
			Reason:    m.Reason,
		}
		if m.SupplierID != nil {
			rec.SupplierID = m.SupplierID.String()
		}
		records[i] = rec
	}
	return records
}

func bulkPricingRecords(tiers []catalog.BulkPricingTier) []BulkPricingRecord {
	records := make([]BulkPricingRecord, len(tiers))
	for i := range tiers {
		t := &tiers[i]
		records[i] = BulkPricingRecord{
			ID:          t.ID.String(),
			ProductID:   t.ProductID.String(),
			MinQuantity: t.MinQuantity,
			BulkPrice:   t.BulkPrice,
		}
	}
	return records
}
