// Package exchange implements the import and export pipelines: envelope
// serialization, conflict detection, and relationship resolution for data
// moved in and out of the store.
package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnvelopeVersion is the export file format version
const EnvelopeVersion = "2.0"

// Scope selects which entity types an export covers
type Scope string

const (
	ScopeComplete       Scope = "complete"
	ScopeProducts       Scope = "products"
	ScopeSales          Scope = "sales"
	ScopeCustomers      Scope = "customers"
	ScopeExpenses       Scope = "expenses"
	ScopeStockMovements Scope = "stock_movements"
	ScopeBulkPricing    Scope = "bulk_pricing"
)

// IsValid reports whether the scope is one of the known values
func (s Scope) IsValid() bool {
	switch s {
	case ScopeComplete, ScopeProducts, ScopeSales, ScopeCustomers,
		ScopeExpenses, ScopeStockMovements, ScopeBulkPricing:
		return true
	}
	return false
}

// Envelope is the versioned export file format. Import accepts the same
// shape and reads only its Data section.
type Envelope struct {
	Version       string         `json:"version"`
	ExportDate    time.Time      `json:"exportDate"`
	DataType      Scope          `json:"dataType"`
	Metadata      Metadata       `json:"metadata"`
	Data          DataSet        `json:"data"`
	Relationships *Relationships `json:"relationships,omitempty"`
	Integrity     Integrity      `json:"integrity"`
}

// Metadata describes the export artifact itself
type Metadata struct {
	ExportDate        time.Time `json:"exportDate"`
	DataType          Scope     `json:"dataType"`
	Version           string    `json:"version"`
	RecordCount       int       `json:"recordCount"`
	FileSize          int64     `json:"fileSize"`
	ActualRecordCount int       `json:"actualRecordCount,omitempty"`
	EmptyExport       bool      `json:"emptyExport,omitempty"`
	Checksum          string    `json:"checksum,omitempty"`
}

// DataSet holds the per-entity record arrays. Absent entity types are
// omitted from the serialized form.
type DataSet struct {
	Categories        []CategoryRecord        `json:"categories,omitempty"`
	Suppliers         []SupplierRecord        `json:"suppliers,omitempty"`
	Products          []ProductRecord         `json:"products,omitempty"`
	Customers         []CustomerRecord        `json:"customers,omitempty"`
	Sales             []SaleRecord            `json:"sales,omitempty"`
	Expenses          []ExpenseRecord         `json:"expenses,omitempty"`
	ExpenseCategories []ExpenseCategoryRecord `json:"expenseCategories,omitempty"`
	StockMovements    []StockMovementRecord   `json:"stockMovements,omitempty"`
	BulkPricing       []BulkPricingRecord     `json:"bulkPricing,omitempty"`
}

// Relationships expresses foreign keys as id-to-display-name lookups so
// the file is readable without joining against the store
type Relationships struct {
	ProductCategories map[string]string `json:"productCategories"`
	ProductSuppliers  map[string]string `json:"productSuppliers"`
	SaleCustomers     map[string]string `json:"saleCustomers"`
}

// Integrity carries the checks the payload is expected to satisfy
type Integrity struct {
	Checksum        string         `json:"checksum"`
	RecordCounts    map[string]int `json:"recordCounts"`
	ValidationRules []string       `json:"validationRules"`
}

// RecordCount sums every record in the set, counting sale line items
// individually
func (d *DataSet) RecordCount() int {
	n := len(d.Categories) + len(d.Suppliers) + len(d.Products) +
		len(d.Customers) + len(d.Expenses) + len(d.ExpenseCategories) +
		len(d.StockMovements) + len(d.BulkPricing) + len(d.Sales)
	for i := range d.Sales {
		n += len(d.Sales[i].Items)
	}
	return n
}

// IsEmpty reports whether the set contains no records at all
func (d *DataSet) IsEmpty() bool {
	return d.RecordCount() == 0
}

// CategoryRecord is the wire form of a product category
type CategoryRecord struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

// SupplierRecord is the wire form of a supplier
type SupplierRecord struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name" validate:"required,max=100"`
	Contact string `json:"contact,omitempty" validate:"max=100"`
	Phone   string `json:"phone,omitempty" validate:"max=30"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address,omitempty" validate:"max=300"`
}

// ProductRecord is the wire form of a product. Category and supplier links
// carry both the identifier and the display name so the resolver can fall
// back to name matching when the identifier is unknown to this store.
type ProductRecord struct {
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name" validate:"required,max=200"`
	Barcode      string          `json:"barcode,omitempty" validate:"max=50"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost,omitempty"`
	Stock        int             `json:"stock,omitempty" validate:"min=0"`
	CategoryID   string          `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
	SupplierID   string          `json:"supplierId,omitempty"`
	SupplierName string          `json:"supplierName,omitempty"`
}

// CustomerRecord is the wire form of a customer
type CustomerRecord struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone,omitempty" validate:"max=30"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// SaleRecord is the wire form of a sale with its line items nested
type SaleRecord struct {
	ID            string           `json:"id,omitempty"`
	CustomerID    string           `json:"customerId,omitempty"`
	CustomerName  string           `json:"customerName,omitempty"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod string           `json:"paymentMethod,omitempty" validate:"max=30"`
	CreatedAt     time.Time        `json:"createdAt,omitempty"`
	Items         []SaleItemRecord `json:"items" validate:"required,min=1,dive"`
}

// SaleItemRecord is one line of a sale. ProductID may reference a product
// that no longer exists; the denormalized name keeps the line readable.
type SaleItemRecord struct {
	ID          string          `json:"id,omitempty"`
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName" validate:"required,max=200"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ExpenseCategoryRecord is the wire form of an expense category
type ExpenseCategoryRecord struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

// ExpenseRecord is the wire form of an expense
type ExpenseRecord struct {
	ID           string          `json:"id,omitempty"`
	CategoryID   string          `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
	Description  string          `json:"description" validate:"required,max=300"`
	Amount       decimal.Decimal `json:"amount"`
	IncurredAt   time.Time       `json:"incurredAt,omitempty"`
}

// StockMovementRecord is the wire form of a stock movement
type StockMovementRecord struct {
	ID           string          `json:"id,omitempty"`
	ProductID    string          `json:"productId,omitempty"`
	ProductName  string          `json:"productName,omitempty"`
	SupplierID   string          `json:"supplierId,omitempty"`
	SupplierName string          `json:"supplierName,omitempty"`
	Type         string          `json:"type" validate:"required,oneof=in out adjustment"`
	Quantity     int             `json:"quantity" validate:"required"`
	Reason       string          `json:"reason,omitempty" validate:"max=300"`
}

// BulkPricingRecord is the wire form of a bulk pricing tier
type BulkPricingRecord struct {
	ID          string          `json:"id,omitempty"`
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	MinQuantity int             `json:"minQuantity" validate:"required,gte=2"`
	BulkPrice   decimal.Decimal `json:"bulkPrice"`
}
