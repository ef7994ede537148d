package migration

// columnSpec describes one payload column carried from the legacy table
// into its UUID-keyed replacement.
type columnSpec struct {
	Name    string
	SQLType string
}

// foreignKeySpec describes one foreign-key column and its parent table.
// Required references falling on a missing parent are remapped to the
// parent table's designated default row; optional and soft references
// are set to NULL instead.
type foreignKeySpec struct {
	Column   string
	RefTable string
	Required bool
	Soft     bool
}

// tableSpec describes one entity table of the store
type tableSpec struct {
	Name        string
	Columns     []columnSpec
	ForeignKeys []foreignKeySpec
}

// tableSpecs lists every entity table in dependency order: parents before
// the tables that reference them. The migration engine copies and the
// integrity validator walks tables in exactly this order.
var tableSpecs = []tableSpec{
	{
		Name: "categories",
		Columns: []columnSpec{
			{"name", "VARCHAR(100) NOT NULL"},
			{"description", "TEXT"},
		},
	},
	{
		Name: "suppliers",
		Columns: []columnSpec{
			{"name", "VARCHAR(100) NOT NULL"},
			{"contact", "VARCHAR(100)"},
			{"phone", "VARCHAR(30)"},
			{"email", "VARCHAR(100)"},
			{"address", "VARCHAR(300)"},
		},
	},
	{
		Name: "expense_categories",
		Columns: []columnSpec{
			{"name", "VARCHAR(100) NOT NULL"},
			{"description", "TEXT"},
		},
	},
	{
		Name: "customers",
		Columns: []columnSpec{
			{"name", "VARCHAR(100) NOT NULL"},
			{"phone", "VARCHAR(30)"},
			{"email", "VARCHAR(100)"},
		},
	},
	{
		Name: "products",
		Columns: []columnSpec{
			{"name", "VARCHAR(200) NOT NULL"},
			{"barcode", "VARCHAR(50)"},
			{"price", "DECIMAL(12,2) NOT NULL"},
			{"cost", "DECIMAL(12,2)"},
			{"stock", "INTEGER NOT NULL DEFAULT 0"},
			{"image_path", "VARCHAR(500)"},
		},
		ForeignKeys: []foreignKeySpec{
			{Column: "category_id", RefTable: "categories", Required: true},
			{Column: "supplier_id", RefTable: "suppliers"},
		},
	},
	{
		Name: "sales",
		Columns: []columnSpec{
			{"total", "DECIMAL(12,2) NOT NULL"},
			{"payment_method", "VARCHAR(30) NOT NULL DEFAULT 'cash'"},
		},
		ForeignKeys: []foreignKeySpec{
			{Column: "customer_id", RefTable: "customers"},
		},
	},
	{
		Name: "sale_items",
		Columns: []columnSpec{
			{"product_name", "VARCHAR(200) NOT NULL"},
			{"quantity", "INTEGER NOT NULL"},
			{"unit_price", "DECIMAL(12,2) NOT NULL"},
			{"subtotal", "DECIMAL(12,2) NOT NULL"},
		},
		ForeignKeys: []foreignKeySpec{
			{Column: "sale_id", RefTable: "sales", Required: true},
			{Column: "product_id", RefTable: "products", Soft: true},
		},
	},
	{
		Name: "expenses",
		Columns: []columnSpec{
			{"description", "VARCHAR(300) NOT NULL"},
			{"amount", "DECIMAL(12,2) NOT NULL"},
			{"incurred_at", "DATETIME NOT NULL"},
		},
		ForeignKeys: []foreignKeySpec{
			{Column: "category_id", RefTable: "expense_categories", Required: true},
		},
	},
	{
		Name: "stock_movements",
		Columns: []columnSpec{
			{"type", "VARCHAR(20) NOT NULL"},
			{"quantity", "INTEGER NOT NULL"},
			{"reason", "VARCHAR(300)"},
		},
		ForeignKeys: []foreignKeySpec{
			{Column: "product_id", RefTable: "products", Required: true},
			{Column: "supplier_id", RefTable: "suppliers"},
		},
	},
	{
		Name: "bulk_pricing_tiers",
		Columns: []columnSpec{
			{"min_quantity", "INTEGER NOT NULL"},
			{"bulk_price", "DECIMAL(12,2) NOT NULL"},
		},
		ForeignKeys: []foreignKeySpec{
			{Column: "product_id", RefTable: "products", Required: true},
		},
	},
}
