package partner

import (
	"github.com/pos/backend/internal/domain/shared"
)

// SupplierRepository defines the persistence interface for suppliers
type SupplierRepository interface {
	shared.NamedRepository[Supplier]
}

// CustomerRepository defines the persistence interface for customers
type CustomerRepository interface {
	shared.NamedRepository[Customer]
}
