package exchange

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/shared"
)

// RefKind tags how a parent reference is expressed
type RefKind int

const (
	// RefUnspecified means neither identifier nor name was supplied
	RefUnspecified RefKind = iota
	// RefByID means a syntactically valid identifier was supplied
	RefByID
	// RefByName means only a display name was supplied
	RefByName
)

// ParentRef is a loose foreign-key reference from an imported record.
// When the kind is RefByID the name, if present, still serves as a
// fallback should the identifier not resolve in this store.
type ParentRef struct {
	Kind RefKind
	ID   uuid.UUID
	Name string
}

// ByID builds a reference resolved primarily by identifier
func ByID(id uuid.UUID, name string) ParentRef {
	return ParentRef{Kind: RefByID, ID: id, Name: name}
}

// ByName builds a reference resolved by display name only
func ByName(name string) ParentRef {
	return ParentRef{Kind: RefByName, Name: name}
}

// Unspecified builds an empty reference that resolves to the
// entity-specific fallback
func Unspecified() ParentRef {
	return ParentRef{Kind: RefUnspecified}
}

// ParseRef classifies a raw (id, name) pair from an imported record
func ParseRef(rawID, name string) ParentRef {
	if id, err := uuid.Parse(rawID); err == nil && id != uuid.Nil {
		return ByID(id, name)
	}
	if name != "" {
		return ByName(name)
	}
	return Unspecified()
}

// Resolver maps loose parent references onto concrete rows, creating the
// parent when only an unknown name is supplied. Every persisted foreign
// key goes through a resolver first, so references always land on a real
// row.
type Resolver struct {
	categoryRepo        catalog.CategoryRepository
	supplierRepo        partner.SupplierRepository
	expenseCategoryRepo finance.ExpenseCategoryRepository
	logger              *zap.Logger
}

// NewResolver creates a resolver over the given repositories
func NewResolver(
	categoryRepo catalog.CategoryRepository,
	supplierRepo partner.SupplierRepository,
	expenseCategoryRepo finance.ExpenseCategoryRepository,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		categoryRepo:        categoryRepo,
		supplierRepo:        supplierRepo,
		expenseCategoryRepo: expenseCategoryRepo,
		logger:              logger.Named("resolver"),
	}
}

// ResolveCategory resolves a category reference: identifier match first,
// then exact name match, then create-by-name, then the first existing
// category as a last resort. Fails only when the store holds no category
// at all.
func (r *Resolver) ResolveCategory(ctx context.Context, ref ParentRef) (uuid.UUID, error) {
	if ref.Kind == RefByID {
		_, err := r.categoryRepo.FindByID(ctx, ref.ID)
		if err == nil {
			return ref.ID, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, err
		}
	}

	if ref.Name != "" {
		existing, err := r.categoryRepo.FindByName(ctx, ref.Name)
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, err
		}

		created, err := catalog.NewCategory(ref.Name, "")
		if err != nil {
			return uuid.Nil, err
		}
		if err := r.categoryRepo.Save(ctx, created); err != nil {
			return uuid.Nil, err
		}
		r.logger.Info("Created category for unresolved reference",
			zap.String("name", ref.Name),
			zap.String("category_id", created.ID.String()),
		)
		return created.ID, nil
	}

	fallback, err := r.categoryRepo.FindFirst(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, shared.NewDomainError("RESOLUTION_FAILED",
				"Cannot resolve category reference: store holds no categories")
		}
		return uuid.Nil, err
	}
	return fallback.ID, nil
}

// ResolveSupplier resolves a supplier reference the same way as
// ResolveCategory, except the fallback is no supplier at all.
func (r *Resolver) ResolveSupplier(ctx context.Context, ref ParentRef) (*uuid.UUID, error) {
	if ref.Kind == RefByID {
		_, err := r.supplierRepo.FindByID(ctx, ref.ID)
		if err == nil {
			id := ref.ID
			return &id, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	if ref.Name != "" {
		existing, err := r.supplierRepo.FindByName(ctx, ref.Name)
		if err == nil {
			return &existing.ID, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}

		created, err := partner.NewSupplier(ref.Name)
		if err != nil {
			return nil, err
		}
		if err := r.supplierRepo.Save(ctx, created); err != nil {
			return nil, err
		}
		r.logger.Info("Created supplier for unresolved reference",
			zap.String("name", ref.Name),
			zap.String("supplier_id", created.ID.String()),
		)
		return &created.ID, nil
	}

	return nil, nil
}

// ResolveExpenseCategory resolves an expense category reference. Unlike
// product categories there is no fallback row: an empty reference fails,
// and the caller skips that record.
func (r *Resolver) ResolveExpenseCategory(ctx context.Context, ref ParentRef) (uuid.UUID, error) {
	if ref.Kind == RefByID {
		_, err := r.expenseCategoryRepo.FindByID(ctx, ref.ID)
		if err == nil {
			return ref.ID, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, err
		}
	}

	if ref.Name != "" {
		existing, err := r.expenseCategoryRepo.FindByName(ctx, ref.Name)
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, err
		}

		created, err := finance.NewExpenseCategory(ref.Name, "")
		if err != nil {
			return uuid.Nil, err
		}
		if err := r.expenseCategoryRepo.Save(ctx, created); err != nil {
			return uuid.Nil, err
		}
		r.logger.Info("Created expense category for unresolved reference",
			zap.String("name", ref.Name),
			zap.String("expense_category_id", created.ID.String()),
		)
		return created.ID, nil
	}

	return uuid.Nil, shared.NewDomainError("RESOLUTION_FAILED",
		"Expense requires a category reference and none was supplied")
}
