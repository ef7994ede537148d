package shared

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the base interface for all repositories
type Repository[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	FindAll(ctx context.Context) ([]T, error)
	Save(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// NamedRepository extends Repository with natural-key lookup for entities
// matched by display name during import
type NamedRepository[T any] interface {
	Repository[T]
	FindByName(ctx context.Context, name string) (*T, error)
}
