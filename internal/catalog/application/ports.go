package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/catalog/domain"
)

type ListFilter struct {
	Query          string
	Limit          int
	Cursor         string
	IncludeDeleted bool
}

type ProductRepo interface {
	// Create fails with ErrDuplicateName when the name collides with a
	// non-deleted product.
	Create(ctx context.Context, p domain.Product) (domain.Product, error)

	// Get resolves by identity, deleted products included; callers decide
	// visibility. Absent ids fail with ErrProductNotFound.
	Get(ctx context.Context, id uuid.UUID) (domain.Product, error)

	List(ctx context.Context, f ListFilter) ([]domain.Product, string, error)

	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (domain.Product, error)

	// Delete soft-deletes, failing with ErrProductInUse when any cart item
	// still references the product. The reference check and the mark are
	// one atomic step.
	Delete(ctx context.Context, id uuid.UUID) error

	Restore(ctx context.Context, id uuid.UUID) (domain.Product, error)
}
