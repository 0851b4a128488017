package application

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/inventory/domain"
)

// Ledger owns the authoritative available-quantity counter per product.
// Reserve and Release are atomic and linearizable per product: concurrent
// reserves never oversell, and the counter never goes negative.
type Ledger interface {
	// Reserve decrements availability by qty, or fails with
	// *domain.InsufficientStockError leaving state unchanged.
	Reserve(ctx context.Context, productID uuid.UUID, qty int32) error

	// Release returns qty units. Quantities are bounded by prior
	// reservations, so it never fails on stock grounds.
	Release(ctx context.Context, productID uuid.UUID, qty int32) error

	// AddStock credits new inventory (admin restock).
	AddStock(ctx context.Context, productID uuid.UUID, qty int32) (domain.StockLevel, error)

	Availability(ctx context.Context, productID uuid.UUID) (domain.StockLevel, error)
}
