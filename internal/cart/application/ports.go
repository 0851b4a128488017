package application

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/cart/domain"
)

// Store owns cart persistence. Every mutation pairs the item change with
// the matching ledger adjustment inside one transaction, so readers never
// observe a reservation without its cart item or the reverse.
//
// The active cart is created implicitly on first mutation; Get on an
// absent cart returns an empty one.
type Store interface {
	Get(ctx context.Context, customerID uuid.UUID) (domain.Cart, error)

	// AddItem reserves qty and merges it into the item for productID,
	// keeping the existing unit-price snapshot; a new item snapshots the
	// current catalog price. Deleted or unknown products fail with
	// catalog's ErrProductNotFound; reservation failure surfaces
	// *inventory.InsufficientStockError with the cart untouched.
	AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int32) (domain.Cart, error)

	// SetItemQuantity reserves or releases the delta against the current
	// quantity, then sets it. Missing items fail with ErrItemNotFound.
	SetItemQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int32) (domain.Cart, error)

	// RemoveItem releases the item's full quantity and deletes it.
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (domain.Cart, error)
}
