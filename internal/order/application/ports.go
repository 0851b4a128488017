package application

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/order/domain"
)

type Store interface {
	// CreateFromCart converts the customer's cart into an immutable order
	// in one transaction: item snapshots written, total computed, cart
	// emptied, OrderSubmitted recorded for the outbox. Reservations are
	// not touched; they become consumption. An empty cart fails with
	// ErrEmptyCart and no mutation.
	CreateFromCart(ctx context.Context, customerID uuid.UUID, addr domain.ShippingAddress) (domain.Order, error)

	Get(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error)
}

// AddressVerifier is the external verification collaborator. Transport
// failures and non-true results are treated identically by the workflow.
type AddressVerifier interface {
	Verify(ctx context.Context, addr domain.ShippingAddress) (bool, error)
}

// CartChecker reports whether the customer's cart has items, for the
// pre-verification checkpoint.
type CartChecker interface {
	HasItems(ctx context.Context, customerID uuid.UUID) (bool, error)
}
