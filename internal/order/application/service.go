package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"storefront/internal/order/domain"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAddressUnverified = errors.New("shipping address could not be verified")
	ErrOrderNotFound     = errors.New("order not found")
)

type Service struct {
	log      *slog.Logger
	store    Store
	cart     CartChecker
	verifier AddressVerifier
}

func NewService(log *slog.Logger, store Store, cart CartChecker, verifier AddressVerifier) *Service {
	return &Service{log: log, store: store, cart: cart, verifier: verifier}
}

// Submit runs the three checkpoints in order: cart check, address
// verification, atomic commit. Each failure halts with no partial effect;
// in particular a verification failure leaves the cart and its
// reservations intact so the customer can resubmit.
func (s *Service) Submit(ctx context.Context, customerID uuid.UUID, addr domain.ShippingAddress) (domain.Order, error) {
	hasItems, err := s.cart.HasItems(ctx, customerID)
	if err != nil {
		return domain.Order{}, err
	}
	if !hasItems {
		return domain.Order{}, ErrEmptyCart
	}

	ok, err := s.verifier.Verify(ctx, addr)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %v", ErrAddressUnverified, err)
	}
	if !ok {
		return domain.Order{}, ErrAddressUnverified
	}
	addr.Verified = true

	order, err := s.store.CreateFromCart(ctx, customerID, addr)
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order submitted",
		"order_id", order.ID,
		"customer_id", customerID,
		"total", order.Total.String(),
		"items", len(order.Items),
	)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return s.store.Get(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}
