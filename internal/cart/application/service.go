package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"storefront/internal/cart/domain"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrItemNotFound    = errors.New("cart item not found")
)

type Service struct {
	log   *slog.Logger
	store Store
}

func NewService(log *slog.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

func (s *Service) GetCart(ctx context.Context, customerID uuid.UUID) (domain.Cart, error) {
	return s.store.Get(ctx, customerID)
}

func (s *Service) AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int32) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, ErrInvalidQuantity
	}
	cart, err := s.store.AddItem(ctx, customerID, productID, qty)
	if err != nil {
		return domain.Cart{}, err
	}
	s.log.Debug("cart item added", "customer_id", customerID, "product_id", productID, "qty", qty)
	return cart, nil
}

func (s *Service) SetItemQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int32) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, ErrInvalidQuantity
	}
	return s.store.SetItemQuantity(ctx, customerID, productID, qty)
}

func (s *Service) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (domain.Cart, error) {
	return s.store.RemoveItem(ctx, customerID, productID)
}
