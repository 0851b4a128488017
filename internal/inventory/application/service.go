package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"storefront/internal/inventory/domain"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// Service exposes the admin-facing ledger operations. Reserve and Release
// are called by the cart aggregate inside its own transaction boundary,
// not through this service.
type Service struct {
	log    *slog.Logger
	ledger Ledger
}

func NewService(log *slog.Logger, ledger Ledger) *Service {
	return &Service{log: log, ledger: ledger}
}

func (s *Service) AddStock(ctx context.Context, productID uuid.UUID, qty int32) (domain.StockLevel, error) {
	if qty <= 0 {
		return domain.StockLevel{}, ErrInvalidQuantity
	}
	level, err := s.ledger.AddStock(ctx, productID, qty)
	if err != nil {
		return domain.StockLevel{}, err
	}
	s.log.Info("stock added", "product_id", productID, "qty", qty, "available", level.Available)
	return level, nil
}

func (s *Service) Availability(ctx context.Context, productID uuid.UUID) (domain.StockLevel, error) {
	return s.ledger.Availability(ctx, productID)
}
