package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/catalog/domain"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateName   = errors.New("product name already in use")
	ErrProductInUse    = errors.New("product is referenced by an active cart")
)

type Service struct {
	log  *slog.Logger
	repo ProductRepo
}

func NewService(log *slog.Logger, repo ProductRepo) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) CreateProduct(ctx context.Context, name, desc string, price decimal.Decimal) (domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" || price.Sign() <= 0 {
		return domain.Product{}, ErrInvalidInput
	}

	p, err := s.repo.Create(ctx, domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: desc,
		Price:       price,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// GetProduct resolves a product for catalog callers; deleted products are
// not visible here.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if p.Deleted() {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}

// ResolveProduct resolves by identity regardless of deletion, for admin
// queries and historical snapshots.
func (s *Service) ResolveProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, f ListFilter) ([]domain.Product, string, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return s.repo.List(ctx, f)
}

func (s *Service) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (domain.Product, error) {
	if price.Sign() <= 0 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.UpdatePrice(ctx, id, price)
}

// DeleteProduct soft-deletes. It fails with ErrProductInUse while any cart
// item references the product; order snapshots are unaffected either way.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "product_id", id)
	return nil
}

func (s *Service) RestoreProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	p, err := s.repo.Restore(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product restored", "product_id", id)
	return p, nil
}
