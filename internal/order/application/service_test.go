package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/order/domain"
)

type fakeStore struct {
	created   int
	lastAddr  domain.ShippingAddress
	createErr error
}

func (f *fakeStore) CreateFromCart(ctx context.Context, customerID uuid.UUID, addr domain.ShippingAddress) (domain.Order, error) {
	if f.createErr != nil {
		return domain.Order{}, f.createErr
	}
	f.created++
	f.lastAddr = addr
	return domain.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Address:    addr,
		Total:      decimal.RequireFromString("599.98"),
		Items:      []domain.OrderItem{{ProductID: uuid.New(), Name: "Widget", UnitPrice: decimal.RequireFromString("299.99"), Quantity: 2}},
	}, nil
}

func (f *fakeStore) Get(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return domain.Order{}, ErrOrderNotFound
}

func (f *fakeStore) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	return nil, nil
}

type fakeCart struct {
	hasItems bool
}

func (f fakeCart) HasItems(ctx context.Context, customerID uuid.UUID) (bool, error) {
	return f.hasItems, nil
}

type fakeVerifier struct {
	ok  bool
	err error
}

func (f fakeVerifier) Verify(ctx context.Context, addr domain.ShippingAddress) (bool, error) {
	return f.ok, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSubmitCheckpoints(t *testing.T) {
	ctx := context.Background()
	customer := uuid.New()
	addr := domain.ShippingAddress{Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}

	t.Run("empty cart halts before verification", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(discardLogger(), store, fakeCart{hasItems: false}, fakeVerifier{ok: true})

		_, err := svc.Submit(ctx, customer, addr)
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
		if store.created != 0 {
			t.Fatal("store must not be touched on empty cart")
		}
	})

	t.Run("negative verdict halts before commit", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(discardLogger(), store, fakeCart{hasItems: true}, fakeVerifier{ok: false})

		_, err := svc.Submit(ctx, customer, addr)
		if !errors.Is(err, ErrAddressUnverified) {
			t.Fatalf("expected ErrAddressUnverified, got %v", err)
		}
		if store.created != 0 {
			t.Fatal("store must not be touched on failed verification")
		}
	})

	t.Run("verifier transport failure reads as unverified", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(discardLogger(), store, fakeCart{hasItems: true}, fakeVerifier{err: errors.New("connection refused")})

		_, err := svc.Submit(ctx, customer, addr)
		if !errors.Is(err, ErrAddressUnverified) {
			t.Fatalf("expected ErrAddressUnverified, got %v", err)
		}
		if store.created != 0 {
			t.Fatal("store must not be touched on verifier failure")
		}
	})

	t.Run("all checkpoints green commits once", func(t *testing.T) {
		store := &fakeStore{}
		svc := NewService(discardLogger(), store, fakeCart{hasItems: true}, fakeVerifier{ok: true})

		o, err := svc.Submit(ctx, customer, addr)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if store.created != 1 {
			t.Fatalf("expected one commit, got %d", store.created)
		}
		if !store.lastAddr.Verified {
			t.Fatal("address must be marked verified before commit")
		}
		if !o.Total.Equal(decimal.RequireFromString("599.98")) {
			t.Fatalf("unexpected total %s", o.Total)
		}
	})

	t.Run("commit-time empty cart surfaces", func(t *testing.T) {
		store := &fakeStore{createErr: ErrEmptyCart}
		svc := NewService(discardLogger(), store, fakeCart{hasItems: true}, fakeVerifier{ok: true})

		_, err := svc.Submit(ctx, customer, addr)
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
	})
}
