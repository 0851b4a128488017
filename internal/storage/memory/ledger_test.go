package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	inventorydomain "storefront/internal/inventory/domain"
)

func TestLedgerReserveNeverOversells(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Widget", "9.99", 40)

	const attempts = 100
	var succeeded atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			err := s.Ledger().Reserve(ctx, p.ID, 1)
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			var stockErr *inventorydomain.InsufficientStockError
			if errors.As(err, &stockErr) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent reserve failed: %v", err)
	}

	if got := succeeded.Load(); got != 40 {
		t.Fatalf("expected exactly 40 successful reserves, got %d", got)
	}
	level, err := s.Ledger().Availability(ctx, p.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if level.Available != 0 {
		t.Fatalf("expected 0 available, got %d", level.Available)
	}
}

func TestLedgerReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seedProduct(t, s, "Widget", "9.99", 5)

	t.Run("failed reserve leaves counter untouched", func(t *testing.T) {
		err := s.Ledger().Reserve(ctx, p.ID, 6)
		var stockErr *inventorydomain.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if stockErr.Requested != 6 || stockErr.Available != 5 {
			t.Fatalf("unexpected error detail: %+v", stockErr)
		}
		level, _ := s.Ledger().Availability(ctx, p.ID)
		if level.Available != 5 {
			t.Fatalf("expected 5 available, got %d", level.Available)
		}
	})

	t.Run("release credits back", func(t *testing.T) {
		if err := s.Ledger().Reserve(ctx, p.ID, 3); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if err := s.Ledger().Release(ctx, p.ID, 3); err != nil {
			t.Fatalf("release: %v", err)
		}
		level, _ := s.Ledger().Availability(ctx, p.ID)
		if level.Available != 5 {
			t.Fatalf("expected 5 available, got %d", level.Available)
		}
	})

	t.Run("restock raises availability", func(t *testing.T) {
		level, err := s.Ledger().AddStock(ctx, p.ID, 10)
		if err != nil {
			t.Fatalf("add stock: %v", err)
		}
		if level.Available != 15 {
			t.Fatalf("expected 15 available, got %d", level.Available)
		}
	})
}
