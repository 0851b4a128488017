package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartapp "storefront/internal/cart/application"
	catalogapp "storefront/internal/catalog/application"
	inventorydomain "storefront/internal/inventory/domain"
)

func TestCartAddItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	customer := uuid.New()
	p := seedProduct(t, s, "Widget", "299.99", 10)

	t.Run("add reserves stock and snapshots price", func(t *testing.T) {
		cart, err := s.Carts().AddItem(ctx, customer, p.ID, 2)
		if err != nil {
			t.Fatalf("add item: %v", err)
		}
		item, ok := cart.Item(p.ID)
		if !ok || item.Quantity != 2 {
			t.Fatalf("expected quantity 2, got %+v", item)
		}
		if !item.UnitPrice.Equal(decimal.RequireFromString("299.99")) {
			t.Fatalf("expected snapshot 299.99, got %s", item.UnitPrice)
		}
		level, _ := s.Ledger().Availability(ctx, p.ID)
		if level.Available != 8 {
			t.Fatalf("expected 8 available, got %d", level.Available)
		}
	})

	t.Run("second add merges and keeps the first snapshot", func(t *testing.T) {
		if _, err := s.Catalog().UpdatePrice(ctx, p.ID, decimal.RequireFromString("349.99")); err != nil {
			t.Fatalf("reprice: %v", err)
		}
		cart, err := s.Carts().AddItem(ctx, customer, p.ID, 3)
		if err != nil {
			t.Fatalf("add item: %v", err)
		}
		item, _ := cart.Item(p.ID)
		if item.Quantity != 5 {
			t.Fatalf("expected quantity 5, got %d", item.Quantity)
		}
		if !item.UnitPrice.Equal(decimal.RequireFromString("299.99")) {
			t.Fatalf("snapshot changed on merge: %s", item.UnitPrice)
		}
	})

	t.Run("insufficient stock leaves cart and ledger untouched", func(t *testing.T) {
		_, err := s.Carts().AddItem(ctx, customer, p.ID, 6)
		var stockErr *inventorydomain.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		cart, _ := s.Carts().Get(ctx, customer)
		item, _ := cart.Item(p.ID)
		if item.Quantity != 5 {
			t.Fatalf("cart changed on failed add: %+v", cart)
		}
		level, _ := s.Ledger().Availability(ctx, p.ID)
		if level.Available != 5 {
			t.Fatalf("ledger changed on failed add: %d", level.Available)
		}
	})

	t.Run("unknown product rejected", func(t *testing.T) {
		_, err := s.Carts().AddItem(ctx, customer, uuid.New(), 1)
		if !errors.Is(err, catalogapp.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("deleted product rejected", func(t *testing.T) {
		gone := seedProduct(t, s, "Gone", "1.00", 5)
		if err := s.Catalog().Delete(ctx, gone.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		_, err := s.Carts().AddItem(ctx, customer, gone.ID, 1)
		if !errors.Is(err, catalogapp.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})
}

func TestCartSetItemQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	customer := uuid.New()
	p := seedProduct(t, s, "Widget", "9.99", 10)

	if _, err := s.Carts().AddItem(ctx, customer, p.ID, 4); err != nil {
		t.Fatalf("add item: %v", err)
	}

	t.Run("raising quantity reserves the delta", func(t *testing.T) {
		cart, err := s.Carts().SetItemQuantity(ctx, customer, p.ID, 7)
		if err != nil {
			t.Fatalf("set quantity: %v", err)
		}
		item, _ := cart.Item(p.ID)
		if item.Quantity != 7 {
			t.Fatalf("expected quantity 7, got %d", item.Quantity)
		}
		level, _ := s.Ledger().Availability(ctx, p.ID)
		if level.Available != 3 {
			t.Fatalf("expected 3 available, got %d", level.Available)
		}
	})

	t.Run("lowering quantity releases the delta", func(t *testing.T) {
		if _, err := s.Carts().SetItemQuantity(ctx, customer, p.ID, 2); err != nil {
			t.Fatalf("set quantity: %v", err)
		}
		level, _ := s.Ledger().Availability(ctx, p.ID)
		if level.Available != 8 {
			t.Fatalf("expected 8 available, got %d", level.Available)
		}
	})

	t.Run("raising past availability fails atomically", func(t *testing.T) {
		_, err := s.Carts().SetItemQuantity(ctx, customer, p.ID, 11)
		var stockErr *inventorydomain.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		cart, _ := s.Carts().Get(ctx, customer)
		item, _ := cart.Item(p.ID)
		if item.Quantity != 2 {
			t.Fatalf("quantity changed on failed set: %d", item.Quantity)
		}
	})

	t.Run("missing item reported", func(t *testing.T) {
		_, err := s.Carts().SetItemQuantity(ctx, customer, uuid.New(), 1)
		if !errors.Is(err, cartapp.ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})
}

func TestCartRemoveItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	customer := uuid.New()
	p := seedProduct(t, s, "Widget", "9.99", 10)

	if _, err := s.Carts().AddItem(ctx, customer, p.ID, 4); err != nil {
		t.Fatalf("add item: %v", err)
	}

	cart, err := s.Carts().RemoveItem(ctx, customer, p.ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
	level, _ := s.Ledger().Availability(ctx, p.ID)
	if level.Available != 10 {
		t.Fatalf("expected full availability restored, got %d", level.Available)
	}

	if _, err := s.Carts().RemoveItem(ctx, customer, p.ID); !errors.Is(err, cartapp.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCartGetAbsent(t *testing.T) {
	s := newTestStore(t)
	cart, err := s.Carts().Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
	if !cart.Subtotal().Equal(decimal.Zero) {
		t.Fatalf("expected zero subtotal, got %s", cart.Subtotal())
	}
}

func TestCartItemOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	customer := uuid.New()

	widget := seedProduct(t, s, "Widget", "1.00", 5)
	gadget := seedProduct(t, s, "Gadget", "2.00", 5)
	sprocket := seedProduct(t, s, "Sprocket", "3.00", 5)

	added := []uuid.UUID{sprocket.ID, widget.ID, gadget.ID}
	for _, id := range added {
		if _, err := s.Carts().AddItem(ctx, customer, id, 1); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}

	cart, err := s.Carts().Get(ctx, customer)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(cart.Items) != len(added) {
		t.Fatalf("expected %d items, got %d", len(added), len(cart.Items))
	}
	for i, id := range added {
		if cart.Items[i].ProductID != id {
			t.Fatalf("item %d out of order: got %s, want %s", i, cart.Items[i].ProductID, id)
		}
	}
}
