package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogapp "storefront/internal/catalog/application"
	catalogdomain "storefront/internal/catalog/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	return s
}

func seedProduct(t *testing.T, s *Store, name string, price string, stock int32) catalogdomain.Product {
	t.Helper()
	p, err := s.Catalog().Create(context.Background(), catalogdomain.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("seed product %q: %v", name, err)
	}
	return p
}

func TestCatalogCreate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedProduct(t, s, "Widget", "9.99", 10)

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := s.Catalog().Create(ctx, catalogdomain.Product{ID: uuid.New(), Name: "widget", Price: decimal.RequireFromString("1.00")})
		if !errors.Is(err, catalogapp.ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("distinct name allowed", func(t *testing.T) {
		if _, err := s.Catalog().Create(ctx, catalogdomain.Product{ID: uuid.New(), Name: "Gadget", Price: decimal.RequireFromString("1.00")}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	})
}

func TestCatalogUpdatePrice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := seedProduct(t, s, "Widget", "9.99", 10)

	t.Run("live product repriced", func(t *testing.T) {
		got, err := s.Catalog().UpdatePrice(ctx, p.ID, decimal.RequireFromString("12.50"))
		if err != nil {
			t.Fatalf("update price failed: %v", err)
		}
		if !got.Price.Equal(decimal.RequireFromString("12.50")) {
			t.Fatalf("expected price 12.50, got %s", got.Price)
		}
	})

	t.Run("deleted product not repriceable", func(t *testing.T) {
		if err := s.Catalog().Delete(ctx, p.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		_, err := s.Catalog().UpdatePrice(ctx, p.ID, decimal.RequireFromString("19.99"))
		if !errors.Is(err, catalogapp.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
		got, err := s.Catalog().Get(ctx, p.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !got.Price.Equal(decimal.RequireFromString("12.50")) {
			t.Fatalf("price changed on deleted product: %s", got.Price)
		}
	})
}

func TestCatalogDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	customer := uuid.New()
	p := seedProduct(t, s, "Widget", "9.99", 10)

	t.Run("referenced product cannot be deleted", func(t *testing.T) {
		if _, err := s.Carts().AddItem(ctx, customer, p.ID, 1); err != nil {
			t.Fatalf("add item: %v", err)
		}
		err := s.Catalog().Delete(ctx, p.ID)
		if !errors.Is(err, catalogapp.ErrProductInUse) {
			t.Fatalf("expected ErrProductInUse, got %v", err)
		}
	})

	t.Run("unreferenced product soft-deletes", func(t *testing.T) {
		if _, err := s.Carts().RemoveItem(ctx, customer, p.ID); err != nil {
			t.Fatalf("remove item: %v", err)
		}
		if err := s.Catalog().Delete(ctx, p.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		got, err := s.Catalog().Get(ctx, p.ID)
		if err != nil {
			t.Fatalf("get after delete: %v", err)
		}
		if got.DeletedAt == nil {
			t.Fatal("expected DeletedAt to be set")
		}
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		err := s.Catalog().Delete(ctx, p.ID)
		if !errors.Is(err, catalogapp.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("restore brings the product back", func(t *testing.T) {
		got, err := s.Catalog().Restore(ctx, p.ID)
		if err != nil {
			t.Fatalf("restore failed: %v", err)
		}
		if got.DeletedAt != nil {
			t.Fatal("expected DeletedAt cleared")
		}
	})

	t.Run("restore blocked by live name conflict", func(t *testing.T) {
		if err := s.Catalog().Delete(ctx, p.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		seedProduct(t, s, "Widget", "4.99", 1)
		_, err := s.Catalog().Restore(ctx, p.ID)
		if !errors.Is(err, catalogapp.ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}
	})
}

func TestCatalogList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	names := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}
	for _, n := range names {
		seedProduct(t, s, n, "1.00", 1)
	}
	deleted := seedProduct(t, s, "Zeta", "1.00", 1)
	if err := s.Catalog().Delete(ctx, deleted.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	t.Run("deleted products excluded by default", func(t *testing.T) {
		items, _, err := s.Catalog().List(ctx, catalogapp.ListFilter{Limit: 100})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != len(names) {
			t.Fatalf("expected %d products, got %d", len(names), len(items))
		}
	})

	t.Run("include_deleted shows them", func(t *testing.T) {
		items, _, err := s.Catalog().List(ctx, catalogapp.ListFilter{Limit: 100, IncludeDeleted: true})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != len(names)+1 {
			t.Fatalf("expected %d products, got %d", len(names)+1, len(items))
		}
	})

	t.Run("cursor pages through without repeats", func(t *testing.T) {
		seen := map[string]bool{}
		cursor := ""
		for {
			items, next, err := s.Catalog().List(ctx, catalogapp.ListFilter{Limit: 2, Cursor: cursor})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			for _, p := range items {
				if seen[p.ID.String()] {
					t.Fatalf("product %s returned twice", p.ID)
				}
				seen[p.ID.String()] = true
			}
			if next == "" {
				break
			}
			cursor = next
		}
		if len(seen) != len(names) {
			t.Fatalf("expected %d products across pages, got %d", len(names), len(seen))
		}
	})

	t.Run("query filters by name", func(t *testing.T) {
		items, _, err := s.Catalog().List(ctx, catalogapp.ListFilter{Limit: 100, Query: "eta"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != 1 || items[0].Name != "Beta" {
			t.Fatalf("expected only Beta, got %+v", items)
		}
	})
}
