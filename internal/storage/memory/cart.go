package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	memdb "github.com/hashicorp/go-memdb"

	cartapp "storefront/internal/cart/application"
	cartdomain "storefront/internal/cart/domain"
	catalogapp "storefront/internal/catalog/application"
)

func (c *CartStore) Get(ctx context.Context, customerID uuid.UUID) (cartdomain.Cart, error) {
	txn := c.s.db.Txn(false)
	defer txn.Abort()
	return cartFromTxn(txn, customerID)
}

func (c *CartStore) AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int32) (cartdomain.Cart, error) {
	txn := c.s.db.Txn(true)
	defer txn.Abort()

	product, err := productByID(txn, productID.String())
	if err != nil {
		return cartdomain.Cart{}, err
	}
	if product.Deleted {
		return cartdomain.Cart{}, catalogapp.ErrProductNotFound
	}

	if err := c.s.reserveTxn(txn, productID, qty); err != nil {
		return cartdomain.Cart{}, err
	}

	cart, err := c.s.cartForWrite(txn, customerID)
	if err != nil {
		return cartdomain.Cart{}, err
	}

	raw, err := txn.First("cart_items", "id", cart.ID, productID.String())
	if err != nil {
		return cartdomain.Cart{}, err
	}
	if raw != nil {
		// Merge quantities; the unit-price snapshot from the first add stays.
		cp := *(raw.(*cartItemRec))
		cp.Quantity += qty
		if err := txn.Insert("cart_items", &cp); err != nil {
			return cartdomain.Cart{}, err
		}
	} else {
		item := &cartItemRec{
			CartID:    cart.ID,
			ProductID: productID.String(),
			Quantity:  qty,
			UnitPrice: product.Price,
			AddedAt:   c.s.now(),
		}
		if err := txn.Insert("cart_items", item); err != nil {
			return cartdomain.Cart{}, err
		}
	}

	if err := c.s.touchCart(txn, cart); err != nil {
		return cartdomain.Cart{}, err
	}

	out, err := cartFromTxn(txn, customerID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	txn.Commit()
	return out, nil
}

func (c *CartStore) SetItemQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int32) (cartdomain.Cart, error) {
	txn := c.s.db.Txn(true)
	defer txn.Abort()

	cart, err := cartByCustomer(txn, customerID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	if cart == nil {
		return cartdomain.Cart{}, cartapp.ErrItemNotFound
	}

	raw, err := txn.First("cart_items", "id", cart.ID, productID.String())
	if err != nil {
		return cartdomain.Cart{}, err
	}
	if raw == nil {
		return cartdomain.Cart{}, cartapp.ErrItemNotFound
	}
	item := raw.(*cartItemRec)

	delta := qty - item.Quantity
	switch {
	case delta > 0:
		if err := c.s.reserveTxn(txn, productID, delta); err != nil {
			return cartdomain.Cart{}, err
		}
	case delta < 0:
		if err := c.s.releaseTxn(txn, productID, -delta); err != nil {
			return cartdomain.Cart{}, err
		}
	}

	cp := *item
	cp.Quantity = qty
	if err := txn.Insert("cart_items", &cp); err != nil {
		return cartdomain.Cart{}, err
	}
	if err := c.s.touchCart(txn, cart); err != nil {
		return cartdomain.Cart{}, err
	}

	out, err := cartFromTxn(txn, customerID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	txn.Commit()
	return out, nil
}

func (c *CartStore) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (cartdomain.Cart, error) {
	txn := c.s.db.Txn(true)
	defer txn.Abort()

	cart, err := cartByCustomer(txn, customerID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	if cart == nil {
		return cartdomain.Cart{}, cartapp.ErrItemNotFound
	}

	raw, err := txn.First("cart_items", "id", cart.ID, productID.String())
	if err != nil {
		return cartdomain.Cart{}, err
	}
	if raw == nil {
		return cartdomain.Cart{}, cartapp.ErrItemNotFound
	}
	item := raw.(*cartItemRec)

	if err := c.s.releaseTxn(txn, productID, item.Quantity); err != nil {
		return cartdomain.Cart{}, err
	}
	if err := txn.Delete("cart_items", item); err != nil {
		return cartdomain.Cart{}, err
	}
	if err := c.s.touchCart(txn, cart); err != nil {
		return cartdomain.Cart{}, err
	}

	out, err := cartFromTxn(txn, customerID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	txn.Commit()
	return out, nil
}

func cartByCustomer(txn *memdb.Txn, customerID uuid.UUID) (*cartRec, error) {
	raw, err := txn.First("carts", "customer", customerID.String())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*cartRec), nil
}

// cartForWrite returns the customer's active cart, creating it on first use.
func (s *Store) cartForWrite(txn *memdb.Txn, customerID uuid.UUID) (*cartRec, error) {
	cart, err := cartByCustomer(txn, customerID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	now := s.now()
	cart = &cartRec{
		ID:         uuid.NewString(),
		CustomerID: customerID.String(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := txn.Insert("carts", cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Store) touchCart(txn *memdb.Txn, cart *cartRec) error {
	cp := *cart
	cp.UpdatedAt = s.now()
	return txn.Insert("carts", &cp)
}

func cartFromTxn(txn *memdb.Txn, customerID uuid.UUID) (cartdomain.Cart, error) {
	cart, err := cartByCustomer(txn, customerID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	if cart == nil {
		return cartdomain.Cart{CustomerID: customerID}, nil
	}

	out := cartdomain.Cart{
		ID:         uuid.MustParse(cart.ID),
		CustomerID: customerID,
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}

	it, err := txn.Get("cart_items", "cart", cart.ID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*cartItemRec)
		out.Items = append(out.Items, cartdomain.CartItem{
			ProductID: uuid.MustParse(rec.ProductID),
			Quantity:  rec.Quantity,
			UnitPrice: rec.UnitPrice,
			AddedAt:   rec.AddedAt,
		})
	}
	// Index iteration yields product-id order; present items as added.
	sort.Slice(out.Items, func(i, j int) bool {
		a, b := out.Items[i], out.Items[j]
		if !a.AddedAt.Equal(b.AddedAt) {
			return a.AddedAt.Before(b.AddedAt)
		}
		return a.ProductID.String() < b.ProductID.String()
	})
	return out, nil
}
