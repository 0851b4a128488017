package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderapp "storefront/internal/order/application"
	orderdomain "storefront/internal/order/domain"
)

// CreateFromCart snapshots the cart into an order and empties the cart in
// one write transaction. The ledger is untouched: the reserved units are
// consumed, not released.
func (o *OrderStore) CreateFromCart(ctx context.Context, customerID uuid.UUID, addr orderdomain.ShippingAddress) (orderdomain.Order, error) {
	txn := o.s.db.Txn(true)
	defer txn.Abort()

	cart, err := cartByCustomer(txn, customerID)
	if err != nil {
		return orderdomain.Order{}, err
	}
	if cart == nil {
		return orderdomain.Order{}, orderapp.ErrEmptyCart
	}

	it, err := txn.Get("cart_items", "cart", cart.ID)
	if err != nil {
		return orderdomain.Order{}, err
	}

	var items []orderItemRec
	var toDelete []*cartItemRec
	total := decimal.Zero
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*cartItemRec)
		product, err := productByID(txn, rec.ProductID)
		if err != nil {
			return orderdomain.Order{}, err
		}
		items = append(items, orderItemRec{
			ProductID: rec.ProductID,
			Name:      product.Name,
			UnitPrice: rec.UnitPrice,
			Quantity:  rec.Quantity,
		})
		total = total.Add(rec.UnitPrice.Mul(decimal.NewFromInt32(rec.Quantity)))
		toDelete = append(toDelete, rec)
	}
	if len(items) == 0 {
		return orderdomain.Order{}, orderapp.ErrEmptyCart
	}

	rec := &orderRec{
		ID:          uuid.NewString(),
		CustomerID:  customerID.String(),
		Items:       items,
		Address:     addr,
		Total:       total,
		SubmittedAt: o.s.now(),
	}
	if err := txn.Insert("orders", rec); err != nil {
		return orderdomain.Order{}, err
	}

	for _, item := range toDelete {
		if err := txn.Delete("cart_items", item); err != nil {
			return orderdomain.Order{}, err
		}
	}
	if err := o.s.touchCart(txn, cart); err != nil {
		return orderdomain.Order{}, err
	}

	txn.Commit()
	return orderFromRec(rec), nil
}

func (o *OrderStore) Get(ctx context.Context, orderID uuid.UUID) (orderdomain.Order, error) {
	txn := o.s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First("orders", "id", orderID.String())
	if err != nil {
		return orderdomain.Order{}, err
	}
	if raw == nil {
		return orderdomain.Order{}, orderapp.ErrOrderNotFound
	}
	return orderFromRec(raw.(*orderRec)), nil
}

func (o *OrderStore) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]orderdomain.Order, error) {
	txn := o.s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get("orders", "customer", customerID.String())
	if err != nil {
		return nil, err
	}

	var out []orderdomain.Order
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, orderFromRec(raw.(*orderRec)))
	}
	return out, nil
}

func orderFromRec(rec *orderRec) orderdomain.Order {
	items := make([]orderdomain.OrderItem, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, orderdomain.OrderItem{
			ProductID: uuid.MustParse(it.ProductID),
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return orderdomain.Order{
		ID:          uuid.MustParse(rec.ID),
		CustomerID:  uuid.MustParse(rec.CustomerID),
		Items:       items,
		Address:     rec.Address,
		Total:       rec.Total,
		SubmittedAt: rec.SubmittedAt,
	}
}
