package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is an owned line of a cart. UnitPrice is the catalog price
// captured when the item was first added; later catalog repricing does
// not touch it.
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice decimal.Decimal
	AddedAt   time.Time
}

type Cart struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Items      []CartItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c Cart) Item(productID uuid.UUID) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	return total
}
