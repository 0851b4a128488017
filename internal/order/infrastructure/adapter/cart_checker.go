package adapter

import (
	"context"

	"github.com/google/uuid"

	cartapp "storefront/internal/cart/application"
)

// CartChecker answers the submission workflow's pre-verification
// checkpoint from the cart service.
type CartChecker struct {
	cart *cartapp.Service
}

func NewCartChecker(cart *cartapp.Service) *CartChecker {
	return &CartChecker{cart: cart}
}

func (c *CartChecker) HasItems(ctx context.Context, customerID uuid.UUID) (bool, error) {
	cart, err := c.cart.GetCart(ctx, customerID)
	if err != nil {
		return false, err
	}
	return !cart.IsEmpty(), nil
}
