package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// InsufficientStockError reports a reservation that exceeds what is
// available. The product state is unchanged when it is returned.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type StockLevel struct {
	ProductID uuid.UUID
	Available int32
}
