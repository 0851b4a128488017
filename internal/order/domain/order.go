package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingAddress carries structured postal fields. Verified is set only
// by the address verifier, never defaulted.
type ShippingAddress struct {
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
	Verified   bool
}

// OrderItem is a frozen copy of the product taken at submission time.
// Later catalog edits, repricing or deletion never reach it.
type OrderItem struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

type Order struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	Items       []OrderItem
	Address     ShippingAddress
	Total       decimal.Decimal
	SubmittedAt time.Time
}
