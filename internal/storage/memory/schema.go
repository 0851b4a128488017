package memory

import (
	"time"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/shopspring/decimal"

	orderdomain "storefront/internal/order/domain"
)

type productRec struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int32
	Deleted     bool
	DeletedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type cartRec struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type cartItemRec struct {
	CartID    string
	ProductID string
	Quantity  int32
	UnitPrice decimal.Decimal
	AddedAt   time.Time
}

type orderItemRec struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
}

type orderRec struct {
	ID          string
	CustomerID  string
	Items       []orderItemRec
	Address     orderdomain.ShippingAddress
	Total       decimal.Decimal
	SubmittedAt time.Time
}

type flagRec struct {
	Name        string
	Enabled     bool
	TargetGroup string
	Recipients  []string
}

type membershipRec struct {
	Group  string
	UserID string
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"products": {
				Name: "products",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"name": {
						Name:    "name",
						Indexer: &memdb.StringFieldIndex{Field: "Name", Lowercase: true},
					},
				},
			},
			"carts": {
				Name: "carts",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"customer": {
						Name:    "customer",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "CustomerID"},
					},
				},
			},
			"cart_items": {
				Name: "cart_items",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:   "id",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "CartID"},
								&memdb.StringFieldIndex{Field: "ProductID"},
							},
						},
					},
					"cart": {
						Name:    "cart",
						Indexer: &memdb.StringFieldIndex{Field: "CartID"},
					},
					"product": {
						Name:    "product",
						Indexer: &memdb.StringFieldIndex{Field: "ProductID"},
					},
				},
			},
			"orders": {
				Name: "orders",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"customer": {
						Name:    "customer",
						Indexer: &memdb.StringFieldIndex{Field: "CustomerID"},
					},
				},
			},
			"flags": {
				Name: "flags",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name"},
					},
				},
			},
			"memberships": {
				Name: "memberships",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:   "id",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "Group"},
								&memdb.StringFieldIndex{Field: "UserID"},
							},
						},
					},
				},
			},
		},
	}
}
