package memory

import (
	"context"

	"github.com/google/uuid"
	memdb "github.com/hashicorp/go-memdb"

	catalogapp "storefront/internal/catalog/application"
	inventorydomain "storefront/internal/inventory/domain"
)

func (l *Ledger) Reserve(ctx context.Context, productID uuid.UUID, qty int32) error {
	txn := l.s.db.Txn(true)
	defer txn.Abort()

	if err := l.s.reserveTxn(txn, productID, qty); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (l *Ledger) Release(ctx context.Context, productID uuid.UUID, qty int32) error {
	txn := l.s.db.Txn(true)
	defer txn.Abort()

	if err := l.s.releaseTxn(txn, productID, qty); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (l *Ledger) AddStock(ctx context.Context, productID uuid.UUID, qty int32) (inventorydomain.StockLevel, error) {
	txn := l.s.db.Txn(true)
	defer txn.Abort()

	rec, err := productByID(txn, productID.String())
	if err != nil {
		return inventorydomain.StockLevel{}, err
	}
	if rec.Deleted {
		return inventorydomain.StockLevel{}, catalogapp.ErrProductNotFound
	}

	cp := *rec
	cp.Stock += qty
	cp.UpdatedAt = l.s.now()
	if err := txn.Insert("products", &cp); err != nil {
		return inventorydomain.StockLevel{}, err
	}
	txn.Commit()
	return inventorydomain.StockLevel{ProductID: productID, Available: cp.Stock}, nil
}

func (l *Ledger) Availability(ctx context.Context, productID uuid.UUID) (inventorydomain.StockLevel, error) {
	txn := l.s.db.Txn(false)
	defer txn.Abort()

	rec, err := productByID(txn, productID.String())
	if err != nil {
		return inventorydomain.StockLevel{}, err
	}
	if rec.Deleted {
		return inventorydomain.StockLevel{}, catalogapp.ErrProductNotFound
	}
	return inventorydomain.StockLevel{ProductID: productID, Available: rec.Stock}, nil
}

// reserveTxn is the check-and-decrement shared by the ledger and the cart
// mutations; callers hold the write transaction, which is what makes the
// pair atomic.
func (s *Store) reserveTxn(txn *memdb.Txn, productID uuid.UUID, qty int32) error {
	rec, err := productByID(txn, productID.String())
	if err != nil {
		return err
	}
	if rec.Deleted {
		return catalogapp.ErrProductNotFound
	}
	if rec.Stock < qty {
		return &inventorydomain.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: rec.Stock,
		}
	}

	cp := *rec
	cp.Stock -= qty
	cp.UpdatedAt = s.now()
	return txn.Insert("products", &cp)
}

func (s *Store) releaseTxn(txn *memdb.Txn, productID uuid.UUID, qty int32) error {
	rec, err := productByID(txn, productID.String())
	if err != nil {
		return err
	}

	cp := *rec
	cp.Stock += qty
	cp.UpdatedAt = s.now()
	return txn.Insert("products", &cp)
}
