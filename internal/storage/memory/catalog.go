package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	memdb "github.com/hashicorp/go-memdb"
	"github.com/shopspring/decimal"

	catalogapp "storefront/internal/catalog/application"
	catalogdomain "storefront/internal/catalog/domain"
)

func (r *CatalogRepo) Create(ctx context.Context, p catalogdomain.Product) (catalogdomain.Product, error) {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	taken, err := nameTaken(txn, p.Name, "")
	if err != nil {
		return catalogdomain.Product{}, err
	}
	if taken {
		return catalogdomain.Product{}, catalogapp.ErrDuplicateName
	}

	now := r.s.now()
	rec := &productRec{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := txn.Insert("products", rec); err != nil {
		return catalogdomain.Product{}, err
	}
	txn.Commit()
	return productFromRec(rec), nil
}

func (r *CatalogRepo) Get(ctx context.Context, id uuid.UUID) (catalogdomain.Product, error) {
	txn := r.s.db.Txn(false)
	defer txn.Abort()

	rec, err := productByID(txn, id.String())
	if err != nil {
		return catalogdomain.Product{}, err
	}
	return productFromRec(rec), nil
}

func (r *CatalogRepo) List(ctx context.Context, f catalogapp.ListFilter) ([]catalogdomain.Product, string, error) {
	txn := r.s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.LowerBound("products", "id", f.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	var out []catalogdomain.Product
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*productRec)
		if rec.ID == f.Cursor {
			continue
		}
		if rec.Deleted && !f.IncludeDeleted {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(rec.Name), query) {
			continue
		}
		out = append(out, productFromRec(rec))
		if len(out) == f.Limit {
			return out, rec.ID, nil
		}
	}
	return out, "", nil
}

func (r *CatalogRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (catalogdomain.Product, error) {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	rec, err := productByID(txn, id.String())
	if err != nil {
		return catalogdomain.Product{}, err
	}
	if rec.Deleted {
		return catalogdomain.Product{}, catalogapp.ErrProductNotFound
	}

	cp := *rec
	cp.Price = price
	cp.UpdatedAt = r.s.now()
	if err := txn.Insert("products", &cp); err != nil {
		return catalogdomain.Product{}, err
	}
	txn.Commit()
	return productFromRec(&cp), nil
}

func (r *CatalogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	rec, err := productByID(txn, id.String())
	if err != nil {
		return err
	}
	if rec.Deleted {
		return catalogapp.ErrProductNotFound
	}

	it, err := txn.Get("cart_items", "product", rec.ID)
	if err != nil {
		return err
	}
	if it.Next() != nil {
		return catalogapp.ErrProductInUse
	}

	cp := *rec
	cp.Deleted = true
	cp.DeletedAt = r.s.now()
	cp.UpdatedAt = cp.DeletedAt
	if err := txn.Insert("products", &cp); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *CatalogRepo) Restore(ctx context.Context, id uuid.UUID) (catalogdomain.Product, error) {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	rec, err := productByID(txn, id.String())
	if err != nil {
		return catalogdomain.Product{}, err
	}
	if !rec.Deleted {
		return productFromRec(rec), nil
	}

	taken, err := nameTaken(txn, rec.Name, rec.ID)
	if err != nil {
		return catalogdomain.Product{}, err
	}
	if taken {
		return catalogdomain.Product{}, catalogapp.ErrDuplicateName
	}

	cp := *rec
	cp.Deleted = false
	cp.DeletedAt = time.Time{}
	cp.UpdatedAt = r.s.now()
	if err := txn.Insert("products", &cp); err != nil {
		return catalogdomain.Product{}, err
	}
	txn.Commit()
	return productFromRec(&cp), nil
}

func productByID(txn *memdb.Txn, id string) (*productRec, error) {
	raw, err := txn.First("products", "id", id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, catalogapp.ErrProductNotFound
	}
	return raw.(*productRec), nil
}

// nameTaken reports whether a non-deleted product other than exclID
// already uses the name.
func nameTaken(txn *memdb.Txn, name, exclID string) (bool, error) {
	it, err := txn.Get("products", "name", strings.ToLower(name))
	if err != nil {
		return false, err
	}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*productRec)
		if !rec.Deleted && rec.ID != exclID {
			return true, nil
		}
	}
	return false, nil
}

func productFromRec(rec *productRec) catalogdomain.Product {
	p := catalogdomain.Product{
		ID:          uuid.MustParse(rec.ID),
		Name:        rec.Name,
		Description: rec.Description,
		Price:       rec.Price,
		Stock:       rec.Stock,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.Deleted {
		at := rec.DeletedAt
		p.DeletedAt = &at
	}
	return p
}
