package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/catalog/application"
	"storefront/internal/catalog/domain"
)

const productColumns = `id, name, description, price, stock, deleted_at, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns, p.ID, p.Name, p.Description, p.Price, p.Stock)

	created, err := scanProduct(row)
	if isUniqueViolation(err) {
		return domain.Product{}, application.ErrDuplicateName
	}
	if err != nil {
		return domain.Product{}, err
	}
	return created, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, application.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// List pages by id cursor. The extra row past the limit decides whether a
// next cursor is emitted.
func (r *Repository) List(ctx context.Context, f application.ListFilter) ([]domain.Product, string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR id::text > $1)
		  AND ($2 OR deleted_at IS NULL)
		  AND ($3 = '' OR name ILIKE '%' || $3 || '%')
		ORDER BY id
		LIMIT $4
	`, f.Cursor, f.IncludeDeleted, f.Query, f.Limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(out) > f.Limit {
		out = out[:f.Limit]
		next = out[len(out)-1].ID.String()
	}
	return out, next, nil
}

func (r *Repository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products SET price = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+productColumns, id, price)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, application.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Delete marks the product deleted unless any cart item still references
// it. The reference check and the mark share one transaction, with the
// product row locked so a concurrent add-to-cart cannot slip between them.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var deleted bool
	err = tx.QueryRow(ctx, `SELECT deleted_at IS NOT NULL FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return application.ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if deleted {
		return application.ErrProductNotFound
	}

	var inUse bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cart_items WHERE product_id = $1)`, id).Scan(&inUse); err != nil {
		return err
	}
	if inUse {
		return application.ErrProductInUse
	}

	if _, err := tx.Exec(ctx, `UPDATE products SET deleted_at = now(), updated_at = now() WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Restore(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products SET deleted_at = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, application.ErrProductNotFound
	}
	if isUniqueViolation(err) {
		return domain.Product{}, application.ErrDuplicateName
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
