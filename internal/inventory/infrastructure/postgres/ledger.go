package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogapp "storefront/internal/catalog/application"
	"storefront/internal/inventory/domain"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// reserve and release statements can run standalone or inside a caller's
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Reserve decrements availability with a single conditional UPDATE. The
// row-level lock makes concurrent reserves on one product serialize, and
// the stock >= qty guard keeps the counter non-negative.
func Reserve(ctx context.Context, q Querier, productID uuid.UUID, qty int32) error {
	ct, err := q.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND stock >= $2
	`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var available int32
	err = q.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 AND deleted_at IS NULL`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalogapp.ErrProductNotFound
	}
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
}

// Release credits qty units back.
func Release(ctx context.Context, q Querier, productID uuid.UUID, qty int32) error {
	ct, err := q.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return catalogapp.ErrProductNotFound
	}
	return nil
}

type Ledger struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewLedger(log *slog.Logger, pool *pgxpool.Pool) *Ledger {
	return &Ledger{log: log, pool: pool}
}

func (l *Ledger) Reserve(ctx context.Context, productID uuid.UUID, qty int32) error {
	return Reserve(ctx, l.pool, productID, qty)
}

func (l *Ledger) Release(ctx context.Context, productID uuid.UUID, qty int32) error {
	return Release(ctx, l.pool, productID, qty)
}

func (l *Ledger) AddStock(ctx context.Context, productID uuid.UUID, qty int32) (domain.StockLevel, error) {
	var available int32
	err := l.pool.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING stock
	`, productID, qty).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StockLevel{}, catalogapp.ErrProductNotFound
	}
	if err != nil {
		return domain.StockLevel{}, err
	}
	return domain.StockLevel{ProductID: productID, Available: available}, nil
}

func (l *Ledger) Availability(ctx context.Context, productID uuid.UUID) (domain.StockLevel, error) {
	var available int32
	err := l.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 AND deleted_at IS NULL`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StockLevel{}, catalogapp.ErrProductNotFound
	}
	if err != nil {
		return domain.StockLevel{}, err
	}
	return domain.StockLevel{ProductID: productID, Available: available}, nil
}
