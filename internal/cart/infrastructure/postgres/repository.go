package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/cart/application"
	"storefront/internal/cart/domain"
	inventorypg "storefront/internal/inventory/infrastructure/postgres"
)

// Repository keeps every cart mutation and its ledger adjustment in one
// transaction, so a reservation is never visible without its cart item.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Get(ctx context.Context, customerID uuid.UUID) (domain.Cart, error) {
	return loadCart(ctx, r.pool, customerID)
}

func (r *Repository) AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int32) (domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Cart{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := inventorypg.Reserve(ctx, tx, productID, qty); err != nil {
		return domain.Cart{}, err
	}

	cartID, err := cartForWrite(ctx, tx, customerID)
	if err != nil {
		return domain.Cart{}, err
	}

	// New items snapshot the current catalog price; existing items merge
	// quantities and keep the snapshot from the first add.
	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
		SELECT $1, id, $3, price FROM products WHERE id = $2
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, cartID, productID, qty)
	if err != nil {
		return domain.Cart{}, err
	}

	cart, err := loadCart(ctx, tx, customerID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (r *Repository) SetItemQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int32) (domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Cart{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var cartID uuid.UUID
	var current int32
	err = tx.QueryRow(ctx, `
		SELECT c.id, ci.quantity
		FROM carts c JOIN cart_items ci ON ci.cart_id = c.id
		WHERE c.customer_id = $1 AND ci.product_id = $2
		FOR UPDATE OF ci
	`, customerID, productID).Scan(&cartID, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, application.ErrItemNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}

	switch delta := qty - current; {
	case delta > 0:
		err = inventorypg.Reserve(ctx, tx, productID, delta)
	case delta < 0:
		err = inventorypg.Release(ctx, tx, productID, -delta)
	}
	if err != nil {
		return domain.Cart{}, err
	}

	_, err = tx.Exec(ctx, `UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`, cartID, productID, qty)
	if err != nil {
		return domain.Cart{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return domain.Cart{}, err
	}

	cart, err := loadCart(ctx, tx, customerID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (r *Repository) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Cart{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var qty int32
	err = tx.QueryRow(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.customer_id = $1 AND ci.product_id = $2
		RETURNING ci.quantity
	`, customerID, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, application.ErrItemNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}

	if err := inventorypg.Release(ctx, tx, productID, qty); err != nil {
		return domain.Cart{}, err
	}

	cart, err := loadCart(ctx, tx, customerID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// cartForWrite resolves the customer's cart id, creating the cart on
// first use. The upsert makes concurrent first adds converge on one row.
func cartForWrite(ctx context.Context, q inventorypg.Querier, customerID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx, `
		INSERT INTO carts (id, customer_id) VALUES ($1, $2)
		ON CONFLICT (customer_id) DO UPDATE SET updated_at = now()
		RETURNING id
	`, uuid.New(), customerID).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

type querier interface {
	inventorypg.Querier
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadCart(ctx context.Context, q querier, customerID uuid.UUID) (domain.Cart, error) {
	var cart domain.Cart
	err := q.QueryRow(ctx, `SELECT id, customer_id, created_at, updated_at FROM carts WHERE customer_id = $1`, customerID).
		Scan(&cart.ID, &cart.CustomerID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{CustomerID: customerID}, nil
	}
	if err != nil {
		return domain.Cart{}, err
	}

	rows, err := q.Query(ctx, `
		SELECT product_id, quantity, unit_price, added_at
		FROM cart_items WHERE cart_id = $1
		ORDER BY added_at, product_id
	`, cart.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice, &item.AddedAt); err != nil {
			return domain.Cart{}, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}
