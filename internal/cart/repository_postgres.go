package cart

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/abayahaven/marketplace-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	// xmax is zero only for a freshly inserted tuple, which tells an insert
	// apart from the conflict update.
	upsertCartQuery = `
		INSERT INTO carts (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING (xmax = 0) AS inserted
	`
	setCartQuantityQuery = `
		UPDATE carts SET quantity = $1, updated_at = NOW()
		WHERE user_id = $2 AND product_id = $3
	`
	removeCartItemQuery = `DELETE FROM carts WHERE user_id = $1 AND product_id = $2`
	listCartQuery       = `
		SELECT c.id, c.product_id, c.quantity, p.name, p.description, p.price, p.image_url, p.stock_quantity
		FROM carts c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, userID, productID, qty int) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx, upsertCartQuery, userID, productID, qty).Scan(&inserted)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, ErrProductNotFound
		}
		return false, fmt.Errorf("failed to add cart item: %w", err)
	}
	return inserted, nil
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, userID, productID, qty int) error {
	return r.execOne(ctx, setCartQuantityQuery, qty, userID, productID)
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, productID int) error {
	return r.execOne(ctx, removeCartItemQuery, userID, productID)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, listCartQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.CartItemID,
			&it.ProductID,
			&it.Quantity,
			&it.Name,
			&it.Description,
			&it.Price,
			&it.ImageURL,
			&it.StockQuantity,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
