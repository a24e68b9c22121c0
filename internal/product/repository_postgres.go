package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/abayahaven/marketplace-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const productColumns = "id, user_id, name, description, price, stock_quantity, category, image_url, created_at, updated_at"

const (
	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
	`
	listProductsLimitQuery = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	listSellerProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	listProductsWithSellersQuery = `
		SELECT p.id, p.user_id, p.name, p.description, p.price, p.stock_quantity, p.category, p.image_url,
			p.created_at, p.updated_at, u.username, u.email
		FROM products p
		JOIN users u ON p.user_id = u.id
		ORDER BY p.created_at DESC, p.id DESC
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	insertProductQuery = `
		INSERT INTO products (user_id, name, description, price, stock_quantity, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	deleteProductCartRowsQuery = `DELETE FROM carts WHERE product_id = $1`
	deleteProductQuery         = `DELETE FROM products WHERE id = $1`
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Product, error) {
	if limit > 0 {
		return r.query(ctx, scanProduct, listProductsLimitQuery, limit)
	}
	return r.query(ctx, scanProduct, listProductsQuery)
}

func (r *PostgresRepository) ListBySeller(ctx context.Context, sellerID int) ([]Product, error) {
	return r.query(ctx, scanProduct, listSellerProductsQuery, sellerID)
}

func (r *PostgresRepository) ListWithSellers(ctx context.Context) ([]Product, error) {
	return r.query(ctx, scanProductWithSeller, listProductsWithSellersQuery)
}

func (r *PostgresRepository) query(ctx context.Context, scan func(rowScanner) (Product, error), query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(
		ctx,
		insertProductQuery,
		p.SellerID,
		p.Name,
		p.Description,
		p.Price,
		p.StockQuantity,
		p.Category,
		p.ImageURL,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, patch Patch) (Product, error) {
	q := psql.Update("products").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + productColumns)

	if patch.Name != nil {
		q = q.Set("name", *patch.Name)
	}
	if patch.Description != nil {
		q = q.Set("description", *patch.Description)
	}
	if patch.Price != nil {
		q = q.Set("price", *patch.Price)
	}
	if patch.StockQuantity != nil {
		q = q.Set("stock_quantity", *patch.StockQuantity)
	}
	if patch.Category != nil {
		q = q.Set("category", *patch.Category)
	}
	if patch.ImageURL != nil {
		q = q.Set("image_url", *patch.ImageURL)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return Product{}, fmt.Errorf("failed to build product update: %w", err)
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, deleteProductCartRowsQuery, id); err != nil {
		return fmt.Errorf("failed to remove product from carts: %w", err)
	}

	result, err := tx.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrHasOrders
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func scanProduct(scanner rowScanner) (Product, error) {
	var p Product
	if err := scanner.Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.StockQuantity,
		&p.Category,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Product{}, err
	}
	return p, nil
}

func scanProductWithSeller(scanner rowScanner) (Product, error) {
	var p Product
	var username, email sql.NullString
	if err := scanner.Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.StockQuantity,
		&p.Category,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
		&username,
		&email,
	); err != nil {
		return Product{}, err
	}
	p.SellerUsername = username.String
	p.SellerEmail = email.String
	return p, nil
}
