package category

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const listCategoriesQuery = `
	SELECT category, COUNT(*) AS product_count
	FROM products
	WHERE category <> ''
	GROUP BY category
	ORDER BY product_count DESC, category
	LIMIT $1
`

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Category, error) {
	var bound any
	if limit > 0 {
		bound = limit
	}

	rows, err := r.db.QueryContext(ctx, listCategoriesQuery, bound)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
