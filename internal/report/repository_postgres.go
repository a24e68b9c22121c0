package report

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	totalsQuery = `
		SELECT
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE payment_status = ANY($1::text[])),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM users)
	`
	orderItemsQuery = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase,
			p.name, p.image_url, seller.id, seller.username, seller.email
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN users seller ON p.user_id = seller.id
		WHERE oi.order_id = ANY($1::int[])
		ORDER BY oi.id
	`
)

// countedBy restricts q to settled orders that still stand, scoped to
// products of sellerID.
func countedBy(q sq.SelectBuilder, sellerID int, p Period) sq.SelectBuilder {
	q = q.Where(sq.Eq{"p.user_id": sellerID}).
		Where(sq.Eq{"o.payment_status": settledPayments}).
		Where(sq.NotEq{"o.status": excludedStatuses})
	return withPeriod(q, p, "o.created_at")
}

func withPeriod(q sq.SelectBuilder, p Period, column string) sq.SelectBuilder {
	if f := p.Filter(column); f != nil {
		q = q.Where(f)
	}
	return q
}

func (r *PostgresRepository) MonthlySales(ctx context.Context, sellerID int, p Period) ([]MonthlySales, error) {
	q := psql.Select(
		"to_char(date_trunc('month', o.created_at), 'YYYY-MM') AS month_year",
		"SUM(oi.quantity * oi.price_at_purchase) AS total_sales_amount",
		"COUNT(DISTINCT o.id) AS number_of_orders_with_my_products",
	).
		From("order_items oi").
		Join("products p ON oi.product_id = p.id").
		Join("orders o ON oi.order_id = o.id")
	q = countedBy(q, sellerID, p).
		GroupBy("month_year").
		OrderBy("month_year DESC")

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly sales: %w", err)
	}
	defer rows.Close()

	out := make([]MonthlySales, 0)
	for rows.Next() {
		var m MonthlySales
		if err := rows.Scan(&m.MonthYear, &m.TotalSalesAmount, &m.NumberOfOrders); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) SellerOrders(ctx context.Context, sellerID int, p Period) ([]SellerOrder, error) {
	q := psql.Select(
		"oi.order_id", "oi.product_id", "oi.quantity", "oi.price_at_purchase", "p.name", "p.image_url",
		"o.created_at", "o.total_amount", "o.payment_status", "o.status", "o.shipping_address",
		"u.username", "u.email", "pay.payment_method", "pay.id",
	).
		From("order_items oi").
		Join("products p ON oi.product_id = p.id").
		Join("orders o ON oi.order_id = o.id").
		Join("users u ON o.user_id = u.id").
		Join("payments pay ON o.payment_id = pay.id")
	q = countedBy(q, sellerID, p).
		OrderBy("o.created_at DESC", "o.id DESC", "oi.id")

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seller orders: %w", err)
	}
	defer rows.Close()

	out := make([]SellerOrder, 0)
	index := make(map[int]int)
	for rows.Next() {
		var (
			o  SellerOrder
			sp SellerProduct
		)
		if err := rows.Scan(
			&o.OrderID,
			&sp.ProductID,
			&sp.Quantity,
			&sp.PriceAtPurchase,
			&sp.ProductName,
			&sp.ImageURL,
			&o.OrderDate,
			&o.TotalAmount,
			&o.PaymentStatus,
			&o.ShippingStatus,
			&o.BuyerShippingAddress,
			&o.BuyerUsername,
			&o.BuyerEmail,
			&o.PaymentMethod,
			&o.PaymentID,
		); err != nil {
			return nil, err
		}
		i, ok := index[o.OrderID]
		if !ok {
			i = len(out)
			index[o.OrderID] = i
			out = append(out, o)
		}
		out[i].Products = append(out[i].Products, sp)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.QueryRowContext(ctx, totalsQuery, pq.Array(settledPayments)).
		Scan(&t.Sales, &t.Orders, &t.Products, &t.Users)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to fetch dashboard totals: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Users(ctx context.Context, p Period) ([]UserRow, error) {
	q := psql.Select("id", "username", "email", "phone", "user_type", "created_at", "updated_at").
		From("users")
	q = withPeriod(q, p, "created_at").OrderBy("created_at DESC", "id DESC")

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users report: %w", err)
	}
	defer rows.Close()

	out := make([]UserRow, 0)
	for rows.Next() {
		var u UserRow
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.UserType, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Stock(ctx context.Context, p Period) ([]StockRow, error) {
	q := psql.Select(
		"p.id", "p.name", "p.description", "p.price", "p.stock_quantity", "p.category",
		"u.username", "u.email", "p.created_at", "p.updated_at",
	).
		From("products p").
		Join("users u ON p.user_id = u.id")
	q = withPeriod(q, p, "p.created_at").OrderBy("p.stock_quantity ASC", "p.id")

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock report: %w", err)
	}
	defer rows.Close()

	out := make([]StockRow, 0)
	for rows.Next() {
		var s StockRow
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Description,
			&s.Price,
			&s.StockQuantity,
			&s.Category,
			&s.SellerUsername,
			&s.SellerEmail,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Orders(ctx context.Context, p Period) ([]OrderRow, error) {
	q := psql.Select(
		"o.id", "o.user_id", "u.username", "u.email", "o.total_amount", "o.status", "o.payment_status",
		"o.shipping_address", "o.tracking_number", "pay.payment_method", "pay.transaction_id", "pay.id",
		"o.created_at", "o.updated_at",
	).
		From("orders o").
		Join("users u ON o.user_id = u.id").
		LeftJoin("payments pay ON o.payment_id = pay.id")
	q = withPeriod(q, p, "o.created_at").OrderBy("o.created_at DESC", "o.id DESC")

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders report: %w", err)
	}
	defer rows.Close()

	out := make([]OrderRow, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var (
			o                           OrderRow
			tracking, method, reference sql.NullString
			paymentID                   sql.NullInt64
		)
		if err := rows.Scan(
			&o.OrderID,
			&o.BuyerID,
			&o.BuyerUsername,
			&o.BuyerEmail,
			&o.TotalAmount,
			&o.ShippingStatus,
			&o.PaymentStatus,
			&o.ShippingAddress,
			&tracking,
			&method,
			&reference,
			&paymentID,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		o.TrackingNumber = nullString(tracking)
		o.PaymentMethod = nullString(method)
		o.TransactionID = nullString(reference)
		if paymentID.Valid {
			id := int(paymentID.Int64)
			o.PaymentID = &id
		}
		o.Items = make([]OrderRowItem, 0)
		out = append(out, o)
		ids = append(ids, o.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	if err := r.attachItems(ctx, out, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) attachItems(ctx context.Context, orders []OrderRow, ids []int) error {
	rows, err := r.db.QueryContext(ctx, orderItemsQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to fetch order items: %w", err)
	}
	defer rows.Close()

	index := make(map[int]int, len(orders))
	for i, o := range orders {
		index[o.OrderID] = i
	}
	for rows.Next() {
		var (
			orderID int
			it      OrderRowItem
		)
		if err := rows.Scan(
			&it.OrderItemID,
			&orderID,
			&it.ProductID,
			&it.Quantity,
			&it.PriceAtPurchase,
			&it.ProductName,
			&it.ImageURL,
			&it.SellerID,
			&it.SellerUsername,
			&it.SellerEmail,
		); err != nil {
			return err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) query(ctx context.Context, q sq.SelectBuilder) (*sql.Rows, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return r.db.QueryContext(ctx, query, args...)
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
