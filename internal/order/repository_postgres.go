package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/abayahaven/marketplace-backend/internal/payment"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	lockProductsQuery = `
		SELECT id, name, price, stock_quantity
		FROM products
		WHERE id = ANY($1::int[])
		ORDER BY id
		FOR UPDATE
	`
	createOrderQuery = `
		INSERT INTO orders (user_id, total_amount, status, payment_status, shipping_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	createPaymentQuery = `
		INSERT INTO payments (order_id, payment_method, transaction_id, amount, currency, status, details, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	attachPaymentQuery = `UPDATE orders SET payment_id = $1, updated_at = NOW() WHERE id = $2`
	insertItemQuery    = `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4)
	`
	decrementStockQuery = `
		UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1
	`
	incrementStockQuery = `UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW() WHERE id = $2`
	clearCartQuery      = `DELETE FROM carts WHERE user_id = $1`
	lockOrderQuery      = `
		SELECT id, user_id, total_amount, status, payment_status, shipping_address, tracking_number, payment_id, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	orderItemsQuery   = `SELECT product_id, quantity, price_at_purchase FROM order_items WHERE order_id = $1 ORDER BY id`
	sellsInOrderQuery = `
		SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN products p ON oi.product_id = p.id
			WHERE oi.order_id = $1 AND p.user_id = $2
		)
	`
	lockPaymentQuery = `
		SELECT id, order_id, payment_method, transaction_id, amount, currency, status, details, payment_date
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`
	deleteOrderItemsQuery = `DELETE FROM order_items WHERE order_id = $1`
	detachPaymentQuery    = `UPDATE orders SET payment_id = NULL WHERE id = $1`
	deletePaymentsQuery   = `DELETE FROM payments WHERE order_id = $1`
	deleteOrderQuery      = `DELETE FROM orders WHERE id = $1`

	cartLinesQuery = `
		SELECT c.product_id, p.name, c.quantity, p.price, p.stock_quantity
		FROM carts c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.id
	`
	placedOrdersQuery = `
		SELECT o.id, o.created_at, o.total_amount, o.payment_status, o.status, o.shipping_address,
			o.tracking_number, pay.payment_method, pay.transaction_id
		FROM orders o
		JOIN payments pay ON o.payment_id = pay.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC
	`
	orderItemsBatchQuery = `
		SELECT oi.order_id, oi.id, oi.product_id, oi.quantity, oi.price_at_purchase, p.name, p.image_url,
			p.user_id, seller.username, seller.email
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN users seller ON p.user_id = seller.id
		WHERE oi.order_id = ANY($1::int[])
		ORDER BY oi.id
	`
	receivedOrdersQuery = `
		SELECT oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase, p.name, p.image_url,
			o.created_at, o.total_amount, o.payment_status, o.status, o.shipping_address,
			u.username, u.email, pay.payment_method, pay.id
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN orders o ON oi.order_id = o.id
		JOIN users u ON o.user_id = u.id
		JOIN payments pay ON o.payment_id = pay.id
		WHERE p.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC, oi.id
	`
	adminOrdersQuery = `
		SELECT o.id, o.user_id, u.username, u.email, o.total_amount, o.status, o.payment_status,
			o.shipping_address, o.tracking_number, pay.payment_method, pay.transaction_id,
			o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON o.user_id = u.id
		LEFT JOIN payments pay ON o.payment_id = pay.id
		ORDER BY o.created_at DESC, o.id DESC
	`
)

func (s *PostgresStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) CartLines(ctx context.Context, userID int) ([]CartLine, error) {
	rows, err := s.db.QueryContext(ctx, cartLinesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	defer rows.Close()

	lines := make([]CartLine, 0)
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.Price, &l.StockQuantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *PostgresStore) ListPlaced(ctx context.Context, buyerID int) ([]PlacedOrder, error) {
	rows, err := s.db.QueryContext(ctx, placedOrdersQuery, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch placed orders: %w", err)
	}
	defer rows.Close()

	orders := make([]PlacedOrder, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var (
			o        PlacedOrder
			tracking sql.NullString
		)
		if err := rows.Scan(
			&o.OrderID,
			&o.OrderDate,
			&o.TotalAmount,
			&o.PaymentStatus,
			&o.ShippingStatus,
			&o.ShippingAddress,
			&tracking,
			&o.PaymentMethod,
			&o.TransactionID,
		); err != nil {
			return nil, err
		}
		o.TrackingNumber = nullString(tracking)
		o.Items = make([]PlacedItem, 0)
		orders = append(orders, o)
		ids = append(ids, o.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.itemsByOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		for _, it := range items[orders[i].OrderID] {
			orders[i].Items = append(orders[i].Items, it.PlacedItem)
		}
	}
	return orders, nil
}

// itemsByOrder loads the lines of many orders in one query.
func (s *PostgresStore) itemsByOrder(ctx context.Context, orderIDs []int) (map[int][]AdminItem, error) {
	out := make(map[int][]AdminItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, orderItemsBatchQuery, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int
			it      AdminItem
		)
		if err := rows.Scan(
			&orderID,
			&it.OrderItemID,
			&it.ProductID,
			&it.Quantity,
			&it.PriceAtPurchase,
			&it.ProductName,
			&it.ImageURL,
			&it.SellerID,
			&it.SellerUsername,
			&it.SellerEmail,
		); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListReceived(ctx context.Context, sellerID int) ([]ReceivedOrder, error) {
	rows, err := s.db.QueryContext(ctx, receivedOrdersQuery, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch received orders: %w", err)
	}
	defer rows.Close()

	orders := make([]ReceivedOrder, 0)
	index := make(map[int]int)
	for rows.Next() {
		var (
			o  ReceivedOrder
			it SellerItem
		)
		if err := rows.Scan(
			&o.OrderID,
			&it.ProductID,
			&it.Quantity,
			&it.PriceAtPurchase,
			&it.ProductName,
			&it.ImageURL,
			&o.OrderDate,
			&o.TotalOrderAmount,
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
			i = len(orders)
			index[o.OrderID] = i
			orders = append(orders, o)
		}
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]AdminOrder, error) {
	rows, err := s.db.QueryContext(ctx, adminOrdersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer rows.Close()

	orders := make([]AdminOrder, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var (
			o                     AdminOrder
			tracking, method, txn sql.NullString
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
			&txn,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		o.TrackingNumber = nullString(tracking)
		o.PaymentMethod = nullString(method)
		o.TransactionID = nullString(txn)
		o.Items = make([]AdminItem, 0)
		orders = append(orders, o)
		ids = append(ids, o.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.itemsByOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if its, ok := items[orders[i].OrderID]; ok {
			orders[i].Items = its
		}
	}
	return orders, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockProducts(ctx context.Context, ids []int) (map[int]LockedProduct, error) {
	rows, err := t.tx.QueryContext(ctx, lockProductsQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	out := make(map[int]LockedProduct, len(ids))
	for rows.Next() {
		var p LockedProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t *pgTx) CreateOrder(ctx context.Context, o Order) (int, error) {
	var id int
	err := t.tx.QueryRowContext(ctx, createOrderQuery,
		o.UserID, o.TotalAmount, o.Status, o.PaymentStatus, o.ShippingAddress,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

func (t *pgTx) CreatePayment(ctx context.Context, p Payment) (int, error) {
	var details any
	if len(p.Details) > 0 {
		details = string(p.Details)
	}
	var paidAt any
	if p.PaymentDate != nil {
		paidAt = *p.PaymentDate
	}

	var id int
	err := t.tx.QueryRowContext(ctx, createPaymentQuery,
		p.OrderID, string(p.Method), p.TransactionID, p.Amount, p.Currency, p.Status, details, paidAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create payment: %w", err)
	}
	return id, nil
}

func (t *pgTx) AttachPayment(ctx context.Context, orderID, paymentID int) error {
	return t.execOne(ctx, ErrNotFound, attachPaymentQuery, paymentID, orderID)
}

func (t *pgTx) InsertItem(ctx context.Context, orderID int, it Item) error {
	if _, err := t.tx.ExecContext(ctx, insertItemQuery, orderID, it.ProductID, it.Quantity, it.PriceAtPurchase); err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}
	return nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID, qty int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, decrementStockQuery, qty, productID)
	if err != nil {
		return false, fmt.Errorf("failed to update stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (t *pgTx) IncrementStock(ctx context.Context, productID, qty int) error {
	if _, err := t.tx.ExecContext(ctx, incrementStockQuery, qty, productID); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, userID int) error {
	if _, err := t.tx.ExecContext(ctx, clearCartQuery, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (t *pgTx) LockOrder(ctx context.Context, id int) (Order, error) {
	var (
		o         Order
		tracking  sql.NullString
		paymentID sql.NullInt64
	)
	err := t.tx.QueryRowContext(ctx, lockOrderQuery, id).Scan(
		&o.ID,
		&o.UserID,
		&o.TotalAmount,
		&o.Status,
		&o.PaymentStatus,
		&o.ShippingAddress,
		&tracking,
		&paymentID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to load order: %w", err)
	}
	o.TrackingNumber = nullString(tracking)
	if paymentID.Valid {
		pid := int(paymentID.Int64)
		o.PaymentID = &pid
	}
	return o, nil
}

func (t *pgTx) OrderItems(ctx context.Context, orderID int) ([]Item, error) {
	rows, err := t.tx.QueryContext(ctx, orderItemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (t *pgTx) SellsInOrder(ctx context.Context, orderID, sellerID int) (bool, error) {
	var ok bool
	if err := t.tx.QueryRowContext(ctx, sellsInOrderQuery, orderID, sellerID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check order ownership: %w", err)
	}
	return ok, nil
}

func (t *pgTx) LockPayment(ctx context.Context, id int) (Payment, error) {
	var (
		p       Payment
		method  string
		details []byte
		paidAt  sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, lockPaymentQuery, id).Scan(
		&p.ID,
		&p.OrderID,
		&method,
		&p.TransactionID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&details,
		&paidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, fmt.Errorf("failed to load payment: %w", err)
	}
	p.Method = payment.Method(method)
	if len(details) > 0 {
		p.Details = json.RawMessage(details)
	}
	if paidAt.Valid {
		p.PaymentDate = &paidAt.Time
	}
	return p, nil
}

func (t *pgTx) UpdateOrder(ctx context.Context, id int, patch StatusPatch) error {
	q := psql.Update("orders").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id})
	if patch.ShippingStatus != nil {
		q = q.Set("status", *patch.ShippingStatus)
	}
	if patch.PaymentStatus != nil {
		q = q.Set("payment_status", *patch.PaymentStatus)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return t.execOne(ctx, ErrNotFound, query, args...)
}

func (t *pgTx) UpdatePayment(ctx context.Context, id int, status string, paidAt *time.Time) error {
	q := psql.Update("payments").
		Set("status", status).
		Where(sq.Eq{"id": id})
	if paidAt != nil {
		q = q.Set("payment_date", *paidAt)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return t.execOne(ctx, ErrPaymentNotFound, query, args...)
}

func (t *pgTx) DeleteOrder(ctx context.Context, id int) error {
	steps := []string{deleteOrderItemsQuery, detachPaymentQuery, deletePaymentsQuery}
	for _, q := range steps {
		if _, err := t.tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
	}
	return t.execOne(ctx, ErrNotFound, deleteOrderQuery, id)
}

func (t *pgTx) execOne(ctx context.Context, missing error, query string, args ...any) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
