package order

import (
	"context"
	"time"
)

// Store is the order persistence boundary. Multi-step workflows run inside
// WithTx; the read models run outside any transaction.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
	CartLines(ctx context.Context, userID int) ([]CartLine, error)
	ListPlaced(ctx context.Context, buyerID int) ([]PlacedOrder, error)
	ListReceived(ctx context.Context, sellerID int) ([]ReceivedOrder, error)
	ListAll(ctx context.Context) ([]AdminOrder, error)
}

// Tx is the set of statements available inside one transaction. Any error
// returned from the WithTx callback rolls all of them back.
type Tx interface {
	// LockProducts row-locks the given products in ascending id order.
	// Missing ids are absent from the result.
	LockProducts(ctx context.Context, ids []int) (map[int]LockedProduct, error)

	// CreateOrder, CreatePayment and AttachPayment are the two-phase insert:
	// the order is created without a payment, the payment references the
	// order, then the order is pointed at the payment.
	CreateOrder(ctx context.Context, o Order) (int, error)
	CreatePayment(ctx context.Context, p Payment) (int, error)
	AttachPayment(ctx context.Context, orderID, paymentID int) error

	InsertItem(ctx context.Context, orderID int, it Item) error
	// DecrementStock reports false when the stock no longer covers qty.
	DecrementStock(ctx context.Context, productID, qty int) (bool, error)
	IncrementStock(ctx context.Context, productID, qty int) error
	ClearCart(ctx context.Context, userID int) error

	LockOrder(ctx context.Context, id int) (Order, error)
	OrderItems(ctx context.Context, orderID int) ([]Item, error)
	SellsInOrder(ctx context.Context, orderID, sellerID int) (bool, error)
	LockPayment(ctx context.Context, id int) (Payment, error)
	UpdateOrder(ctx context.Context, id int, patch StatusPatch) error
	// UpdatePayment sets the status, and payment_date when paidAt is set.
	UpdatePayment(ctx context.Context, id int, status string, paidAt *time.Time) error
	DeleteOrder(ctx context.Context, id int) error
}
