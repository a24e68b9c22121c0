package order

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abayahaven/marketplace-backend/internal/address"
	"github.com/abayahaven/marketplace-backend/internal/notify"
	"github.com/abayahaven/marketplace-backend/internal/payment"
)

// CatalogCache is told when stock changes so cached listings are dropped.
type CatalogCache interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	store    Store
	provider payment.Provider
	notifier notify.Notifier
	catalog  CatalogCache
	currency string
	now      func() time.Time
}

func NewService(store Store, provider payment.Provider, notifier notify.Notifier, catalog CatalogCache, currency string) *Service {
	return &Service{
		store:    store,
		provider: provider,
		notifier: notifier,
		catalog:  catalog,
		currency: currency,
		now:      time.Now,
	}
}

// Buyer identifies who is checking out.
type Buyer struct {
	ID       int
	Username string
	Email    string
}

type CheckoutRequest struct {
	Lines           []Line           `json:"cartItems"`
	Address         address.Shipping `json:"newAddressDetails"`
	PaymentMethod   string           `json:"paymentMethod"`
	PaymentIntentID string           `json:"paymentIntentId"`
}

type Receipt struct {
	OrderID       int             `json:"order_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentStatus string          `json:"payment_status"`
}

type IntentResult struct {
	ClientSecret string          `json:"clientSecret"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

// Checkout turns the requested lines into an order, a payment and order
// items, decrements stock and clears the buyer's cart, all in one
// transaction.
func (s *Service) Checkout(ctx context.Context, buyer Buyer, req CheckoutRequest) (Receipt, error) {
	lines, err := MergeLines(req.Lines)
	if err != nil {
		return Receipt{}, err
	}
	if err := req.Address.Validate(); err != nil {
		return Receipt{}, err
	}
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		return Receipt{}, err
	}

	// The intent is fetched before any row is locked.
	var intent payment.Intent
	if method == payment.MethodOnline {
		intentID := strings.TrimSpace(req.PaymentIntentID)
		if intentID == "" {
			return Receipt{}, ErrIntentRequired
		}
		intent, err = s.provider.GetIntent(ctx, intentID)
		if err != nil {
			return Receipt{}, err
		}
		if !intent.Succeeded() {
			return Receipt{}, &PaymentFailedError{Status: intent.Status, Message: intent.FailureMessage}
		}
	}

	shippingAddress := req.Address.String()
	var (
		receipt     Receipt
		noticeItems []notify.OrderNoticeItem
	)

	err = s.store.WithTx(ctx, func(tx Tx) error {
		ids := make([]int, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		locked, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		items := make([]Item, 0, len(lines))
		noticeItems = noticeItems[:0]
		for _, l := range lines {
			p, ok := locked[l.ProductID]
			if !ok {
				return &ProductUnavailableError{ProductID: l.ProductID}
			}
			if l.Quantity > p.StockQuantity {
				return &InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.StockQuantity, Requested: l.Quantity}
			}
			subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			items = append(items, Item{ProductID: p.ID, Quantity: l.Quantity, PriceAtPurchase: p.Price})
			noticeItems = append(noticeItems, notify.OrderNoticeItem{Name: p.Name, Quantity: l.Quantity, Price: p.Price})
		}
		total := ComputeTotals(subtotal).Total

		pay, err := s.newPayment(method, intent, total)
		if err != nil {
			return err
		}

		orderID, err := tx.CreateOrder(ctx, Order{
			UserID:          buyer.ID,
			TotalAmount:     total,
			Status:          StatusPending,
			PaymentStatus:   pay.Status,
			ShippingAddress: shippingAddress,
		})
		if err != nil {
			return err
		}
		pay.OrderID = orderID
		paymentID, err := tx.CreatePayment(ctx, pay)
		if err != nil {
			return err
		}
		if err := tx.AttachPayment(ctx, orderID, paymentID); err != nil {
			return err
		}

		for _, it := range items {
			if err := tx.InsertItem(ctx, orderID, it); err != nil {
				return err
			}
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				p := locked[it.ProductID]
				return &InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.StockQuantity, Requested: it.Quantity}
			}
		}

		if err := tx.ClearCart(ctx, buyer.ID); err != nil {
			return err
		}

		receipt = Receipt{OrderID: orderID, TotalAmount: total, PaymentStatus: pay.Status}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	s.catalog.Invalidate(ctx)

	notice := notify.OrderNotice{
		OrderID:         receipt.OrderID,
		BuyerName:       buyer.Username,
		BuyerEmail:      buyer.Email,
		Total:           receipt.TotalAmount,
		Currency:        s.currency,
		PaymentMethod:   method.Label(),
		PaymentStatus:   receipt.PaymentStatus,
		ShippingAddress: shippingAddress,
		Items:           noticeItems,
	}
	if err := s.notifier.OrderPlaced(ctx, notice); err != nil {
		slog.WarnContext(ctx, "order confirmation not sent", "order_id", receipt.OrderID, "err", err)
	}

	return receipt, nil
}

func (s *Service) newPayment(method payment.Method, intent payment.Intent, total decimal.Decimal) (Payment, error) {
	if method == payment.MethodCashOnDelivery {
		return Payment{
			Method:        method,
			TransactionID: "COD-" + uuid.NewString(),
			Amount:        total,
			Currency:      s.currency,
			Status:        payment.StatusPending,
		}, nil
	}

	if intent.AmountReceived > 0 && intent.AmountReceived < MinorUnits(total) {
		return Payment{}, &PaymentFailedError{
			Status:  intent.Status,
			Message: fmt.Sprintf("amount received does not cover the order total of %s %s", s.currency, total.StringFixed(2)),
		}
	}

	paidAt := s.now()
	return Payment{
		Method:        method,
		TransactionID: intent.ID,
		Amount:        total,
		Currency:      s.currency,
		Status:        payment.StatusSucceeded,
		Details:       intent.Snapshot(),
		PaymentDate:   &paidAt,
	}, nil
}

// CreatePaymentIntent prices the caller's cart, including shipping and
// tax, and opens a provider intent for it.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID int) (IntentResult, error) {
	lines, err := s.store.CartLines(ctx, userID)
	if err != nil {
		return IntentResult{}, err
	}
	if len(lines) == 0 {
		return IntentResult{}, ErrEmptyCart
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity > l.StockQuantity {
			return IntentResult{}, &InsufficientStockError{ProductID: l.ProductID, Name: l.Name, Available: l.StockQuantity, Requested: l.Quantity}
		}
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	total := ComputeTotals(subtotal).Total

	intent, err := s.provider.CreateIntent(ctx, MinorUnits(total), s.currency, map[string]string{
		"user_id": strconv.Itoa(userID),
	})
	if err != nil {
		return IntentResult{}, err
	}
	return IntentResult{ClientSecret: intent.ClientSecret, TotalAmount: total}, nil
}

func (s *Service) Placed(ctx context.Context, buyerID int) ([]PlacedOrder, error) {
	return s.store.ListPlaced(ctx, buyerID)
}

func (s *Service) Received(ctx context.Context, sellerID int) ([]ReceivedOrder, error) {
	return s.store.ListReceived(ctx, sellerID)
}

func (s *Service) ListAll(ctx context.Context) ([]AdminOrder, error) {
	return s.store.ListAll(ctx)
}

// Ship marks an open order as shipped. Only a seller of one of its items
// may do so; anyone else sees ErrNotFound.
func (s *Service) Ship(ctx context.Context, sellerID, orderID int) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		sells, err := tx.SellsInOrder(ctx, orderID, sellerID)
		if err != nil {
			return err
		}
		if !sells {
			return ErrNotFound
		}
		if !open(o.Status) {
			return &StateError{OrderID: orderID, Status: o.Status, Action: "mark as shipped"}
		}
		shipped := StatusShipped
		return tx.UpdateOrder(ctx, orderID, StatusPatch{ShippingStatus: &shipped})
	})
}

// Cancel cancels the buyer's open order, restores stock and returns the
// new payment status.
func (s *Service) Cancel(ctx context.Context, buyerID, orderID int) (string, error) {
	var newPaymentStatus string
	var refund bool

	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != buyerID {
			return ErrNotFound
		}
		if !open(o.Status) {
			return &StateError{OrderID: orderID, Status: o.Status, Action: "cancel"}
		}

		refund = payment.IsSettled(o.PaymentStatus)
		newPaymentStatus = payment.StatusCancelled
		if refund {
			newPaymentStatus = payment.StatusRefunded
		}

		cancelled := StatusCancelled
		if err := tx.UpdateOrder(ctx, orderID, StatusPatch{ShippingStatus: &cancelled, PaymentStatus: &newPaymentStatus}); err != nil {
			return err
		}
		if o.PaymentID != nil {
			if err := tx.UpdatePayment(ctx, *o.PaymentID, newPaymentStatus, nil); err != nil {
				return err
			}
		}

		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.catalog.Invalidate(ctx)
	if refund {
		// TODO: issue the refund through the payment provider instead of leaving it to staff.
		slog.WarnContext(ctx, "cancelled order needs a manual refund", "order_id", orderID)
	}
	return newPaymentStatus, nil
}

// MarkReceived records a cash-on-delivery payment as collected. It returns
// the order the payment belongs to.
func (s *Service) MarkReceived(ctx context.Context, sellerID, paymentID int) (int, error) {
	var orderID int
	err := s.store.WithTx(ctx, func(tx Tx) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		sells, err := tx.SellsInOrder(ctx, p.OrderID, sellerID)
		if err != nil {
			return err
		}
		if !sells {
			return ErrForbidden
		}
		if p.Method != payment.MethodCashOnDelivery {
			return ErrNotCashOnDelivery
		}
		if p.Status == payment.StatusSucceeded {
			return ErrAlreadyReceived
		}
		if p.Status != payment.StatusPending {
			return &PaymentStateError{Status: p.Status}
		}

		now := s.now()
		if err := tx.UpdatePayment(ctx, paymentID, payment.StatusSucceeded, &now); err != nil {
			return err
		}
		paid := payment.StatusPaid
		if err := tx.UpdateOrder(ctx, p.OrderID, StatusPatch{PaymentStatus: &paid}); err != nil {
			return err
		}
		orderID = p.OrderID
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.catalog.Invalidate(ctx)
	return orderID, nil
}

// AdminUpdate sets the order statuses directly. A payment status change is
// mirrored to the payment row.
func (s *Service) AdminUpdate(ctx context.Context, orderID int, patch StatusPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := tx.UpdateOrder(ctx, orderID, patch); err != nil {
			return err
		}
		if patch.PaymentStatus == nil || o.PaymentID == nil {
			return nil
		}
		var paidAt *time.Time
		if payment.IsSettled(*patch.PaymentStatus) {
			now := s.now()
			paidAt = &now
		}
		return tx.UpdatePayment(ctx, *o.PaymentID, *patch.PaymentStatus, paidAt)
	})
	if err != nil {
		return err
	}
	s.catalog.Invalidate(ctx)
	return nil
}

func (s *Service) AdminDelete(ctx context.Context, orderID int) error {
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.LockOrder(ctx, orderID); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.catalog.Invalidate(ctx)
	return nil
}
