package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment record not found")
	ErrForbidden         = errors.New("not allowed to act on this order")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidLine       = errors.New("every cart line needs a product and a positive quantity")
	ErrIntentRequired    = errors.New("payment intent id is required for online payments")
	ErrNotCashOnDelivery = errors.New("payment is not cash on delivery")
	ErrAlreadyReceived   = errors.New("payment has already been marked as received")
	ErrEmptyPatch        = errors.New("no status provided for update")
)

// InsufficientStockError names the product whose stock cannot cover the
// requested quantity.
type InsufficientStockError struct {
	ProductID int
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", e.Name, e.Available, e.Requested)
}

type ProductUnavailableError struct {
	ProductID int
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("Product with ID %d not found.", e.ProductID)
}

// PaymentFailedError is returned when the provider does not report the
// intent as succeeded.
type PaymentFailedError struct {
	Status  string
	Message string
}

func (e *PaymentFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Payment not successful (%s): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("Payment not successful. Status: %s", e.Status)
}

// StateError reports an order whose shipping status forbids the action.
type StateError struct {
	OrderID int
	Status  string
	Action  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("Order is already %s. Cannot %s.", e.Status, e.Action)
}

// PaymentStateError reports a payment that cannot be marked as received.
type PaymentStateError struct {
	Status string
}

func (e *PaymentStateError) Error() string {
	return fmt.Sprintf("Payment is in '%s' status. Cannot mark as received.", e.Status)
}

type InvalidStatusError struct {
	Kind  string
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("Invalid %s status: %s.", e.Kind, e.Value)
}
