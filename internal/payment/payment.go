package payment

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

type Method string

const (
	MethodOnline         Method = "online"
	MethodCashOnDelivery Method = "cash_on_delivery"
)

var ErrUnknownMethod = errors.New("invalid payment method")

// ParseMethod accepts the canonical values as well as the labels the
// storefront sends ("Online Payment", "Cash on Delivery").
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online", "online payment", "card":
		return MethodOnline, nil
	case "cash_on_delivery", "cash on delivery", "cod":
		return MethodCashOnDelivery, nil
	}
	return "", ErrUnknownMethod
}

func (m Method) Label() string {
	switch m {
	case MethodOnline:
		return "Online Payment"
	case MethodCashOnDelivery:
		return "Cash on Delivery"
	}
	return string(m)
}

// Payment statuses shared by the payments table and orders.payment_status.
const (
	StatusPending        = "pending"
	StatusSucceeded      = "succeeded"
	StatusPaid           = "paid"
	StatusFailed         = "failed"
	StatusRefunded       = "refunded"
	StatusCancelled      = "cancelled"
	StatusRequiresAction = "requires_action"
)

var statuses = map[string]bool{
	StatusPending:        true,
	StatusSucceeded:      true,
	StatusPaid:           true,
	StatusFailed:         true,
	StatusRefunded:       true,
	StatusCancelled:      true,
	StatusRequiresAction: true,
}

func ValidStatus(s string) bool {
	return statuses[s]
}

// IsSettled reports whether money has been collected for the status.
func IsSettled(s string) bool {
	return s == StatusPaid || s == StatusSucceeded
}

var (
	ErrProviderUnavailable = errors.New("online payments are not configured")
	ErrIntentNotFound      = errors.New("payment intent not found")
)

// Intent is the provider's view of a card payment.
type Intent struct {
	ID             string
	ClientSecret   string
	Status         string
	AmountReceived int64
	Currency       string
	FailureMessage string
}

func (i Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// Snapshot is the JSON stored in payments.details.
func (i Intent) Snapshot() json.RawMessage {
	details := map[string]any{
		"payment_intent_id": i.ID,
		"provider_status":   i.Status,
		"amount_received":   i.AmountReceived,
		"currency":          i.Currency,
	}
	if i.FailureMessage != "" {
		details["error"] = i.FailureMessage
	}
	b, _ := json.Marshal(details)
	return b
}

type Provider interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
}

// Unavailable is used when no provider key is configured.
type Unavailable struct{}

func (Unavailable) CreateIntent(context.Context, int64, string, map[string]string) (Intent, error) {
	return Intent{}, ErrProviderUnavailable
}

func (Unavailable) GetIntent(context.Context, string) (Intent, error) {
	return Intent{}, ErrProviderUnavailable
}
