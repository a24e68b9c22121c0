package order

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abayahaven/marketplace-backend/internal/payment"
)

// Shipping statuses stored in orders.status.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var shippingStatuses = map[string]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

func ValidShippingStatus(s string) bool {
	return shippingStatuses[s]
}

// open reports whether the order can still be shipped or cancelled.
func open(status string) bool {
	return status == StatusPending || status == StatusProcessing
}

var (
	ShippingCost = decimal.NewFromInt(15)
	TaxRate      = decimal.RequireFromString("0.05")
)

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals adds the flat shipping cost and tax to a subtotal.
func ComputeTotals(subtotal decimal.Decimal) Totals {
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal.Round(2),
		Shipping: ShippingCost,
		Tax:      tax,
		Total:    subtotal.Add(ShippingCost).Add(tax).Round(2),
	}
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Line is one requested product in a checkout.
type Line struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// MergeLines sums lines that name the same product and returns them in
// ascending product order, the order rows are locked in.
func MergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	qty := make(map[int]int, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return nil, ErrInvalidLine
		}
		qty[l.ProductID] += l.Quantity
	}
	merged := make([]Line, 0, len(qty))
	for id, q := range qty {
		merged = append(merged, Line{ProductID: id, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

type Order struct {
	ID              int
	UserID          int
	TotalAmount     decimal.Decimal
	Status          string
	PaymentStatus   string
	ShippingAddress string
	TrackingNumber  *string
	PaymentID       *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Payment struct {
	ID            int
	OrderID       int
	Method        payment.Method
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Status        string
	Details       json.RawMessage
	PaymentDate   *time.Time
}

// Item is an order line with the price captured at purchase time.
type Item struct {
	ProductID       int
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// LockedProduct is the product state read under a row lock at checkout.
type LockedProduct struct {
	ID            int
	Name          string
	Price         decimal.Decimal
	StockQuantity int
}

// CartLine is a buyer's cart row joined with current product data.
type CartLine struct {
	ProductID     int
	Name          string
	Quantity      int
	Price         decimal.Decimal
	StockQuantity int
}

// StatusPatch carries the fields an admin may set on an order.
type StatusPatch struct {
	ShippingStatus *string `json:"shipping_status"`
	PaymentStatus  *string `json:"payment_status"`
}

func (p StatusPatch) IsEmpty() bool {
	return p.ShippingStatus == nil && p.PaymentStatus == nil
}

func (p StatusPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.ShippingStatus != nil && !ValidShippingStatus(*p.ShippingStatus) {
		return &InvalidStatusError{Kind: "shipping", Value: *p.ShippingStatus}
	}
	if p.PaymentStatus != nil && !payment.ValidStatus(*p.PaymentStatus) {
		return &InvalidStatusError{Kind: "payment", Value: *p.PaymentStatus}
	}
	return nil
}

// PlacedItem is a line of an order as the buyer sees it.
type PlacedItem struct {
	OrderItemID     int             `json:"order_item_id"`
	ProductID       int             `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	ProductName     string          `json:"product_name"`
	ImageURL        string          `json:"image_url"`
}

type PlacedOrder struct {
	OrderID         int             `json:"order_id"`
	OrderDate       time.Time       `json:"order_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentStatus   string          `json:"payment_status"`
	ShippingStatus  string          `json:"shipping_status"`
	ShippingAddress string          `json:"shipping_address"`
	TrackingNumber  *string         `json:"tracking_number"`
	PaymentMethod   string          `json:"payment_method"`
	TransactionID   string          `json:"transaction_id"`
	Items           []PlacedItem    `json:"items"`
}

type SellerItem struct {
	ProductID       int             `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	ImageURL        string          `json:"image_url"`
}

// ReceivedOrder is an order seen by a seller, holding only that seller's
// lines.
type ReceivedOrder struct {
	OrderID              int             `json:"order_id"`
	OrderDate            time.Time       `json:"order_date"`
	PaymentStatus        string          `json:"payment_status"`
	ShippingStatus       string          `json:"shipping_status"`
	BuyerUsername        string          `json:"buyer_username"`
	BuyerEmail           string          `json:"buyer_email"`
	BuyerShippingAddress string          `json:"buyer_shipping_address"`
	PaymentMethod        string          `json:"payment_method"`
	TotalOrderAmount     decimal.Decimal `json:"total_order_amount"`
	PaymentID            int             `json:"payment_id"`
	Items                []SellerItem    `json:"items_from_this_seller"`
}

type AdminItem struct {
	PlacedItem
	SellerID       int    `json:"seller_id"`
	SellerUsername string `json:"seller_username"`
	SellerEmail    string `json:"seller_email"`
}

type AdminOrder struct {
	OrderID         int             `json:"order_id"`
	BuyerID         int             `json:"buyer_id"`
	BuyerUsername   string          `json:"buyer_username"`
	BuyerEmail      string          `json:"buyer_email"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingStatus  string          `json:"shipping_status"`
	PaymentStatus   string          `json:"payment_status"`
	ShippingAddress string          `json:"shipping_address"`
	TrackingNumber  *string         `json:"tracking_number"`
	PaymentMethod   *string         `json:"payment_method"`
	TransactionID   *string         `json:"transaction_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []AdminItem     `json:"items"`
}
