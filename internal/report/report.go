package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySales is one month of a seller's settled sales.
type MonthlySales struct {
	MonthYear        string          `json:"month_year"`
	TotalSalesAmount decimal.Decimal `json:"total_sales_amount"`
	NumberOfOrders   int             `json:"number_of_orders_with_my_products"`
}

type SellerProduct struct {
	ProductID       int             `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	ImageURL        string          `json:"image_url"`
}

// SellerOrder is a settled order as seen by one of its sellers.
type SellerOrder struct {
	OrderID              int             `json:"order_id"`
	OrderDate            time.Time       `json:"order_date"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	PaymentStatus        string          `json:"payment_status"`
	ShippingStatus       string          `json:"shipping_status"`
	BuyerUsername        string          `json:"buyer_username"`
	BuyerEmail           string          `json:"buyer_email"`
	BuyerShippingAddress string          `json:"buyer_shipping_address"`
	PaymentMethod        string          `json:"payment_method"`
	PaymentID            int             `json:"payment_id"`
	Products             []SellerProduct `json:"products_from_this_seller"`
}

type DashboardStats struct {
	OverallSales  string `json:"overallSales"`
	TotalOrders   int    `json:"totalOrders"`
	TotalProducts int    `json:"totalProducts"`
	TotalUsers    int    `json:"totalUsers"`
}

type UserRow struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	UserType  string    `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StockRow struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	StockQuantity  int             `json:"stock_quantity"`
	Category       string          `json:"category"`
	SellerUsername string          `json:"seller_username"`
	SellerEmail    string          `json:"seller_email"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type OrderRowItem struct {
	OrderItemID     int             `json:"order_item_id"`
	ProductID       int             `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	ProductName     string          `json:"product_name"`
	ImageURL        string          `json:"image_url"`
	SellerID        int             `json:"seller_id"`
	SellerUsername  string          `json:"seller_username"`
	SellerEmail     string          `json:"seller_email"`
}

type OrderRow struct {
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
	PaymentID       *int            `json:"payment_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderRowItem  `json:"items"`
	ItemDetails     string          `json:"item_details_csv"`
}
