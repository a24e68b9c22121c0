package report

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	sellerID    = 2
	otherSeller = 3
	testCur     = "PKR"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

func strp(s string) *string { return &s }

func intp(i int) *int { return &i }

func newFixtureRepo() *InMemoryRepository {
	users := []UserRow{
		{ID: 1, Username: "amina", Email: "amina@example.com", Phone: "0300", UserType: "user", CreatedAt: at(2025, time.June, 1), UpdatedAt: at(2025, time.June, 1)},
		{ID: 2, Username: "sara", Email: "sara@example.com", Phone: "0301", UserType: "user", CreatedAt: at(2025, time.May, 3), UpdatedAt: at(2025, time.May, 3)},
		{ID: 3, Username: "noor", Email: "noor@example.com", Phone: "0302", UserType: "user", CreatedAt: at(2024, time.December, 9), UpdatedAt: at(2025, time.January, 2)},
	}
	stock := []StockRow{
		{ID: 10, Name: "Black Abaya", Description: "Nida fabric", Price: decimal.RequireFromString("100"), StockQuantity: 5, Category: "abaya", SellerUsername: "sara", SellerEmail: "sara@example.com", CreatedAt: at(2025, time.May, 4), UpdatedAt: at(2025, time.May, 4)},
		{ID: 11, Name: "Chiffon Hijab", Description: "", Price: decimal.RequireFromString("50.50"), StockQuantity: 0, Category: "hijab", SellerUsername: "noor", SellerEmail: "noor@example.com", CreatedAt: at(2025, time.June, 2), UpdatedAt: at(2025, time.June, 2)},
	}
	orders := []OrderRow{
		{
			OrderID: 1, BuyerID: 1, BuyerUsername: "amina", BuyerEmail: "amina@example.com",
			TotalAmount: decimal.RequireFromString("225.00"), ShippingStatus: "shipped", PaymentStatus: "paid",
			ShippingAddress: "12 Mall Road, Lahore", PaymentMethod: strp("cash_on_delivery"),
			TransactionID: strp("COD-1"), PaymentID: intp(1), CreatedAt: at(2025, time.May, 20), UpdatedAt: at(2025, time.May, 21),
			Items: []OrderRowItem{
				{OrderItemID: 1, ProductID: 10, Quantity: 2, PriceAtPurchase: decimal.RequireFromString("100"), ProductName: "Black Abaya", SellerID: sellerID, SellerUsername: "sara"},
			},
		},
		{
			OrderID: 2, BuyerID: 1, BuyerUsername: "amina", BuyerEmail: "amina@example.com",
			TotalAmount: decimal.RequireFromString("173.03"), ShippingStatus: "pending", PaymentStatus: "succeeded",
			ShippingAddress: "12 Mall Road, Lahore", PaymentMethod: strp("online"),
			TransactionID: strp("pi_123"), PaymentID: intp(2), CreatedAt: at(2025, time.June, 5), UpdatedAt: at(2025, time.June, 5),
			Items: []OrderRowItem{
				{OrderItemID: 2, ProductID: 10, Quantity: 1, PriceAtPurchase: decimal.RequireFromString("100"), ProductName: "Black Abaya", SellerID: sellerID, SellerUsername: "sara"},
				{OrderItemID: 3, ProductID: 11, Quantity: 1, PriceAtPurchase: decimal.RequireFromString("50.50"), ProductName: "Chiffon Hijab", SellerID: otherSeller, SellerUsername: "noor"},
			},
		},
		{
			OrderID: 3, BuyerID: 3, BuyerUsername: "noor", BuyerEmail: "noor@example.com",
			TotalAmount: decimal.RequireFromString("120.00"), ShippingStatus: "pending", PaymentStatus: "pending",
			ShippingAddress: "4 Canal View, Lahore", PaymentMethod: strp("cash_on_delivery"),
			TransactionID: strp("COD-3"), PaymentID: intp(3), CreatedAt: at(2025, time.June, 6), UpdatedAt: at(2025, time.June, 6),
			Items: []OrderRowItem{
				{OrderItemID: 4, ProductID: 10, Quantity: 1, PriceAtPurchase: decimal.RequireFromString("100"), ProductName: "Black Abaya", SellerID: sellerID, SellerUsername: "sara"},
			},
		},
		{
			OrderID: 4, BuyerID: 3, BuyerUsername: "noor", BuyerEmail: "noor@example.com",
			TotalAmount: decimal.RequireFromString("120.00"), ShippingStatus: "cancelled", PaymentStatus: "paid",
			ShippingAddress: "4 Canal View, Lahore", PaymentMethod: strp("online"),
			TransactionID: strp("pi_456"), PaymentID: intp(4), CreatedAt: at(2025, time.June, 7), UpdatedAt: at(2025, time.June, 8),
			Items: []OrderRowItem{
				{OrderItemID: 5, ProductID: 10, Quantity: 1, PriceAtPurchase: decimal.RequireFromString("100"), ProductName: "Black Abaya", SellerID: sellerID, SellerUsername: "sara"},
			},
		},
	}
	return NewInMemoryRepository(users, stock, orders)
}
