package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	pdfDate = "2006-01-02"
	csvDate = time.RFC3339
)

func money(currency string, d decimal.Decimal) string {
	return currency + " " + d.StringFixed(2)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func titled(base string, p Period) string {
	if label := p.Label(); label != "" {
		return base + " " + label
	}
	return base
}

// ItemDetails summarises order items on one line, e.g.
// "Black Abaya (Qty: 2, Price: PKR 100.00, Seller: amina)".
func ItemDetails(items []OrderRowItem, currency string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s (Qty: %d, Price: %s, Seller: %s)",
			it.ProductName, it.Quantity, money(currency, it.PriceAtPurchase), it.SellerUsername))
	}
	return strings.Join(parts, "; ")
}

func salesCSV(rows []MonthlySales, currency string) ([]string, [][]string) {
	headers := []string{"Month", fmt.Sprintf("Total Sales (%s)", currency), "Number of Orders"}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.MonthYear, r.TotalSalesAmount.StringFixed(2), strconv.Itoa(r.NumberOfOrders)})
	}
	return headers, out
}

func salesTable(rows []MonthlySales, currency string, p Period) Table {
	t := Table{
		Title:   titled("Your Monthly Sales Report", p),
		Headers: []string{"Month/Year", fmt.Sprintf("Total Sales (%s)", currency), "Number of Orders"},
		Widths:  []float64{60, 70, 60},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.MonthYear, money(currency, r.TotalSalesAmount), strconv.Itoa(r.NumberOfOrders)})
	}
	return t
}

var usersHeaders = []string{"id", "username", "email", "phone", "user_type", "created_at", "updated_at"}

func usersCSV(rows []UserRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, u := range rows {
		out = append(out, []string{
			strconv.Itoa(u.ID), u.Username, u.Email, u.Phone, u.UserType,
			u.CreatedAt.Format(csvDate), u.UpdatedAt.Format(csvDate),
		})
	}
	return out
}

func usersTable(rows []UserRow, p Period) Table {
	t := Table{
		Title:   titled("User Report", p),
		Headers: []string{"ID", "Username", "Email", "Phone", "Type", "Created", "Updated"},
		Widths:  []float64{12, 30, 52, 28, 18, 25, 25},
	}
	for _, u := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(u.ID), u.Username, u.Email, u.Phone, u.UserType,
			u.CreatedAt.Format(pdfDate), u.UpdatedAt.Format(pdfDate),
		})
	}
	return t
}

var stockHeaders = []string{"id", "name", "description", "price", "stock_quantity", "category", "seller_username", "seller_email", "created_at", "updated_at"}

func stockCSV(rows []StockRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, s := range rows {
		out = append(out, []string{
			strconv.Itoa(s.ID), s.Name, s.Description, s.Price.StringFixed(2), strconv.Itoa(s.StockQuantity),
			s.Category, s.SellerUsername, s.SellerEmail, s.CreatedAt.Format(csvDate), s.UpdatedAt.Format(csvDate),
		})
	}
	return out
}

func stockTable(rows []StockRow, currency string, p Period) Table {
	t := Table{
		Title:   titled("Product Stock Report", p),
		Headers: []string{"ID", "Product Name", "Price", "Stock", "Category", "Seller", "Created", "Updated"},
		Widths:  []float64{12, 44, 26, 15, 25, 26, 21, 21},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(s.ID), s.Name, money(currency, s.Price), strconv.Itoa(s.StockQuantity),
			s.Category, s.SellerUsername, s.CreatedAt.Format(pdfDate), s.UpdatedAt.Format(pdfDate),
		})
	}
	return t
}

var ordersHeaders = []string{
	"order_id", "buyer_username", "buyer_email", "total_amount",
	"shipping_status", "payment_status", "shipping_address",
	"tracking_number", "payment_method", "transaction_id",
	"created_at", "updated_at", "item_details_csv",
}

func ordersCSV(rows []OrderRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, o := range rows {
		out = append(out, []string{
			strconv.Itoa(o.OrderID), o.BuyerUsername, o.BuyerEmail, o.TotalAmount.StringFixed(2),
			o.ShippingStatus, o.PaymentStatus, o.ShippingAddress,
			deref(o.TrackingNumber), deref(o.PaymentMethod), deref(o.TransactionID),
			o.CreatedAt.Format(csvDate), o.UpdatedAt.Format(csvDate), o.ItemDetails,
		})
	}
	return out
}

func ordersTable(rows []OrderRow, currency string, p Period) Table {
	t := Table{
		Title:   titled("Order Report", p),
		Headers: []string{"ID", "Buyer", "Total", "Shipping Status", "Payment Status", "Payment Method", "Order Date", "Items"},
		Widths:  []float64{10, 24, 24, 22, 22, 26, 20, 42},
	}
	for _, o := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(o.OrderID), o.BuyerUsername, money(currency, o.TotalAmount),
			o.ShippingStatus, o.PaymentStatus, deref(o.PaymentMethod),
			o.CreatedAt.Format(pdfDate), o.ItemDetails,
		})
	}
	return t
}
