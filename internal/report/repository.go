package report

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Orders count towards sales only when their payment settled and they were
// not cancelled or refunded afterwards.
var (
	settledPayments  = []string{"paid", "succeeded"}
	excludedStatuses = []string{"cancelled", "refunded"}
)

func counted(o OrderRow) bool {
	return slices.Contains(settledPayments, o.PaymentStatus) &&
		!slices.Contains(excludedStatuses, o.ShippingStatus)
}

// Totals are the raw dashboard figures.
type Totals struct {
	Sales    decimal.Decimal
	Orders   int
	Products int
	Users    int
}

type Repository interface {
	MonthlySales(ctx context.Context, sellerID int, p Period) ([]MonthlySales, error)
	SellerOrders(ctx context.Context, sellerID int, p Period) ([]SellerOrder, error)
	Totals(ctx context.Context) (Totals, error)
	Users(ctx context.Context, p Period) ([]UserRow, error)
	Stock(ctx context.Context, p Period) ([]StockRow, error)
	Orders(ctx context.Context, p Period) ([]OrderRow, error)
}

// InMemoryRepository answers report queries over fixed rows. Orders must
// carry their items with seller ids.
type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []UserRow
	stock  []StockRow
	orders []OrderRow
}

func NewInMemoryRepository(users []UserRow, stock []StockRow, orders []OrderRow) *InMemoryRepository {
	return &InMemoryRepository{
		users:  slices.Clone(users),
		stock:  slices.Clone(stock),
		orders: slices.Clone(orders),
	}
}

func (r *InMemoryRepository) MonthlySales(_ context.Context, sellerID int, p Period) ([]MonthlySales, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byMonth := make(map[string]*MonthlySales)
	for _, o := range r.orders {
		if !counted(o) || !p.Contains(o.CreatedAt) {
			continue
		}
		key := o.CreatedAt.UTC().Format("2006-01")
		seen := false
		for _, it := range o.Items {
			if it.SellerID != sellerID {
				continue
			}
			m, ok := byMonth[key]
			if !ok {
				m = &MonthlySales{MonthYear: key, TotalSalesAmount: decimal.Zero}
				byMonth[key] = m
			}
			m.TotalSalesAmount = m.TotalSalesAmount.Add(it.PriceAtPurchase.Mul(decimal.NewFromInt(int64(it.Quantity))))
			if !seen {
				m.NumberOfOrders++
				seen = true
			}
		}
	}

	out := make([]MonthlySales, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthYear > out[j].MonthYear })
	return out, nil
}

func (r *InMemoryRepository) SellerOrders(_ context.Context, sellerID int, p Period) ([]SellerOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SellerOrder, 0)
	for _, o := range r.newestFirst() {
		if !counted(o) || !p.Contains(o.CreatedAt) {
			continue
		}
		var products []SellerProduct
		for _, it := range o.Items {
			if it.SellerID == sellerID {
				products = append(products, SellerProduct{
					ProductID:       it.ProductID,
					ProductName:     it.ProductName,
					Quantity:        it.Quantity,
					PriceAtPurchase: it.PriceAtPurchase,
					ImageURL:        it.ImageURL,
				})
			}
		}
		if len(products) == 0 {
			continue
		}
		so := SellerOrder{
			OrderID:              o.OrderID,
			OrderDate:            o.CreatedAt,
			TotalAmount:          o.TotalAmount,
			PaymentStatus:        o.PaymentStatus,
			ShippingStatus:       o.ShippingStatus,
			BuyerUsername:        o.BuyerUsername,
			BuyerEmail:           o.BuyerEmail,
			BuyerShippingAddress: o.ShippingAddress,
			Products:             products,
		}
		if o.PaymentMethod != nil {
			so.PaymentMethod = *o.PaymentMethod
		}
		if o.PaymentID != nil {
			so.PaymentID = *o.PaymentID
		}
		out = append(out, so)
	}
	return out, nil
}

func (r *InMemoryRepository) Totals(_ context.Context) (Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t := Totals{
		Sales:    decimal.Zero,
		Orders:   len(r.orders),
		Products: len(r.stock),
		Users:    len(r.users),
	}
	for _, o := range r.orders {
		if slices.Contains(settledPayments, o.PaymentStatus) {
			t.Sales = t.Sales.Add(o.TotalAmount)
		}
	}
	return t, nil
}

func (r *InMemoryRepository) Users(_ context.Context, p Period) ([]UserRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]UserRow, 0)
	for _, u := range r.users {
		if p.Contains(u.CreatedAt) {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) Stock(_ context.Context, p Period) ([]StockRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]StockRow, 0)
	for _, s := range r.stock {
		if p.Contains(s.CreatedAt) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StockQuantity != out[j].StockQuantity {
			return out[i].StockQuantity < out[j].StockQuantity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) Orders(_ context.Context, p Period) ([]OrderRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]OrderRow, 0)
	for _, o := range r.newestFirst() {
		if p.Contains(o.CreatedAt) {
			o.Items = slices.Clone(o.Items)
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) newestFirst() []OrderRow {
	orders := slices.Clone(r.orders)
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].OrderID > orders[j].OrderID
	})
	return orders
}
