package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abayahaven/marketplace-backend/internal/cache"
)

type countingRepo struct {
	Repository
	totals int
}

func (r *countingRepo) Totals(ctx context.Context) (Totals, error) {
	r.totals++
	return r.Repository.Totals(ctx)
}

func TestMonthlySales_OnlySettledOrdersOfTheSeller(t *testing.T) {
	svc := NewService(newFixtureRepo(), nil, time.Minute, testCur)

	sales, err := svc.MonthlySales(context.Background(), sellerID, Period{})
	require.NoError(t, err)
	require.Len(t, sales, 2)

	assert.Equal(t, "2025-06", sales[0].MonthYear)
	assert.Equal(t, "100.00", sales[0].TotalSalesAmount.StringFixed(2))
	assert.Equal(t, 1, sales[0].NumberOfOrders)

	assert.Equal(t, "2025-05", sales[1].MonthYear)
	assert.Equal(t, "200.00", sales[1].TotalSalesAmount.StringFixed(2))
	assert.Equal(t, 1, sales[1].NumberOfOrders)

	june, err := svc.MonthlySales(context.Background(), sellerID, Period{Year: 2025, Month: 6})
	require.NoError(t, err)
	require.Len(t, june, 1)
	assert.Equal(t, "2025-06", june[0].MonthYear)
}

func TestSellerOrders_KeepsOnlyTheSellersProducts(t *testing.T) {
	svc := NewService(newFixtureRepo(), nil, time.Minute, testCur)

	orders, err := svc.SellerOrders(context.Background(), otherSeller, Period{Year: 2025, Month: 6})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 2, orders[0].OrderID)
	assert.Equal(t, "online", orders[0].PaymentMethod)
	assert.Equal(t, 2, orders[0].PaymentID)
	require.Len(t, orders[0].Products, 1)
	assert.Equal(t, "Chiffon Hijab", orders[0].Products[0].ProductName)

	none, err := svc.SellerOrders(context.Background(), otherSeller, Period{Year: 2025, Month: 5})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDashboard_IsCached(t *testing.T) {
	repo := &countingRepo{Repository: newFixtureRepo()}
	svc := NewService(repo, cache.NewInMemoryCache(), time.Minute, testCur)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{OverallSales: "518.03", TotalOrders: 4, TotalProducts: 2, TotalUsers: 3}, stats)

	_, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.totals)

	svc.Invalidate(context.Background())
	_, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.totals)
}

func TestAdminReports_OrderingAndItemDetails(t *testing.T) {
	svc := NewService(newFixtureRepo(), nil, time.Minute, testCur)
	ctx := context.Background()

	users, err := svc.Users(ctx, Period{Year: 2025})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "amina", users[0].Username)

	stock, err := svc.Stock(ctx, Period{})
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.Equal(t, 0, stock[0].StockQuantity)

	orders, err := svc.Orders(ctx, Period{Year: 2025, Month: 6})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, 4, orders[0].OrderID)
	assert.Equal(t,
		"Black Abaya (Qty: 1, Price: PKR 100.00, Seller: sara); Chiffon Hijab (Qty: 1, Price: PKR 50.50, Seller: noor)",
		orders[2].ItemDetails)
}
