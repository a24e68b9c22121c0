package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/abayahaven/marketplace-backend/internal/cache"
)

const dashboardKey = "reports:dashboard"

type Service struct {
	repo     Repository
	cache    cache.Cache
	ttl      time.Duration
	currency string
}

func NewService(repo Repository, c cache.Cache, ttl time.Duration, currency string) *Service {
	if c == nil {
		c = cache.NewInMemoryCache()
	}
	return &Service{repo: repo, cache: c, ttl: ttl, currency: currency}
}

func (s *Service) Currency() string {
	return s.currency
}

func (s *Service) MonthlySales(ctx context.Context, sellerID int, p Period) ([]MonthlySales, error) {
	return s.repo.MonthlySales(ctx, sellerID, p)
}

func (s *Service) SellerOrders(ctx context.Context, sellerID int, p Period) ([]SellerOrder, error) {
	return s.repo.SellerOrders(ctx, sellerID, p)
}

// Dashboard serves the admin totals, cached for the service TTL.
func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	if ok, err := s.cache.Get(ctx, dashboardKey, &stats); err != nil {
		slog.WarnContext(ctx, "dashboard cache read failed", "err", err)
	} else if ok {
		return stats, nil
	}

	t, err := s.repo.Totals(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	stats = DashboardStats{
		OverallSales:  t.Sales.StringFixed(2),
		TotalOrders:   t.Orders,
		TotalProducts: t.Products,
		TotalUsers:    t.Users,
	}
	if err := s.cache.Set(ctx, dashboardKey, stats, s.ttl); err != nil {
		slog.WarnContext(ctx, "dashboard cache write failed", "err", err)
	}
	return stats, nil
}

// Invalidate drops the cached dashboard totals.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, dashboardKey); err != nil {
		slog.WarnContext(ctx, "dashboard cache invalidation failed", "err", err)
	}
}

func (s *Service) Users(ctx context.Context, p Period) ([]UserRow, error) {
	return s.repo.Users(ctx, p)
}

func (s *Service) Stock(ctx context.Context, p Period) ([]StockRow, error) {
	return s.repo.Stock(ctx, p)
}

// Orders returns every order in the period with its item summary filled in.
func (s *Service) Orders(ctx context.Context, p Period) ([]OrderRow, error) {
	orders, err := s.repo.Orders(ctx, p)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].ItemDetails = ItemDetails(orders[i].Items, s.currency)
	}
	return orders, nil
}
