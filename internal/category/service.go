package category

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abayahaven/marketplace-backend/internal/cache"
	"github.com/abayahaven/marketplace-backend/internal/product"
)

// cachePrefix lives under the product prefix so catalog changes clear it.
const cachePrefix = product.CachePrefix + "categories:"

type Service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
}

func NewService(repo Repository, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NewInMemoryCache()
	}
	return &Service{repo: repo, cache: c, ttl: ttl}
}

func (s *Service) List(ctx context.Context, limit int) ([]Category, error) {
	if limit < 0 || limit > maxLimit {
		return nil, ErrInvalidLimit
	}

	key := fmt.Sprintf("%s%d", cachePrefix, limit)
	var cached []Category
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		slog.WarnContext(ctx, "category cache read failed", "key", key, "err", err)
	} else if ok {
		return cached, nil
	}

	items, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, items, s.ttl); err != nil {
		slog.WarnContext(ctx, "category cache write failed", "key", key, "err", err)
	}
	return items, nil
}
