package product

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abayahaven/marketplace-backend/internal/cache"
)

// CachePrefix namespaces every cached product listing. Anything that changes
// stock or prices clears it.
const CachePrefix = "products:"

const maxListLimit = 100

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

func ValidateLimit(limit int) error {
	if limit < 0 || limit > maxListLimit {
		return ErrInvalidLimit
	}
	return nil
}

// List serves the public catalog from cache when possible.
func (s *Service) List(ctx context.Context, limit int) ([]Product, error) {
	if err := ValidateLimit(limit); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%slist:%d", CachePrefix, limit)
	var cached []Product
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		slog.WarnContext(ctx, "product cache read failed", "key", key, "err", err)
	} else if ok {
		return cached, nil
	}

	products, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, products, s.ttl); err != nil {
		slog.WarnContext(ctx, "product cache write failed", "key", key, "err", err)
	}
	return products, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID int) ([]Product, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

func (s *Service) ListWithSellers(ctx context.Context) ([]Product, error) {
	return s.repo.ListWithSellers(ctx)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return Product{}, err
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.Invalidate(ctx)
	return created, nil
}

// UpdateOwned applies the patch when sellerID owns the product. The product
// as it was before the update is returned alongside the result so callers
// can clean up a replaced image.
func (s *Service) UpdateOwned(ctx context.Context, sellerID, id int, patch Patch) (updated, previous Product, err error) {
	previous, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, Product{}, err
	}
	if previous.SellerID != sellerID {
		return Product{}, Product{}, ErrForbidden
	}
	updated, err = s.update(ctx, id, patch)
	return updated, previous, err
}

// Update applies the patch regardless of owner.
func (s *Service) Update(ctx context.Context, id int, patch Patch) (updated, previous Product, err error) {
	previous, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, Product{}, err
	}
	updated, err = s.update(ctx, id, patch)
	return updated, previous, err
}

func (s *Service) update(ctx context.Context, id int, patch Patch) (Product, error) {
	if err := patch.Validate(); err != nil {
		return Product{}, err
	}
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return Product{}, err
	}
	s.Invalidate(ctx)
	return updated, nil
}

// DeleteOwned removes the product when sellerID owns it and returns the
// deleted record.
func (s *Service) DeleteOwned(ctx context.Context, sellerID, id int) (Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if existing.SellerID != sellerID {
		return Product{}, ErrForbidden
	}
	return existing, s.delete(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int) (Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	return existing, s.delete(ctx, id)
}

func (s *Service) delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, CachePrefix); err != nil {
		slog.WarnContext(ctx, "product cache invalidation failed", "err", err)
	}
}
