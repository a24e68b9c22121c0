package category

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type Repository interface {
	// List returns categories by descending product count. A limit of 0
	// means no limit.
	List(ctx context.Context, limit int) ([]Category, error)
}

// InMemoryRepository derives categories from a fixed set of product
// category names.
type InMemoryRepository struct {
	mu       sync.RWMutex
	products []string
}

func NewInMemoryRepository(productCategories ...string) *InMemoryRepository {
	return &InMemoryRepository{products: productCategories}
}

func (r *InMemoryRepository) List(_ context.Context, limit int) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, name := range r.products {
		if name = strings.TrimSpace(name); name != "" {
			counts[name]++
		}
	}

	out := make([]Category, 0, len(counts))
	for name, n := range counts {
		out = append(out, Category{Name: name, ProductCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductCount != out[j].ProductCount {
			return out[i].ProductCount > out[j].ProductCount
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
