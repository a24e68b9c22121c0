package product

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound      = errors.New("product not found")
	ErrForbidden     = errors.New("product belongs to another seller")
	ErrEmptyPatch    = errors.New("no fields to update")
	ErrMissingFields = errors.New("product name, price, and image are required")
	ErrInvalidPrice  = errors.New("price must be a positive number")
	ErrInvalidStock  = errors.New("stock quantity must be a non-negative integer")
	ErrInvalidLimit  = errors.New("limit must be between 1 and 100")
	ErrHasOrders     = errors.New("product has order history")
)

type Repository interface {
	// List returns products newest first. A limit of 0 means no limit.
	List(ctx context.Context, limit int) ([]Product, error)
	ListBySeller(ctx context.Context, sellerID int) ([]Product, error)
	ListWithSellers(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int, patch Patch) (Product, error)
	// Delete removes the product and any cart rows pointing at it.
	Delete(ctx context.Context, id int) error
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// local runs without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
	nextID  int
	ordered map[int]bool
	sellers map[int][2]string
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]Product, 0, len(seed)),
		nextID:  1,
		ordered: make(map[int]bool),
		sellers: make(map[int][2]string),
	}

	maxID := 0
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

// MarkOrdered records that an order item references the product.
func (r *InMemoryRepository) MarkOrdered(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ordered[id] = true
}

// SetSeller registers the username and email joined into admin listings.
func (r *InMemoryRepository) SetSeller(sellerID int, username, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sellers[sellerID] = [2]string{username, email}
}

func (r *InMemoryRepository) sorted() []Product {
	out := make([]Product, len(r.storage))
	copy(out, r.storage)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *InMemoryRepository) List(_ context.Context, limit int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.sorted()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) ListBySeller(_ context.Context, sellerID int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0)
	for _, p := range r.sorted() {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) ListWithSellers(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.sorted()
	for i := range out {
		s := r.sellers[out[i].SellerID]
		out[i].SellerUsername, out[i].SellerEmail = s[0], s[1]
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, patch Patch) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.storage {
		if p.ID == id {
			p = patch.apply(p)
			p.UpdatedAt = time.Now().UTC()
			r.storage[i] = p
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.storage {
		if p.ID == id {
			if r.ordered[id] {
				return ErrHasOrders
			}
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
