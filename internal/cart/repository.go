package cart

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("cart item not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("a valid quantity is required")
)

// Item is a cart row joined with the product it points at.
type Item struct {
	CartItemID    int             `json:"cart_item_id"`
	ProductID     int             `json:"product_id"`
	Quantity      int             `json:"quantity"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
}

type Repository interface {
	// Add inserts the line or adds qty to an existing one. It reports
	// whether a new row was created.
	Add(ctx context.Context, userID, productID, qty int) (bool, error)
	SetQuantity(ctx context.Context, userID, productID, qty int) error
	Remove(ctx context.Context, userID, productID int) error
	List(ctx context.Context, userID int) ([]Item, error)
}

type cartKey struct {
	userID    int
	productID int
}

type cartRow struct {
	id  int
	qty int
}

// InMemoryRepository is used for tests and local scenarios. Catalog holds the
// product details joined into List.
type InMemoryRepository struct {
	mu      sync.RWMutex
	catalog map[int]Item
	rows    map[cartKey]cartRow
	nextID  int
}

func NewInMemoryRepository(catalog []Item) *InMemoryRepository {
	r := &InMemoryRepository{
		catalog: make(map[int]Item, len(catalog)),
		rows:    make(map[cartKey]cartRow),
		nextID:  1,
	}
	for _, p := range catalog {
		r.catalog[p.ProductID] = p
	}
	return r
}

func (r *InMemoryRepository) Add(_ context.Context, userID, productID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.catalog[productID]; !ok {
		return false, ErrProductNotFound
	}

	k := cartKey{userID, productID}
	if row, ok := r.rows[k]; ok {
		row.qty += qty
		r.rows[k] = row
		return false, nil
	}

	r.rows[k] = cartRow{id: r.nextID, qty: qty}
	r.nextID++
	return true, nil
}

func (r *InMemoryRepository) SetQuantity(_ context.Context, userID, productID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := cartKey{userID, productID}
	row, ok := r.rows[k]
	if !ok {
		return ErrNotFound
	}
	row.qty = qty
	r.rows[k] = row
	return nil
}

func (r *InMemoryRepository) Remove(_ context.Context, userID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := cartKey{userID, productID}
	if _, ok := r.rows[k]; !ok {
		return ErrNotFound
	}
	delete(r.rows, k)
	return nil
}

func (r *InMemoryRepository) List(_ context.Context, userID int) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Item, 0)
	for k, row := range r.rows {
		if k.userID != userID {
			continue
		}
		it := r.catalog[k.productID]
		it.CartItemID = row.id
		it.ProductID = k.productID
		it.Quantity = row.qty
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CartItemID < items[j].CartItemID })
	return items, nil
}
