package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type SeedUser struct {
	ID       int
	Username string
	Email    string
}

type SeedProduct struct {
	ID            int
	SellerID      int
	Name          string
	ImageURL      string
	Price         decimal.Decimal
	StockQuantity int
}

type memItem struct {
	ID int
	Item
}

type memState struct {
	users    map[int]SeedUser
	products map[int]SeedProduct
	carts    map[int][]Line
	orders   map[int]Order
	payments map[int]Payment
	items    map[int][]memItem

	nextOrderID   int
	nextPaymentID int
	nextItemID    int
}

func (s *memState) clone() *memState {
	c := &memState{
		users:         make(map[int]SeedUser, len(s.users)),
		products:      make(map[int]SeedProduct, len(s.products)),
		carts:         make(map[int][]Line, len(s.carts)),
		orders:        make(map[int]Order, len(s.orders)),
		payments:      make(map[int]Payment, len(s.payments)),
		items:         make(map[int][]memItem, len(s.items)),
		nextOrderID:   s.nextOrderID,
		nextPaymentID: s.nextPaymentID,
		nextItemID:    s.nextItemID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = append([]Line(nil), v...)
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]memItem(nil), v...)
	}
	return c
}

// InMemoryStore backs tests and local scenarios. A transaction holds the
// store lock for its whole duration and restores a snapshot on error.
type InMemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		state: &memState{
			users:         make(map[int]SeedUser),
			products:      make(map[int]SeedProduct),
			carts:         make(map[int][]Line),
			orders:        make(map[int]Order),
			payments:      make(map[int]Payment),
			items:         make(map[int][]memItem),
			nextOrderID:   1,
			nextPaymentID: 1,
			nextItemID:    1,
		},
		now: time.Now,
	}
}

func (s *InMemoryStore) AddUser(u SeedUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[u.ID] = u
}

func (s *InMemoryStore) AddProduct(p SeedProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[p.ID] = p
}

func (s *InMemoryStore) SetCart(userID int, lines ...Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.carts[userID] = append([]Line(nil), lines...)
}

func (s *InMemoryStore) Stock(productID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.products[productID].StockQuantity
}

func (s *InMemoryStore) CartSize(userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.carts[userID])
}

func (s *InMemoryStore) Order(id int) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.orders[id]
	return o, ok
}

func (s *InMemoryStore) Payment(id int) (Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.payments[id]
	return p, ok
}

func (s *InMemoryStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&memTx{state: s.state, now: s.now}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *InMemoryStore) CartLines(_ context.Context, userID int) ([]CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]CartLine, 0, len(s.state.carts[userID]))
	for _, l := range s.state.carts[userID] {
		p, ok := s.state.products[l.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, CartLine{
			ProductID:     p.ID,
			Name:          p.Name,
			Quantity:      l.Quantity,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
		})
	}
	return lines, nil
}

// newestFirst lists orders by creation time, newest first.
func (s *memState) newestFirst() []Order {
	orders := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (s *InMemoryStore) ListPlaced(_ context.Context, buyerID int) ([]PlacedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PlacedOrder, 0)
	for _, o := range s.state.newestFirst() {
		if o.UserID != buyerID || o.PaymentID == nil {
			continue
		}
		pay := s.state.payments[*o.PaymentID]
		po := PlacedOrder{
			OrderID:         o.ID,
			OrderDate:       o.CreatedAt,
			TotalAmount:     o.TotalAmount,
			PaymentStatus:   o.PaymentStatus,
			ShippingStatus:  o.Status,
			ShippingAddress: o.ShippingAddress,
			TrackingNumber:  o.TrackingNumber,
			PaymentMethod:   string(pay.Method),
			TransactionID:   pay.TransactionID,
			Items:           make([]PlacedItem, 0),
		}
		for _, it := range s.state.items[o.ID] {
			po.Items = append(po.Items, s.state.placedItem(it))
		}
		out = append(out, po)
	}
	return out, nil
}

func (s *memState) placedItem(it memItem) PlacedItem {
	p := s.products[it.ProductID]
	return PlacedItem{
		OrderItemID:     it.ID,
		ProductID:       it.ProductID,
		Quantity:        it.Quantity,
		PriceAtPurchase: it.PriceAtPurchase,
		ProductName:     p.Name,
		ImageURL:        p.ImageURL,
	}
}

func (s *InMemoryStore) ListReceived(_ context.Context, sellerID int) ([]ReceivedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ReceivedOrder, 0)
	for _, o := range s.state.newestFirst() {
		if o.PaymentID == nil {
			continue
		}
		var mine []SellerItem
		for _, it := range s.state.items[o.ID] {
			p := s.state.products[it.ProductID]
			if p.SellerID != sellerID {
				continue
			}
			mine = append(mine, SellerItem{
				ProductID:       it.ProductID,
				ProductName:     p.Name,
				Quantity:        it.Quantity,
				PriceAtPurchase: it.PriceAtPurchase,
				ImageURL:        p.ImageURL,
			})
		}
		if len(mine) == 0 {
			continue
		}
		pay := s.state.payments[*o.PaymentID]
		buyer := s.state.users[o.UserID]
		out = append(out, ReceivedOrder{
			OrderID:              o.ID,
			OrderDate:            o.CreatedAt,
			PaymentStatus:        o.PaymentStatus,
			ShippingStatus:       o.Status,
			BuyerUsername:        buyer.Username,
			BuyerEmail:           buyer.Email,
			BuyerShippingAddress: o.ShippingAddress,
			PaymentMethod:        string(pay.Method),
			TotalOrderAmount:     o.TotalAmount,
			PaymentID:            pay.ID,
			Items:                mine,
		})
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]AdminOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AdminOrder, 0, len(s.state.orders))
	for _, o := range s.state.newestFirst() {
		buyer := s.state.users[o.UserID]
		ao := AdminOrder{
			OrderID:         o.ID,
			BuyerID:         o.UserID,
			BuyerUsername:   buyer.Username,
			BuyerEmail:      buyer.Email,
			TotalAmount:     o.TotalAmount,
			ShippingStatus:  o.Status,
			PaymentStatus:   o.PaymentStatus,
			ShippingAddress: o.ShippingAddress,
			TrackingNumber:  o.TrackingNumber,
			CreatedAt:       o.CreatedAt,
			UpdatedAt:       o.UpdatedAt,
			Items:           make([]AdminItem, 0),
		}
		if o.PaymentID != nil {
			if pay, ok := s.state.payments[*o.PaymentID]; ok {
				method := string(pay.Method)
				txn := pay.TransactionID
				ao.PaymentMethod = &method
				ao.TransactionID = &txn
			}
		}
		for _, it := range s.state.items[o.ID] {
			p := s.state.products[it.ProductID]
			seller := s.state.users[p.SellerID]
			ao.Items = append(ao.Items, AdminItem{
				PlacedItem:     s.state.placedItem(it),
				SellerID:       p.SellerID,
				SellerUsername: seller.Username,
				SellerEmail:    seller.Email,
			})
		}
		out = append(out, ao)
	}
	return out, nil
}

type memTx struct {
	state *memState
	now   func() time.Time
}

func (t *memTx) LockProducts(_ context.Context, ids []int) (map[int]LockedProduct, error) {
	out := make(map[int]LockedProduct, len(ids))
	for _, id := range ids {
		p, ok := t.state.products[id]
		if !ok {
			continue
		}
		out[id] = LockedProduct{ID: p.ID, Name: p.Name, Price: p.Price, StockQuantity: p.StockQuantity}
	}
	return out, nil
}

func (t *memTx) CreateOrder(_ context.Context, o Order) (int, error) {
	o.ID = t.state.nextOrderID
	t.state.nextOrderID++
	o.PaymentID = nil
	o.CreatedAt = t.now()
	o.UpdatedAt = o.CreatedAt
	t.state.orders[o.ID] = o
	return o.ID, nil
}

func (t *memTx) CreatePayment(_ context.Context, p Payment) (int, error) {
	if _, ok := t.state.orders[p.OrderID]; !ok {
		return 0, ErrNotFound
	}
	p.ID = t.state.nextPaymentID
	t.state.nextPaymentID++
	t.state.payments[p.ID] = p
	return p.ID, nil
}

func (t *memTx) AttachPayment(_ context.Context, orderID, paymentID int) error {
	o, ok := t.state.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := t.state.payments[paymentID]; !ok {
		return ErrPaymentNotFound
	}
	o.PaymentID = &paymentID
	t.state.orders[orderID] = o
	return nil
}

func (t *memTx) InsertItem(_ context.Context, orderID int, it Item) error {
	if _, ok := t.state.orders[orderID]; !ok {
		return ErrNotFound
	}
	t.state.items[orderID] = append(t.state.items[orderID], memItem{ID: t.state.nextItemID, Item: it})
	t.state.nextItemID++
	return nil
}

func (t *memTx) DecrementStock(_ context.Context, productID, qty int) (bool, error) {
	p, ok := t.state.products[productID]
	if !ok || p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	t.state.products[productID] = p
	return true, nil
}

func (t *memTx) IncrementStock(_ context.Context, productID, qty int) error {
	p, ok := t.state.products[productID]
	if !ok {
		return nil
	}
	p.StockQuantity += qty
	t.state.products[productID] = p
	return nil
}

func (t *memTx) ClearCart(_ context.Context, userID int) error {
	delete(t.state.carts, userID)
	return nil
}

func (t *memTx) LockOrder(_ context.Context, id int) (Order, error) {
	o, ok := t.state.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (t *memTx) OrderItems(_ context.Context, orderID int) ([]Item, error) {
	items := make([]Item, 0, len(t.state.items[orderID]))
	for _, it := range t.state.items[orderID] {
		items = append(items, it.Item)
	}
	return items, nil
}

func (t *memTx) SellsInOrder(_ context.Context, orderID, sellerID int) (bool, error) {
	for _, it := range t.state.items[orderID] {
		if t.state.products[it.ProductID].SellerID == sellerID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) LockPayment(_ context.Context, id int) (Payment, error) {
	p, ok := t.state.payments[id]
	if !ok {
		return Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (t *memTx) UpdateOrder(_ context.Context, id int, patch StatusPatch) error {
	o, ok := t.state.orders[id]
	if !ok {
		return ErrNotFound
	}
	if patch.ShippingStatus != nil {
		o.Status = *patch.ShippingStatus
	}
	if patch.PaymentStatus != nil {
		o.PaymentStatus = *patch.PaymentStatus
	}
	o.UpdatedAt = t.now()
	t.state.orders[id] = o
	return nil
}

func (t *memTx) UpdatePayment(_ context.Context, id int, status string, paidAt *time.Time) error {
	p, ok := t.state.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Status = status
	if paidAt != nil {
		at := *paidAt
		p.PaymentDate = &at
	}
	t.state.payments[id] = p
	return nil
}

func (t *memTx) DeleteOrder(_ context.Context, id int) error {
	if _, ok := t.state.orders[id]; !ok {
		return ErrNotFound
	}
	delete(t.state.items, id)
	for pid, p := range t.state.payments {
		if p.OrderID == id {
			delete(t.state.payments, pid)
		}
	}
	delete(t.state.orders, id)
	return nil
}
