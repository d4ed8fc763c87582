package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// MemoryStore is an in-memory catalog and order book with all-or-nothing
// transactions. Transactions are serialized; each one works on a copy of the
// state that replaces the committed state only when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state memoryState
	now   func() time.Time

	// Fail is consulted before every statement issued inside a transaction.
	// A non-nil result aborts the statement with that error.
	Fail func(op string) error
	// DecrementFails makes DecrementStock report a lost race for the product.
	DecrementFails map[int64]bool
}

type memoryState struct {
	products  map[int64]model.Product
	orders    map[int64]model.Order
	items     []model.OrderItem
	events    []model.OutboxEvent
	nextID    map[string]int64
	committed int
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		products:  make(map[int64]model.Product, len(s.products)),
		orders:    make(map[int64]model.Order, len(s.orders)),
		items:     append([]model.OrderItem(nil), s.items...),
		events:    append([]model.OutboxEvent(nil), s.events...),
		nextID:    make(map[string]int64, len(s.nextID)),
		committed: s.committed,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.nextID {
		c.nextID[k] = v
	}
	return c
}

func (s *memoryState) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memoryState{
			products: make(map[int64]model.Product),
			orders:   make(map[int64]model.Order),
			nextID:   make(map[string]int64),
		},
		now: time.Now,
	}
}

// AddProduct stores p with a fresh id and returns it.
func (m *MemoryStore) AddProduct(p model.Product) model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.state.id("products")
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.state.products[p.ID] = p
	return p
}

// Stock returns committed stock of product id.
func (m *MemoryStore) Stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.products[id].StockQuantity
}

// OrderCount returns number of committed orders.
func (m *MemoryStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.orders)
}

// Items returns committed order items.
func (m *MemoryStore) Items() []model.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OrderItem(nil), m.state.items...)
}

// Events returns committed outbox events.
func (m *MemoryStore) Events() []model.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OutboxEvent(nil), m.state.events...)
}

// Commits returns the number of committed transactions.
func (m *MemoryStore) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.committed
}

// WithinOrderTx runs fn against a private copy of the state.
func (m *MemoryStore) WithinOrderTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domainErrors.TransactionFailure(err)
	}
	work := m.state.clone()
	tx := &memoryTx{state: &work, store: m}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domainErrors.TransactionFailure(err)
	}
	work.committed++
	m.state = work
	return nil
}

type memoryTx struct {
	state *memoryState
	store *MemoryStore
}

func (t *memoryTx) fail(op string) error {
	if t.store.Fail == nil {
		return nil
	}
	return t.store.Fail(op)
}

func (t *memoryTx) InsertOrder(ctx context.Context, order *model.Order) error {
	if err := t.fail("insert_order"); err != nil {
		return err
	}
	order.ID = t.state.id("orders")
	order.CreatedAt = t.store.now()
	header := *order
	header.Items = nil
	t.state.orders[order.ID] = header
	return nil
}

func (t *memoryTx) LockStock(ctx context.Context, productID int64) (repository.StockLevel, error) {
	if err := t.fail("lock_stock"); err != nil {
		return repository.StockLevel{}, err
	}
	p, ok := t.state.products[productID]
	if !ok {
		return repository.StockLevel{}, &domainErrors.ProductNotFoundError{ProductID: productID}
	}
	return repository.StockLevel{Quantity: p.StockQuantity, Price: p.Price}, nil
}

func (t *memoryTx) InsertItem(ctx context.Context, item *model.OrderItem) error {
	if err := t.fail("insert_item"); err != nil {
		return err
	}
	item.ID = t.state.id("order_items")
	t.state.items = append(t.state.items, *item)
	return nil
}

func (t *memoryTx) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	if err := t.fail("decrement_stock"); err != nil {
		return false, err
	}
	if t.store.DecrementFails[productID] {
		return false, nil
	}
	p, ok := t.state.products[productID]
	if !ok || p.StockQuantity < quantity {
		return false, nil
	}
	p.StockQuantity -= quantity
	t.state.products[productID] = p
	return true, nil
}

func (t *memoryTx) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	if err := t.fail("update_status"); err != nil {
		return err
	}
	o, ok := t.state.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.Status = status
	t.state.orders[orderID] = o
	return nil
}

func (t *memoryTx) AppendEvent(ctx context.Context, event *model.OutboxEvent) error {
	if err := t.fail("append_event"); err != nil {
		return err
	}
	event.ID = t.state.id("outbox")
	event.CreatedAt = t.store.now()
	t.state.events = append(t.state.events, *event)
	return nil
}

// GetByID returns committed order with items.
func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	o.Items = make([]model.OrderItem, 0)
	for _, it := range m.state.items {
		if it.OrderID == id {
			p := m.state.products[it.ProductID]
			it.ProductName, it.ImageURL, it.Description = p.Name, p.ImageURL, p.Description
			o.Items = append(o.Items, it)
		}
	}
	return &o, nil
}

// List returns committed orders newest first with item counts.
func (m *MemoryStore) List(ctx context.Context) ([]model.OrderSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[int64]int)
	for _, it := range m.state.items {
		counts[it.OrderID]++
	}
	out := make([]model.OrderSummary, 0, len(m.state.orders))
	for _, o := range m.state.orders {
		out = append(out, model.OrderSummary{Order: o, ItemCount: counts[o.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Dispatch hands unsent events to send and marks delivered ones.
func (m *MemoryStore) Dispatch(ctx context.Context, limit int, send func(context.Context, model.OutboxEvent) error) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	claimed, sent := 0, 0
	for i := range m.state.events {
		if claimed >= limit {
			break
		}
		e := &m.state.events[i]
		if e.SentAt != nil {
			continue
		}
		claimed++
		if err := send(ctx, *e); err != nil {
			continue
		}
		now := m.now()
		e.SentAt = &now
		sent++
	}
	return sent, nil
}

var (
	_ repository.TxManager        = (*MemoryStore)(nil)
	_ repository.OrderRepository  = (*MemoryStore)(nil)
	_ repository.OutboxRepository = (*MemoryStore)(nil)
)
