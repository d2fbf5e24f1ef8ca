package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeStock struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	// afterDecrement lets a test mutate the catalog between decrements.
	afterDecrement func(productID string)
	incrementErr   map[string]error
	reads          int
	// afterReads reprices the catalog once the given number of reads has happened.
	afterReads int
	reprice    func()
}

func newFakeStock(ps ...catalog.Product) *fakeStock {
	s := &fakeStock{products: map[string]catalog.Product{}, incrementErr: map[string]error{}}
	for _, p := range ps {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStock) Product(_ context.Context, id string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.reprice != nil && s.reads == s.afterReads+1 {
		s.reprice()
	}
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, apperr.NotFound("product %s", id)
	}
	return p, nil
}

func (s *fakeStock) DecrementStock(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	p, ok := s.products[id]
	if !ok || p.Stock < qty {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", catalog.ErrInsufficientStock, id)
	}
	p.Stock -= qty
	s.products[id] = p
	hook := s.afterDecrement
	s.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return nil
}

func (s *fakeStock) IncrementStock(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.incrementErr[id]; err != nil {
		return err
	}
	p, ok := s.products[id]
	if !ok {
		return apperr.NotFound("product %s", id)
	}
	p.Stock += qty
	s.products[id] = p
	return nil
}

func (s *fakeStock) stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *fakeStock) setStock(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Stock = n
	s.products[id] = p
}

func (s *fakeStock) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *fakeStock) setPrice(id, price string) {
	p := s.products[id]
	p.Price = decimal.RequireFromString(price)
	s.products[id] = p
}

// fakeCarts prices lines through the same fakeStock the checkout reads.
type fakeCarts struct {
	mu       sync.Mutex
	items    map[string][]cart.LineItem
	stock    *fakeStock
	clearErr error
}

func newFakeCarts(stock *fakeStock) *fakeCarts {
	return &fakeCarts{items: map[string][]cart.LineItem{}, stock: stock}
}

func (c *fakeCarts) add(userID, productID string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[userID] = append(c.items[userID], cart.LineItem{
		ID: uuid.NewString(), UserID: userID, ProductID: productID, Quantity: qty,
	})
}

func (c *fakeCarts) ListItems(_ context.Context, userID string) ([]cart.LineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cart.LineItem(nil), c.items[userID]...), nil
}

func (c *fakeCarts) ComputeTotal(ctx context.Context, userID string) (cart.Total, error) {
	items, _ := c.ListItems(ctx, userID)
	out := cart.Total{Amount: decimal.Zero}
	for _, it := range items {
		p, err := c.stock.Product(ctx, it.ProductID)
		if err != nil {
			out.StaleItems = append(out.StaleItems, it)
			continue
		}
		out.Amount = out.Amount.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return out, nil
}

func (c *fakeCarts) DeleteByUser(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return 0, c.clearErr
	}
	n := int64(len(c.items[userID]))
	delete(c.items, userID)
	return n, nil
}

func (c *fakeCarts) count(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items[userID])
}

type fakeOrders struct {
	mu        sync.Mutex
	orders    map[string]Order
	createErr error
	// beforeUpdate runs before the compare-and-set, simulating a concurrent writer.
	beforeUpdate func(o *Order)
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]Order{}}
}

func (f *fakeOrders) Create(_ context.Context, o *Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	f.orders[o.ID] = cp
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return Order{}, apperr.NotFound("order %s", id)
	}
	o.Items = append([]Item(nil), o.Items...)
	return o, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string) ([]Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, from, to Status, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return apperr.NotFound("order %s", id)
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(&o)
	}
	if o.Status != from {
		f.orders[id] = o
		return fmt.Errorf("%w: order %s is no longer %s", apperr.ErrInvalidTransition, id, from)
	}
	o.Status = to
	o.UpdatedAt = at
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) status(id string) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

type inlineTx struct{ calls int }

func (t *inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

type recordedEvent struct {
	name  string
	order Order
	from  Status
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (r *recordingEvents) OrderCreated(_ context.Context, o Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: "OrderCreated", order: o})
	return r.err
}

func (r *recordingEvents) OrderStatusChanged(_ context.Context, o Order, from Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: "OrderStatusChanged", order: o, from: from})
	return r.err
}

type harness struct {
	stock     *fakeStock
	carts     *fakeCarts
	orders    *fakeOrders
	tx        *inlineTx
	events    *recordingEvents
	assembler *Assembler
	lifecycle *Lifecycle
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newHarness(ps ...catalog.Product) *harness {
	stock := newFakeStock(ps...)
	h := &harness{
		stock:  stock,
		carts:  newFakeCarts(stock),
		orders: newFakeOrders(),
		tx:     &inlineTx{},
		events: &recordingEvents{},
	}
	d := Deps{
		Carts:  h.carts,
		Clear:  h.carts,
		Orders: h.orders,
		Stock:  h.stock,
		Tx:     h.tx,
		Locker: lock.NewLocalLocker(time.Second),
		Events: h.events,
		Logger: zap.NewNop(),
		Now:    func() time.Time { return fixedNow },
	}
	h.assembler = NewAssembler(d)
	h.lifecycle = NewLifecycle(d)
	return h
}

func product(id, name, price string, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

var testAddress = Address{
	Name:       "Ada Lovelace",
	Line1:      "1 Jewel Street",
	City:       "London",
	PostalCode: "N1 9GU",
	Country:    "GB",
}
