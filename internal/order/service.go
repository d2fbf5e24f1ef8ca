package order

import (
	"context"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/lock"
	"go.uber.org/zap"
)

// CartReader is the cart view checkout starts from.
type CartReader interface {
	ListItems(ctx context.Context, userID string) ([]cart.LineItem, error)
	ComputeTotal(ctx context.Context, userID string) (cart.Total, error)
}

// CartClearer empties a cart inside the order transaction.
type CartClearer interface {
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type Stock interface {
	Product(ctx context.Context, productID string) (catalog.Product, error)
	DecrementStock(ctx context.Context, productID string, qty int) error
	IncrementStock(ctx context.Context, productID string, qty int) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher is notified after an order change has been committed.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o Order) error
	OrderStatusChanged(ctx context.Context, o Order, from Status) error
}

type Deps struct {
	Carts  CartReader
	Clear  CartClearer
	Orders Repository
	Stock  Stock
	Tx     TxRunner
	Locker lock.Locker
	Events EventPublisher
	Logger *zap.Logger
	Now    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = nopEvents{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

type nopEvents struct{}

func (nopEvents) OrderCreated(context.Context, Order) error               { return nil }
func (nopEvents) OrderStatusChanged(context.Context, Order, Status) error { return nil }

// adjustStock applies fn to every item and stops at the first failure,
// returning the items that were applied.
func adjustStock(ctx context.Context, items []Item, fn func(context.Context, string, int) error) ([]Item, error) {
	done := make([]Item, 0, len(items))
	for _, it := range items {
		if err := fn(ctx, it.ProductID, it.Quantity); err != nil {
			return done, err
		}
		done = append(done, it)
	}
	return done, nil
}

// compensate reverses stock changes best effort. Failures are logged with the
// product and quantity so they can be repaired by hand.
func compensate(ctx context.Context, logger *zap.Logger, items []Item, fn func(context.Context, string, int) error, reason string) {
	for _, it := range items {
		if err := fn(ctx, it.ProductID, it.Quantity); err != nil {
			logger.Error("stock compensation failed",
				zap.String("reason", reason),
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err),
			)
		}
	}
}
