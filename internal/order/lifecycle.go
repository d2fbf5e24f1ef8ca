package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/authz"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/lock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lifecycle moves orders through the transition table and serves order reads.
type Lifecycle struct {
	d Deps
}

func NewLifecycle(d Deps) *Lifecycle {
	return &Lifecycle{d: d.withDefaults()}
}

func (l *Lifecycle) GetOrder(ctx context.Context, userID, orderID string) (Order, error) {
	if err := authz.RequireIdentity(userID); err != nil {
		return Order{}, err
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return Order{}, apperr.NotFound("order %s", orderID)
	}
	o, err := l.d.Orders.GetByID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if err := authz.AssertOwner(userID, o.UserID); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ListOrders returns the caller's orders newest first.
func (l *Lifecycle) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	if err := authz.RequireIdentity(userID); err != nil {
		return nil, err
	}
	return l.d.Orders.ListByUser(ctx, userID)
}

// Transition moves the order to `to`. Cancellations return every item to
// stock before the status is written; if the write loses a race the restock
// is reversed. Items whose product has left the catalog are not restocked and
// do not block the cancellation.
func (l *Lifecycle) Transition(ctx context.Context, userID, orderID string, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, apperr.Invalid("unknown order status %q", to)
	}

	unlock, err := l.d.Locker.Lock(ctx, lock.OrderKey(orderID))
	if err != nil {
		return Order{}, err
	}
	defer unlock()

	o, err := l.GetOrder(ctx, userID, orderID)
	if err != nil {
		return Order{}, err
	}

	from := o.Status
	if !CanTransition(from, to) {
		return Order{}, invalidTransition(from, to)
	}

	ctx = context.WithoutCancel(ctx)

	var restocked []Item
	if Restocks(from, to) {
		restocked, err = l.restock(ctx, o)
		if err != nil {
			compensate(ctx, l.d.Logger, restocked, l.d.Stock.DecrementStock, "restock failed")
			return Order{}, fmt.Errorf("restock order %s: %w", o.ID, err)
		}
	}

	now := l.d.Now()
	if err := l.d.Orders.UpdateStatus(ctx, o.ID, from, to, now); err != nil {
		compensate(ctx, l.d.Logger, restocked, l.d.Stock.DecrementStock, "status update failed")
		return Order{}, err
	}
	o.Status = to
	o.UpdatedAt = now

	l.d.Logger.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("trigger", Trigger(from, to)),
		zap.Int("restocked_items", len(restocked)),
	)

	if err := l.d.Events.OrderStatusChanged(ctx, o, from); err != nil {
		l.d.Logger.Warn("publish OrderStatusChanged failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

// restock returns the order's items to stock and reports the ones applied.
// A product that no longer exists has nothing to return to.
func (l *Lifecycle) restock(ctx context.Context, o Order) ([]Item, error) {
	done := make([]Item, 0, len(o.Items))
	for _, it := range o.Items {
		err := l.d.Stock.IncrementStock(ctx, it.ProductID, it.Quantity)
		if errors.Is(err, apperr.ErrNotFound) {
			l.d.Logger.Warn("restock skipped, product no longer in catalog",
				zap.String("order_id", o.ID),
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
			)
			continue
		}
		if err != nil {
			return done, err
		}
		done = append(done, it)
	}
	return done, nil
}
