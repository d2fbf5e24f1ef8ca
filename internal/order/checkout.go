package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/authz"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/lock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Assembler turns a cart into a pending order. Either the order exists, the
// cart is empty and stock is decremented, or none of those happened.
type Assembler struct {
	d Deps
}

func NewAssembler(d Deps) *Assembler {
	return &Assembler{d: d.withDefaults()}
}

func (a *Assembler) Checkout(ctx context.Context, userID string, addr Address) (Order, error) {
	if err := authz.RequireIdentity(userID); err != nil {
		return Order{}, err
	}
	if err := addr.Validate(); err != nil {
		return Order{}, err
	}

	unlock, err := a.d.Locker.Lock(ctx, lock.CartKey(userID))
	if err != nil {
		return Order{}, err
	}
	defer unlock()

	lines, err := a.d.Carts.ListItems(ctx, userID)
	if err != nil {
		return Order{}, err
	}
	if len(lines) == 0 {
		return Order{}, apperr.ErrEmptyCart
	}

	ref, err := a.d.Carts.ComputeTotal(ctx, userID)
	if err != nil {
		return Order{}, err
	}
	if len(ref.StaleItems) > 0 {
		ids := make([]string, 0, len(ref.StaleItems))
		for _, it := range ref.StaleItems {
			ids = append(ids, it.ProductID)
		}
		return Order{}, apperr.StockChanged(ids...)
	}

	items := make([]Item, 0, len(lines))
	var changed []string
	for _, line := range lines {
		p, err := a.d.Stock.Product(ctx, line.ProductID)
		if errors.Is(err, apperr.ErrNotFound) {
			changed = append(changed, line.ProductID)
			continue
		}
		if err != nil {
			return Order{}, err
		}
		if p.Stock < line.Quantity {
			changed = append(changed, line.ProductID)
			continue
		}
		items = append(items, Item{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: line.Quantity})
	}
	if len(changed) > 0 {
		return Order{}, apperr.StockChanged(changed...)
	}

	total := sumItems(items)
	if !total.Equal(ref.Amount) {
		ierr := &apperr.IntegrityError{UserID: userID, Expected: ref.Amount, Actual: total}
		a.d.Logger.Error("checkout total mismatch",
			zap.String("user_id", userID),
			zap.String("cart_total", ref.Amount.StringFixed(2)),
			zap.String("snapshot_total", total.StringFixed(2)),
		)
		return Order{}, ierr
	}

	// From here on the checkout either completes or is fully undone, even if
	// the caller goes away.
	ctx = context.WithoutCancel(ctx)

	decremented, err := adjustStock(ctx, items, a.d.Stock.DecrementStock)
	if err != nil {
		compensate(ctx, a.d.Logger, decremented, a.d.Stock.IncrementStock, "checkout decrement failed")
		if errors.Is(err, catalog.ErrInsufficientStock) {
			return Order{}, apperr.StockChanged(items[len(decremented)].ProductID)
		}
		return Order{}, fmt.Errorf("decrement stock: %w", err)
	}

	now := a.d.Now()
	o := Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		Total:           total,
		Status:          StatusPending,
		ShippingAddress: addr,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = a.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := a.d.Orders.Create(ctx, &o); err != nil {
			return err
		}
		_, err := a.d.Clear.DeleteByUser(ctx, userID)
		return err
	})
	if err != nil {
		compensate(ctx, a.d.Logger, decremented, a.d.Stock.IncrementStock, "order persist failed")
		return Order{}, fmt.Errorf("persist order: %w", err)
	}

	a.d.Logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.Total.StringFixed(2)),
	)

	if err := a.d.Events.OrderCreated(ctx, o); err != nil {
		a.d.Logger.Warn("publish OrderCreated failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}
