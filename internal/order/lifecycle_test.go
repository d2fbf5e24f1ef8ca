package order

import (
	"context"
	"errors"
	"testing"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, h *harness, userID string, lines map[string]int) Order {
	t.Helper()
	for id, qty := range lines {
		h.carts.add(userID, id, qty)
	}
	o, err := h.assembler.Checkout(context.Background(), userID, testAddress)
	require.NoError(t, err)
	return o
}

func TestTransition_HappyPath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(product("p1", "Ring", "5.00", 10))
	o := placeOrder(t, h, "u1", map[string]int{"p1": 1})

	for _, to := range []Status{StatusPaid, StatusShipped, StatusDelivered} {
		got, err := h.lifecycle.Transition(ctx, "u1", o.ID, to)
		require.NoError(t, err, "to %s", to)
		assert.Equal(t, to, got.Status)
		assert.Equal(t, to, h.orders.status(o.ID))
	}
	assert.Equal(t, 9, h.stock.stock("p1"))

	_, err := h.lifecycle.Transition(ctx, "u1", o.ID, StatusCancelled)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, StatusDelivered, h.orders.status(o.ID))

	var changed []recordedEvent
	for _, ev := range h.events.events {
		if ev.name == "OrderStatusChanged" {
			changed = append(changed, ev)
		}
	}
	require.Len(t, changed, 3)
	assert.Equal(t, StatusPending, changed[0].from)
	assert.Equal(t, StatusDelivered, changed[2].order.Status)
}

func TestTransition_PendingToDeliveredRejected(t *testing.T) {
	h := newHarness(product("p1", "Ring", "5.00", 10))
	o := placeOrder(t, h, "u1", map[string]int{"p1": 1})

	_, err := h.lifecycle.Transition(context.Background(), "u1", o.ID, StatusDelivered)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, StatusPending, h.orders.status(o.ID))
}

func TestTransition_SameStatusRejected(t *testing.T) {
	h := newHarness(product("p1", "Ring", "5.00", 10))
	o := placeOrder(t, h, "u1", map[string]int{"p1": 1})

	_, err := h.lifecycle.Transition(context.Background(), "u1", o.ID, StatusPending)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestTransition_CancelRestoresStock(t *testing.T) {
	tests := map[string][]Status{
		"from pending": {StatusCancelled},
		"from paid":    {StatusPaid, StatusCancelled},
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(product("p1", "Ring", "5.00", 10), product("p2", "Chain", "2.00", 6))
			o := placeOrder(t, h, "u1", map[string]int{"p1": 3, "p2": 2})
			require.Equal(t, 7, h.stock.stock("p1"))
			require.Equal(t, 4, h.stock.stock("p2"))

			for _, to := range path {
				_, err := h.lifecycle.Transition(ctx, "u1", o.ID, to)
				require.NoError(t, err)
			}

			assert.Equal(t, 10, h.stock.stock("p1"))
			assert.Equal(t, 6, h.stock.stock("p2"))
			assert.Equal(t, StatusCancelled, h.orders.status(o.ID))
		})
	}
}

func TestTransition_ShippedCannotBeCancelled(t *testing.T) {
	ctx := context.Background()
	h := newHarness(product("p1", "Ring", "5.00", 10))
	o := placeOrder(t, h, "u1", map[string]int{"p1": 2})

	for _, to := range []Status{StatusPaid, StatusShipped} {
		_, err := h.lifecycle.Transition(ctx, "u1", o.ID, to)
		require.NoError(t, err)
	}
	_, err := h.lifecycle.Transition(ctx, "u1", o.ID, StatusCancelled)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, 8, h.stock.stock("p1"))
}

func TestTransition_LostRaceUndoesRestock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(product("p1", "Ring", "5.00", 10))
	o := placeOrder(t, h, "u1", map[string]int{"p1": 4})

	h.orders.beforeUpdate = func(o *Order) { o.Status = StatusPaid }

	_, err := h.lifecycle.Transition(ctx, "u1", o.ID, StatusCancelled)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, 6, h.stock.stock("p1"))
	assert.Equal(t, StatusPaid, h.orders.status(o.ID))
}

func TestTransition_PartialRestockIsReversed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(product("a", "Ring", "5.00", 10), product("b", "Chain", "2.00", 10))
	h.carts.add("u1", "a", 1)
	h.carts.add("u1", "b", 1)
	o, err := h.assembler.Checkout(ctx, "u1", testAddress)
	require.NoError(t, err)

	h.stock.incrementErr["b"] = errors.New("connection refused")

	_, err = h.lifecycle.Transition(ctx, "u1", o.ID, StatusCancelled)
	require.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 9, h.stock.stock("a"))
	assert.Equal(t, 9, h.stock.stock("b"))
	assert.Equal(t, StatusPending, h.orders.status(o.ID))
}

func TestTransition_CancelAfterProductDeleted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(product("p1", "Ring", "5.00", 10), product("p2", "Chain", "2.00", 10))
	h.carts.add("u1", "p1", 1)
	h.carts.add("u1", "p2", 1)
	o, err := h.assembler.Checkout(ctx, "u1", testAddress)
	require.NoError(t, err)

	h.stock.remove("p2")

	got, err := h.lifecycle.Transition(ctx, "u1", o.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, StatusCancelled, h.orders.status(o.ID))
	assert.Equal(t, 10, h.stock.stock("p1"))
}

func TestTransition_Authorization(t *testing.T) {
	ctx := context.Background()
	h := newHarness(product("p1", "Ring", "5.00", 10))
	o := placeOrder(t, h, "u1", map[string]int{"p1": 1})

	_, err := h.lifecycle.Transition(ctx, "u2", o.ID, StatusCancelled)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, 9, h.stock.stock("p1"))

	_, err = h.lifecycle.Transition(ctx, "u1", uuid.NewString(), StatusPaid)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.lifecycle.Transition(ctx, "u1", "not-an-id", StatusPaid)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.lifecycle.Transition(ctx, "u1", o.ID, Status("refunded"))
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestGetAndListOrders(t *testing.T) {
	ctx := context.Background()
	h := newHarness(product("p1", "Ring", "5.00", 10))
	o := placeOrder(t, h, "u1", map[string]int{"p1": 1})

	got, err := h.lifecycle.GetOrder(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = h.lifecycle.GetOrder(ctx, "u2", o.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	list, err := h.lifecycle.ListOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = h.lifecycle.ListOrders(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = h.lifecycle.ListOrders(ctx, "")
	require.ErrorIs(t, err, apperr.ErrForbidden)
}
