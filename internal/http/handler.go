package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type CartService interface {
	View(ctx context.Context, userID string) (cart.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (cart.LineItem, error)
	UpdateQuantity(ctx context.Context, userID, lineItemID string, quantity int) (cart.LineItem, error)
	RemoveItem(ctx context.Context, userID, lineItemID string) error
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID string, addr order.Address) (order.Order, error)
}

type OrderService interface {
	GetOrder(ctx context.Context, userID, orderID string) (order.Order, error)
	ListOrders(ctx context.Context, userID string) ([]order.Order, error)
	Transition(ctx context.Context, userID, orderID string, to order.Status) (order.Order, error)
}

type Handler struct {
	carts    CartService
	checkout CheckoutService
	orders   OrderService
	logger   *zap.Logger
}

func NewHandler(carts CartService, checkout CheckoutService, orders OrderService, logger *zap.Logger) *Handler {
	return &Handler{carts: carts, checkout: checkout, orders: orders, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "storefront-service"})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.View(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	item, err := h.carts.AddItem(r.Context(), GetUserID(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	item, err := h.carts.UpdateQuantity(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "itemId"), req.Quantity)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RemoveItem(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "itemId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkoutRequest struct {
	ShippingAddress order.Address `json:"shippingAddress"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	o, err := h.checkout.Checkout(r.Context(), GetUserID(r.Context()), req.ShippingAddress)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	to, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	o, err := h.orders.Transition(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "orderId"), to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
