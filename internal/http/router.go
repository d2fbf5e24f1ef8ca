package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, logger *zap.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(CorrelationID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recover(logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(UserID)
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/cart", h.GetCart)
		r.Post("/cart/items", h.AddItem)
		r.Patch("/cart/items/{itemId}", h.UpdateItem)
		r.Delete("/cart/items/{itemId}", h.RemoveItem)

		r.Post("/checkout", h.Checkout)

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderId}", h.GetOrder)
		r.Post("/orders/{orderId}/transitions", h.TransitionOrder)
	})

	return r
}
