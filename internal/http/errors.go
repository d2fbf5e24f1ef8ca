package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/lock"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logging"
)

type errorResponse struct {
	Error         string   `json:"error"`
	ProductIDs    []string `json:"productIds,omitempty"`
	CorrelationID string   `json:"correlationId,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrStockChanged),
		errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, lock.ErrTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to a response. Server-side failures are
// logged and their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(err)
	resp := errorResponse{
		Error:         err.Error(),
		ProductIDs:    apperr.ProductIDs(err),
		CorrelationID: logging.CorrelationID(r.Context()),
	}
	if status >= 500 {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", resp.CorrelationID),
			zap.Error(err),
		)
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperr.Invalid("invalid json: %v", err)
	}
	return nil
}
