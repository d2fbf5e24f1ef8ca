package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockChanged      = errors.New("stock changed")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrIntegrity         = errors.New("integrity violation")
)

// StockError reports the products that failed a stock constraint.
// Kind is ErrInsufficientStock (add-time) or ErrStockChanged (checkout-time).
type StockError struct {
	Kind       error
	ProductIDs []string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.ProductIDs, ","))
}

func (e *StockError) Unwrap() error { return e.Kind }

func InsufficientStock(productID string) error {
	return &StockError{Kind: ErrInsufficientStock, ProductIDs: []string{productID}}
}

func StockChanged(productIDs ...string) error {
	return &StockError{Kind: ErrStockChanged, ProductIDs: productIDs}
}

// ProductIDs returns the offending product ids carried by err, if any.
func ProductIDs(err error) []string {
	var se *StockError
	if errors.As(err, &se) {
		return se.ProductIDs
	}
	return nil
}

// IntegrityError is returned when a checkout snapshot total disagrees with the
// cart total computed at the start of the same checkout.
type IntegrityError struct {
	UserID   string
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: cart total %s != snapshot total %s (user %s)",
		ErrIntegrity, e.Expected.StringFixed(2), e.Actual.StringFixed(2), e.UserID)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
