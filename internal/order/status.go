package order

import (
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type transition struct {
	trigger string
	restock bool
}

// transitions is the complete set of legal moves. Anything not listed,
// including a move to the same status, is rejected.
var transitions = map[Status]map[Status]transition{
	StatusPending: {
		StatusPaid:      {trigger: "payment confirmed"},
		StatusCancelled: {trigger: "user or admin cancel", restock: true},
	},
	StatusPaid: {
		StatusShipped:   {trigger: "fulfillment"},
		StatusCancelled: {trigger: "admin cancel", restock: true},
	},
	StatusShipped: {
		StatusDelivered: {trigger: "delivery confirmation"},
	},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", apperr.Invalid("unknown order status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// Restocks reports whether moving from -> to returns the order's items to stock.
func Restocks(from, to Status) bool {
	return transitions[from][to].restock
}

// Trigger names the business event expected to cause from -> to.
func Trigger(from, to Status) string {
	return transitions[from][to].trigger
}

func invalidTransition(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, from, to)
}
