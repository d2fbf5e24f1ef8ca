package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product in a user's cart. Price is never stored here; it is
// read from the catalog whenever a total is computed.
type LineItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Total is the live value of a cart. StaleItems lists lines whose product no
// longer exists; they are excluded from Amount.
type Total struct {
	Amount     decimal.Decimal `json:"total"`
	StaleItems []LineItem      `json:"staleItems,omitempty"`
}

// Cart is the derived view returned to clients.
type Cart struct {
	UserID string     `json:"userId"`
	Items  []LineItem `json:"items"`
	Total
}
