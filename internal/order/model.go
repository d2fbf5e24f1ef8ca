package order

import (
	"sort"
	"strings"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/shopspring/decimal"
)

// Item is a line frozen at checkout. It is never re-read from the catalog.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a Address) Validate() error {
	var missing []string
	for field, v := range map[string]string{
		"name":       a.Name,
		"line1":      a.Line1,
		"city":       a.City,
		"postalCode": a.PostalCode,
		"country":    a.Country,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperr.Invalid("shipping address missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Order is immutable after checkout except for Status and UpdatedAt.
type Order struct {
	ID              string          `json:"orderId"`
	UserID          string          `json:"userId"`
	Items           []Item          `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	ShippingAddress Address         `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func sumItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
