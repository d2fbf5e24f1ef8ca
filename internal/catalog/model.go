package catalog

import "github.com/shopspring/decimal"

// Product is the catalog's current view of a sellable item.
type Product struct {
	ID    string          `json:"productId"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}
