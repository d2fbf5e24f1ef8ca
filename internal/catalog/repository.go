package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ErrInsufficientStock is returned by DecrementStock when the conditional
// update matched no row.
var ErrInsufficientStock = errors.New("catalog: insufficient stock")

const productReadTimeout = 5 * time.Second

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresCatalog struct {
	pool DBPool
	sfg  singleflight.Group
}

func NewPostgresCatalog(pool DBPool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

// Product reads the live price, name and stock of a product. Concurrent reads
// of the same id share one query. The shared query is detached from any single
// caller, so a cancelled caller returns early without failing the others.
func (c *PostgresCatalog) Product(ctx context.Context, productID string) (Product, error) {
	ch := c.sfg.DoChan(productID, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), productReadTimeout)
		defer cancel()
		return c.readProduct(qctx, productID)
	})

	select {
	case <-ctx.Done():
		return Product{}, fmt.Errorf("read product %s: %w", productID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Product{}, res.Err
		}
		return res.Val.(Product), nil
	}
}

func (c *PostgresCatalog) readProduct(ctx context.Context, productID string) (Product, error) {
	var (
		p     Product
		price string
	)
	row := c.pool.QueryRow(ctx, `SELECT id, name, price::text, stock FROM products WHERE id=$1`, productID)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound("product %s", productID)
		}
		return Product{}, fmt.Errorf("select product %s: %w", productID, err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("parse price of %s: %w", productID, err)
	}
	p.Price = d
	return p, nil
}

// DecrementStock removes qty units in a single conditional update, so two
// concurrent decrements can never drive stock below zero.
func (c *PostgresCatalog) DecrementStock(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return apperr.Invalid("decrement quantity %d", qty)
	}
	tag, err := c.pool.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, productID)
	}
	return nil
}

func (c *PostgresCatalog) IncrementStock(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return apperr.Invalid("increment quantity %d", qty)
	}
	tag, err := c.pool.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("increment stock %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("product %s", productID)
	}
	return nil
}
