package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/lib/pq"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to Status, at time.Time) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(sqlDB *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: sqlDB}
}

// Create inserts the order and its items. Callers wanting atomicity with other
// writes run it inside db.TxRunner.RunInTx.
func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	conn := db.Conn(ctx, r.db)
	_, err = conn.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, total, shipping_address, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.UserID, string(o.Status), o.Total, string(addr), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for pos, it := range o.Items {
		_, err = conn.ExecContext(ctx,
			`INSERT INTO order_items (order_id, position, product_id, name, price, quantity)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, pos, it.ProductID, it.Name, it.Price, it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, user_id, status, total, shipping_address, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var (
		o      Order
		status string
		addr   []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.Total, &addr, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return Order{}, fmt.Errorf("decode shipping address of %s: %w", o.ID, err)
	}
	return o, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, apperr.NotFound("order %s", orderID)
	}
	if err != nil {
		return Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// ListByUser returns the user's orders newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT order_id, product_id, name, price, quantity
         FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`,
		pq.Array(orderIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]Item, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			it      Item
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		out[orderID] = append(out[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// UpdateStatus moves the order to `to` only if it is still in `from`. A lost
// race surfaces as apperr.ErrInvalidTransition.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, from, to Status, at time.Time) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		orderID, string(from), string(to), at,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: order %s is no longer %s", apperr.ErrInvalidTransition, orderID, from)
	}
	return nil
}
