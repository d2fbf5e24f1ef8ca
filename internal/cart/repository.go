package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]LineItem, error)
	Get(ctx context.Context, id string) (LineItem, error)
	FindByProduct(ctx context.Context, userID, productID string) (LineItem, bool, error)
	Upsert(ctx context.Context, item *LineItem) error
	UpdateQuantity(ctx context.Context, id string, quantity int) (LineItem, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// PostgresRepository stores line items in cart_items. Every method joins the
// transaction carried by ctx, if any.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(sqlDB *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: sqlDB}
}

const itemColumns = `id, user_id, product_id, quantity, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (LineItem, error) {
	var it LineItem
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]LineItem, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+itemColumns+` FROM cart_items WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := []LineItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (LineItem, error) {
	it, err := scanItem(db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM cart_items WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return LineItem{}, apperr.NotFound("cart item %s", id)
	}
	if err != nil {
		return LineItem{}, fmt.Errorf("get cart item %s: %w", id, err)
	}
	return it, nil
}

func (r *PostgresRepository) FindByProduct(ctx context.Context, userID, productID string) (LineItem, bool, error) {
	it, err := scanItem(db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return LineItem{}, false, nil
	}
	if err != nil {
		return LineItem{}, false, fmt.Errorf("find cart item for %s: %w", productID, err)
	}
	return it, true, nil
}

// Upsert writes item.Quantity as-is. On a (user_id, product_id) conflict the
// existing row keeps its id and position and takes the new quantity.
func (r *PostgresRepository) Upsert(ctx context.Context, item *LineItem) error {
	const q = `
INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
ON CONFLICT ON CONSTRAINT cart_items_user_product_key DO UPDATE
SET quantity = EXCLUDED.quantity, updated_at = NOW()
RETURNING id, created_at, updated_at
`
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, q, item.ID, item.UserID, item.ProductID, item.Quantity).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateQuantity(ctx context.Context, id string, quantity int) (LineItem, error) {
	it, err := scanItem(db.Conn(ctx, r.db).QueryRowContext(ctx, `
UPDATE cart_items SET quantity = $2, updated_at = NOW()
WHERE id = $1
RETURNING `+itemColumns, id, quantity))
	if errors.Is(err, sql.ErrNoRows) {
		return LineItem{}, apperr.NotFound("cart item %s", id)
	}
	if err != nil {
		return LineItem{}, fmt.Errorf("update cart item %s: %w", id, err)
	}
	return it, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart item %s: %w", id, err)
	}
	if n == 0 {
		return apperr.NotFound("cart item %s", id)
	}
	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart for %s: %w", userID, err)
	}
	return res.RowsAffected()
}
