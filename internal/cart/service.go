package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/authz"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductReader is the catalog read the cart needs.
type ProductReader interface {
	Product(ctx context.Context, productID string) (catalog.Product, error)
}

// Service owns the rules for a user's cart: at most one line per product,
// quantities of at least one, and never more than the product's stock.
// Mutations for one user are serialized through the locker.
type Service struct {
	repo     Repository
	products ProductReader
	locker   lock.Locker
	logger   *zap.Logger
}

func NewService(repo Repository, products ProductReader, locker lock.Locker, logger *zap.Logger) *Service {
	return &Service{repo: repo, products: products, locker: locker, logger: logger}
}

// AddItem adds quantity units of productID. An existing line for the same
// product is merged into, so the result carries the accumulated quantity.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (LineItem, error) {
	if err := authz.RequireIdentity(userID); err != nil {
		return LineItem{}, err
	}
	if strings.TrimSpace(productID) == "" {
		return LineItem{}, apperr.Invalid("productId is required")
	}
	if quantity < 1 {
		return LineItem{}, apperr.Invalid("quantity must be at least 1, got %d", quantity)
	}

	unlock, err := s.locker.Lock(ctx, lock.CartKey(userID))
	if err != nil {
		return LineItem{}, err
	}
	defer unlock()

	p, err := s.products.Product(ctx, productID)
	if err != nil {
		return LineItem{}, err
	}

	item, found, err := s.repo.FindByProduct(ctx, userID, productID)
	if err != nil {
		return LineItem{}, err
	}
	if !found {
		item = LineItem{ID: uuid.NewString(), UserID: userID, ProductID: productID}
	}

	merged := item.Quantity + quantity
	if merged > p.Stock {
		return LineItem{}, apperr.InsufficientStock(productID)
	}
	item.Quantity = merged

	if err := s.repo.Upsert(ctx, &item); err != nil {
		return LineItem{}, err
	}

	s.logger.Debug("cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", item.Quantity),
		zap.Bool("merged", found),
	)
	return item, nil
}

// UpdateQuantity replaces the quantity of an owned line. Zero is rejected;
// removal goes through RemoveItem. A line owned by another user fails with
// apperr.ErrForbidden, an unknown or malformed id with apperr.ErrNotFound.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineItemID string, quantity int) (LineItem, error) {
	if err := authz.RequireIdentity(userID); err != nil {
		return LineItem{}, err
	}
	if quantity < 1 {
		return LineItem{}, apperr.Invalid("quantity must be at least 1, got %d", quantity)
	}
	if _, err := uuid.Parse(lineItemID); err != nil {
		return LineItem{}, apperr.NotFound("cart item %s", lineItemID)
	}

	unlock, err := s.locker.Lock(ctx, lock.CartKey(userID))
	if err != nil {
		return LineItem{}, err
	}
	defer unlock()

	item, err := s.repo.Get(ctx, lineItemID)
	if err != nil {
		return LineItem{}, err
	}
	if err := authz.AssertOwner(userID, item.UserID); err != nil {
		return LineItem{}, err
	}

	p, err := s.products.Product(ctx, item.ProductID)
	if err != nil {
		return LineItem{}, err
	}
	if quantity > p.Stock {
		return LineItem{}, apperr.InsufficientStock(item.ProductID)
	}

	return s.repo.UpdateQuantity(ctx, lineItemID, quantity)
}

// RemoveItem deletes an owned line. Errors follow UpdateQuantity.
func (s *Service) RemoveItem(ctx context.Context, userID, lineItemID string) error {
	if err := authz.RequireIdentity(userID); err != nil {
		return err
	}
	if _, err := uuid.Parse(lineItemID); err != nil {
		return apperr.NotFound("cart item %s", lineItemID)
	}

	unlock, err := s.locker.Lock(ctx, lock.CartKey(userID))
	if err != nil {
		return err
	}
	defer unlock()

	item, err := s.repo.Get(ctx, lineItemID)
	if err != nil {
		return err
	}
	if err := authz.AssertOwner(userID, item.UserID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, lineItemID)
}

// ListItems returns the user's lines oldest first.
func (s *Service) ListItems(ctx context.Context, userID string) ([]LineItem, error) {
	if err := authz.RequireIdentity(userID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

func (s *Service) ComputeTotal(ctx context.Context, userID string) (Total, error) {
	items, err := s.ListItems(ctx, userID)
	if err != nil {
		return Total{}, err
	}
	return s.total(ctx, items)
}

// View returns the items and their live total together.
func (s *Service) View(ctx context.Context, userID string) (Cart, error) {
	items, err := s.ListItems(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	total, err := s.total(ctx, items)
	if err != nil {
		return Cart{}, err
	}
	return Cart{UserID: userID, Items: items, Total: total}, nil
}

// total reads each distinct product once. Lines whose product is gone are
// reported, not dropped.
func (s *Service) total(ctx context.Context, items []LineItem) (Total, error) {
	prices := make(map[string]decimal.Decimal, len(items))
	missing := make(map[string]bool)

	for _, it := range items {
		if _, seen := prices[it.ProductID]; seen || missing[it.ProductID] {
			continue
		}
		p, err := s.products.Product(ctx, it.ProductID)
		if errors.Is(err, apperr.ErrNotFound) {
			missing[it.ProductID] = true
			continue
		}
		if err != nil {
			return Total{}, err
		}
		prices[it.ProductID] = p.Price
	}

	out := Total{Amount: decimal.Zero}
	for _, it := range items {
		if missing[it.ProductID] {
			out.StaleItems = append(out.StaleItems, it)
			continue
		}
		out.Amount = out.Amount.Add(prices[it.ProductID].Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if len(out.StaleItems) > 0 {
		s.logger.Warn("cart references missing products",
			zap.String("user_id", items[0].UserID),
			zap.Int("stale_items", len(out.StaleItems)),
		)
	}
	return out, nil
}
