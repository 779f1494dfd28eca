package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/pkg/db"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/metrics"
)

const (
	cartNotFoundMessage      = "Cart not found"
	itemNotFoundMessage      = "Item not found in cart"
	productNotFoundMessage   = "Product not found"
	insufficientStockMessage = "Insufficient stock"

	issueUnavailable  = "Product is no longer available"
	issuePriceChanged = "Product price has changed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the per-user shopping cart.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddToCart(ctx context.Context, userID uuid.UUID, input AddToCartInput) (*CartItemDTO, error)
	UpdateCartItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItemDTO, error)
	RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	ValidateCart(ctx context.Context, userID uuid.UUID) (*ValidationResult, error)
	RecalculateForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error)
}

type service struct {
	repo    CartRepository
	tx      txRunner
	metrics *metrics.ShopMetrics
	logg    *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, shopMetrics *metrics.ShopMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: shopMetrics, logg: logg}, nil
}

// GetCart returns the user's cart, creating an empty one on first access.
// Items whose product has been deactivated are hidden and excluded from the
// returned total. The stored total_price is not repaired here: it is only
// rewritten by cart mutations and RecalculateForProduct, so a product
// deactivated outside DeleteProduct leaves it stale until the next mutation.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.EnsureForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	return newCartDTO(cart, items), nil
}

// AddToCart adds quantity units of a product, merging with an existing line.
// The line's price snapshot is refreshed to the live product price.
func (s *service) AddToCart(ctx context.Context, userID uuid.UUID, input AddToCartInput) (*CartItemDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
	}

	var result CartItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindActiveProduct(ctx, input.ProductID)
		if err != nil {
			return db.Classify(err, productNotFoundMessage, "", "load product")
		}
		if product.Stock < input.Quantity {
			return pkgerrors.New(pkgerrors.CodeBadRequest, insufficientStockMessage)
		}

		cart, err := repo.EnsureForUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}

		existing, err := repo.FindItem(ctx, cart.ID, product.ID)
		switch {
		case err == nil:
			quantity := existing.Quantity + input.Quantity
			if product.Stock < quantity {
				return pkgerrors.New(pkgerrors.CodeBadRequest, insufficientStockMessage)
			}
			if err := repo.UpdateItem(ctx, existing.ID, map[string]any{
				"quantity": quantity,
				"price":    product.Price,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
			}
		case db.IsNotFound(err):
			item := &models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  input.Quantity,
				Price:     product.Price,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return db.Classify(err, "", "Cart was modified concurrently, please retry", "insert cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		if err := recomputeTotal(ctx, repo, cart.ID); err != nil {
			return err
		}
		stored, err := repo.FindItem(ctx, cart.ID, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart item")
		}
		result = newCartItemDTO(*stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CartMutation("add")
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":    userID.String(),
			"product_id": input.ProductID.String(),
			"added":      input.Quantity,
			"quantity":   result.Quantity,
		})
		s.logg.Info(logCtx, "cart.item_added")
	}
	return &result, nil
}

// UpdateCartItem sets the quantity of an existing line. The price snapshot is
// left untouched.
func (s *service) UpdateCartItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItemDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
	}

	var result CartItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, item, err := loadItem(ctx, repo, userID, productID)
		if err != nil {
			return err
		}
		if item.Product == nil || item.Product.Stock < quantity {
			return pkgerrors.New(pkgerrors.CodeBadRequest, insufficientStockMessage)
		}
		if err := repo.UpdateItem(ctx, item.ID, map[string]any{"quantity": quantity}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		if err := recomputeTotal(ctx, repo, cart.ID); err != nil {
			return err
		}
		item.Quantity = quantity
		result = newCartItemDTO(*item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CartMutation("update")
	return &result, nil
}

func (s *service) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, item, err := loadItem(ctx, repo, userID, productID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
		}
		return recomputeTotal(ctx, repo, cart.ID)
	})
	if err != nil {
		return err
	}
	s.metrics.CartMutation("remove")
	return nil
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, userID)
		if err != nil {
			return db.Classify(err, cartNotFoundMessage, "", "load cart")
		}
		return ClearItems(ctx, repo, cart.ID)
	})
	if err != nil {
		return err
	}
	s.metrics.CartMutation("clear")
	return nil
}

// ValidateCart checks every stored line against live product state. It never
// writes.
func (s *service) ValidateCart(ctx context.Context, userID uuid.UUID) (*ValidationResult, error) {
	cart, err := s.repo.EnsureForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	issues := ValidateItems(items)
	return &ValidationResult{
		IsValid: len(issues) == 0,
		Issues:  issues,
		Cart:    newCartDTO(cart, items),
	}, nil
}

// RecalculateForProduct refreshes the cached total of every cart holding the
// product and reports how many carts were touched. It runs inside tx.
func (s *service) RecalculateForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error) {
	repo := s.repo.WithTx(tx)
	cartIDs, err := repo.CartIDsForProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	for _, cartID := range cartIDs {
		if err := recomputeTotal(ctx, repo, cartID); err != nil {
			return 0, err
		}
	}
	if s.logg != nil && len(cartIDs) > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"carts":      len(cartIDs),
		})
		s.logg.Debug(logCtx, "cart.totals_recalculated")
	}
	return len(cartIDs), nil
}

// ValidateItems reports at most one issue per line, in the order: inactive
// product, insufficient stock, price drift.
func ValidateItems(items []models.CartItem) []ValidationIssue {
	issues := make([]ValidationIssue, 0)
	for _, item := range items {
		product := item.Product
		switch {
		case product == nil || !product.IsActive:
			issues = append(issues, ValidationIssue{ProductID: item.ProductID, Issue: issueUnavailable})
		case product.Stock < item.Quantity:
			issues = append(issues, ValidationIssue{
				ProductID: item.ProductID,
				Issue:     fmt.Sprintf("Only %d items available, but %d requested", product.Stock, item.Quantity),
			})
		case !product.Price.Equal(item.Price):
			issues = append(issues, ValidationIssue{ProductID: item.ProductID, Issue: issuePriceChanged})
		}
	}
	return issues
}

// ClearItems removes every line of the cart and zeroes its cached total.
func ClearItems(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	if err := repo.DeleteItems(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart items")
	}
	if err := repo.SetTotal(ctx, cartID, decimal.Zero); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset cart total")
	}
	return nil
}

func loadItem(ctx context.Context, repo CartRepository, userID, productID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, nil, db.Classify(err, cartNotFoundMessage, "", "load cart")
	}
	item, err := repo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, nil, db.Classify(err, itemNotFoundMessage, "", "load cart item")
	}
	return cart, item, nil
}

func recomputeTotal(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	total, err := repo.ActiveTotal(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum cart total")
	}
	if err := repo.SetTotal(ctx, cartID, total); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store cart total")
	}
	return nil
}
