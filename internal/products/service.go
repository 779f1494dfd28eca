package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/pkg/db"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox/payloads"
)

const (
	notFoundMessage          = "Product not found"
	categoryNotFoundMessage  = "Category not found"
	duplicateSKUMessage      = "Product with this SKU already exists"
	insufficientStockMessage = "Insufficient stock"
)

// Service exposes catalog product operations.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	UpdateStock(ctx context.Context, id uuid.UUID, input UpdateStockInput) (*ProductDTO, error)
	Featured(ctx context.Context, limit int) ([]ProductDTO, error)
	Related(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID, limit int) ([]ProductDTO, error)
	Search(ctx context.Context, query string, limit int) ([]ProductDTO, error)
}

// cartRecalculator refreshes cached cart totals after a product leaves the catalog.
type cartRecalculator interface {
	RecalculateForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error)
}

// service implements the product service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	carts    cartRecalculator
	outbox   outbox.Emitter
	logg     *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, carts cartRecalculator, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart recalculator required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		carts:    carts,
		outbox:   emitter,
		logg:     logg,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	rows, total, err := s.repo.List(ctx, input.Filters, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return &ProductListResult{Products: newProductDTOs(rows), Total: total}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error) {
	product, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, notFoundMessage, "", "load product")
	}
	reviews, err := s.repo.LatestReviews(ctx, id, latestReviewLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product reviews")
	}
	detail := &ProductDetailDTO{
		ProductDTO: NewProductDTO(product),
		Reviews:    make([]ReviewPreview, 0, len(reviews)),
	}
	for _, r := range reviews {
		detail.Reviews = append(detail.Reviews, newReviewPreview(r))
	}
	return detail, nil
}

// CreateProduct checks the SKU and category before inserting.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Stock cannot be negative")
	}
	sku := strings.TrimSpace(input.SKU)

	var createdID uuid.UUID
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		exists, err := txRepo.SKUExists(ctx, sku)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sku")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, duplicateSKUMessage)
		}
		if err := ensureCategory(ctx, txRepo, input.CategoryID); err != nil {
			return err
		}

		isOrganic := true
		if input.IsOrganic != nil {
			isOrganic = *input.IsOrganic
		}
		product := &models.Product{
			Name:        strings.TrimSpace(input.Name),
			Description: strings.TrimSpace(input.Description),
			Price:       input.Price.Round(2),
			Stock:       input.Stock,
			Images:      append([]string{}, input.Images...),
			CategoryID:  input.CategoryID,
			SKU:         sku,
			Weight:      input.Weight,
			IsOrganic:   isOrganic,
			IsActive:    true,
			Rating:      decimal.Zero,
		}
		if err := txRepo.Create(ctx, product); err != nil {
			return db.Classify(err, "", duplicateSKUMessage, "insert product")
		}
		createdID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadDTO(ctx, createdID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindActiveByID(ctx, id)
		if err != nil {
			return db.Classify(err, notFoundMessage, "", "load product")
		}
		product.Category = nil

		var columns []string
		if input.SKU != nil {
			sku := strings.TrimSpace(*input.SKU)
			if sku != product.SKU {
				exists, err := txRepo.SKUExists(ctx, sku)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sku")
				}
				if exists {
					return pkgerrors.New(pkgerrors.CodeConflict, duplicateSKUMessage)
				}
				product.SKU = sku
				columns = append(columns, "sku")
			}
		}
		if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
			if err := ensureCategory(ctx, txRepo, *input.CategoryID); err != nil {
				return err
			}
			product.CategoryID = *input.CategoryID
			columns = append(columns, "category_id")
		}
		if input.Name != nil {
			product.Name = strings.TrimSpace(*input.Name)
			columns = append(columns, "name")
		}
		if input.Description != nil {
			product.Description = strings.TrimSpace(*input.Description)
			columns = append(columns, "description")
		}
		if input.Price != nil {
			if err := validatePrice(*input.Price); err != nil {
				return err
			}
			product.Price = input.Price.Round(2)
			columns = append(columns, "price")
		}
		if input.Stock != nil {
			if *input.Stock < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "Stock cannot be negative")
			}
			product.Stock = *input.Stock
			columns = append(columns, "stock")
		}
		if input.Images != nil {
			product.Images = append([]string{}, (*input.Images)...)
			columns = append(columns, "images")
		}
		if input.Weight != nil {
			product.Weight = input.Weight
			columns = append(columns, "weight")
		}
		if input.IsOrganic != nil {
			product.IsOrganic = *input.IsOrganic
			columns = append(columns, "is_organic")
		}

		if err := txRepo.Update(ctx, product, columns); err != nil {
			return db.Classify(err, "", duplicateSKUMessage, "update product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadDTO(ctx, id)
}

// DeleteProduct soft-deletes the product, refreshes every cart that holds it
// and records a product_deactivated event in the same transaction.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	var affected int
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindActiveByID(ctx, id)
		if err != nil {
			return db.Classify(err, notFoundMessage, "", "load product")
		}
		changed, err := txRepo.Deactivate(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate product")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		affected, err = s.carts.RecalculateForProduct(ctx, tx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate carts")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventProductDeactivated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   id,
			Data: payloads.ProductDeactivatedEvent{
				ProductID:     id,
				SKU:           product.SKU,
				AffectedCarts: affected,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit product_deactivated")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id":     id.String(),
			"affected_carts": affected,
		})
		s.logg.Info(logCtx, "product.deactivated")
	}
	return nil
}

// UpdateStock applies an admin stock adjustment. Subtraction is a single
// conditional update so concurrent checkouts cannot drive stock negative.
func (s *service) UpdateStock(ctx context.Context, id uuid.UUID, input UpdateStockInput) (*ProductDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be a positive integer")
	}

	var (
		ok  bool
		err error
	)
	switch input.Operation {
	case enums.StockOperationAdd:
		ok, err = s.repo.AddStock(ctx, id, input.Quantity)
	case enums.StockOperationSubtract:
		ok, err = s.repo.SubtractStock(ctx, id, input.Quantity)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Operation must be add or subtract")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update stock")
	}
	if !ok {
		if _, findErr := s.repo.FindActiveByID(ctx, id); findErr != nil {
			return nil, db.Classify(findErr, notFoundMessage, "", "load product")
		}
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, insufficientStockMessage)
	}
	return s.loadDTO(ctx, id)
}

func (s *service) Featured(ctx context.Context, limit int) ([]ProductDTO, error) {
	rows, err := s.repo.Featured(ctx, boundedLimit(limit, defaultFeaturedLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured products")
	}
	return newProductDTOs(rows), nil
}

// Related falls back to the product's own category when categoryID is nil.
func (s *service) Related(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID, limit int) ([]ProductDTO, error) {
	var category uuid.UUID
	if categoryID != nil {
		category = *categoryID
	} else {
		product, err := s.repo.FindActiveByID(ctx, productID)
		if err != nil {
			return nil, db.Classify(err, notFoundMessage, "", "load product")
		}
		category = product.CategoryID
	}
	rows, err := s.repo.Related(ctx, productID, category, boundedLimit(limit, defaultRelatedLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list related products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) Search(ctx context.Context, query string, limit int) ([]ProductDTO, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Search query is required")
	}
	rows, err := s.repo.Search(ctx, query, boundedLimit(limit, defaultSearchLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) loadDTO(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, notFoundMessage, "", "reload product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func ensureCategory(ctx context.Context, repo *Repository, id uuid.UUID) error {
	ok, err := repo.CategoryIsActive(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, categoryNotFoundMessage)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Price must be positive")
	}
	return nil
}
