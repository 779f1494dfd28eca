package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/pagination"
)

// Repository wires together all product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func withCategorySummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func (r *Repository) activeProducts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("products.is_active = ?", true)
}

// List returns a filtered page of active products and the total match count.
func (r *Repository) List(ctx context.Context, filters ProductListFilters, params pagination.Params) ([]models.Product, int64, error) {
	query := r.activeProducts(ctx)
	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}
	if filters.MinPrice != nil {
		query = query.Where("products.price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filters.MaxPrice)
	}
	if filters.InStock {
		query = query.Where("products.stock > 0")
	}
	if filters.IsOrganic != nil {
		query = query.Where("products.is_organic = ?", *filters.IsOrganic)
	}
	if filters.MinRating != nil {
		query = query.Where("products.rating >= ?", *filters.MinRating)
	}
	if strings.TrimSpace(filters.Search) != "" {
		pattern := likePattern(filters.Search)
		query = query.Where(
			`(LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\')`,
			pattern, pattern,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params = params.Normalize()
	var rows []models.Product
	if err := query.
		Preload("Category", withCategorySummary).
		Order(filters.orderClause()).
		Order("products.id ASC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindActiveByID loads an active product with its category summary.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.activeProducts(ctx).
		Preload("Category", withCategorySummary).
		Where("products.id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LatestReviews returns the newest active reviews for a product with reviewer details.
func (r *Repository) LatestReviews(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Featured returns in-stock products ordered by rating then review count.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.activeProducts(ctx).
		Preload("Category", withCategorySummary).
		Where("products.stock > 0").
		Order("products.rating DESC").
		Order("products.review_count DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Related returns in-stock products of the category, excluding productID.
func (r *Repository) Related(ctx context.Context, productID, categoryID uuid.UUID, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.activeProducts(ctx).
		Preload("Category", withCategorySummary).
		Where("products.category_id = ? AND products.id <> ? AND products.stock > 0", categoryID, productID).
		Order("products.rating DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Search matches the term against product name, description and category name.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]models.Product, error) {
	pattern := likePattern(term)
	var rows []models.Product
	err := r.activeProducts(ctx).
		Joins("JOIN categories ON categories.id = products.category_id").
		Preload("Category", withCategorySummary).
		Where(
			`(LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\' OR LOWER(categories.name) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		).
		Order("products.name ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// SKUExists reports whether any product, active or not, already uses sku.
func (r *Repository) SKUExists(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("sku = ?", sku).
		Count(&count).Error
	return count > 0, err
}

// CategoryIsActive reports whether the category exists and is active.
func (r *Repository) CategoryIsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

// Update writes the listed columns from product.
func (r *Repository) Update(ctx context.Context, product *models.Product, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(product).
		Select(columns).
		Omit(clause.Associations).
		Updates(product).Error
}

// Deactivate soft-deletes an active product and reports whether a row changed.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

// AddStock increases stock on an active product.
func (r *Repository) AddStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("stock", gorm.Expr("stock + ?", quantity))
	return res.RowsAffected > 0, res.Error
}

// SubtractStock decrements stock only when enough remains. It reports false
// when the product is missing, inactive, or short.
func (r *Repository) SubtractStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_active = ? AND stock >= ?", id, true, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	return res.RowsAffected > 0, res.Error
}
