package reviews

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	"github.com/vardaanagro/agrofarm-backend/pkg/pagination"
)

// Repository persists reviews and the rating aggregate they drive.
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

// ListActiveForProduct returns a page of active reviews, newest first.
func (r *Repository) ListActiveForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND is_active = ?", productID, true)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	params = params.Normalize()
	var rows []models.Review
	if err := query.
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ExistsForUser reports whether the user ever reviewed the product,
// including soft-deleted reviews.
func (r *Repository) ExistsForUser(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error
	return count > 0, err
}

// HasDeliveredPurchase reports whether the user has a DELIVERED order
// containing the product.
func (r *Repository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.user_id = ? AND orders.status = ?", productID, userID, enums.OrderStatusDelivered).
		Count(&count).Error
	return count > 0, err
}

// ProductIsActive reports whether the product exists and is active.
func (r *Repository) ProductIsActive(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_active = ?", productID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
}

// FindActiveByID loads an active review with its author.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND is_active = ?", id, true).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Update writes the listed columns from review.
func (r *Repository) Update(ctx context.Context, review *models.Review, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(review).
		Select(columns).
		Omit(clause.Associations).
		Updates(review).Error
}

func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

type ratingAggregate struct {
	Count int64
	Total int64
}

// RecomputeProductRating stores round(mean, 2) of the active ratings and
// their count on the product. No active reviews resets both to zero.
func (r *Repository) RecomputeProductRating(ctx context.Context, productID uuid.UUID) (decimal.Decimal, int, error) {
	var agg ratingAggregate
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
		Where("product_id = ? AND is_active = ?", productID, true).
		Scan(&agg).Error; err != nil {
		return decimal.Zero, 0, err
	}
	rating := decimal.Zero
	if agg.Count > 0 {
		rating = decimal.NewFromInt(agg.Total).Div(decimal.NewFromInt(agg.Count)).Round(2)
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"rating":       rating,
			"review_count": int(agg.Count),
		}).Error; err != nil {
		return decimal.Zero, 0, err
	}
	return rating, int(agg.Count), nil
}
