package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/pkg/db"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/metrics"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox/payloads"
	"github.com/vardaanagro/agrofarm-backend/pkg/pagination"
)

const (
	reviewNotFoundMessage  = "Review not found"
	productNotFoundMessage = "Product not found"
	duplicateReviewMessage = "You have already reviewed this product"
	notPurchasedMessage    = "You can only review products you have purchased"
	notOwnerMessage        = "You can only modify your own reviews"
)

// Service exposes product review operations.
type Service interface {
	ListProductReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error)
	CreateReview(ctx context.Context, userID, productID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	UpdateReview(ctx context.Context, userID, reviewID uuid.UUID, input UpdateReviewInput) (*ReviewDTO, error)
	DeleteReview(ctx context.Context, userID, reviewID uuid.UUID) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	outbox   outbox.Emitter
	metrics  *metrics.ShopMetrics
	logg     *logger.Logger
}

// NewService constructs a review service instance.
func NewService(repo *Repository, dbClient *db.Client, emitter outbox.Emitter, shopMetrics *metrics.ShopMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, dbClient: dbClient, outbox: emitter, metrics: shopMetrics, logg: logg}, nil
}

func (s *service) ListProductReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	rows, total, err := s.repo.ListActiveForProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	out := &ReviewList{Reviews: make([]ReviewDTO, 0, len(rows)), Total: total}
	for i := range rows {
		out.Reviews = append(out.Reviews, newReviewDTO(&rows[i]))
	}
	return out, nil
}

// CreateReview requires a delivered purchase of the product and at most one
// review per user and product.
func (s *service) CreateReview(ctx context.Context, userID, productID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	var reviewID uuid.UUID
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		active, err := repo.ProductIsActive(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if !active {
			return pkgerrors.New(pkgerrors.CodeNotFound, productNotFoundMessage)
		}
		exists, err := repo.ExistsForUser(ctx, productID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, duplicateReviewMessage)
		}
		purchased, err := repo.HasDeliveredPurchase(ctx, userID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check purchase")
		}
		if !purchased {
			return pkgerrors.New(pkgerrors.CodeForbidden, notPurchasedMessage)
		}

		review := &models.Review{
			ProductID: productID,
			UserID:    userID,
			Rating:    input.Rating,
			Comment:   input.Comment,
			Images:    append([]string{}, input.Images...),
			IsActive:  true,
		}
		if err := repo.Create(ctx, review); err != nil {
			return db.Classify(err, "", duplicateReviewMessage, "insert review")
		}
		reviewID = review.ID
		return s.refreshRating(ctx, tx, repo, enums.EventReviewCreated, review)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ReviewCreated()
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"review_id":  reviewID.String(),
			"product_id": productID.String(),
			"user_id":    userID.String(),
			"rating":     input.Rating,
		})
		s.logg.Info(logCtx, "review.created")
	}
	return s.load(ctx, reviewID)
}

func (s *service) UpdateReview(ctx context.Context, userID, reviewID uuid.UUID, input UpdateReviewInput) (*ReviewDTO, error) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := loadOwned(ctx, repo, userID, reviewID)
		if err != nil {
			return err
		}
		review.User = nil

		var columns []string
		if input.Rating != nil {
			if err := validateRating(*input.Rating); err != nil {
				return err
			}
			review.Rating = *input.Rating
			columns = append(columns, "rating")
		}
		if input.Comment != nil {
			review.Comment = input.Comment
			columns = append(columns, "comment")
		}
		if input.Images != nil {
			review.Images = append([]string{}, (*input.Images)...)
			columns = append(columns, "images")
		}
		if err := repo.Update(ctx, review, columns); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review")
		}
		return s.refreshRating(ctx, tx, repo, enums.EventReviewUpdated, review)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, reviewID)
}

// DeleteReview soft-deletes the review and recomputes the product rating.
func (s *service) DeleteReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := loadOwned(ctx, repo, userID, reviewID)
		if err != nil {
			return err
		}
		if err := repo.Deactivate(ctx, review.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
		}
		return s.refreshRating(ctx, tx, repo, enums.EventReviewDeleted, review)
	})
}

func (s *service) refreshRating(ctx context.Context, tx *gorm.DB, repo *Repository, eventType enums.OutboxEventType, review *models.Review) error {
	rating, count, err := repo.RecomputeProductRating(ctx, review.ProductID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recompute product rating")
	}
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateReview,
		AggregateID:   review.ID,
		Actor:         &outbox.ActorRef{UserID: review.UserID},
		Data: payloads.ReviewEvent{
			ReviewID:      review.ID,
			ProductID:     review.ProductID,
			UserID:        review.UserID,
			Rating:        review.Rating,
			ProductRating: rating,
			ReviewCount:   count,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit "+string(eventType))
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id":   review.ProductID.String(),
			"rating":       rating.String(),
			"review_count": count,
		})
		s.logg.Debug(logCtx, "review.rating_recomputed")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	review, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, reviewNotFoundMessage, "", "reload review")
	}
	dto := newReviewDTO(review)
	return &dto, nil
}

func loadOwned(ctx context.Context, repo *Repository, userID, reviewID uuid.UUID) (*models.Review, error) {
	review, err := repo.FindActiveByID(ctx, reviewID)
	if err != nil {
		return nil, db.Classify(err, reviewNotFoundMessage, "", "load review")
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, notOwnerMessage)
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5")
	}
	return nil
}
