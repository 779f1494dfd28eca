package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/vardaanagro/agrofarm-backend/internal/users"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
)

// ReviewDTO is a product review with its author summary.
type ReviewDTO struct {
	ID        uuid.UUID      `json:"id"`
	ProductID uuid.UUID      `json:"productId"`
	UserID    uuid.UUID      `json:"userId"`
	User      *users.Summary `json:"user,omitempty"`
	Rating    int            `json:"rating"`
	Comment   *string        `json:"comment,omitempty"`
	Images    []string       `json:"images"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ReviewList is a page of reviews with the total count.
type ReviewList struct {
	Reviews []ReviewDTO
	Total   int64
}

// CreateReviewInput is the body of POST /api/reviews/product/{productId}.
type CreateReviewInput struct {
	Rating  int      `json:"rating" validate:"min=1,max=5"`
	Comment *string  `json:"comment,omitempty" validate:"omitempty,max=1000"`
	Images  []string `json:"images,omitempty" validate:"omitempty,dive,url"`
}

// UpdateReviewInput carries optional review changes.
type UpdateReviewInput struct {
	Rating  *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string   `json:"comment,omitempty" validate:"omitempty,max=1000"`
	Images  *[]string `json:"images,omitempty" validate:"omitempty,dive,url"`
}

func newReviewDTO(r *models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Images:    append([]string{}, r.Images...),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.User != nil {
		dto.User = users.SummaryFromModel(r.User, false)
	}
	return dto
}
