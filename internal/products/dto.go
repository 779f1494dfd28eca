package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vardaanagro/agrofarm-backend/internal/users"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
)

// ProductDTO represents the catalog product payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Stock       int              `json:"stock"`
	Images      []string         `json:"images"`
	CategoryID  uuid.UUID        `json:"categoryId"`
	Category    *CategorySummary `json:"category,omitempty"`
	SKU         string           `json:"sku"`
	Weight      *decimal.Decimal `json:"weight,omitempty"`
	IsOrganic   bool             `json:"isOrganic"`
	IsActive    bool             `json:"isActive"`
	Rating      decimal.Decimal  `json:"rating"`
	ReviewCount int              `json:"reviewCount"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// CategorySummary is the {id, name} pair embedded in product payloads.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductDetailDTO adds the most recent reviews to a product.
type ProductDetailDTO struct {
	ProductDTO
	Reviews []ReviewPreview `json:"reviews"`
}

// ReviewPreview is a review as shown on the product page.
type ReviewPreview struct {
	ID        uuid.UUID     `json:"id"`
	Rating    int           `json:"rating"`
	Comment   *string       `json:"comment,omitempty"`
	Images    []string      `json:"images"`
	User      users.Summary `json:"user"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ProductListResult bundles a page of products with its total count.
type ProductListResult struct {
	Products []ProductDTO
	Total    int64
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string           `json:"name" validate:"required,min=2,max=100"`
	Description string           `json:"description" validate:"required,min=10,max=1000"`
	Price       decimal.Decimal  `json:"price" validate:"gt=0"`
	Stock       int              `json:"stock" validate:"min=0"`
	Images      []string         `json:"images" validate:"required,min=1,dive,url"`
	CategoryID  uuid.UUID        `json:"categoryId" validate:"required"`
	SKU         string           `json:"sku" validate:"required,min=3,max=50"`
	Weight      *decimal.Decimal `json:"weight,omitempty"`
	IsOrganic   *bool            `json:"isOrganic,omitempty"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=10,max=1000"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Images      *[]string        `json:"images,omitempty" validate:"omitempty,min=1,dive,url"`
	CategoryID  *uuid.UUID       `json:"categoryId,omitempty"`
	SKU         *string          `json:"sku,omitempty" validate:"omitempty,min=3,max=50"`
	Weight      *decimal.Decimal `json:"weight,omitempty"`
	IsOrganic   *bool            `json:"isOrganic,omitempty"`
}

// UpdateStockInput is the admin stock adjustment body.
type UpdateStockInput struct {
	Quantity  int                  `json:"quantity" validate:"min=1"`
	Operation enums.StockOperation `json:"operation" validate:"required,oneof=add subtract"`
}

// NewProductDTO builds a DTO from the persisted model. The category summary
// is included when the association was preloaded.
func NewProductDTO(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Images:      append([]string{}, p.Images...),
		CategoryID:  p.CategoryID,
		SKU:         p.SKU,
		Weight:      p.Weight,
		IsOrganic:   p.IsOrganic,
		IsActive:    p.IsActive,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategorySummary{ID: p.Category.ID, Name: p.Category.Name}
	}
	return dto
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i]))
	}
	return out
}

func newReviewPreview(r models.Review) ReviewPreview {
	preview := ReviewPreview{
		ID:        r.ID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Images:    append([]string{}, r.Images...),
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		preview.User = *users.SummaryFromModel(r.User, false)
	} else {
		preview.User = users.Summary{ID: r.UserID}
	}
	return preview
}
