package categories

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
)

// CategoryDTO is the public category shape with its active product count.
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Image        *string   `json:"image,omitempty"`
	IsActive     bool      `json:"isActive"`
	ProductCount int64     `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CategoryDetailDTO adds a preview of the category's products.
type CategoryDetailDTO struct {
	CategoryDTO
	Products []ProductPreview `json:"products"`
}

// ProductPreview is the trimmed product card shown on a category page.
type ProductPreview struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images"`
	SKU         string          `json:"sku"`
	IsOrganic   bool            `json:"isOrganic"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
}

// CreateCategoryInput holds the validated payload to create a category.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Image       *string `json:"image,omitempty" validate:"omitempty,url"`
}

// UpdateCategoryInput holds optional mutation values for a category.
type UpdateCategoryInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Image       *string `json:"image,omitempty" validate:"omitempty,url"`
}

func newCategoryDTO(c *models.Category, count int64) CategoryDTO {
	return CategoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Image:        c.Image,
		IsActive:     c.IsActive,
		ProductCount: count,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func newProductPreview(p models.Product) ProductPreview {
	images := append([]string{}, p.Images...)
	return ProductPreview{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		Images:      images,
		SKU:         p.SKU,
		IsOrganic:   p.IsOrganic,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
	}
}
