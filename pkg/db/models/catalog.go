package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	Image       *string   `gorm:"column:image"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Product is a sellable catalog entry. Rating and ReviewCount are derived
// from active reviews and only written by the review service.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name        string           `gorm:"column:name;not null;index"`
	Description string           `gorm:"column:description;not null"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int              `gorm:"column:stock;not null"`
	Images      []string         `gorm:"column:images;type:jsonb;serializer:json;not null"`
	CategoryID  uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index"`
	Category    *Category        `gorm:"foreignKey:CategoryID"`
	SKU         string           `gorm:"column:sku;not null;uniqueIndex"`
	Weight      *decimal.Decimal `gorm:"column:weight;type:numeric(10,3)"`
	IsOrganic   bool             `gorm:"column:is_organic;not null"`
	IsActive    bool             `gorm:"column:is_active;not null;index"`
	Rating      decimal.Decimal  `gorm:"column:rating;type:numeric(3,2);not null"`
	ReviewCount int              `gorm:"column:review_count;not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
