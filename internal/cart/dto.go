package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
)

// CartDTO is the customer-facing cart with active items only.
type CartDTO struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	ItemCount  int             `json:"itemCount"`
	Items      []CartItemDTO   `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// CartItemDTO is a line item with its snapshotted unit price.
type CartItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Product   *CartProduct    `json:"product,omitempty"`
}

// CartProduct is the live product state shown next to a line item.
type CartProduct struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Images   []string        `json:"images"`
	Stock    int             `json:"stock"`
	IsActive bool            `json:"isActive"`
}

// ValidationIssue describes why one cart line cannot be checked out as is.
type ValidationIssue struct {
	ProductID uuid.UUID `json:"productId"`
	Issue     string    `json:"issue"`
}

// ValidationResult is the advisory outcome of ValidateCart.
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Issues  []ValidationIssue `json:"issues"`
	Cart    *CartDTO          `json:"cart"`
}

// AddToCartInput is the body of POST /api/cart/add.
type AddToCartInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

// UpdateCartItemInput is the body of PUT /api/cart/item/{productId}.
type UpdateCartItemInput struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

func newCartItemDTO(item models.CartItem) CartItemDTO {
	dto := CartItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Price:     item.Price,
		Subtotal:  item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
	if item.Product != nil {
		dto.Product = &CartProduct{
			ID:       item.Product.ID,
			Name:     item.Product.Name,
			Price:    item.Product.Price,
			Images:   append([]string{}, item.Product.Images...),
			Stock:    item.Product.Stock,
			IsActive: item.Product.IsActive,
		}
	}
	return dto
}

// newCartDTO keeps only items whose product is active and totals them.
func newCartDTO(cart *models.Cart, items []models.CartItem) *CartDTO {
	active := activeItems(items)
	dto := &CartDTO{
		ID:         cart.ID,
		UserID:     cart.UserID,
		TotalPrice: lineTotal(active),
		Items:      make([]CartItemDTO, 0, len(active)),
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
	for _, item := range active {
		dto.Items = append(dto.Items, newCartItemDTO(item))
		dto.ItemCount += item.Quantity
	}
	return dto
}

func activeItems(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.Product != nil && item.Product.IsActive {
			out = append(out, item)
		}
	}
	return out
}
