package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vardaanagro/agrofarm-backend/internal/users"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
)

// ShippingInfoInput is the delivery address captured at checkout.
type ShippingInfoInput struct {
	Name    string `json:"name" validate:"required,min=2"`
	Phone   string `json:"phone" validate:"required,min=10"`
	Address string `json:"address" validate:"required,min=10"`
	City    string `json:"city" validate:"required,min=2"`
	State   string `json:"state" validate:"required,min=2"`
	Pincode string `json:"pincode" validate:"required,min=6"`
}

// CreateOrderInput is the body of POST /api/orders.
type CreateOrderInput struct {
	ShippingInfo ShippingInfoInput `json:"shippingInfo" validate:"required"`
}

// UpdateOrderStatusInput is the admin status change body.
type UpdateOrderStatusInput struct {
	Status     enums.OrderStatus `json:"status" validate:"required,oneof=PENDING PAID PROCESSING SHIPPED DELIVERED CANCELLED REFUNDED"`
	TrackingID *string           `json:"trackingId,omitempty"`
}

// OrderDTO is the order payload returned to customers and admins.
type OrderDTO struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"userId"`
	User         *users.Summary      `json:"user,omitempty"`
	TotalAmount  decimal.Decimal     `json:"totalAmount"`
	Status       enums.OrderStatus   `json:"status"`
	ShippingInfo models.ShippingInfo `json:"shippingInfo"`
	TrackingID   *string             `json:"trackingId,omitempty"`
	DeliveredAt  *time.Time          `json:"deliveredAt,omitempty"`
	Items        []OrderItemDTO      `json:"items"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// OrderItemDTO is one purchased line with its price at checkout.
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *OrderProduct   `json:"product,omitempty"`
}

// OrderProduct is the product reference shown on an order line. It survives
// product deactivation.
type OrderProduct struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Images []string  `json:"images"`
}

// OrderList is a page of orders with the total row count.
type OrderList struct {
	Orders []OrderDTO
	Total  int64
}

func (s ShippingInfoInput) toModel() models.ShippingInfo {
	return models.ShippingInfo{
		Name:    s.Name,
		Phone:   s.Phone,
		Address: s.Address,
		City:    s.City,
		State:   s.State,
		Pincode: s.Pincode,
	}
}

// NewOrderDTO maps the persisted order and any preloaded associations.
func NewOrderDTO(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:           o.ID,
		UserID:       o.UserID,
		TotalAmount:  o.TotalAmount,
		Status:       o.Status,
		ShippingInfo: o.ShippingInfo,
		TrackingID:   o.TrackingID,
		DeliveredAt:  o.DeliveredAt,
		Items:        make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	if o.User != nil {
		dto.User = users.SummaryFromModel(o.User, true)
	}
	for _, item := range o.Items {
		line := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if item.Product != nil {
			line.Product = &OrderProduct{
				ID:     item.Product.ID,
				Name:   item.Product.Name,
				Images: append([]string{}, item.Product.Images...),
			}
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

func newOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i]))
	}
	return out
}
