package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
)

// OrderLine is one purchased product inside an order event.
type OrderLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderCreatedEvent is emitted once a cart has been converted into an order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"orderId"`
	UserID      uuid.UUID       `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []OrderLine     `json:"items"`
}

// OrderStatusChangedEvent records an admin status transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"orderId"`
	UserID         uuid.UUID         `json:"userId"`
	PreviousStatus enums.OrderStatus `json:"previousStatus"`
	Status         enums.OrderStatus `json:"status"`
	TrackingID     *string           `json:"trackingId,omitempty"`
	DeliveredAt    *time.Time        `json:"deliveredAt,omitempty"`
}

// ReviewEvent covers review creation, edits and soft deletes.
type ReviewEvent struct {
	ReviewID      uuid.UUID       `json:"reviewId"`
	ProductID     uuid.UUID       `json:"productId"`
	UserID        uuid.UUID       `json:"userId"`
	Rating        int             `json:"rating"`
	ProductRating decimal.Decimal `json:"productRating"`
	ReviewCount   int             `json:"reviewCount"`
}

// ProductDeactivatedEvent is emitted when an admin soft-deletes a product.
type ProductDeactivatedEvent struct {
	ProductID     uuid.UUID `json:"productId"`
	SKU           string    `json:"sku"`
	AffectedCarts int       `json:"affectedCarts"`
}
