package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/internal/cart"
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
	orderNotFoundMessage     = "Order not found"
	emptyCartMessage         = "Cart is empty"
	cartInvalidMessage       = "Cart validation failed"
	insufficientStockMessage = "Insufficient stock"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines checkout and order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	UpdateOrderStatus(ctx context.Context, actorID, orderID uuid.UUID, input UpdateOrderStatusInput) (*OrderDTO, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAllOrders(ctx context.Context, params pagination.Params) (*OrderList, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo    Repository
	carts   cart.CartRepository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.ShopMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the order service.
func NewService(repo Repository, carts cart.CartRepository, tx txRunner, publisher outboxPublisher, shopMetrics *metrics.ShopMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		carts:   carts,
		tx:      tx,
		outbox:  publisher,
		metrics: shopMetrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// CreateOrder converts the user's cart into an order. Validation, order
// insert, stock reservation, cart clear and the order_created event commit
// together or not at all.
func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		repo := s.repo.WithTx(tx)

		userCart, err := cartRepo.FindByUser(ctx, userID)
		if db.IsNotFound(err) {
			s.metrics.CheckoutBlocked("empty")
			return pkgerrors.New(pkgerrors.CodeBadRequest, emptyCartMessage)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		items, err := cartRepo.ListItems(ctx, userCart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
		}
		if !hasActiveItem(items) {
			s.metrics.CheckoutBlocked("empty")
			return pkgerrors.New(pkgerrors.CodeBadRequest, emptyCartMessage)
		}
		if issues := cart.ValidateItems(items); len(issues) > 0 {
			s.metrics.CheckoutBlocked("invalid")
			return pkgerrors.New(pkgerrors.CodeBadRequest, cartInvalidMessage).WithDetails(issues)
		}

		order := &models.Order{
			UserID:       userID,
			Status:       enums.OrderStatusPending,
			ShippingInfo: input.ShippingInfo.toModel(),
			TotalAmount:  decimal.Zero,
		}
		lines := make([]payloads.OrderLine, 0, len(items))
		for _, item := range items {
			order.Items = append(order.Items, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
			order.TotalAmount = order.TotalAmount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			lines = append(lines, payloads.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
		}

		for _, item := range items {
			ok, err := repo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
			}
			if !ok {
				s.metrics.CheckoutBlocked("stock")
				return pkgerrors.New(pkgerrors.CodeBadRequest, insufficientStockMessage).
					WithDetails(map[string]string{"productId": item.ProductID.String()})
			}
		}

		if err := cart.ClearItems(ctx, cartRepo, userCart.ID); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				UserID:      userID,
				TotalAmount: order.TotalAmount,
				Items:       lines,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order_created")
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCreated()
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"user_id":  userID.String(),
		})
		s.logg.Info(logCtx, "order.created")
	}
	return s.GetOrder(ctx, orderID, &userID)
}

// UpdateOrderStatus sets any known status. Transitions are not guarded and
// stock is not restored on CANCELLED or REFUNDED.
func (s *service) UpdateOrderStatus(ctx context.Context, actorID, orderID uuid.UUID, input UpdateOrderStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid order status")
	}

	var previous enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return db.Classify(err, orderNotFoundMessage, "", "load order")
		}
		previous = order.Status

		updates := map[string]any{"status": input.Status}
		event := payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			UserID:         order.UserID,
			PreviousStatus: order.Status,
			Status:         input.Status,
			TrackingID:     order.TrackingID,
		}
		if input.TrackingID != nil && *input.TrackingID != "" {
			updates["tracking_id"] = *input.TrackingID
			event.TrackingID = input.TrackingID
		}
		if input.Status == enums.OrderStatusDelivered {
			deliveredAt := s.now().UTC()
			updates["delivered_at"] = deliveredAt
			event.DeliveredAt = &deliveredAt
		}
		if err := repo.Update(ctx, orderID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.UserRoleAdmin},
			Data:          event,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order_status_changed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":        orderID.String(),
			"actor_id":        actorID.String(),
			"previous_status": previous,
			"status":          input.Status,
		})
		s.logg.Info(logCtx, "order.status_updated")
	}
	return s.GetOrder(ctx, orderID, nil)
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	rows, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list user orders")
	}
	return &OrderList{Orders: newOrderDTOs(rows), Total: total}, nil
}

func (s *service) ListAllOrders(ctx context.Context, params pagination.Params) (*OrderList, error) {
	rows, total, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return &OrderList{Orders: newOrderDTOs(rows), Total: total}, nil
}

// GetOrder scopes the lookup to userID when provided; admins pass nil.
func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*OrderDTO, error) {
	var (
		order *models.Order
		err   error
	)
	if userID != nil {
		order, err = s.repo.FindForUser(ctx, orderID, *userID)
	} else {
		order, err = s.repo.FindByID(ctx, orderID)
	}
	if err != nil {
		return nil, db.Classify(err, orderNotFoundMessage, "", "load order")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func hasActiveItem(items []models.CartItem) bool {
	for _, item := range items {
		if item.Product != nil && item.Product.IsActive {
			return true
		}
	}
	return false
}
