package orders

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/internal/cart"
	"github.com/vardaanagro/agrofarm-backend/pkg/db"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/dbtest"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox"
	"github.com/vardaanagro/agrofarm-backend/pkg/pagination"
)

type failingPublisher struct{}

func (failingPublisher) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

type fixture struct {
	conn   *gorm.DB
	client *db.Client
	orders Service
	carts  cart.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	cartRepo := cart.NewRepository(conn)
	carts, err := cart.NewService(cartRepo, client, nil, nil)
	require.NoError(t, err)
	orders, err := NewService(NewRepository(conn), cartRepo, client, outbox.NewService(outbox.NewRepository(conn), nil), nil, nil)
	require.NoError(t, err)
	return &fixture{conn: conn, client: client, orders: orders, carts: carts}
}

func shipping() CreateOrderInput {
	return CreateOrderInput{ShippingInfo: ShippingInfoInput{
		Name:    "Asha Patel",
		Phone:   "9876543210",
		Address: "12 Market Road, Ward 4",
		City:    "Pune",
		State:   "Maharashtra",
		Pincode: "411001",
	}}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
	require.Equal(t, msg, typed.Message())
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestCreateOrderConvertsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := dbtest.MustCreateUser(t, f.conn)
	cat := dbtest.MustCreateCategory(t, f.conn, "Vegetables")
	tomato := dbtest.MustCreateProduct(t, f.conn, cat.ID, dbtest.WithPrice("40.00"), dbtest.WithStock(5))
	rice := dbtest.MustCreateProduct(t, f.conn, cat.ID, dbtest.WithPrice("120.50"), dbtest.WithStock(2))

	_, err := f.carts.AddToCart(ctx, user.ID, cart.AddToCartInput{ProductID: tomato.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, user.ID, cart.AddToCartInput{ProductID: rice.ID, Quantity: 2})
	require.NoError(t, err)

	order, err := f.orders.CreateOrder(ctx, user.ID, shipping())
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.True(t, decimal.RequireFromString("361.00").Equal(order.TotalAmount), "total %s", order.TotalAmount)
	require.Len(t, order.Items, 2)
	require.Equal(t, "Pune", order.ShippingInfo.City)

	require.Equal(t, 2, stockOf(t, f.conn, tomato.ID))
	require.Zero(t, stockOf(t, f.conn, rice.ID))

	view, err := f.carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.True(t, view.TotalPrice.IsZero())

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("aggregate_id = ?", order.ID).Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventOrderCreated, events[0].EventType)
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := dbtest.MustCreateUser(t, f.conn)

	_, err := f.orders.CreateOrder(ctx, user.ID, shipping())
	requireCode(t, err, pkgerrors.CodeBadRequest, "Cart is empty")

	_, err = f.carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(ctx, user.ID, shipping())
	requireCode(t, err, pkgerrors.CodeBadRequest, "Cart is empty")
	require.Zero(t, countRows(t, f.conn, &models.Order{}))
}

func TestCreateOrderRejectsInvalidCartWithIssues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := dbtest.MustCreateUser(t, f.conn)
	cat := dbtest.MustCreateCategory(t, f.conn, "Fruits")
	mango := dbtest.MustCreateProduct(t, f.conn, cat.ID, dbtest.WithStock(4))

	_, err := f.carts.AddToCart(ctx, user.ID, cart.AddToCartInput{ProductID: mango.ID, Quantity: 4})
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", mango.ID).Update("stock", 1).Error)

	_, err = f.orders.CreateOrder(ctx, user.ID, shipping())
	requireCode(t, err, pkgerrors.CodeBadRequest, "Cart validation failed")
	issues, ok := pkgerrors.As(err).Details().([]cart.ValidationIssue)
	require.True(t, ok)
	require.Equal(t, "Only 1 items available, but 4 requested", issues[0].Issue)

	require.Zero(t, countRows(t, f.conn, &models.Order{}))
	require.EqualValues(t, 1, countRows(t, f.conn, &models.CartItem{}))
}

func TestCreateOrderRollsBackWhenEventFails(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	cartRepo := cart.NewRepository(conn)
	carts, err := cart.NewService(cartRepo, client, nil, nil)
	require.NoError(t, err)
	orders, err := NewService(NewRepository(conn), cartRepo, client, failingPublisher{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	user := dbtest.MustCreateUser(t, conn)
	cat := dbtest.MustCreateCategory(t, conn, "Dairy")
	ghee := dbtest.MustCreateProduct(t, conn, cat.ID, dbtest.WithStock(3))
	_, err = carts.AddToCart(ctx, user.ID, cart.AddToCartInput{ProductID: ghee.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = orders.CreateOrder(ctx, user.ID, shipping())
	require.Error(t, err)

	require.Zero(t, countRows(t, conn, &models.Order{}))
	require.Zero(t, countRows(t, conn, &models.OrderItem{}))
	require.Equal(t, 3, stockOf(t, conn, ghee.ID))
	require.EqualValues(t, 1, countRows(t, conn, &models.CartItem{}))
}

func TestDecrementStockIsConditional(t *testing.T) {
	_, conn := dbtest.OpenClient(t)
	repo := NewRepository(conn)
	cat := dbtest.MustCreateCategory(t, conn, "Oils")
	p := dbtest.MustCreateProduct(t, conn, cat.ID, dbtest.WithStock(2))

	ok, err := repo.DecrementStock(context.Background(), p.ID, 3)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 2, stockOf(t, conn, p.ID))

	ok, err = repo.DecrementStock(context.Background(), p.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, stockOf(t, conn, p.ID))
}

func TestUpdateOrderStatusStampsDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := dbtest.MustCreateUser(t, f.conn)
	user := dbtest.MustCreateUser(t, f.conn)
	cat := dbtest.MustCreateCategory(t, f.conn, "Honey")
	p := dbtest.MustCreateProduct(t, f.conn, cat.ID)
	_, err := f.carts.AddToCart(ctx, user.ID, cart.AddToCartInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	order, err := f.orders.CreateOrder(ctx, user.ID, shipping())
	require.NoError(t, err)

	tracking := "AWB123456"
	shipped, err := f.orders.UpdateOrderStatus(ctx, admin.ID, order.ID, UpdateOrderStatusInput{
		Status:     enums.OrderStatusShipped,
		TrackingID: &tracking,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, shipped.Status)
	require.Equal(t, tracking, *shipped.TrackingID)
	require.Nil(t, shipped.DeliveredAt)

	before := time.Now().Add(-time.Second)
	delivered, err := f.orders.UpdateOrderStatus(ctx, admin.ID, order.ID, UpdateOrderStatusInput{Status: enums.OrderStatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)
	require.True(t, delivered.DeliveredAt.After(before))
	require.Equal(t, tracking, *delivered.TrackingID)

	cancelled, err := f.orders.UpdateOrderStatus(ctx, admin.ID, order.ID, UpdateOrderStatusInput{Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, 9, stockOf(t, f.conn, p.ID))

	var changes int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderStatusChanged).
		Count(&changes).Error)
	require.EqualValues(t, 3, changes)

	_, err = f.orders.UpdateOrderStatus(ctx, admin.ID, uuid.New(), UpdateOrderStatusInput{Status: enums.OrderStatusPaid})
	requireCode(t, err, pkgerrors.CodeNotFound, "Order not found")

	_, err = f.orders.UpdateOrderStatus(ctx, admin.ID, order.ID, UpdateOrderStatusInput{Status: "LOST"})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListAndGetOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.MustCreateUser(t, f.conn)
	bob := dbtest.MustCreateUser(t, f.conn)
	cat := dbtest.MustCreateCategory(t, f.conn, "Grains")
	p := dbtest.MustCreateProduct(t, f.conn, cat.ID, dbtest.WithStock(50))

	place := func(userID uuid.UUID) *OrderDTO {
		_, err := f.carts.AddToCart(ctx, userID, cart.AddToCartInput{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)
		order, err := f.orders.CreateOrder(ctx, userID, shipping())
		require.NoError(t, err)
		return order
	}
	var aliceOrders []*OrderDTO
	for i := 0; i < 3; i++ {
		aliceOrders = append(aliceOrders, place(alice.ID))
	}
	bobOrder := place(bob.ID)

	mine, err := f.orders.ListUserOrders(ctx, alice.ID, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, mine.Total)
	require.Len(t, mine.Orders, 2)
	for _, o := range mine.Orders {
		require.Equal(t, alice.ID, o.UserID)
	}

	all, err := f.orders.ListAllOrders(ctx, pagination.Params{})
	require.NoError(t, err)
	require.EqualValues(t, 4, all.Total)
	require.NotNil(t, all.Orders[0].User)
	require.NotEmpty(t, all.Orders[0].User.Email)

	got, err := f.orders.GetOrder(ctx, aliceOrders[0].ID, &alice.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)

	_, err = f.orders.GetOrder(ctx, bobOrder.ID, &alice.ID)
	requireCode(t, err, pkgerrors.CodeNotFound, "Order not found")

	asAdmin, err := f.orders.GetOrder(ctx, bobOrder.ID, nil)
	require.NoError(t, err)
	require.Equal(t, bob.ID, asAdmin.UserID)
}

func TestUpdateOrderStatusLogsTransition(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	cartRepo := cart.NewRepository(conn)
	carts, err := cart.NewService(cartRepo, client, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), cartRepo, client, outbox.NewService(outbox.NewRepository(conn), nil), nil, logg)
	require.NoError(t, err)

	ctx := context.Background()
	admin := dbtest.MustCreateUser(t, conn)
	user := dbtest.MustCreateUser(t, conn)
	cat := dbtest.MustCreateCategory(t, conn, "Millets")
	p := dbtest.MustCreateProduct(t, conn, cat.ID)
	_, err = carts.AddToCart(ctx, user.ID, cart.AddToCartInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	order, err := svc.CreateOrder(ctx, user.ID, shipping())
	require.NoError(t, err)

	buf.Reset()
	_, err = svc.UpdateOrderStatus(ctx, admin.ID, order.ID, UpdateOrderStatusInput{Status: enums.OrderStatusProcessing})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"message":"order.status_updated"`)
	require.Contains(t, buf.String(), `"previous_status":"`+string(enums.OrderStatusPending)+`"`)
	require.Contains(t, buf.String(), `"status":"`+string(enums.OrderStatusProcessing)+`"`)
	require.Contains(t, buf.String(), `"order_id":"`+order.ID.String()+`"`)
}
