package reviews

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/pkg/db/dbtest"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox"
	"github.com/vardaanagro/agrofarm-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(NewRepository(conn), client, outbox.NewService(outbox.NewRepository(conn), nil), nil, nil)
	require.NoError(t, err)
	return svc, conn
}

func placeOrder(t *testing.T, conn *gorm.DB, userID, productID uuid.UUID, status enums.OrderStatus) {
	t.Helper()
	order := &models.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("100.00"),
		Status:      status,
		ShippingInfo: models.ShippingInfo{
			Name: "Ravi", Phone: "9876543210", Address: "4 Orchard Lane, Sector 9",
			City: "Nashik", State: "Maharashtra", Pincode: "422001",
		},
		Items: []models.OrderItem{{ProductID: productID, Quantity: 1, Price: decimal.RequireFromString("100.00")}},
	}
	require.NoError(t, conn.Create(order).Error)
}

func buyer(t *testing.T, conn *gorm.DB, productID uuid.UUID) *models.User {
	t.Helper()
	user := dbtest.MustCreateUser(t, conn)
	placeOrder(t, conn, user.ID, productID, enums.OrderStatusDelivered)
	return user
}

func productRating(t *testing.T, conn *gorm.DB, id uuid.UUID) (decimal.Decimal, int) {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.Rating, p.ReviewCount
}

func requireCode(t *testing.T, err error, code pkgerrors.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
	require.Equal(t, msg, typed.Message())
}

func TestCreateReviewRequiresDeliveredPurchase(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	cat := dbtest.MustCreateCategory(t, conn, "Fruits")
	p := dbtest.MustCreateProduct(t, conn, cat.ID)
	user := dbtest.MustCreateUser(t, conn)

	_, err := svc.CreateReview(ctx, user.ID, p.ID, CreateReviewInput{Rating: 5})
	requireCode(t, err, pkgerrors.CodeForbidden, "You can only review products you have purchased")

	placeOrder(t, conn, user.ID, p.ID, enums.OrderStatusShipped)
	_, err = svc.CreateReview(ctx, user.ID, p.ID, CreateReviewInput{Rating: 5})
	requireCode(t, err, pkgerrors.CodeForbidden, "You can only review products you have purchased")

	placeOrder(t, conn, user.ID, p.ID, enums.OrderStatusDelivered)
	comment := "Sweet and fresh"
	review, err := svc.CreateReview(ctx, user.ID, p.ID, CreateReviewInput{Rating: 4, Comment: &comment})
	require.NoError(t, err)
	require.Equal(t, 4, review.Rating)
	require.NotNil(t, review.User)
	require.Equal(t, user.Name, review.User.Name)

	rating, count := productRating(t, conn, p.ID)
	require.True(t, decimal.NewFromInt(4).Equal(rating))
	require.Equal(t, 1, count)

	_, err = svc.CreateReview(ctx, user.ID, p.ID, CreateReviewInput{Rating: 3})
	requireCode(t, err, pkgerrors.CodeConflict, "You have already reviewed this product")

	_, err = svc.CreateReview(ctx, user.ID, uuid.New(), CreateReviewInput{Rating: 3})
	requireCode(t, err, pkgerrors.CodeNotFound, "Product not found")
}

func TestRatingIsRoundedMeanOfActiveReviews(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	cat := dbtest.MustCreateCategory(t, conn, "Honey")
	p := dbtest.MustCreateProduct(t, conn, cat.ID)

	var ids []uuid.UUID
	var authors []*models.User
	for _, r := range []int{5, 4, 4} {
		u := buyer(t, conn, p.ID)
		review, err := svc.CreateReview(ctx, u.ID, p.ID, CreateReviewInput{Rating: r})
		require.NoError(t, err)
		ids = append(ids, review.ID)
		authors = append(authors, u)
	}
	rating, count := productRating(t, conn, p.ID)
	require.True(t, decimal.RequireFromString("4.33").Equal(rating), "rating %s", rating)
	require.Equal(t, 3, count)

	two := 2
	_, err := svc.UpdateReview(ctx, authors[0].ID, ids[0], UpdateReviewInput{Rating: &two})
	require.NoError(t, err)
	rating, _ = productRating(t, conn, p.ID)
	require.True(t, decimal.RequireFromString("3.33").Equal(rating), "rating %s", rating)

	for i := range ids {
		require.NoError(t, svc.DeleteReview(ctx, authors[i].ID, ids[i]))
	}
	rating, count = productRating(t, conn, p.ID)
	require.True(t, rating.IsZero())
	require.Zero(t, count)

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("aggregate_type = ?", enums.AggregateReview).Find(&events).Error)
	require.Len(t, events, 7)
}

func TestUpdateAndDeleteAreOwnerScoped(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	cat := dbtest.MustCreateCategory(t, conn, "Grains")
	p := dbtest.MustCreateProduct(t, conn, cat.ID)
	author := buyer(t, conn, p.ID)
	stranger := dbtest.MustCreateUser(t, conn)

	review, err := svc.CreateReview(ctx, author.ID, p.ID, CreateReviewInput{Rating: 3, Images: []string{"https://cdn.example.com/r.jpg"}})
	require.NoError(t, err)

	five := 5
	_, err = svc.UpdateReview(ctx, stranger.ID, review.ID, UpdateReviewInput{Rating: &five})
	requireCode(t, err, pkgerrors.CodeForbidden, "You can only modify your own reviews")
	requireCode(t, svc.DeleteReview(ctx, stranger.ID, review.ID), pkgerrors.CodeForbidden, "You can only modify your own reviews")

	_, err = svc.UpdateReview(ctx, author.ID, uuid.New(), UpdateReviewInput{Rating: &five})
	requireCode(t, err, pkgerrors.CodeNotFound, "Review not found")

	comment := "Better on the second bag"
	updated, err := svc.UpdateReview(ctx, author.ID, review.ID, UpdateReviewInput{Comment: &comment})
	require.NoError(t, err)
	require.Equal(t, 3, updated.Rating)
	require.Equal(t, comment, *updated.Comment)
	require.Equal(t, []string{"https://cdn.example.com/r.jpg"}, updated.Images)

	require.NoError(t, svc.DeleteReview(ctx, author.ID, review.ID))
	requireCode(t, svc.DeleteReview(ctx, author.ID, review.ID), pkgerrors.CodeNotFound, "Review not found")

	_, err = svc.CreateReview(ctx, author.ID, p.ID, CreateReviewInput{Rating: 4})
	requireCode(t, err, pkgerrors.CodeConflict, "You have already reviewed this product")
}

func TestListProductReviewsPaginatesActiveOnly(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	cat := dbtest.MustCreateCategory(t, conn, "Spices")
	p := dbtest.MustCreateProduct(t, conn, cat.ID)

	var first *ReviewDTO
	var firstAuthor *models.User
	for i := 0; i < 4; i++ {
		u := buyer(t, conn, p.ID)
		review, err := svc.CreateReview(ctx, u.ID, p.ID, CreateReviewInput{Rating: 4})
		require.NoError(t, err)
		if first == nil {
			first, firstAuthor = review, u
		}
	}
	require.NoError(t, svc.DeleteReview(ctx, firstAuthor.ID, first.ID))

	page, err := svc.ListProductReviews(ctx, p.ID, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Total)
	require.Len(t, page.Reviews, 2)

	rest, err := svc.ListProductReviews(ctx, p.ID, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rest.Reviews, 1)
	for _, r := range append(page.Reviews, rest.Reviews...) {
		require.NotEqual(t, first.ID, r.ID)
	}
}

func TestCreateReviewLogsEvent(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	buf := &bytes.Buffer{}
	svc, err := NewService(NewRepository(conn), client, outbox.NewService(outbox.NewRepository(conn), nil), nil,
		logger.New(logger.Options{ServiceName: "test", Output: buf}))
	require.NoError(t, err)
	cat := dbtest.MustCreateCategory(t, conn, "Vegetables")
	p := dbtest.MustCreateProduct(t, conn, cat.ID)
	user := buyer(t, conn, p.ID)

	review, err := svc.CreateReview(context.Background(), user.ID, p.ID, CreateReviewInput{Rating: 5})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"message":"review.created"`)
	require.Contains(t, buf.String(), `"review_id":"`+review.ID.String()+`"`)
	require.Contains(t, buf.String(), `"rating":5`)
}
