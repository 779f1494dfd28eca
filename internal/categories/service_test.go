package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vardaanagro/agrofarm-backend/pkg/db/dbtest"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
)

func TestListReturnsActiveCategoriesWithCounts(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)

	veg := dbtest.MustCreateCategory(t, conn, "Vegetables")
	fruits := dbtest.MustCreateCategory(t, conn, "Fruits")
	hidden := dbtest.MustCreateCategory(t, conn, "Hidden")
	require.NoError(t, conn.Model(hidden).Update("is_active", false).Error)

	dbtest.MustCreateProduct(t, conn, veg.ID)
	dbtest.MustCreateProduct(t, conn, veg.ID)
	dbtest.MustCreateProduct(t, conn, veg.ID, dbtest.Inactive())

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Fruits", list[0].Name)
	require.Equal(t, fruits.ID, list[0].ID)
	require.Zero(t, list[0].ProductCount)
	require.Equal(t, "Vegetables", list[1].Name)
	require.EqualValues(t, 2, list[1].ProductCount)
}

func TestGetIncludesProductPreview(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)

	grains := dbtest.MustCreateCategory(t, conn, "Grains")
	for i := 0; i < 12; i++ {
		dbtest.MustCreateProduct(t, conn, grains.ID)
	}

	detail, err := svc.Get(context.Background(), grains.ID)
	require.NoError(t, err)
	require.EqualValues(t, 12, detail.ProductCount)
	require.Len(t, detail.Products, 10)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	require.Equal(t, "Category not found", pkgerrors.As(err).Message())
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCategoryInput{Name: " Fertilizers "})
	require.NoError(t, err)
	require.Equal(t, "Fertilizers", created.Name)
	require.True(t, created.IsActive)

	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Fertilizers"})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	require.Equal(t, "Category with this name already exists", pkgerrors.As(err).Message())
}

func TestUpdateAndDelete(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)
	ctx := context.Background()

	seeds := dbtest.MustCreateCategory(t, conn, "Seeds")
	dbtest.MustCreateCategory(t, conn, "Fruits")

	desc := "Open-pollinated heirloom seeds"
	updated, err := svc.Update(ctx, seeds.ID, UpdateCategoryInput{Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	require.Equal(t, desc, *updated.Description)
	require.Equal(t, "Seeds", updated.Name)

	clash := "Fruits"
	_, err = svc.Update(ctx, seeds.ID, UpdateCategoryInput{Name: &clash})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	require.NoError(t, svc.Delete(ctx, seeds.ID))
	_, err = svc.Get(ctx, seeds.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.Delete(ctx, seeds.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.Update(ctx, seeds.ID, UpdateCategoryInput{Description: &desc})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
