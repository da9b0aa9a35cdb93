package services_test

import (
	"context"
	"testing"

	"orderdesk/internal/apperror"
	"orderdesk/internal/database"
	"orderdesk/internal/models"
	"orderdesk/internal/policy"
	"orderdesk/internal/repositories"
	"orderdesk/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCategoryService_Lifecycle(t *testing.T) {
	db := database.OpenTest(t)
	service := services.NewCategoryService(repositories.NewGORMCategoryRepository(db), policy.New(), zap.NewNop())
	ctx := context.Background()

	created, err := service.CreateCategory(ctx, admin, "  Tools ")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Tools", created.Name)

	_, err = service.CreateCategory(ctx, admin, "Tools")
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)

	_, err = service.CreateCategory(ctx, admin, "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = service.CreateCategory(ctx, customer, "Garden")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	renamed, err := service.UpdateCategory(ctx, admin, created.ID, "Hardware")
	require.NoError(t, err)
	assert.Equal(t, "Hardware", renamed.Name)

	list, err := service.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Hardware", list[0].Name)

	require.NoError(t, service.DeleteCategory(ctx, admin, created.ID))
	_, err = service.GetCategoryByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCategoryService_DeleteCategoryInUse(t *testing.T) {
	db := database.OpenTest(t)
	categories := repositories.NewGORMCategoryRepository(db)
	products := repositories.NewGORMProductRepository(db)
	service := services.NewCategoryService(categories, policy.New(), zap.NewNop())
	ctx := context.Background()

	category, err := service.CreateCategory(ctx, admin, "Tools")
	require.NoError(t, err)
	product := &models.Product{Name: "Hammer", Price: models.MustMoney("5"), Quantity: 1, CategoryID: category.ID}
	require.NoError(t, products.Create(ctx, product))

	err = service.DeleteCategory(ctx, admin, category.ID)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCategoryInUse, appErr.Code)

	// A deleted product still holds on to its category.
	require.NoError(t, products.Delete(ctx, product.ID))
	err = service.DeleteCategory(ctx, admin, category.ID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	assert.ErrorIs(t, service.DeleteCategory(ctx, admin, "missing"), apperror.ErrNotFound)
}
