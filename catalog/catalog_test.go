package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elpredio/pos-engine/catalog"
	"github.com/elpredio/pos-engine/core"
	"github.com/elpredio/pos-engine/store/memory"
)

func money(s string) core.Money {
	return decimal.RequireFromString(s)
}

func TestCreateProduct_Valid(t *testing.T) {
	svc := catalog.NewService(memory.New())
	id, err := svc.CreateProduct(context.Background(), core.Product{
		Name:     "Agua",
		Price:    money("2.50"),
		Stock:    10,
		Category: core.CategoryDrinks,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	p, err := svc.GetProduct(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, p.Active)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := catalog.NewService(memory.New())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, core.Product{Price: money("1"), Stock: 1, Category: core.CategoryDrinks})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.CreateProduct(ctx, core.Product{Name: "Agua", Price: money("0"), Category: core.CategoryDrinks})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.CreateProduct(ctx, core.Product{Name: "Agua", Price: money("1"), Stock: -1, Category: core.CategoryDrinks})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.CreateProduct(ctx, core.Product{Name: "Agua", Price: money("1"), Category: "helados"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestListProducts_ByCategory(t *testing.T) {
	svc := catalog.NewService(memory.New())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, core.Product{Name: "Agua", Price: money("2.50"), Stock: 10, Category: core.CategoryDrinks})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, core.Product{Name: "Alfajor", Price: money("1.00"), Stock: 5, Category: core.CategoryKiosk})
	require.NoError(t, err)

	drinks, err := svc.ListProducts(ctx, core.CategoryDrinks)
	require.NoError(t, err)
	require.Len(t, drinks, 1)
	assert.Equal(t, "Agua", drinks[0].Name)

	all, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListProducts(ctx, "helados")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestCreateCourt_Valid(t *testing.T) {
	svc := catalog.NewService(memory.New())
	id, err := svc.CreateCourt(context.Background(), core.Court{
		Name:       "Cancha 1",
		HourlyRate: money("60"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	courts, err := svc.ListCourts(context.Background())
	require.NoError(t, err)
	require.Len(t, courts, 1)
	assert.True(t, courts[0].Active)
}

func TestCreateCourt_Validation(t *testing.T) {
	svc := catalog.NewService(memory.New())
	ctx := context.Background()

	_, err := svc.CreateCourt(ctx, core.Court{HourlyRate: money("60")})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.CreateCourt(ctx, core.Court{Name: "Cancha 1", HourlyRate: money("-1")})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}
