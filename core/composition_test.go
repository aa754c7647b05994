package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elpredio/pos-engine/core"
)

func testProduct(id, name, price string, stock int) core.Product {
	return core.Product{
		ID:       id,
		Name:     name,
		Price:    money(price),
		Stock:    stock,
		Category: core.CategoryDrinks,
		Active:   true,
	}
}

// =============================================================================
// LINE ITEM TESTS
// =============================================================================

func TestComposition_AddItem_SnapshotsPrice(t *testing.T) {
	// GIVEN: a product priced 2.50
	// WHEN: adding 3 units and then changing the catalog price
	// THEN: the line item keeps the price seen at add time

	product := testProduct("p1", "Agua", "2.50", 10)
	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	require.NoError(t, comp.AddItem(product, 3))

	product.Price = money("99.00")

	require.Len(t, comp.Items, 1)
	assert.True(t, money("2.50").Equal(comp.Items[0].UnitPrice))
	assert.True(t, money("7.50").Equal(comp.Items[0].Subtotal))
	assert.Equal(t, "Agua", comp.Items[0].Name)
}

func TestComposition_AddItem_RejectsNonPositiveQuantity(t *testing.T) {
	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	product := testProduct("p1", "Agua", "2.50", 10)

	assert.ErrorIs(t, comp.AddItem(product, 0), core.ErrInvalidAmount)
	assert.ErrorIs(t, comp.AddItem(product, -1), core.ErrInvalidAmount)
	assert.Empty(t, comp.Items)
}

func TestComposition_AddItem_RejectsInsufficientStock(t *testing.T) {
	comp := &core.SaleComposition{Kind: core.SaleKiosk}
	product := testProduct("p1", "Alfajor", "1.00", 2)

	err := comp.AddItem(product, 3)
	require.ErrorIs(t, err, core.ErrInsufficientStock)

	var stockErr *core.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, "Alfajor", stockErr.Name)
}

func TestComposition_RemoveItem(t *testing.T) {
	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	require.NoError(t, comp.AddItem(testProduct("p1", "Agua", "2.50", 10), 1))
	require.NoError(t, comp.AddItem(testProduct("p2", "Gaseosa", "3.00", 10), 1))

	comp.RemoveItem(0)

	require.Len(t, comp.Items, 1)
	assert.Equal(t, "p2", comp.Items[0].ProductID)

	// Out-of-range indexes are ignored.
	comp.RemoveItem(5)
	comp.RemoveItem(-1)
	assert.Len(t, comp.Items, 1)
}

// =============================================================================
// TOTAL TESTS
// =============================================================================

func TestComposition_Total_ItemsOnly(t *testing.T) {
	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	require.NoError(t, comp.AddItem(testProduct("p1", "Agua", "2.50", 10), 2))
	require.NoError(t, comp.AddItem(testProduct("p2", "Gaseosa", "3.00", 10), 1))

	assert.True(t, money("8.00").Equal(comp.Total()))
}

func TestComposition_Total_ReservationOnly(t *testing.T) {
	comp := &core.SaleComposition{
		Kind:        core.SaleReservation,
		Reservation: &core.Reservation{ID: "r1", Price: money("120.00")},
	}

	assert.True(t, money("120.00").Equal(comp.Total()))
}

func TestComposition_Total_ReservationPlusItemsIsAdditive(t *testing.T) {
	// A reservation sale with drinks attached charges for both.
	comp := &core.SaleComposition{
		Kind:        core.SaleReservation,
		Reservation: &core.Reservation{ID: "r1", Price: money("120.00")},
	}
	require.NoError(t, comp.AddItem(testProduct("p1", "Agua", "2.50", 10), 2))

	assert.True(t, money("125.00").Equal(comp.Total()))
}

func TestComposition_Total_EmptyIsZero(t *testing.T) {
	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	assert.True(t, comp.Total().IsZero())
	assert.True(t, comp.IsEmpty())
}

// =============================================================================
// AGGREGATION TESTS
// =============================================================================

func TestComposition_QuantityByProduct_MergesDuplicateLines(t *testing.T) {
	// The same product added twice as separate lines decrements stock once,
	// with the summed quantity.
	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	product := testProduct("p1", "Agua", "2.50", 10)
	require.NoError(t, comp.AddItem(product, 2))
	require.NoError(t, comp.AddItem(product, 3))

	byProduct := comp.QuantityByProduct()
	assert.Equal(t, map[string]int{"p1": 5}, byProduct)
}
