package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elpredio/pos-engine/core"
	"github.com/elpredio/pos-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func money(s string) core.Money {
	return decimal.RequireFromString(s)
}

func seedCourt(t *testing.T, store *sqlite.Store) string {
	t.Helper()
	id, err := store.CreateCourt(context.Background(), core.Court{
		Name: "Cancha 1", HourlyRate: money("60"), Active: true,
	})
	require.NoError(t, err)
	return id
}

func seedSale(t *testing.T, store *sqlite.Store, reservationID string) string {
	t.Helper()
	id, err := store.CreateSale(context.Background(), core.Sale{
		Date:          "2026-08-28",
		Total:         money("100.00"),
		Method:        core.MethodCash,
		OperatorID:    "op-1",
		Kind:          core.SaleReservation,
		ReservationID: reservationID,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// SALE ROUND TRIP TESTS
// =============================================================================

func TestSale_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := seedSale(t, store, "")
	sale, err := store.GetSale(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-28", sale.Date)
	assert.True(t, money("100.00").Equal(sale.Total))
	assert.Equal(t, core.MethodCash, sale.Method)
	assert.Empty(t, sale.ReservationID)
}

func TestSale_ListByDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSale(t, store, "")

	todays, err := store.ListSales(ctx, core.SaleFilter{Date: "2026-08-28"})
	require.NoError(t, err)
	assert.Len(t, todays, 1)

	others, err := store.ListSales(ctx, core.SaleFilter{Date: "1999-01-01"})
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestSale_DeleteCascadesChildren(t *testing.T) {
	// GIVEN: a sale with a payment and a line item
	// WHEN: deleting the sale
	// THEN: both children are gone via ON DELETE CASCADE

	store := newTestStore(t)
	ctx := context.Background()

	productID, err := store.CreateProduct(ctx, core.Product{
		Name: "Agua", Price: money("2.50"), Stock: 10,
		Category: core.CategoryDrinks, Active: true,
	})
	require.NoError(t, err)

	saleID := seedSale(t, store, "")
	require.NoError(t, store.CreatePayments(ctx, []core.Payment{
		{SaleID: saleID, Method: core.MethodCash, Amount: money("100.00")},
	}))
	require.NoError(t, store.CreateLineItems(ctx, []core.LineItem{
		{SaleID: saleID, ProductID: productID, Quantity: 2, UnitPrice: money("2.50"), Subtotal: money("5.00")},
	}))

	require.NoError(t, store.DeleteSale(ctx, saleID))

	payments, err := store.ListPayments(ctx, saleID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	items, err := store.ListLineItems(ctx, saleID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSale_NotFoundNormalized(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetSale(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, store.DeleteSale(ctx, "nope"), core.ErrNotFound)
	assert.ErrorIs(t, store.DeletePayment(ctx, "nope"), core.ErrNotFound)
}

func TestLineItems_CarryProductName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	productID, err := store.CreateProduct(ctx, core.Product{
		Name: "Gaseosa", Price: money("3.00"), Stock: 5,
		Category: core.CategoryDrinks, Active: true,
	})
	require.NoError(t, err)

	saleID := seedSale(t, store, "")
	require.NoError(t, store.CreateLineItems(ctx, []core.LineItem{
		{SaleID: saleID, ProductID: productID, Quantity: 1, UnitPrice: money("3.00"), Subtotal: money("3.00")},
	}))

	items, err := store.ListLineItems(ctx, saleID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Gaseosa", items[0].Name)
}

// =============================================================================
// PRODUCT TESTS
// =============================================================================

func TestProduct_StockCheckConstraint(t *testing.T) {
	// The CHECK (stock >= 0) backstop surfaces as a conflict.
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateProduct(ctx, core.Product{
		Name: "Agua", Price: money("2.50"), Stock: 3,
		Category: core.CategoryDrinks, Active: true,
	})
	require.NoError(t, err)

	err = store.UpdateProductStock(ctx, id, -1)
	assert.ErrorIs(t, err, core.ErrConflict)

	require.NoError(t, store.UpdateProductStock(ctx, id, 0))
	p, err := store.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestProduct_ListFiltersInactiveAndCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateProduct(ctx, core.Product{
		Name: "Agua", Price: money("2.50"), Stock: 10,
		Category: core.CategoryDrinks, Active: true,
	})
	require.NoError(t, err)
	_, err = store.CreateProduct(ctx, core.Product{
		Name: "Retirado", Price: money("1.00"), Stock: 0,
		Category: core.CategoryDrinks, Active: false,
	})
	require.NoError(t, err)
	_, err = store.CreateProduct(ctx, core.Product{
		Name: "Alfajor", Price: money("1.00"), Stock: 5,
		Category: core.CategoryKiosk, Active: true,
	})
	require.NoError(t, err)

	drinks, err := store.ListProducts(ctx, core.CategoryDrinks)
	require.NoError(t, err)
	require.Len(t, drinks, 1)
	assert.Equal(t, "Agua", drinks[0].Name)

	all, err := store.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// RESERVATION TESTS
// =============================================================================

func TestReservation_UniqueSlotEnforced(t *testing.T) {
	// GIVEN: a reservation on (court, date, start)
	// WHEN: inserting the same slot again
	// THEN: the unique index rejects it as a conflict

	store := newTestStore(t)
	ctx := context.Background()
	courtID := seedCourt(t, store)

	r := core.Reservation{
		Date: "2026-09-01", StartTime: "18:00", EndTime: "19:00",
		CourtID: courtID, OperatorID: "op-1", Holder: "Marcos",
		Status: core.ReservationPending, Kind: core.KindCourt,
		Price: money("60.00"),
	}
	_, err := store.CreateReservation(ctx, r)
	require.NoError(t, err)

	r.Holder = "Otra persona"
	_, err = store.CreateReservation(ctx, r)
	assert.ErrorIs(t, err, core.ErrConflict)

	// A different hour on the same court is fine.
	r.StartTime, r.EndTime = "19:00", "20:00"
	_, err = store.CreateReservation(ctx, r)
	assert.NoError(t, err)
}

func TestReservation_CompleteFlipsAllFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	courtID := seedCourt(t, store)

	id, err := store.CreateReservation(ctx, core.Reservation{
		Date: "2026-09-01", StartTime: "18:00", EndTime: "19:00",
		CourtID: courtID, OperatorID: "op-1", Holder: "Marcos",
		Status: core.ReservationPending, Kind: core.KindCourt,
		Price: money("60.00"),
	})
	require.NoError(t, err)

	saleID := seedSale(t, store, id)
	require.NoError(t, store.CompleteReservation(ctx, id, saleID))

	r, err := store.GetReservation(ctx, id)
	require.NoError(t, err)
	assert.True(t, r.Paid)
	assert.Equal(t, core.ReservationCompleted, r.Status)
	assert.Equal(t, saleID, r.SaleID)
	assert.Equal(t, "Cancha 1", r.CourtName)
}

func TestReservation_ListUnpaidOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	courtID := seedCourt(t, store)

	base := core.Reservation{
		EndTime: "19:00", CourtID: courtID, OperatorID: "op-1",
		Holder: "Marcos", Status: core.ReservationPending,
		Kind: core.KindCourt, Price: money("60.00"),
	}

	late := base
	late.Date, late.StartTime = "2026-09-02", "10:00"
	_, err := store.CreateReservation(ctx, late)
	require.NoError(t, err)

	early := base
	early.Date, early.StartTime = "2026-09-01", "18:00"
	_, err = store.CreateReservation(ctx, early)
	require.NoError(t, err)

	paid := base
	paid.Date, paid.StartTime = "2026-09-03", "11:00"
	paid.Paid = true
	_, err = store.CreateReservation(ctx, paid)
	require.NoError(t, err)

	list, err := store.ListUnpaidReservations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2026-09-01", list[0].Date)
	assert.Equal(t, "2026-09-02", list[1].Date)
}

func TestReservation_PrivilegedDelegatesToDirect(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	courtID := seedCourt(t, store)

	id, err := store.CreateReservation(ctx, core.Reservation{
		Date: "2026-09-01", StartTime: "18:00", EndTime: "19:00",
		CourtID: courtID, OperatorID: "op-1", Holder: "Marcos",
		Status: core.ReservationPending, Kind: core.KindCourt,
		Price: money("60.00"),
	})
	require.NoError(t, err)

	require.NoError(t, store.SetReservationPaidPrivileged(ctx, id, true))

	r, err := store.GetReservation(ctx, id)
	require.NoError(t, err)
	assert.True(t, r.Paid)
}
