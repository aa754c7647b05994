package sales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elpredio/pos-engine/core"
	"github.com/elpredio/pos-engine/sales"
	"github.com/elpredio/pos-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func money(s string) core.Money {
	return decimal.RequireFromString(s)
}

func session() core.Session {
	return core.Session{OperatorID: "op-1"}
}

// seedProduct inserts a product and returns it with its generated id.
func seedProduct(t *testing.T, store *memory.Store, name, price string, stock int) core.Product {
	t.Helper()
	p := core.Product{Name: name, Price: money(price), Stock: stock, Category: core.CategoryDrinks, Active: true}
	id, err := store.CreateProduct(context.Background(), p)
	require.NoError(t, err)
	p.ID = id
	return p
}

// seedReservation inserts a court and a pending unpaid reservation on it.
func seedReservation(t *testing.T, store *memory.Store, price string) core.Reservation {
	t.Helper()
	ctx := context.Background()
	courtID, err := store.CreateCourt(ctx, core.Court{Name: "Cancha 1", HourlyRate: money("60"), Active: true})
	require.NoError(t, err)

	r := core.Reservation{
		Date:       "2026-08-28",
		StartTime:  "18:00",
		EndTime:    "19:00",
		CourtID:    courtID,
		OperatorID: "op-1",
		Holder:     "Lucia",
		Status:     core.ReservationPending,
		Kind:       core.KindCourt,
		Price:      money(price),
	}
	id, err := store.CreateReservation(ctx, r)
	require.NoError(t, err)
	r.ID = id
	return r
}

// paidLedger builds a ledger fully covering target with one cash payment.
func paidLedger(t *testing.T, target core.Money) *core.PaymentLedger {
	t.Helper()
	ledger := &core.PaymentLedger{}
	_, err := ledger.Add(core.MethodCash, target, target)
	require.NoError(t, err)
	return ledger
}

// flakyStore wraps the memory store and fails selected operations, to
// exercise the partial-commit contract.
type flakyStore struct {
	core.Store
	failPayments    bool
	failItems       bool
	failStock       bool
	failReservation bool
}

var errStoreDown = errors.New("store unavailable")

func (f *flakyStore) CreatePayments(ctx context.Context, payments []core.Payment) error {
	if f.failPayments {
		return errStoreDown
	}
	return f.Store.CreatePayments(ctx, payments)
}

func (f *flakyStore) CreateLineItems(ctx context.Context, items []core.LineItem) error {
	if f.failItems {
		return errStoreDown
	}
	return f.Store.CreateLineItems(ctx, items)
}

func (f *flakyStore) UpdateProductStock(ctx context.Context, id string, stock int) error {
	if f.failStock {
		return errStoreDown
	}
	return f.Store.UpdateProductStock(ctx, id, stock)
}

func (f *flakyStore) CompleteReservation(ctx context.Context, id, saleID string) error {
	if f.failReservation {
		return errStoreDown
	}
	return f.Store.CompleteReservation(ctx, id, saleID)
}

// =============================================================================
// HAPPY PATH TESTS
// =============================================================================

func TestFinalize_ReservationSale_FlipsReservation(t *testing.T) {
	// GIVEN: a pending unpaid reservation priced 120.00, fully paid in cash
	// WHEN: finalizing
	// THEN: sale + payment recorded, reservation paid/completed/linked

	ctx := context.Background()
	store := memory.New()
	res := seedReservation(t, store, "120.00")

	comp := &core.SaleComposition{Kind: core.SaleReservation, Reservation: &res}
	result, err := sales.NewFinalizer(store).Finalize(ctx, session(), comp, paidLedger(t, money("120.00")))
	require.NoError(t, err)

	assert.Equal(t, core.MethodCash, result.Method)
	assert.True(t, money("120.00").Equal(result.Total))

	sale, err := store.GetSale(ctx, result.SaleID)
	require.NoError(t, err)
	assert.Equal(t, core.SaleReservation, sale.Kind)
	assert.Equal(t, res.ID, sale.ReservationID)
	assert.Equal(t, "op-1", sale.OperatorID)

	payments, err := store.ListPayments(ctx, result.SaleID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, result.SaleID, payments[0].SaleID)

	updated, err := store.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, updated.Paid)
	assert.Equal(t, core.ReservationCompleted, updated.Status)
	assert.Equal(t, result.SaleID, updated.SaleID)
}

func TestFinalize_RetailSale_DecrementsStock(t *testing.T) {
	// GIVEN: two products with stock 10 and 5
	// WHEN: selling 3 of the first and 5 of the second
	// THEN: items recorded and stock lands at 7 and 0

	ctx := context.Background()
	store := memory.New()
	agua := seedProduct(t, store, "Agua", "2.50", 10)
	gaseosa := seedProduct(t, store, "Gaseosa", "3.00", 5)

	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	require.NoError(t, comp.AddItem(agua, 3))
	require.NoError(t, comp.AddItem(gaseosa, 5))

	result, err := sales.NewFinalizer(store).Finalize(ctx, session(), comp, paidLedger(t, comp.Total()))
	require.NoError(t, err)

	items, err := store.ListLineItems(ctx, result.SaleID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	p1, err := store.GetProduct(ctx, agua.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, p1.Stock)

	p2, err := store.GetProduct(ctx, gaseosa.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p2.Stock)
}

func TestFinalize_MixedPayments_ClassifiedAsMixed(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	res := seedReservation(t, store, "100.00")

	ledger := &core.PaymentLedger{}
	_, err := ledger.Add(core.MethodCash, money("60.00"), money("100.00"))
	require.NoError(t, err)
	_, err = ledger.Add(core.MethodMercadoPago, money("40.00"), money("100.00"))
	require.NoError(t, err)

	comp := &core.SaleComposition{Kind: core.SaleReservation, Reservation: &res}
	result, err := sales.NewFinalizer(store).Finalize(ctx, session(), comp, ledger)
	require.NoError(t, err)

	assert.Equal(t, core.MethodMixed, result.Method)

	sale, err := store.GetSale(ctx, result.SaleID)
	require.NoError(t, err)
	assert.Equal(t, core.MethodMixed, sale.Method)

	payments, err := store.ListPayments(ctx, result.SaleID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestFinalize_ReservationWithItems_ChargesBoth(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	res := seedReservation(t, store, "100.00")
	agua := seedProduct(t, store, "Agua", "2.50", 10)

	comp := &core.SaleComposition{Kind: core.SaleReservation, Reservation: &res}
	require.NoError(t, comp.AddItem(agua, 2))
	require.True(t, money("105.00").Equal(comp.Total()))

	result, err := sales.NewFinalizer(store).Finalize(ctx, session(), comp, paidLedger(t, money("105.00")))
	require.NoError(t, err)
	assert.True(t, money("105.00").Equal(result.Total))

	p, err := store.GetProduct(ctx, agua.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
}

// =============================================================================
// PRECONDITION TESTS - nothing written on failure
// =============================================================================

func TestFinalize_RejectsMissingIdentity(t *testing.T) {
	store := memory.New()
	res := seedReservation(t, store, "100.00")
	comp := &core.SaleComposition{Kind: core.SaleReservation, Reservation: &res}

	_, err := sales.NewFinalizer(store).Finalize(context.Background(),
		core.Session{}, comp, paidLedger(t, money("100.00")))
	assert.ErrorIs(t, err, core.ErrNoIdentity)
}

func TestFinalize_RejectsEmptyComposition(t *testing.T) {
	store := memory.New()
	comp := &core.SaleComposition{Kind: core.SaleDrinks}

	_, err := sales.NewFinalizer(store).Finalize(context.Background(),
		session(), comp, &core.PaymentLedger{})
	assert.ErrorIs(t, err, core.ErrEmptyComposition)
}

func TestFinalize_RejectsIncompletePayment(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	res := seedReservation(t, store, "100.00")

	ledger := &core.PaymentLedger{}
	_, err := ledger.Add(core.MethodCash, money("50.00"), money("100.00"))
	require.NoError(t, err)

	comp := &core.SaleComposition{Kind: core.SaleReservation, Reservation: &res}
	_, err = sales.NewFinalizer(store).Finalize(ctx, session(), comp, ledger)
	require.ErrorIs(t, err, core.ErrIncompletePayment)

	var incomplete *core.IncompletePaymentError
	require.ErrorAs(t, err, &incomplete)
	assert.True(t, money("50.00").Equal(incomplete.Remaining))

	// Nothing was written.
	list, err := store.ListSales(ctx, core.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFinalize_RejectsStaleStock(t *testing.T) {
	// GIVEN: a composition built when stock was 5
	// WHEN: stock drops to 1 before finalize
	// THEN: rejected by the fresh-read check, nothing written

	ctx := context.Background()
	store := memory.New()
	agua := seedProduct(t, store, "Agua", "2.50", 5)

	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	require.NoError(t, comp.AddItem(agua, 4))

	require.NoError(t, store.UpdateProductStock(ctx, agua.ID, 1))

	_, err := sales.NewFinalizer(store).Finalize(ctx, session(), comp, paidLedger(t, comp.Total()))
	assert.ErrorIs(t, err, core.ErrInsufficientStock)

	list, err := store.ListSales(ctx, core.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

// =============================================================================
// PARTIAL COMMIT TESTS - no rollback, full reporting
// =============================================================================

func TestFinalize_PaymentsFailure_ReportsPartialCommit(t *testing.T) {
	// GIVEN: a store that fails on CreatePayments
	// WHEN: finalizing
	// THEN: PartialCommitError with the committed sale id; the sale record
	//       survives, no rollback

	ctx := context.Background()
	mem := memory.New()
	res := seedReservation(t, mem, "100.00")
	store := &flakyStore{Store: mem, failPayments: true}

	comp := &core.SaleComposition{Kind: core.SaleReservation, Reservation: &res}
	_, err := sales.NewFinalizer(store).Finalize(ctx, session(), comp, paidLedger(t, money("100.00")))

	var partial *core.PartialCommitError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "payments", partial.Step)
	assert.Equal(t, []string{"sale"}, partial.Done)
	assert.NotEmpty(t, partial.SaleID)

	// The orphaned sale record is still there for reconciliation.
	_, err = mem.GetSale(ctx, partial.SaleID)
	assert.NoError(t, err)

	// And the reservation was never flipped.
	r, err := mem.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, r.Paid)
}

func TestFinalize_StockFailure_KeepsEarlierSteps(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	agua := seedProduct(t, mem, "Agua", "2.50", 10)
	store := &flakyStore{Store: mem, failStock: true}

	comp := &core.SaleComposition{Kind: core.SaleDrinks}
	require.NoError(t, comp.AddItem(agua, 2))

	_, err := sales.NewFinalizer(store).Finalize(ctx, session(), comp, paidLedger(t, comp.Total()))

	var partial *core.PartialCommitError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "stock", partial.Step)
	assert.Equal(t, []string{"sale", "payments", "items"}, partial.Done)

	// Payments and items were committed and stay committed.
	payments, err := mem.ListPayments(ctx, partial.SaleID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	items, err := mem.ListLineItems(ctx, partial.SaleID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFinalize_ReservationFlipFailure_ReportsLastStep(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	res := seedReservation(t, mem, "100.00")
	store := &flakyStore{Store: mem, failReservation: true}

	comp := &core.SaleComposition{Kind: core.SaleReservation, Reservation: &res}
	_, err := sales.NewFinalizer(store).Finalize(ctx, session(), comp, paidLedger(t, money("100.00")))

	var partial *core.PartialCommitError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "reservation", partial.Step)
	assert.Equal(t, []string{"sale", "payments"}, partial.Done)
}
