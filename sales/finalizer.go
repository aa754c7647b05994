/*
Package sales orchestrates the commit and reversal of point-of-sale
transactions.

PURPOSE:
  The Finalizer ties together a completed payment ledger and a sale
  composition and performs the multi-step commit against the Data Store:
  sale record, payments, line items, stock decrements, reservation flip.
  The Reversal undoes committed sales and individual payments.

COMMIT IS AN UNPROTECTED SAGA:
  Each step is a separate remote write with no cross-step transaction.
  Step order is fixed: record first (later steps need its id), payments
  next, stock and reservation effects last, because stock and reservation
  mutations are the effects an operator can most easily redo manually,
  whereas an orphaned sale record with no payments is a recoverable
  inconsistency. A failure after step 1 is reported as PartialCommitError
  and nothing is rolled back: a sale with recorded payments and
  inconsistent stock is less harmful than silently discarding recorded
  money movement.

SEE ALSO:
  - core/ledger.go, core/composition.go: the transient inputs
  - reversal.go: the inverse path
  - core/errors.go: PartialCommitError and the validation sentinels
*/
package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/elpredio/pos-engine/core"
)

// =============================================================================
// FINALIZER
// =============================================================================

// Finalizer commits in-progress sales against a Store.
type Finalizer struct {
	store core.Store

	// now is swappable in tests; everything else uses wall-clock time.
	now func() time.Time
}

// NewFinalizer returns a Finalizer backed by store.
func NewFinalizer(store core.Store) *Finalizer {
	return &Finalizer{store: store, now: time.Now}
}

// FinalizeResult reports a fully committed sale.
type FinalizeResult struct {
	SaleID string
	Method core.PaymentMethod
	Total  core.Money
}

// Finalize validates the session, composition, and ledger, then runs the
// commit sequence. On a validation failure nothing has been written. On a
// failure after the sale record was inserted, the returned error is a
// *core.PartialCommitError carrying the sale id and the steps that did
// complete.
func (f *Finalizer) Finalize(ctx context.Context, session core.Session, comp *core.SaleComposition, ledger *core.PaymentLedger) (*FinalizeResult, error) {
	// Preconditions: all checked before any write.
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if comp.IsEmpty() {
		return nil, core.ErrEmptyComposition
	}
	total := comp.Total()
	if !ledger.IsComplete(total) {
		return nil, &core.IncompletePaymentError{
			Total:     total,
			Paid:      ledger.TotalPaid(),
			Remaining: ledger.Remaining(total),
		}
	}
	if ledger.Len() == 0 {
		return nil, core.ErrNoPaymentMethod
	}
	if err := f.checkStock(ctx, comp); err != nil {
		return nil, err
	}

	method := ledger.Method()
	now := f.now()

	// Step 1: sale record. Failure here aborts the whole operation.
	sale := core.Sale{
		Date:       core.LocalDate(now),
		Total:      total,
		Method:     method,
		OperatorID: session.OperatorID,
		Kind:       comp.Kind,
		Notes:      comp.Notes,
		CreatedAt:  now,
	}
	if comp.Reservation != nil {
		sale.ReservationID = comp.Reservation.ID
	}
	saleID, err := f.store.CreateSale(ctx, sale)
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	done := []string{"sale"}

	// Step 2: payments, tagged with the new sale id.
	payments := ledger.Payments()
	for i := range payments {
		payments[i].SaleID = saleID
	}
	if err := f.store.CreatePayments(ctx, payments); err != nil {
		return nil, &core.PartialCommitError{SaleID: saleID, Step: "payments", Done: done, Err: err}
	}
	done = append(done, "payments")

	// Step 3: line items, then stock decrements per distinct product.
	if len(comp.Items) > 0 {
		items := make([]core.LineItem, len(comp.Items))
		copy(items, comp.Items)
		for i := range items {
			items[i].SaleID = saleID
		}
		if err := f.store.CreateLineItems(ctx, items); err != nil {
			return nil, &core.PartialCommitError{SaleID: saleID, Step: "items", Done: done, Err: err}
		}
		done = append(done, "items")

		if err := f.decrementStock(ctx, comp); err != nil {
			return nil, &core.PartialCommitError{SaleID: saleID, Step: "stock", Done: done, Err: err}
		}
		done = append(done, "stock")
	}

	// Step 4: reservation flip.
	if comp.Reservation != nil {
		if err := f.store.CompleteReservation(ctx, comp.Reservation.ID, saleID); err != nil {
			return nil, &core.PartialCommitError{SaleID: saleID, Step: "reservation", Done: done, Err: err}
		}
	}

	return &FinalizeResult{SaleID: saleID, Method: method, Total: total}, nil
}

// checkStock verifies, from fresh reads, that no product would be driven
// negative by this sale. Runs before any write; the re-read at decrement
// time is a separate, later snapshot.
func (f *Finalizer) checkStock(ctx context.Context, comp *core.SaleComposition) error {
	for _, productID := range sortedProductIDs(comp) {
		quantity := comp.QuantityByProduct()[productID]
		p, err := f.store.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("read product %s: %w", productID, err)
		}
		if quantity > p.Stock {
			return &core.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: quantity,
				Available: p.Stock,
			}
		}
	}
	return nil
}

// decrementStock applies a read-modify-write per distinct product. The
// write is computed from a fresh read, not from the catalog snapshot the
// operator saw, but there is no lock or version check: concurrent sales of
// the same product can race. Accepted for the deployment's write volume.
func (f *Finalizer) decrementStock(ctx context.Context, comp *core.SaleComposition) error {
	byProduct := comp.QuantityByProduct()
	for _, productID := range sortedProductIDs(comp) {
		p, err := f.store.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("read product %s: %w", productID, err)
		}
		if err := f.store.UpdateProductStock(ctx, productID, p.Stock-byProduct[productID]); err != nil {
			return fmt.Errorf("update stock for %s: %w", productID, err)
		}
	}
	return nil
}

// sortedProductIDs gives the distinct products in a stable order so the
// commit sequence is deterministic.
func sortedProductIDs(comp *core.SaleComposition) []string {
	byProduct := comp.QuantityByProduct()
	ids := make([]string, 0, len(byProduct))
	for id := range byProduct {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
