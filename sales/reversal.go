/*
reversal.go - Undoing committed sales and individual payments

PURPOSE:
  DeleteSale reverses a whole sale: stock restored first (additively, from a
  fresh read, so intervening sales are respected), then the record deleted
  with its payments and items cascading. DeletePayment removes one payment
  from a mixed sale and keeps the linked reservation's paid flag honest,
  falling back to a privileged server-side update when row-level policy
  blocks the direct write.

DELIBERATE ASYMMETRY:
  DeleteSale does NOT reset a linked reservation's pagada/estado fields; the
  reservation is merely left without its reverse reference. Only the partial
  path, DeletePayment, recomputes paid status.

SEE ALSO:
  - finalizer.go: the forward path
  - core/store.go: SetReservationPaidPrivileged contract
*/
package sales

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/elpredio/pos-engine/core"
)

// =============================================================================
// REVERSAL
// =============================================================================

// Reversal undoes committed sales against a Store.
type Reversal struct {
	store core.Store
}

// NewReversal returns a Reversal backed by store.
func NewReversal(store core.Store) *Reversal {
	return &Reversal{store: store}
}

// DeleteSale reverses a committed sale. For product sales each line item's
// quantity is added back onto the product's CURRENT stock - an additive,
// order-independent restore, not a blind undo, because other sales may have
// moved the counter since. The sale record is deleted last; payments and
// line items cascade in the store.
func (r *Reversal) DeleteSale(ctx context.Context, saleID string) error {
	sale, err := r.store.GetSale(ctx, saleID)
	if err != nil {
		return err
	}

	if sale.Kind == core.SaleDrinks || sale.Kind == core.SaleKiosk {
		items, err := r.store.ListLineItems(ctx, saleID)
		if err != nil {
			return fmt.Errorf("load items for sale %s: %w", saleID, err)
		}
		for _, it := range items {
			p, err := r.store.GetProduct(ctx, it.ProductID)
			if err != nil {
				log.Printf("sale %s reversal: skip stock restore for product %s: %v", saleID, it.ProductID, err)
				continue
			}
			if err := r.store.UpdateProductStock(ctx, it.ProductID, p.Stock+it.Quantity); err != nil {
				log.Printf("sale %s reversal: stock restore failed for product %s: %v", saleID, it.ProductID, err)
			}
		}
	}

	return r.store.DeleteSale(ctx, saleID)
}

// DeletePaymentResult reports the outcome of a partial reversal.
type DeletePaymentResult struct {
	ReservationID string

	// Paid is the recomputed reservation paid status, meaningful only when
	// ReservationID is set and StatusStale is false.
	Paid bool

	// StatusStale is true when the payment was deleted but neither the
	// direct update nor the privileged fallback could write the new paid
	// status. The operator must check the reservation manually.
	StatusStale bool
	Warning     string
}

// DeletePayment removes one payment row from a sale and, when the sale pays
// for a reservation, recomputes and writes the reservation's pagada flag.
//
// The status write is best-effort by design: a policy-denied direct update
// falls back to the privileged remote procedure, and if that also fails the
// deletion still counts as a success with StatusStale set.
func (r *Reversal) DeletePayment(ctx context.Context, saleID, paymentID string) (*DeletePaymentResult, error) {
	if err := r.store.DeletePayment(ctx, paymentID); err != nil {
		return nil, err
	}

	sale, err := r.store.GetSale(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("load sale %s after payment delete: %w", saleID, err)
	}

	result := &DeletePaymentResult{ReservationID: sale.ReservationID}
	if sale.ReservationID == "" {
		return result, nil
	}

	remaining, err := r.store.ListPayments(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("load surviving payments for sale %s: %w", saleID, err)
	}
	sum := decimal.Zero
	for _, p := range remaining {
		sum = sum.Add(p.Amount)
	}
	result.Paid = core.MoneyEqual(sum, sale.Total)

	if err := r.store.SetReservationPaid(ctx, sale.ReservationID, result.Paid); err != nil {
		// Row-level policy may block the direct write; retry through the
		// privileged path before giving up.
		if rpcErr := r.store.SetReservationPaidPrivileged(ctx, sale.ReservationID, result.Paid); rpcErr != nil {
			result.StatusStale = true
			result.Warning = fmt.Sprintf(
				"payment deleted, but reservation %s paid status could not be updated (direct: %v; privileged: %v); verify it manually",
				sale.ReservationID, err, rpcErr)
		}
	}

	return result, nil
}
