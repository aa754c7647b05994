/*
ledger.go - In-progress payment ledger for the sale being built

PURPOSE:
  While the operator assembles a sale, partial payments accumulate here
  against the computed total. The ledger enforces non-exceedance (you cannot
  register more money than the sale is worth) and answers "is the sale fully
  paid?". Nothing in this file touches the Data Store: the ledger is
  transient state, discarded on commit or abandonment.

INVARIANTS:
  1. Every entry has a positive amount and a valid method.
  2. The running sum never exceeds the target total by more than Tolerance.
  3. Entries are immutable once added; the only mutation is removal.

TOLERANCE:
  All completeness checks use the one-cent Tolerance band. A ledger summing
  to 99.995 against a 100.00 total is complete; 99.50 is not.

SEE ALSO:
  - composition.go: computes the target total
  - sales/finalizer.go: consumes a complete ledger
*/
package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT LEDGER
// =============================================================================

// PaymentLedger accumulates partial payments toward a target total.
// The zero value is ready to use. Not safe for concurrent use: one ledger
// belongs to one operator session.
type PaymentLedger struct {
	entries []Payment
}

// Add validates and appends a payment. target is the sale total the ledger
// is working toward.
//
// Fails with ErrInvalidAmount when amount is not a positive finite number or
// the method is not a real payment method, and with *ExceedsRemainingError
// when amount overshoots what is still owed by more than Tolerance.
func (l *PaymentLedger) Add(method PaymentMethod, amount Money, target Money) (Payment, error) {
	if !method.Valid() {
		return Payment{}, ErrInvalidAmount
	}
	if amount.Sign() <= 0 {
		return Payment{}, ErrInvalidAmount
	}

	remaining := target.Sub(l.TotalPaid())
	if amount.Sub(remaining).Cmp(Tolerance) > 0 {
		return Payment{}, &ExceedsRemainingError{Amount: amount, Remaining: remaining}
	}

	p := Payment{
		ID:     uuid.NewString(),
		Method: method,
		Amount: amount,
	}
	l.entries = append(l.entries, p)
	return p, nil
}

// Remove deletes the payment with the given id. Removing an unknown id is a
// no-op: the operator may double-tap delete, and the second tap must not
// disturb the ledger.
func (l *PaymentLedger) Remove(id string) {
	for i, p := range l.entries {
		if p.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// TotalPaid returns the sum of all entries.
func (l *PaymentLedger) TotalPaid() Money {
	sum := decimal.Zero
	for _, p := range l.entries {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Remaining returns how much of target is still unpaid. May be negative
// within Tolerance when the operator overpaid by a rounding hair.
func (l *PaymentLedger) Remaining(target Money) Money {
	return target.Sub(l.TotalPaid())
}

// IsComplete reports whether the ledger covers target within Tolerance.
func (l *PaymentLedger) IsComplete(target Money) bool {
	return l.Remaining(target).Abs().Cmp(Tolerance) < 0
}

// Payments returns a copy of the entries in insertion order.
func (l *PaymentLedger) Payments() []Payment {
	out := make([]Payment, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *PaymentLedger) Len() int { return len(l.entries) }

// Method classifies the sale's payment method from the ledger contents:
// a single entry keeps its own method, more than one is mixed. An empty
// ledger has no method; callers must check Len first.
func (l *PaymentLedger) Method() PaymentMethod {
	if len(l.entries) == 1 {
		return l.entries[0].Method
	}
	return MethodMixed
}
