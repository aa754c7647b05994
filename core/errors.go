/*
errors.go - Centralized error types for the POS core

PURPOSE:
  All error values in one place. Callers distinguish failure classes with
  errors.Is / errors.As; the HTTP layer maps the classes to status codes and
  the structured types carry enough detail for an operator to act on.

ERROR CATEGORIES:
  1. Validation errors - rejected before any remote call, never retried
  2. Conflict errors   - the Data Store refused a write (duplicate slot, ...)
  3. Partial-commit    - a later finalize step failed after earlier writes
  4. Store errors      - transport or policy failures from the Data Store

SEE ALSO:
  - sales/finalizer.go: produces PartialCommitError
  - booking/booking.go: produces SlotTakenError
  - store/: implementations normalize raw failures onto these sentinels
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a payment amount is not a positive
	// finite number.
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrExceedsRemaining is returned when a payment would push the ledger
	// past the sale total.
	ErrExceedsRemaining = errors.New("payment exceeds remaining balance")

	// ErrEmptyComposition is returned when finalizing a sale with no
	// reservation and no line items.
	ErrEmptyComposition = errors.New("sale has no reservation or items")

	// ErrIncompletePayment is returned when the ledger does not cover the
	// sale total within tolerance.
	ErrIncompletePayment = errors.New("payment is incomplete")

	// ErrNoPaymentMethod is returned when finalizing with an empty ledger.
	ErrNoPaymentMethod = errors.New("at least one payment is required")

	// ErrNoIdentity is returned when no authenticated operator is available.
	ErrNoIdentity = errors.New("no operator identity")

	// ErrInsufficientStock is returned when a line item asks for more units
	// than the product has.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrReservationHasSale is returned when deleting a reservation that a
	// sale still references. Delete the sale first.
	ErrReservationHasSale = errors.New("reservation is referenced by a sale")

	// ErrConflict is returned when the Data Store rejects a write because of
	// a uniqueness constraint.
	ErrConflict = errors.New("conflicts with an existing record")

	// ErrPolicyDenied is returned when the Data Store's row-level access
	// policy blocks a write the client attempted directly.
	ErrPolicyDenied = errors.New("rejected by data store access policy")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ExceedsRemainingError reports how much of the total is still unpaid, so
// the operator can be told the exact acceptable maximum.
type ExceedsRemainingError struct {
	Amount    Money
	Remaining Money
}

func (e *ExceedsRemainingError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining balance of %s",
		e.Amount.StringFixed(2), e.Remaining.StringFixed(2))
}

func (e *ExceedsRemainingError) Unwrap() error { return ErrExceedsRemaining }

// IncompletePaymentError reports the uncovered remainder at finalize time.
type IncompletePaymentError struct {
	Total     Money
	Paid      Money
	Remaining Money
}

func (e *IncompletePaymentError) Error() string {
	return fmt.Sprintf("payment incomplete: total %s, paid %s, remaining %s",
		e.Total.StringFixed(2), e.Paid.StringFixed(2), e.Remaining.StringFixed(2))
}

func (e *IncompletePaymentError) Unwrap() error { return ErrIncompletePayment }

// InsufficientStockError names the product and the shortfall.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// SlotTakenError is the domain translation of the store's uniqueness
// violation on (court, date, start time).
type SlotTakenError struct {
	CourtName string
	Date      string
	StartTime string
}

func (e *SlotTakenError) Error() string {
	return fmt.Sprintf("court %q is already reserved on %s at %s",
		e.CourtName, e.Date, e.StartTime)
}

func (e *SlotTakenError) Unwrap() error { return ErrConflict }

// PartialCommitError reports a finalize failure AFTER the sale record was
// written. By design nothing is rolled back: a sale with recorded payments
// and inconsistent stock is less harmful than silently discarding recorded
// money movement. The operator reconciles manually using the detail here.
type PartialCommitError struct {
	SaleID string
	Step   string // "payments", "items", "stock", "reservation"
	Done   []string
	Err    error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("sale %s committed partially: step %q failed after %v: %v",
		e.SaleID, e.Step, e.Done, e.Err)
}

func (e *PartialCommitError) Unwrap() error { return e.Err }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsValidation reports whether err was rejected locally before any write.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrExceedsRemaining) ||
		errors.Is(err, ErrEmptyComposition) ||
		errors.Is(err, ErrIncompletePayment) ||
		errors.Is(err, ErrNoPaymentMethod) ||
		errors.Is(err, ErrNoIdentity) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsConflict reports whether err came from a store uniqueness constraint.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
