/*
Package booking creates and guards facility reservations.

PURPOSE:
  Validates new reservations locally, inserts them, and translates the Data
  Store's uniqueness rejection on (court, date, start time) into a message
  that names the conflicting slot. Also enforces the only deletion guard the
  domain has: a reservation referenced by a surviving sale cannot be deleted
  directly - the sale must be reversed first.

CONCURRENCY:
  Two operators booking the same slot at once are not serialized here; the
  store's unique constraint is the only real guard, and this package's job
  is to interpret the resulting conflict, not to prevent it.

SEE ALSO:
  - core/errors.go: SlotTakenError, ErrReservationHasSale
  - sales/finalizer.go: flips a reservation to paid/completed
*/
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/elpredio/pos-engine/core"
)

// maxHolderLen matches the responsable column width in the remote schema.
const maxHolderLen = 50

// Service manages reservations against a Store.
type Service struct {
	store core.Store
}

// NewService returns a booking Service backed by store.
func NewService(store core.Store) *Service {
	return &Service{store: store}
}

// Create validates and inserts a new reservation. New reservations always
// start pending and unpaid; the sale finalizer is the only path to
// paid/completed.
//
// A store conflict comes back as *core.SlotTakenError naming the court,
// date, and start time, so the operator is told which slot to change
// instead of seeing a raw constraint violation.
func (s *Service) Create(ctx context.Context, session core.Session, r core.Reservation) (string, error) {
	if err := session.Validate(); err != nil {
		return "", err
	}
	if r.CourtID == "" || r.Date == "" || r.StartTime == "" || r.EndTime == "" {
		return "", fmt.Errorf("%w: court, date, and times are required", core.ErrInvalidAmount)
	}
	if r.Holder == "" {
		return "", fmt.Errorf("%w: holder name is required", core.ErrInvalidAmount)
	}
	if len(r.Holder) > maxHolderLen {
		return "", fmt.Errorf("%w: holder name exceeds %d characters", core.ErrInvalidAmount, maxHolderLen)
	}
	if r.Price.Sign() <= 0 {
		return "", core.ErrInvalidAmount
	}
	if r.EndTime <= r.StartTime {
		return "", fmt.Errorf("%w: end time must be after start time", core.ErrInvalidAmount)
	}

	r.OperatorID = session.OperatorID
	r.Status = core.ReservationPending
	r.Paid = false
	r.SaleID = ""

	id, err := s.store.CreateReservation(ctx, r)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			courtName := r.CourtID
			if court, cerr := s.store.GetCourt(ctx, r.CourtID); cerr == nil {
				courtName = court.Name
			}
			return "", &core.SlotTakenError{
				CourtName: courtName,
				Date:      r.Date,
				StartTime: r.StartTime,
			}
		}
		return "", err
	}
	return id, nil
}

// Get returns one reservation.
func (s *Service) Get(ctx context.Context, id string) (core.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

// ListUnpaid returns reservations still awaiting payment, ordered by date.
func (s *Service) ListUnpaid(ctx context.Context) ([]core.Reservation, error) {
	return s.store.ListUnpaidReservations(ctx)
}

// Delete removes a reservation that no sale references. While a sale still
// points at it the delete fails with ErrReservationHasSale: reverse the
// sale first.
func (s *Service) Delete(ctx context.Context, id string) error {
	referencing, err := s.store.SalesByReservation(ctx, id)
	if err != nil {
		return fmt.Errorf("check sales for reservation %s: %w", id, err)
	}
	if len(referencing) > 0 {
		return fmt.Errorf("reservation %s: %w", id, core.ErrReservationHasSale)
	}
	return s.store.DeleteReservation(ctx, id)
}
