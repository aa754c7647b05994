/*
store.go - Persistence interface to the external Data Store

PURPOSE:
  Defines what the core needs from the system of record. The store is
  reached over a network in production (store/postgrest), runs locally for
  single-site deployments (store/sqlite), and in memory for tests
  (store/memory). Each call is independently fallible; the core never
  assumes two calls commit together.

ERROR CONTRACT:
  Implementations normalize failures onto the core sentinels:
  - uniqueness violations  -> wrap ErrConflict
  - access-policy denials  -> wrap ErrPolicyDenied
  - missing rows           -> wrap ErrNotFound
  Anything else propagates as-is.

PRIVILEGED FALLBACK:
  SetReservationPaidPrivileged exists because row-level security on the
  reservations table can block a direct update from a non-owning operator.
  Remote stores route it through a server-side procedure; local stores
  delegate to the direct update.

SEE ALSO:
  - store/memory, store/sqlite, store/postgrest: implementations
  - sales/, booking/, catalog/: consumers
*/
package core

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

// SaleStore persists committed sales and their children.
type SaleStore interface {
	// CreateSale inserts the sale record and returns its generated id.
	CreateSale(ctx context.Context, sale Sale) (string, error)

	// CreatePayments inserts payment records already tagged with a sale id.
	CreatePayments(ctx context.Context, payments []Payment) error

	// CreateLineItems inserts line items already tagged with a sale id.
	CreateLineItems(ctx context.Context, items []LineItem) error

	GetSale(ctx context.Context, id string) (Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error)

	// DeleteSale removes the sale; payments and line items cascade.
	DeleteSale(ctx context.Context, id string) error

	// SalesByReservation returns surviving sales referencing a reservation.
	SalesByReservation(ctx context.Context, reservationID string) ([]Sale, error)

	ListPayments(ctx context.Context, saleID string) ([]Payment, error)
	DeletePayment(ctx context.Context, id string) error
	ListLineItems(ctx context.Context, saleID string) ([]LineItem, error)
}

// SaleFilter narrows ListSales. Zero value lists everything, newest first.
type SaleFilter struct {
	Date string // exact local day, YYYY-MM-DD
}

// ProductStore persists the sellable catalog and its stock counters.
type ProductStore interface {
	CreateProduct(ctx context.Context, p Product) (string, error)
	GetProduct(ctx context.Context, id string) (Product, error)

	// ListProducts returns active products ordered by name, optionally
	// narrowed to one category.
	ListProducts(ctx context.Context, category ProductCategory) ([]Product, error)

	// UpdateProductStock overwrites the stock counter. Callers compute the
	// new value from a fresh GetProduct read; the store does not diff.
	UpdateProductStock(ctx context.Context, id string, stock int) error
}

// ReservationStore persists booked slots.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r Reservation) (string, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)

	// ListUnpaidReservations returns reservations with pagada = false,
	// ordered by date.
	ListUnpaidReservations(ctx context.Context) ([]Reservation, error)

	DeleteReservation(ctx context.Context, id string) error

	// CompleteReservation marks the reservation paid and completed and
	// attaches the sale that paid it.
	CompleteReservation(ctx context.Context, id, saleID string) error

	// SetReservationPaid writes only the pagada flag.
	SetReservationPaid(ctx context.Context, id string, paid bool) error

	// SetReservationPaidPrivileged performs the same write through a
	// privileged server-side path, for when the direct update is
	// policy-denied.
	SetReservationPaidPrivileged(ctx context.Context, id string, paid bool) error
}

// CourtStore persists the bookable facilities.
type CourtStore interface {
	CreateCourt(ctx context.Context, c Court) (string, error)
	GetCourt(ctx context.Context, id string) (Court, error)
	ListCourts(ctx context.Context) ([]Court, error)
}

// Store is the full contract the engine needs from the system of record.
type Store interface {
	SaleStore
	ProductStore
	ReservationStore
	CourtStore
}
