/*
Package core provides the domain model for the facility POS engine.

PURPOSE:
  This package contains the types and rules shared by every other package:
  money arithmetic, the entities of the business (courts, products,
  reservations, sales, payments, line items), the payment ledger assembled
  while a sale is being built, and the sale composition that determines the
  total being charged.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal currency amount (never binary floating point)
  - Tolerance: the one-cent band used for every money equality check
  - PaymentMethod / SaleKind / ReservationStatus: domain enums
  - Court, Product, Reservation, Sale, Payment, LineItem: durable entities

DESIGN PRINCIPLES:
  1. Precision: uses decimal.Decimal so 0.1 + 0.2 is exactly 0.3
  2. Tolerance: money equality is always |a-b| < 0.01, never ==
  3. Wire fidelity: JSON/DB tags keep the original Spanish column names
     (the remote schema predates this client and is not ours to rename)

SEE ALSO:
  - ledger.go: the in-progress payment ledger
  - composition.go: sale total calculation
  - errors.go: sentinel and structured errors
  - store.go: persistence interface implemented under store/
*/
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal currency with a fixed comparison tolerance
// =============================================================================

// Tolerance is the absolute band inside which two money amounts are
// considered equal: one cent. Operators type amounts by hand and the remote
// store round-trips them through JSON numbers, so exact equality is wrong.
var Tolerance = decimal.RequireFromString("0.01")

// Money is an alias kept for readability at call sites.
type Money = decimal.Decimal

// MoneyFromFloat converts an operator-entered float into Money.
func MoneyFromFloat(f float64) Money { return decimal.NewFromFloat(f) }

// MoneyEqual reports whether a and b are equal within Tolerance.
func MoneyEqual(a, b Money) bool {
	return a.Sub(b).Abs().Cmp(Tolerance) < 0
}

// =============================================================================
// ENUMS
// =============================================================================

// PaymentMethod is how one partial payment was made.
type PaymentMethod string

const (
	MethodCash       PaymentMethod = "efectivo"
	MethodMercadoPago PaymentMethod = "mercadopago"

	// MethodMixed is only valid on a Sale, never on an individual Payment:
	// it marks a sale paid through more than one method.
	MethodMixed PaymentMethod = "mixto"
)

// Valid reports whether m is a method an individual payment may carry.
func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodMercadoPago
}

// SaleKind classifies what a sale was for.
type SaleKind string

const (
	SaleReservation SaleKind = "cancha_cumpleanos"
	SaleDrinks      SaleKind = "bebidas"
	SaleKiosk       SaleKind = "kiosco"
)

func (k SaleKind) Valid() bool {
	return k == SaleReservation || k == SaleDrinks || k == SaleKiosk
}

// ProductCategory mirrors the two retail sale kinds.
type ProductCategory string

const (
	CategoryDrinks ProductCategory = "bebidas"
	CategoryKiosk  ProductCategory = "kiosco"
)

func (c ProductCategory) Valid() bool {
	return c == CategoryDrinks || c == CategoryKiosk
}

// ReservationStatus is the lifecycle state of a booked slot.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pendiente"
	ReservationConfirmed ReservationStatus = "confirmada"
	ReservationCanceled  ReservationStatus = "cancelada"
	ReservationCompleted ReservationStatus = "completada"
)

// ReservationKind distinguishes a plain court booking from a birthday booking.
type ReservationKind string

const (
	KindCourt    ReservationKind = "cancha"
	KindBirthday ReservationKind = "cumpleanos"
)

// =============================================================================
// DURABLE ENTITIES - Owned by the Data Store, mirrored here
// =============================================================================

// Court is a bookable facility (table "canchas").
type Court struct {
	ID          string  `json:"id"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion,omitempty"`
	HourlyRate  Money   `json:"precio_hora"`
	Active      bool    `json:"activa"`
}

// Product is a sellable good with tracked stock (table "productos").
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"nombre"`
	Price    Money           `json:"precio"`
	Stock    int             `json:"stock"`
	Category ProductCategory `json:"categoria"`
	Active   bool            `json:"activo"`
}

// Reservation is a booked time slot (table "reservas").
// Holder is the person responsible for the booking, capped at 50 characters
// by the remote schema.
type Reservation struct {
	ID         string            `json:"id"`
	Date       string            `json:"fecha"`       // YYYY-MM-DD
	StartTime  string            `json:"hora_inicio"` // HH:00
	EndTime    string            `json:"hora_fin"`
	CourtID    string            `json:"cancha_id"`
	CourtName  string            `json:"cancha_nombre,omitempty"` // joined, read-only
	OperatorID string            `json:"usuario_id"`
	Holder     string            `json:"responsable"`
	Status     ReservationStatus `json:"estado"`
	Kind       ReservationKind   `json:"tipo"`
	Price      Money             `json:"precio"`
	Paid       bool              `json:"pagada"`
	SaleID     string            `json:"venta_id,omitempty"`
	Notes      string            `json:"observaciones,omitempty"`
}

// Sale is a committed point-of-sale transaction (table "ventas").
type Sale struct {
	ID            string        `json:"id"`
	Date          string        `json:"fecha"` // YYYY-MM-DD, local day
	Total         Money         `json:"total"`
	Method        PaymentMethod `json:"metodo_pago"`
	OperatorID    string        `json:"usuario_id"`
	Kind          SaleKind      `json:"tipo_venta"`
	ReservationID string        `json:"reserva_id,omitempty"`
	Notes         string        `json:"observaciones,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Payment is one partial contribution toward a sale (table "pagos_venta").
type Payment struct {
	ID     string        `json:"id"`
	SaleID string        `json:"venta_id,omitempty"`
	Method PaymentMethod `json:"metodo_pago"`
	Amount Money         `json:"monto"`
}

// LineItem is one product-and-quantity entry in a retail sale
// (table "items_venta"). UnitPrice is a snapshot taken when the item was
// added: later catalog price changes do not rewrite history.
type LineItem struct {
	ID        string `json:"id,omitempty"`
	SaleID    string `json:"venta_id,omitempty"`
	ProductID string `json:"producto_id"`
	Name      string `json:"nombre,omitempty"` // joined, read-only
	Quantity  int    `json:"cantidad"`
	UnitPrice Money  `json:"precio_unitario"`
	Subtotal  Money  `json:"subtotal"`
}

// LocalDate formats t as the YYYY-MM-DD day in local time, the format the
// ventas and reservas tables use for their fecha columns.
func LocalDate(t time.Time) string {
	return t.Format("2006-01-02")
}
