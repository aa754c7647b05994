/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Monetary
  amounts arrive as JSON numbers and are converted to decimal at the edge;
  no float ever reaches the ledger.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response / *DTO: types returned to clients

VALIDATION:
  Validation is done in the domain packages, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - core/types.go: the domain entities these map onto
*/
package api

import "github.com/elpredio/pos-engine/core"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ItemRequest is one product line in a sale being finalized.
type ItemRequest struct {
	ProductID string `json:"producto_id"`
	Quantity  int    `json:"cantidad"`
}

// PaymentRequest is one partial payment in a sale being finalized.
type PaymentRequest struct {
	Method core.PaymentMethod `json:"metodo_pago"`
	Amount float64            `json:"monto"`
}

// FinalizeSaleRequest is the full picture of a sale to commit: who is
// selling, what is being sold, and how it is being paid.
type FinalizeSaleRequest struct {
	OperatorID    string           `json:"usuario_id"`
	Kind          core.SaleKind    `json:"tipo_venta"`
	ReservationID string           `json:"reserva_id,omitempty"`
	Items         []ItemRequest    `json:"items,omitempty"`
	Payments      []PaymentRequest `json:"pagos"`
	Notes         string           `json:"observaciones,omitempty"`
}

// CreateReservationRequest books a slot.
type CreateReservationRequest struct {
	OperatorID string               `json:"usuario_id"`
	Date       string               `json:"fecha"`
	StartTime  string               `json:"hora_inicio"`
	EndTime    string               `json:"hora_fin"`
	CourtID    string               `json:"cancha_id"`
	Holder     string               `json:"responsable"`
	Kind       core.ReservationKind `json:"tipo"`
	Price      float64              `json:"precio"`
	Notes      string               `json:"observaciones,omitempty"`
}

// CreateProductRequest adds a product to the catalog.
type CreateProductRequest struct {
	Name     string               `json:"nombre"`
	Price    float64              `json:"precio"`
	Stock    int                  `json:"stock"`
	Category core.ProductCategory `json:"categoria"`
}

// CreateCourtRequest adds a bookable court.
type CreateCourtRequest struct {
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion,omitempty"`
	HourlyRate  float64 `json:"precio_hora"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// FinalizeSaleResponse reports a committed sale.
type FinalizeSaleResponse struct {
	SaleID string             `json:"venta_id"`
	Method core.PaymentMethod `json:"metodo_pago"`
	Total  core.Money         `json:"total"`
}

// DeletePaymentResponse reports a partial reversal. Warning is set when
// the payment is gone but the reservation's paid status could not be
// rewritten and must be checked by hand.
type DeletePaymentResponse struct {
	ReservationID string `json:"reserva_id,omitempty"`
	Paid          bool   `json:"pagada"`
	StatusStale   bool   `json:"estado_desactualizado,omitempty"`
	Warning       string `json:"warning,omitempty"`
}

// IDResponse returns the id of a newly created record.
type IDResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the JSON error body for all non-2xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
