/*
handlers.go - HTTP API handlers for the POS engine

PURPOSE:
  Exposes the sale, booking, and catalog operations via REST. Handles
  HTTP request/response, JSON serialization, and delegates everything
  else to the domain packages.

ENDPOINTS:
  Sales:
    POST   /api/sales                       Finalize a sale
    GET    /api/sales?fecha=YYYY-MM-DD      List sales (optionally one day)
    DELETE /api/sales/{id}                  Reverse a retail sale
    DELETE /api/sales/{id}/payments/{pid}   Remove one payment

  Reservations:
    POST   /api/reservations                Book a slot
    GET    /api/reservations/unpaid         Pending-payment list
    GET    /api/reservations/{id}           One reservation
    DELETE /api/reservations/{id}           Cancel (only if no sale refs)

  Catalog:
    GET    /api/products?categoria=...      Active products
    POST   /api/products                    Add a product
    GET    /api/courts                      Active courts
    POST   /api/courts                      Add a court

  Reports:
    GET    /api/reports/daily?fecha=...     Daily sales CSV

REQUEST FLOW:
  1. Parse HTTP request
  2. Rebuild the domain objects (composition, ledger) at the edge
  3. Call domain logic
  4. Serialize response
  5. Map error classes to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: validation failures, rejected before any write
  - 404: record not found
  - 409: conflicts (slot taken, negative stock, referenced reservation)
  - 500: store failures, including partial commits (which carry the
         committed sale id in the details so nothing is lost)

SECURITY NOTE:
  The operator id arrives in the request body; there is no session
  middleware here. The deployment fronts this with its own auth proxy.

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elpredio/pos-engine/booking"
	"github.com/elpredio/pos-engine/catalog"
	"github.com/elpredio/pos-engine/core"
	"github.com/elpredio/pos-engine/sales"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     core.Store
	Finalizer *sales.Finalizer
	Reversal  *sales.Reversal
	Reporter  *sales.Reporter
	Booking   *booking.Service
	Catalog   *catalog.Service
}

// NewHandler wires every domain service onto one store.
func NewHandler(store core.Store) *Handler {
	return &Handler{
		Store:     store,
		Finalizer: sales.NewFinalizer(store),
		Reversal:  sales.NewReversal(store),
		Reporter:  sales.NewReporter(store),
		Booking:   booking.NewService(store),
		Catalog:   catalog.NewService(store),
	}
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// FinalizeSale rebuilds the composition and ledger from the request and
// commits the sale.
func (h *Handler) FinalizeSale(w http.ResponseWriter, r *http.Request) {
	var req FinalizeSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ctx := r.Context()

	comp := &core.SaleComposition{Kind: req.Kind, Notes: req.Notes}
	if req.ReservationID != "" {
		res, err := h.Store.GetReservation(ctx, req.ReservationID)
		if err != nil {
			writeDomainError(w, "Failed to load reservation", err)
			return
		}
		comp.Reservation = &res
	}
	for _, item := range req.Items {
		product, err := h.Store.GetProduct(ctx, item.ProductID)
		if err != nil {
			writeDomainError(w, "Failed to load product", err)
			return
		}
		if err := comp.AddItem(product, item.Quantity); err != nil {
			writeDomainError(w, "Rejected line item", err)
			return
		}
	}

	total := comp.Total()
	ledger := &core.PaymentLedger{}
	for _, p := range req.Payments {
		if _, err := ledger.Add(p.Method, core.MoneyFromFloat(p.Amount), total); err != nil {
			writeDomainError(w, "Rejected payment", err)
			return
		}
	}

	result, err := h.Finalizer.Finalize(ctx, core.Session{OperatorID: req.OperatorID}, comp, ledger)
	if err != nil {
		var partial *core.PartialCommitError
		if errors.As(err, &partial) {
			salesPartial.Inc()
		}
		writeDomainError(w, "Failed to finalize sale", err)
		return
	}

	salesFinalized.WithLabelValues(string(req.Kind), string(result.Method)).Inc()
	writeJSON(w, http.StatusCreated, FinalizeSaleResponse{
		SaleID: result.SaleID,
		Method: result.Method,
		Total:  result.Total,
	})
}

// ListSales returns sales, optionally narrowed to one local day.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	filter := core.SaleFilter{Date: r.URL.Query().Get("fecha")}
	list, err := h.Store.ListSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}
	if list == nil {
		list = []core.Sale{}
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteSale reverses a retail sale, restoring stock first.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Reversal.DeleteSale(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete sale", err)
		return
	}
	salesReversed.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// DeletePayment removes one payment from a sale and refreshes the linked
// reservation's paid status.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "id")
	paymentID := chi.URLParam(r, "paymentID")

	result, err := h.Reversal.DeletePayment(r.Context(), saleID, paymentID)
	if err != nil {
		writeDomainError(w, "Failed to delete payment", err)
		return
	}
	paymentsReversed.Inc()
	if result.StatusStale {
		reservationStatusStale.Inc()
	}
	writeJSON(w, http.StatusOK, DeletePaymentResponse{
		ReservationID: result.ReservationID,
		Paid:          result.Paid,
		StatusStale:   result.StatusStale,
		Warning:       result.Warning,
	})
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

// CreateReservation books a slot.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Booking.Create(r.Context(),
		core.Session{OperatorID: req.OperatorID},
		core.Reservation{
			Date:      req.Date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			CourtID:   req.CourtID,
			Holder:    req.Holder,
			Kind:      req.Kind,
			Price:     core.MoneyFromFloat(req.Price),
			Notes:     req.Notes,
		})
	if err != nil {
		writeDomainError(w, "Failed to create reservation", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// GetReservation returns one reservation.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Booking.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListUnpaidReservations returns slots still awaiting payment.
func (h *Handler) ListUnpaidReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Booking.ListUnpaid(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reservations", err)
		return
	}
	if list == nil {
		list = []core.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteReservation cancels a reservation no sale references.
func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.Booking.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete reservation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListProducts returns active products, optionally one category.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := core.ProductCategory(r.URL.Query().Get("categoria"))
	list, err := h.Catalog.ListProducts(r.Context(), category)
	if err != nil {
		writeDomainError(w, "Failed to list products", err)
		return
	}
	if list == nil {
		list = []core.Product{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Catalog.CreateProduct(r.Context(), core.Product{
		Name:     req.Name,
		Price:    core.MoneyFromFloat(req.Price),
		Stock:    req.Stock,
		Category: req.Category,
	})
	if err != nil {
		writeDomainError(w, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// ListCourts returns the active courts.
func (h *Handler) ListCourts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.ListCourts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list courts", err)
		return
	}
	if list == nil {
		list = []core.Court{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateCourt adds a bookable court.
func (h *Handler) CreateCourt(w http.ResponseWriter, r *http.Request) {
	var req CreateCourtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Catalog.CreateCourt(r.Context(), core.Court{
		Name:        req.Name,
		Description: req.Description,
		HourlyRate:  core.MoneyFromFloat(req.HourlyRate),
	})
	if err != nil {
		writeDomainError(w, "Failed to create court", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailyReport streams the day's sales as a CSV download.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("fecha")
	if date == "" {
		writeError(w, http.StatusBadRequest, "fecha query parameter is required", nil)
		return
	}
	csv, err := h.Reporter.DailyCSV(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ventas_`+date+`.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the core error classes onto HTTP status codes. A
// partial commit is a 500 whose details carry the committed sale id: the
// client must not retry blindly.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case core.IsConflict(err), errors.Is(err, core.ErrReservationHasSale):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
