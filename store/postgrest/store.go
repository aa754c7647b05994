/*
store.go - core.Store adapter over the PostgREST client

PURPOSE:
  Maps each store operation onto one table request. Ids are generated
  client-side (uuid v4) so a committed step is always addressable even
  when a later step fails.

WIRE NOTES:
  - Joined display names (court on a reservation, product on a line item)
    come from PostgREST resource embedding: select=*,canchas(nombre).
  - Line items are inserted through a narrowed struct because the domain
    type carries the joined product name, which is not a column.
  - The privileged reservation update calls the update_reserva_pagada
    function instead of patching the row.

SEE ALSO:
  - client.go: transport and error normalization
  - store/sqlite: the local twin of this schema
*/
package postgrest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/elpredio/pos-engine/core"
)

// Store implements core.Store against a remote PostgREST API.
type Store struct {
	c *Client
}

// New builds the remote store. See NewClient for the credential shape.
func New(baseURL, key string) *Store {
	return &Store{c: NewClient(baseURL, key)}
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) CreateSale(ctx context.Context, sale core.Sale) (string, error) {
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	var out []core.Sale
	if err := s.c.Insert(ctx, "ventas", []core.Sale{sale}, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("insert ventas: empty representation")
	}
	return out[0].ID, nil
}

func (s *Store) CreatePayments(ctx context.Context, payments []core.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	rows := make([]core.Payment, len(payments))
	for i, p := range payments {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		rows[i] = p
	}
	return s.c.Insert(ctx, "pagos_venta", rows, nil)
}

// itemRow narrows core.LineItem to the columns of items_venta: the domain
// type also carries the joined product name.
type itemRow struct {
	ID        string     `json:"id"`
	SaleID    string     `json:"venta_id"`
	ProductID string     `json:"producto_id"`
	Quantity  int        `json:"cantidad"`
	UnitPrice core.Money `json:"precio_unitario"`
	Subtotal  core.Money `json:"subtotal"`
}

func (s *Store) CreateLineItems(ctx context.Context, items []core.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]itemRow, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		rows[i] = itemRow{
			ID:        it.ID,
			SaleID:    it.SaleID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		}
	}
	return s.c.Insert(ctx, "items_venta", rows, nil)
}

func (s *Store) GetSale(ctx context.Context, id string) (core.Sale, error) {
	var out []core.Sale
	err := s.c.Select(ctx, "ventas", map[string]string{"id": "eq." + id}, &out)
	if err != nil {
		return core.Sale{}, err
	}
	if len(out) == 0 {
		return core.Sale{}, fmt.Errorf("sale %s: %w", id, core.ErrNotFound)
	}
	return out[0], nil
}

func (s *Store) ListSales(ctx context.Context, filter core.SaleFilter) ([]core.Sale, error) {
	params := map[string]string{"order": "created_at.desc"}
	if filter.Date != "" {
		params["fecha"] = "eq." + filter.Date
	}
	var out []core.Sale
	if err := s.c.Select(ctx, "ventas", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	n, err := s.c.Delete(ctx, "ventas", map[string]string{"id": "eq." + id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sale %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) SalesByReservation(ctx context.Context, reservationID string) ([]core.Sale, error) {
	var out []core.Sale
	err := s.c.Select(ctx, "ventas", map[string]string{"reserva_id": "eq." + reservationID}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListPayments(ctx context.Context, saleID string) ([]core.Payment, error) {
	var out []core.Payment
	err := s.c.Select(ctx, "pagos_venta", map[string]string{
		"venta_id": "eq." + saleID,
		"order":    "id",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	n, err := s.c.Delete(ctx, "pagos_venta", map[string]string{"id": "eq." + id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// lineItemRow carries the embedded product for the joined name.
type lineItemRow struct {
	core.LineItem
	Product *struct {
		Name string `json:"nombre"`
	} `json:"productos,omitempty"`
}

func (s *Store) ListLineItems(ctx context.Context, saleID string) ([]core.LineItem, error) {
	var rows []lineItemRow
	err := s.c.Select(ctx, "items_venta", map[string]string{
		"select":   "*,productos(nombre)",
		"venta_id": "eq." + saleID,
		"order":    "id",
	}, &rows)
	if err != nil {
		return nil, err
	}
	items := make([]core.LineItem, len(rows))
	for i, r := range rows {
		item := r.LineItem
		if r.Product != nil {
			item.Name = r.Product.Name
		}
		items[i] = item
	}
	return items, nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) CreateProduct(ctx context.Context, p core.Product) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	var out []core.Product
	if err := s.c.Insert(ctx, "productos", []core.Product{p}, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("insert productos: empty representation")
	}
	return out[0].ID, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (core.Product, error) {
	var out []core.Product
	err := s.c.Select(ctx, "productos", map[string]string{"id": "eq." + id}, &out)
	if err != nil {
		return core.Product{}, err
	}
	if len(out) == 0 {
		return core.Product{}, fmt.Errorf("product %s: %w", id, core.ErrNotFound)
	}
	return out[0], nil
}

func (s *Store) ListProducts(ctx context.Context, category core.ProductCategory) ([]core.Product, error) {
	params := map[string]string{
		"activo": "eq.true",
		"order":  "nombre",
	}
	if category != "" {
		params["categoria"] = "eq." + string(category)
	}
	var out []core.Product
	if err := s.c.Select(ctx, "productos", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateProductStock(ctx context.Context, id string, stock int) error {
	n, err := s.c.Update(ctx, "productos",
		map[string]string{"id": "eq." + id},
		map[string]int{"stock": stock})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

// reservationRow carries the embedded court for the joined name.
type reservationRow struct {
	core.Reservation
	Court *struct {
		Name string `json:"nombre"`
	} `json:"canchas,omitempty"`
}

func (r reservationRow) domain() core.Reservation {
	res := r.Reservation
	if r.Court != nil {
		res.CourtName = r.Court.Name
	}
	return res
}

func (s *Store) CreateReservation(ctx context.Context, r core.Reservation) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CourtName = "" // joined field, not a column
	var out []core.Reservation
	if err := s.c.Insert(ctx, "reservas", []core.Reservation{r}, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("insert reservas: empty representation")
	}
	return out[0].ID, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (core.Reservation, error) {
	var rows []reservationRow
	err := s.c.Select(ctx, "reservas", map[string]string{
		"select": "*,canchas(nombre)",
		"id":     "eq." + id,
	}, &rows)
	if err != nil {
		return core.Reservation{}, err
	}
	if len(rows) == 0 {
		return core.Reservation{}, fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return rows[0].domain(), nil
}

func (s *Store) ListUnpaidReservations(ctx context.Context) ([]core.Reservation, error) {
	var rows []reservationRow
	err := s.c.Select(ctx, "reservas", map[string]string{
		"select": "*,canchas(nombre)",
		"pagada": "eq.false",
		"order":  "fecha,hora_inicio",
	}, &rows)
	if err != nil {
		return nil, err
	}
	reservations := make([]core.Reservation, len(rows))
	for i, r := range rows {
		reservations[i] = r.domain()
	}
	return reservations, nil
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	n, err := s.c.Delete(ctx, "reservas", map[string]string{"id": "eq." + id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) CompleteReservation(ctx context.Context, id, saleID string) error {
	n, err := s.c.Update(ctx, "reservas",
		map[string]string{"id": "eq." + id},
		map[string]any{
			"pagada":   true,
			"estado":   core.ReservationCompleted,
			"venta_id": saleID,
		})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) SetReservationPaid(ctx context.Context, id string, paid bool) error {
	n, err := s.c.Update(ctx, "reservas",
		map[string]string{"id": "eq." + id},
		map[string]bool{"pagada": paid})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// SetReservationPaidPrivileged routes the write through a definer-rights
// function so it succeeds even when row-level security denies the direct
// patch for this operator.
func (s *Store) SetReservationPaidPrivileged(ctx context.Context, id string, paid bool) error {
	return s.c.RPC(ctx, "update_reserva_pagada", map[string]any{
		"reserva_id":   id,
		"nueva_pagada": paid,
	})
}

// =============================================================================
// COURTS
// =============================================================================

func (s *Store) CreateCourt(ctx context.Context, c core.Court) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var out []core.Court
	if err := s.c.Insert(ctx, "canchas", []core.Court{c}, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("insert canchas: empty representation")
	}
	return out[0].ID, nil
}

func (s *Store) GetCourt(ctx context.Context, id string) (core.Court, error) {
	var out []core.Court
	err := s.c.Select(ctx, "canchas", map[string]string{"id": "eq." + id}, &out)
	if err != nil {
		return core.Court{}, err
	}
	if len(out) == 0 {
		return core.Court{}, fmt.Errorf("court %s: %w", id, core.ErrNotFound)
	}
	return out[0], nil
}

func (s *Store) ListCourts(ctx context.Context) ([]core.Court, error) {
	var out []core.Court
	err := s.c.Select(ctx, "canchas", map[string]string{
		"activa": "eq.true",
		"order":  "nombre",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
