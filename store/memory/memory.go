// Package memory provides an in-memory core.Store for tests and demo mode.
//
// Behavior matches the real stores where the core depends on it: generated
// ids, conflict on duplicate reservation slots, cascading sale deletes, and
// not-found on missing rows. Everything is guarded by one mutex; the demo
// server and the test suite are the only intended users.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/elpredio/pos-engine/core"
)

// Store implements core.Store with mutex-guarded maps.
type Store struct {
	mu           sync.RWMutex
	sales        map[string]core.Sale
	payments     map[string]core.Payment
	items        map[string]core.LineItem
	products     map[string]core.Product
	reservations map[string]core.Reservation
	courts       map[string]core.Court
}

// New returns an empty store.
func New() *Store {
	return &Store{
		sales:        make(map[string]core.Sale),
		payments:     make(map[string]core.Payment),
		items:        make(map[string]core.LineItem),
		products:     make(map[string]core.Product),
		reservations: make(map[string]core.Reservation),
		courts:       make(map[string]core.Court),
	}
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) CreateSale(_ context.Context, sale core.Sale) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	s.sales[sale.ID] = sale
	return sale.ID, nil
}

func (s *Store) CreatePayments(_ context.Context, payments []core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range payments {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		s.payments[p.ID] = p
	}
	return nil
}

func (s *Store) CreateLineItems(_ context.Context, items []core.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		s.items[it.ID] = it
	}
	return nil
}

func (s *Store) GetSale(_ context.Context, id string) (core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return core.Sale{}, fmt.Errorf("sale %s: %w", id, core.ErrNotFound)
	}
	return sale, nil
}

func (s *Store) ListSales(_ context.Context, filter core.SaleFilter) ([]core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Sale
	for _, sale := range s.sales {
		if filter.Date != "" && sale.Date != filter.Date {
			continue
		}
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteSale removes the sale and cascades to its payments and line items,
// matching the foreign-key cascades of the real schemas.
func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[id]; !ok {
		return fmt.Errorf("sale %s: %w", id, core.ErrNotFound)
	}
	delete(s.sales, id)
	for pid, p := range s.payments {
		if p.SaleID == id {
			delete(s.payments, pid)
		}
	}
	for iid, it := range s.items {
		if it.SaleID == id {
			delete(s.items, iid)
		}
	}
	return nil
}

func (s *Store) SalesByReservation(_ context.Context, reservationID string) ([]core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Sale
	for _, sale := range s.sales {
		if sale.ReservationID == reservationID {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *Store) ListPayments(_ context.Context, saleID string) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Payment
	for _, p := range s.payments {
		if p.SaleID == saleID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeletePayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[id]; !ok {
		return fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) ListLineItems(_ context.Context, saleID string) ([]core.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.LineItem
	for _, it := range s.items {
		if it.SaleID == saleID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) CreateProduct(_ context.Context, p core.Product) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.products[p.ID] = p
	return p.ID, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return core.Product{}, fmt.Errorf("product %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context, category core.ProductCategory) ([]core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Product
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateProductStock(_ context.Context, id string, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, core.ErrNotFound)
	}
	if stock < 0 {
		return fmt.Errorf("product %s stock %d: %w", id, stock, core.ErrConflict)
	}
	p.Stock = stock
	s.products[id] = p
	return nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) CreateReservation(_ context.Context, r core.Reservation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same uniqueness the remote schema enforces on
	// (cancha_id, fecha, hora_inicio).
	for _, existing := range s.reservations {
		if existing.CourtID == r.CourtID && existing.Date == r.Date && existing.StartTime == r.StartTime {
			return "", fmt.Errorf("slot %s %s on court %s: %w",
				r.Date, r.StartTime, r.CourtID, core.ErrConflict)
		}
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.reservations[r.ID] = r
	return r.ID, nil
}

func (s *Store) GetReservation(_ context.Context, id string) (core.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return core.Reservation{}, fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *Store) ListUnpaidReservations(_ context.Context) ([]core.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Reservation
	for _, r := range s.reservations {
		if !r.Paid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s *Store) DeleteReservation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[id]; !ok {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	delete(s.reservations, id)
	return nil
}

func (s *Store) CompleteReservation(_ context.Context, id, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	r.Paid = true
	r.Status = core.ReservationCompleted
	r.SaleID = saleID
	s.reservations[id] = r
	return nil
}

func (s *Store) SetReservationPaid(_ context.Context, id string, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	r.Paid = paid
	s.reservations[id] = r
	return nil
}

// SetReservationPaidPrivileged delegates to the direct update: the in-memory
// store has no access policies to work around.
func (s *Store) SetReservationPaidPrivileged(ctx context.Context, id string, paid bool) error {
	return s.SetReservationPaid(ctx, id, paid)
}

// =============================================================================
// COURTS
// =============================================================================

func (s *Store) CreateCourt(_ context.Context, c core.Court) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.courts[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetCourt(_ context.Context, id string) (core.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courts[id]
	if !ok {
		return core.Court{}, fmt.Errorf("court %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListCourts(_ context.Context) ([]core.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Court
	for _, c := range s.courts {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
