/*
Package sqlite provides a SQLite-backed core.Store for single-site
deployments that do not use the managed remote database.

PURPOSE:
  Implements the full store contract against a local file (or ":memory:")
  database. The schema mirrors the remote one: Spanish table and column
  names, cascade deletes from ventas to its children, the unique slot
  index on reservas, and a CHECK backstop keeping stock non-negative.

KEY TABLES:
  canchas:      bookable facilities
  productos:    sellable goods with stock counters
  reservas:     booked slots (UNIQUE on cancha_id, fecha, hora_inicio)
  ventas:       committed sales
  pagos_venta:  payment breakdown per sale (ON DELETE CASCADE)
  items_venta:  line items per sale (ON DELETE CASCADE)

MONEY:
  Stored as TEXT from decimal.String() and parsed back with
  decimal.NewFromString, so no binary floating point ever touches a price.

CONCURRENCY:
  Uses sync.RWMutex plus WAL mode. There are no access policies on a
  local database, so the privileged reservation update delegates to the
  direct one.

SEE ALSO:
  - core/store.go: interface definitions and error contract
  - store/postgrest: the remote implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/elpredio/pos-engine/core"
)

// Store implements core.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS canchas (
		id TEXT PRIMARY KEY,
		nombre TEXT NOT NULL,
		descripcion TEXT,
		precio_hora TEXT NOT NULL,
		activa BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS productos (
		id TEXT PRIMARY KEY,
		nombre TEXT NOT NULL,
		precio TEXT NOT NULL,
		stock INTEGER NOT NULL CHECK (stock >= 0),
		categoria TEXT NOT NULL,
		activo BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS reservas (
		id TEXT PRIMARY KEY,
		fecha TEXT NOT NULL,
		hora_inicio TEXT NOT NULL,
		hora_fin TEXT NOT NULL,
		cancha_id TEXT NOT NULL REFERENCES canchas(id),
		usuario_id TEXT NOT NULL,
		responsable TEXT NOT NULL,
		estado TEXT NOT NULL,
		tipo TEXT NOT NULL,
		precio TEXT NOT NULL,
		pagada BOOLEAN NOT NULL DEFAULT FALSE,
		venta_id TEXT,
		observaciones TEXT
	);

	-- The only real guard against double-booking: one reservation per
	-- court, day, and start hour.
	CREATE UNIQUE INDEX IF NOT EXISTS reservas_cancha_id_fecha_hora_inicio_key
		ON reservas(cancha_id, fecha, hora_inicio);

	CREATE TABLE IF NOT EXISTS ventas (
		id TEXT PRIMARY KEY,
		fecha TEXT NOT NULL,
		total TEXT NOT NULL,
		metodo_pago TEXT NOT NULL,
		usuario_id TEXT NOT NULL,
		tipo_venta TEXT NOT NULL,
		reserva_id TEXT,
		observaciones TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ventas_fecha ON ventas(fecha);
	CREATE INDEX IF NOT EXISTS idx_ventas_reserva ON ventas(reserva_id)
		WHERE reserva_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS pagos_venta (
		id TEXT PRIMARY KEY,
		venta_id TEXT NOT NULL REFERENCES ventas(id) ON DELETE CASCADE,
		metodo_pago TEXT NOT NULL,
		monto TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pagos_venta ON pagos_venta(venta_id);

	CREATE TABLE IF NOT EXISTS items_venta (
		id TEXT PRIMARY KEY,
		venta_id TEXT NOT NULL REFERENCES ventas(id) ON DELETE CASCADE,
		producto_id TEXT NOT NULL REFERENCES productos(id),
		cantidad INTEGER NOT NULL,
		precio_unitario TEXT NOT NULL,
		subtotal TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_venta ON items_venta(venta_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SALES
// =============================================================================

// CreateSale inserts the sale record and returns its generated id.
func (s *Store) CreateSale(ctx context.Context, sale core.Sale) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ventas (id, fecha, total, metodo_pago, usuario_id, tipo_venta, reserva_id, observaciones, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.Date, sale.Total.String(), sale.Method, sale.OperatorID,
		sale.Kind, nullString(sale.ReservationID), nullString(sale.Notes),
		sale.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", wrapErr("insert sale", err)
	}
	return sale.ID, nil
}

func (s *Store) CreatePayments(ctx context.Context, payments []core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payments insert: %w", err)
	}
	defer tx.Rollback()

	for _, p := range payments {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pagos_venta (id, venta_id, metodo_pago, monto)
			VALUES (?, ?, ?, ?)`,
			p.ID, p.SaleID, p.Method, p.Amount.String(),
		); err != nil {
			return wrapErr("insert payment", err)
		}
	}
	return tx.Commit()
}

func (s *Store) CreateLineItems(ctx context.Context, items []core.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin items insert: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items_venta (id, venta_id, producto_id, cantidad, precio_unitario, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, it.SaleID, it.ProductID, it.Quantity,
			it.UnitPrice.String(), it.Subtotal.String(),
		); err != nil {
			return wrapErr("insert line item", err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetSale(ctx context.Context, id string) (core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, fecha, total, metodo_pago, usuario_id, tipo_venta, reserva_id, observaciones, created_at
		FROM ventas WHERE id = ?`, id)
	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return core.Sale{}, fmt.Errorf("sale %s: %w", id, core.ErrNotFound)
	}
	return sale, err
}

func (s *Store) ListSales(ctx context.Context, filter core.SaleFilter) ([]core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, fecha, total, metodo_pago, usuario_id, tipo_venta, reserva_id, observaciones, created_at
		FROM ventas`
	var args []any
	if filter.Date != "" {
		query += ` WHERE fecha = ?`
		args = append(args, filter.Date)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []core.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// DeleteSale removes the sale; foreign keys cascade to payments and items.
func (s *Store) DeleteSale(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM ventas WHERE id = ?`, id)
	if err != nil {
		return wrapErr("delete sale", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sale %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) SalesByReservation(ctx context.Context, reservationID string) ([]core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fecha, total, metodo_pago, usuario_id, tipo_venta, reserva_id, observaciones, created_at
		FROM ventas WHERE reserva_id = ?`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("query sales by reservation: %w", err)
	}
	defer rows.Close()

	var sales []core.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) ListPayments(ctx context.Context, saleID string) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, venta_id, metodo_pago, monto FROM pagos_venta
		WHERE venta_id = ? ORDER BY id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		var p core.Payment
		var amount string
		if err := rows.Scan(&p.ID, &p.SaleID, &p.Method, &amount); err != nil {
			return nil, err
		}
		p.Amount = mustDecimal(amount)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM pagos_venta WHERE id = ?`, id)
	if err != nil {
		return wrapErr("delete payment", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) ListLineItems(ctx context.Context, saleID string) ([]core.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.venta_id, i.producto_id, p.nombre, i.cantidad, i.precio_unitario, i.subtotal
		FROM items_venta i
		JOIN productos p ON p.id = i.producto_id
		WHERE i.venta_id = ? ORDER BY i.id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var items []core.LineItem
	for rows.Next() {
		var it core.LineItem
		var unitPrice, subtotal string
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Name, &it.Quantity, &unitPrice, &subtotal); err != nil {
			return nil, err
		}
		it.UnitPrice = mustDecimal(unitPrice)
		it.Subtotal = mustDecimal(subtotal)
		items = append(items, it)
	}
	return items, rows.Err()
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) CreateProduct(ctx context.Context, p core.Product) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO productos (id, nombre, precio, stock, categoria, activo)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Price.String(), p.Stock, p.Category, p.Active,
	)
	if err != nil {
		return "", wrapErr("insert product", err)
	}
	return p.ID, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p core.Product
	var price string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nombre, precio, stock, categoria, activo FROM productos WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Category, &p.Active)
	if err == sql.ErrNoRows {
		return core.Product{}, fmt.Errorf("product %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Product{}, err
	}
	p.Price = mustDecimal(price)
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, category core.ProductCategory) ([]core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, nombre, precio, stock, categoria, activo FROM productos WHERE activo = TRUE`
	var args []any
	if category != "" {
		query += ` AND categoria = ?`
		args = append(args, category)
	}
	query += ` ORDER BY nombre`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var p core.Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Category, &p.Active); err != nil {
			return nil, err
		}
		p.Price = mustDecimal(price)
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProductStock overwrites the stock counter. The CHECK constraint
// rejects negative values; that rejection surfaces as a conflict.
func (s *Store) UpdateProductStock(ctx context.Context, id string, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE productos SET stock = ? WHERE id = ?`, stock, id)
	if err != nil {
		return wrapErr("update stock", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) CreateReservation(ctx context.Context, r core.Reservation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reservas (id, fecha, hora_inicio, hora_fin, cancha_id, usuario_id,
			responsable, estado, tipo, precio, pagada, venta_id, observaciones)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Date, r.StartTime, r.EndTime, r.CourtID, r.OperatorID,
		r.Holder, r.Status, r.Kind, r.Price.String(), r.Paid,
		nullString(r.SaleID), nullString(r.Notes),
	)
	if err != nil {
		return "", wrapErr("insert reservation", err)
	}
	return r.ID, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (core.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.fecha, r.hora_inicio, r.hora_fin, r.cancha_id, c.nombre,
			r.usuario_id, r.responsable, r.estado, r.tipo, r.precio, r.pagada,
			r.venta_id, r.observaciones
		FROM reservas r JOIN canchas c ON c.id = r.cancha_id
		WHERE r.id = ?`, id)
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return core.Reservation{}, fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return res, err
}

func (s *Store) ListUnpaidReservations(ctx context.Context) ([]core.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.fecha, r.hora_inicio, r.hora_fin, r.cancha_id, c.nombre,
			r.usuario_id, r.responsable, r.estado, r.tipo, r.precio, r.pagada,
			r.venta_id, r.observaciones
		FROM reservas r JOIN canchas c ON c.id = r.cancha_id
		WHERE r.pagada = FALSE
		ORDER BY r.fecha, r.hora_inicio`)
	if err != nil {
		return nil, fmt.Errorf("query unpaid reservations: %w", err)
	}
	defer rows.Close()

	var reservations []core.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM reservas WHERE id = ?`, id)
	if err != nil {
		return wrapErr("delete reservation", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) CompleteReservation(ctx context.Context, id, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE reservas SET pagada = TRUE, estado = ?, venta_id = ? WHERE id = ?`,
		core.ReservationCompleted, saleID, id)
	if err != nil {
		return wrapErr("complete reservation", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) SetReservationPaid(ctx context.Context, id string, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE reservas SET pagada = ? WHERE id = ?`, paid, id)
	if err != nil {
		return wrapErr("set reservation paid", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reservation %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// SetReservationPaidPrivileged delegates to the direct update: there is no
// row-level security on a local database.
func (s *Store) SetReservationPaidPrivileged(ctx context.Context, id string, paid bool) error {
	return s.SetReservationPaid(ctx, id, paid)
}

// =============================================================================
// COURTS
// =============================================================================

func (s *Store) CreateCourt(ctx context.Context, c core.Court) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO canchas (id, nombre, descripcion, precio_hora, activa)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, nullString(c.Description), c.HourlyRate.String(), c.Active,
	)
	if err != nil {
		return "", wrapErr("insert court", err)
	}
	return c.ID, nil
}

func (s *Store) GetCourt(ctx context.Context, id string) (core.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c core.Court
	var description sql.NullString
	var rate string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nombre, descripcion, precio_hora, activa FROM canchas WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &description, &rate, &c.Active)
	if err == sql.ErrNoRows {
		return core.Court{}, fmt.Errorf("court %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Court{}, err
	}
	c.Description = description.String
	c.HourlyRate = mustDecimal(rate)
	return c, nil
}

func (s *Store) ListCourts(ctx context.Context) ([]core.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre, descripcion, precio_hora, activa FROM canchas
		WHERE activa = TRUE ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("query courts: %w", err)
	}
	defer rows.Close()

	var courts []core.Court
	for rows.Next() {
		var c core.Court
		var description sql.NullString
		var rate string
		if err := rows.Scan(&c.ID, &c.Name, &description, &rate, &c.Active); err != nil {
			return nil, err
		}
		c.Description = description.String
		c.HourlyRate = mustDecimal(rate)
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (core.Sale, error) {
	var sale core.Sale
	var total, createdAt string
	var reservationID, notes sql.NullString

	err := row.Scan(&sale.ID, &sale.Date, &total, &sale.Method, &sale.OperatorID,
		&sale.Kind, &reservationID, &notes, &createdAt)
	if err != nil {
		return sale, err
	}
	sale.Total = mustDecimal(total)
	sale.ReservationID = reservationID.String
	sale.Notes = notes.String
	sale.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return sale, nil
}

func scanReservation(row rowScanner) (core.Reservation, error) {
	var r core.Reservation
	var price string
	var saleID, notes sql.NullString

	err := row.Scan(&r.ID, &r.Date, &r.StartTime, &r.EndTime, &r.CourtID, &r.CourtName,
		&r.OperatorID, &r.Holder, &r.Status, &r.Kind, &price, &r.Paid, &saleID, &notes)
	if err != nil {
		return r, err
	}
	r.Price = mustDecimal(price)
	r.SaleID = saleID.String
	r.Notes = notes.String
	return r, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// wrapErr normalizes SQLite failures onto the core sentinels.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "CHECK constraint failed") {
		return fmt.Errorf("%s: %v: %w", op, err, core.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
