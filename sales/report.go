/*
report.go - Daily sales report as CSV

PURPOSE:
  Builds the end-of-day export the owner shares with the accountant: one
  CSV per local day, one row per line item for retail sales, a single row
  for reservation sales. Built entirely from committed records; writing the
  bytes anywhere is the caller's problem.

FORMAT:
  Fecha,Tipo,Pagos,Total,Producto,Cantidad,Precio Unitario,Subtotal,Cancha,Responsable
  All fields quoted. The payments column joins entries with "; " so the
  column itself stays comma-free.
*/
package sales

import (
	"context"
	"fmt"
	"strings"

	"github.com/elpredio/pos-engine/core"
)

// csvHeader is the fixed column set of the daily report.
const csvHeader = "Fecha,Tipo,Pagos,Total,Producto,Cantidad,Precio Unitario,Subtotal,Cancha,Responsable"

// Reporter builds sales reports from a Store.
type Reporter struct {
	store core.Store
}

// NewReporter returns a Reporter backed by store.
func NewReporter(store core.Store) *Reporter {
	return &Reporter{store: store}
}

// DailyCSV renders the report for one local day (YYYY-MM-DD). A day with no
// sales yields just the header line.
func (r *Reporter) DailyCSV(ctx context.Context, date string) (string, error) {
	sales, err := r.store.ListSales(ctx, core.SaleFilter{Date: date})
	if err != nil {
		return "", fmt.Errorf("load sales for %s: %w", date, err)
	}

	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for _, sale := range sales {
		paymentsText, err := r.paymentsText(ctx, sale)
		if err != nil {
			return "", err
		}
		kind := kindLabel(sale.Kind)
		total := sale.Total.StringFixed(2)

		switch sale.Kind {
		case core.SaleReservation:
			courtName, holder := "N/A", "N/A"
			if sale.ReservationID != "" {
				if res, err := r.store.GetReservation(ctx, sale.ReservationID); err == nil {
					holder = res.Holder
					if res.CourtName != "" {
						courtName = res.CourtName
					} else if court, err := r.store.GetCourt(ctx, res.CourtID); err == nil {
						courtName = court.Name
					}
				}
			}
			writeRow(&b, sale.Date, kind, paymentsText, total, "Reserva", "1", total, total, courtName, holder)

		default:
			items, err := r.store.ListLineItems(ctx, sale.ID)
			if err != nil {
				return "", fmt.Errorf("load items for sale %s: %w", sale.ID, err)
			}
			if len(items) == 0 {
				writeRow(&b, sale.Date, kind, paymentsText, total, "Sin detalles", "", "", "", "", "")
				continue
			}
			for _, it := range items {
				name := it.Name
				if name == "" {
					name = "Producto"
				}
				writeRow(&b, sale.Date, kind, paymentsText, total,
					name, fmt.Sprintf("%d", it.Quantity),
					it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2), "", "")
			}
		}
	}

	return b.String(), nil
}

// paymentsText describes how the sale was paid. Mixed sales enumerate their
// payment rows; single-method sales show the sale total directly.
func (r *Reporter) paymentsText(ctx context.Context, sale core.Sale) (string, error) {
	if sale.Method != core.MethodMixed {
		return fmt.Sprintf("%s: $%s", methodLabel(sale.Method), sale.Total.StringFixed(2)), nil
	}

	payments, err := r.store.ListPayments(ctx, sale.ID)
	if err != nil {
		return "", fmt.Errorf("load payments for sale %s: %w", sale.ID, err)
	}
	parts := make([]string, 0, len(payments))
	for _, p := range payments {
		parts = append(parts, fmt.Sprintf("%s: $%s", methodLabel(p.Method), p.Amount.StringFixed(2)))
	}
	return strings.Join(parts, "; "), nil
}

func writeRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

func methodLabel(m core.PaymentMethod) string {
	switch m {
	case core.MethodCash:
		return "Efectivo"
	case core.MethodMercadoPago:
		return "MercadoPago"
	default:
		return "Mixto"
	}
}

func kindLabel(k core.SaleKind) string {
	switch k {
	case core.SaleReservation:
		return "Reservas"
	case core.SaleDrinks:
		return "Bebidas"
	case core.SaleKiosk:
		return "Kiosco"
	default:
		return string(k)
	}
}
