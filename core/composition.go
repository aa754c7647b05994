/*
composition.go - What the sale is for, and what it costs

PURPOSE:
  A sale is composed of either a reservation reference (price fixed when the
  slot was booked) or a list of retail line items. The composition computes
  the authoritative total as a pure function of its contents.

ADDITIVE TOTAL:
  Total() always adds the reservation price (if a reservation is attached)
  to the sum of line-item subtotals. The two are additive rather than
  exclusive: UI flows populate only one, but a reservation sale with extra
  items attached charges for both. This mirrors the production system's
  unconditional summation.

SEE ALSO:
  - ledger.go: payments accumulate against Total()
  - sales/finalizer.go: commits the composition
*/
package core

import "github.com/shopspring/decimal"

// =============================================================================
// SALE COMPOSITION
// =============================================================================

// SaleComposition is the transient working copy of the sale being built.
// Like PaymentLedger it belongs to one operator session and is discarded
// after commit or abandonment.
type SaleComposition struct {
	Kind        SaleKind
	Reservation *Reservation // price snapshot; nil for retail sales
	Items       []LineItem
	Notes       string
}

// AddItem validates and appends a line item for product, snapshotting the
// unit price at add time. available is the product's current stock as read
// when the catalog was loaded; the check here keeps the operator from
// building a sale the stock cannot satisfy, the store's constraint is the
// final word.
func (c *SaleComposition) AddItem(product Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidAmount
	}
	if quantity > product.Stock {
		return &InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: quantity,
			Available: product.Stock,
		}
	}

	c.Items = append(c.Items, LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Subtotal:  product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	})
	return nil
}

// RemoveItem deletes the item at index; out-of-range indexes are ignored.
func (c *SaleComposition) RemoveItem(index int) {
	if index < 0 || index >= len(c.Items) {
		return
	}
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
}

// Total computes the sale total: reservation price, if any, plus the sum of
// line-item subtotals. Empty composition totals zero. Pure and
// order-independent.
func (c *SaleComposition) Total() Money {
	total := decimal.Zero
	if c.Reservation != nil {
		total = total.Add(c.Reservation.Price)
	}
	for _, it := range c.Items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// IsEmpty reports whether the composition has neither a reservation nor any
// line item.
func (c *SaleComposition) IsEmpty() bool {
	return c.Reservation == nil && len(c.Items) == 0
}

// QuantityByProduct aggregates item quantities per distinct product.
// The finalizer decrements stock once per product, not once per line.
func (c *SaleComposition) QuantityByProduct() map[string]int {
	byProduct := make(map[string]int, len(c.Items))
	for _, it := range c.Items {
		byProduct[it.ProductID] += it.Quantity
	}
	return byProduct
}
