/*
Package catalog manages the sellable products and bookable courts.

Validation lives here; persistence is the Store's. Products and courts are
created active and can only be hidden by the store-side active flags - the
POS never hard-deletes catalog entries because committed line items keep
referencing them.
*/
package catalog

import (
	"context"
	"fmt"

	"github.com/elpredio/pos-engine/core"
)

// Service manages catalog entries against a Store.
type Service struct {
	store core.Store
}

// NewService returns a catalog Service backed by store.
func NewService(store core.Store) *Service {
	return &Service{store: store}
}

// CreateProduct validates and inserts a product.
func (s *Service) CreateProduct(ctx context.Context, p core.Product) (string, error) {
	if p.Name == "" {
		return "", fmt.Errorf("%w: product name is required", core.ErrInvalidAmount)
	}
	if p.Price.Sign() <= 0 {
		return "", core.ErrInvalidAmount
	}
	if p.Stock < 0 {
		return "", core.ErrInvalidAmount
	}
	if !p.Category.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", core.ErrInvalidAmount, p.Category)
	}
	p.Active = true
	return s.store.CreateProduct(ctx, p)
}

// ListProducts returns active products ordered by name, optionally narrowed
// to one category.
func (s *Service) ListProducts(ctx context.Context, category core.ProductCategory) ([]core.Product, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", core.ErrInvalidAmount, category)
	}
	return s.store.ListProducts(ctx, category)
}

// GetProduct returns one product with its current stock.
func (s *Service) GetProduct(ctx context.Context, id string) (core.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// CreateCourt validates and inserts a court.
func (s *Service) CreateCourt(ctx context.Context, c core.Court) (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("%w: court name is required", core.ErrInvalidAmount)
	}
	if c.HourlyRate.Sign() <= 0 {
		return "", core.ErrInvalidAmount
	}
	c.Active = true
	return s.store.CreateCourt(ctx, c)
}

// ListCourts returns active courts ordered by name.
func (s *Service) ListCourts(ctx context.Context) ([]core.Court, error) {
	return s.store.ListCourts(ctx)
}
