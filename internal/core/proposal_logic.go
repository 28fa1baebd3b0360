package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize cleans up LLM output: blank or "null" strings, comma decimals.
func (p *Proposal) Normalize() {
	p.PurchaseDate = nullable(p.PurchaseDate)
	p.ExpectedDeliveryDate = nullable(p.ExpectedDeliveryDate)
	p.Notes = strings.TrimSpace(p.Notes)

	if p.PurchaseDate == "" {
		p.PurchaseDate = Today().String()
	}

	for i := range p.Lines {
		line := &p.Lines[i]
		line.UnitPrice = strings.ReplaceAll(nullable(line.UnitPrice), ",", ".")
	}
}

// Validate enforces the same rules the composer does, before any lookup.
func (p *Proposal) Validate() error {
	if p.SupplierID <= 0 {
		return errors.New("proposal must specify a supplier")
	}
	if len(p.Lines) == 0 {
		return errors.New("proposal must have at least one line")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %v", p.Confidence)
	}

	purchase, err := ParseDate(p.PurchaseDate)
	if err != nil {
		return fmt.Errorf("invalid purchase date: %w", err)
	}
	if p.ExpectedDeliveryDate != "" {
		expected, err := ParseDate(p.ExpectedDeliveryDate)
		if err != nil {
			return fmt.Errorf("invalid expected delivery date: %w", err)
		}
		if expected.Before(purchase.Time) {
			return errors.New("expected delivery date is before the purchase date")
		}
	}

	for i, line := range p.Lines {
		if line.ProductID <= 0 {
			return fmt.Errorf("line %d: missing product", i+1)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("line %d: quantity must be at least 1, got %d", i+1, line.Quantity)
		}
		if line.UnitPrice == "" {
			continue
		}
		price, err := decimal.NewFromString(line.UnitPrice)
		if err != nil {
			return fmt.Errorf("line %d: invalid unit price %q: %v", i+1, line.UnitPrice, err)
		}
		if price.IsNegative() {
			return fmt.Errorf("line %d: unit price cannot be negative", i+1)
		}
	}
	return nil
}

// ProductGetter fetches a product by id. ProductService satisfies it.
type ProductGetter interface {
	Get(ctx context.Context, id int64) (*Product, error)
}

// SupplierGetter fetches a supplier by id. SupplierService satisfies it.
type SupplierGetter interface {
	Get(ctx context.Context, id int64) (*Supplier, error)
}

// ApplyTo looks up the proposal's supplier and products and, once every lookup
// has succeeded, replays the proposal through the composer's operations. The
// composer is untouched when any lookup fails.
func (p *Proposal) ApplyTo(ctx context.Context, c *Composer, suppliers SupplierGetter, products ProductGetter) error {
	supplier, err := suppliers.Get(ctx, p.SupplierID)
	if err != nil {
		return fmt.Errorf("proposal supplier %d: %w", p.SupplierID, err)
	}
	lines := make([]*Product, len(p.Lines))
	for i, line := range p.Lines {
		prod, err := products.Get(ctx, line.ProductID)
		if err != nil {
			return fmt.Errorf("proposal line %d product %d: %w", i+1, line.ProductID, err)
		}
		lines[i] = prod
	}

	c.SelectSupplierRecord(*supplier)
	if d, err := ParseDate(p.PurchaseDate); err == nil {
		c.SetPurchaseDate(d)
	}
	if p.ExpectedDeliveryDate != "" {
		if d, err := ParseDate(p.ExpectedDeliveryDate); err == nil {
			c.SetExpectedDeliveryDate(&d)
		}
	}
	if p.Notes != "" {
		c.SetNotes(p.Notes)
	}
	for i, line := range p.Lines {
		c.SetPendingProduct(*lines[i])
		c.SetPendingQuantity(line.Quantity)
		if line.UnitPrice != "" {
			if price, err := decimal.NewFromString(line.UnitPrice); err == nil {
				c.SetPendingUnitPrice(price)
			}
		}
		c.AddItem()
	}
	return nil
}

func nullable(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}
