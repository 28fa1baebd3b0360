package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// StockLevel classifies an inventory row.
type StockLevel string

const (
	StockOK       StockLevel = "OK"
	StockLow      StockLevel = "LOW"
	StockCritical StockLevel = "CRITICAL"
)

var (
	minStockRatio      = decimal.NewFromFloat(0.3)
	criticalStockRatio = decimal.NewFromFloat(0.3)
)

// InventoryRow is one product in the stock view. The API has no stock
// endpoint; quantity is derived from the product volume and the minimum is
// 30% of it, rounded down.
type InventoryRow struct {
	Product     Product
	Quantity    decimal.Decimal
	MinQuantity decimal.Decimal
	Level       StockLevel
	Value       decimal.Decimal
}

// NewInventoryRow derives the stock figures for p.
func NewInventoryRow(p Product) InventoryRow {
	qty := p.Volume
	min := qty.Mul(minStockRatio).Floor()
	return InventoryRow{
		Product:     p,
		Quantity:    qty,
		MinQuantity: min,
		Level:       ClassifyStock(qty, min),
		Value:       qty.Mul(p.DefaultPrice),
	}
}

// ClassifyStock returns Critical at or below 30% of min, Low at or below min.
func ClassifyStock(qty, min decimal.Decimal) StockLevel {
	switch {
	case qty.LessThanOrEqual(min.Mul(criticalStockRatio)):
		return StockCritical
	case qty.LessThanOrEqual(min):
		return StockLow
	default:
		return StockOK
	}
}

// Inventory is the stock view over a set of products.
type Inventory struct {
	Rows          []InventoryRow
	TotalQuantity decimal.Decimal
	TotalValue    decimal.Decimal
}

// BuildInventory derives rows for active products, most urgent first, then by name.
func BuildInventory(products []Product) Inventory {
	inv := Inventory{TotalQuantity: decimal.Zero, TotalValue: decimal.Zero}
	for _, p := range products {
		if !p.Active {
			continue
		}
		row := NewInventoryRow(p)
		inv.Rows = append(inv.Rows, row)
		inv.TotalQuantity = inv.TotalQuantity.Add(row.Quantity)
		inv.TotalValue = inv.TotalValue.Add(row.Value)
	}
	rank := map[StockLevel]int{StockCritical: 0, StockLow: 1, StockOK: 2}
	sort.SliceStable(inv.Rows, func(i, j int) bool {
		a, b := inv.Rows[i], inv.Rows[j]
		if rank[a.Level] != rank[b.Level] {
			return rank[a.Level] < rank[b.Level]
		}
		return a.Product.Name < b.Product.Name
	})
	return inv
}
