package core_test

import (
	"testing"

	"supply-console/internal/core"
)

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		qty, min string
		want     core.StockLevel
	}{
		{"0", "0", core.StockCritical},
		{"3", "10", core.StockCritical},
		{"4", "10", core.StockLow},
		{"10", "10", core.StockLow},
		{"11", "10", core.StockOK},
	}
	for _, tt := range tests {
		if got := core.ClassifyStock(dec(tt.qty), dec(tt.min)); got != tt.want {
			t.Errorf("ClassifyStock(%s, %s) = %s, want %s", tt.qty, tt.min, got, tt.want)
		}
	}
}

func TestBuildInventory(t *testing.T) {
	inv := core.BuildInventory([]core.Product{
		{ID: 1, Name: "Zinco", Volume: dec("10"), DefaultPrice: dec("2"), Active: true},
		{ID: 2, Name: "Arruela", Volume: dec("0"), DefaultPrice: dec("5"), Active: true},
		{ID: 3, Name: "Inativo", Volume: dec("100"), DefaultPrice: dec("1"), Active: false},
	})
	if len(inv.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(inv.Rows))
	}
	if inv.Rows[0].Product.ID != 2 || inv.Rows[0].Level != core.StockCritical {
		t.Errorf("first row = %+v, want the critical product", inv.Rows[0])
	}
	if !inv.Rows[1].MinQuantity.Equal(dec("3")) {
		t.Errorf("min = %s, want 3", inv.Rows[1].MinQuantity)
	}
	if !inv.TotalQuantity.Equal(dec("10")) || !inv.TotalValue.Equal(dec("20")) {
		t.Errorf("totals = %s / %s", inv.TotalQuantity, inv.TotalValue)
	}
}
