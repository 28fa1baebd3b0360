package web

import (
	"bytes"
	"net/http"
	"strconv"

	"supply-console/internal/export"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	m, err := sessionFrom(r).svc.Dashboard(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	type response struct {
		Suppliers        int64  `json:"suppliers"`
		Products         int64  `json:"products"`
		PendingPurchases int64  `json:"pending_purchases"`
		StockTotal       string `json:"stock_total"`
		StockValue       string `json:"stock_value"`
		IncomingValue    string `json:"incoming_value"`
		Derived          bool   `json:"derived"`
	}
	writeJSON(w, response{
		Suppliers:        m.Suppliers,
		Products:         m.Products,
		PendingPurchases: m.PendingPurchases,
		StockTotal:       m.StockTotal.String(),
		StockValue:       m.StockValue.StringFixed(2),
		IncomingValue:    m.IncomingValue.StringFixed(2),
		Derived:          m.Derived,
	})
}

func (h *Handler) inventory(w http.ResponseWriter, r *http.Request) {
	inv, err := sessionFrom(r).svc.Inventory(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	type row struct {
		ProductID   int64  `json:"product_id"`
		SKU         string `json:"sku"`
		Name        string `json:"name"`
		Unit        string `json:"unit"`
		Quantity    string `json:"quantity"`
		MinQuantity string `json:"min_quantity"`
		Level       string `json:"level"`
		Value       string `json:"value"`
	}
	rows := make([]row, 0, len(inv.Rows))
	for _, ir := range inv.Rows {
		rows = append(rows, row{
			ProductID:   ir.Product.ID,
			SKU:         ir.Product.SKU,
			Name:        ir.Product.Name,
			Unit:        ir.Product.Unit,
			Quantity:    ir.Quantity.String(),
			MinQuantity: ir.MinQuantity.String(),
			Level:       string(ir.Level),
			Value:       ir.Value.StringFixed(2),
		})
	}
	writeJSON(w, map[string]any{
		"rows":           rows,
		"total_quantity": inv.TotalQuantity.String(),
		"total_value":    inv.TotalValue.StringFixed(2),
	})
}

func (h *Handler) exportInventory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := sessionFrom(r).svc.ExportInventory(r.Context(), &buf); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeWorkbook(w, "inventory.xlsx", &buf)
}

// writeWorkbook sends a finished .xlsx as an attachment.
func writeWorkbook(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
