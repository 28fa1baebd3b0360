// Package export writes list screens to .xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"supply-console/internal/core"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// row is one line of cell values.
type row []interface{}

// Purchases writes one sheet of purchase headers and one of line items.
func Purchases(w io.Writer, purchases []core.Purchase, lang string) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := row{"ID", "Supplier", "Purchase date", "Expected delivery", "Delivered", "Status", "Items", "Total", "Notes"}
	var rows []row
	var itemRows []row
	for _, p := range purchases {
		rows = append(rows, row{
			p.ID,
			p.Supplier.Label(),
			p.PurchaseDate.String(),
			dateString(p.ExpectedDeliveryDate),
			dateString(p.DeliveryDate),
			core.StatusLabel(lang, p.Status),
			len(p.Items),
			p.Total.InexactFloat64(),
			p.Notes,
		})
		for _, li := range p.Items {
			itemRows = append(itemRows, row{
				p.ID,
				li.Product.Label(),
				li.Quantity,
				li.UnitPrice.InexactFloat64(),
				li.Total.InexactFloat64(),
			})
		}
	}
	if err := writeSheet(f, "Sheet1", headers, rows); err != nil {
		return err
	}
	if _, err := f.NewSheet("Items"); err != nil {
		return err
	}
	if err := writeSheet(f, "Items", row{"Purchase", "Product", "Quantity", "Unit price", "Total"}, itemRows); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// Inventory writes the stock view.
func Inventory(w io.Writer, inv core.Inventory) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := row{"SKU", "Product", "Unit", "Quantity", "Minimum", "Level", "Unit price", "Value"}
	rows := make([]row, 0, len(inv.Rows)+1)
	for _, r := range inv.Rows {
		rows = append(rows, row{
			r.Product.SKU,
			r.Product.Name,
			r.Product.Unit,
			r.Quantity.InexactFloat64(),
			r.MinQuantity.InexactFloat64(),
			string(r.Level),
			r.Product.DefaultPrice.InexactFloat64(),
			r.Value.InexactFloat64(),
		})
	}
	rows = append(rows, row{"", "Total", "", inv.TotalQuantity.InexactFloat64(), "", "", "", inv.TotalValue.InexactFloat64()})
	if err := writeSheet(f, "Sheet1", headers, rows); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, headers row, rows []row) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write %s headers: %w", sheet, err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func dateString(d *core.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
