package repl

import (
	"fmt"
	"io"
	"strings"

	"supply-console/internal/app"
	"supply-console/internal/core"
	"supply-console/internal/views"

	"github.com/shopspring/decimal"
)

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

func header(w io.Writer, title string, width int) {
	fmt.Fprintln(w)
	rule(w, "=", width)
	fmt.Fprintf(w, "  %s\n", title)
	rule(w, "=", width)
}

func footer(w io.Writer, total int64, page, pages int, searching bool, query string, width int) {
	rule(w, "=", width)
	switch {
	case searching && query != "":
		fmt.Fprintf(w, "  %d result(s) for %q. /find with no text returns to the listing.\n", total, query)
	case searching:
		fmt.Fprintf(w, "  %d result(s).\n", total)
	case pages > 1:
		fmt.Fprintf(w, "  Page %d of %d (%d total). /next and /prev to navigate.\n", page+1, pages, total)
	default:
		fmt.Fprintf(w, "  %d total.\n", total)
	}
}

func printSuppliers(w io.Writer, s views.State[core.Supplier]) {
	header(w, "SUPPLIERS", 84)
	if len(s.Items) == 0 {
		fmt.Fprintln(w, "  No suppliers found.")
	} else {
		fmt.Fprintf(w, "  %-6s %-30s %-18s %-20s %s\n", "ID", "NAME", "CNPJ", "CITY", "ACTIVE")
		rule(w, "-", 84)
		for _, v := range s.Items {
			fmt.Fprintf(w, "  %-6d %-30s %-18s %-20s %s\n", v.ID, clip(v.Name, 30), formatCNPJ(v.TaxID), clip(cityState(v), 20), yesNo(v.Active))
		}
	}
	footer(w, s.Total, s.Page, s.TotalPages, s.Searching, s.Query, 84)
}

func printProducts(w io.Writer, s views.State[core.Product]) {
	header(w, "PRODUCTS", 84)
	if len(s.Items) == 0 {
		fmt.Fprintln(w, "  No products found.")
	} else {
		fmt.Fprintf(w, "  %-6s %-12s %-30s %-6s %12s %10s\n", "ID", "SKU", "NAME", "UNIT", "PRICE", "STOCK")
		rule(w, "-", 84)
		for _, p := range s.Items {
			fmt.Fprintf(w, "  %-6d %-12s %-30s %-6s %12s %10s\n",
				p.ID, clip(p.SKU, 12), clip(p.Name, 30), p.Unit, p.DefaultPrice.StringFixed(2), p.Volume.String())
		}
	}
	footer(w, s.Total, s.Page, s.TotalPages, s.Searching, s.Query, 84)
}

func printPurchases(w io.Writer, s views.State[core.Purchase]) {
	header(w, "PURCHASES", 84)
	if len(s.Items) == 0 {
		fmt.Fprintln(w, "  No purchases found.")
	} else {
		fmt.Fprintf(w, "  %-6s %-30s %-11s %-11s %-10s %12s\n", "ID", "SUPPLIER", "DATE", "EXPECTED", "STATUS", "TOTAL")
		rule(w, "-", 84)
		for _, p := range s.Items {
			expected := ""
			if p.ExpectedDeliveryDate != nil {
				expected = p.ExpectedDeliveryDate.String()
			}
			fmt.Fprintf(w, "  %-6d %-30s %-11s %-11s %-10s %12s\n",
				p.ID, clip(p.Supplier.Label(), 30), p.PurchaseDate.String(), expected, p.Status, p.Total.StringFixed(2))
		}
	}
	footer(w, s.Total, s.Page, s.TotalPages, s.Searching, s.Query, 84)
}

func printSupplier(w io.Writer, s *core.Supplier) {
	header(w, fmt.Sprintf("SUPPLIER #%d", s.ID), 62)
	fmt.Fprintf(w, "  Name    : %s\n", s.Name)
	fmt.Fprintf(w, "  CNPJ    : %s\n", formatCNPJ(s.TaxID))
	fmt.Fprintf(w, "  Email   : %s\n", s.Email)
	fmt.Fprintf(w, "  Phone   : %s\n", core.FormatPhone(s.Phone, "BR"))
	fmt.Fprintf(w, "  Address : %s\n", s.Address)
	fmt.Fprintf(w, "  City    : %s\n", cityState(*s))
	fmt.Fprintf(w, "  ZIP     : %s\n", s.ZipCode)
	fmt.Fprintf(w, "  Active  : %s\n", yesNo(s.Active))
	rule(w, "=", 62)
}

func printProduct(w io.Writer, p *core.Product) {
	header(w, fmt.Sprintf("PRODUCT #%d", p.ID), 62)
	fmt.Fprintf(w, "  SKU         : %s\n", p.SKU)
	fmt.Fprintf(w, "  Name        : %s\n", p.Name)
	fmt.Fprintf(w, "  Description : %s\n", p.Description)
	fmt.Fprintf(w, "  Dimensions  : %s x %s x %s\n", p.Width, p.Height, p.Length)
	fmt.Fprintf(w, "  Weight      : %s\n", p.Weight)
	fmt.Fprintf(w, "  Volume      : %s %s\n", p.Volume, p.Unit)
	fmt.Fprintf(w, "  Price       : %s\n", p.DefaultPrice.StringFixed(2))
	if p.PreferredSupplierID != nil {
		fmt.Fprintf(w, "  Supplier    : #%d\n", *p.PreferredSupplierID)
	}
	fmt.Fprintf(w, "  Active      : %s\n", yesNo(p.Active))
	rule(w, "=", 62)
}

func printPurchase(w io.Writer, p *core.Purchase) {
	title := "PURCHASE (draft)"
	if p.ID != 0 {
		title = fmt.Sprintf("PURCHASE #%d", p.ID)
	}
	header(w, title, 72)
	fmt.Fprintf(w, "  Supplier : %s\n", p.Supplier.Label())
	fmt.Fprintf(w, "  Date     : %s\n", p.PurchaseDate)
	if p.ExpectedDeliveryDate != nil {
		fmt.Fprintf(w, "  Expected : %s\n", p.ExpectedDeliveryDate)
	}
	if p.DeliveryDate != nil {
		fmt.Fprintf(w, "  Delivered: %s\n", p.DeliveryDate)
	}
	fmt.Fprintf(w, "  Status   : %s\n", p.Status)
	if p.Notes != "" {
		fmt.Fprintf(w, "  Notes    : %s\n", p.Notes)
	}
	rule(w, "-", 72)
	printItems(w, p.Items, p.Total)
	rule(w, "=", 72)
}

func printItems(w io.Writer, items []core.LineItem, total decimal.Decimal) {
	fmt.Fprintf(w, "  %-3s %-36s %6s %10s %12s\n", "#", "PRODUCT", "QTY", "PRICE", "TOTAL")
	for i, li := range items {
		fmt.Fprintf(w, "  %-3d %-36s %6d %10s %12s\n",
			i+1, clip(li.Product.Label(), 36), li.Quantity, li.UnitPrice.StringFixed(2), li.Total.StringFixed(2))
	}
	fmt.Fprintf(w, "  %-59s %12s\n", "TOTAL", total.StringFixed(2))
}

func printDraftItems(w io.Writer, comp *core.Composer) {
	fmt.Fprintf(w, "\n  Supplier: %s\n", comp.SupplierLabel())
	items := comp.Items()
	if len(items) == 0 {
		fmt.Fprintln(w, "  No items yet.")
		return
	}
	printItems(w, items, comp.Total())
}

func printMetrics(w io.Writer, m *core.Metrics) {
	header(w, "DASHBOARD", 62)
	fmt.Fprintf(w, "  %-30s %20d\n", "Suppliers", m.Suppliers)
	fmt.Fprintf(w, "  %-30s %20d\n", "Products", m.Products)
	fmt.Fprintf(w, "  %-30s %20d\n", "Pending purchases", m.PendingPurchases)
	fmt.Fprintf(w, "  %-30s %20s\n", "Stock (units)", m.StockTotal.String())
	fmt.Fprintf(w, "  %-30s %20s\n", "Stock value", m.StockValue.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %20s\n", "Incoming (pending) value", m.IncomingValue.StringFixed(2))
	rule(w, "=", 62)
	if m.Derived {
		fmt.Fprintln(w, "  (computed from listings)")
	}
}

func printInventory(w io.Writer, inv *core.Inventory) {
	header(w, "INVENTORY", 84)
	if len(inv.Rows) == 0 {
		fmt.Fprintln(w, "  No active products.")
		rule(w, "=", 84)
		return
	}
	fmt.Fprintf(w, "  %-12s %-28s %10s %10s %-9s %12s\n", "SKU", "PRODUCT", "QTY", "MIN", "LEVEL", "VALUE")
	rule(w, "-", 84)
	for _, r := range inv.Rows {
		fmt.Fprintf(w, "  %-12s %-28s %10s %10s %-9s %12s\n",
			clip(r.Product.SKU, 12), clip(r.Product.Name, 28), r.Quantity.String(), r.MinQuantity.String(), r.Level, r.Value.StringFixed(2))
	}
	rule(w, "-", 84)
	fmt.Fprintf(w, "  %-41s %10s %-10s %12s\n", "TOTAL", inv.TotalQuantity.String(), "", inv.TotalValue.StringFixed(2))
	rule(w, "=", 84)
}

func printProposal(w io.Writer, p *core.Proposal) {
	fmt.Fprintf(w, "\nSUPPLIER:   #%d\n", p.SupplierID)
	fmt.Fprintf(w, "DATE:       %s\n", p.PurchaseDate)
	if p.ExpectedDeliveryDate != "" {
		fmt.Fprintf(w, "EXPECTED:   %s\n", p.ExpectedDeliveryDate)
	}
	if p.Notes != "" {
		fmt.Fprintf(w, "NOTES:      %s\n", p.Notes)
	}
	fmt.Fprintf(w, "REASONING:  %s\n", p.Reasoning)
	fmt.Fprintf(w, "CONFIDENCE: %.2f\n", p.Confidence)
	fmt.Fprintln(w, "LINES:")
	for _, l := range p.Lines {
		price := l.UnitPrice
		if price == "" {
			price = "default"
		}
		fmt.Fprintf(w, "  product #%-6d x %-5d @ %s\n", l.ProductID, l.Quantity, price)
	}
}

func printSession(w io.Writer, who *app.SessionResult) {
	fmt.Fprintf(w, "User    : %s (#%d)\n", displayName(who), who.UserID)
	fmt.Fprintf(w, "Username: %s\n", who.Username)
	fmt.Fprintf(w, "Email   : %s\n", who.Email)
	fmt.Fprintf(w, "Role    : %s\n", who.Role)
	if !who.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Expires : %s\n", who.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Session
  /login [username]           Sign in
  /register                   Create an account
  /logout                     Sign out
  /whoami                     Show the signed-in user

Lists (the last one opened is the current list)
  /suppliers [page]           List suppliers
  /products [page]            List products
  /purchases [page]           List purchases
  /next, /prev                Page through the current list
  /find <text>                Search the current list (2+ characters)
  /delete <id>                Delete a row of the current list (asks first)

Records
  /supplier <id>              Show a supplier
  /product <id>               Show a product
  /purchase <id>              Show a purchase with its items
  /new-supplier               Create a supplier
  /edit-supplier <id>         Edit a supplier
  /new-product                Create a product
  /edit-product <id>          Edit a product
  /new-purchase               Compose a purchase order
  /edit-purchase <id>         Edit a pending purchase order
  /deliver <id>               Mark a pending purchase delivered (asks first)
  /cancel <id>                Cancel a pending purchase (asks first)
  /by-supplier <id>           Purchases placed with a supplier
  /between <from> <to>        Purchases dated within a range

Reports
  /dashboard                  Headline figures
  /inventory                  Stock levels
  /export purchases <file>    Write purchases to an .xlsx file
  /export inventory <file>    Write inventory to an .xlsx file

Anything else is sent to the drafting assistant, e.g.
  "order 20 boxes of A4 paper from Papelaria Central, delivery next Friday"

  /help                       This help
  /exit                       Quit`)
}

func formatCNPJ(s string) string {
	if len(s) != 14 {
		return s
	}
	return s[0:2] + "." + s[2:5] + "." + s[5:8] + "/" + s[8:12] + "-" + s[12:]
}

func cityState(s core.Supplier) string {
	switch {
	case s.City != "" && s.State != "":
		return s.City + "/" + s.State
	case s.City != "":
		return s.City
	}
	return s.State
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
