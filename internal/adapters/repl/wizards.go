package repl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"supply-console/internal/core"
	"supply-console/internal/search"

	"github.com/shopspring/decimal"
)

// field prompts for one form value. Blank keeps current, "-" clears it.
func (c *console) field(label, current string) string {
	v := c.ask(fmt.Sprintf("  %s [%s]: ", label, current))
	switch v {
	case "":
		return current
	case "-":
		return ""
	}
	return v
}

func (c *console) supplierForm(d core.SupplierDraft) error {
	if d.ID != 0 {
		fmt.Fprintf(c.out, "Editing supplier #%d. Blank keeps a value, '-' clears it.\n", d.ID)
	} else {
		fmt.Fprintln(c.out, "New supplier. Blank keeps a value, '-' clears it.")
	}
	for {
		d.Name = c.field("Name", d.Name)
		d.TaxID = c.field("CNPJ", d.TaxID)
		d.Email = c.field("Email", d.Email)
		d.Phone = c.field("Phone", d.Phone)
		d.Address = c.field("Address", d.Address)
		d.City = c.field("City", d.City)
		d.State = c.field("State (UF)", d.State)
		d.ZipCode = c.field("ZIP code", d.ZipCode)
		d.Active = c.field("Active (y/n)", yesNo(d.Active)) == "y"

		saved, err := c.svc.SaveSupplier(c.ctx, d)
		if err == nil {
			fmt.Fprintf(c.out, "Supplier saved (ID: %d).\n", saved.ID)
			return nil
		}
		if !c.retry(err) {
			return nil
		}
	}
}

func (c *console) productForm(d core.ProductDraft) error {
	if d.ID != 0 {
		fmt.Fprintf(c.out, "Editing product #%d. Blank keeps a value, '-' clears it.\n", d.ID)
	} else {
		fmt.Fprintln(c.out, "New product. Blank keeps a value, '-' clears it.")
	}
	for {
		d.SKU = c.field("SKU", d.SKU)
		d.Name = c.field("Name", d.Name)
		d.Description = c.field("Description", d.Description)
		d.Unit = c.field("Unit", d.Unit)
		d.DefaultPrice = c.field("Default price", d.DefaultPrice)
		d.Width = c.field("Width", d.Width)
		d.Height = c.field("Height", d.Height)
		d.Length = c.field("Length", d.Length)
		d.Weight = c.field("Weight", d.Weight)
		d.Volume = c.field("Volume (stock)", d.Volume)

		pref := ""
		if d.PreferredSupplierID != nil {
			pref = strconv.FormatInt(*d.PreferredSupplierID, 10)
		}
		if v := c.field("Preferred supplier ID", pref); v == "" {
			d.PreferredSupplierID = nil
		} else if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			d.PreferredSupplierID = &id
		}
		d.Active = c.field("Active (y/n)", yesNo(d.Active)) == "y"

		saved, err := c.svc.SaveProduct(c.ctx, d)
		if err == nil {
			fmt.Fprintf(c.out, "Product saved (ID: %d).\n", saved.ID)
			return nil
		}
		if !c.retry(err) {
			return nil
		}
	}
}

// retry reports a form error and asks whether to edit again. Other errors
// end the form.
func (c *console) retry(err error) bool {
	var fe *core.FormError
	if !errors.As(err, &fe) {
		c.fail(err)
		return false
	}
	fmt.Fprintln(c.out, c.svc.Message(err))
	for name, problem := range fe.Fields {
		fmt.Fprintf(c.out, "  - %s: %s\n", name, problem)
	}
	return c.yes("Fix and retry? (y/n): ")
}

// purchaseForm edits a draft until it is submitted or abandoned.
func (c *console) purchaseForm(comp *core.Composer) error {
	if comp.Status().Terminal() {
		fmt.Fprintf(c.out, "Purchase #%d is %s and can no longer be edited.\n", comp.ID(), core.StatusLabel("en", comp.Status()))
		return nil
	}
	if comp.ID() != 0 {
		fmt.Fprintf(c.out, "Editing purchase #%d.\n", comp.ID())
	} else {
		fmt.Fprintln(c.out, "New purchase.")
	}

	if _, ok := comp.Supplier(); !ok || !c.yes(fmt.Sprintf("Supplier: %s. Keep? (y/n): ", comp.SupplierLabel())) {
		suppliers := c.svc.SupplierSearcher()
		sup, ok := pick(c, suppliers, "supplier")
		suppliers.Close()
		if !ok {
			fmt.Fprintln(c.out, "Purchase abandoned.")
			return nil
		}
		comp.SelectSupplierRecord(sup)
	}

	products := c.svc.ProductSearcher()
	defer products.Close()
	for {
		printDraftItems(c.out, comp)
		cmd := strings.Fields(strings.ToLower(c.ask("Items: [a]dd, [r]emove <n>, [d]one, [c]ancel: ")))
		if len(cmd) == 0 {
			continue
		}
		switch cmd[0] {
		case "a", "add":
			c.addItem(comp, products)
		case "r", "remove":
			if len(cmd) < 2 {
				fmt.Fprintln(c.out, "Usage: r <n>")
				continue
			}
			n, err := strconv.Atoi(cmd[1])
			if err != nil {
				fmt.Fprintln(c.out, "Item number must be a number.")
				continue
			}
			if err := comp.RemoveItem(n - 1); err != nil {
				fmt.Fprintln(c.out, c.svc.Message(err))
			}
		case "c", "cancel":
			fmt.Fprintln(c.out, "Purchase abandoned.")
			return nil
		case "d", "done":
			if err := comp.Validate(); err != nil {
				fmt.Fprintln(c.out, c.svc.Message(err))
				continue
			}
			return c.finishPurchase(comp)
		}
	}
}

func (c *console) addItem(comp *core.Composer, products *search.Searcher[core.Product]) {
	prod, ok := pick(c, products, "product")
	if !ok {
		return
	}
	comp.SetPendingProduct(prod)

	if v := c.ask("  Quantity [1]: "); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fmt.Fprintln(c.out, "  Invalid quantity.")
			return
		}
		comp.SetPendingQuantity(n)
	}
	pending := comp.Pending()
	if v := c.ask(fmt.Sprintf("  Unit price [%s]: ", pending.UnitPrice.StringFixed(2))); v != "" {
		price, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil {
			fmt.Fprintln(c.out, "  Invalid price.")
			return
		}
		comp.SetPendingUnitPrice(price)
	}
	if !comp.AddItem() {
		fmt.Fprintln(c.out, "  Select a product first.")
	}
}

func (c *console) finishPurchase(comp *core.Composer) error {
	draft := comp.Draft()
	if v := c.ask(fmt.Sprintf("Purchase date [%s]: ", draft.PurchaseDate)); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return &core.ValidationError{Field: "purchaseDate", Message: err.Error()}
		}
		comp.SetPurchaseDate(d)
	}
	expected := ""
	if draft.ExpectedDeliveryDate != nil {
		expected = draft.ExpectedDeliveryDate.String()
	}
	switch v := c.field("Expected delivery date", expected); v {
	case "":
		comp.SetExpectedDeliveryDate(nil)
	case expected:
	default:
		d, err := core.ParseDate(v)
		if err != nil {
			return &core.ValidationError{Field: "expectedDeliveryDate", Message: err.Error()}
		}
		comp.SetExpectedDeliveryDate(&d)
	}
	comp.SetNotes(c.field("Notes", draft.Notes))

	final := comp.Draft()
	printPurchase(c.out, &final)
	if !c.yes("Submit this purchase? (y/n): ") {
		fmt.Fprintln(c.out, "Purchase not submitted.")
		return nil
	}
	saved, err := c.svc.SubmitPurchase(c.ctx, comp)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Purchase saved (ID: %d, Status: %s, Total: %s).\n",
		saved.ID, core.StatusLabel("en", saved.Status), saved.Total.StringFixed(2))
	return nil
}

// pick runs a search box until the user selects a row or types "cancel".
func pick[T interface{ Label() string }](c *console, s *search.Searcher[T], noun string) (T, bool) {
	var zero T
	for {
		q := c.ask(fmt.Sprintf("Search %s (blank lists all, 'cancel' aborts): ", noun))
		if strings.EqualFold(q, "cancel") {
			return zero, false
		}

		var o search.Outcome[T]
		select {
		case o = <-s.Type(q):
		case <-c.ctx.Done():
			return zero, false
		}
		switch {
		case o.Skipped:
			fmt.Fprintf(c.out, "Type at least %d characters.\n", search.MinQueryLen)
			continue
		case o.Err != nil:
			fmt.Fprintln(c.out, c.svc.Message(o.Err))
			continue
		case len(o.Items) == 0:
			fmt.Fprintln(c.out, "No matches.")
			continue
		}

		for i, it := range o.Items {
			fmt.Fprintf(c.out, "  %2d. %s\n", i+1, it.Label())
		}
		choice := c.ask("Select # (blank to search again): ")
		if choice == "" {
			continue
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(o.Items) {
			fmt.Fprintln(c.out, "Invalid selection.")
			continue
		}
		return o.Items[n-1], true
	}
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
