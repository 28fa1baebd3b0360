package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseSaver persists a composed purchase. PurchaseService satisfies it.
type PurchaseSaver interface {
	Create(ctx context.Context, p Purchase) (*Purchase, error)
	Update(ctx context.Context, id int64, p Purchase) (*Purchase, error)
}

// PendingItem is the line-item candidate being edited before AddItem.
type PendingItem struct {
	Product   *Product
	Quantity  int
	UnitPrice decimal.Decimal
}

// Composer holds an in-progress purchase (a draft) and keeps it consistent:
// the supplier is stored as an id, every line total is quantity*unitPrice,
// and the running total always equals the sum of the line totals.
//
// A Composer is built fresh each time a form opens (NewComposer for a new
// purchase, ComposerFrom for an edit) and is discarded on close.
type Composer struct {
	mu sync.Mutex

	id            int64
	supplier      int64
	supplierLabel string

	pending PendingItem
	items   []LineItem
	total   decimal.Decimal
	status  Status

	purchaseDate         Date
	expectedDeliveryDate *Date
	deliveryDate         *Date
	notes                string

	submitting bool
	saver      PurchaseSaver
	newID      func() string
}

// NewComposer returns an empty draft: status pending, no items, dated today.
func NewComposer(saver PurchaseSaver) *Composer {
	return &Composer{
		saver:        saver,
		status:       StatusPending,
		purchaseDate: Today(),
		pending:      PendingItem{Quantity: 1},
		total:        decimal.Zero,
		newID:        uuid.NewString,
	}
}

// ComposerFrom builds a draft pre-populated from an existing purchase. The
// total is recomputed from the items rather than copied.
func ComposerFrom(saver PurchaseSaver, p Purchase) *Composer {
	c := NewComposer(saver)
	c.id = p.ID
	c.supplier = p.Supplier.ID()
	if rec, ok := p.Supplier.Record(); ok {
		c.supplierLabel = rec.Label()
	}
	if p.Status != "" {
		c.status = p.Status
	}
	if !p.PurchaseDate.IsZero() {
		c.purchaseDate = p.PurchaseDate
	}
	c.expectedDeliveryDate = copyDate(p.ExpectedDeliveryDate)
	c.deliveryDate = copyDate(p.DeliveryDate)
	c.notes = p.Notes
	for _, li := range p.Items {
		li.Total = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
		c.items = append(c.items, li)
		c.total = c.total.Add(li.Total)
	}
	return c
}

// ID returns the server id of the purchase being edited, or 0 for a new one.
func (c *Composer) ID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Supplier returns the selected supplier id, and false when none is selected.
func (c *Composer) Supplier() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supplier, c.supplier != 0
}

// SupplierLabel returns the display label of the selected supplier.
func (c *Composer) SupplierLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.supplierLabel == "" && c.supplier != 0 {
		return fmt.Sprintf("#%d", c.supplier)
	}
	return c.supplierLabel
}

// SelectSupplier sets the supplier by id. An id <= 0 clears the selection.
// The pending line item is not touched.
func (c *Composer) SelectSupplier(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id <= 0 {
		c.supplier, c.supplierLabel = 0, ""
		return
	}
	if id != c.supplier {
		c.supplierLabel = ""
	}
	c.supplier = id
}

// SelectSupplierRecord selects s and keeps its name as the display label.
func (c *Composer) SelectSupplierRecord(s Supplier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supplier = s.ID
	c.supplierLabel = s.Label()
}

// SetPendingProduct stores p as the candidate and seeds the unit price from
// its default price.
func (c *Composer) SetPendingProduct(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Product = &p
	c.pending.UnitPrice = clampPrice(p.DefaultPrice)
}

// SetPendingQuantity sets the candidate quantity, clamped to at least 1.
func (c *Composer) SetPendingQuantity(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = 1
	}
	c.pending.Quantity = n
}

// SetPendingUnitPrice sets the candidate unit price, clamped to at least 0.
func (c *Composer) SetPendingUnitPrice(p decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.UnitPrice = clampPrice(p)
}

// Pending returns a copy of the line-item candidate.
func (c *Composer) Pending() PendingItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	if p.Product != nil {
		prod := *p.Product
		p.Product = &prod
	}
	return p
}

// AddItem commits the pending candidate as a new line item and reports whether
// it did. With no pending product, a quantity below 1 or a negative price it
// does nothing and returns false.
func (c *Composer) AddItem() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pending
	if p.Product == nil || p.Quantity <= 0 || p.UnitPrice.IsNegative() {
		return false
	}
	item := LineItem{
		TempID:    c.newID(),
		Product:   Resolved(*p.Product),
		Quantity:  p.Quantity,
		UnitPrice: p.UnitPrice,
		Total:     p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))),
	}
	c.items = append(c.items, item)
	c.total = c.total.Add(item.Total)
	c.pending = PendingItem{Quantity: 1, UnitPrice: decimal.Zero}
	return true
}

// RemoveItem deletes the item at index and subtracts its stored total.
func (c *Composer) RemoveItem(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.items) {
		return &IndexError{Index: index, Len: len(c.items)}
	}
	removed := c.items[index]
	c.items = append(c.items[:index:index], c.items[index+1:]...)
	c.total = c.total.Sub(removed.Total)
	return nil
}

// Items returns a copy of the committed line items.
func (c *Composer) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total returns the running total.
func (c *Composer) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Status returns the draft's status. New drafts are pending.
func (c *Composer) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetPurchaseDate sets the purchase date. A zero date is ignored.
func (c *Composer) SetPurchaseDate(d Date) {
	if d.IsZero() {
		return
	}
	c.mu.Lock()
	c.purchaseDate = d
	c.mu.Unlock()
}

// SetExpectedDeliveryDate sets or, with nil, clears the expected delivery date.
func (c *Composer) SetExpectedDeliveryDate(d *Date) {
	c.mu.Lock()
	c.expectedDeliveryDate = copyDate(d)
	c.mu.Unlock()
}

// SetDeliveryDate sets or, with nil, clears the actual delivery date.
func (c *Composer) SetDeliveryDate(d *Date) {
	c.mu.Lock()
	c.deliveryDate = copyDate(d)
	c.mu.Unlock()
}

// SetNotes replaces the free-text notes.
func (c *Composer) SetNotes(notes string) {
	c.mu.Lock()
	c.notes = notes
	c.mu.Unlock()
}

// Submitting reports whether a Submit call is in flight.
func (c *Composer) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Draft returns the current state as a Purchase value.
func (c *Composer) Draft() Purchase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draftLocked()
}

func (c *Composer) draftLocked() Purchase {
	sup := UnresolvedSupplier(c.supplier)
	if c.supplierLabel != "" {
		sup = Resolved(Supplier{ID: c.supplier, Name: c.supplierLabel})
	}
	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	return Purchase{
		ID:                   c.id,
		Supplier:             sup,
		PurchaseDate:         c.purchaseDate,
		ExpectedDeliveryDate: copyDate(c.expectedDeliveryDate),
		DeliveryDate:         copyDate(c.deliveryDate),
		Status:               c.status,
		Items:                items,
		Total:                c.total,
		Notes:                c.notes,
	}
}

// Validate returns the first problem that would make Submit fail.
func (c *Composer) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Composer) validateLocked() error {
	if c.supplier == 0 {
		return ErrSupplierRequired
	}
	if len(c.items) == 0 {
		return ErrItemsRequired
	}
	return nil
}

// Submit validates the draft and hands it to the saver: Update when the draft
// has a server id, Create otherwise. On failure the draft is left as it was.
// On success the returned purchase is the server's canonical copy and the
// draft adopts its id, so a second Submit updates rather than duplicates.
func (c *Composer) Submit(ctx context.Context) (*Purchase, error) {
	c.mu.Lock()
	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	c.submitting = true
	draft := c.draftLocked()
	c.mu.Unlock()

	var (
		saved *Purchase
		err   error
	)
	if draft.ID != 0 {
		saved, err = c.saver.Update(ctx, draft.ID, draft)
	} else {
		saved, err = c.saver.Create(ctx, draft)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		return nil, err
	}
	if saved != nil && saved.ID != 0 {
		c.id = saved.ID
	}
	return saved, nil
}

func clampPrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

func copyDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
