package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a company the business buys from.
type Supplier struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name"`
	TaxID   string `json:"cnpj"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Active  bool   `json:"active"`
}

// Identity returns the supplier id.
func (s Supplier) Identity() int64 { return s.ID }

// Label is the text shown wherever a supplier is referenced.
func (s Supplier) Label() string { return s.Name }

// Product is a catalogue item. Dimensions are in the product's own unit system.
type Product struct {
	ID                  int64
	SKU                 string
	Name                string
	Description         string
	Width               decimal.Decimal
	Height              decimal.Decimal
	Length              decimal.Decimal
	Weight              decimal.Decimal
	Volume              decimal.Decimal
	Unit                string
	DefaultPrice        decimal.Decimal
	PreferredSupplierID *int64
	Active              bool
}

// Identity returns the product id.
func (p Product) Identity() int64 { return p.ID }

// Label is "SKU - Name", or just the name when no SKU is set.
func (p Product) Label() string {
	if p.SKU == "" {
		return p.Name
	}
	return p.SKU + " - " + p.Name
}

type productJSON struct {
	ID                  int64       `json:"id,omitempty"`
	SKU                 string      `json:"sku"`
	Name                string      `json:"name"`
	Description         string      `json:"description,omitempty"`
	Width               json.Number `json:"width,omitempty"`
	Height              json.Number `json:"height,omitempty"`
	Length              json.Number `json:"length,omitempty"`
	Weight              json.Number `json:"weight,omitempty"`
	Volume              json.Number `json:"volume,omitempty"`
	Unit                string      `json:"unit,omitempty"`
	DefaultPrice        json.Number `json:"defaultPrice"`
	PreferredSupplierID *int64      `json:"preferredSupplierId,omitempty"`
	Active              bool        `json:"active"`
}

// MarshalJSON writes decimals as bare JSON numbers.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:                  p.ID,
		SKU:                 p.SKU,
		Name:                p.Name,
		Description:         p.Description,
		Width:               number(p.Width),
		Height:              number(p.Height),
		Length:              number(p.Length),
		Weight:              number(p.Weight),
		Volume:              number(p.Volume),
		Unit:                p.Unit,
		DefaultPrice:        json.Number(p.DefaultPrice.String()),
		PreferredSupplierID: p.PreferredSupplierID,
		Active:              p.Active,
	})
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var w productJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Product{
		ID:                  w.ID,
		SKU:                 w.SKU,
		Name:                w.Name,
		Description:         w.Description,
		Unit:                w.Unit,
		PreferredSupplierID: w.PreferredSupplierID,
		Active:              w.Active,
	}
	var err error
	for _, f := range []struct {
		dst *decimal.Decimal
		src json.Number
		key string
	}{
		{&p.Width, w.Width, "width"},
		{&p.Height, w.Height, "height"},
		{&p.Length, w.Length, "length"},
		{&p.Weight, w.Weight, "weight"},
		{&p.Volume, w.Volume, "volume"},
		{&p.DefaultPrice, w.DefaultPrice, "defaultPrice"},
	} {
		if *f.dst, err = fromNumber(f.src); err != nil {
			return fmt.Errorf("product %s: %w", f.key, err)
		}
	}
	return nil
}

// Purchase is a purchase order as the server returns it.
type Purchase struct {
	ID                   int64
	Supplier             SupplierRef
	PurchaseDate         Date
	ExpectedDeliveryDate *Date
	DeliveryDate         *Date
	Status               Status
	Items                []LineItem
	Total                decimal.Decimal
	Notes                string
	CreatedAt            string
	UpdatedAt            string
}

// LineItem is one product/quantity/price entry in a purchase.
// ID is the server id; TempID identifies items added locally and not yet saved.
type LineItem struct {
	ID        int64
	TempID    string
	Product   ProductRef
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Key returns a stable identity for the item, persisted or not.
func (li LineItem) Key() string {
	if li.TempID != "" {
		return li.TempID
	}
	return fmt.Sprintf("%d", li.ID)
}

type lineItemJSON struct {
	ID        int64       `json:"id,omitempty"`
	Product   ProductRef  `json:"product"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unitPrice"`
	Total     json.Number `json:"total"`
}

type purchaseJSON struct {
	ID                   int64          `json:"id,omitempty"`
	Supplier             SupplierRef    `json:"supplier"`
	PurchaseDate         Date           `json:"purchaseDate"`
	ExpectedDeliveryDate *Date          `json:"expectedDeliveryDate,omitempty"`
	DeliveryDate         *Date          `json:"deliveryDate,omitempty"`
	Status               Status         `json:"status,omitempty"`
	Items                []lineItemJSON `json:"items"`
	Total                json.Number    `json:"total"`
	Notes                string         `json:"notes,omitempty"`
	CreatedAt            string         `json:"createdAt,omitempty"`
	UpdatedAt            string         `json:"updatedAt,omitempty"`
}

// MarshalJSON writes the request shape the API accepts: supplier and product
// as bare ids, money as bare numbers, no local temp ids.
func (p Purchase) MarshalJSON() ([]byte, error) {
	w := purchaseJSON{
		ID:                   p.ID,
		Supplier:             UnresolvedSupplier(p.Supplier.ID()),
		PurchaseDate:         p.PurchaseDate,
		ExpectedDeliveryDate: p.ExpectedDeliveryDate,
		DeliveryDate:         p.DeliveryDate,
		Status:               p.Status,
		Items:                make([]lineItemJSON, 0, len(p.Items)),
		Total:                json.Number(p.Total.String()),
		Notes:                p.Notes,
	}
	for _, li := range p.Items {
		w.Items = append(w.Items, lineItemJSON{
			Product:   UnresolvedProduct(li.Product.ID()),
			Quantity:  li.Quantity,
			UnitPrice: json.Number(li.UnitPrice.String()),
			Total:     json.Number(li.Total.String()),
		})
	}
	return json.Marshal(w)
}

func (p *Purchase) UnmarshalJSON(data []byte) error {
	var w purchaseJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	total, err := fromNumber(w.Total)
	if err != nil {
		return fmt.Errorf("purchase total: %w", err)
	}
	*p = Purchase{
		ID:                   w.ID,
		Supplier:             w.Supplier,
		PurchaseDate:         w.PurchaseDate,
		ExpectedDeliveryDate: w.ExpectedDeliveryDate,
		DeliveryDate:         w.DeliveryDate,
		Status:               w.Status,
		Items:                make([]LineItem, 0, len(w.Items)),
		Total:                total,
		Notes:                w.Notes,
		CreatedAt:            w.CreatedAt,
		UpdatedAt:            w.UpdatedAt,
	}
	for i, li := range w.Items {
		price, err := fromNumber(li.UnitPrice)
		if err != nil {
			return fmt.Errorf("item %d unitPrice: %w", i, err)
		}
		lineTotal, err := fromNumber(li.Total)
		if err != nil {
			return fmt.Errorf("item %d total: %w", i, err)
		}
		p.Items = append(p.Items, LineItem{
			ID:        li.ID,
			Product:   li.Product,
			Quantity:  li.Quantity,
			UnitPrice: price,
			Total:     lineTotal,
		})
	}
	return nil
}

// Date is a calendar date encoded as "2006-01-02". The zero Date encodes as null.
type Date struct {
	time.Time
}

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

// ParseDate parses s as a DateLayout date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// Today returns the current local date.
func Today() Date {
	y, m, d := time.Now().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts dates and the datetime forms some endpoints return.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, dd := t.Date()
			*d = Date{time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)}
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// Page is one page of a listing. The API returns either a Spring page object
// or, for some endpoints, a bare array; both decode into Page.
type Page[T any] struct {
	Items         []T
	TotalElements int64
	TotalPages    int
	Number        int
	Size          int
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*p = Page[T]{Items: items, TotalElements: int64(len(items)), TotalPages: 1, Size: len(items)}
		return nil
	}
	var w struct {
		Content       []T   `json:"content"`
		TotalElements int64 `json:"totalElements"`
		TotalPages    int   `json:"totalPages"`
		Number        int   `json:"number"`
		Size          int   `json:"size"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Page[T]{Items: w.Content, TotalElements: w.TotalElements, TotalPages: w.TotalPages, Number: w.Number, Size: w.Size}
	return nil
}

// HasNext reports whether a page after this one exists.
func (p Page[T]) HasNext() bool { return p.Number+1 < p.TotalPages }

// HasPrev reports whether a page before this one exists.
func (p Page[T]) HasPrev() bool { return p.Number > 0 }

func number(d decimal.Decimal) json.Number {
	if d.IsZero() {
		return ""
	}
	return json.Number(d.String())
}

func fromNumber(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(n))
}
