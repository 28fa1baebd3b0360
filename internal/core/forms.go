package core

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

// FormError collects per-field problems from a supplier or product form.
// Fields maps the JSON field name to a validation tag ("required", "email", ...).
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
			return ValidCNPJ(fl.Field().String())
		})
	})
	return validate
}

// SupplierDraft is the editable form behind the supplier screen.
type SupplierDraft struct {
	ID      int64  `json:"id"`
	Name    string `json:"name" validate:"required,max=255"`
	TaxID   string `json:"cnpj" validate:"required,cnpj"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"omitempty,len=2,alpha"`
	ZipCode string `json:"zipCode" validate:"omitempty,numeric,len=8"`
	Active  bool   `json:"active"`
}

// NewSupplierDraft returns defaults for a new supplier.
func NewSupplierDraft() SupplierDraft { return SupplierDraft{Active: true} }

// SupplierDraftFrom copies s into a fresh draft.
func SupplierDraftFrom(s Supplier) SupplierDraft {
	return SupplierDraft{
		ID: s.ID, Name: s.Name, TaxID: s.TaxID, Email: s.Email, Phone: s.Phone,
		Address: s.Address, City: s.City, State: s.State, ZipCode: s.ZipCode, Active: s.Active,
	}
}

// Normalize trims whitespace, strips punctuation from the tax id and zip code,
// and upper-cases the state.
func (d *SupplierDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.TaxID = digitsOnly(d.TaxID)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.ToUpper(strings.TrimSpace(d.State))
	d.ZipCode = digitsOnly(d.ZipCode)
}

// Validate checks the draft. The phone, when present, must be a valid number
// for region (an ISO 3166 code such as "BR").
func (d SupplierDraft) Validate(region string) error {
	fields := map[string]string{}
	collect(formValidator().Struct(d), fields)
	if d.Phone != "" {
		if err := ValidatePhone(d.Phone, region); err != nil {
			fields["phone"] = "phone"
		}
	}
	if len(fields) > 0 {
		return &FormError{Fields: fields}
	}
	return nil
}

// Supplier converts the draft into the record sent to the API.
func (d SupplierDraft) Supplier() Supplier {
	return Supplier{
		ID: d.ID, Name: d.Name, TaxID: d.TaxID, Email: d.Email, Phone: d.Phone,
		Address: d.Address, City: d.City, State: d.State, ZipCode: d.ZipCode, Active: d.Active,
	}
}

// ProductDraft is the editable form behind the product screen. Numeric fields
// are strings as typed by the user.
type ProductDraft struct {
	ID                  int64  `json:"id"`
	SKU                 string `json:"sku" validate:"required,max=50"`
	Name                string `json:"name" validate:"required,max=255"`
	Description         string `json:"description" validate:"max=1000"`
	Width               string `json:"width"`
	Height              string `json:"height"`
	Length              string `json:"length"`
	Weight              string `json:"weight"`
	Volume              string `json:"volume"`
	Unit                string `json:"unit" validate:"max=10"`
	DefaultPrice        string `json:"defaultPrice"`
	PreferredSupplierID *int64 `json:"preferredSupplierId"`
	Active              bool   `json:"active"`
}

// NewProductDraft returns defaults for a new product.
func NewProductDraft() ProductDraft {
	return ProductDraft{Unit: "UN", DefaultPrice: "0", Active: true}
}

// ProductDraftFrom copies p into a fresh draft.
func ProductDraftFrom(p Product) ProductDraft {
	str := func(d decimal.Decimal) string {
		if d.IsZero() {
			return ""
		}
		return d.String()
	}
	return ProductDraft{
		ID: p.ID, SKU: p.SKU, Name: p.Name, Description: p.Description,
		Width: str(p.Width), Height: str(p.Height), Length: str(p.Length),
		Weight: str(p.Weight), Volume: str(p.Volume), Unit: p.Unit,
		DefaultPrice: p.DefaultPrice.String(), PreferredSupplierID: p.PreferredSupplierID, Active: p.Active,
	}
}

// Normalize trims text fields and upper-cases SKU and unit.
func (d *ProductDraft) Normalize() {
	d.SKU = strings.ToUpper(strings.TrimSpace(d.SKU))
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Unit = strings.ToUpper(strings.TrimSpace(d.Unit))
	for _, f := range []*string{&d.Width, &d.Height, &d.Length, &d.Weight, &d.Volume, &d.DefaultPrice} {
		*f = strings.ReplaceAll(strings.TrimSpace(*f), ",", ".")
	}
}

// Validate checks text fields with struct tags and numeric fields by parsing them.
func (d ProductDraft) Validate() error {
	fields := map[string]string{}
	collect(formValidator().Struct(d), fields)
	if _, err := d.Product(); err != nil {
		var fe *FormError
		if errors.As(err, &fe) {
			for k, v := range fe.Fields {
				fields[k] = v
			}
		}
	}
	if len(fields) > 0 {
		return &FormError{Fields: fields}
	}
	return nil
}

// Product parses the numeric fields and returns the record sent to the API.
func (d ProductDraft) Product() (Product, error) {
	p := Product{
		ID: d.ID, SKU: d.SKU, Name: d.Name, Description: d.Description, Unit: d.Unit,
		PreferredSupplierID: d.PreferredSupplierID, Active: d.Active,
	}
	fields := map[string]string{}
	for _, f := range []struct {
		key string
		src string
		dst *decimal.Decimal
	}{
		{"width", d.Width, &p.Width},
		{"height", d.Height, &p.Height},
		{"length", d.Length, &p.Length},
		{"weight", d.Weight, &p.Weight},
		{"volume", d.Volume, &p.Volume},
		{"defaultPrice", d.DefaultPrice, &p.DefaultPrice},
	} {
		if f.src == "" {
			*f.dst = decimal.Zero
			continue
		}
		v, err := decimal.NewFromString(f.src)
		if err != nil {
			fields[f.key] = "numeric"
			continue
		}
		if v.IsNegative() {
			fields[f.key] = "gte"
			continue
		}
		*f.dst = v
	}
	if len(fields) > 0 {
		return Product{}, &FormError{Fields: fields}
	}
	return p, nil
}

// ValidatePhone checks that phone is a valid number for region.
func ValidatePhone(phone, region string) error {
	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return fmt.Errorf("parse phone %q: %w", phone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number %q is not valid", phone)
	}
	return nil
}

// FormatPhone returns phone in international format, or the input unchanged
// when it cannot be parsed.
func FormatPhone(phone, region string) string {
	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return phone
	}
	return libphonenumber.Format(p, libphonenumber.INTERNATIONAL)
}

// ValidCNPJ verifies a 14-digit Brazilian company tax id, punctuation allowed.
func ValidCNPJ(s string) bool {
	d := digitsOnly(s)
	if len(d) != 14 || strings.Count(d, d[:1]) == 14 {
		return false
	}
	check := func(n int) byte {
		weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}[13-n:]
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * weights[i]
		}
		r := sum % 11
		if r < 2 {
			return '0'
		}
		return byte('0' + 11 - r)
	}
	return d[12] == check(12) && d[13] == check(13)
}

func collect(err error, fields map[string]string) {
	if err == nil {
		return
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		fields["_"] = err.Error()
		return
	}
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
