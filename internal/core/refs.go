package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Entity is a record addressable by a numeric id.
type Entity interface {
	Supplier | Product
	Identity() int64
	Label() string
}

// Ref is a reference that arrives either as a bare id (unresolved) or as the
// embedded record (resolved). Decoding normalizes both wire shapes; code
// downstream asks for ID or Record and never looks at the raw JSON.
type Ref[T Entity] struct {
	id     int64
	record *T
}

// SupplierRef references a supplier from a purchase.
type SupplierRef = Ref[Supplier]

// ProductRef references a product from a line item.
type ProductRef = Ref[Product]

// Unresolved returns a reference holding only id.
func Unresolved[T Entity](id int64) Ref[T] { return Ref[T]{id: id} }

// Resolved returns a reference holding the full record.
func Resolved[T Entity](rec T) Ref[T] { return Ref[T]{id: rec.Identity(), record: &rec} }

// UnresolvedSupplier is Unresolved for suppliers.
func UnresolvedSupplier(id int64) SupplierRef { return Unresolved[Supplier](id) }

// UnresolvedProduct is Unresolved for products.
func UnresolvedProduct(id int64) ProductRef { return Unresolved[Product](id) }

// ID returns the referenced id, or 0 for an empty reference.
func (r Ref[T]) ID() int64 { return r.id }

// IsZero reports whether the reference points at nothing.
func (r Ref[T]) IsZero() bool { return r.id == 0 && r.record == nil }

// IsResolved reports whether the full record is available.
func (r Ref[T]) IsResolved() bool { return r.record != nil }

// Record returns the embedded record, if resolved.
func (r Ref[T]) Record() (T, bool) {
	if r.record == nil {
		var zero T
		return zero, false
	}
	return *r.record, true
}

// Label returns the record's label when resolved, otherwise "#<id>".
func (r Ref[T]) Label() string {
	if r.record != nil {
		return (*r.record).Label()
	}
	if r.id == 0 {
		return ""
	}
	return "#" + strconv.FormatInt(r.id, 10)
}

// MarshalJSON always writes the bare id.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(r.id, 10)), nil
}

// UnmarshalJSON accepts null, a number, a numeric string, or an embedded object.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = Ref[T]{}
		return nil
	case data[0] == '{':
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decode embedded reference: %w", err)
		}
		*r = Resolved(rec)
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid reference id %q", s)
		}
		*r = Ref[T]{id: id}
		return nil
	default:
		id, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid reference id %s", data)
		}
		*r = Ref[T]{id: id}
		return nil
	}
}
