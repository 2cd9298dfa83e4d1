package prodex

import (
	"encoding/json"
	"sort"
)

// Field names a tracked product attribute.
type Field string

// Tracked fields. Images are deliberately not a tracked field: they belong
// to the gallery pipeline, which may override them after a merge.
const (
	FieldName        Field = "name"
	FieldPrice       Field = "price"
	FieldCurrency    Field = "currency"
	FieldDescription Field = "description"
	FieldVariants    Field = "variants"
	FieldBrand       Field = "brand"
	FieldSKU         Field = "sku"
	FieldCategory    Field = "category"
)

// FieldImages is only used as a pattern selector key.
const FieldImages Field = "images"

// TrackedFields lists the tracked fields in canonical order.
var TrackedFields = []Field{
	FieldName,
	FieldPrice,
	FieldCurrency,
	FieldDescription,
	FieldVariants,
	FieldBrand,
	FieldSKU,
	FieldCategory,
}

// IsTracked reports whether f is one of the tracked fields.
func (f Field) IsTracked() bool {
	return fieldOrder(f) >= 0
}

func fieldOrder(f Field) int {
	for i, tf := range TrackedFields {
		if tf == f {
			return i
		}
	}
	return -1
}

// FieldSet is a set of fields.
type FieldSet map[Field]struct{}

// NewFieldSet returns a set holding the given fields.
func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Add inserts f into the set.
func (s FieldSet) Add(f Field) {
	s[f] = struct{}{}
}

// Len returns the number of fields in the set.
func (s FieldSet) Len() int {
	return len(s)
}

// Union returns a new set with the fields of s and o.
func (s FieldSet) Union(o FieldSet) FieldSet {
	out := make(FieldSet, len(s)+len(o))
	for f := range s {
		out[f] = struct{}{}
	}
	for f := range o {
		out[f] = struct{}{}
	}
	return out
}

// Minus returns a new set with the fields of s that are not in o.
func (s FieldSet) Minus(o FieldSet) FieldSet {
	out := make(FieldSet, len(s))
	for f := range s {
		if !o.Has(f) {
			out[f] = struct{}{}
		}
	}
	return out
}

// Intersect returns a new set with the fields present in both s and o.
func (s FieldSet) Intersect(o FieldSet) FieldSet {
	out := make(FieldSet)
	for f := range s {
		if o.Has(f) {
			out[f] = struct{}{}
		}
	}
	return out
}

// Sorted returns the fields in canonical order. Untracked fields sort last
// by name.
func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := fieldOrder(out[i]), fieldOrder(out[j])
		if oi < 0 {
			oi = len(TrackedFields)
		}
		if oj < 0 {
			oj = len(TrackedFields)
		}
		if oi != oj {
			return oi < oj
		}
		return out[i] < out[j]
	})
	return out
}

// MarshalJSON encodes the set as a list in canonical order.
func (s FieldSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a list of field names.
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = NewFieldSet(fields...)
	return nil
}
