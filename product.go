package prodex

import "strings"

// DefaultCurrency is the sentinel currency applied when none was extracted.
const DefaultCurrency = "USD"

// Product is the canonical product record.
//
// A zero Price means absent. An empty Currency means absent until Finalize
// applies DefaultCurrency; a defaulted currency keeps MissingFields.Currency
// set so it is never mistaken for extracted data.
type Product struct {
	Name               string        `json:"name"`
	Price              float64       `json:"price"`
	Currency           string        `json:"currency"`
	Description        string        `json:"description"`
	RawDescription     string        `json:"raw_description,omitempty"`
	Images             []string      `json:"images"`
	Variants           []Variant     `json:"variants"`
	Brand              string        `json:"brand,omitempty"`
	SKU                string        `json:"sku,omitempty"`
	Category           string        `json:"category,omitempty"`
	URL                string        `json:"url"`
	ExtractionStrategy StrategyTag   `json:"extraction_strategy,omitempty"`
	MissingFields      MissingFields `json:"missing_fields"`
}

// MissingFields flags which of the six flagged fields hold no value.
// Brand, SKU and category are never flagged.
type MissingFields struct {
	Name        bool `json:"name"`
	Price       bool `json:"price"`
	Currency    bool `json:"currency"`
	Images      bool `json:"images"`
	Description bool `json:"description"`
	Variants    bool `json:"variants"`
}

// Variant is one purchasable option of a product.
type Variant struct {
	Size       string   `json:"size,omitempty"`
	Color      string   `json:"color,omitempty"`
	SKU        string   `json:"sku,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	Available  *bool    `json:"available,omitempty"`
	StockCount *int     `json:"stock_count,omitempty"`
}

// EmptyProduct returns the sentinel product produced when nothing could be
// extracted.
func EmptyProduct(url string) *Product {
	p := &Product{URL: url}
	p.Finalize()
	return p
}

// Has reports whether the tracked field f holds a non-empty value.
func (p *Product) Has(f Field) bool {
	if p == nil {
		return false
	}
	switch f {
	case FieldName:
		return strings.TrimSpace(p.Name) != ""
	case FieldPrice:
		return p.Price > 0
	case FieldCurrency:
		return strings.TrimSpace(p.Currency) != "" && !p.MissingFields.Currency
	case FieldDescription:
		return strings.TrimSpace(p.Description) != ""
	case FieldVariants:
		return len(p.Variants) > 0
	case FieldBrand:
		return strings.TrimSpace(p.Brand) != ""
	case FieldSKU:
		return strings.TrimSpace(p.SKU) != ""
	case FieldCategory:
		return strings.TrimSpace(p.Category) != ""
	case FieldImages:
		return len(p.Images) > 0
	}
	return false
}

// ContributedFields returns the tracked fields that hold values.
func (p *Product) ContributedFields() FieldSet {
	s := NewFieldSet()
	for _, f := range TrackedFields {
		if p.Has(f) {
			s.Add(f)
		}
	}
	return s
}

// CopyField copies the tracked field f from src when src has a value for it.
// It reports whether anything was copied.
func (p *Product) CopyField(f Field, src *Product) bool {
	if !src.Has(f) {
		return false
	}
	switch f {
	case FieldName:
		p.Name = src.Name
	case FieldPrice:
		p.Price = src.Price
	case FieldCurrency:
		p.Currency = src.Currency
		p.MissingFields.Currency = false
	case FieldDescription:
		p.Description = src.Description
	case FieldVariants:
		p.Variants = append([]Variant(nil), src.Variants...)
	case FieldBrand:
		p.Brand = src.Brand
	case FieldSKU:
		p.SKU = src.SKU
	case FieldCategory:
		p.Category = src.Category
	case FieldImages:
		p.Images = append([]string(nil), src.Images...)
	default:
		return false
	}
	return true
}

// Finalize recomputes MissingFields from the current values and applies the
// sentinel defaults. It is safe to call more than once.
func (p *Product) Finalize() {
	p.MissingFields = MissingFields{
		Name:        !p.Has(FieldName),
		Price:       !p.Has(FieldPrice),
		Currency:    !p.Has(FieldCurrency),
		Images:      len(p.Images) == 0,
		Description: !p.Has(FieldDescription),
		Variants:    len(p.Variants) == 0,
	}
	if p.MissingFields.Price {
		p.Price = 0
	}
	if p.MissingFields.Currency {
		p.Currency = DefaultCurrency
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
}

// Clone returns a deep copy of p.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	other := *p
	if p.Images != nil {
		other.Images = append([]string{}, p.Images...)
	}
	if p.Variants != nil {
		other.Variants = make([]Variant, len(p.Variants))
		for i, v := range p.Variants {
			other.Variants[i] = v.clone()
		}
	}
	return &other
}

func (v Variant) clone() Variant {
	out := v
	if v.Price != nil {
		price := *v.Price
		out.Price = &price
	}
	if v.Available != nil {
		available := *v.Available
		out.Available = &available
	}
	if v.StockCount != nil {
		count := *v.StockCount
		out.StockCount = &count
	}
	return out
}
