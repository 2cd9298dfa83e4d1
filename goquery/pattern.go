package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/prodex"
)

// Ensure PatternApplier implements prodex.PatternApplier at compile time.
var _ prodex.PatternApplier = (*PatternApplier)(nil)

// PatternApplier runs persisted selector patterns against page markup.
// Variants are not extracted by patterns.
type PatternApplier struct {
	// Converter turns description markup into Markdown. Optional.
	Converter prodex.Converter
}

// NewPatternApplier creates a new PatternApplier.
func NewPatternApplier(conv prodex.Converter) *PatternApplier {
	return &PatternApplier{Converter: conv}
}

// Validate compiles every selector of p.
func (a *PatternApplier) Validate(p *prodex.Pattern) error {
	if p == nil {
		return prodex.Errorf(prodex.EINVALID, "nil pattern")
	}
	_, err := compilePattern(p)
	return err
}

func compilePattern(p *prodex.Pattern) (map[prodex.Field]cascadia.Selector, error) {
	if len(p.Selectors) == 0 {
		return nil, prodex.Errorf(prodex.EINVALID, "pattern has no selectors")
	}
	compiled := make(map[prodex.Field]cascadia.Selector, len(p.Selectors))
	for f, sel := range p.Selectors {
		css := strings.TrimSpace(sel.CSS)
		if css == "" {
			return nil, prodex.Errorf(prodex.EINVALID, "empty selector for %s", f)
		}
		c, err := cascadia.Compile(css)
		if err != nil {
			return nil, prodex.Errorf(prodex.EINVALID, "invalid selector for %s: %v", f, err)
		}
		compiled[f] = c
	}
	return compiled, nil
}

// Apply extracts a raw product from html. Fields whose selector matches
// nothing stay empty.
func (a *PatternApplier) Apply(p *prodex.Pattern, url, html string) (*prodex.Product, error) {
	if p == nil {
		return nil, prodex.Errorf(prodex.EINVALID, "nil pattern")
	}
	compiled, err := compilePattern(p)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}
	base := parseBase(url)

	product := &prodex.Product{URL: url}
	for f, matcher := range compiled {
		sel := doc.FindMatcher(matcher)
		if sel.Length() == 0 {
			continue
		}
		attrName := p.Selectors[f].Attr

		switch f {
		case prodex.FieldImages:
			sel.Each(func(_ int, s *goquery.Selection) {
				src := selectorValue(s, attrName)
				if attrName == "" {
					src = imageSource(s)
				}
				product.Images = appendUnique(product.Images, resolveURL(base, src))
			})
		case prodex.FieldDescription:
			first := sel.First()
			if attrName != "" {
				product.Description = normalizeSpace(attr(first, attrName))
				continue
			}
			markup, err := first.Html()
			if err != nil {
				markup = first.Text()
			}
			product.Description, product.RawDescription = describe(a.Converter, markup)
		case prodex.FieldPrice:
			if price, ok := prodex.ParsePrice(selectorValue(sel.First(), attrName)); ok {
				product.Price = price
			}
		case prodex.FieldCurrency:
			product.Currency = prodex.ParseCurrency(selectorValue(sel.First(), attrName))
		case prodex.FieldName:
			product.Name = selectorValue(sel.First(), attrName)
		case prodex.FieldBrand:
			product.Brand = selectorValue(sel.First(), attrName)
		case prodex.FieldSKU:
			product.SKU = selectorValue(sel.First(), attrName)
		case prodex.FieldCategory:
			product.Category = selectorValue(sel.First(), attrName)
		}
	}
	return product, nil
}

func selectorValue(s *goquery.Selection, attrName string) string {
	if attrName != "" {
		return strings.TrimSpace(attr(s, attrName))
	}
	return normalizeSpace(s.Text())
}
