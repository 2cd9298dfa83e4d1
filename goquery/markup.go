package goquery

import (
	"context"
	"encoding/json"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/prodex"
	"github.com/ysmood/gson"
)

const markupBaseScore = 85

// Ensure StructuredMarkupStrategy implements prodex.Strategy at compile time.
var _ prodex.Strategy = (*StructuredMarkupStrategy)(nil)

// StructuredMarkupStrategy reads schema.org Product nodes from JSON-LD
// scripts, including nodes nested in @graph and ProductGroup variants.
type StructuredMarkupStrategy struct {
	// Converter turns HTML descriptions into Markdown. Optional.
	Converter prodex.Converter
}

// NewStructuredMarkupStrategy creates a new StructuredMarkupStrategy.
func NewStructuredMarkupStrategy(conv prodex.Converter) *StructuredMarkupStrategy {
	return &StructuredMarkupStrategy{Converter: conv}
}

func (s *StructuredMarkupStrategy) Tag() prodex.StrategyTag {
	return prodex.StrategyStructuredMarkup
}

func (s *StructuredMarkupStrategy) CanHandle(url string, page *prodex.PageData) bool {
	return page != nil && strings.Contains(page.HTML, "application/ld+json")
}

func (s *StructuredMarkupStrategy) Extract(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
	tag := s.Tag()
	if page == nil || page.HTML == "" {
		return prodex.Failed(tag, url, "no page markup")
	}

	doc, err := parseDocument(page.HTML)
	if err != nil {
		return prodex.Failed(tag, url, "%v", err)
	}

	nodes := ProductNodes(doc)
	if len(nodes) == 0 {
		return prodex.Failed(tag, url, "no Product markup")
	}

	p := s.product(nodes[0], parseBase(url))
	p.URL = url
	p.ExtractionStrategy = tag
	if !p.Has(prodex.FieldName) && !p.Has(prodex.FieldPrice) {
		return prodex.Failed(tag, url, "Product markup has no name or price")
	}
	return prodex.Succeeded(tag, url, p, prodex.ScoreProduct(markupBaseScore, p))
}

// ProductNodes returns the Product and ProductGroup nodes of every JSON-LD
// script in document order, named nodes first. Scripts that are not valid
// JSON are skipped.
func ProductNodes(doc *goquery.Document) []gson.JSON {
	var named, unnamed []gson.JSON
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		text = strings.TrimSuffix(strings.TrimPrefix(text, "<!--"), "-->")
		if text == "" {
			return
		}
		var found []gson.JSON
		collectProducts(gson.NewFrom(text), &found, 0)
		for _, n := range found {
			if jsonString(n, "name") != "" {
				named = append(named, n)
			} else {
				unnamed = append(unnamed, n)
			}
		}
	})
	return append(named, unnamed...)
}

const maxMarkupDepth = 8

func collectProducts(j gson.JSON, out *[]gson.JSON, depth int) {
	if depth > maxMarkupDepth {
		return
	}
	switch j.Val().(type) {
	case []interface{}:
		for _, item := range j.Arr() {
			collectProducts(item, out, depth+1)
		}
		return
	case map[string]interface{}:
	default:
		return
	}

	if hasType(j, "Product", "ProductGroup") {
		*out = append(*out, j)
		return
	}
	for _, key := range []string{"@graph", "mainEntity", "itemListElement", "item"} {
		if child, ok := j.Gets(key); ok {
			collectProducts(child, out, depth+1)
		}
	}
}

// hasType reports whether the node's @type names one of types, with or
// without a schema.org prefix.
func hasType(j gson.JSON, types ...string) bool {
	t, ok := j.Gets("@type")
	if !ok {
		return false
	}
	var names []string
	switch v := t.Val().(type) {
	case string:
		names = []string{v}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
	}
	for _, name := range names {
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		for _, want := range types {
			if strings.EqualFold(name, want) {
				return true
			}
		}
	}
	return false
}

func (s *StructuredMarkupStrategy) product(node gson.JSON, base *url.URL) *prodex.Product {
	p := &prodex.Product{
		Name:     jsonString(node, "name"),
		Brand:    nameOf(node, "brand"),
		SKU:      firstNonEmpty(jsonString(node, "sku"), jsonString(node, "productID"), jsonString(node, "mpn")),
		Category: categoryOf(node),
	}
	p.Description, p.RawDescription = describe(s.Converter, jsonString(node, "description"))
	p.Images = imagesOf(node, base)

	offers := offersOf(node)
	for _, o := range offers {
		if p.Price == 0 {
			p.Price = o.price
		}
		if p.Currency == "" {
			p.Currency = o.currency
		}
	}

	if variants, ok := node.Gets("hasVariant"); ok && hasType(node, "ProductGroup") {
		for _, v := range variants.Arr() {
			variant := prodex.Variant{
				SKU:   jsonString(v, "sku"),
				Size:  jsonString(v, "size"),
				Color: jsonString(v, "color"),
			}
			if vo := offersOf(v); len(vo) > 0 {
				variant.Price = vo[0].pricePtr()
				variant.Available = vo[0].available
				if p.Price == 0 {
					p.Price = vo[0].price
				}
				if p.Currency == "" {
					p.Currency = vo[0].currency
				}
			}
			p.Variants = append(p.Variants, variant)
			p.Images = appendUnique(p.Images, imagesOf(v, base)...)
		}
	} else if len(offers) > 1 {
		for _, o := range offers {
			p.Variants = append(p.Variants, prodex.Variant{
				SKU:       o.sku,
				Price:     o.pricePtr(),
				Available: o.available,
			})
		}
	}
	if p.SKU == "" && len(p.Variants) > 0 {
		p.SKU = p.Variants[0].SKU
	}
	return p
}

type offer struct {
	price     float64
	currency  string
	sku       string
	available *bool
}

func (o offer) pricePtr() *float64 {
	if o.price <= 0 {
		return nil
	}
	price := o.price
	return &price
}

// offersOf flattens the node's offers. AggregateOffers contribute their
// low price and any nested offers.
func offersOf(node gson.JSON) []offer {
	raw, ok := node.Gets("offers")
	if !ok {
		return nil
	}
	var items []gson.JSON
	if _, isArr := raw.Val().([]interface{}); isArr {
		items = raw.Arr()
	} else {
		items = []gson.JSON{raw}
	}

	var out []offer
	for _, item := range items {
		o := offer{
			currency: prodex.ParseCurrency(jsonString(item, "priceCurrency")),
			sku:      jsonString(item, "sku"),
		}
		if price, ok := jsonNumber(item, "price"); ok {
			o.price = price
		} else if price, ok := jsonNumber(item, "lowPrice"); ok {
			o.price = price
		} else if spec, ok := item.Gets("priceSpecification"); ok {
			if price, ok := jsonNumber(firstOf(spec), "price"); ok {
				o.price = price
			}
			if o.currency == "" {
				o.currency = prodex.ParseCurrency(jsonString(firstOf(spec), "priceCurrency"))
			}
		}
		o.available = availability(jsonString(item, "availability"))

		if hasType(item, "AggregateOffer") {
			nested := offersOf(item)
			if o.price > 0 || len(nested) == 0 {
				out = append(out, o)
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, o)
	}
	return out
}

func availability(s string) *bool {
	s = strings.ToLower(s)
	var v bool
	switch {
	case s == "":
		return nil
	case strings.Contains(s, "outofstock"), strings.Contains(s, "soldout"), strings.Contains(s, "discontinued"):
		v = false
	case strings.Contains(s, "instock"), strings.Contains(s, "limitedavailability"),
		strings.Contains(s, "preorder"), strings.Contains(s, "onlineonly"):
		v = true
	default:
		return nil
	}
	return &v
}

func imagesOf(node gson.JSON, base *url.URL) []string {
	raw, ok := node.Gets("image")
	if !ok {
		return nil
	}
	var items []gson.JSON
	if _, isArr := raw.Val().([]interface{}); isArr {
		items = raw.Arr()
	} else {
		items = []gson.JSON{raw}
	}
	var out []string
	for _, item := range items {
		var src string
		switch v := item.Val().(type) {
		case string:
			src = v
		case map[string]interface{}:
			src = firstNonEmpty(jsonString(item, "url"), jsonString(item, "contentUrl"))
		}
		out = appendUnique(out, resolveURL(base, src))
	}
	return out
}

// nameOf reads a value that is either a plain string or a node with a name.
func nameOf(node gson.JSON, key string) string {
	v, ok := node.Gets(key)
	if !ok {
		return ""
	}
	switch v.Val().(type) {
	case string:
		return jsonString(node, key)
	case []interface{}:
		for _, item := range v.Arr() {
			if s := firstNonEmpty(scalar(item), jsonString(item, "name")); s != "" {
				return s
			}
		}
		return ""
	}
	return jsonString(v, "name")
}

func categoryOf(node gson.JSON) string {
	v, ok := node.Gets("category")
	if !ok {
		return ""
	}
	if _, isArr := v.Val().([]interface{}); isArr {
		var parts []string
		for _, item := range v.Arr() {
			if s := scalar(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " > ")
	}
	return nameOf(node, "category")
}

func firstOf(j gson.JSON) gson.JSON {
	if _, isArr := j.Val().([]interface{}); isArr {
		if arr := j.Arr(); len(arr) > 0 {
			return arr[0]
		}
	}
	return j
}

// jsonString returns the scalar at key as trimmed, unescaped text.
func jsonString(j gson.JSON, key string) string {
	v, ok := j.Gets(key)
	if !ok {
		return ""
	}
	return scalar(v)
}

func scalar(j gson.JSON) string {
	switch v := j.Val().(type) {
	case string:
		return strings.TrimSpace(html.UnescapeString(v))
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// jsonNumber reads a positive price at key, from either a number or text.
func jsonNumber(j gson.JSON, key string) (float64, bool) {
	v, ok := j.Gets(key)
	if !ok {
		return 0, false
	}
	switch n := v.Val().(type) {
	case float64:
		return n, n > 0
	case int:
		return float64(n), n > 0
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && f > 0
	case string:
		return prodex.ParsePrice(n)
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
