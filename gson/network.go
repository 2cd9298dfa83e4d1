// Package gson implements the network JSON strategy, which finds product
// records in JSON responses captured while a page loaded.
package gson

import (
	"context"
	"encoding/json"
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fwojciec/prodex"
	"github.com/ysmood/gson"
)

const networkBaseScore = 70

// maxDepth bounds the walk into captured documents.
const maxDepth = 12

// Key names tried in order for each product attribute.
var (
	nameKeys        = []string{"name", "title", "productName", "product_name", "displayName"}
	priceKeys       = []string{"price", "salePrice", "sale_price", "currentPrice", "current_price", "finalPrice", "final_price", "priceValue", "regularPrice"}
	centKeys        = []string{"priceInCents", "price_cents", "centAmount"}
	currencyKeys    = []string{"currency", "currencyCode", "currency_code", "priceCurrency"}
	descriptionKeys = []string{"descriptionHtml", "body_html", "description", "shortDescription"}
	imageKeys       = []string{"images", "media", "image", "featuredImage", "imageUrl", "image_url"}
	brandKeys       = []string{"brand", "vendor", "manufacturer"}
	categoryKeys    = []string{"category", "productType", "product_type"}
	variantKeys     = []string{"variants", "skus", "items"}
	availableKeys   = []string{"available", "availableForSale", "inStock", "in_stock"}
)

// Ensure NetworkStrategy implements prodex.Strategy at compile time.
var _ prodex.Strategy = (*NetworkStrategy)(nil)

// NetworkStrategy scores every object in the captured responses that has
// both a name and a price, and extracts the best one. Objects whose name
// appears in the page markup are preferred.
type NetworkStrategy struct{}

// NewNetworkStrategy creates a new NetworkStrategy.
func NewNetworkStrategy() *NetworkStrategy {
	return &NetworkStrategy{}
}

func (s *NetworkStrategy) Tag() prodex.StrategyTag {
	return prodex.StrategyNetworkJSON
}

func (s *NetworkStrategy) CanHandle(url string, page *prodex.PageData) bool {
	return page != nil && len(page.JSONResponses) > 0
}

type candidate struct {
	node  gson.JSON
	score int
}

func (s *NetworkStrategy) Extract(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
	tag := s.Tag()
	if page == nil || len(page.JSONResponses) == 0 {
		return prodex.Failed(tag, url, "no captured JSON responses")
	}

	sources := make([]string, 0, len(page.JSONResponses))
	for src := range page.JSONResponses {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var best *candidate
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return prodex.Failed(tag, url, "%v", err)
		}
		var found []candidate
		walk(gson.NewFrom(page.JSONResponses[src]), 0, &found)
		for i := range found {
			c := found[i]
			if name := str(c.node, nameKeys...); name != "" && strings.Contains(page.HTML, name) {
				c.score += 5
			}
			if best == nil || c.score > best.score {
				best = &c
			}
		}
	}
	if best == nil {
		return prodex.Failed(tag, url, "no product-shaped object in %d responses", len(sources))
	}

	p := product(best.node, parseBase(url))
	p.URL = url
	p.ExtractionStrategy = tag
	return prodex.Succeeded(tag, url, p, prodex.ScoreProduct(networkBaseScore, p))
}

// walk collects objects that carry a name and a price, scored by how many
// other product attributes they hold.
func walk(j gson.JSON, depth int, out *[]candidate) {
	if depth > maxDepth {
		return
	}
	switch j.Val().(type) {
	case []interface{}:
		for _, item := range j.Arr() {
			walk(item, depth+1, out)
		}
		return
	case map[string]interface{}:
	default:
		return
	}

	if str(j, nameKeys...) != "" {
		if _, ok := price(j); ok {
			score := 2
			for _, keys := range [][]string{currencyKeys, descriptionKeys, imageKeys, brandKeys, variantKeys, {"sku"}} {
				if has(j, keys...) {
					score++
				}
			}
			*out = append(*out, candidate{node: j, score: score})
		}
	}
	children := j.Map()
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		walk(children[k], depth+1, out)
	}
}

func product(node gson.JSON, base *url.URL) *prodex.Product {
	p := &prodex.Product{
		Name:     str(node, nameKeys...),
		Brand:    nameOf(node, brandKeys...),
		SKU:      str(node, "sku"),
		Category: str(node, categoryKeys...),
	}
	p.Price, _ = price(node)
	p.Currency = currency(node)

	desc := str(node, descriptionKeys...)
	if strings.Contains(desc, "<") {
		p.RawDescription = desc
		desc = stripTags(desc)
	}
	p.Description = desc

	for _, key := range imageKeys {
		if v, ok := node.Gets(key); ok {
			p.Images = appendImages(p.Images, v, base, 0)
		}
	}

	for _, v := range list(node, variantKeys...) {
		if _, isObj := v.Val().(map[string]interface{}); !isObj {
			continue
		}
		variant := prodex.Variant{SKU: str(v, "sku")}
		if vp, ok := price(v); ok {
			variant.Price = &vp
		}
		if avail, ok := boolean(v, availableKeys...); ok {
			variant.Available = &avail
		}
		if n, ok := integer(v, "inventory_quantity", "inventoryQuantity", "quantityAvailable", "stock"); ok {
			variant.StockCount = &n
		}
		variant.Size, variant.Color = options(v)
		p.Variants = append(p.Variants, variant)
		if p.Currency == "" {
			p.Currency = currency(v)
		}
	}
	if p.SKU == "" && len(p.Variants) > 0 {
		p.SKU = p.Variants[0].SKU
	}
	if p.Price == 0 && len(p.Variants) > 0 && p.Variants[0].Price != nil {
		p.Price = *p.Variants[0].Price
	}
	return p
}

// price reads a major-unit price. Objects such as {"amount": "12.50"} and
// minor-unit keys are understood.
func price(j gson.JSON) (float64, bool) {
	for _, key := range priceKeys {
		v, ok := j.Gets(key)
		if !ok {
			continue
		}
		if f, ok := number(v); ok {
			return f, true
		}
		if _, isObj := v.Val().(map[string]interface{}); isObj {
			if f, ok := priceObject(v); ok {
				return f, true
			}
		}
	}
	for _, key := range centKeys {
		if v, ok := j.Gets(key); ok {
			if f, ok := number(v); ok {
				return f / 100, true
			}
		}
	}
	for _, path := range [][]interface{}{
		{"priceRange", "minVariantPrice"},
		{"price_range", "minimum_price", "final_price"},
	} {
		if v, ok := j.Gets(path...); ok {
			if f, ok := priceObject(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func priceObject(j gson.JSON) (float64, bool) {
	for _, key := range []string{"amount", "value"} {
		if v, ok := j.Gets(key); ok {
			if f, ok := number(v); ok {
				return f, true
			}
		}
	}
	if v, ok := j.Gets("centAmount"); ok {
		if f, ok := number(v); ok {
			return f / 100, true
		}
	}
	return 0, false
}

func currency(j gson.JSON) string {
	if c := prodex.ParseCurrency(str(j, currencyKeys...)); c != "" {
		return c
	}
	for _, path := range [][]interface{}{
		{"price", "currencyCode"},
		{"price", "currency"},
		{"priceRange", "minVariantPrice", "currencyCode"},
		{"price_range", "minimum_price", "final_price", "currency"},
	} {
		if v, ok := j.Gets(path...); ok {
			if c := prodex.ParseCurrency(scalar(v)); c != "" {
				return c
			}
		}
	}
	return ""
}

// options reads size and color from either named option lists or
// positional option fields.
func options(v gson.JSON) (size, color string) {
	for _, opt := range list(v, "selectedOptions", "options", "attributes") {
		name := strings.ToLower(str(opt, "name", "label"))
		value := str(opt, "value")
		switch {
		case size == "" && strings.Contains(name, "size"):
			size = value
		case color == "" && (strings.Contains(name, "color") || strings.Contains(name, "colour")):
			color = value
		}
	}
	if size == "" {
		size = str(v, "size")
	}
	if color == "" {
		color = str(v, "color", "colour")
	}
	return size, color
}

func appendImages(out []string, v gson.JSON, base *url.URL, depth int) []string {
	if depth > 3 {
		return out
	}
	switch val := v.Val().(type) {
	case string:
		return appendUnique(out, resolveURL(base, val))
	case []interface{}:
		for _, item := range v.Arr() {
			out = appendImages(out, item, base, depth+1)
		}
	case map[string]interface{}:
		if src := str(v, "src", "url", "originalSrc", "contentUrl"); src != "" {
			return appendUnique(out, resolveURL(base, src))
		}
		for _, key := range []string{"edges", "nodes", "node", "image", "preview"} {
			if child, ok := v.Gets(key); ok {
				out = appendImages(out, child, base, depth+1)
			}
		}
	}
	return out
}

// list returns the first array at keys, unwrapping {"edges":[{"node":…}]}
// and {"nodes":[…]} connections.
func list(j gson.JSON, keys ...string) []gson.JSON {
	for _, key := range keys {
		v, ok := j.Gets(key)
		if !ok {
			continue
		}
		if _, isArr := v.Val().([]interface{}); isArr {
			return v.Arr()
		}
		if nodes, ok := v.Gets("nodes"); ok {
			return nodes.Arr()
		}
		if edges, ok := v.Gets("edges"); ok {
			var out []gson.JSON
			for _, e := range edges.Arr() {
				if n, ok := e.Gets("node"); ok {
					out = append(out, n)
				}
			}
			return out
		}
	}
	return nil
}

func has(j gson.JSON, keys ...string) bool {
	for _, k := range keys {
		if v, ok := j.Gets(k); ok && v.Val() != nil {
			return true
		}
	}
	return false
}

// str returns the first non-empty scalar at keys.
func str(j gson.JSON, keys ...string) string {
	for _, k := range keys {
		if v, ok := j.Gets(k); ok {
			if s := scalar(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// nameOf reads either a string or an object's name at keys.
func nameOf(j gson.JSON, keys ...string) string {
	for _, k := range keys {
		v, ok := j.Gets(k)
		if !ok {
			continue
		}
		if s := scalar(v); s != "" {
			return s
		}
		if s := str(v, "name"); s != "" {
			return s
		}
	}
	return ""
}

func scalar(j gson.JSON) string {
	switch v := j.Val().(type) {
	case string:
		return strings.TrimSpace(html.UnescapeString(v))
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func number(j gson.JSON) (float64, bool) {
	switch n := j.Val().(type) {
	case float64:
		return n, n > 0
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && f > 0
	case string:
		return prodex.ParsePrice(n)
	}
	return 0, false
}

func integer(j gson.JSON, keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := j.Gets(k)
		if !ok {
			continue
		}
		switch n := v.Val().(type) {
		case float64:
			return int(n), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		}
	}
	return 0, false
}

func boolean(j gson.JSON, keys ...string) (bool, bool) {
	for _, k := range keys {
		if v, ok := j.Gets(k); ok {
			if b, isBool := v.Val().(bool); isBool {
				return b, true
			}
		}
	}
	return false, false
}
