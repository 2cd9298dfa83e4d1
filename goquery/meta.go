package goquery

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/prodex"
)

const metaBaseScore = 60

// maxFallbackDescription caps a description taken from main page content.
const maxFallbackDescription = 2000

// Ensure MetaTagStrategy implements prodex.Strategy at compile time.
var _ prodex.Strategy = (*MetaTagStrategy)(nil)

// MetaTagStrategy reads Open Graph, product and Twitter meta tags, falling
// back to itemprop microdata and the document title.
type MetaTagStrategy struct {
	// Content supplies a description when the page declares none.
	// Optional.
	Content prodex.ContentExtractor
}

// NewMetaTagStrategy creates a new MetaTagStrategy.
func NewMetaTagStrategy(content prodex.ContentExtractor) *MetaTagStrategy {
	return &MetaTagStrategy{Content: content}
}

func (s *MetaTagStrategy) Tag() prodex.StrategyTag {
	return prodex.StrategyMetaTags
}

func (s *MetaTagStrategy) CanHandle(url string, page *prodex.PageData) bool {
	return page != nil && strings.Contains(page.HTML, "<meta")
}

func (s *MetaTagStrategy) Extract(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
	tag := s.Tag()
	if page == nil || page.HTML == "" {
		return prodex.Failed(tag, url, "no page markup")
	}

	doc, err := parseDocument(page.HTML)
	if err != nil {
		return prodex.Failed(tag, url, "%v", err)
	}
	base := parseBase(url)
	meta := metaTags(doc)

	p := &prodex.Product{
		Name: firstNonEmpty(meta.first("og:title", "twitter:title"), itemprop(doc, "name"), title(doc)),
		Currency: prodex.ParseCurrency(firstNonEmpty(
			meta.first("product:price:currency", "og:price:currency"),
			itemprop(doc, "priceCurrency"),
		)),
		Brand:              firstNonEmpty(meta.first("product:brand", "og:brand"), itemprop(doc, "brand")),
		SKU:                firstNonEmpty(meta.first("product:retailer_item_id", "product:sku"), itemprop(doc, "sku")),
		Category:           firstNonEmpty(meta.first("product:category"), itemprop(doc, "category")),
		URL:                url,
		ExtractionStrategy: tag,
	}

	if price, ok := prodex.ParsePrice(firstNonEmpty(
		meta.first("product:price:amount", "og:price:amount", "product:sale_price:amount"),
		itemprop(doc, "price"),
	)); ok {
		p.Price = price
	}

	p.Description = normalizeSpace(firstNonEmpty(
		meta.first("og:description", "twitter:description", "description"),
		itemprop(doc, "description"),
	))
	if p.Description == "" && s.Content != nil {
		p.Description = s.fallbackDescription(page.HTML)
	}

	for _, src := range meta.all("og:image:secure_url", "og:image", "og:image:url", "twitter:image", "twitter:image:src") {
		p.Images = appendUnique(p.Images, resolveURL(base, src))
	}
	doc.Find(`[itemprop="image"]`).Each(func(_ int, sel *goquery.Selection) {
		p.Images = appendUnique(p.Images, resolveURL(base, firstNonEmpty(attr(sel, "content"), attr(sel, "src"), attr(sel, "href"))))
	})

	if !p.Has(prodex.FieldName) {
		return prodex.Failed(tag, url, "no product name in meta tags")
	}
	return prodex.Succeeded(tag, url, p, prodex.ScoreProduct(metaBaseScore, p))
}

func (s *MetaTagStrategy) fallbackDescription(html string) string {
	content, err := s.Content.Extract(html)
	if err != nil || content == nil {
		return ""
	}
	if d := normalizeSpace(content.Description); d != "" {
		return d
	}
	if content.HTML == "" {
		return ""
	}
	doc, err := parseDocument(content.HTML)
	if err != nil {
		return ""
	}
	text := normalizeSpace(doc.Text())
	if r := []rune(text); len(r) > maxFallbackDescription {
		text = string(r[:maxFallbackDescription])
	}
	return text
}

// metaValues maps lowercased meta property or name keys to their contents
// in document order.
type metaValues map[string][]string

func metaTags(doc *goquery.Document) metaValues {
	m := make(metaValues)
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		content := strings.TrimSpace(attr(sel, "content"))
		if content == "" {
			return
		}
		for _, key := range []string{"property", "name"} {
			if k := strings.ToLower(strings.TrimSpace(attr(sel, key))); k != "" {
				m[k] = append(m[k], content)
			}
		}
	})
	return m
}

func (m metaValues) first(keys ...string) string {
	for _, k := range keys {
		if vals := m[k]; len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func (m metaValues) all(keys ...string) []string {
	var out []string
	for _, k := range keys {
		out = append(out, m[k]...)
	}
	return out
}

// itemprop reads the first microdata property named prop that belongs to
// a product or offer scope. Nested items such as a brand Organization
// yield their own name.
func itemprop(doc *goquery.Document, prop string) string {
	var sel *goquery.Selection
	doc.Find(`[itemprop="` + prop + `"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if scope := s.Parent().Closest("[itemscope]"); scope.Length() > 0 {
			itemtype := attr(scope, "itemtype")
			if !strings.Contains(itemtype, "Product") && !strings.Contains(itemtype, "Offer") {
				return true
			}
		}
		sel = s
		return false
	})
	if sel == nil {
		return ""
	}
	if v := strings.TrimSpace(attr(sel, "content")); v != "" {
		return v
	}
	if _, scoped := sel.Attr("itemscope"); scoped {
		if name := sel.Find(`[itemprop="name"]`).First(); name.Length() > 0 {
			return firstNonEmpty(strings.TrimSpace(attr(name, "content")), normalizeSpace(name.Text()))
		}
	}
	return normalizeSpace(sel.Text())
}

// title returns the document title without a trailing site name.
func title(doc *goquery.Document) string {
	t := normalizeSpace(doc.Find("title").First().Text())
	for _, sep := range []string{" | ", " – ", " — ", " - "} {
		if i := strings.LastIndex(t, sep); i > 0 {
			return strings.TrimSpace(t[:i])
		}
	}
	return t
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return v
}
