package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/prodex"
)

// Base reliabilities of the endpoint strategies.
const (
	nativeBaseScore     = 95
	storefrontBaseScore = 90
)

var productPath = regexp.MustCompile(`/products/[^/?#]+`)

// shopCurrency finds the storefront's active currency in inline scripts.
var shopCurrency = regexp.MustCompile(`Shopify\.currency\s*=\s*\{\s*"active"\s*:\s*"([A-Z]{3})"`)

// endpointURL returns the product URL with the query and fragment dropped
// and suffix appended to the path.
func endpointURL(rawURL, suffix string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/") + suffix
	u.RawPath = ""
	return u.String(), nil
}

// endpointStrategy is the shared fetch-and-decode path of the storefront
// endpoints.
type endpointStrategy struct {
	client    *http.Client
	userAgent string
}

func newEndpointStrategy(client *http.Client) endpointStrategy {
	if client == nil {
		client = &http.Client{Timeout: DefaultLoadTimeout}
	}
	return endpointStrategy{client: client, userAgent: DefaultUserAgent}
}

func (s endpointStrategy) fetch(ctx context.Context, rawURL, suffix string, v any) error {
	endpoint, err := endpointURL(rawURL, suffix)
	if err != nil {
		return err
	}
	body, status, err := get(ctx, s.client, endpoint, s.userAgent, "application/json")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return prodex.Errorf(prodex.ENOTFOUND, "HTTP %d for %s", status, endpoint)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return prodex.Errorf(prodex.EINVALID, "decoding %s: %s", endpoint, err)
	}
	return nil
}

func canHandleProductPath(rawURL string) bool {
	return productPath.MatchString(rawURL)
}

// Ensure NativeEndpointStrategy implements prodex.Strategy at compile time.
var _ prodex.Strategy = (*NativeEndpointStrategy)(nil)

// NativeEndpointStrategy reads the product document a storefront serves at
// "<product URL>.json", with decimal string prices.
type NativeEndpointStrategy struct {
	endpointStrategy
}

// NewNativeEndpointStrategy returns a strategy using client, or a default
// client when nil.
func NewNativeEndpointStrategy(client *http.Client) *NativeEndpointStrategy {
	return &NativeEndpointStrategy{newEndpointStrategy(client)}
}

func (s *NativeEndpointStrategy) Tag() prodex.StrategyTag {
	return prodex.StrategyNativeEndpoint
}

func (s *NativeEndpointStrategy) CanHandle(url string, page *prodex.PageData) bool {
	return canHandleProductPath(url)
}

type nativeDocument struct {
	Product *nativeProduct `json:"product"`
}

type nativeProduct struct {
	Title       string             `json:"title"`
	BodyHTML    string             `json:"body_html"`
	Vendor      string             `json:"vendor"`
	ProductType string             `json:"product_type"`
	Options     []storefrontOption `json:"options"`
	Variants    []struct {
		Title             string `json:"title"`
		Price             string `json:"price"`
		SKU               string `json:"sku"`
		Option1           string `json:"option1"`
		Option2           string `json:"option2"`
		Option3           string `json:"option3"`
		Available         *bool  `json:"available"`
		InventoryQuantity *int   `json:"inventory_quantity"`
	} `json:"variants"`
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
}

func (s *NativeEndpointStrategy) Extract(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
	tag := s.Tag()

	var doc nativeDocument
	if err := s.fetch(ctx, url, ".json", &doc); err != nil {
		return prodex.Failed(tag, url, "%v", err)
	}
	if doc.Product == nil {
		return prodex.Failed(tag, url, "no product in response")
	}
	np := doc.Product

	p := &prodex.Product{
		Name:               strings.TrimSpace(np.Title),
		Description:        htmlText(np.BodyHTML),
		RawDescription:     np.BodyHTML,
		Brand:              strings.TrimSpace(np.Vendor),
		Category:           strings.TrimSpace(np.ProductType),
		URL:                url,
		ExtractionStrategy: tag,
	}
	if page != nil {
		p.Currency = currencyOf(page.HTML)
	}

	roles := optionRoles(np.Options)
	for i, v := range np.Variants {
		variant := prodex.Variant{
			SKU:        strings.TrimSpace(v.SKU),
			Available:  v.Available,
			StockCount: v.InventoryQuantity,
		}
		if price, err := strconv.ParseFloat(strings.TrimSpace(v.Price), 64); err == nil && price > 0 {
			variant.Price = &price
			if i == 0 {
				p.Price = price
			}
		}
		roles.assign(&variant, v.Option1, v.Option2, v.Option3)
		p.Variants = append(p.Variants, variant)
	}
	if len(p.Variants) > 0 {
		p.SKU = p.Variants[0].SKU
	}
	for _, img := range np.Images {
		if src := absoluteImage(img.Src); src != "" {
			p.Images = append(p.Images, src)
		}
	}

	if !p.Has(prodex.FieldName) {
		return prodex.Failed(tag, url, "product has no title")
	}
	return prodex.Succeeded(tag, url, p, prodex.ScoreProduct(nativeBaseScore, p))
}

// Ensure StorefrontStrategy implements prodex.Strategy at compile time.
var _ prodex.Strategy = (*StorefrontStrategy)(nil)

// StorefrontStrategy reads the storefront's AJAX product document at
// "<product URL>.js", with prices in minor units.
type StorefrontStrategy struct {
	endpointStrategy
}

// NewStorefrontStrategy returns a strategy using client, or a default
// client when nil.
func NewStorefrontStrategy(client *http.Client) *StorefrontStrategy {
	return &StorefrontStrategy{newEndpointStrategy(client)}
}

func (s *StorefrontStrategy) Tag() prodex.StrategyTag {
	return prodex.StrategyStorefrontAPI
}

func (s *StorefrontStrategy) CanHandle(url string, page *prodex.PageData) bool {
	return canHandleProductPath(url)
}

type storefrontProduct struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Vendor      string             `json:"vendor"`
	Type        string             `json:"type"`
	Price       int64              `json:"price"`
	Options     []storefrontOption `json:"options"`
	Variants    []struct {
		Price             int64  `json:"price"`
		SKU               string `json:"sku"`
		Option1           string `json:"option1"`
		Option2           string `json:"option2"`
		Option3           string `json:"option3"`
		Available         *bool  `json:"available"`
		InventoryQuantity *int   `json:"inventory_quantity"`
	} `json:"variants"`
	Images []string `json:"images"`
}

func (s *StorefrontStrategy) Extract(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
	tag := s.Tag()

	var sp storefrontProduct
	if err := s.fetch(ctx, url, ".js", &sp); err != nil {
		return prodex.Failed(tag, url, "%v", err)
	}

	p := &prodex.Product{
		Name:               strings.TrimSpace(sp.Title),
		Price:              minorUnits(sp.Price),
		Description:        htmlText(sp.Description),
		RawDescription:     sp.Description,
		Brand:              strings.TrimSpace(sp.Vendor),
		Category:           strings.TrimSpace(sp.Type),
		URL:                url,
		ExtractionStrategy: tag,
	}
	if page != nil {
		p.Currency = currencyOf(page.HTML)
	}

	roles := optionRoles(sp.Options)
	for _, v := range sp.Variants {
		variant := prodex.Variant{
			SKU:        strings.TrimSpace(v.SKU),
			Available:  v.Available,
			StockCount: v.InventoryQuantity,
		}
		if v.Price > 0 {
			price := minorUnits(v.Price)
			variant.Price = &price
		}
		roles.assign(&variant, v.Option1, v.Option2, v.Option3)
		p.Variants = append(p.Variants, variant)
	}
	if p.Price == 0 && len(p.Variants) > 0 && p.Variants[0].Price != nil {
		p.Price = *p.Variants[0].Price
	}
	if len(p.Variants) > 0 {
		p.SKU = p.Variants[0].SKU
	}
	for _, img := range sp.Images {
		if src := absoluteImage(img); src != "" {
			p.Images = append(p.Images, src)
		}
	}

	if !p.Has(prodex.FieldName) {
		return prodex.Failed(tag, url, "product has no title")
	}
	return prodex.Succeeded(tag, url, p, prodex.ScoreProduct(storefrontBaseScore, p))
}

// storefrontOption is an option name, serialized either as a bare string
// or as an object with a name.
type storefrontOption struct {
	Name string
}

func (o *storefrontOption) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		o.Name = name
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	o.Name = obj.Name
	return nil
}

// roles maps option positions to the variant attribute they hold.
type roles struct {
	size, color int
}

func optionRoles(options []storefrontOption) roles {
	r := roles{size: -1, color: -1}
	for i, o := range options {
		name := strings.ToLower(o.Name)
		switch {
		case r.size < 0 && strings.Contains(name, "size"):
			r.size = i
		case r.color < 0 && (strings.Contains(name, "color") || strings.Contains(name, "colour")):
			r.color = i
		}
	}
	return r
}

func (r roles) assign(v *prodex.Variant, values ...string) {
	if r.size >= 0 && r.size < len(values) {
		v.Size = strings.TrimSpace(values[r.size])
	}
	if r.color >= 0 && r.color < len(values) {
		v.Color = strings.TrimSpace(values[r.color])
	}
}

func minorUnits(cents int64) float64 {
	return float64(cents) / 100
}

func currencyOf(html string) string {
	if m := shopCurrency.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}

func absoluteImage(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// htmlText flattens an HTML fragment to whitespace-normalized text.
func htmlText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
