package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/prodex"
)

// Ensure Detector implements prodex.PlatformDetector at compile time.
var _ prodex.PlatformDetector = (*Detector)(nil)

// Detector identifies storefront platforms from HTML content.
// It checks generator meta tags, platform CDN hosts, inline globals and
// markup classes that are specific to each platform.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect analyzes HTML and returns the identified platform.
// Returns PlatformUnknown if the platform cannot be determined.
func (d *Detector) Detect(html string) prodex.Platform {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return prodex.PlatformUnknown
	}

	// Generator tags are the most reliable marker when present.
	if platform := d.detectFromMetaGenerator(doc); platform != prodex.PlatformUnknown {
		return platform
	}

	if strings.Contains(html, "cdn.shopify.com") ||
		strings.Contains(html, "Shopify.theme") ||
		d.hasSelector(doc, "link[href*='myshopify.com']") {
		return prodex.PlatformShopify
	}

	if d.hasSelector(doc, "body.woocommerce") ||
		d.hasSelector(doc, ".woocommerce-product-gallery") ||
		d.hasSelector(doc, "link[href*='/wp-content/plugins/woocommerce/']") {
		return prodex.PlatformWooCommerce
	}

	if d.hasSelector(doc, "script[type='text/x-magento-init']") ||
		d.hasSelector(doc, "[data-mage-init]") {
		return prodex.PlatformMagento
	}

	if strings.Contains(html, "cdn11.bigcommerce.com") ||
		d.hasSelector(doc, ".productView-images") {
		return prodex.PlatformBigCommerce
	}

	if strings.Contains(html, "var prestashop") ||
		d.hasSelector(doc, "#product-images-large") {
		return prodex.PlatformPrestaShop
	}

	return prodex.PlatformUnknown
}

// detectFromMetaGenerator checks the meta generator tag for platform identification.
func (d *Detector) detectFromMetaGenerator(doc *goquery.Document) prodex.Platform {
	generator := ""
	doc.Find("meta[name='generator']").Each(func(_ int, s *goquery.Selection) {
		if content, exists := s.Attr("content"); exists {
			generator += " " + strings.ToLower(content)
		}
	})

	switch {
	case generator == "":
		return prodex.PlatformUnknown
	case strings.Contains(generator, "woocommerce"):
		return prodex.PlatformWooCommerce
	case strings.Contains(generator, "prestashop"):
		return prodex.PlatformPrestaShop
	case strings.Contains(generator, "shopify"):
		return prodex.PlatformShopify
	case strings.Contains(generator, "magento"):
		return prodex.PlatformMagento
	case strings.Contains(generator, "bigcommerce"):
		return prodex.PlatformBigCommerce
	}

	return prodex.PlatformUnknown
}

// hasSelector checks if the document contains at least one element matching the selector.
func (d *Detector) hasSelector(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}
