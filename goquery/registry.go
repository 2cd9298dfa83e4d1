package goquery

import (
	"sort"

	"github.com/fwojciec/prodex"
)

// genericGallerySelectors apply to every platform after its own selectors.
var genericGallerySelectors = []string{
	"[class*='product-gallery'] img",
	"[class*='product-images'] img",
	"[class*='product-media'] img",
	"[class*='gallery'] img",
	"[class*='carousel'] img",
	"[class*='slider'] img",
}

// Registry holds gallery selectors per storefront platform, in the order
// they should be tried.
type Registry struct {
	selectors map[prodex.Platform][]string
	generic   []string
}

// NewRegistry creates a Registry preloaded with selectors for the
// recognized platforms.
func NewRegistry() *Registry {
	r := &Registry{
		selectors: make(map[prodex.Platform][]string),
		generic:   genericGallerySelectors,
	}
	r.Register(prodex.PlatformShopify,
		".product__media-list img",
		".product__media img",
		".product-single__media img",
		"[data-product-media-type-image] img",
		".product__photos img",
	)
	r.Register(prodex.PlatformWooCommerce,
		".woocommerce-product-gallery__image img",
		".woocommerce-product-gallery img",
	)
	r.Register(prodex.PlatformMagento,
		".fotorama__stage__frame img",
		".gallery-placeholder img",
		".product.media img",
	)
	r.Register(prodex.PlatformBigCommerce,
		".productView-images img",
		".productView-thumbnails img",
	)
	r.Register(prodex.PlatformPrestaShop,
		"#product-images-large img",
		".images-container img",
		".product-images img",
	)
	return r
}

// Get returns the selectors registered for a platform.
// Returns nil if none are registered.
func (r *Registry) Get(platform prodex.Platform) []string {
	return r.selectors[platform]
}

// Selectors returns the platform's selectors followed by the generic ones.
func (r *Registry) Selectors(platform prodex.Platform) []string {
	out := append([]string(nil), r.selectors[platform]...)
	return append(out, r.generic...)
}

// Register sets the selectors for a platform, replacing any registered
// before.
func (r *Registry) Register(platform prodex.Platform, selectors ...string) {
	r.selectors[platform] = selectors
}

// List returns all platforms with registered selectors, sorted.
func (r *Registry) List() []prodex.Platform {
	platforms := make([]prodex.Platform, 0, len(r.selectors))
	for p := range r.selectors {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
