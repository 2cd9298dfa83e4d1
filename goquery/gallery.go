package goquery

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/prodex"
)

// Ensure GallerySelector implements prodex.GallerySelector at compile time.
var _ prodex.GallerySelector = (*GallerySelector)(nil)

// GallerySelector finds a product's image gallery. The first selector that
// yields images for a domain is remembered and tried first on later pages
// of that domain.
type GallerySelector struct {
	detector prodex.PlatformDetector
	registry *Registry

	mu    sync.RWMutex
	cache map[string]string
}

// NewGallerySelector creates a GallerySelector. A nil detector or registry
// is replaced with the package default.
func NewGallerySelector(detector prodex.PlatformDetector, registry *Registry) *GallerySelector {
	if detector == nil {
		detector = NewDetector()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &GallerySelector{
		detector: detector,
		registry: registry,
		cache:    make(map[string]string),
	}
}

// Images returns the gallery images of page in display order.
func (g *GallerySelector) Images(ctx context.Context, domain string, page *prodex.PageData) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page == nil || page.HTML == "" {
		return []string{}, nil
	}

	doc, err := parseDocument(page.HTML)
	if err != nil {
		return nil, err
	}
	base := parseBase(page.URL)

	if selector, ok := g.cached(domain); ok {
		if images := galleryImages(doc, selector, base); len(images) > 0 {
			return images, nil
		}
	}

	for _, selector := range g.registry.Selectors(g.detector.Detect(page.HTML)) {
		if images := galleryImages(doc, selector, base); len(images) > 0 {
			g.remember(domain, selector)
			return images, nil
		}
	}
	return []string{}, nil
}

// Selector returns the selector cached for domain.
func (g *GallerySelector) Selector(domain string) (string, bool) {
	return g.cached(domain)
}

func (g *GallerySelector) cached(domain string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.cache[domain]
	return s, ok
}

func (g *GallerySelector) remember(domain, selector string) {
	if domain == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[domain] = selector
}

func galleryImages(doc *goquery.Document, selector string, base *url.URL) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = appendUnique(out, resolveURL(base, imageSource(s)))
	})
	return out
}

// imageSource picks the best source of an image element: zoom and lazy
// attributes first, then the widest srcset candidate, then src.
func imageSource(s *goquery.Selection) string {
	for _, name := range []string{"data-zoom-image", "data-large_image", "data-full", "data-src"} {
		if v := strings.TrimSpace(attr(s, name)); v != "" {
			return v
		}
	}
	for _, name := range []string{"data-srcset", "srcset"} {
		if v := widestSrcset(attr(s, name)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(attr(s, "src"))
}

// widestSrcset returns the candidate with the largest width descriptor.
func widestSrcset(srcset string) string {
	best, bestWidth := "", -1
	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}
		width := 0
		if len(fields) > 1 {
			width, _ = strconv.Atoi(strings.TrimRight(fields[1], "wx"))
		}
		if width > bestWidth {
			best, bestWidth = fields[0], width
		}
	}
	return best
}
