package prodex

import "context"

// GallerySelector extracts a product's image gallery. Implementations either
// reuse a cached selector for the domain or discover a fresh one.
type GallerySelector interface {
	// Images returns gallery image URLs in display order. An empty list
	// means no gallery was found.
	Images(ctx context.Context, domain string, page *PageData) ([]string, error)
}
