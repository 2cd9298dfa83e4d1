package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.GallerySelector = (*GallerySelector)(nil)

// GallerySelector is a mock implementation of prodex.GallerySelector.
type GallerySelector struct {
	ImagesFn func(ctx context.Context, domain string, page *prodex.PageData) ([]string, error)
}

func (g *GallerySelector) Images(ctx context.Context, domain string, page *prodex.PageData) ([]string, error) {
	return g.ImagesFn(ctx, domain, page)
}

var _ prodex.PlatformDetector = (*PlatformDetector)(nil)

// PlatformDetector is a mock implementation of prodex.PlatformDetector.
type PlatformDetector struct {
	DetectFn func(html string) prodex.Platform
}

func (d *PlatformDetector) Detect(html string) prodex.Platform {
	return d.DetectFn(html)
}
