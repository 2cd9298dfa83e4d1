package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

var _ prodex.GallerySelector = (*LoggingGallerySelector)(nil)

// LoggingGallerySelector wraps a GallerySelector and logs the detected
// storefront platform next to the gallery size.
type LoggingGallerySelector struct {
	next     prodex.GallerySelector
	detector prodex.PlatformDetector
	logger   *slog.Logger
}

// NewLoggingGallerySelector creates a new LoggingGallerySelector.
func NewLoggingGallerySelector(next prodex.GallerySelector, detector prodex.PlatformDetector, logger *slog.Logger) *LoggingGallerySelector {
	return &LoggingGallerySelector{next: next, detector: detector, logger: logger}
}

func (g *LoggingGallerySelector) Images(ctx context.Context, domain string, page *prodex.PageData) (images []string, err error) {
	defer func(begin time.Time) {
		platform := "(unknown)"
		if page != nil {
			if p := g.detector.Detect(page.HTML); p != prodex.PlatformUnknown {
				platform = string(p)
			}
		}
		g.logger.Info("gallery",
			"domain", domain,
			"platform", platform,
			"images", len(images),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.Images(ctx, domain, page)
}
