package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/prodex"
)

// DefaultSlowThreshold is the total time above which a pooled extraction
// logs its timing breakdown.
const DefaultSlowThreshold = 3 * time.Second

// Quality gate failure reasons.
const (
	ReasonNoName   = "No product name"
	ReasonNameOnly = "Name only, no price/images/description"
)

// blockedStatuses short-circuit pooled extraction before any strategy runs.
var blockedStatuses = map[int]bool{
	403: true,
	404: true,
	410: true,
	429: true,
	500: true,
	502: true,
	503: true,
}

// placeholderNames are titles that error and challenge pages put where a
// product name would be.
var placeholderNames = map[string]bool{
	"access denied":         true,
	"just a moment":         true,
	"forbidden":             true,
	"403 forbidden":         true,
	"page not found":        true,
	"404 not found":         true,
	"not found":             true,
	"attention required":    true,
	"please wait":           true,
	"checking your browser": true,
	"security check":        true,
	"robot check":           true,
	"are you a robot?":      true,
	"captcha":               true,
	"error":                 true,
	"service unavailable":   true,
	"too many requests":     true,
}

var _ prodex.ProductExtractor = (*PooledExtractor)(nil)

// PooledExtractor extracts pages on render sessions borrowed from a pool,
// rejects error pages, and lets the gallery selector own product images.
type PooledExtractor struct {
	Pool       prodex.SessionPool
	Strategies *prodex.StrategySet
	Gallery    prodex.GallerySelector

	// Dwell is used when the config carries no calibrated dwell.
	Dwell time.Duration

	// SlowThreshold defaults to DefaultSlowThreshold.
	SlowThreshold time.Duration

	Logger *slog.Logger
}

// ExtractURL extracts one product on a pooled session.
func (p *PooledExtractor) ExtractURL(ctx context.Context, cfg *prodex.MultiStrategyConfig, url string) (result *prodex.ExtractionResult) {
	var loadTime, strategyTime, galleryTime time.Duration
	defer func(begin time.Time) {
		threshold := p.SlowThreshold
		if threshold <= 0 {
			threshold = DefaultSlowThreshold
		}
		if total := time.Since(begin); total > threshold {
			loggerOr(p.Logger).Warn("slow extraction",
				"url", url,
				"load", loadTime,
				"strategies", strategyTime,
				"gallery", galleryTime,
				"total", total,
				"success", result.Success,
			)
		}
	}(time.Now())

	session, err := p.Pool.Acquire(ctx)
	if err != nil {
		return prodex.Failed("", url, "acquiring render session: %v", err)
	}
	defer p.Pool.Release(session)

	dwell := p.Dwell
	if cfg != nil && cfg.Dwell > 0 {
		dwell = cfg.Dwell
	}

	loadBegin := time.Now()
	page, err := session.Load(ctx, url, prodex.LoadOptions{Dwell: dwell})
	loadTime = time.Since(loadBegin)
	if err != nil {
		return prodex.Failed("", url, "page load failed: %v", err)
	}
	if blockedStatuses[page.StatusCode] {
		r := prodex.Failed("", url, "HTTP %d", page.StatusCode)
		r.StatusCode = page.StatusCode
		return r
	}

	strategyBegin := time.Now()
	product, results := reconcile(ctx, p.Strategies, cfg, url, page)
	strategyTime = time.Since(strategyBegin)

	result = resultFor(url, product, results, page)
	if !result.Success {
		return result
	}
	if reason := QualityGate(product); reason != "" {
		r := prodex.Failed(result.Strategy, url, "%s", reason)
		r.StatusCode = page.StatusCode
		return r
	}

	if p.Gallery != nil {
		galleryBegin := time.Now()
		images, err := p.Gallery.Images(ctx, prodex.DomainOf(url), page)
		galleryTime = time.Since(galleryBegin)
		if err != nil {
			loggerOr(p.Logger).Debug("gallery selector failed", "url", url, "err", err)
		} else if len(images) > 0 {
			product.Images = DedupeImages(images)
			product.Finalize()
		}
	}

	return result
}

// QualityGate returns an empty string when product looks like a real
// product, and the reason it does not otherwise.
func QualityGate(product *prodex.Product) string {
	name := strings.TrimSpace(product.Name)
	if utf8.RuneCountInString(name) <= 1 || isPlaceholderName(name) {
		return ReasonNoName
	}
	hasDescription := utf8.RuneCountInString(strings.TrimSpace(product.Description)) > 10
	if !product.Has(prodex.FieldPrice) && len(product.Images) == 0 && !hasDescription {
		return ReasonNameOnly
	}
	return ""
}

func isPlaceholderName(name string) bool {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	n = strings.TrimRight(n, ".…! ")
	return placeholderNames[n]
}
