package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

var _ prodex.ProductExtractor = (*Extractor)(nil)

// Extractor loads a page with its own loader and reconciles the strategies
// the domain config selects.
type Extractor struct {
	Loader      prodex.PageLoader
	Strategies  *prodex.StrategySet
	Limiter     prodex.DomainLimiter
	LoadOptions prodex.LoadOptions
	RetryDelays []time.Duration
	Logger      *slog.Logger
}

// ExtractURL extracts one product. Failures are reported in the result.
func (e *Extractor) ExtractURL(ctx context.Context, cfg *prodex.MultiStrategyConfig, url string) *prodex.ExtractionResult {
	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx, prodex.DomainOf(url)); err != nil {
			return prodex.Failed("", url, "rate limit wait: %v", err)
		}
	}

	opts := e.LoadOptions
	if cfg != nil && cfg.Dwell > 0 {
		opts.Dwell = cfg.Dwell
	}
	page, err := LoadWithRetry(ctx, e.Loader, url, opts, e.RetryDelays, e.Logger)
	if err != nil {
		return prodex.Failed("", url, "page load failed: %v", err)
	}

	product, results := reconcile(ctx, e.Strategies, cfg, url, page)
	return resultFor(url, product, results, page)
}
