// Package extract is the multi-strategy extraction engine. It discovers
// which strategies work for a domain, verifies them on a second product,
// reduces them to a minimal cover, and reconciles per-strategy results
// into one product for every later page of that domain.
package extract

import (
	"context"
	"log/slog"

	"github.com/fwojciec/prodex"
	"golang.org/x/sync/errgroup"
)

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// runStrategies runs strategies concurrently against one page. The result
// slice is indexed like strategies. A limit of 0 means no limit.
func runStrategies(ctx context.Context, strategies []prodex.Strategy, url string, page *prodex.PageData, limit int) []*prodex.ExtractionResult {
	results := make([]*prodex.ExtractionResult, len(strategies))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range strategies {
		g.Go(func() error {
			results[i] = safeExtract(ctx, s, url, page)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// safeExtract calls s.Extract and normalizes whatever comes back into a
// well-formed result, including a panic.
func safeExtract(ctx context.Context, s prodex.Strategy, url string, page *prodex.PageData) (result *prodex.ExtractionResult) {
	tag := s.Tag()
	defer func() {
		if r := recover(); r != nil {
			result = prodex.Failed(tag, url, "strategy panicked: %v", r)
		}
	}()

	result = s.Extract(ctx, url, page)
	switch {
	case result == nil:
		return prodex.Failed(tag, url, "strategy returned no result")
	case result.Success && result.Product == nil:
		return prodex.Failed(tag, url, "strategy reported success without a product")
	case !result.Success:
		result.Product = nil
	}
	if result.URL == "" {
		result.URL = url
	}
	if result.Strategy == "" {
		result.Strategy = tag
	}
	return result
}

// Contributions turns successful results into contributions sorted by
// score, highest first. Ties go to the cheaper strategy.
func Contributions(results []*prodex.ExtractionResult) []prodex.StrategyContribution {
	var out []prodex.StrategyContribution
	for _, r := range results {
		if r == nil || !r.Success || r.Product == nil {
			continue
		}
		out = append(out, prodex.StrategyContribution{
			Strategy: r.Strategy,
			Fields:   r.Product.ContributedFields(),
			Score:    r.Score,
		})
	}
	sortContributions(out)
	return out
}

// planStrategies picks the strategies to run. A verified config runs
// exactly its active strategies; otherwise every strategy but the oracle
// runs. CanHandle is advisory and never filters the plan.
func planStrategies(set *prodex.StrategySet, cfg *prodex.MultiStrategyConfig) []prodex.Strategy {
	if cfg != nil && cfg.Verified {
		return set.Select(cfg.ActiveStrategies())
	}
	return set.Without(prodex.StrategyOracle)
}

func fieldSourcesOf(cfg *prodex.MultiStrategyConfig) map[prodex.Field]prodex.StrategyTag {
	if cfg == nil || !cfg.Verified {
		return nil
	}
	return cfg.FieldSources
}

// reconcile runs the planned strategies on page and merges their results.
// Without a verified config the oracle strategy runs only when the cheap
// strategies produced neither a name nor a price.
func reconcile(ctx context.Context, set *prodex.StrategySet, cfg *prodex.MultiStrategyConfig, url string, page *prodex.PageData) (*prodex.Product, []*prodex.ExtractionResult) {
	results := runStrategies(ctx, planStrategies(set, cfg), url, page, 0)
	product := Merge(results, url, fieldSourcesOf(cfg))

	if (cfg == nil || !cfg.Verified) && !product.Has(prodex.FieldName) && !product.Has(prodex.FieldPrice) {
		if oracle, ok := set.Get(prodex.StrategyOracle); ok {
			results = append(results, safeExtract(ctx, oracle, url, page))
			product = Merge(results, url, nil)
		}
	}

	if cfg != nil && len(cfg.SiteImages) > 0 {
		product.Images = ExcludeImages(product.Images, cfg.SiteImages)
		product.Finalize()
	}
	return product, results
}

// resultFor wraps a reconciled product into a single result for url.
func resultFor(url string, product *prodex.Product, results []*prodex.ExtractionResult, page *prodex.PageData) *prodex.ExtractionResult {
	best := bestResult(results)
	var r *prodex.ExtractionResult
	if best == nil {
		r = prodex.Failed("", url, "no strategy succeeded%s", failureSummary(results))
	} else {
		r = prodex.Succeeded(product.ExtractionStrategy, url, product, best.Score)
	}
	if page != nil {
		r.StatusCode = page.StatusCode
	}
	return r
}

func bestResult(results []*prodex.ExtractionResult) *prodex.ExtractionResult {
	var best *prodex.ExtractionResult
	for _, r := range results {
		if r == nil || !r.Success {
			continue
		}
		if best == nil || r.Score > best.Score {
			best = r
		}
	}
	return best
}

func failureSummary(results []*prodex.ExtractionResult) string {
	var s string
	for _, r := range results {
		if r == nil || r.Success || r.Error == "" {
			continue
		}
		if s == "" {
			s = ": "
		} else {
			s += "; "
		}
		s += string(r.Strategy) + ": " + r.Error
	}
	return s
}
