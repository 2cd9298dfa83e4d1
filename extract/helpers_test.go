package extract_test

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/mock"
)

// fixedStrategy returns a strategy that always yields product with score.
// A nil product makes it fail.
func fixedStrategy(tag prodex.StrategyTag, product *prodex.Product, score int) *mock.Strategy {
	return &mock.Strategy{
		TagFn:       func() prodex.StrategyTag { return tag },
		CanHandleFn: func(_ string, _ *prodex.PageData) bool { return true },
		ExtractFn: func(_ context.Context, url string, _ *prodex.PageData) *prodex.ExtractionResult {
			if product == nil {
				return prodex.Failed(tag, url, "nothing found")
			}
			p := product.Clone()
			p.ExtractionStrategy = tag
			return prodex.Succeeded(tag, url, p, score)
		},
	}
}

// countingStrategy wraps fixedStrategy and counts Extract calls.
func countingStrategy(tag prodex.StrategyTag, product *prodex.Product, score int, calls *atomic.Int32) *mock.Strategy {
	s := fixedStrategy(tag, product, score)
	extract := s.ExtractFn
	s.ExtractFn = func(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
		calls.Add(1)
		return extract(ctx, url, page)
	}
	return s
}

func staticLoader(html string, images ...string) *mock.PageLoader {
	return &mock.PageLoader{
		LoadFn: func(_ context.Context, url string, _ prodex.LoadOptions) (*prodex.PageData, error) {
			return &prodex.PageData{
				URL:        url,
				HTML:       html,
				ImageURLs:  images,
				StatusCode: 200,
				Loaded:     true,
			}, nil
		},
	}
}

func success(tag prodex.StrategyTag, product *prodex.Product, score int) *prodex.ExtractionResult {
	p := product.Clone()
	p.ExtractionStrategy = tag
	return prodex.Succeeded(tag, "https://shop.example/products/a", p, score)
}

func fields(fs ...prodex.Field) prodex.FieldSet {
	return prodex.NewFieldSet(fs...)
}

func unionOf(cs []prodex.StrategyContribution) prodex.FieldSet {
	out := prodex.NewFieldSet()
	for _, c := range cs {
		out = out.Union(c.Fields)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

// pageStrategy returns a strategy whose product depends on the page URL.
// It fails on URLs missing from products.
func pageStrategy(tag prodex.StrategyTag, products map[string]*prodex.Product, score int) *mock.Strategy {
	return &mock.Strategy{
		TagFn:       func() prodex.StrategyTag { return tag },
		CanHandleFn: func(_ string, _ *prodex.PageData) bool { return true },
		ExtractFn: func(_ context.Context, url string, _ *prodex.PageData) *prodex.ExtractionResult {
			product, ok := products[url]
			if !ok {
				return prodex.Failed(tag, url, "nothing found")
			}
			p := product.Clone()
			p.ExtractionStrategy = tag
			return prodex.Succeeded(tag, url, p, score)
		},
	}
}

// requireOracleRouted fails unless the oracle is active only when a field
// is routed to it.
func requireOracleRouted(t *testing.T, cfg *prodex.MultiStrategyConfig) {
	t.Helper()
	if !slices.Contains(cfg.ActiveStrategies(), prodex.StrategyOracle) {
		return
	}
	for _, tag := range cfg.FieldSources {
		if tag == prodex.StrategyOracle {
			return
		}
	}
	t.Fatalf("oracle active without a routed field: sources=%v", cfg.FieldSources)
}
