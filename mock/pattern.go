package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.PatternStore = (*PatternStore)(nil)

// PatternStore is a mock implementation of prodex.PatternStore.
type PatternStore struct {
	FindPatternFn func(ctx context.Context, domain string) (*prodex.Pattern, error)
	SavePatternFn func(ctx context.Context, p *prodex.Pattern) error
}

func (s *PatternStore) FindPattern(ctx context.Context, domain string) (*prodex.Pattern, error) {
	return s.FindPatternFn(ctx, domain)
}

func (s *PatternStore) SavePattern(ctx context.Context, p *prodex.Pattern) error {
	return s.SavePatternFn(ctx, p)
}

var _ prodex.PatternApplier = (*PatternApplier)(nil)

// PatternApplier is a mock implementation of prodex.PatternApplier.
type PatternApplier struct {
	ValidateFn func(p *prodex.Pattern) error
	ApplyFn    func(p *prodex.Pattern, url, html string) (*prodex.Product, error)
}

func (a *PatternApplier) Validate(p *prodex.Pattern) error {
	return a.ValidateFn(p)
}

func (a *PatternApplier) Apply(p *prodex.Pattern, url, html string) (*prodex.Product, error) {
	return a.ApplyFn(p, url, html)
}

var _ prodex.PatternCache = (*PatternCache)(nil)

// PatternCache is a mock implementation of prodex.PatternCache.
type PatternCache struct {
	TryPopulateFn func(ctx context.Context, domain string, page *prodex.PageData, gt *prodex.GroundTruth) bool
}

func (c *PatternCache) TryPopulate(ctx context.Context, domain string, page *prodex.PageData, gt *prodex.GroundTruth) bool {
	return c.TryPopulateFn(ctx, domain, page, gt)
}
