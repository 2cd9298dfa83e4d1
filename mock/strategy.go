package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.Strategy = (*Strategy)(nil)

// Strategy is a mock implementation of prodex.Strategy.
type Strategy struct {
	TagFn       func() prodex.StrategyTag
	CanHandleFn func(url string, page *prodex.PageData) bool
	ExtractFn   func(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult
}

func (s *Strategy) Tag() prodex.StrategyTag {
	return s.TagFn()
}

func (s *Strategy) CanHandle(url string, page *prodex.PageData) bool {
	return s.CanHandleFn(url, page)
}

func (s *Strategy) Extract(ctx context.Context, url string, page *prodex.PageData) *prodex.ExtractionResult {
	return s.ExtractFn(ctx, url, page)
}
