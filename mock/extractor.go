package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.ProductExtractor = (*ProductExtractor)(nil)

// ProductExtractor is a mock implementation of prodex.ProductExtractor.
type ProductExtractor struct {
	ExtractURLFn func(ctx context.Context, cfg *prodex.MultiStrategyConfig, url string) *prodex.ExtractionResult
}

func (e *ProductExtractor) ExtractURL(ctx context.Context, cfg *prodex.MultiStrategyConfig, url string) *prodex.ExtractionResult {
	return e.ExtractURLFn(ctx, cfg, url)
}
