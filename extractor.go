package prodex

import "context"

// ProductExtractor extracts a single product page. A nil or unverified
// config means the domain has no learned decision yet.
type ProductExtractor interface {
	ExtractURL(ctx context.Context, cfg *MultiStrategyConfig, url string) *ExtractionResult
}
