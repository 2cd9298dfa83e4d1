package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.SampleSource = (*SampleSource)(nil)

// SampleSource is a mock implementation of prodex.SampleSource.
type SampleSource struct {
	ProductURLsFn func(ctx context.Context, baseURL string, filter *prodex.URLFilter, limit int) ([]string, error)
}

func (s *SampleSource) ProductURLs(ctx context.Context, baseURL string, filter *prodex.URLFilter, limit int) ([]string, error) {
	return s.ProductURLsFn(ctx, baseURL, filter, limit)
}
