package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.Oracle = (*Oracle)(nil)

// Oracle is a mock implementation of prodex.Oracle.
type Oracle struct {
	GroundTruthFn func(ctx context.Context, url string, page *prodex.PageData) (*prodex.GroundTruth, error)
}

func (o *Oracle) GroundTruth(ctx context.Context, url string, page *prodex.PageData) (*prodex.GroundTruth, error) {
	return o.GroundTruthFn(ctx, url, page)
}
