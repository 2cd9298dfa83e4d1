package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.ContentExtractor = (*ContentExtractor)(nil)

// ContentExtractor is a mock implementation of prodex.ContentExtractor.
type ContentExtractor struct {
	ExtractFn func(html string) (*prodex.Content, error)
}

func (e *ContentExtractor) Extract(html string) (*prodex.Content, error) {
	return e.ExtractFn(html)
}

var _ prodex.Converter = (*Converter)(nil)

// Converter is a mock implementation of prodex.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ prodex.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of prodex.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return tc.CountTokensFn(ctx, text)
}
