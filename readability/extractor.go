// Package readability extracts product page content with go-readability.
package readability

import (
	"strings"

	"github.com/fwojciec/prodex"
	"github.com/go-shiori/go-readability"
)

var _ prodex.ContentExtractor = (*Extractor)(nil)

// Extractor wraps go-readability.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the article title, excerpt and content of rawHTML.
func (e *Extractor) Extract(rawHTML string) (*prodex.Content, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, prodex.Errorf(prodex.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	return &prodex.Content{
		Title:       strings.TrimSpace(article.Title),
		Description: strings.TrimSpace(article.Excerpt),
		HTML:        article.Content,
	}, nil
}
