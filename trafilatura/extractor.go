// Package trafilatura extracts the main content of product pages with
// go-trafilatura. The result feeds description fallbacks.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/prodex"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ prodex.ContentExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura. When trafilatura finds no main content
// the optional Fallback is consulted.
type Extractor struct {
	Fallback prodex.ContentExtractor
}

// NewExtractor creates a new Extractor with an optional fallback.
func NewExtractor(fallback prodex.ContentExtractor) *Extractor {
	return &Extractor{Fallback: fallback}
}

// Extract returns the page title, meta description and main content.
func (e *Extractor) Extract(rawHTML string) (*prodex.Content, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, prodex.Errorf(prodex.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		ExcludeTables:   false,
	})
	if err != nil {
		return e.fallback(rawHTML, err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, err
		}
		contentHTML = buf.String()
	}

	content := &prodex.Content{
		Title:       strings.TrimSpace(result.Metadata.Title),
		Description: strings.TrimSpace(result.Metadata.Description),
		HTML:        contentHTML,
	}
	if strings.TrimSpace(result.ContentText) == "" && e.Fallback != nil {
		if fb, err := e.Fallback.Extract(rawHTML); err == nil && fb.HTML != "" {
			content.HTML = fb.HTML
			if content.Title == "" {
				content.Title = fb.Title
			}
			if content.Description == "" {
				content.Description = fb.Description
			}
		}
	}
	return content, nil
}

func (e *Extractor) fallback(rawHTML string, cause error) (*prodex.Content, error) {
	if e.Fallback == nil {
		return nil, cause
	}
	return e.Fallback.Extract(rawHTML)
}
