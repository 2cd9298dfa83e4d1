package prodex

import "context"

// Content holds the main content extracted from an HTML page.
type Content struct {
	// Title is the page title extracted from metadata.
	Title string

	// Description is the page's meta description, if any.
	Description string

	// HTML is the main content as clean HTML with boilerplate removed.
	HTML string
}

// ContentExtractor extracts main content from HTML pages, removing boilerplate.
type ContentExtractor interface {
	Extract(html string) (*Content, error)
}

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	Convert(html string) (string, error)
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
