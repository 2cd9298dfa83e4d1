package prodex

import (
	"context"
	"time"
)

// PageData is what a PageLoader captured for one URL.
type PageData struct {
	URL  string
	HTML string

	// JSONResponses maps response URLs to JSON bodies captured while the
	// page loaded.
	JSONResponses map[string]string

	// ImageURLs lists image sources discovered in the rendered page.
	ImageURLs []string

	// StatusCode is the HTTP status of the main document, 0 if unknown.
	StatusCode int

	// Loaded is false when navigation did not complete.
	Loaded bool
}

// LoadOptions tunes a single page load.
type LoadOptions struct {
	// Dwell is an extra wait after the load event before capture.
	Dwell time.Duration

	// Timeout bounds the whole load. Zero means the loader's default.
	Timeout time.Duration
}

// PageLoader fetches a URL and returns its rendered markup together with
// captured network JSON and discovered images.
type PageLoader interface {
	// Load fetches the page. Non-2xx statuses are not errors; they are
	// reported through PageData.StatusCode.
	Load(ctx context.Context, url string, opts LoadOptions) (*PageData, error)
}

// SessionPool hands out pre-acquired render sessions for pooled extraction.
type SessionPool interface {
	// Acquire blocks until a session is available.
	Acquire(ctx context.Context) (PageLoader, error)

	// Release returns a session obtained from Acquire.
	Release(session PageLoader)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
