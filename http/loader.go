// Package http provides HTTP implementations of prodex services: a static
// page loader, the storefront endpoint strategies, and sitemap-based
// product URL discovery.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/prodex"
)

// DefaultLoadTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultLoadTimeout.
const DefaultLoadTimeout = 15 * time.Second

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0 Safari/537.36"

// maxBodySize caps how much of a response is read.
const maxBodySize = 10 << 20

// Ensure Loader implements prodex.PageLoader at compile time.
var _ prodex.PageLoader = (*Loader)(nil)

// Loader retrieves pages with plain HTTP requests. Unlike rod.Loader it
// runs no JavaScript and captures no network JSON, so strategies that
// depend on rendering find nothing on its pages.
type Loader struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultLoadTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(l *Loader) {
		l.userAgent = ua
	}
}

// NewLoader creates a new HTTP-based Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		timeout:   DefaultLoadTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.client = &http.Client{
		Timeout: l.timeout,
	}

	return l
}

// Load fetches url. Error statuses are reported through PageData.StatusCode,
// not as errors. LoadOptions.Dwell is ignored since nothing renders.
func (l *Loader) Load(ctx context.Context, url string, opts prodex.LoadOptions) (*prodex.PageData, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	body, status, err := get(ctx, l.client, url, l.userAgent, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}

	return &prodex.PageData{
		URL:        url,
		HTML:       string(body),
		StatusCode: status,
		Loaded:     true,
	}, nil
}

// Close releases resources. For the HTTP loader this is a no-op since
// http.Client doesn't require explicit cleanup.
func (l *Loader) Close() error {
	return nil
}

// get performs a GET and returns the body and status code.
func get(ctx context.Context, client *http.Client, url, userAgent, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, prodex.Errorf(prodex.EINVALID, "invalid URL %q: %v", url, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return body, resp.StatusCode, nil
}
