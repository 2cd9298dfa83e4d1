package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/bloom"
)

// Ensure SampleSource implements prodex.SampleSource.
var _ prodex.SampleSource = (*SampleSource)(nil)

// SampleSource finds product URLs in a shop's sitemaps.
type SampleSource struct {
	client *http.Client
}

// NewSampleSource creates a new SampleSource with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSampleSource(client *http.Client) *SampleSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SampleSource{client: client}
}

// ProductURLs returns product URLs from the sitemaps of baseURL's host in
// sitemap order. A nil filter means prodex.ProductURLFilter. Returns an
// empty slice (not nil) when the site has no sitemap.
func (s *SampleSource) ProductURLs(ctx context.Context, baseURL string, filter *prodex.URLFilter, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, prodex.Errorf(prodex.EINVALID, "invalid base URL %q", baseURL)
	}
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}
	if filter == nil {
		filter = prodex.ProductURLFilter()
	}

	sitemapURLs, err := s.findSitemapURLs(ctx, root)
	if err != nil {
		return nil, err
	}

	w := &sitemapWalk{
		source:   s,
		filter:   filter,
		limit:    limit,
		sitemaps: make(map[string]bool),
		seen:     bloom.NewFilter(expectedSitemapURLs, 0.001),
		found:    []string{},
	}
	for _, sitemapURL := range orderSitemaps(sitemapURLs) {
		if w.full() {
			break
		}
		if err := w.visit(ctx, sitemapURL); err != nil {
			return nil, err
		}
	}

	return w.found, nil
}

// expectedSitemapURLs sizes the dedupe filter for one walk.
const expectedSitemapURLs = 50_000

// sitemapWalk collects matching URLs across sitemaps until the limit.
type sitemapWalk struct {
	source   *SampleSource
	filter   *prodex.URLFilter
	limit    int
	sitemaps map[string]bool
	seen     *bloom.Filter
	found    []string
}

func (w *sitemapWalk) full() bool {
	return w.limit > 0 && len(w.found) >= w.limit
}

// visit fetches and parses a sitemap, handling both urlset and
// sitemapindex documents.
func (w *sitemapWalk) visit(ctx context.Context, sitemapURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.sitemaps[sitemapURL] {
		return nil
	}
	w.sitemaps[sitemapURL] = true

	doc, err := w.source.fetchXML(ctx, sitemapURL)
	if err != nil {
		return err
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("empty sitemap XML at %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		var children []string
		for _, sm := range root.SelectElements("sitemap") {
			if loc := sm.SelectElement("loc"); loc != nil {
				if u := strings.TrimSpace(loc.Text()); u != "" {
					children = append(children, u)
				}
			}
		}
		for _, child := range orderSitemaps(children) {
			if w.full() {
				return nil
			}
			if err := w.visit(ctx, child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, urlEl := range root.SelectElements("url") {
		if w.full() {
			return nil
		}
		loc := urlEl.SelectElement("loc")
		if loc == nil {
			continue
		}
		u := strings.TrimSpace(loc.Text())
		if u == "" || !w.filter.Match(u) || w.seen.Seen(u) {
			continue
		}
		w.found = append(w.found, u)
	}
	return nil
}

// orderSitemaps moves sitemaps that look product-specific to the front,
// keeping relative order otherwise.
func orderSitemaps(urls []string) []string {
	var products, rest []string
	for _, u := range urls {
		if strings.Contains(strings.ToLower(u), "product") {
			products = append(products, u)
		} else {
			rest = append(rest, u)
		}
	}
	return append(products, rest...)
}

// findSitemapURLs discovers sitemap URLs from robots.txt or falls back to
// /sitemap.xml.
func (s *SampleSource) findSitemapURLs(ctx context.Context, root *url.URL) ([]string, error) {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.parseSitemapsFromRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sitemapURL := root.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	body, err := s.fetchURL(ctx, sitemapURL.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	body.Close()
	return []string{sitemapURL.String()}, nil
}

// parseSitemapsFromRobots extracts Sitemap: directives from robots.txt.
func (s *SampleSource) parseSitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.fetchURL(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	const directive = "sitemap:"
	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(strings.ToLower(line), directive) {
			if u := strings.TrimSpace(line[len(directive):]); u != "" {
				sitemaps = append(sitemaps, u)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}

	return sitemaps, nil
}

// fetchXML fetches and parses an XML document, gunzipping .gz sitemaps.
func (s *SampleSource) fetchXML(ctx context.Context, target string) (*etree.Document, error) {
	body, err := s.fetchURL(ctx, target)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(strings.ToLower(target), ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", target, err)
		}
		defer gz.Close()
		r = gz
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}
	return doc, nil
}

// fetchURL fetches a URL and returns the response body.
func (s *SampleSource) fetchURL(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, target)
	}

	return resp.Body, nil
}
