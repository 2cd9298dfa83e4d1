package prodex

import (
	"context"
	"regexp"
)

// SampleSource discovers product page URLs for a site. The learn flow uses
// it to pick discovery and verification samples when none are given.
type SampleSource interface {
	// ProductURLs returns up to limit product URLs found for the site at
	// baseURL, in discovery order. A limit of 0 means no limit.
	ProductURLs(ctx context.Context, baseURL string, filter *URLFilter, limit int) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// ProductURLFilter matches the URL shapes common storefronts use for
// product detail pages.
func ProductURLFilter() *URLFilter {
	return &URLFilter{
		Include: []*regexp.Regexp{
			regexp.MustCompile(`/products?/[^/?#]+`),
			regexp.MustCompile(`/p/[^/?#]+`),
			regexp.MustCompile(`/dp/[A-Z0-9]{10}`),
			regexp.MustCompile(`/item/[^/?#]+`),
			regexp.MustCompile(`-p-\d+\.html`),
		},
		Exclude: []*regexp.Regexp{
			regexp.MustCompile(`/collections/?$`),
			regexp.MustCompile(`\.(jpe?g|png|gif|webp|svg|pdf)$`),
		},
	}
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}
