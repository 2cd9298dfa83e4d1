package extract

import (
	"context"
	"net/url"
	"strings"

	"github.com/fwojciec/prodex"
)

// sampleLimit bounds how many sitemap entries LearnSite asks for.
const sampleLimit = 20

// PickSamples chooses a discovery and a verification URL from candidates.
// The two must be on the same domain and name different products; query
// strings and fragments do not make a page different. When preferred is
// set it becomes the discovery sample.
func PickSamples(preferred string, candidates []string) (discovery, verification string, err error) {
	pool := candidates
	if preferred != "" {
		pool = append([]string{preferred}, candidates...)
	}
	if len(pool) == 0 {
		return "", "", prodex.Errorf(prodex.ENOTFOUND, "no product URLs to sample")
	}

	discovery = pool[0]
	domain := prodex.DomainOf(discovery)
	if domain == "" {
		return "", "", prodex.Errorf(prodex.EINVALID, "invalid sample URL %q", discovery)
	}
	key := productPath(discovery)
	for _, u := range pool[1:] {
		if prodex.DomainOf(u) == domain && productPath(u) != key {
			return discovery, u, nil
		}
	}
	return "", "", prodex.Errorf(prodex.ENOTFOUND, "need two distinct product URLs on %s", domain)
}

// productPath returns the path of raw without a trailing slash.
func productPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return strings.TrimRight(u.Path, "/")
}

// LearnSite learns the config for the site of siteURL, taking samples from
// the site's sitemaps. When siteURL is itself a product page it is used as
// the discovery sample.
func (l *Learner) LearnSite(ctx context.Context, siteURL string) (*prodex.MultiStrategyConfig, error) {
	if l.Samples == nil {
		return nil, prodex.Errorf(prodex.EINVALID, "no sample source configured")
	}
	filter := prodex.ProductURLFilter()

	candidates, err := l.Samples.ProductURLs(ctx, siteURL, filter, sampleLimit)
	if err != nil {
		return nil, err
	}

	var preferred string
	if filter.Match(siteURL) {
		preferred = siteURL
	}
	discovery, verification, err := PickSamples(preferred, candidates)
	if err != nil {
		return nil, err
	}
	loggerOr(l.Logger).Info("samples picked",
		"discovery", discovery,
		"verification", verification,
		"candidates", len(candidates),
	)
	return l.Learn(ctx, discovery, verification)
}
