package prodex

import (
	"net/url"
	"strings"
)

// DomainOf returns the lowercased host of rawURL without a leading "www.".
// It returns an empty string when rawURL has no host.
func DomainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
