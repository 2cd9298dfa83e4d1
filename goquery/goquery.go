// Package goquery implements the HTML-based strategies and helpers of
// prodex on top of goquery: structured markup, meta tags, persisted
// selector patterns and gallery discovery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/prodex"
)

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, prodex.Errorf(prodex.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// resolveURL resolves href against base. Protocol-relative URLs get https.
// Returns empty string for data URIs and unparseable input.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "data:") {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func parseBase(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}

// normalizeSpace collapses runs of whitespace.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// describe splits a description that may hold markup into readable text
// and the original markup. Plain text comes back with an empty raw value.
func describe(conv prodex.Converter, s string) (text, raw string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if !strings.Contains(s, "<") || !strings.Contains(s, ">") {
		return normalizeSpace(s), ""
	}
	if conv != nil {
		if md, err := conv.Convert(s); err == nil && strings.TrimSpace(md) != "" {
			return strings.TrimSpace(md), s
		}
	}
	doc, err := parseDocument(s)
	if err != nil {
		return normalizeSpace(s), s
	}
	return normalizeSpace(doc.Text()), s
}

// appendUnique appends the non-empty values of add missing from list.
func appendUnique(list []string, add ...string) []string {
	for _, a := range add {
		if a == "" {
			continue
		}
		dup := false
		for _, l := range list {
			if l == a {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, a)
		}
	}
	return list
}
