package gemini

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/prodex"
	"golang.org/x/net/html"
)

// keptAttrs are the attributes the oracle needs to write selectors and
// read values. Everything else is dropped from the prompt.
var keptAttrs = map[string]bool{
	"id": true, "class": true, "itemprop": true, "itemtype": true,
	"src": true, "data-src": true, "srcset": true, "alt": true, "href": true,
	"content": true, "property": true, "name": true, "value": true,
	"data-price": true, "data-amount": true,
}

// CleanHTML strips a page down to what matters for product extraction:
// scripts other than JSON-LD, styles and embedded media are removed,
// attributes are reduced to keptAttrs and comments are dropped.
func CleanHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", prodex.Errorf(prodex.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find("script").Not(`[type="application/ld+json"]`).Remove()
	doc.Find("style, noscript, svg, iframe, canvas, video, template, link").Remove()
	doc.Find("meta").Not("[property], [itemprop], [name='description']").Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			attrs := n.Attr[:0]
			for _, a := range n.Attr {
				if keptAttrs[a.Key] {
					attrs = append(attrs, a)
				}
			}
			n.Attr = attrs
		}
	})
	removeComments(doc.Nodes[0])

	out, err := doc.Html()
	if err != nil {
		return "", prodex.Errorf(prodex.EINTERNAL, "failed to render HTML: %v", err)
	}
	return collapseBlankLines(out), nil
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, strings.TrimRight(l, " \t"))
	}
	return strings.Join(out, "\n")
}
