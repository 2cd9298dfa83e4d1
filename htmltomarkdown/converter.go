// Package htmltomarkdown renders product description markup as Markdown.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/prodex"
)

var _ prodex.Converter = (*Converter)(nil)

var (
	// Inline images in descriptions are dropped; product images come from
	// the gallery and the strategies' image lists.
	inlineImage = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	trailingWS  = regexp.MustCompile(`[ \t]+\n`)
)

// Converter turns description HTML into Markdown text. Size and spec
// tables stay Markdown tables with minimal cell padding.
type Converter struct {
	md *converter.Converter
}

// NewConverter returns a Converter. It is safe for concurrent use.
func NewConverter() *Converter {
	return &Converter{md: converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)}
}

// Convert returns the Markdown for html without inline images, trailing
// spaces or runs of blank lines.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", prodex.Errorf(prodex.EINVALID, "empty description markup")
	}

	md, err := c.md.ConvertString(html)
	if err != nil {
		return "", err
	}
	md = inlineImage.ReplaceAllString(md, "")
	md = trailingWS.ReplaceAllString(md, "\n")
	md = blankLines.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md), nil
}
