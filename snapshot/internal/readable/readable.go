// Package readable renders a page's raw HTML into markdown for human review
// alongside the canonical DOM text. Sanitation first, conversion second; on
// any failure the caller simply skips the artifact.
package readable

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Converter renders sanitized page HTML to markdown. Safe for concurrent use
// by independent sessions.
type Converter struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// New creates a Converter with the standard UGC sanitation policy and
// commonmark + table conversion.
func New() *Converter {
	return &Converter{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Markdown converts raw page HTML to markdown. The page title, when present,
// becomes a leading heading; pageURL resolves relative links.
func (c *Converter) Markdown(rawHTML, pageURL string) (string, error) {
	title := pageTitle(rawHTML)

	clean := c.policy.Sanitize(rawHTML)
	md, err := c.conv.ConvertString(clean, converter.WithDomain(pageURL))
	if err != nil {
		return "", fmt.Errorf("readable: convert: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return "", fmt.Errorf("readable: empty conversion result")
	}

	if title != "" {
		return "# " + title + "\n\n" + md + "\n", nil
	}
	return md + "\n", nil
}

// pageTitle extracts the <title> text, empty when absent or unparsable.
func pageTitle(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil {
				return strings.TrimSpace(n.FirstChild.Data)
			}
			return ""
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if t := find(ch); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc)
}
