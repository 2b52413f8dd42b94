// Package format canonicalizes stitched serializer output into a diff-stable
// layout: short elements on one line, attribute-heavy elements with one
// attribute per line aligned under the first, so a single value edit always
// diffs as a single line.
package format

import (
	"strings"

	"golang.org/x/net/html"
)

// attrThreshold is the attribute count at which an element switches to
// force-aligned one-attribute-per-line layout.
const attrThreshold = 3

const indentStep = "  "

// Void element kinds: no children, no closing tag in canonical text.
var voidTags = map[string]bool{
	"area": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "source": true,
	"track": true, "wbr": true,
}

// Verbatim element kinds: inner content passes through without re-layout.
var verbatimTags = map[string]bool{
	"pre": true, "textarea": true,
}

// The html tokenizer treats iframe (and a few legacy kinds) as raw text;
// stitched frame content must be tokenized as markup instead.
var notRawText = map[string]bool{
	"iframe": true, "noembed": true, "noframes": true,
}

// Canonical re-lays out serializer text. The result is a deterministic
// function of the token stream alone: any incidental whitespace in the input
// is discarded rather than preserved, except inside verbatim elements.
func Canonical(text string) string {
	z := html.NewTokenizer(strings.NewReader(text))

	var b strings.Builder
	b.Grow(len(text) + len(text)/4)

	depth := 0
	verbatim := 0 // nesting count of verbatim elements

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if notRawText[tok.Data] {
				z.NextIsNotRawText()
			}
			if verbatim > 0 {
				// Inline, byte-preserving: no indent, no forced newlines.
				writeTag(&b, "", tok, false)
				if tt == html.StartTagToken && verbatimTags[tok.Data] {
					verbatim++
				}
				continue
			}
			writeTag(&b, strings.Repeat(indentStep, depth), tok, true)
			if tt == html.StartTagToken && !voidTags[tok.Data] {
				depth++
				if verbatimTags[tok.Data] {
					verbatim = 1
				}
			}

		case html.EndTagToken:
			tok := z.Token()
			if verbatim > 0 {
				if verbatimTags[tok.Data] {
					verbatim--
				}
				if verbatim == 0 {
					// Closing tag of the outermost verbatim element returns
					// to structured layout.
					depth--
					b.WriteString("</" + tok.Data + ">\n")
					continue
				}
				b.WriteString("</" + tok.Data + ">")
				continue
			}
			if depth > 0 {
				depth--
			}
			b.WriteString(strings.Repeat(indentStep, depth) + "</" + tok.Data + ">\n")

		case html.TextToken:
			tok := z.Token()
			if verbatim > 0 {
				b.WriteString(html.EscapeString(tok.Data))
				continue
			}
			t := strings.TrimSpace(tok.Data)
			if t == "" {
				continue
			}
			b.WriteString(strings.Repeat(indentStep, depth))
			b.WriteString(html.EscapeString(t))
			b.WriteString("\n")

		default:
			// Comments and doctype never occur in serializer output; drop
			// them rather than preserve accidental input.
		}
	}
}

// writeTag emits one opening tag. Below the threshold everything stays on a
// single line; at or above it, attributes align in a column under the first.
func writeTag(b *strings.Builder, indent string, tok html.Token, newline bool) {
	open := indent + "<" + tok.Data
	nl := ""
	if newline {
		nl = "\n"
	}

	if len(tok.Attr) < attrThreshold {
		b.WriteString(open)
		for _, a := range tok.Attr {
			b.WriteString(" " + a.Key + `="` + html.EscapeString(a.Val) + `"`)
		}
		b.WriteString(">" + nl)
		return
	}

	pad := strings.Repeat(" ", len(open)+1)
	for i, a := range tok.Attr {
		if i == 0 {
			b.WriteString(open + " ")
		} else {
			b.WriteString(pad)
		}
		b.WriteString(a.Key + `="` + html.EscapeString(a.Val) + `"`)
		if i < len(tok.Attr)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString(">" + nl)
}
