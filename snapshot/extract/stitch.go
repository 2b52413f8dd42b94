// CLAUDE:SUMMARY Recursively expands frame-hosting elements with their serialized child documents.
package extract

import (
	"context"
	"log/slog"
	"strings"
)

// Stitch expands every frame discovered by root into the parent text,
// recursively. Frames that fail to resolve or to extract are left exactly as
// the parent walk emitted them (an empty frame element) and the walk
// continues; stitching never returns an error to the caller.
func Stitch(ctx context.Context, root *Result, src Extractor, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	text := root.Text
	for _, ref := range root.FrameRefs {
		child, err := src.ResolveFrame(ctx, ref)
		if err != nil {
			logger.Debug("extract: frame unresolved, left unexpanded", "ref", ref, "error", err)
			continue
		}
		res, err := child.Extract(ctx)
		if err != nil {
			logger.Debug("extract: frame extraction failed, left unexpanded", "ref", ref, "error", err)
			continue
		}
		// Depth-first: the child is fully stitched before it is spliced, so
		// the parent either inlines a complete subtree or none of it.
		inner := Stitch(ctx, res, child, logger)
		text = splice(text, ref, inner)
	}
	return text
}

// splice inserts marked child content into the empty body of the frame
// element carrying ref. Unknown refs leave the text unchanged.
func splice(text, ref, inner string) string {
	at := splicePoint(text, ref)
	if at < 0 {
		return text
	}

	// The needle is ` ref="..."></iframe>`; keep the opening tag's `>`, then
	// inline the marked content before the closing tag.
	closeAt := at + len(` ref="`+ref+`">`)

	var b strings.Builder
	b.Grow(len(text) + len(inner) + 64)
	b.WriteString(text[:closeAt])
	b.WriteString("\n")
	b.WriteString(FrameBegin(ref))
	b.WriteString("\n")
	b.WriteString(inner)
	b.WriteString("\n")
	b.WriteString(FrameEnd())
	b.WriteString("\n")
	b.WriteString(text[closeAt:])
	return b.String()
}
