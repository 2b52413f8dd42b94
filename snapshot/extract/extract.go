// Package extract defines the capture contract between the snapshot core and
// a browser runtime: the element identity model, the in-page canonical
// serializer, and frame stitching.
//
// The serializer is shipped as source text (see SerializerJS) and evaluated
// inside the rendering context by whatever runtime hosts the page. Everything
// else in this package runs in the host process.
package extract

import (
	"context"
	"strings"
)

// Identity is the stable {role, name, ref} triple attached to an interactable
// element before every capture. It is assigned by the automation runtime, not
// by this package: the serializer only reads it, and the ref survives across
// captures while role and name are unchanged.
type Identity struct {
	Role string `json:"role"`
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

// Result is the output of one serializer invocation, scoped to a single
// document (main document, shadow subtrees included, or one frame).
//
// FrameRefs lists the refs of frame-hosting elements in document order. That
// order drives stitching and must be stable across captures of unchanged
// content.
type Result struct {
	Text      string   `json:"text"`
	FrameRefs []string `json:"frameRefs"`
}

// Extractor runs the serializer inside one rendering context and resolves
// child frames discovered there. A runtime implements this once for the main
// document and once for each resolved frame.
type Extractor interface {
	// Extract evaluates the canonical serializer in this context.
	Extract(ctx context.Context) (*Result, error)

	// ResolveFrame returns an Extractor scoped to the content document of the
	// frame-hosting element carrying ref. It fails when the frame has
	// navigated away, detached, or is cross-origin; callers treat that as
	// "leave the frame unexpanded", never as a capture failure.
	ResolveFrame(ctx context.Context, ref string) (Extractor, error)
}

const (
	frameTag = "frame-content"

	// ShadowBegin and ShadowEnd delimit open shadow tree content inlined by
	// the serializer.
	ShadowBegin = "<shadow-root>"
	ShadowEnd   = "</shadow-root>"
)

// FrameBegin returns the begin marker for inlined frame content.
func FrameBegin(ref string) string {
	return "<" + frameTag + ` ref="` + ref + `">`
}

// FrameEnd returns the end marker paired with FrameBegin.
func FrameEnd() string {
	return "</" + frameTag + ">"
}

// splicePoint locates the empty body of the frame element carrying ref in
// canonical text, skipping regions that were already inlined from child
// frames (a child document may reuse the same ref values as its parent).
// Returns -1 when the element is not present.
func splicePoint(text, ref string) int {
	for _, tag := range []string{"iframe", "frame"} {
		n := ` ref="` + ref + `"></` + tag + ">"
		from := 0
		for {
			i := strings.Index(text[from:], n)
			if i < 0 {
				break
			}
			i += from
			if frameDepth(text[:i]) == 0 {
				return i
			}
			from = i + len(n)
		}
	}
	return -1
}

// frameDepth counts unbalanced frame-content markers before a position.
func frameDepth(prefix string) int {
	return strings.Count(prefix, "<"+frameTag+" ") - strings.Count(prefix, FrameEnd())
}
