package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/domsnap/snapshot/extract"
)

// frameDoc is the extractor for one resolved frame document.
type frameDoc struct {
	page *rod.Page
}

func (f *frameDoc) Extract(ctx context.Context) (*extract.Result, error) {
	return extractIn(ctx, f.page)
}

func (f *frameDoc) ResolveFrame(ctx context.Context, ref string) (extract.Extractor, error) {
	return resolveFrameIn(ctx, f.page, ref)
}

// extractIn evaluates the canonical serializer in a document context.
func extractIn(ctx context.Context, page *rod.Page) (*extract.Result, error) {
	res, err := page.Context(ctx).Eval(extract.SerializerJS())
	if err != nil {
		return nil, fmt.Errorf("browser: serialize: %w", err)
	}

	out := &extract.Result{Text: res.Value.Get("text").Str()}
	for _, v := range res.Value.Get("frameRefs").Arr() {
		out.FrameRefs = append(out.FrameRefs, v.Str())
	}
	return out, nil
}

// resolveFrameIn looks up a stamped frame element by ref and returns an
// extractor scoped to its content document. Cross-origin and detached frames
// fail here; callers leave those frames unexpanded.
func resolveFrameIn(ctx context.Context, page *rod.Page, ref string) (extract.Extractor, error) {
	el, err := page.Context(ctx).ElementByJS(rod.Eval(
		`ref => (window.__domsnapRefs || {})[ref]`, ref))
	if err != nil {
		return nil, fmt.Errorf("browser: frame %s: %w", ref, err)
	}

	fp, err := el.Frame()
	if err != nil {
		return nil, fmt.Errorf("browser: frame %s content: %w", ref, err)
	}

	// Stamp the frame document so nested frames and controls carry
	// identities before its serializer runs.
	if _, err := fp.Context(ctx).Eval(stampJS); err != nil {
		return nil, fmt.Errorf("browser: stamp frame %s: %w", ref, err)
	}
	return &frameDoc{page: fp}, nil
}
