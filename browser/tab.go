// CLAUDE:SUMMARY Per-session Rod tab: stealth navigation, identity stamping, serializer evaluation, frame resolution.
package browser

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/domsnap/snapshot/extract"
)

//go:embed stamp.js
var stampJS string

//go:embed tree.js
var treeJS string

// Tab is one session's page. It implements extract.Extractor for the main
// document; frames resolved through it get their own extractors.
type Tab struct {
	Page      *rod.Page
	PageURL   string
	SessionID string

	navTimeout time.Duration
	logger     *slog.Logger
}

// OpenTab creates a stealth tab, applies resource blocking, and navigates.
func OpenTab(ctx context.Context, mgr *Manager, pageURL, sessionID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		blockResources(page, mgr.cfg.ResourceBlocking)
	}

	t := &Tab{
		Page:       page,
		SessionID:  sessionID,
		navTimeout: mgr.cfg.NavTimeout,
		logger:     mgr.cfg.Logger,
	}
	if err := t.Navigate(ctx, pageURL); err != nil {
		page.Close()
		return nil, err
	}
	return t, nil
}

// Navigate loads a URL and waits for the load event.
func (t *Tab) Navigate(ctx context.Context, pageURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, t.navTimeout)
	defer cancel()

	if err := t.Page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := t.Page.Context(navCtx).WaitLoad(); err != nil {
		t.logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	t.PageURL = pageURL
	return nil
}

// Stamp assigns element identities in the main document. Must run before
// every capture; returns the number of stamped elements.
func (t *Tab) Stamp(ctx context.Context) (int, error) {
	res, err := t.Page.Context(ctx).Eval(stampJS)
	if err != nil {
		return 0, fmt.Errorf("browser: stamp identities: %w", err)
	}
	return res.Value.Int(), nil
}

// OutlineTree renders the structural outline of stamped elements.
func (t *Tab) OutlineTree(ctx context.Context) (string, error) {
	res, err := t.Page.Context(ctx).Eval(treeJS)
	if err != nil {
		return "", fmt.Errorf("browser: outline tree: %w", err)
	}
	return res.Value.Str(), nil
}

// RawHTML serializes the complete main document as outer HTML.
func (t *Tab) RawHTML(ctx context.Context) (string, error) {
	res, err := t.Page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: raw html: %w", err)
	}
	return res.Value.Str(), nil
}

// Extract evaluates the canonical serializer in the main document.
func (t *Tab) Extract(ctx context.Context) (*extract.Result, error) {
	return extractIn(ctx, t.Page)
}

// ResolveFrame returns an extractor for the content document of the stamped
// frame element carrying ref.
func (t *Tab) ResolveFrame(ctx context.Context, ref string) (extract.Extractor, error) {
	return resolveFrameIn(ctx, t.Page, ref)
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
