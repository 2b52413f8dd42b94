// Integration tests against a real Chrome. They exercise the in-page
// serializer properties that no Go-side fixture can: determinism, attribute
// ordering, class filtering, shadow markers, and frame stitching.
//
// Skipped unless DOMSNAP_BROWSER_TESTS is set, since they need a local
// Chrome install.
package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/hazyhaar/domsnap/browser"
	"github.com/hazyhaar/domsnap/snapshot/extract"
)

func startManager(t *testing.T) *browser.Manager {
	t.Helper()
	if os.Getenv("DOMSNAP_BROWSER_TESTS") == "" {
		t.Skip("set DOMSNAP_BROWSER_TESTS=1 to run tests against a real Chrome")
	}
	mgr := browser.NewManager(browser.Config{})
	if _, err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("start browser: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func servePages(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range pages {
		page := body
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(page))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openTab(t *testing.T, mgr *browser.Manager, url string) *browser.Tab {
	t.Helper()
	tab, err := browser.OpenTab(context.Background(), mgr, url, "it-1")
	if err != nil {
		t.Fatalf("open tab: %v", err)
	}
	t.Cleanup(func() { tab.Close() })
	return tab
}

func TestSerializerDeterminism(t *testing.T) {
	mgr := startManager(t)
	srv := servePages(t, map[string]string{
		"/": `<html><body><div class="panel"><p>hello</p><a href="/next">next</a></div></body></html>`,
	})
	tab := openTab(t, mgr, srv.URL+"/")
	ctx := context.Background()

	first, err := tab.Extract(ctx)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	second, err := tab.Extract(ctx)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if first.Text == "" {
		t.Fatal("empty serialization")
	}
	if first.Text != second.Text {
		t.Errorf("unchanged tree serialized differently:\n--- first\n%s\n--- second\n%s", first.Text, second.Text)
	}
}

func TestSerializerAttributeOrderStability(t *testing.T) {
	mgr := startManager(t)
	srv := servePages(t, map[string]string{
		"/a": `<html><body><input id="search" type="text" name="q" placeholder="Find"></body></html>`,
		"/b": `<html><body><input placeholder="Find" name="q" type="text" id="search"></body></html>`,
	})
	tab := openTab(t, mgr, srv.URL+"/a")
	ctx := context.Background()

	a, err := tab.Extract(ctx)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if err := tab.Navigate(ctx, srv.URL+"/b"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	b, err := tab.Extract(ctx)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if a.Text != b.Text {
		t.Errorf("source attribute order changed canonical output:\n--- a\n%s\n--- b\n%s", a.Text, b.Text)
	}
	if !strings.Contains(a.Text, `<input id="search" type="text" name="q" placeholder="Find">`) {
		t.Errorf("canonical attribute order wrong:\n%s", a.Text)
	}
}

func TestSerializerClassFiltering(t *testing.T) {
	mgr := startManager(t)
	srv := servePages(t, map[string]string{
		"/": `<html><body>` +
			`<p class="css-1a2b3c help-text sc-dkPtRN">note</p>` +
			`<span class="css-1a2b3c sc-dkPtRN">plain</span>` +
			`</body></html>`,
	})
	tab := openTab(t, mgr, srv.URL+"/")

	res, err := tab.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(res.Text, `<p class="help-text">`) {
		t.Errorf("human class not kept:\n%s", res.Text)
	}
	// An all-generated class list drops the attribute entirely.
	if !strings.Contains(res.Text, "<span>") {
		t.Errorf("generated-only class attribute not dropped:\n%s", res.Text)
	}
	for _, leaked := range []string{"css-1a2b3c", "sc-dkPtRN"} {
		if strings.Contains(res.Text, leaked) {
			t.Errorf("generated class %q leaked:\n%s", leaked, res.Text)
		}
	}
}

func TestSerializerShadowMarkers(t *testing.T) {
	mgr := startManager(t)
	srv := servePages(t, map[string]string{
		"/": `<html><body>` +
			`<div id="outer"><template shadowrootmode="open">` +
			`<button>Go</button><span>tip</span>` +
			`<div id="inner"><template shadowrootmode="open"><em>deep</em></template></div>` +
			`</template></div>` +
			`</body></html>`,
	})
	tab := openTab(t, mgr, srv.URL+"/")

	res, err := tab.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := strings.Count(res.Text, extract.ShadowBegin); got != 2 {
		t.Fatalf("shadow begin markers = %d, want 2:\n%s", got, res.Text)
	}
	if got := strings.Count(res.Text, extract.ShadowEnd); got != 2 {
		t.Fatalf("shadow end markers = %d, want 2:\n%s", got, res.Text)
	}
	begin := strings.Index(res.Text, extract.ShadowBegin)
	for _, want := range []string{"Go", "tip", "deep"} {
		if !strings.Contains(res.Text[begin:], want) {
			t.Errorf("shadow content %q missing:\n%s", want, res.Text)
		}
	}
}

func TestFrameStitchingEndToEnd(t *testing.T) {
	mgr := startManager(t)
	srv := servePages(t, map[string]string{
		"/":         `<html><body><h1>Store</h1><iframe src="/checkout"></iframe></body></html>`,
		"/checkout": `<html><body><button>Submit</button></body></html>`,
	})
	tab := openTab(t, mgr, srv.URL+"/")
	ctx := context.Background()

	if _, err := tab.Stamp(ctx); err != nil {
		t.Fatalf("stamp: %v", err)
	}
	res, err := tab.Extract(ctx)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.FrameRefs) != 1 {
		t.Fatalf("FrameRefs = %v, want one ref", res.FrameRefs)
	}
	ref := res.FrameRefs[0]

	// The empty frame element must be contiguous or splicing cannot find it.
	if !strings.Contains(res.Text, ` ref="`+ref+`"></iframe>`) {
		t.Fatalf("frame element not emitted on a single line:\n%s", res.Text)
	}

	got := extract.Stitch(ctx, res, tab, nil)
	begin := strings.Index(got, extract.FrameBegin(ref))
	end := strings.Index(got, extract.FrameEnd())
	if begin < 0 || end < begin {
		t.Fatalf("frame was never spliced:\n%s", got)
	}
	if !strings.Contains(got[begin:end], "Submit") {
		t.Errorf("frame content not inlined between markers:\n%s", got)
	}
}
