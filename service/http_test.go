package service

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// testService builds a Service over a temp workspace without starting a
// browser; the inspection routes only read state and files on disk.
func testService(t *testing.T) *Service {
	t.Helper()
	cfg := &Config{WorkspaceRoot: t.TempDir()}
	return New(cfg, nil)
}

func writeArtifact(t *testing.T, s *Service, id, rel, content string) {
	t.Helper()
	path := filepath.Join(s.ArtifactDir(id), rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestHealthRoute(t *testing.T) {
	s := testService(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestDOMRoute(t *testing.T) {
	s := testService(t)
	writeArtifact(t, s, "sess1", "dom.txt", "<html>\n</html>\n")

	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/sessions/sess1/dom")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp2, err := srv.Client().Get(srv.URL + "/sessions/missing/dom")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != 404 {
		t.Fatalf("missing session status = %d", resp2.StatusCode)
	}
}

func TestDiffsRoute(t *testing.T) {
	s := testService(t)
	writeArtifact(t, s, "sess1", filepath.Join("diffs", "001-click.diff"), "--- dom.txt\n")
	writeArtifact(t, s, "sess1", filepath.Join("diffs", "002-submit.diff"), "--- dom.txt\n")

	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/sessions/sess1/diffs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "001-click.diff" || names[1] != "002-submit.diff" {
		t.Fatalf("names = %v", names)
	}

	resp2, err := srv.Client().Get(srv.URL + "/sessions/sess1/diffs/001-click.diff")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != 200 {
		t.Fatalf("diff status = %d", resp2.StatusCode)
	}
}

func TestDiffsRouteEmpty(t *testing.T) {
	s := testService(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/sessions/none/diffs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Fatalf("names = %v", names)
	}
}

func TestPathComponent(t *testing.T) {
	bad := []string{"", ".", "..", "a/b", `a\b`, "../x"}
	for _, v := range bad {
		if got := pathComponent(v); got != "" {
			t.Errorf("pathComponent(%q) = %q, want rejection", v, got)
		}
	}
	if got := pathComponent("sess-1"); got != "sess-1" {
		t.Errorf("pathComponent(sess-1) = %q", got)
	}
}
