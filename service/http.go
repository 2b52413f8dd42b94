// CLAUDE:SUMMARY Chi routes for artifact inspection — health, session list, dom/tree/page files, diffs, journal.
package service

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the HTTP inspection surface. Read-only: every route serves
// session state or artifacts already on disk; mutations go through MCP.
func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/sessions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, s.List())
	})

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/dom", s.serveArtifact("dom.txt"))
		r.Get("/tree", s.serveArtifact("tree.txt"))
		r.Get("/page", s.serveArtifact("page.md"))

		r.Get("/diffs", func(w http.ResponseWriter, req *http.Request) {
			id := pathComponent(chi.URLParam(req, "id"))
			if id == "" {
				writeJSON(w, 400, map[string]string{"error": "bad session id"})
				return
			}
			entries, err := os.ReadDir(filepath.Join(s.ArtifactDir(id), "diffs"))
			if err != nil {
				// No diffs yet is not an error for the reader.
				writeJSON(w, 200, []string{})
				return
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".diff") {
					names = append(names, e.Name())
				}
			}
			sort.Strings(names)
			writeJSON(w, 200, names)
		})

		r.Get("/diffs/{name}", func(w http.ResponseWriter, req *http.Request) {
			id := pathComponent(chi.URLParam(req, "id"))
			name := pathComponent(chi.URLParam(req, "name"))
			if id == "" || name == "" || !strings.HasSuffix(name, ".diff") {
				writeJSON(w, 400, map[string]string{"error": "bad path"})
				return
			}
			serveText(w, req, filepath.Join(s.ArtifactDir(id), "diffs", name))
		})

		r.Get("/journal", func(w http.ResponseWriter, req *http.Request) {
			id := pathComponent(chi.URLParam(req, "id"))
			if id == "" {
				writeJSON(w, 400, map[string]string{"error": "bad session id"})
				return
			}
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			entries, err := s.JournalEntries(req.Context(), id, limit)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			if entries == nil {
				writeJSON(w, 200, []struct{}{})
				return
			}
			writeJSON(w, 200, entries)
		})
	})

	return r
}

func (s *Service) serveArtifact(file string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := pathComponent(chi.URLParam(req, "id"))
		if id == "" {
			writeJSON(w, 400, map[string]string{"error": "bad session id"})
			return
		}
		serveText(w, req, filepath.Join(s.ArtifactDir(id), file))
	}
}

func serveText(w http.ResponseWriter, req *http.Request, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		writeJSON(w, 404, map[string]string{"error": "artifact not found"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

// pathComponent rejects values that could escape the artifact directory.
func pathComponent(v string) string {
	if v == "" || v == "." || v == ".." || strings.ContainsAny(v, `/\`) {
		return ""
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
