// Package snapshot captures, canonicalizes, and diffs the visible DOM of one
// browser session into plain text artifacts on disk, so an agent can inspect
// page structure and change history without re-querying the live browser.
//
// One Session owns one logical browser session: its previous canonical text,
// its monotonic diff counter, and its artifact directory. Sessions share no
// state; independent sessions may update in parallel without coordination.
// Within a session, callers serialize Update calls and call Dispose only
// after in-flight updates complete.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hazyhaar/domsnap/snapshot/extract"
	"github.com/hazyhaar/domsnap/snapshot/internal/diffs"
	"github.com/hazyhaar/domsnap/snapshot/internal/format"
	"github.com/hazyhaar/domsnap/snapshot/internal/journal"
	"github.com/hazyhaar/domsnap/snapshot/internal/readable"
)

// Namespace is the fixed directory created under the workspace root.
const Namespace = ".domsnap"

// Artifact filenames inside a session's directory.
const (
	domFile  = "dom.txt"
	treeFile = "tree.txt"
	diffDir  = "diffs"
	pageFile = "page.md"
)

// Config addresses one session's artifacts. Either the (SessionID,
// WorkspaceRoot) pair or ExplicitRoot must be set; with neither, the session
// is in a disabled state and Update short-circuits before any extraction
// work.
type Config struct {
	// SessionID scopes artifacts under a shared workspace root
	// (multi-session addressing).
	SessionID string

	// WorkspaceRoot is the shared root for multi-session addressing.
	WorkspaceRoot string

	// ExplicitRoot addresses a single session directly; takes precedence
	// over the pair.
	ExplicitRoot string

	// Journal optionally records every capture. Shared across sessions;
	// safe for concurrent use.
	Journal *journal.Journal

	// Readable optionally renders a page.md artifact from the raw page HTML.
	Readable *readable.Converter

	Logger *slog.Logger
}

// Session drives the capture pipeline for one browser session:
// serialize → stitch → format → diff → write.
type Session struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	dir     string // resolved lazily, at most once
	prev    string
	hasPrev bool
	diffSeq int
}

// UpdateInput carries per-capture data supplied by the caller.
type UpdateInput struct {
	// ActionLabel names the action that triggered this capture; used only
	// for the diff filename. Treated as untrusted and sanitized.
	ActionLabel string

	// Tree is the structural outline produced by the browser runtime,
	// persisted verbatim as tree.txt.
	Tree string

	// RawHTML, when non-empty and a readable converter is configured, is
	// rendered to page.md. Opaque to the pipeline otherwise.
	RawHTML string

	// PageURL provides link context for the readable artifact.
	PageURL string
}

// New creates a Session. No filesystem work happens until the first
// successful Update.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionID != "" {
		logger = logger.With("session_id", cfg.SessionID)
	}
	return &Session{cfg: cfg, logger: logger}
}

// Update runs one capture: extract at root, stitch frames, canonicalize,
// diff against the previous text, and persist artifacts.
//
// A nil Result with nil error means the update was skipped: either no
// workspace is addressable, or extraction failed (the rendering context went
// away mid-capture). In both cases previous text and diff counter are left
// untouched for the next call. A non-nil error means artifacts could not be
// written; state is also left untouched then.
func (s *Session) Update(ctx context.Context, root extract.Extractor, in UpdateInput) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.resolveDir()
	if !ok {
		// Disabled state, not an error: skip before extraction cost.
		s.logger.Debug("snapshot: no workspace addressable, capture skipped")
		return nil, nil
	}

	res, err := root.Extract(ctx)
	if err != nil {
		s.logger.Warn("snapshot: extraction failed, capture skipped", "error", err)
		return nil, nil
	}

	stitched := extract.Stitch(ctx, res, root, s.logger)
	text := format.Canonical(stitched)

	var diff string
	if s.hasPrev {
		diff, err = diffs.Unified(s.prev, text)
		if err != nil {
			s.logger.Warn("snapshot: diff failed, continuing without", "error", err)
			diff = ""
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create artifact dir: %w", err)
	}

	result := &Result{
		DOMPath:      filepath.Join(dir, domFile),
		TreePath:     filepath.Join(dir, treeFile),
		FirstCapture: !s.hasPrev,
	}

	if err := os.WriteFile(result.DOMPath, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("snapshot: write %s: %w", domFile, err)
	}
	if err := os.WriteFile(result.TreePath, []byte(in.Tree), 0o644); err != nil {
		return nil, fmt.Errorf("snapshot: write %s: %w", treeFile, err)
	}

	if diff != "" {
		seq := s.diffSeq + 1
		name := diffs.FileName(seq, in.ActionLabel)
		dpath := filepath.Join(dir, diffDir, name)
		if err := os.MkdirAll(filepath.Dir(dpath), 0o755); err != nil {
			return nil, fmt.Errorf("snapshot: create diff dir: %w", err)
		}
		if err := os.WriteFile(dpath, []byte(diff), 0o644); err != nil {
			return nil, fmt.Errorf("snapshot: write diff: %w", err)
		}
		s.diffSeq = seq
		result.DiffPath = dpath
		result.Diff = diff
		result.Seq = seq
		result.Changed = true
	}

	s.prev = text
	s.hasPrev = true

	s.writeReadable(dir, in)
	s.journal(in.ActionLabel, len(text), result)

	s.logger.Info("snapshot: capture written",
		"bytes", len(text), "changed", result.Changed, "seq", result.Seq)
	return result, nil
}

// Dispose deletes the session's artifact directory and resets in-memory
// state. Idempotent; a later Update recreates the directory if addressing
// information is still available.
func (s *Session) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir != "" {
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("snapshot: dispose: %w", err)
		}
	}
	s.prev = ""
	s.hasPrev = false
	s.diffSeq = 0
	return nil
}

// resolveDir resolves the artifact directory once and caches it.
func (s *Session) resolveDir() (string, bool) {
	if s.dir != "" {
		return s.dir, true
	}
	switch {
	case s.cfg.ExplicitRoot != "":
		s.dir = filepath.Join(s.cfg.ExplicitRoot, Namespace)
	case s.cfg.WorkspaceRoot != "" && s.cfg.SessionID != "":
		s.dir = filepath.Join(s.cfg.WorkspaceRoot, Namespace, s.cfg.SessionID)
	default:
		return "", false
	}
	return s.dir, true
}

func (s *Session) writeReadable(dir string, in UpdateInput) {
	if s.cfg.Readable == nil || in.RawHTML == "" {
		return
	}
	md, err := s.cfg.Readable.Markdown(in.RawHTML, in.PageURL)
	if err != nil {
		s.logger.Warn("snapshot: readable artifact failed", "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, pageFile), []byte(md), 0o644); err != nil {
		s.logger.Warn("snapshot: write page.md failed", "error", err)
	}
}

func (s *Session) journal(label string, size int, r *Result) {
	if s.cfg.Journal == nil {
		return
	}
	s.cfg.Journal.Record(&journal.Entry{
		SessionID: s.cfg.SessionID,
		Seq:       r.Seq,
		Label:     label,
		Bytes:     size,
		Changed:   r.Changed,
	})
}
