// Package service hosts multiple capture sessions behind MCP tools and an
// HTTP inspection surface. Each session pairs a browser tab with a snapshot
// session; artifacts land under <workspace_root>/.domsnap/<session_id>/.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hazyhaar/domsnap/browser"
	"github.com/hazyhaar/domsnap/snapshot"
)

// Service is the multi-session registry.
type Service struct {
	cfg      *Config
	logger   *slog.Logger
	mgr      *browser.Manager
	journal  *snapshot.Journal
	readable *snapshot.Readable

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// session pairs one tab with its snapshot state. Captures within a session
// are serialized by its own mutex; sessions never share state.
type session struct {
	mu       sync.Mutex
	tab      *browser.Tab
	snap     *snapshot.Session
	captures int
}

// SessionInfo is a read-only view of one open session.
type SessionInfo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Captures int    `json:"captures"`
}

// New creates the service. Call Start before opening sessions.
func New(cfg *Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.defaults()
	return &Service{
		cfg:    cfg,
		logger: logger,
		mgr: browser.NewManager(browser.Config{
			RemoteURL:        cfg.Browser.RemoteURL,
			Headful:          cfg.Browser.Headful,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			NavTimeout:       cfg.Browser.NavTimeout,
			Logger:           logger,
		}),
		sessions: make(map[string]*session),
	}
}

// Start launches the browser and opens optional shared artifacts.
func (s *Service) Start(ctx context.Context) error {
	if _, err := s.mgr.Start(ctx); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if s.cfg.Artifacts.JournalPath != "" {
		j, err := snapshot.OpenJournal(s.cfg.Artifacts.JournalPath, s.logger)
		if err != nil {
			return fmt.Errorf("service: open journal: %w", err)
		}
		s.journal = j
	}
	if s.cfg.Artifacts.Readable {
		s.readable = snapshot.NewReadable()
	}
	return nil
}

// Open creates a session: a stealth tab navigated to pageURL plus its
// snapshot state. An empty id gets a generated one. Returns the session id.
func (s *Service) Open(ctx context.Context, id, pageURL string) (string, error) {
	if id == "" {
		u, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("service: session id: %w", err)
		}
		id = u.String()
	}

	// Early check so an obvious duplicate fails before the tab cost; the
	// authoritative check happens again in register, under the same lock as
	// the insert.
	if err := s.register(id, nil); err != nil {
		return "", err
	}

	tab, err := browser.OpenTab(ctx, s.mgr, pageURL, id)
	if err != nil {
		return "", fmt.Errorf("service: open session %s: %w", id, err)
	}

	sess := &session{
		tab: tab,
		snap: snapshot.New(snapshot.Config{
			SessionID:     id,
			WorkspaceRoot: s.cfg.WorkspaceRoot,
			Journal:       s.journal,
			Readable:      s.readable,
			Logger:        s.logger,
		}),
	}

	if err := s.register(id, sess); err != nil {
		// Lost the race to a concurrent Open with the same id; this tab must
		// not leak.
		tab.Close()
		return "", err
	}

	s.logger.Info("service: session opened", "session_id", id, "url", pageURL)
	return id, nil
}

// register inserts a session under the registry lock, failing on duplicates
// and after Close. A nil sess only performs the checks.
func (s *Service) register(id string, sess *session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("service: closed")
	}
	if _, exists := s.sessions[id]; exists {
		return fmt.Errorf("service: session %s already open", id)
	}
	if sess != nil {
		s.sessions[id] = sess
	}
	return nil
}

// Navigate loads a new URL in an open session's tab.
func (s *Service) Navigate(ctx context.Context, id, pageURL string) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.tab.Navigate(ctx, pageURL)
}

// Capture runs one snapshot update for a session: stamp identities, render
// the structural outline, then extract/stitch/format/diff/persist. A nil
// Result with nil error means the capture was skipped (page context went
// away); the session stays usable.
func (s *Service) Capture(ctx context.Context, id, actionLabel string) (*snapshot.Result, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := sess.tab.Stamp(ctx); err != nil {
		s.logger.Warn("service: stamp failed, capture skipped",
			"session_id", id, "error", err)
		return nil, nil
	}

	tree, err := sess.tab.OutlineTree(ctx)
	if err != nil {
		s.logger.Warn("service: outline failed, continuing without",
			"session_id", id, "error", err)
	}

	var raw string
	if s.readable != nil {
		if raw, err = sess.tab.RawHTML(ctx); err != nil {
			s.logger.Warn("service: raw html failed, continuing without",
				"session_id", id, "error", err)
		}
	}

	res, err := sess.snap.Update(ctx, sess.tab, snapshot.UpdateInput{
		ActionLabel: actionLabel,
		Tree:        tree,
		RawHTML:     raw,
		PageURL:     sess.tab.PageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("service: capture %s: %w", id, err)
	}
	if res != nil {
		sess.captures++
	}
	return res, nil
}

// Dispose closes a session's tab and deletes its artifacts.
func (s *Service) Dispose(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("service: session %s not found", id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.tab.Close(); err != nil {
		s.logger.Warn("service: close tab", "session_id", id, "error", err)
	}
	if err := sess.snap.Dispose(); err != nil {
		return fmt.Errorf("service: dispose %s: %w", id, err)
	}
	s.logger.Info("service: session disposed", "session_id", id)
	return nil
}

// List returns open sessions sorted by id.
func (s *Service) List() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionInfo, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sess.mu.Lock()
		out = append(out, SessionInfo{
			ID:       id,
			URL:      sess.tab.PageURL,
			Captures: sess.captures,
		})
		sess.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// JournalEntries returns recent journal rows for a session, newest first.
// Returns nil when no journal is configured.
func (s *Service) JournalEntries(ctx context.Context, id string, limit int) ([]snapshot.JournalEntry, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.Recent(ctx, id, limit)
}

// ArtifactDir returns the artifact directory for a session id.
func (s *Service) ArtifactDir(id string) string {
	return filepath.Join(s.cfg.WorkspaceRoot, snapshot.Namespace, id)
}

// Close closes every session's tab, the browser, and the journal. Session
// artifacts are left on disk for post-mortem inspection.
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for id, sess := range sessions {
		if err := sess.tab.Close(); err != nil {
			s.logger.Warn("service: close tab", "session_id", id, "error", err)
		}
	}
	err := s.mgr.Close()
	if s.journal != nil {
		if jerr := s.journal.Close(); err == nil {
			err = jerr
		}
	}
	return err
}

func (s *Service) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("service: session %s not found", id)
	}
	return sess, nil
}
