// CLAUDE:SUMMARY Registers the domsnap MCP tools — session open/list/dispose, navigate, capture, journal.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers domsnap tools on an MCP server.
//
// Handlers return tool errors via result.SetError, never as protocol errors:
// a failed capture is an answer, not a broken connection.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerOpenTool(srv)
	s.registerCaptureTool(srv)
	s.registerNavigateTool(srv)
	s.registerDisposeTool(srv)
	s.registerListTool(srv)
	s.registerJournalTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sch["required"] = required
	}
	return sch
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

func decode[T any](req *mcp.CallToolRequest, v *T) error {
	if req.Params.Arguments == nil {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

// jsonText marshals v with indentation for tool output.
func jsonText(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// --- session_open ---

type openRequest struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Service) registerOpenTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_session_open",
		Description: "Open a browser session on a URL and capture its initial DOM snapshot. Returns the session id and artifact locations.",
		InputSchema: inputSchema(map[string]any{
			"url":        map[string]any{"type": "string", "description": "Page URL to open"},
			"session_id": map[string]any{"type": "string", "description": "Optional explicit session id (generated when omitted)"},
		}, []string{"url"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r openRequest
		if err := decode(req, &r); err != nil {
			return errorResult(fmt.Errorf("domsnap_session_open: invalid arguments: %w", err)), nil
		}
		id, err := s.Open(ctx, r.SessionID, r.URL)
		if err != nil {
			return errorResult(err), nil
		}
		res, err := s.Capture(ctx, id, "open")
		if err != nil {
			return errorResult(err), nil
		}
		text := "Session: " + id + "\n"
		if res != nil {
			text += res.Summary()
		}
		return textResult(text), nil
	})
}

// --- capture ---

type captureRequest struct {
	SessionID   string `json:"session_id"`
	ActionLabel string `json:"action_label,omitempty"`
}

func (s *Service) registerCaptureTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_capture",
		Description: "Capture the current DOM of a session, diff it against the previous capture, and persist dom.txt / tree.txt / a numbered diff. Returns the diff when the page changed.",
		InputSchema: inputSchema(map[string]any{
			"session_id":   map[string]any{"type": "string", "description": "Session to capture"},
			"action_label": map[string]any{"type": "string", "description": "Label of the action that triggered this capture (used in the diff filename)"},
		}, []string{"session_id"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r captureRequest
		if err := decode(req, &r); err != nil {
			return errorResult(fmt.Errorf("domsnap_capture: invalid arguments: %w", err)), nil
		}
		res, err := s.Capture(ctx, r.SessionID, r.ActionLabel)
		if err != nil {
			return errorResult(err), nil
		}
		if res == nil {
			return textResult("Capture skipped: page context unavailable, session state unchanged.\n"), nil
		}
		text := res.Summary()
		if res.Changed {
			text += "\n" + res.Diff
		}
		return textResult(text), nil
	})
}

// --- navigate ---

type navigateRequest struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func (s *Service) registerNavigateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_navigate",
		Description: "Navigate an open session to a new URL and capture the resulting DOM.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session to navigate"},
			"url":        map[string]any{"type": "string", "description": "Target URL"},
		}, []string{"session_id", "url"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r navigateRequest
		if err := decode(req, &r); err != nil {
			return errorResult(fmt.Errorf("domsnap_navigate: invalid arguments: %w", err)), nil
		}
		if err := s.Navigate(ctx, r.SessionID, r.URL); err != nil {
			return errorResult(err), nil
		}
		res, err := s.Capture(ctx, r.SessionID, "navigate")
		if err != nil {
			return errorResult(err), nil
		}
		if res == nil {
			return textResult("Navigated; capture skipped.\n"), nil
		}
		return textResult(res.Summary()), nil
	})
}

// --- session_dispose ---

func (s *Service) registerDisposeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_session_dispose",
		Description: "Close a session's tab and delete its snapshot artifacts.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session to dispose"},
		}, []string{"session_id"}),
	}

	type disposeReq struct {
		SessionID string `json:"session_id"`
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r disposeReq
		if err := decode(req, &r); err != nil {
			return errorResult(fmt.Errorf("domsnap_session_dispose: invalid arguments: %w", err)), nil
		}
		if err := s.Dispose(r.SessionID); err != nil {
			return errorResult(err), nil
		}
		return textResult("Session " + r.SessionID + " disposed.\n"), nil
	})
}

// --- session_list ---

func (s *Service) registerListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_session_list",
		Description: "List open sessions with their current URL and capture count.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(jsonText(s.List())), nil
	})
}

// --- journal ---

type journalRequest struct {
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit,omitempty"`
}

func (s *Service) registerJournalTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_journal",
		Description: "Show recent capture journal entries for a session (requires a configured journal).",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session to inspect"},
			"limit":      map[string]any{"type": "integer", "description": "Max entries (default 20)"},
		}, []string{"session_id"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r journalRequest
		if err := decode(req, &r); err != nil {
			return errorResult(fmt.Errorf("domsnap_journal: invalid arguments: %w", err)), nil
		}
		if r.Limit <= 0 {
			r.Limit = 20
		}
		entries, err := s.JournalEntries(ctx, r.SessionID, r.Limit)
		if err != nil {
			return errorResult(err), nil
		}
		if entries == nil {
			return textResult("No journal configured.\n"), nil
		}
		return textResult(jsonText(entries)), nil
	})
}
