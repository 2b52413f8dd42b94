package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testImpl = &mcp.Implementation{Name: "domsnap-test", Version: "0.1.0"}

// mcpSession registers the tools on a fresh Service and returns a connected
// client session. The browser is never started; only tools that read
// registry state are exercised here.
func mcpSession(t *testing.T) (*Service, *mcp.ClientSession) {
	t.Helper()
	s := testService(t)

	srv := mcp.NewServer(testImpl, nil)
	s.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()

	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	return s, session
}

func callToolRaw(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool content")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func TestMCP_SessionList_Empty(t *testing.T) {
	_, session := mcpSession(t)

	result := callToolRaw(t, session, "domsnap_session_list", map[string]any{})
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var infos []SessionInfo
	if err := json.Unmarshal([]byte(toolText(t, result)), &infos); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected no sessions, got %d", len(infos))
	}
}

func TestMCP_Capture_UnknownSession(t *testing.T) {
	_, session := mcpSession(t)

	result := callToolRaw(t, session, "domsnap_capture", map[string]any{
		"session_id": "ghost",
	})
	// Tool errors surface to clients via IsError, not as protocol errors.
	if !result.IsError {
		t.Fatal("expected tool error for unknown session")
	}
}

func TestMCP_Dispose_UnknownSession(t *testing.T) {
	_, session := mcpSession(t)

	result := callToolRaw(t, session, "domsnap_session_dispose", map[string]any{
		"session_id": "ghost",
	})
	if !result.IsError {
		t.Fatal("expected tool error for unknown session")
	}
}

func TestMCP_Journal_NotConfigured(t *testing.T) {
	_, session := mcpSession(t)

	result := callToolRaw(t, session, "domsnap_journal", map[string]any{
		"session_id": "any",
	})
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	if got := toolText(t, result); got != "No journal configured.\n" {
		t.Errorf("text = %q", got)
	}
}
