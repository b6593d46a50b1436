package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/config"
)

func newTestServer(t *testing.T, root string) *Server {
	t.Helper()
	cfg := config.Default(root)
	require.NoError(t, config.NewValidator().ValidateAndSetDefaults(cfg))
	return New(cfg)
}

func callToolResult(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, r.Content, 1)
	text, ok := r.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleAnalyze_ReturnsReportJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("function foo() { return 1; }\n"), 0o644))

	s := newTestServer(t, dir)
	result, err := s.handleAnalyze(context.Background(), &mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(callToolResult(t, result)), &report))
	assert.Equal(t, dir, report["rootPath"])
}

func TestHandleAnalyze_InvalidRootReturnsIsError(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	args, err := json.Marshal(map[string]string{"root": filepath.Join(t.TempDir(), "does-not-exist")})
	require.NoError(t, err)

	result, err := s.handleAnalyze(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: args},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSnippet_ReturnsFileContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("hello"), 0o644))

	s := newTestServer(t, dir)
	args, err := json.Marshal(snippetParams{Path: "a.js", MaxBytes: 1024})
	require.NoError(t, err)

	result, err := s.handleSnippet(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: args},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(callToolResult(t, result)), &res))
	assert.Equal(t, "hello", res["Content"])
}

func TestHandleSnippet_EscapingPathReturnsIsError(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	args, err := json.Marshal(snippetParams{Path: "../../etc/passwd", MaxBytes: 1024})
	require.NoError(t, err)

	result, err := s.handleSnippet(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: args},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
