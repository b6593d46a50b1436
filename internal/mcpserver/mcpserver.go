// Package mcpserver exposes the analyze and snippet operations as MCP
// tools over stdio, for editor/agent clients that want the report
// without shelling out to the CLI: one JSON-schema tool per operation,
// JSON results in a single TextContent block, errors surfaced with
// IsError=true rather than as protocol-level failures.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeatlas/codeatlas/internal/config"
	"github.com/codeatlas/codeatlas/internal/pipeline"
	"github.com/codeatlas/codeatlas/internal/snippet"
	"github.com/codeatlas/codeatlas/internal/version"
)

// Server hosts the codeatlas MCP tool set.
type Server struct {
	server *mcp.Server
	cfg    *config.Config
}

// New builds a Server bound to cfg.Project.Root and registers its tools.
// cfg is the base configuration; the analyze tool re-validates a copy of
// it per call so concurrent calls never race on shared mutable state.
func New(cfg *config.Config) *Server {
	s := &Server{
		cfg: cfg,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "codeatlas-mcp-server",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Serve runs the server over stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

type analyzeParams struct {
	Root string `json:"root"`
}

type snippetParams struct {
	Path     string `json:"path"`
	MaxBytes int64  `json:"maxBytes"`
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "analyze",
		Description: "Run the codeatlas analysis pipeline over a project root and return the full report (tree, dependencies, structure graph, clones, metrics, issues, narrative).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"root": {
					Type:        "string",
					Description: "Absolute path to the project root to analyze. Defaults to the server's configured root.",
				},
			},
		},
	}, s.handleAnalyze)

	s.server.AddTool(&mcp.Tool{
		Name:        "snippet",
		Description: "Read a byte-bounded slice of a single file under the project root for display.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "File path relative to the project root.",
				},
				"maxBytes": {
					Type:        "integer",
					Description: "Maximum bytes to return, clamped to the server's configured [minBytes, maxBytes] range.",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleSnippet)
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params analyzeParams
	if req.Params != nil && len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return errorResult("analyze", fmt.Errorf("invalid parameters: %w", err)), nil
		}
	}

	cfg := *s.cfg
	if params.Root != "" {
		cfg.Project.Root = params.Root
	}
	if err := config.NewValidator().ValidateAndSetDefaults(&cfg); err != nil {
		return errorResult("analyze", err), nil
	}

	report, err := pipeline.Analyze(&cfg)
	if err != nil {
		return errorResult("analyze", err), nil
	}

	return jsonResult(report)
}

func (s *Server) handleSnippet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params snippetParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("snippet", fmt.Errorf("invalid parameters: %w", err)), nil
	}

	result, err := snippet.Read(s.cfg.Project.Root, params.Path, params.MaxBytes, s.cfg.Snippet)
	if err != nil {
		return errorResult("snippet", err), nil
	}

	return jsonResult(result)
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

func errorResult(operation string, err error) *mcp.CallToolResult {
	content, _ := json.Marshal(map[string]interface{}{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
		IsError: true,
	}
}
