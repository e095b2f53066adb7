package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

// Executor is the tool surface shared by the in-process registry and Remote.
type Executor interface {
	Declarations() []domain.ToolDeclaration
	Execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error)
}

// NewServer exposes every tool of exec over MCP. Tool failures are returned
// as error results carrying the failure text.
func NewServer(exec Executor, name, version string, logger *slog.Logger) *mcpsdk.Server {
	if logger == nil {
		logger = slog.Default()
	}
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: name, Version: version}, nil)
	for _, decl := range exec.Declarations() {
		server.AddTool(toolFromDeclaration(decl), toolHandler(exec, decl.Name, logger))
	}
	return server
}

func toolHandler(exec Executor, name string, logger *slog.Logger) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		args := map[string]any{}
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult("invalid arguments: " + err.Error()), nil
			}
		}

		res, err := exec.Execute(ctx, domain.ToolCall{Name: name, Args: args})
		if err != nil {
			logger.Warn("tool call failed", "tool", name, "err", err)
			return errorResult(err.Error()), nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: res.Content}},
		}, nil
	}
}

func errorResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		IsError: true,
	}
}
