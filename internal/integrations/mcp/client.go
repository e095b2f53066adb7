package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

// Remote executes tools hosted by an MCP server over one long-lived session.
// The tool list is fetched once at connect time.
type Remote struct {
	session *mcpsdk.ClientSession
	decls   []domain.ToolDeclaration
}

// Dial connects over transport and lists the server's tools.
func Dial(ctx context.Context, transport mcpsdk.Transport, clientName, version string) (*Remote, error) {
	if transport == nil {
		return nil, errors.New("mcp: transport must not be nil")
	}
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: clientName, Version: version}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect: %w", err)
	}

	r := &Remote{session: session}
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			_ = session.Close()
			return nil, fmt.Errorf("mcp: list tools: %w", err)
		}
		decl, err := DeclarationFromTool(tool)
		if err != nil {
			_ = session.Close()
			return nil, err
		}
		r.decls = append(r.decls, decl)
	}
	return r, nil
}

// DialCommand spawns cmdline and speaks MCP over its stdin/stdout. The
// server's stderr is forwarded to ours. cmdline is split on whitespace with
// no shell quoting, so the program path and its arguments cannot contain
// spaces.
func DialCommand(ctx context.Context, cmdline, clientName, version string) (*Remote, error) {
	parts, err := splitCommand(cmdline)
	if err != nil {
		return nil, err
	}
	// The command comes from operator configuration, not user input.
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stderr = os.Stderr
	return Dial(ctx, &mcpsdk.CommandTransport{Command: cmd}, clientName, version)
}

func (r *Remote) Declarations() []domain.ToolDeclaration {
	out := make([]domain.ToolDeclaration, len(r.decls))
	copy(out, r.decls)
	return out
}

// Execute calls the tool and returns its first text content. Error results
// from the server are returned as errors.
func (r *Remote) Execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error) {
	if r.session == nil {
		return domain.ToolResult{}, errors.New("mcp: session is closed")
	}
	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	res, err := r.session.CallTool(ctx, &mcpsdk.CallToolParams{Name: call.Name, Arguments: args})
	if err != nil {
		return domain.ToolResult{}, fmt.Errorf("mcp: call %s: %w", call.Name, err)
	}
	text := firstText(res.Content)
	if res.IsError {
		return domain.ToolResult{}, fmt.Errorf("mcp: tool %s failed: %s", call.Name, text)
	}
	return domain.ToolResult{Name: call.Name, Content: text}, nil
}

// Close ends the session and, for command transports, the server process.
func (r *Remote) Close() error {
	if r == nil || r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.session = nil
	return err
}

func firstText(content []mcpsdk.Content) string {
	for _, c := range content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func splitCommand(cmdline string) ([]string, error) {
	if strings.ContainsAny(cmdline, `"'`) {
		return nil, fmt.Errorf("mcp: server command %q uses quotes, which are not supported", cmdline)
	}
	parts := strings.Fields(cmdline)
	if len(parts) == 0 {
		return nil, errors.New("mcp: server command is empty")
	}
	return parts, nil
}
