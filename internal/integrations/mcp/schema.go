package mcp

import (
	"encoding/json"
	"fmt"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

type inputSchema struct {
	Properties map[string]struct {
		Description string `json:"description"`
	} `json:"properties"`
	Required []string `json:"required"`
}

// DeclarationFromTool decodes an MCP tool's JSON input schema. Property
// descriptions and the required list survive; declared types do not.
func DeclarationFromTool(tool *mcpsdk.Tool) (domain.ToolDeclaration, error) {
	if tool == nil {
		return domain.ToolDeclaration{}, fmt.Errorf("mcp: tool is nil")
	}
	decl := domain.ToolDeclaration{Name: tool.Name, Description: tool.Description}
	if tool.InputSchema == nil {
		return decl, nil
	}

	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return domain.ToolDeclaration{}, fmt.Errorf("mcp: encode input schema for %s: %w", tool.Name, err)
	}
	var schema inputSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return domain.ToolDeclaration{}, fmt.Errorf("mcp: decode input schema for %s: %w", tool.Name, err)
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		decl.Parameters = append(decl.Parameters, domain.Parameter{
			Name:        name,
			Description: schema.Properties[name].Description,
		})
	}
	decl.Required = schema.Required
	return decl, nil
}

// toolFromDeclaration builds the MCP tool advertised for a registry entry.
func toolFromDeclaration(d domain.ToolDeclaration) *mcpsdk.Tool {
	props := make(map[string]any, len(d.Parameters))
	for _, p := range d.Parameters {
		props[p.Name] = map[string]any{
			"type":        "string",
			"description": p.Description,
		}
	}
	required := make([]string, len(d.Required))
	copy(required, d.Required)
	return &mcpsdk.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}
