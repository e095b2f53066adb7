package domain

// Parameter is a single tool argument. Every parameter is a string scalar.
type Parameter struct {
	Name        string
	Description string
}

// ToolDeclaration describes a capability the completion service may request.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  []Parameter
	Required    []string
}

// ToolCall is a tool invocation requested by the completion service.
type ToolCall struct {
	Name string
	Args map[string]any
}

// StringArg returns the named argument when it is a string.
func (c ToolCall) StringArg(name string) string {
	s, _ := c.Args[name].(string)
	return s
}

// ToolResult is the text outcome of executing a ToolCall, fed back to the
// completion service keyed by tool name.
type ToolResult struct {
	Name    string
	Content string
}
