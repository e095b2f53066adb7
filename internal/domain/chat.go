package domain

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// Message is the provider-agnostic chat message shape used by the usecase
// and LLM integrations. Model messages may carry ToolCalls; tool messages
// carry a ToolResult.
type Message struct {
	Role       Role
	Text       string
	ToolCalls  []ToolCall
	ToolResult *ToolResult
}

// CompletionRequest is everything sent to the completion service for one round.
type CompletionRequest struct {
	System   string
	Messages []Message
}

// Completion is the completion service's answer: final text, requested tool
// calls, or both.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}
