package domain

import "time"

// TurnRecord is the audit entry written after a completed turn. It is never
// read back into a conversation.
type TurnRecord struct {
	ID        string
	Channel   string
	Message   string
	Reply     string
	ToolCalls int
	CreatedAt time.Time
	TTL       int64
}
