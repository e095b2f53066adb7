package domain

// Conversation is the transient message history of one console session or
// one HTTP request. It is never persisted.
type Conversation struct {
	Messages []Message
}

// Append adds messages to the end of the history.
func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Messages)
}
