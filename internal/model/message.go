// Package model defines data structures for the chat service.
package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a thread's history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage builds a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage builds an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SubmitRequest is the body of POST /api/v1/messages.
type SubmitRequest struct {
	Content string `json:"content"`
}

// SubmitResponse reports whether a submission passed the guard. Reply is only
// set when the caller asked to wait for the completion.
type SubmitResponse struct {
	Accepted bool     `json:"accepted"`
	ThreadID string   `json:"thread_id,omitempty"`
	Reply    *Message `json:"reply,omitempty"`
}
