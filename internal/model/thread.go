package model

import (
	"time"
)

const (
	// DefaultTitle is the sentinel title of a thread with no user message yet.
	DefaultTitle = "New chat"

	// TitleMaxChars is how many characters of the first message become the title.
	TitleMaxChars = 30

	titleEllipsis = "..."
)

// Thread is one independent conversation.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers cannot alias store state.
func (t *Thread) Clone() *Thread {
	c := *t
	c.Messages = make([]Message, len(t.Messages))
	copy(c.Messages, t.Messages)
	return &c
}

// DeriveTitle truncates content to TitleMaxChars characters, appending an
// ellipsis when anything was cut. Characters are runes; word boundaries and
// grapheme clusters are ignored.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleMaxChars {
		return content
	}
	return string(runes[:TitleMaxChars]) + titleEllipsis
}

// ThreadSummary is the sidebar view of a thread.
type ThreadSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
}

// ListThreadsResponse is the response for listing threads.
type ListThreadsResponse struct {
	Threads  []ThreadSummary `json:"threads"`
	ActiveID string          `json:"active_id,omitempty"`
}
