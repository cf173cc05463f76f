package model

import (
	"time"
)

// EventType represents the type of state-change event.
type EventType string

const (
	EventThreadCreated   EventType = "thread_created"
	EventThreadSelected  EventType = "thread_selected"
	EventMessageAppended EventType = "message_appended"
	EventTitleDerived    EventType = "title_derived"
	EventLoadingChanged  EventType = "loading_changed"

	// EventCompletionFailed precedes the apology reply on a failed completion.
	EventCompletionFailed EventType = "error"
)

// ConversationEvent is published after every observable state change.
type ConversationEvent struct {
	ID        string      `json:"id"`
	ThreadID  string      `json:"thread_id,omitempty"`
	Type      EventType   `json:"type"`
	Message   *Message    `json:"message,omitempty"`
	Title     string      `json:"title,omitempty"`
	Loading   *bool       `json:"loading,omitempty"`
	Error     *ErrorEvent `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// ErrorEvent describes a failed completion. Code is the failure kind.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent keeps idle SSE connections open.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// StateView is the UI-visible projection of the controller.
type StateView struct {
	Threads     []ThreadSummary `json:"threads"`
	ActiveID    string          `json:"active_id,omitempty"`
	Active      *Thread         `json:"active,omitempty"`
	Header      string          `json:"header"`
	Loading     bool            `json:"loading"`
	Input       string          `json:"input"`
	SidebarOpen bool            `json:"sidebar_open"`
}
