package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oruko-mi/chat/internal/model"
)

const (
	// SubjectPrefix is the prefix for all chat subjects.
	SubjectPrefix = "chat"

	// sessionToken stands in for the thread segment of events that belong to
	// no single thread.
	sessionToken = "session"
)

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher forwards conversation events to NATS as JSON.
type Publisher struct {
	conn conn
}

// NewPublisher creates a publisher on the client's connection.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{conn: client.Conn()}
}

// EventSubject returns the subject for an event.
func EventSubject(threadID string, eventType model.EventType) string {
	if threadID == "" {
		threadID = sessionToken
	}
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, threadID, eventType)
}

// Publish implements service.EventPublisher. Core NATS publishes are fire and
// forget; the context is accepted for interface parity.
func (p *Publisher) Publish(_ context.Context, event *model.ConversationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(EventSubject(event.ThreadID, event.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
