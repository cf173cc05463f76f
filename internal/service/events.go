package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/oruko-mi/chat/internal/model"
	"github.com/oruko-mi/chat/pkg/logger"
)

// EventPublisher receives state-change events after they are applied.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.ConversationEvent) error
}

// Publishers fans one event out to several publishers.
type Publishers []EventPublisher

// Publish delivers to every publisher and joins their errors.
func (p Publishers) Publish(ctx context.Context, event *model.ConversationEvent) error {
	var errs []error
	for _, pub := range p {
		if pub == nil {
			continue
		}
		if err := pub.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EventsTopic is the in-process topic conversation events are published on.
const EventsTopic = "conversation.events"

// Broadcaster delivers events to in-process subscribers such as SSE clients
// over a watermill Go channel. Publish blocks until every subscriber has
// acked, so each subscriber sees events in the order they happened.
type Broadcaster struct {
	pubSub *gochannel.GoChannel
}

// NewBroadcaster creates a broadcaster. A nil logger discards watermill's
// own logging.
func NewBroadcaster(log *logger.Logger) *Broadcaster {
	var adapter watermill.LoggerAdapter = watermill.NopLogger{}
	if log != nil {
		adapter = log.Watermill()
	}
	return &Broadcaster{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, adapter),
	}
}

// Subscribe returns a channel of event messages that closes when ctx is done
// or the broadcaster is closed. Every message must be acked.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, EventsTopic)
}

// Publish implements EventPublisher.
func (b *Broadcaster) Publish(ctx context.Context, event *model.ConversationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	id := event.ID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set("type", string(event.Type))
	msg.SetContext(ctx)

	return b.pubSub.Publish(EventsTopic, msg)
}

// Close stops delivery and closes every subscriber channel.
func (b *Broadcaster) Close() error {
	return b.pubSub.Close()
}

// DecodeEvent reads a conversation event back from a broadcast message.
func DecodeEvent(msg *message.Message) (*model.ConversationEvent, error) {
	var event model.ConversationEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event %s: %w", msg.UUID, err)
	}
	return &event, nil
}
