package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oruko-mi/chat/internal/model"
)

type recordingPublisher struct {
	events []*model.ConversationEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e *model.ConversationEvent) error {
	r.events = append(r.events, e)
	return r.err
}

func TestPublishersFanOut(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{err: errors.New("down")}
	p := Publishers{a, nil, b}

	err := p.Publish(context.Background(), &model.ConversationEvent{Type: model.EventThreadCreated})
	require.Error(t, err)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

// collect acks and decodes n messages from ch in the background.
func collect(t *testing.T, ch <-chan *message.Message, n int) <-chan []*model.ConversationEvent {
	t.Helper()
	out := make(chan []*model.ConversationEvent, 1)
	go func() {
		var events []*model.ConversationEvent
		for msg := range ch {
			e, err := DecodeEvent(msg)
			msg.Ack()
			if assert.NoError(t, err) {
				events = append(events, e)
			}
			if len(events) == n {
				break
			}
		}
		out <- events
	}()
	return out
}

func awaitEvents(t *testing.T, got <-chan []*model.ConversationEvent) []*model.ConversationEvent {
	t.Helper()
	select {
	case events := <-got:
		return events
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
		return nil
	}
}

func TestBroadcaster_DeliversInOrder(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)
	got := collect(t, ch, 3)

	loading := true
	require.NoError(t, b.Publish(ctx, &model.ConversationEvent{ID: "1", Type: model.EventThreadCreated, ThreadID: "t"}))
	require.NoError(t, b.Publish(ctx, &model.ConversationEvent{ID: "2", Type: model.EventLoadingChanged, Loading: &loading}))
	require.NoError(t, b.Publish(ctx, &model.ConversationEvent{Type: model.EventTitleDerived, Title: "Hi"}))

	events := awaitEvents(t, got)
	require.Len(t, events, 3)
	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, "t", events[0].ThreadID)
	require.NotNil(t, events[1].Loading)
	assert.True(t, *events[1].Loading)
	assert.Equal(t, "Hi", events[2].Title)
}

func TestBroadcaster_BusySubscriberMissesNothing(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	const n = 200
	got := collect(t, ch, n)
	for i := 0; i < n; i++ {
		require.NoError(t, b.Publish(ctx, &model.ConversationEvent{ID: strconv.Itoa(i), Type: model.EventMessageAppended}))
	}

	events := awaitEvents(t, got)
	require.Len(t, events, n)
	for i, e := range events {
		assert.Equal(t, strconv.Itoa(i), e.ID)
	}
}

func TestBroadcaster_NoSubscribers(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	assert.NoError(t, b.Publish(context.Background(), &model.ConversationEvent{ID: "1"}))
}

func TestBroadcaster_GoneSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Publish(context.Background(), &model.ConversationEvent{ID: "1"})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a cancelled subscriber")
	}

	for range ch {
	}
}

func TestBroadcaster_CloseEndsSubscriptions(t *testing.T) {
	b := NewBroadcaster(nil)

	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription stayed open after close")
	}
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := DecodeEvent(message.NewMessage("m-1", []byte("{")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m-1")
}
