package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oruko-mi/chat/internal/model"
)

func TestCreateThread_GrowsAndActivates(t *testing.T) {
	s := NewConversationStore(nil)

	var ids []string
	for i := 1; i <= 5; i++ {
		id := s.CreateThread()
		ids = append(ids, id)

		assert.Equal(t, i, s.Len())
		assert.Equal(t, id, s.ActiveID())

		th, ok := s.Thread(id)
		require.True(t, ok)
		assert.Equal(t, model.DefaultTitle, th.Title)
		assert.Empty(t, th.Messages)
		assert.False(t, th.CreatedAt.IsZero())
	}

	threads := s.Threads()
	for i, th := range threads {
		assert.Equal(t, ids[len(ids)-1-i], th.ID, "threads are newest first")
	}
}

func TestEnsureThread(t *testing.T) {
	s := NewConversationStore(nil)

	id, created := s.EnsureThread()
	assert.True(t, created)
	assert.Equal(t, id, s.ActiveID())

	again, created := s.EnsureThread()
	assert.False(t, created)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, s.Len())
}

func TestSelectThread(t *testing.T) {
	s := NewConversationStore(nil)
	first := s.CreateThread()
	second := s.CreateThread()
	require.Equal(t, second, s.ActiveID())

	assert.True(t, s.SelectThread(first))
	assert.Equal(t, first, s.ActiveID())

	assert.False(t, s.SelectThread("does-not-exist"))
	assert.Equal(t, first, s.ActiveID(), "unknown id leaves the pointer alone")

	assert.False(t, s.SelectThread(""))
}

func TestAppendMessage_PreservesOrder(t *testing.T) {
	s := NewConversationStore(nil)
	id := s.CreateThread()

	msgs := []model.Message{
		model.NewUserMessage("one"),
		model.NewAssistantMessage("two"),
		model.NewUserMessage("three"),
	}
	for _, m := range msgs {
		require.NoError(t, s.AppendMessage(id, m))
	}

	th, _ := s.Thread(id)
	assert.Equal(t, msgs, th.Messages)
}

func TestAppendMessage_UnknownThread(t *testing.T) {
	s := NewConversationStore(nil)
	s.CreateThread()

	err := s.AppendMessage("missing", model.NewUserMessage("hi"))
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestThreadCopiesAreIsolated(t *testing.T) {
	s := NewConversationStore(nil)
	id := s.CreateThread()
	require.NoError(t, s.AppendMessage(id, model.NewUserMessage("hi")))

	th, _ := s.Thread(id)
	th.Messages[0].Content = "tampered"
	th.Title = "tampered"

	fresh, _ := s.Thread(id)
	assert.Equal(t, "hi", fresh.Messages[0].Content)
	assert.Equal(t, model.DefaultTitle, fresh.Title)
}

func TestDeriveTitleIfNeeded(t *testing.T) {
	s := NewConversationStore(nil)
	id := s.CreateThread()

	first := []model.Message{model.NewUserMessage("Hello")}
	assert.True(t, s.DeriveTitleIfNeeded(id, first))
	th, _ := s.Thread(id)
	assert.Equal(t, "Hello", th.Title)

	for _, n := range []int{0, 2, 3, 10} {
		msgs := make([]model.Message, n)
		for i := range msgs {
			msgs[i] = model.NewUserMessage("other title")
		}
		assert.False(t, s.DeriveTitleIfNeeded(id, msgs), "length %d", n)

		th, _ := s.Thread(id)
		assert.Equal(t, "Hello", th.Title, "length %d must not change the title", n)
	}

	assert.False(t, s.DeriveTitleIfNeeded("missing", first))
}

func TestDeriveTitleIfNeeded_Truncates(t *testing.T) {
	s := NewConversationStore(nil)
	id := s.CreateThread()

	content := strings.Repeat("x", 45)
	s.DeriveTitleIfNeeded(id, []model.Message{model.NewUserMessage(content)})

	th, _ := s.Thread(id)
	assert.Equal(t, strings.Repeat("x", 30)+"...", th.Title)
}

func TestSummaries(t *testing.T) {
	s := NewConversationStore(nil)
	old := s.CreateThread()
	require.NoError(t, s.AppendMessage(old, model.NewUserMessage("hi")))
	current := s.CreateThread()

	sums := s.Summaries()
	require.Len(t, sums, 2)
	assert.Equal(t, current, sums[0].ID)
	assert.True(t, sums[0].Active)
	assert.Equal(t, 0, sums[0].MessageCount)
	assert.Equal(t, old, sums[1].ID)
	assert.False(t, sums[1].Active)
	assert.Equal(t, 1, sums[1].MessageCount)
}
