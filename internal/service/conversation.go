// Package service holds the conversation state and the controller that drives it.
package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oruko-mi/chat/internal/model"
	"github.com/oruko-mi/chat/pkg/logger"
	"github.com/oruko-mi/chat/pkg/metrics"
)

// ErrThreadNotFound is returned when an operation names an unknown thread.
var ErrThreadNotFound = errors.New("thread not found")

// ConversationStore is the in-memory collection of chat threads, newest first,
// plus the active-thread pointer. Every method is atomic.
type ConversationStore struct {
	logger *logger.Logger
	now    func() time.Time

	mu       sync.RWMutex
	threads  []*model.Thread
	activeID string
}

// NewConversationStore creates an empty store.
func NewConversationStore(log *logger.Logger) *ConversationStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConversationStore{
		logger: log,
		now:    time.Now,
	}
}

// CreateThread inserts a new empty thread at the front and makes it active.
func (s *ConversationStore) CreateThread() string {
	s.mu.Lock()
	id := s.insertLocked()
	s.mu.Unlock()

	s.logger.Debug("thread created", zap.String("thread_id", id))
	return id
}

// EnsureThread creates a thread when the collection is empty. It returns the
// active id and whether a thread was created.
func (s *ConversationStore) EnsureThread() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.threads) > 0 {
		return s.activeID, false
	}
	return s.insertLocked(), true
}

func (s *ConversationStore) insertLocked() string {
	thread := &model.Thread{
		ID:        uuid.NewString(),
		Title:     model.DefaultTitle,
		Messages:  []model.Message{},
		CreatedAt: s.now(),
	}
	s.threads = append([]*model.Thread{thread}, s.threads...)
	s.activeID = thread.ID

	metrics.ThreadsTotal.Inc()
	return thread.ID
}

// SelectThread moves the active pointer to id. Unknown ids leave the pointer
// untouched and return false.
func (s *ConversationStore) SelectThread(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(id) == nil {
		return false
	}
	s.activeID = id
	return true
}

// AppendMessage appends msg to the thread's history.
func (s *ConversationStore) AppendMessage(threadID string, msg model.Message) error {
	s.mu.Lock()
	thread := s.find(threadID)
	if thread == nil {
		s.mu.Unlock()
		s.logger.Warn("append to unknown thread", zap.String("thread_id", threadID))
		return ErrThreadNotFound
	}
	thread.Messages = append(thread.Messages, msg)
	s.mu.Unlock()

	metrics.MessagesTotal.WithLabelValues(string(msg.Role)).Inc()
	return nil
}

// DeriveTitleIfNeeded sets the thread title from messages[0] when messages
// holds exactly one element. Any other length is a no-op. The check is on the
// length, not on the current title, so callers invoke it once per submission
// right after appending the user message. It reports whether the title changed.
func (s *ConversationStore) DeriveTitleIfNeeded(threadID string, messages []model.Message) bool {
	if len(messages) != 1 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	thread := s.find(threadID)
	if thread == nil {
		return false
	}
	thread.Title = model.DeriveTitle(messages[0].Content)
	return true
}

// Thread returns a copy of the thread with the given id.
func (s *ConversationStore) Thread(id string) (*model.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread := s.find(id)
	if thread == nil {
		return nil, false
	}
	return thread.Clone(), true
}

// Threads returns copies of all threads, newest first.
func (s *ConversationStore) Threads() []*model.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Thread, len(s.threads))
	for i, t := range s.threads {
		out[i] = t.Clone()
	}
	return out
}

// ActiveID returns the active thread id, or "" when none is selected.
func (s *ConversationStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns a copy of the active thread.
func (s *ConversationStore) Active() (*model.Thread, bool) {
	return s.Thread(s.ActiveID())
}

// Len returns the number of threads.
func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}

// Summaries returns the sidebar projection of all threads.
func (s *ConversationStore) Summaries() []model.ThreadSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ThreadSummary, len(s.threads))
	for i, t := range s.threads {
		out[i] = model.ThreadSummary{
			ID:           t.ID,
			Title:        t.Title,
			MessageCount: len(t.Messages),
			CreatedAt:    t.CreatedAt,
			Active:       t.ID == s.activeID,
		}
	}
	return out
}

// find must be called with s.mu held.
func (s *ConversationStore) find(id string) *model.Thread {
	if id == "" {
		return nil
	}
	for _, t := range s.threads {
		if t.ID == id {
			return t
		}
	}
	return nil
}
