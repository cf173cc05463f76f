package service

import (
	"context"

	"github.com/oruko-mi/chat/internal/model"
)

// Task is the pending second phase of a submission. It resolves exactly once,
// with the assistant message appended to the submitting thread.
type Task struct {
	threadID string
	done     chan struct{}
	reply    model.Message
}

func newTask(threadID string) *Task {
	return &Task{threadID: threadID, done: make(chan struct{})}
}

// ThreadID is the thread the submission was made to.
func (t *Task) ThreadID() string {
	return t.threadID
}

// Done is closed once the follow-up message has been appended.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task resolves or ctx ends. Cancelling ctx does not
// cancel the completion.
func (t *Task) Wait(ctx context.Context) (model.Message, error) {
	select {
	case <-t.done:
		return t.reply, nil
	case <-ctx.Done():
		return model.Message{}, ctx.Err()
	}
}

func (t *Task) resolve(reply model.Message) {
	t.reply = reply
	close(t.done)
}
