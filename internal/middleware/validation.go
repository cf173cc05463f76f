package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxMessageBytes bounds a single submission.
const MaxMessageBytes = 100000

// ValidateMessageContent rejects oversized or malformed content. Blank content
// passes: the controller ignores it without an error.
func ValidateMessageContent(content string) error {
	if len(content) > MaxMessageBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateThreadID validates a thread ID.
func ValidateThreadID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid thread ID format")
	}
	return nil
}
