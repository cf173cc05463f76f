package llm

import (
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ErrorKind classifies completion failures. The controller collapses all kinds
// into one apology message; the kind is kept for logs and metrics.
type ErrorKind string

const (
	KindConfig    ErrorKind = "config"
	KindTransport ErrorKind = "transport"
	KindProvider  ErrorKind = "provider"
)

var (
	// ErrMissingCredential is returned on first use when no API key is configured.
	ErrMissingCredential = errors.New("api key is missing, add it to the .env file")

	// ErrNoChoices is returned when the provider answered without any choice.
	ErrNoChoices = errors.New("completion returned no choices")
)

// Error is a classified completion failure.
type Error struct {
	Kind     ErrorKind
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("llm %s %s error in %s: %v", e.Provider, e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the kind of a completion error, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, provider, op string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Op: op, Err: err}
}

// classifyOpenAI maps go-openai failures onto error kinds. Anything the SDK did
// not decode from an HTTP response is treated as a transport failure.
func classifyOpenAI(op string, err error) *Error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		return newError(KindProvider, string(ProviderOpenAI), op, err)
	default:
		return newError(KindTransport, string(ProviderOpenAI), op, err)
	}
}
