// Package llm provides the completion client contract and provider adapters.
package llm

import (
	"context"
	"fmt"
)

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a completion request. An empty Model or a nil
// Temperature falls back to the client default; a zero temperature is sent
// as zero.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature *float64
}

// Temperature returns a pointer to t for CompletionRequest and Options.
func Temperature(t float64) *float64 {
	return &t
}

// Content is the reply text of a completion, which may be absent.
type Content struct {
	text    string
	present bool
}

// TextContent wraps provider output. Empty text counts as absent.
func TextContent(text string) Content {
	return Content{text: text, present: text != ""}
}

// NoContent is a reply without usable text.
func NoContent() Content {
	return Content{}
}

// Text returns the reply text and whether it is present.
func (c Content) Text() (string, bool) {
	return c.text, c.present
}

// Or returns the text, or fallback when absent.
func (c Content) Or(fallback string) string {
	if !c.present {
		return fallback
	}
	return c.text
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    Content
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends the full message history and returns one assistant reply.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// DefaultModel is the model used when a request names none.
	DefaultModel() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Options configures a provider adapter.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
}

// NewClient creates a new LLM client based on provider. A missing API key is
// not an error here; it surfaces on the first Complete call.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderOpenAI, "":
		openAIOpts := []OpenAIOption{
			WithBaseURL(opts.BaseURL),
			WithDefaultModel(opts.Model),
		}
		if opts.Temperature != nil {
			openAIOpts = append(openAIOpts, WithTemperature(*opts.Temperature))
		}
		return NewOpenAIClient(opts.APIKey, openAIOpts...), nil
	case ProviderAnthropic:
		return NewAnthropicClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
