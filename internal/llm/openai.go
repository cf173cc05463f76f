package llm

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel       = openai.GPT3Dot5Turbo
	defaultOpenAITemperature = 0.7
)

// OpenAIClient is the OpenAI LLM client.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	model       string
	temperature float64
}

// OpenAIOption customises an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAIClient) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature used when a request sets none.
// Zero is a valid temperature.
func WithTemperature(t float64) OpenAIOption {
	return func(c *OpenAIClient) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// NewOpenAIClient creates a new OpenAI client. The key is only checked when
// Complete is first called.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:      strings.TrimSpace(apiKey),
		model:       defaultOpenAIModel,
		temperature: defaultOpenAITemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(ProviderOpenAI)
}

// DefaultModel returns the model used when a request names none.
func (c *OpenAIClient) DefaultModel() string {
	return c.model
}

// Models returns available models.
func (c *OpenAIClient) Models() []string {
	return []string{
		openai.GPT3Dot5Turbo,
		openai.GPT4TurboPreview,
		openai.GPT4,
	}
}

func (c *OpenAIClient) sdk() *openai.Client {
	config := openai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		config.BaseURL = c.baseURL
	}
	if c.httpClient != nil {
		config.HTTPClient = c.httpClient
	}
	return openai.NewClientWithConfig(config)
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if c.apiKey == "" {
		return nil, newError(KindConfig, c.Name(), "complete", ErrMissingCredential)
	}

	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	// Convert messages to OpenAI format
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.sdk().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: openAITemperature(temperature),
	})
	if err != nil {
		return nil, classifyOpenAI("complete", err)
	}

	if len(resp.Choices) == 0 {
		return nil, newError(KindProvider, c.Name(), "complete", ErrNoChoices)
	}
	choice := resp.Choices[0]

	return &CompletionResponse{
		Content:    TextContent(choice.Message.Content),
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: string(choice.FinishReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// openAITemperature keeps an explicit zero on the wire. The SDK omits a zero
// temperature, which the API would read as its own default of 1.
func openAITemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
