package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel       = "claude-3-5-haiku-20241022"
	defaultAnthropicMaxTokens   = 1024
	defaultAnthropicTemperature = 0.7
)

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client      *anthropic.Client
	apiKey      string
	model       string
	temperature float64
}

// NewAnthropicClient creates a new Anthropic client. Like the OpenAI adapter,
// a missing key is reported on first use.
func NewAnthropicClient(opts Options) *AnthropicClient {
	apiKey := strings.TrimSpace(opts.APIKey)

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}

	c := &AnthropicClient{
		client:      anthropic.NewClient(reqOpts...),
		apiKey:      apiKey,
		model:       defaultAnthropicModel,
		temperature: defaultAnthropicTemperature,
	}
	if opts.Model != "" {
		c.model = opts.Model
	}
	if opts.Temperature != nil {
		c.temperature = *opts.Temperature
	}
	return c
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return string(ProviderAnthropic)
}

// DefaultModel returns the model used when a request names none.
func (c *AnthropicClient) DefaultModel() string {
	return c.model
}

// Models returns available models.
func (c *AnthropicClient) Models() []string {
	return []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-opus-20240229",
		"claude-3-haiku-20240307",
	}
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
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

	// Convert messages to Anthropic format
	messages := make([]anthropic.MessageParam, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = anthropic.MessageParam{
			Role: anthropic.F(anthropic.MessageParamRole(msg.Role)),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(msg.Content),
				},
			}),
		}
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.F(model),
		MaxTokens:   anthropic.F(int64(defaultAnthropicMaxTokens)),
		Temperature: anthropic.F(temperature),
		Messages:    anthropic.F(messages),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, newError(KindProvider, c.Name(), "complete", err)
		}
		return nil, newError(KindTransport, c.Name(), "complete", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}

	return &CompletionResponse{
		Content:    TextContent(content),
		Model:      resp.Model,
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
