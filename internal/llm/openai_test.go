package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []ChatMessage `json:"messages"`
}

func newCompletionServer(t *testing.T, status int, body string, captured *capturedRequest, calls *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func history() *CompletionRequest {
	return &CompletionRequest{Messages: []ChatMessage{{Role: "user", Content: "Hello"}}}
}

func TestOpenAIComplete_Success(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"model": "gpt-3.5-turbo-0125",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hi there!"}}],
		"usage": {"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12}
	}`, &got, nil)

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL+"/v1"))
	resp, err := c.Complete(context.Background(), history())
	require.NoError(t, err)

	text, ok := resp.Content.Text()
	assert.True(t, ok)
	assert.Equal(t, "Hi there!", text)
	assert.Equal(t, 9, resp.TokensIn)
	assert.Equal(t, 3, resp.TokensOut)
	assert.Equal(t, "stop", resp.StopReason)

	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-6)
	assert.Equal(t, []ChatMessage{{Role: "user", Content: "Hello"}}, got.Messages)
}

func TestOpenAIComplete_ModelOverride(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`, &got, nil)

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL+"/v1/"), WithDefaultModel("gpt-4"), WithTemperature(0.2))
	_, err := c.Complete(context.Background(), history())
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
}

func TestOpenAIComplete_RequestTemperature(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`, &got, nil)

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL+"/v1"))
	req := history()
	req.Temperature = Temperature(0.4)
	_, err := c.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.InDelta(t, 0.4, got.Temperature, 1e-6)
}

func TestOpenAIComplete_ZeroTemperatureIsSent(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL+"/v1"), WithTemperature(0))
	_, err := c.Complete(context.Background(), history())
	require.NoError(t, err)

	require.Contains(t, raw, "temperature", "a zero temperature must not be dropped")
	var temperature float64
	require.NoError(t, json.Unmarshal(raw["temperature"], &temperature))
	assert.InDelta(t, 0, temperature, 1e-6)
}

func TestOpenAIComplete_MissingContent(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK,
		`{"choices":[{"index":0,"message":{"role":"assistant"}}]}`, nil, nil)

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL+"/v1"))
	resp, err := c.Complete(context.Background(), history())
	require.NoError(t, err)

	_, ok := resp.Content.Text()
	assert.False(t, ok)
	assert.Equal(t, "fallback", resp.Content.Or("fallback"))
}

func TestOpenAIComplete_NoChoices(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK, `{"choices":[]}`, nil, nil)

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL+"/v1"))
	_, err := c.Complete(context.Background(), history())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoChoices)
	assert.Equal(t, KindProvider, KindOf(err))
}

func TestOpenAIComplete_MissingKeyIsLazy(t *testing.T) {
	calls := 0
	srv := newCompletionServer(t, http.StatusOK, `{}`, nil, &calls)

	c := NewOpenAIClient("  ", WithBaseURL(srv.URL+"/v1"))
	_, err := c.Complete(context.Background(), history())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, KindConfig, KindOf(err))
	assert.Zero(t, calls, "no request may be sent without a credential")
}

func TestOpenAIComplete_ProviderError(t *testing.T) {
	srv := newCompletionServer(t, http.StatusInternalServerError,
		`{"error":{"message":"boom","type":"server_error"}}`, nil, nil)

	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL+"/v1"))
	_, err := c.Complete(context.Background(), history())
	require.Error(t, err)
	assert.Equal(t, KindProvider, KindOf(err))
}

func TestOpenAIComplete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAIClient("sk-test", WithBaseURL(url+"/v1"))
	_, err := c.Complete(context.Background(), history())
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(ProviderOpenAI, Options{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, "gpt-3.5-turbo", c.DefaultModel())
	assert.Contains(t, c.Models(), c.DefaultModel())

	c, err = NewClient(ProviderAnthropic, Options{Model: "claude-3-haiku-20240307"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())
	assert.Equal(t, "claude-3-haiku-20240307", c.DefaultModel())

	_, err = NewClient("mystery", Options{})
	require.Error(t, err)
}

func TestContent(t *testing.T) {
	text, ok := TextContent("").Text()
	assert.False(t, ok)
	assert.Empty(t, text)

	assert.Equal(t, "x", TextContent("x").Or("y"))
	assert.Equal(t, "y", NoContent().Or("y"))
}
