package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/oruko-mi/chat/internal/llm"
	"github.com/oruko-mi/chat/internal/model"
	"github.com/oruko-mi/chat/pkg/logger"
	"github.com/oruko-mi/chat/pkg/metrics"
)

const (
	// FallbackReply replaces a completion that carried no usable content.
	FallbackReply = "No response available."

	// ErrorReply replaces a failed completion.
	ErrorReply = "Sorry, I encountered an error. Please try again."

	// DefaultHeader is shown when no thread is active.
	DefaultHeader = "ChatGPT"
)

// Controller turns user events into store transitions and drives the single
// outstanding completion. The loading flag is process-wide: while any thread
// awaits a reply, submissions to every thread are ignored.
type Controller struct {
	store     *ConversationStore
	client    llm.Client
	publisher EventPublisher
	logger    *logger.Logger
	tracer    trace.Tracer

	model       string
	temperature *float64

	mu          sync.Mutex
	input       string
	loading     bool
	sidebarOpen bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher sets where state-change events go.
func WithPublisher(p EventPublisher) Option {
	return func(c *Controller) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithModel sets the model sent with every completion. An empty model leaves
// the client default in place.
func WithModel(model string) Option {
	return func(c *Controller) {
		c.model = model
	}
}

// WithTemperature sets the sampling temperature sent with every completion.
// Without it the client default applies; zero is sent as zero.
func WithTemperature(temperature float64) Option {
	return func(c *Controller) {
		c.temperature = llm.Temperature(temperature)
	}
}

// NewController wires a controller and makes sure a thread exists.
func NewController(store *ConversationStore, client llm.Client, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		client:      client,
		publisher:   Publishers(nil),
		logger:      logger.NewNop(),
		tracer:      otel.Tracer("github.com/oruko-mi/chat/internal/service"),
		sidebarOpen: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	if id, created := store.EnsureThread(); created {
		c.sidebarOpen = false
		c.publish(context.Background(), model.EventThreadCreated, id, nil)
	}

	return c
}

// Store exposes the underlying conversation store for read access.
func (c *Controller) Store() *ConversationStore {
	return c.store
}

// SetInput replaces the current input text.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// Input returns the current input text.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Loading reports whether a completion is pending.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ToggleSidebar flips sidebar visibility and returns the new state.
func (c *Controller) ToggleSidebar() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sidebarOpen = !c.sidebarOpen
	return c.sidebarOpen
}

// NewChat creates a thread, makes it active and closes the sidebar.
func (c *Controller) NewChat(ctx context.Context) string {
	id := c.store.CreateThread()

	c.mu.Lock()
	c.sidebarOpen = false
	c.mu.Unlock()

	c.publish(ctx, model.EventThreadCreated, id, nil)
	return id
}

// SelectChat activates an existing thread. Unknown ids are ignored.
func (c *Controller) SelectChat(ctx context.Context, id string) bool {
	if !c.store.SelectThread(id) {
		return false
	}

	c.mu.Lock()
	c.sidebarOpen = false
	c.mu.Unlock()

	c.publish(ctx, model.EventThreadSelected, id, nil)
	return true
}

// SubmitText sets the input and submits it in one step.
func (c *Controller) SubmitText(ctx context.Context, text string) (*Task, bool) {
	c.mu.Lock()
	c.input = text
	return c.submitLocked(ctx)
}

// Submit sends the current input to the active thread. It returns false,
// changing nothing, when the input is blank, a completion is already pending
// or no thread is active. Otherwise the user message is appended before
// Submit returns and the returned Task resolves once the reply is appended.
func (c *Controller) Submit(ctx context.Context) (*Task, bool) {
	c.mu.Lock()
	return c.submitLocked(ctx)
}

// submitLocked is called with c.mu held and releases it.
func (c *Controller) submitLocked(ctx context.Context) (*Task, bool) {
	text := c.input
	threadID := c.store.ActiveID()

	var reason string
	switch {
	case strings.TrimSpace(text) == "":
		reason = "empty_input"
	case c.loading:
		reason = "pending"
	case threadID == "":
		reason = "no_active_thread"
	}
	if reason != "" {
		c.mu.Unlock()
		metrics.SubmissionsRejected.WithLabelValues(reason).Inc()
		return nil, false
	}

	userMsg := model.NewUserMessage(text)
	if err := c.store.AppendMessage(threadID, userMsg); err != nil {
		c.mu.Unlock()
		metrics.SubmissionsRejected.WithLabelValues("no_active_thread").Inc()
		return nil, false
	}
	c.input = ""
	c.loading = true

	thread, _ := c.store.Thread(threadID)
	titled := c.store.DeriveTitleIfNeeded(threadID, thread.Messages)
	c.mu.Unlock()

	c.publish(ctx, model.EventMessageAppended, threadID, func(e *model.ConversationEvent) {
		e.Message = &userMsg
	})
	if titled {
		title := model.DeriveTitle(text)
		c.publish(ctx, model.EventTitleDerived, threadID, func(e *model.ConversationEvent) {
			e.Title = title
		})
	}
	c.publishLoading(ctx, true)

	task := newTask(threadID)
	go c.complete(context.WithoutCancel(ctx), task, thread.Messages)

	return task, true
}

// complete runs phase two: one completion, then exactly one assistant message
// on the submitting thread, then back to idle.
func (c *Controller) complete(ctx context.Context, task *Task, history []model.Message) {
	threadID := task.ThreadID()
	log := c.logger.WithThread(threadID)

	ctx, span := c.tracer.Start(ctx, "controller.complete", trace.WithAttributes(
		attribute.String("thread.id", threadID),
		attribute.Int("thread.messages", len(history)),
	))
	defer span.End()

	metrics.CompletionsInFlight.Inc()
	defer metrics.CompletionsInFlight.Dec()

	reply, err := c.requestReply(ctx, log, history)
	var failure *model.ErrorEvent
	if err != nil {
		kind := llm.KindOf(err)
		if kind == "" {
			kind = "unknown"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		log.Error("completion failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		failure = &model.ErrorEvent{Code: string(kind), Message: err.Error()}
		reply = model.NewAssistantMessage(ErrorReply)
	}

	c.mu.Lock()
	if err := c.store.AppendMessage(threadID, reply); err != nil {
		log.Warn("dropping reply", zap.Error(err))
	}
	c.loading = false
	c.mu.Unlock()

	if failure != nil {
		c.publish(ctx, model.EventCompletionFailed, threadID, func(e *model.ConversationEvent) {
			e.Error = failure
		})
	}
	c.publish(ctx, model.EventMessageAppended, threadID, func(e *model.ConversationEvent) {
		e.Message = &reply
	})
	c.publishLoading(ctx, false)

	task.resolve(reply)
}

// requestReply calls the completion client and normalises its answer. A
// panicking client is reported as an error.
func (c *Controller) requestReply(ctx context.Context, log *logger.Logger, history []model.Message) (reply model.Message, err error) {
	provider := "none"
	if c.client != nil {
		provider = c.client.Name()
	}
	start := time.Now()
	var tokensIn, tokensOut int

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion client panicked: %v", r)
		}
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RecordCompletion(provider, status, time.Since(start).Seconds(), tokensIn, tokensOut)
	}()

	if c.client == nil {
		return model.Message{}, &llm.Error{Kind: llm.KindConfig, Provider: provider, Op: "complete", Err: llm.ErrMissingCredential}
	}

	messages := make([]llm.ChatMessage, len(history))
	for i, msg := range history {
		messages[i] = llm.ChatMessage{Role: string(msg.Role), Content: msg.Content}
	}

	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return model.Message{}, err
	}
	if resp == nil {
		return model.NewAssistantMessage(FallbackReply), nil
	}

	tokensIn, tokensOut = resp.TokensIn, resp.TokensOut

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("llm.model", resp.Model),
		attribute.String("llm.stop_reason", resp.StopReason),
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)
	log.WithCompletion(provider, resp.Model).Info("completion finished",
		zap.String("stop_reason", resp.StopReason),
		zap.Int64("latency_ms", resp.LatencyMs),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
	)

	return model.NewAssistantMessage(resp.Content.Or(FallbackReply)), nil
}

// ModelInfo describes the completion backend the controller talks to.
type ModelInfo struct {
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Models   []string `json:"models"`
}

// Models reports the configured provider, the model used for completions and
// the models the provider offers.
func (c *Controller) Models() ModelInfo {
	if c.client == nil {
		return ModelInfo{Provider: "none", Model: c.model, Models: []string{}}
	}
	info := ModelInfo{
		Provider: c.client.Name(),
		Model:    c.model,
		Models:   c.client.Models(),
	}
	if info.Model == "" {
		info.Model = c.client.DefaultModel()
	}
	if info.Models == nil {
		info.Models = []string{}
	}
	return info
}

// Snapshot returns the UI-visible state.
func (c *Controller) Snapshot() model.StateView {
	c.mu.Lock()
	view := model.StateView{
		Loading:     c.loading,
		Input:       c.input,
		SidebarOpen: c.sidebarOpen,
	}
	c.mu.Unlock()

	view.Threads = c.store.Summaries()
	view.ActiveID = c.store.ActiveID()
	view.Header = DefaultHeader
	if active, ok := c.store.Thread(view.ActiveID); ok {
		view.Active = active
		if active.Title != "" {
			view.Header = active.Title
		}
	}
	return view
}

func (c *Controller) publishLoading(ctx context.Context, loading bool) {
	c.publish(ctx, model.EventLoadingChanged, "", func(e *model.ConversationEvent) {
		e.Loading = &loading
	})
}

func (c *Controller) publish(ctx context.Context, typ model.EventType, threadID string, fill func(*model.ConversationEvent)) {
	event := &model.ConversationEvent{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Type:      typ,
		CreatedAt: time.Now(),
	}
	if fill != nil {
		fill(event)
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish event",
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}
