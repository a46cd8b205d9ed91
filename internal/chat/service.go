// Package chat is the service façade over routing and transport: it turns a
// conversation history plus per-call settings into a live fragment stream.
package chat

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tutorchat/internal/core"
	"tutorchat/internal/observability"
	"tutorchat/internal/providers"
	"tutorchat/internal/transport"
)

// Settings is an immutable per-call snapshot of the session configuration:
// which model is selected, which tutor mode shapes the system prompt, and
// the provider credentials. Snapshotting at call time keeps settings
// updates from mutating an in-flight stream's already-resolved endpoint
// and key.
type Settings struct {
	Model     string
	TutorMode string
	Keys      providers.Credentials
}

// Service dispatches chat and flowchart completions to the provider the
// selected model routes to. It holds no per-conversation state; every call
// is self-contained.
type Service struct {
	client  *http.Client
	prompts *PromptSet
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

// WithPrompts replaces the built-in tutor-mode prompt templates.
func WithPrompts(prompts *PromptSet) Option {
	return func(s *Service) { s.prompts = prompts }
}

// WithMetrics enables per-provider request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a chat service.
func New(opts ...Option) *Service {
	s := &Service{
		client:  http.DefaultClient,
		prompts: DefaultPrompts(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StreamChatReply streams a tutoring reply to the given conversation
// history. The system prompt comes from the settings' tutor mode (standard
// when missing), and the call runs under the shorter chat timeout.
// Routing, credential, and transport errors surface unchanged; there are
// no retries.
func (s *Service) StreamChatReply(ctx context.Context, settings Settings, history []core.ChatTurn) (*core.FragmentStream, error) {
	return s.stream(ctx, settings, history, "chat", s.prompts.ForMode(settings.TutorMode), false, transport.ChatTimeout)
}

// StreamFlowchartReply streams a flowchart-generation reply: fixed
// raw-JSON-only system prompt, lower temperature, and the longer structured
// timeout. Dispatch is otherwise identical to StreamChatReply.
func (s *Service) StreamFlowchartReply(ctx context.Context, settings Settings, history []core.ChatTurn) (*core.FragmentStream, error) {
	return s.stream(ctx, settings, history, "flowchart", FlowchartSystemPrompt, true, transport.StructuredTimeout)
}

func (s *Service) stream(ctx context.Context, settings Settings, history []core.ChatTurn, operation, systemPrompt string, structured bool, timeout time.Duration) (*core.FragmentStream, error) {
	if len(history) == 0 {
		return nil, core.NewInvalidRequestError("no messages provided")
	}

	target, err := providers.Resolve(settings.Model)
	if err != nil {
		s.metrics.RecordError("", operation, err)
		return nil, err
	}

	s.logger.Debug("dispatching completion",
		"request_id", core.GetRequestID(ctx),
		"operation", operation,
		"model", settings.Model,
		"provider", target.Provider,
		"turns", len(history),
	)
	s.metrics.RecordRequest(string(target.Provider), operation)

	stream, err := transport.Stream(ctx, s.client, transport.Request{
		Target:       target,
		APIKey:       settings.Keys.Key(target.Provider),
		Model:        settings.Model,
		SystemPrompt: systemPrompt,
		History:      history,
		Structured:   structured,
		Timeout:      timeout,
	})
	if err != nil {
		s.metrics.RecordError(string(target.Provider), operation, err)
		return nil, err
	}

	return s.observed(stream, string(target.Provider), operation), nil
}

// observed re-yields every fragment unchanged while counting fragments and
// mid-stream errors. Ordering and laziness are preserved: each fragment is
// forwarded as it arrives.
func (s *Service) observed(stream *core.FragmentStream, provider, operation string) *core.FragmentStream {
	return core.NewFragmentStream(func(yield func(string, error) bool) {
		for fragment, err := range stream.Iter() {
			if err != nil {
				s.metrics.RecordError(provider, operation, err)
				yield("", err)
				return
			}
			s.metrics.RecordFragment(provider)
			if !yield(fragment, nil) {
				return
			}
		}
	})
}
