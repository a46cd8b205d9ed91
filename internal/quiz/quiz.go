// Package quiz generates multiple-choice quizzes from a conversation
// transcript. Unlike the chat paths this is a batch, non-streaming call,
// and it always runs against the Google provider regardless of which chat
// model the user selected.
package quiz

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"tutorchat/internal/core"
	"tutorchat/internal/providers"
	"tutorchat/internal/transport"
)

// Model is the fixed model used for quiz generation.
const Model = "gemini-2.5-flash"

// maxTranscriptChars caps how much of the conversation is embedded in the
// prompt; only the first part of long transcripts is used.
const maxTranscriptChars = 6000

// Question is one normalized quiz question. CorrectAnswer is the index into
// Options.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

const quizPromptHeader = `You are an expert educational assessor. Based on the tutoring conversation below, generate exactly 5 multiple-choice questions testing what the student was learning.

CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.

JSON schema per question:
{"question": "string", "options": ["string", "string", "string", "string"], "answer": "string (the correct option, or its letter A-D)", "explanation": "string"}

Every question must have exactly 4 options.

---CONVERSATION---
`

// Generator issues quiz-generation calls. The target is resolved once at
// construction from the fixed quiz model; tests point it at a fake server.
type Generator struct {
	client *http.Client
	target providers.Target
}

// Option configures a Generator.
type Option func(*Generator)

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Generator) { g.client = client }
}

// WithBaseURL overrides the provider endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(g *Generator) { g.target.BaseURL = baseURL }
}

// NewGenerator creates a quiz generator.
func NewGenerator(opts ...Option) *Generator {
	target, err := providers.Resolve(Model)
	if err != nil {
		// The fixed quiz model is part of the routing table; this is a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("quiz model %q does not route: %v", Model, err))
	}
	g := &Generator{client: http.DefaultClient, target: target}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a quiz from the conversation history. It requires a
// Google API key and at least two prior turns; both checks fail before any
// network call. The model response is requested as JSON directly and then
// normalized; an unrecognizable shape or empty question list fails the
// whole call — no partial quiz is returned.
func (g *Generator) Generate(ctx context.Context, keys providers.Credentials, history []core.ChatTurn) ([]Question, error) {
	if keys.Key(providers.Google) == "" {
		return nil, core.NewConfigurationError(string(providers.Google))
	}
	if len(history) < 2 {
		return nil, core.NewInvalidRequestError("need at least two messages to generate a quiz")
	}

	prompt := buildPrompt(history)
	raw, err := transport.GenerateContent(ctx, g.client, transport.Request{
		Target:     g.target,
		APIKey:     keys.Key(providers.Google),
		Model:      Model,
		History:    []core.ChatTurn{{Role: core.RoleUser, Content: prompt}},
		Structured: true,
		Timeout:    transport.StructuredTimeout,
	})
	if err != nil {
		return nil, err
	}

	return Parse(raw)
}

// buildPrompt embeds a truncated transcript into the fixed quiz prompt.
func buildPrompt(history []core.ChatTurn) string {
	var b strings.Builder
	b.WriteString(quizPromptHeader)

	var transcript strings.Builder
	for _, turn := range history {
		speaker := "Student"
		if turn.Role == core.RoleAssistant {
			speaker = "Tutor"
		}
		fmt.Fprintf(&transcript, "%s: %s\n", speaker, turn.Content)
	}
	text := transcript.String()
	if len(text) > maxTranscriptChars {
		text = text[:maxTranscriptChars]
	}
	b.WriteString(text)
	b.WriteString("---END---\n")
	return b.String()
}
