// Package server provides HTTP handlers and server setup for the tutoring
// chat backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"tutorchat/internal/chat"
	"tutorchat/internal/core"
	"tutorchat/internal/providers"
	"tutorchat/internal/quiz"
)

// ChatRequest is the request body for the chat, flowchart, and quiz
// endpoints. Model and tutor mode fall back to the server defaults when
// omitted.
type ChatRequest struct {
	Messages  []core.ChatTurn `json:"messages"`
	Model     string          `json:"model,omitempty"`
	TutorMode string          `json:"tutor_mode,omitempty"`
}

// Handler holds the HTTP handlers.
type Handler struct {
	service   *chat.Service
	generator *quiz.Generator
	defaults  chat.Settings
	logger    *slog.Logger
}

// NewHandler creates a handler. defaults supplies the model, tutor mode,
// and provider keys used when a request leaves them out.
func NewHandler(service *chat.Service, generator *quiz.Generator, defaults chat.Settings, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		generator: generator,
		defaults:  defaults,
		logger:    logger,
	}
}

// settings merges the request's overrides over the server defaults into a
// per-call snapshot.
func (h *Handler) settings(req *ChatRequest) chat.Settings {
	s := h.defaults
	if req.Model != "" {
		s.Model = req.Model
	}
	if req.TutorMode != "" {
		s.TutorMode = req.TutorMode
	}
	return s
}

// StreamChat handles POST /v1/chat/stream.
func (h *Handler) StreamChat(c echo.Context) error {
	return h.streamReply(c, h.service.StreamChatReply)
}

// StreamFlowchart handles POST /v1/flowchart/stream.
func (h *Handler) StreamFlowchart(c echo.Context) error {
	return h.streamReply(c, h.service.StreamFlowchartReply)
}

// streamFunc is either of the service's two streaming operations.
type streamFunc func(ctx context.Context, settings chat.Settings, history []core.ChatTurn) (*core.FragmentStream, error)

func (h *Handler) streamReply(c echo.Context, start streamFunc) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error()))
	}

	stream, err := start(c.Request().Context(), h.settings(&req), req.Messages)
	if err != nil {
		return handleError(c, err)
	}

	return h.writeSSE(c, stream)
}

// writeSSE re-emits the fragment stream to the client as SSE: each fragment
// becomes a data: line with a {"content": ...} payload, a mid-stream error
// becomes a final data: line with an {"error": ...} payload, and a clean end
// is marked with the [DONE] sentinel.
func (h *Handler) writeSSE(c echo.Context, stream *core.FragmentStream) error {
	resp := c.Response()
	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	for fragment, err := range stream.Iter() {
		if err != nil {
			// Headers are already out; the error travels in-band.
			writeEvent(resp, map[string]any{"error": errorPayload(err)})
			return nil
		}
		writeEvent(resp, map[string]string{"content": fragment})
	}

	fmt.Fprint(resp, "data: [DONE]\n\n")
	resp.Flush()
	return nil
}

func writeEvent(resp *echo.Response, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(resp, "data: %s\n\n", data)
	resp.Flush()
}

// GenerateQuiz handles POST /v1/quiz.
func (h *Handler) GenerateQuiz(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error()))
	}

	questions, err := h.generator.Generate(c.Request().Context(), h.defaults.Keys, req.Messages)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"questions": questions})
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Providers handles GET /v1/providers: which providers have credentials
// configured, so the UI can grey out models it cannot serve.
func (h *Handler) Providers(c echo.Context) error {
	configured := map[string]bool{}
	for _, p := range []providers.Provider{
		providers.Google,
		providers.Mistral,
		providers.Groq,
		providers.Cerebras,
		providers.Zhipu,
	} {
		configured[string(p)] = h.defaults.Keys.Key(p) != ""
	}
	return c.JSON(http.StatusOK, map[string]any{"providers": configured})
}

// handleError converts service errors to HTTP responses. Only usable before
// the response headers are written.
func handleError(c echo.Context, err error) error {
	var chatErr *core.ChatError
	if errors.As(err, &chatErr) {
		return c.JSON(chatErr.HTTPStatusCode(), chatErr.ToJSON())
	}

	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}

func errorPayload(err error) map[string]any {
	var chatErr *core.ChatError
	if errors.As(err, &chatErr) {
		return chatErr.ToJSON()["error"].(map[string]any)
	}
	return map[string]any{
		"type":    "internal_error",
		"message": err.Error(),
	}
}
