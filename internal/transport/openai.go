package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tutorchat/internal/core"
)

// chatRequest is the JSON body for the OpenAI-compatible chat completions
// endpoint, shared verbatim by mistral, groq, cerebras, and zhipu.
type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []core.ChatTurn `json:"messages"`
	Stream      bool            `json:"stream"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
}

// buildChatBody assembles the turn list with the system prompt prepended as
// a synthetic leading turn. Temperature is only set for structured output;
// plain chat keeps the model default.
func buildChatBody(req Request) chatRequest {
	messages := make([]core.ChatTurn, 0, len(req.History)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, core.ChatTurn{Role: core.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, req.History...)

	body := chatRequest{
		Model:     req.Model,
		Messages:  messages,
		Stream:    true,
		MaxTokens: maxOutputTokens,
	}
	if req.Structured {
		t := structuredTemperature
		body.Temperature = &t
	}
	return body
}

// streamOpenAI performs one streaming chat completion against an
// OpenAI-compatible endpoint and decodes the SSE response. The stream ends
// at the in-band [DONE] sentinel.
func streamOpenAI(ctx context.Context, client *http.Client, req Request) (*core.FragmentStream, error) {
	payload, err := json.Marshal(buildChatBody(req))
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	provider := string(req.Target.Provider)
	resp, reqCtx, cancel, err := openStream(ctx, client, provider, req.Timeout, func(c context.Context) (*http.Request, error) {
		httpReq, reqErr := http.NewRequestWithContext(c, http.MethodPost, req.Target.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("create request: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
		return httpReq, nil
	})
	if err != nil {
		return nil, err
	}

	return fragments(reqCtx, cancel, resp.Body, openAIDelta), nil
}
