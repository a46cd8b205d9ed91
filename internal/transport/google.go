package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"tutorchat/internal/core"
)

// systemAck is the synthetic model turn acknowledging the system prompt.
// The Google endpoint has no first-class system-prompt field, so the prompt
// is injected as a fake user/model exchange ahead of the real history.
const systemAck = "Understood, I will follow this role."

// googleRoleModel is what the Google endpoint calls the assistant role.
const googleRoleModel = "model"

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens"`
	Temperature     *float64 `json:"temperature,omitempty"`
	// ResponseMIMEType constrains the output format directly instead of
	// relying on prompt instructions alone; set to application/json for
	// structured generation only.
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type googleRequest struct {
	Contents         []googleContent        `json:"contents"`
	GenerationConfig googleGenerationConfig `json:"generationConfig"`
}

// buildGoogleBody converts the flat role/content history into the Google
// contents/parts shape, remapping assistant turns to the "model" role and
// prepending the system-prompt preamble exchange.
func buildGoogleBody(req Request) googleRequest {
	contents := make([]googleContent, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		contents = append(contents,
			googleContent{Role: core.RoleUser, Parts: []googlePart{{Text: req.SystemPrompt}}},
			googleContent{Role: googleRoleModel, Parts: []googlePart{{Text: systemAck}}},
		)
	}
	for _, turn := range req.History {
		role := turn.Role
		if role == core.RoleAssistant {
			role = googleRoleModel
		}
		contents = append(contents, googleContent{Role: role, Parts: []googlePart{{Text: turn.Content}}})
	}

	body := googleRequest{
		Contents:         contents,
		GenerationConfig: googleGenerationConfig{MaxOutputTokens: maxOutputTokens},
	}
	if req.Structured {
		t := structuredTemperature
		body.GenerationConfig.Temperature = &t
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}
	return body
}

// googleEndpoint builds the model-scoped endpoint URL with the API key in
// the query string, which is how this provider authenticates.
func googleEndpoint(base, model, method, apiKey string, streaming bool) string {
	q := url.Values{}
	if streaming {
		q.Set("alt", "sse")
	}
	q.Set("key", apiKey)
	return fmt.Sprintf("%s/models/%s:%s?%s", base, url.PathEscape(model), method, q.Encode())
}

// streamGoogle performs one streaming generateContent call. Google's SSE
// framing is coarser than the OpenAI-compatible one — several "data:" lines
// may arrive in a single chunk — and there is no [DONE] sentinel: the
// stream ends when the connection closes.
func streamGoogle(ctx context.Context, client *http.Client, req Request) (*core.FragmentStream, error) {
	payload, err := json.Marshal(buildGoogleBody(req))
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	provider := string(req.Target.Provider)
	endpoint := googleEndpoint(req.Target.BaseURL, req.Model, "streamGenerateContent", req.APIKey, true)
	resp, reqCtx, cancel, err := openStream(ctx, client, provider, req.Timeout, func(c context.Context) (*http.Request, error) {
		httpReq, reqErr := http.NewRequestWithContext(c, http.MethodPost, endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("create request: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		return httpReq, nil
	})
	if err != nil {
		return nil, err
	}

	return fragments(reqCtx, cancel, resp.Body, googleCandidateText), nil
}

// GenerateContent performs a single-shot, non-streaming completion against
// the Google endpoint and returns the generated text. Used for batch
// operations such as quiz generation, which always run against Google
// regardless of the selected chat model.
func GenerateContent(ctx context.Context, client *http.Client, req Request) (string, error) {
	if req.APIKey == "" {
		return "", core.NewConfigurationError(string(req.Target.Provider))
	}

	payload, err := json.Marshal(buildGoogleBody(req))
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	provider := string(req.Target.Provider)
	endpoint := googleEndpoint(req.Target.BaseURL, req.Model, "generateContent", req.APIKey, false)
	resp, _, cancel, err := openStream(ctx, client, provider, req.Timeout, func(c context.Context) (*http.Request, error) {
		httpReq, reqErr := http.NewRequestWithContext(c, http.MethodPost, endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("create request: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
		cancel()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return googleCandidateText(string(body)), nil
}
