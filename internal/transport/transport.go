// Package transport performs the streaming HTTP calls against the resolved
// provider and decodes the chunked responses into fragment streams.
//
// Two wire variants exist: the OpenAI-compatible one (mistral, groq,
// cerebras, zhipu) and the Google Generative Language one. Both share the
// same external contract — a lazy, single-pass, non-restartable sequence of
// text fragments — and the same line decoder (internal/sse), differing only
// in request shape, auth placement, and payload extraction.
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"tutorchat/internal/core"
	"tutorchat/internal/providers"
	"tutorchat/internal/sse"
)

const (
	// ChatTimeout bounds a standard chat turn.
	ChatTimeout = 30 * time.Second
	// StructuredTimeout bounds flowchart and quiz generation; larger
	// JSON-shaped outputs need the longer budget.
	StructuredTimeout = 60 * time.Second
	// DefaultTimeout applies when a request does not set one.
	DefaultTimeout = 60 * time.Second

	// maxOutputTokens is the output ceiling sent on every request.
	maxOutputTokens = 8192

	// structuredTemperature is used for JSON-shaped generation; lowering it
	// reduces formatting drift. Plain chat leaves the model default.
	structuredTemperature = 0.2

	// maxErrorBodySize caps how much of a failed response is read back.
	maxErrorBodySize int64 = 1 * 1024 * 1024
)

// Request describes one streaming completion call.
type Request struct {
	Target       providers.Target
	APIKey       string
	Model        string
	SystemPrompt string
	History      []core.ChatTurn
	// Structured requests JSON output: lower temperature, and on the
	// Google shape a responseMimeType constraint.
	Structured bool
	// Timeout bounds the wait for response headers. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// Stream opens the streaming call described by req and returns its fragment
// stream. It fails fast — before any network I/O — when the resolved
// provider has no API key configured. The returned stream owns the
// underlying connection; consuming it (fully or by breaking early) releases
// the connection on every path.
func Stream(ctx context.Context, client *http.Client, req Request) (*core.FragmentStream, error) {
	if req.APIKey == "" {
		return nil, core.NewConfigurationError(string(req.Target.Provider))
	}
	if req.Target.Shape == providers.ShapeGoogle {
		return streamGoogle(ctx, client, req)
	}
	return streamOpenAI(ctx, client, req)
}

// openStream issues the HTTP request with the cancellation timer armed.
// The timer fires only while waiting for response headers; it is stopped the
// moment they arrive, after which only the caller's context can abort the
// stream. On a non-2xx status the full error body is read and the call
// fails — a failed response is never streamed.
//
// On success the caller owns resp.Body and must arrange for cancel to run
// when done with it.
func openStream(ctx context.Context, client *http.Client, provider string, timeout time.Duration, newRequest func(context.Context) (*http.Request, error)) (*http.Response, context.Context, context.CancelFunc, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	reqCtx, cancel := context.WithCancel(ctx)
	var timedOut atomic.Bool
	timer := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		cancel()
	})

	httpReq, err := newRequest(reqCtx)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, nil, nil, err
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		timer.Stop()
		cancel()
		if timedOut.Load() {
			return nil, nil, nil, core.NewTimeoutError(provider, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			// External stop-generation signal before headers arrived.
			return nil, nil, nil, ctxErr
		}
		return nil, nil, nil, &core.ChatError{
			Type:     core.ErrorTypeTransport,
			Message:  "failed to send request: " + err.Error(),
			Provider: provider,
			Err:      err,
		}
	}
	timer.Stop()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if readErr != nil {
			body = []byte("failed to read error response")
		}
		_ = resp.Body.Close()
		cancel()
		return nil, nil, nil, core.NewTransportError(provider, resp.StatusCode, string(body))
	}

	return resp, reqCtx, cancel, nil
}

// fragments wraps an open response body as a FragmentStream, decoding
// "data:" lines with the given payload extractor. Lines whose payload does
// not parse — partial JSON, heartbeats — yield an empty extraction and are
// skipped silently; they never abort the stream.
func fragments(reqCtx context.Context, cancel context.CancelFunc, body io.ReadCloser, extract func(string) string) *core.FragmentStream {
	return core.NewFragmentStream(func(yield func(string, error) bool) {
		defer func() {
			cancel()
			_ = body.Close()
		}()

		scanner := sse.NewScanner(body)
		for {
			if err := reqCtx.Err(); err != nil {
				yield("", err)
				return
			}
			payload, err := scanner.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// A read aborted by cancellation surfaces as the context
				// error so the caller sees a distinguishable outcome.
				if ctxErr := reqCtx.Err(); ctxErr != nil {
					yield("", ctxErr)
					return
				}
				yield("", err)
				return
			}
			fragment := extract(payload)
			if fragment == "" {
				continue
			}
			if !yield(fragment, nil) {
				return
			}
		}
	})
}

// openAIDelta extracts the incremental content from an OpenAI-compatible
// stream chunk.
func openAIDelta(payload string) string {
	if !gjson.Valid(payload) {
		return ""
	}
	return gjson.Get(payload, "choices.0.delta.content").String()
}

// googleCandidateText extracts the text part from a Google stream chunk.
func googleCandidateText(payload string) string {
	if !gjson.Valid(payload) {
		return ""
	}
	return gjson.Get(payload, "candidates.0.content.parts.0.text").String()
}
