package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorchat/internal/chat"
	"tutorchat/internal/providers"
	"tutorchat/internal/quiz"
)

// rewriteTransport redirects every outbound request to the fake provider
// server so the service can use real routing against a local endpoint.
type rewriteTransport struct{ host string }

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rewritten := *req
	u := *req.URL
	u.Scheme = "http"
	u.Host = rt.host
	rewritten.URL = &u
	return http.DefaultTransport.RoundTrip(&rewritten)
}

// newTestServer wires a full server against a fake provider that streams
// the given fragments for chat calls and returns quizJSON for quiz calls.
func newTestServer(t *testing.T, cfg *Config, fragments []string, quizJSON string) *Server {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":generateContent") {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}],"role":"model"}}]}`, quizJSON)
			return
		}
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, fragment := range fragments {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", fragment)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	t.Cleanup(provider.Close)

	host := provider.URL[len("http://"):]
	client := &http.Client{Transport: rewriteTransport{host: host}}

	service := chat.New(chat.WithHTTPClient(client))
	generator := quiz.NewGenerator(quiz.WithHTTPClient(http.DefaultClient), quiz.WithBaseURL(provider.URL))
	defaults := chat.Settings{
		Model:     "llama-3.3-70b-versatile",
		TutorMode: "standard",
		Keys: providers.Credentials{
			providers.Groq:   "groq-key",
			providers.Google: "google-key",
		},
	}
	handler := NewHandler(service, generator, defaults, nil)
	return New(handler, cfg)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChatStreamEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, []string{"Hello", " world"}, "")

	body := strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `data: {"content":"Hello"}`)
	assert.Contains(t, rec.Body.String(), `data: {"content":" world"}`)
	assert.Contains(t, rec.Body.String(), "data: [DONE]")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestChatStreamUnknownModel(t *testing.T) {
	srv := newTestServer(t, nil, nil, "")

	body := strings.NewReader(`{"messages":[{"role":"user","content":"hi"}],"model":"gpt-4o"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "routing_error")
}

func TestChatStreamEmptyHistory(t *testing.T) {
	srv := newTestServer(t, nil, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request_error")
}

func TestFlowchartStreamEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, []string{`{"nodes":[],"edges":[]}`}, "")

	body := strings.NewReader(`{"messages":[{"role":"user","content":"draw recursion"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/flowchart/stream", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nodes`)
}

func TestQuizEndpoint(t *testing.T) {
	quizJSON := `[{"question":"Q","options":["a","b","c","d"],"answer":"b","explanation":"e"}]`
	srv := newTestServer(t, nil, nil, quizJSON)

	body := strings.NewReader(`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/quiz", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"correctAnswer":1`)
}

func TestQuizEndpointTooFewTurns(t *testing.T) {
	srv := newTestServer(t, nil, nil, "")

	body := strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/quiz", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProvidersEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"google":true`)
	assert.Contains(t, rec.Body.String(), `"mistral":false`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &Config{MetricsEnabled: true}, nil, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, &Config{MasterKey: "secret", MetricsEnabled: true}, []string{"ok"}, "")

	tests := []struct {
		name       string
		path       string
		method     string
		authHeader string
		wantStatus int
	}{
		{"missing header", "/v1/providers", http.MethodGet, "", http.StatusUnauthorized},
		{"wrong scheme", "/v1/providers", http.MethodGet, "Basic secret", http.StatusUnauthorized},
		{"wrong key", "/v1/providers", http.MethodGet, "Bearer nope", http.StatusUnauthorized},
		{"correct key", "/v1/providers", http.MethodGet, "Bearer secret", http.StatusOK},
		{"health is public", "/health", http.MethodGet, "", http.StatusOK},
		{"metrics is public", "/metrics", http.MethodGet, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv := newTestServer(t, nil, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-ID"))
}
