// Package providers maps model identifiers onto the five supported LLM
// vendors. Resolution is pure: no network I/O, no shared state.
package providers

// Provider identifies one of the supported LLM vendors.
type Provider string

const (
	Google   Provider = "google"
	Mistral  Provider = "mistral"
	Groq     Provider = "groq"
	Cerebras Provider = "cerebras"
	Zhipu    Provider = "zhipu"
)

// Shape identifies the request/response wire format a provider speaks.
type Shape int

const (
	// ShapeOpenAI is the OpenAI-compatible chat completions format:
	// bearer auth, {model, messages, stream, max_tokens, temperature},
	// SSE "data:" lines terminated by a [DONE] sentinel.
	ShapeOpenAI Shape = iota
	// ShapeGoogle is the Google Generative Language format: API key in the
	// URL query string, {contents:[{role, parts:[{text}]}]}, SSE "data:"
	// lines with no terminating sentinel.
	ShapeGoogle
)

// Target is the outcome of routing a model identifier: which vendor to call,
// where, and in which wire format.
type Target struct {
	Provider Provider
	BaseURL  string
	Shape    Shape
}

// Credentials holds one opaque API key per provider for the lifetime of a
// session. A key may be empty; routing still succeeds, and the transport
// fails fast with a configuration error before any network call.
type Credentials map[Provider]string

// Key returns the API key configured for p, or "" if absent.
func (c Credentials) Key(p Provider) string {
	if c == nil {
		return ""
	}
	return c[p]
}

// Default production endpoints. Tests point targets at httptest servers
// instead.
const (
	googleBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	mistralBaseURL  = "https://api.mistral.ai/v1"
	groqBaseURL     = "https://api.groq.com/openai/v1"
	cerebrasBaseURL = "https://api.cerebras.ai/v1"
	zhipuBaseURL    = "https://open.bigmodel.cn/api/paas/v4"
)
