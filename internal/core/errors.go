package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a failure so the caller (the UI layer) can decide how
// to present it. Decode errors on individual stream lines are recovered
// locally and never reach this taxonomy.
type ErrorType string

const (
	// ErrorTypeConfiguration indicates a missing or empty API key for the
	// resolved provider. Non-retryable until settings change.
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeRouting indicates a model identifier that matches no known
	// provider. Non-retryable without selecting a different model.
	ErrorTypeRouting ErrorType = "routing_error"
	// ErrorTypeInvalidRequest indicates a caller mistake such as an empty
	// conversation history.
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeTransport indicates a non-2xx provider response; the error
	// carries the HTTP status and the raw error body.
	ErrorTypeTransport ErrorType = "transport_error"
	// ErrorTypeTimeout indicates the request exceeded its allotted duration
	// before response headers arrived.
	ErrorTypeTimeout ErrorType = "timeout_error"
	// ErrorTypeQuizStructure indicates quiz output whose JSON shape could
	// not be normalized. The whole batch call fails; no partial quiz.
	ErrorTypeQuizStructure ErrorType = "quiz_structure_error"
)

// ChatError is the base error type for all failures this core surfaces.
// Errors propagate to the immediate caller undecorated; no retries or
// backoff happen below this layer.
type ChatError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface.
func (e *ChatError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status code the HTTP façade should respond
// with for this error.
func (e *ChatError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeConfiguration, ErrorTypeRouting, ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// ToJSON returns the wire representation used in HTTP error responses.
func (e *ChatError) ToJSON() map[string]any {
	inner := map[string]any{
		"type":    string(e.Type),
		"message": e.Message,
	}
	if e.Provider != "" {
		inner["provider"] = e.Provider
	}
	return map[string]any{"error": inner}
}

// NewConfigurationError reports a missing credential for a provider.
// Detected before any network call.
func NewConfigurationError(provider string) *ChatError {
	return &ChatError{
		Type:     ErrorTypeConfiguration,
		Message:  "missing API key for provider " + provider,
		Provider: provider,
	}
}

// NewRoutingError reports a model identifier no provider serves.
func NewRoutingError(model string) *ChatError {
	return &ChatError{
		Type:    ErrorTypeRouting,
		Message: fmt.Sprintf("unsupported model: %q", model),
	}
}

// NewInvalidRequestError reports a caller mistake.
func NewInvalidRequestError(message string) *ChatError {
	return &ChatError{
		Type:    ErrorTypeInvalidRequest,
		Message: message,
	}
}

// NewTransportError reports a non-2xx provider response. The message keeps
// both the status and the raw body so the caller sees what the provider said.
func NewTransportError(provider string, statusCode int, body string) *ChatError {
	return &ChatError{
		Type:       ErrorTypeTransport,
		Message:    fmt.Sprintf("provider returned status %d: %s", statusCode, body),
		StatusCode: statusCode,
		Provider:   provider,
	}
}

// NewTimeoutError reports a request that exceeded its deadline before the
// response headers arrived.
func NewTimeoutError(provider string, err error) *ChatError {
	return &ChatError{
		Type:     ErrorTypeTimeout,
		Message:  "request timed out",
		Provider: provider,
		Err:      err,
	}
}

// NewQuizStructureError reports quiz model output that could not be
// normalized into a question list.
func NewQuizStructureError(message string, err error) *ChatError {
	return &ChatError{
		Type:    ErrorTypeQuizStructure,
		Message: message,
		Err:     err,
	}
}

// IsTimeout reports whether err is (or wraps) a timeout-classified ChatError,
// so the UI can show a specific "timed out" message.
func IsTimeout(err error) bool {
	var ce *ChatError
	return errors.As(err, &ce) && ce.Type == ErrorTypeTimeout
}

// IsConfiguration reports whether err is a missing-credential error.
func IsConfiguration(err error) bool {
	var ce *ChatError
	return errors.As(err, &ce) && ce.Type == ErrorTypeConfiguration
}

// IsRouting reports whether err is an unsupported-model error.
func IsRouting(err error) bool {
	var ce *ChatError
	return errors.As(err, &ce) && ce.Type == ErrorTypeRouting
}
