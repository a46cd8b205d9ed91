// Package core provides the shared types and error taxonomy for the
// tutoring chat backend.
package core

// Chat roles as they appear on the OpenAI-compatible wire. The Google
// endpoint names the assistant role "model"; that remapping happens in the
// transport layer, never here.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is a single message in a conversation. Turns are immutable once
// constructed; an ordered slice of them forms the history passed into each
// request. Position in the slice is the only identity a turn has.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
