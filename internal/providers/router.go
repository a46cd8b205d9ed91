package providers

import (
	"strings"

	"tutorchat/internal/core"
)

// matchKind selects how a routing rule compares its patterns against a
// model identifier.
type matchKind int

const (
	matchExact matchKind = iota
	matchPrefix
	matchContains
)

// rule is one entry in the ordered routing table. The first rule whose
// patterns match wins, so order is load-bearing: some identifiers are
// substrings of others.
type rule struct {
	kind     matchKind
	patterns []string
	target   Target
}

// routes is the routing table, built once. The exact-match entry for
// "zai-glm-4.6" must sit above the general "glm" rule: that one model is
// served through Cerebras rather than the native Zhipu endpoint.
var routes = []rule{
	{matchPrefix, []string{"gemini", "gemma"}, Target{Google, googleBaseURL, ShapeGoogle}},
	{matchContains, []string{"mistral", "codestral"}, Target{Mistral, mistralBaseURL, ShapeOpenAI}},
	{matchExact, []string{"zai-glm-4.6"}, Target{Cerebras, cerebrasBaseURL, ShapeOpenAI}},
	{matchContains, []string{"glm"}, Target{Zhipu, zhipuBaseURL, ShapeOpenAI}},
	{matchExact, []string{"openai/gpt-oss-20b"}, Target{Groq, groqBaseURL, ShapeOpenAI}},
	{matchContains, []string{"llama"}, Target{Groq, groqBaseURL, ShapeOpenAI}},
	{matchContains, []string{"gpt-oss-120b", "qwen"}, Target{Cerebras, cerebrasBaseURL, ShapeOpenAI}},
}

// Resolve maps a model identifier to exactly one provider target.
// Resolution is a pure function: the same identifier always yields the same
// target. Unknown identifiers fail with a routing error; there is no
// silent default provider.
func Resolve(model string) (Target, error) {
	for _, r := range routes {
		if r.matches(model) {
			return r.target, nil
		}
	}
	return Target{}, core.NewRoutingError(model)
}

// Supports reports whether any provider serves the given model identifier.
func Supports(model string) bool {
	_, err := Resolve(model)
	return err == nil
}

func (r rule) matches(model string) bool {
	for _, p := range r.patterns {
		switch r.kind {
		case matchExact:
			if model == p {
				return true
			}
		case matchPrefix:
			if strings.HasPrefix(model, p) {
				return true
			}
		case matchContains:
			if strings.Contains(model, p) {
				return true
			}
		}
	}
	return false
}
