package chat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTutorMode is used when the selected mode is empty or unknown.
const DefaultTutorMode = "standard"

// FlowchartSystemPrompt instructs raw-JSON-only flowchart output. Flowchart
// generation always uses this fixed prompt, never a tutor-mode one.
const FlowchartSystemPrompt = `You are a flowchart generator. Convert the explanation the student asks about into a flowchart.
Respond with raw JSON only: a single object with a "nodes" array and an "edges" array.
Each node has "id", "label", and "type" ("start", "end", "process", or "decision").
Each edge has "from", "to", and an optional "label".
Do not wrap the JSON in markdown fences. Do not add commentary before or after the JSON.`

// builtinPrompts are the tutor-mode system prompt templates shipped with
// the binary. A YAML prompts file can override or extend them.
var builtinPrompts = map[string]string{
	"standard": "You are a patient, knowledgeable tutor. Explain concepts clearly, check the student's understanding with short follow-up questions, and correct mistakes gently.",
	"socratic": "You are a Socratic tutor. Never hand the student the answer directly; guide them there with a sequence of probing questions, one at a time, building on each of their replies.",
	"exam":     "You are an exam coach. Keep answers tight and structured, emphasize what is likely to be tested, and point out common traps and mark-losing mistakes.",
	"eli5":     "You are a tutor who explains everything as if to a curious twelve-year-old. Use everyday analogies, short sentences, and no jargon without immediately unpacking it.",
}

// PromptSet resolves tutor-mode keys to system prompt templates.
type PromptSet struct {
	modes map[string]string
}

// DefaultPrompts returns the built-in tutor-mode templates.
func DefaultPrompts() *PromptSet {
	modes := make(map[string]string, len(builtinPrompts))
	for k, v := range builtinPrompts {
		modes[k] = v
	}
	return &PromptSet{modes: modes}
}

// LoadPrompts reads a YAML file of mode → prompt overrides and merges it
// over the built-in templates. File entries win.
//
// Expected shape:
//
//	modes:
//	  standard: "..."
//	  socratic: "..."
func LoadPrompts(path string) (*PromptSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var file struct {
		Modes map[string]string `yaml:"modes"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prompts file: %w", err)
	}

	set := DefaultPrompts()
	for mode, prompt := range file.Modes {
		if prompt != "" {
			set.modes[mode] = prompt
		}
	}
	return set, nil
}

// ForMode returns the system prompt for the given tutor mode, falling back
// to the standard template when the key is empty or unknown.
func (p *PromptSet) ForMode(mode string) string {
	if prompt, ok := p.modes[mode]; ok {
		return prompt
	}
	return p.modes[DefaultTutorMode]
}
