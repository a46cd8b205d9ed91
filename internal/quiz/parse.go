package quiz

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"tutorchat/internal/core"
)

// optionCount is the required number of options per question; short option
// lists are padded and long ones truncated during normalization.
const optionCount = 4

// rawQuestion is the wire-shape question before normalization. The answer
// arrives as free text (the option itself or a letter), not an index.
type rawQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Parse normalizes a model response into quiz questions. It tolerates the
// three top-level shapes models actually produce — a bare array, an object
// with a "questions" key, and an object with a "quiz" key — plus markdown
// code fences and minor JSON damage. An empty or unrecognizable response is
// a structure error; the caller gets no partial quiz.
func Parse(raw string) ([]Question, error) {
	text := stripCodeFences(raw)
	if strings.TrimSpace(text) == "" {
		return nil, core.NewQuizStructureError("model returned an empty response", nil)
	}

	rawQuestions, err := decodeQuestions(text)
	if err != nil {
		// The model occasionally emits truncated or mildly broken JSON;
		// repair once and retry before giving up.
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return nil, core.NewQuizStructureError("model response is not valid JSON", err)
		}
		rawQuestions, err = decodeQuestions(repaired)
		if err != nil {
			return nil, core.NewQuizStructureError("model response is not valid JSON", err)
		}
	}
	if len(rawQuestions) == 0 {
		return nil, core.NewQuizStructureError("model response contains no questions", nil)
	}

	questions := make([]Question, 0, len(rawQuestions))
	for _, rq := range rawQuestions {
		questions = append(questions, normalize(rq))
	}
	return questions, nil
}

// decodeQuestions tries the accepted top-level shapes in order.
func decodeQuestions(text string) ([]rawQuestion, error) {
	var bare []rawQuestion
	if err := json.Unmarshal([]byte(text), &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Questions []rawQuestion `json:"questions"`
		Quiz      []rawQuestion `json:"quiz"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Questions != nil {
		return wrapped.Questions, nil
	}
	if wrapped.Quiz != nil {
		return wrapped.Quiz, nil
	}
	return nil, core.NewQuizStructureError("no questions array found in response", nil)
}

// normalize fills placeholder fields, pads or trims the option list to four
// entries, and resolves the free-text answer to an option index.
func normalize(rq rawQuestion) Question {
	q := Question{
		Question:    strings.TrimSpace(rq.Question),
		Options:     make([]string, 0, optionCount),
		Explanation: strings.TrimSpace(rq.Explanation),
	}
	if q.Question == "" {
		q.Question = "Question unavailable"
	}
	if q.Explanation == "" {
		q.Explanation = "No explanation provided."
	}

	for _, opt := range rq.Options {
		if len(q.Options) == optionCount {
			break
		}
		q.Options = append(q.Options, opt)
	}
	for len(q.Options) < optionCount {
		q.Options = append(q.Options, "N/A")
	}

	q.CorrectAnswer = resolveAnswerIndex(rq.Answer, q.Options)
	return q
}

// resolveAnswerIndex maps a free-text answer to an option index: exact match
// first, then case-insensitive trimmed match, then a single letter A-D read
// positionally. Anything else falls back to the first option rather than
// failing the quiz.
func resolveAnswerIndex(answer string, options []string) int {
	for i, opt := range options {
		if opt == answer {
			return i
		}
	}

	folded := strings.ToLower(strings.TrimSpace(answer))
	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == folded {
			return i
		}
	}

	if len(folded) == 1 {
		if idx := int(folded[0] - 'a'); idx >= 0 && idx < len(options) {
			return idx
		}
	}

	return 0
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, when the model ignores the raw-JSON instruction.
func stripCodeFences(s string) string {
	text := strings.TrimSpace(s)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(text[:idx])
		// A language tag like "json" occupies the rest of the fence line.
		if firstLine == "" || !strings.ContainsAny(firstLine, "{[") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
