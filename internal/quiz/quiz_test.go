package quiz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tutorchat/internal/core"
	"tutorchat/internal/providers"
)

func sampleHistory() []core.ChatTurn {
	return []core.ChatTurn{
		{Role: core.RoleUser, Content: "What is photosynthesis?"},
		{Role: core.RoleAssistant, Content: "It is how plants convert light into chemical energy."},
	}
}

func googleResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}],"role":"model"}}]}`, text)
}

func TestGenerateRequiresGoogleKey(t *testing.T) {
	g := NewGenerator()
	_, err := g.Generate(context.Background(), providers.Credentials{providers.Groq: "k"}, sampleHistory())
	if !core.IsConfiguration(err) {
		t.Fatalf("error = %v, want configuration error", err)
	}
}

func TestGenerateRequiresTwoTurns(t *testing.T) {
	g := NewGenerator()
	keys := providers.Credentials{providers.Google: "g-key"}

	_, err := g.Generate(context.Background(), keys, nil)
	var chatErr *core.ChatError
	if !errors.As(err, &chatErr) || chatErr.Type != core.ErrorTypeInvalidRequest {
		t.Fatalf("empty history error = %v, want invalid request", err)
	}

	_, err = g.Generate(context.Background(), keys, sampleHistory()[:1])
	if !errors.As(err, &chatErr) || chatErr.Type != core.ErrorTypeInvalidRequest {
		t.Fatalf("single-turn error = %v, want invalid request", err)
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	quizJSON := `[{"question":"What do plants convert light into?","options":["Sound","Chemical energy","Heat","Motion"],"answer":"B","explanation":"Photosynthesis stores light energy chemically."}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash") {
			t.Errorf("path = %q, want fixed quiz model", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, googleResponse(quizJSON))
	}))
	defer server.Close()

	g := NewGenerator(WithHTTPClient(server.Client()), WithBaseURL(server.URL))
	questions, err := g.Generate(context.Background(), providers.Credentials{providers.Google: "g-key"}, sampleHistory())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	if questions[0].CorrectAnswer != 1 {
		t.Errorf("CorrectAnswer = %d, want 1 (letter B)", questions[0].CorrectAnswer)
	}
}

func TestGenerateStructureErrorOnGarbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, googleResponse("I cannot generate a quiz right now, sorry!"))
	}))
	defer server.Close()

	g := NewGenerator(WithHTTPClient(server.Client()), WithBaseURL(server.URL))
	_, err := g.Generate(context.Background(), providers.Credentials{providers.Google: "g-key"}, sampleHistory())
	var chatErr *core.ChatError
	if !errors.As(err, &chatErr) || chatErr.Type != core.ErrorTypeQuizStructure {
		t.Fatalf("error = %v, want quiz structure error", err)
	}
}

func TestBuildPromptTruncatesTranscript(t *testing.T) {
	long := strings.Repeat("a", 10000)
	history := []core.ChatTurn{
		{Role: core.RoleUser, Content: long},
		{Role: core.RoleAssistant, Content: long},
	}
	prompt := buildPrompt(history)
	transcript := strings.TrimSuffix(strings.TrimPrefix(prompt, quizPromptHeader), "---END---\n")
	if len(transcript) > maxTranscriptChars {
		t.Fatalf("transcript length = %d, want <= %d", len(transcript), maxTranscriptChars)
	}
	if !strings.HasPrefix(transcript, "Student: ") {
		t.Errorf("transcript should keep the leading turns, got %q", transcript[:20])
	}
}

func TestBuildPromptSpeakerLabels(t *testing.T) {
	prompt := buildPrompt(sampleHistory())
	if !strings.Contains(prompt, "Student: What is photosynthesis?") {
		t.Error("user turn missing Student label")
	}
	if !strings.Contains(prompt, "Tutor: It is how plants convert light") {
		t.Error("assistant turn missing Tutor label")
	}
}
