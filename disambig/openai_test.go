package disambig

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

var sampleCandidates = []Candidate{
	{ID: "4:abc:1", Name: "Remcos"},
	{ID: "4:abc:2", Name: "Remshell"},
}

// newResolverServer fakes the chat completions endpoint, answering every
// request with the given message content.
func newResolverServer(t *testing.T, content string) (*httptest.Server, *OpenAI) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	resolver, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	return server, resolver
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI(Config{})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestResolve_Match(t *testing.T) {
	_, resolver := newResolverServer(t,
		`{"is_match": true, "matched_id": "4:abc:1", "normalized_name": "Remcos"}`)

	res, err := resolver.Resolve(context.Background(), "RemcosRAT", "Malware", sampleCandidates)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.IsMatch {
		t.Fatal("expected a match")
	}
	if res.MatchedID != "4:abc:1" {
		t.Errorf("MatchedID = %q, want 4:abc:1", res.MatchedID)
	}
	if res.NormalizedName != "Remcos" {
		t.Errorf("NormalizedName = %q, want Remcos", res.NormalizedName)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	_, resolver := newResolverServer(t, `{"is_match": false}`)

	res, err := resolver.Resolve(context.Background(), "Qakbot", "Malware", sampleCandidates)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.IsMatch {
		t.Fatal("expected no match")
	}
}

func TestResolve_FillsNameFromCandidate(t *testing.T) {
	_, resolver := newResolverServer(t,
		`{"is_match": true, "matched_id": "4:abc:2"}`)

	res, err := resolver.Resolve(context.Background(), "Remshell v2", "Malware", sampleCandidates)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.NormalizedName != "Remshell" {
		t.Errorf("NormalizedName = %q, want candidate name Remshell", res.NormalizedName)
	}
}

func TestResolve_RejectsInventedID(t *testing.T) {
	_, resolver := newResolverServer(t,
		`{"is_match": true, "matched_id": "4:abc:999", "normalized_name": "Ghost"}`)

	_, err := resolver.Resolve(context.Background(), "Remcos", "Malware", sampleCandidates)
	if err == nil {
		t.Fatal("expected error for invented candidate ID")
	}
}

func TestResolve_StripsCodeFences(t *testing.T) {
	_, resolver := newResolverServer(t,
		"```json\n{\"is_match\": true, \"matched_id\": \"4:abc:1\"}\n```")

	res, err := resolver.Resolve(context.Background(), "RemcosRAT", "Malware", sampleCandidates)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.IsMatch {
		t.Fatal("expected a match through fenced JSON")
	}
}

func TestResolve_MalformedJSON(t *testing.T) {
	_, resolver := newResolverServer(t, `maybe?`)

	_, err := resolver.Resolve(context.Background(), "Remcos", "Malware", sampleCandidates)
	if err == nil {
		t.Fatal("expected error for malformed verdict")
	}
}

func TestResolve_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	resolver, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	_, err = resolver.Resolve(context.Background(), "Remcos", "Malware", sampleCandidates)
	if err == nil {
		t.Fatal("expected API error")
	}
}

func TestResolve_EmptyCandidates(t *testing.T) {
	resolver, err := NewOpenAI(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	// No candidates means no call and no match.
	res, err := resolver.Resolve(context.Background(), "Remcos", "Malware", nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.IsMatch {
		t.Fatal("expected no match without candidates")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("RemcosRAT", "Malware", sampleCandidates)

	for _, want := range []string{"RemcosRAT", "Malware", "Remcos (ID: 4:abc:1)", "Remshell (ID: 4:abc:2)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
