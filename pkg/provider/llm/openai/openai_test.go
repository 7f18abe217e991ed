package openai

import (
	"testing"

	"github.com/parleyhq/parley/pkg/provider/llm"
)

// TestNew_MissingAPIKey ensures constructor rejects an empty API key.
func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New("", "gpt-4o-mini")
	if err == nil {
		t.Fatal("expected error for empty API key")
	}
}

// TestNew_MissingModel ensures constructor rejects an empty model.
func TestNew_MissingModel(t *testing.T) {
	_, err := New("sk-test", "")
	if err == nil {
		t.Fatal("expected error for empty model")
	}
}

// TestNew_Options checks that optional settings are accepted without error.
func TestNew_Options(t *testing.T) {
	_, err := New("sk-test", "gpt-4o-mini",
		WithBaseURL("https://custom.example.com"),
		WithOrganization("org-123"),
	)
	if err != nil {
		t.Fatalf("unexpected error with valid options: %v", err)
	}
}

// TestBuildParams_SystemPromptFirst checks that the system prompt is prepended
// before the conversation messages.
func TestBuildParams_SystemPromptFirst(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You are helpful.",
		Messages: []llm.Message{
			{Role: "user", Content: "Hello!"},
		},
	})

	if got := len(params.Messages); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("expected first message to be a system message")
	}
	if params.Messages[1].OfUser == nil {
		t.Error("expected second message to be a user message")
	}
	if params.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", params.Model)
	}
}

// TestBuildParams_RoleMapping checks conversion of all supported roles.
func TestBuildParams_RoleMapping(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "a"},
			{Role: "assistant", Content: "b"},
			{Role: "user", Content: "c"},
		},
	})

	if got := len(params.Messages); got != 3 {
		t.Fatalf("expected 3 messages, got %d", got)
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("expected OfSystem to be set")
	}
	if params.Messages[1].OfAssistant == nil {
		t.Error("expected OfAssistant to be set")
	}
	if params.Messages[2].OfUser == nil {
		t.Error("expected OfUser to be set")
	}
}

// TestBuildParams_Temperature checks that a non-zero temperature is forwarded
// and zero is left to the provider default.
func TestBuildParams_Temperature(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	params := p.buildParams(llm.CompletionRequest{Temperature: 0.3})
	if !params.Temperature.Valid() || params.Temperature.Value != 0.3 {
		t.Errorf("temperature = %+v, want 0.3", params.Temperature)
	}

	params = p.buildParams(llm.CompletionRequest{})
	if params.Temperature.Valid() {
		t.Error("zero temperature should not be forwarded")
	}
}

// TestBuildParams_MaxTokens checks the completion token cap.
func TestBuildParams_MaxTokens(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(llm.CompletionRequest{MaxTokens: 512})
	if !params.MaxCompletionTokens.Valid() || params.MaxCompletionTokens.Value != 512 {
		t.Errorf("max completion tokens = %+v, want 512", params.MaxCompletionTokens)
	}
}

// TestBuildParams_JSONOnly checks that JSONOnly enables the JSON-object
// response format.
func TestBuildParams_JSONOnly(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	params := p.buildParams(llm.CompletionRequest{JSONOnly: true})
	if params.ResponseFormat.OfJSONObject == nil {
		t.Error("expected JSON object response format")
	}

	params = p.buildParams(llm.CompletionRequest{})
	if params.ResponseFormat.OfJSONObject != nil {
		t.Error("response format should be unset by default")
	}
}
