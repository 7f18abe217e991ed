package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/parleyhq/parley/pkg/provider/llm"
)

// ── constructors ──────────────────────────────────────────────────────────────

// TestNew_EmptyProviderName checks that an empty provider name is rejected.
func TestNew_EmptyProviderName(t *testing.T) {
	_, err := New("", "gpt-4o-mini")
	if err == nil {
		t.Fatal("expected error for empty provider name")
	}
}

// TestNew_EmptyModel checks that an empty model is rejected.
func TestNew_EmptyModel(t *testing.T) {
	_, err := New("openai", "")
	if err == nil {
		t.Fatal("expected error for empty model")
	}
}

// TestNew_UnsupportedProvider checks the error for unknown backends.
func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New("fakecloud", "some-model", anyllmlib.WithAPIKey("dummy"))
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

// TestNew_OpenAI_WithAPIKey checks construction with an explicit key.
func TestNew_OpenAI_WithAPIKey(t *testing.T) {
	p, err := New("openai", "gpt-4o-mini", anyllmlib.WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", p.model)
	}
}

// TestNew_Ollama_NoAPIKey checks that Ollama works without credentials.
func TestNew_Ollama_NoAPIKey(t *testing.T) {
	if _, err := NewOllama("llama3.2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestNew_CaseInsensitiveProviderName checks provider name normalisation.
func TestNew_CaseInsensitiveProviderName(t *testing.T) {
	if _, err := New("OpenAI", "gpt-4o-mini", anyllmlib.WithAPIKey("sk-test")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ── buildParams ───────────────────────────────────────────────────────────────

// TestBuildParams_SystemPromptFirst checks that the system prompt is prepended
// as a system-role message before the conversation.
func TestBuildParams_SystemPromptFirst(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You are helpful.",
		Messages: []llm.Message{
			{Role: "user", Content: "Hello!"},
		},
	})

	if params.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem {
		t.Errorf("expected first role system, got %q", params.Messages[0].Role)
	}
	if params.Messages[1].Role != "user" {
		t.Errorf("expected second role user, got %q", params.Messages[1].Role)
	}
}

// TestBuildParams_Temperature checks temperature forwarding.
func TestBuildParams_Temperature(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	params := p.buildParams(llm.CompletionRequest{Temperature: 0.2})
	if params.Temperature == nil || *params.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", params.Temperature)
	}

	params = p.buildParams(llm.CompletionRequest{})
	if params.Temperature != nil {
		t.Error("expected nil temperature for zero value")
	}
}

// TestBuildParams_MaxTokens checks the completion token cap.
func TestBuildParams_MaxTokens(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	params := p.buildParams(llm.CompletionRequest{MaxTokens: 256})
	if params.MaxTokens == nil || *params.MaxTokens != 256 {
		t.Errorf("expected max tokens 256, got %v", params.MaxTokens)
	}

	params = p.buildParams(llm.CompletionRequest{})
	if params.MaxTokens != nil {
		t.Error("expected nil max tokens for zero value")
	}
}
