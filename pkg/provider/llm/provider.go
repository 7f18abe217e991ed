// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI GPT-4o or an
// Ollama instance) and exposes a uniform completion interface for Parley's
// analysis agents without coupling to any specific SDK. The agents only need
// whole completions — each analysis run sends the full transcript and parses
// one structured reply — so the interface is deliberately non-streaming.
//
// Implementations must be safe for concurrent use; the orchestrator runs the
// three agents against the same provider simultaneously.
package llm

import "context"

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
type CompletionRequest struct {
	// SystemPrompt is a high-priority instruction injected before the
	// conversation. Providers that lack a dedicated system slot prepend it as
	// a "system"-role message.
	SystemPrompt string

	// Messages is the ordered conversation. The last message is typically
	// from the "user" role and drives the response.
	Messages []Message

	// Temperature controls output randomness in [0.0, 2.0]. Zero means use
	// the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means provider
	// default.
	MaxTokens int

	// JSONOnly requests machine-readable JSON output. Providers with a native
	// JSON response mode enable it; others rely on the prompt alone, so
	// callers must still parse defensively.
	JSONOnly bool
}

// CompletionResponse is the model's full reply.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or ctx is cancelled before the
	// response is complete.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
