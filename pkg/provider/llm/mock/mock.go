// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify that the analysis agents send correct
// CompletionRequests and to feed controlled responses without a live backend.
//
// Example:
//
//	p := &mock.Provider{
//	    Response: &llm.CompletionResponse{Content: `[{"title":"Follow up"}]`},
//	}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/parleyhq/parley/pkg/provider/llm"
)

// Compile-time interface check.
var _ llm.Provider = (*Provider)(nil)

// Call records a single invocation of Complete.
type Call struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
// Zero values cause Complete to return an empty response and nil error.
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete when Err is nil. When nil, an empty
	// CompletionResponse is returned.
	Response *llm.CompletionResponse

	// ResponseFunc, when non-nil, computes the response per call and takes
	// precedence over Response. Use it to vary replies by system prompt.
	ResponseFunc func(req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// Err, if non-nil, is returned as the error from Complete.
	Err error

	// Calls records every invocation of Complete in order.
	Calls []Call
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Ctx: ctx, Req: req})
	fn := p.ResponseFunc
	resp := p.Response
	err := p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	if err != nil {
		return nil, err
	}
	if resp != nil {
		out := *resp
		return &out, nil
	}
	return &llm.CompletionResponse{}, nil
}

// CallCount returns how many times Complete was invoked.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
