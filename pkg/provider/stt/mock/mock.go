// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider in unit tests to feed controlled transcription results without
// a live STT backend and to assert on the requests the pipeline issued.
//
// Example:
//
//	p := &mock.Provider{
//	    Result: &stt.Result{Text: "hello world"},
//	}
//	res, err := p.Transcribe(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/parleyhq/parley/pkg/provider/stt"
)

// Compile-time interface check.
var _ stt.Provider = (*Provider)(nil)

// Provider is a mock implementation of stt.Provider.
// Zero values cause Transcribe to return an empty Result and nil error.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Transcribe when Err is nil. When nil, an empty
	// Result is returned.
	Result *stt.Result

	// Results, when non-empty, is consumed one element per Transcribe call
	// (after which Result applies). Use it to script a sequence of batches.
	Results []*stt.Result

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Requests records every request passed to Transcribe, in order.
	Requests []stt.Request
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(_ context.Context, req stt.Request) (*stt.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Requests = append(p.Requests, req)

	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Results) > 0 {
		r := p.Results[0]
		p.Results = p.Results[1:]
		return r, nil
	}
	if p.Result != nil {
		return p.Result, nil
	}
	return &stt.Result{}, nil
}

// CallCount returns how many times Transcribe was invoked.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}
