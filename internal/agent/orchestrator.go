package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/parleyhq/parley/internal/meeting"
	"github.com/parleyhq/parley/pkg/provider/llm"
)

// Runner triggers analysis over a meeting's accumulated transcript.
// [*Orchestrator] is the production implementation.
type Runner interface {
	RunAll(ctx context.Context, meetingID, transcript string)
}

// NopRunner satisfies [Runner] without doing anything. Used when no LLM
// provider is configured, so calls are still transcribed and persisted but
// never analysed.
type NopRunner struct{}

var _ Runner = NopRunner{}

// RunAll implements [Runner] as a no-op.
func (NopRunner) RunAll(context.Context, string, string) {}

// Orchestrator fans the transcript out to all analysis agents in parallel
// and waits for every one to finish. Agents are isolated: a failing agent
// is logged and counted, never propagated, and never blocks its siblings.
type Orchestrator struct {
	agents []*Agent
}

var _ Runner = (*Orchestrator)(nil)

// NewOrchestrator builds the standard agent set (notes, tasks, gaps) over
// one LLM provider and one store.
func NewOrchestrator(provider llm.Provider, store meeting.Store) *Orchestrator {
	defs := []Definition{NotesDefinition(), TasksDefinition(), GapsDefinition()}
	agents := make([]*Agent, 0, len(defs))
	for _, def := range defs {
		agents = append(agents, New(def, provider, store))
	}
	return &Orchestrator{agents: agents}
}

// RunAll runs every agent against transcript and blocks until all complete.
// A blank transcript is a no-op. Each agent replaces its own artifact kind,
// so concurrent runs do not contend on rows.
func (o *Orchestrator) RunAll(ctx context.Context, meetingID, transcript string) {
	if strings.TrimSpace(transcript) == "" {
		return
	}

	slog.Debug("analysis pass starting",
		"meeting_id", meetingID, "agents", len(o.agents), "transcript_len", len(transcript))

	var wg sync.WaitGroup
	for _, a := range o.agents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Run logs and records its own failures.
			_ = a.Run(ctx, meetingID, transcript)
		}()
	}
	wg.Wait()
}
