// Package agent implements Parley's transcript analysis agents.
//
// The three agents (notes, tasks, gaps) share one mechanism: send the full
// accumulated transcript to an LLM with a task-specific instruction, parse
// the structured JSON reply, and atomically replace that artifact kind's
// stored rows for the meeting. They differ only in their [Definition]: the
// instruction, the wrapper keys probed while parsing, and the row mapping.
//
// Agents fail soft. Any external-call or parse failure is logged and counted
// but never propagated, so one agent's failure cannot block another's output
// or disturb the live call.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/parleyhq/parley/internal/meeting"
	"github.com/parleyhq/parley/internal/observe"
	"github.com/parleyhq/parley/pkg/provider/llm"
)

// persistFunc unmarshals the extracted JSON items into rows of one artifact
// kind and replaces the meeting's stored rows. It is called with an empty
// slice when the model returned no items, which clears the kind.
type persistFunc func(ctx context.Context, store meeting.Store, meetingID string, items []json.RawMessage) error

// Definition configures one structured-extraction agent.
type Definition struct {
	// Name identifies the agent in logs and metrics (e.g., "notes").
	Name string

	// Instruction is the fixed system prompt describing the extraction task
	// and the expected JSON shape.
	Instruction string

	// WrapperKeys lists object keys probed, in order, when the model wraps
	// its array in an object instead of returning a top-level array.
	WrapperKeys []string

	// Temperature is the sampling temperature for the LLM call.
	Temperature float64

	// persist maps parsed items onto the artifact's schema and stores them.
	persist persistFunc
}

// Agent runs one structured-extraction definition against transcripts.
type Agent struct {
	def      Definition
	provider llm.Provider
	store    meeting.Store
	metrics  *observe.Metrics
}

// New creates an Agent from a definition, an LLM provider, and a store.
func New(def Definition, provider llm.Provider, store meeting.Store) *Agent {
	return &Agent{
		def:      def,
		provider: provider,
		store:    store,
		metrics:  observe.DefaultMetrics(),
	}
}

// Name returns the agent's definition name.
func (a *Agent) Name() string { return a.def.Name }

// Run analyses transcript and replaces the meeting's stored rows of this
// agent's artifact kind. The returned error is for observability only — the
// caller must not treat it as fatal, and existing rows are left untouched
// unless a valid replacement was parsed.
func (a *Agent) Run(ctx context.Context, meetingID, transcript string) error {
	start := time.Now()
	err := a.run(ctx, meetingID, transcript)
	a.metrics.ObserveAgentRun(ctx, a.def.Name, time.Since(start), err)
	if err != nil {
		slog.Error("agent run failed",
			"agent", a.def.Name, "meeting_id", meetingID, "err", err)
	}
	return err
}

func (a *Agent) run(ctx context.Context, meetingID, transcript string) error {
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: a.def.Instruction,
		Messages: []llm.Message{
			{Role: "user", Content: "Transcript:\n\n" + transcript},
		},
		Temperature: a.def.Temperature,
		JSONOnly:    true,
	})
	if err != nil {
		return fmt.Errorf("agent %s: completion: %w", a.def.Name, err)
	}
	if resp.Content == "" {
		// Nothing returned; keep whatever rows exist.
		return nil
	}

	items, err := extractItems(resp.Content, a.def.WrapperKeys)
	if err != nil {
		// Unparseable reply. Do not delete rows without a valid replacement.
		return fmt.Errorf("agent %s: parse response: %w", a.def.Name, err)
	}

	if err := a.def.persist(ctx, a.store, meetingID, items); err != nil {
		return fmt.Errorf("agent %s: persist: %w", a.def.Name, err)
	}

	slog.Debug("agent run completed",
		"agent", a.def.Name, "meeting_id", meetingID, "rows", len(items))
	return nil
}

// extractItems pulls the result array out of an LLM JSON reply. Models wrap
// their output inconsistently, so the fallback chain is deliberate:
//
//  1. a top-level JSON array;
//  2. an object whose value under one of keys is an array, probed in order;
//  3. any array-valued field of the object;
//  4. otherwise an empty result.
//
// Returns an error only when content is not valid JSON at all.
func extractItems(content string, keys []string) ([]json.RawMessage, error) {
	var top json.RawMessage
	if err := json.Unmarshal([]byte(content), &top); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(top, &items); err == nil {
		return items, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(top, &obj); err != nil {
		return nil, fmt.Errorf("expected array or object, got neither: %w", err)
	}

	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}

	// Last resort: the first array-valued field we find.
	for _, raw := range obj {
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}

	return nil, nil
}
