package stream

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/agent"
	"github.com/parleyhq/parley/internal/audio"
	"github.com/parleyhq/parley/internal/meeting"
	"github.com/parleyhq/parley/internal/observe"
	"github.com/parleyhq/parley/internal/transcribe"
)

// DefaultAnalysisInterval is how often the analysis agents run while a call
// is live.
const DefaultAnalysisInterval = 30 * time.Second

// DefaultUserID owns meetings created from unauthenticated calls.
const DefaultUserID = "00000000-0000-0000-0000-000000000000"

// State is the lifecycle phase of a media-stream session.
type State string

const (
	StateCreated State = "created"
	StateStarted State = "started"
	StateActive  State = "active"
	StateStopped State = "stopped"
)

// Config carries the collaborators and tuning for one [Session].
type Config struct {
	Store       meeting.Store
	Transcriber *transcribe.Client

	// Runner performs the transcript analysis passes. Nil means no analysis
	// ([agent.NopRunner]).
	Runner agent.Runner

	// UserID owns the created meeting. Defaults to [DefaultUserID].
	UserID string

	// BatchChunks overrides [audio.DefaultBatchChunks] when positive.
	BatchChunks int

	// AnalysisInterval overrides [DefaultAnalysisInterval] when positive.
	AnalysisInterval time.Duration

	// Format describes the incoming audio. Zero value means
	// [audio.DefaultFormat] (8 kHz mono mu-law, the telephony default).
	Format audio.Format

	Metrics *observe.Metrics
}

// Session is the server-side state for one live call's media stream. One
// Session is created per WebSocket connection and fed decoded events in
// connection order. Events arrive from a single reader goroutine; the mutex
// exists because the analysis ticker reads the transcript concurrently.
//
// When meeting creation fails the session runs degraded: audio keeps being
// consumed so the stream stays healthy, but nothing is persisted and no
// analysis runs.
type Session struct {
	store       meeting.Store
	transcriber *transcribe.Client
	runner      agent.Runner
	metrics     *observe.Metrics
	userID      string
	interval    time.Duration

	mu         sync.Mutex
	state      State
	callSID    string
	streamSID  string
	meetingID  string
	batcher    *audio.Batcher
	transcript []string

	cancelAnalysis context.CancelFunc
}

// NewSession creates a Session in [StateCreated].
func NewSession(cfg Config) *Session {
	userID := cfg.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	interval := cfg.AnalysisInterval
	if interval <= 0 {
		interval = DefaultAnalysisInterval
	}
	batchChunks := cfg.BatchChunks
	if batchChunks <= 0 {
		batchChunks = audio.DefaultBatchChunks
	}
	format := cfg.Format
	if format == (audio.Format{}) {
		format = audio.DefaultFormat
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = agent.NopRunner{}
	}
	return &Session{
		store:       cfg.Store,
		transcriber: cfg.Transcriber,
		runner:      runner,
		metrics:     metrics,
		userID:      userID,
		interval:    interval,
		state:       StateCreated,
		batcher:     audio.NewBatcher(batchChunks, format),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MeetingID returns the meeting created for this session, or "" when the
// session is degraded or not yet started.
func (s *Session) MeetingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meetingID
}

// HandleRaw decodes one WebSocket message and dispatches it. Malformed
// messages are logged and skipped so one bad frame cannot kill the call.
func (s *Session) HandleRaw(ctx context.Context, data []byte) {
	ev, err := DecodeEvent(data)
	if err != nil {
		slog.Warn("skipping malformed stream message", "err", err)
		return
	}
	if err := s.Handle(ctx, ev); err != nil {
		slog.Error("stream event failed",
			"event", ev.Event, "call_sid", s.callSID, "err", err)
	}
}

// Handle dispatches one decoded protocol event.
func (s *Session) Handle(ctx context.Context, ev *Event) error {
	s.metrics.RecordStreamEvent(ctx, ev.Event)

	switch ev.Event {
	case EventConnected:
		slog.Info("media stream protocol connected")
		return nil
	case EventStart:
		if ev.Start == nil {
			return fmt.Errorf("stream: start event without payload")
		}
		return s.handleStart(ctx, ev.StreamSID, ev.Start)
	case EventMedia:
		if ev.Media == nil {
			return fmt.Errorf("stream: media event without payload")
		}
		return s.handleMedia(ctx, ev.Media)
	case EventStop:
		return s.handleStop(ctx)
	default:
		slog.Debug("ignoring unknown stream event", "event", ev.Event)
		return nil
	}
}

func (s *Session) handleStart(ctx context.Context, streamSID string, start *StartPayload) error {
	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return fmt.Errorf("stream: start in state %s", s.state)
	}
	s.state = StateStarted
	s.callSID = start.CallSID
	s.streamSID = streamSID
	s.mu.Unlock()

	s.metrics.ActiveStreams.Add(ctx, 1)
	slog.Info("media stream started", "call_sid", start.CallSID, "stream_sid", streamSID)

	m, err := s.store.CreateMeeting(ctx, meeting.Meeting{
		Title:   "Call " + shortSID(start.CallSID),
		CallSID: start.CallSID,
		UserID:  s.userID,
		Status:  meeting.StatusInProgress,
	})
	if err != nil {
		// Degraded: keep consuming audio, never persist or analyse.
		slog.Error("meeting creation failed, session degraded",
			"call_sid", start.CallSID, "err", err)
	} else {
		s.mu.Lock()
		s.meetingID = m.ID
		s.mu.Unlock()
		slog.Info("meeting created", "meeting_id", m.ID, "call_sid", start.CallSID)
	}

	s.startAnalysisLoop(ctx)
	return nil
}

// startAnalysisLoop runs the agents every interval while the call is live.
// The loop outlives the start event's request scope but dies with the
// session, so it detaches from ctx's cancellation.
func (s *Session) startAnalysisLoop(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.cancelAnalysis = cancel
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				meetingID, transcript := s.snapshot()
				if meetingID == "" || transcript == "" {
					continue
				}
				s.runner.RunAll(loopCtx, meetingID, transcript)
			}
		}
	}()
}

func (s *Session) handleMedia(ctx context.Context, media *MediaPayload) error {
	s.mu.Lock()
	switch s.state {
	case StateStarted:
		s.state = StateActive
	case StateActive:
	default:
		s.mu.Unlock()
		return fmt.Errorf("stream: media in state %s", s.state)
	}
	s.mu.Unlock()

	chunk, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil {
		slog.Warn("skipping undecodable media payload",
			"call_sid", s.callSID, "err", err)
		return nil
	}

	s.mu.Lock()
	payload, ok := s.batcher.Ingest(chunk)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.transcribeBatch(ctx, payload, media.Track)
	return nil
}

// transcribeBatch sends one batched audio payload for transcription and,
// when a meeting exists, persists the segment and extends the transcript.
func (s *Session) transcribeBatch(ctx context.Context, payload []byte, track string) {
	seg := s.transcriber.Transcribe(ctx, payload, track)
	if seg == nil {
		return
	}

	s.mu.Lock()
	meetingID := s.meetingID
	if meetingID != "" {
		s.transcript = append(s.transcript, seg.Content)
	}
	s.mu.Unlock()
	if meetingID == "" {
		return
	}

	seg.MeetingID = meetingID
	if err := s.store.InsertSegment(ctx, *seg); err != nil {
		slog.Error("segment insert failed",
			"meeting_id", meetingID, "err", err)
		return
	}
	s.metrics.Segments.Add(ctx, 1)
}

func (s *Session) handleStop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	prev := s.state
	s.state = StateStopped
	cancel := s.cancelAnalysis
	remainder := s.batcher.Flush()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if prev == StateStarted || prev == StateActive {
		s.metrics.ActiveStreams.Add(ctx, -1)
	}
	slog.Info("media stream stopped", "call_sid", s.callSID)

	// The connection may drop right after stop; finish with our own deadline.
	finCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer done()

	if remainder != nil {
		s.transcribeBatch(finCtx, remainder, TrackInbound)
	}

	meetingID, transcript := s.snapshot()
	if meetingID == "" {
		return nil
	}
	if transcript != "" {
		s.runner.RunAll(finCtx, meetingID, transcript)
	}
	if _, err := s.store.CompleteMeeting(finCtx, meetingID); err != nil {
		return fmt.Errorf("stream: complete meeting: %w", err)
	}
	slog.Info("meeting completed", "meeting_id", meetingID)
	return nil
}

// Close releases the session after the WebSocket goes away. If the peer
// disconnected without a stop event the analysis loop is torn down but the
// meeting is left in progress for the status callback to reconcile.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	stopped := s.state == StateStopped
	cancel := s.cancelAnalysis
	live := s.state == StateStarted || s.state == StateActive
	if !stopped {
		s.state = StateStopped
	}
	s.mu.Unlock()

	if stopped {
		return
	}
	if cancel != nil {
		cancel()
	}
	if live {
		s.metrics.ActiveStreams.Add(ctx, -1)
	}
	slog.Info("media stream disconnected without stop", "call_sid", s.callSID)
}

// snapshot returns the meeting ID and the space-joined transcript so far.
func (s *Session) snapshot() (meetingID, transcript string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meetingID, strings.Join(s.transcript, " ")
}

// shortSID returns the last six characters of a call SID for display.
func shortSID(sid string) string {
	if len(sid) <= 6 {
		return sid
	}
	return sid[len(sid)-6:]
}
