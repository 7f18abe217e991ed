// Package server exposes Parley's HTTP surface: the meeting REST API, the
// Twilio voice webhook, the media-stream WebSocket endpoint, and the
// operational endpoints (/healthz, /readyz, /metrics).
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/parleyhq/parley/internal/agent"
	"github.com/parleyhq/parley/internal/audio"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/health"
	"github.com/parleyhq/parley/internal/meeting"
	"github.com/parleyhq/parley/internal/observe"
	"github.com/parleyhq/parley/internal/transcribe"
)

// Config carries the collaborators and settings for a [Server].
type Config struct {
	// ListenAddr is the TCP address to listen on, e.g. ":8080".
	ListenAddr string

	// PublicHost is the externally reachable hostname used to build the
	// wss:// media-stream URL in the voice webhook response.
	PublicHost string

	// TLS enables HTTPS when non-nil.
	TLS *config.TLSConfig

	Store       meeting.Store
	Transcriber *transcribe.Client
	Runner      agent.Runner

	// Stream tunes the per-connection media-stream sessions.
	Stream StreamSettings

	// Health serves /healthz and /readyz. When nil a checkerless handler
	// is used.
	Health *health.Handler

	Metrics *observe.Metrics
}

// StreamSettings is the per-session tuning passed through to new
// media-stream sessions.
type StreamSettings struct {
	BatchChunks      int
	AnalysisInterval time.Duration
	Format           audio.Format
	DefaultUserID    string
}

// Server is Parley's HTTP server.
type Server struct {
	cfg     Config
	store   meeting.Store
	metrics *observe.Metrics
	http    *http.Server
}

// New creates a [Server] with all routes registered.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("server: listen address is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if cfg.Health == nil {
		cfg.Health = health.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}

	s := &Server{
		cfg:     cfg,
		store:   cfg.Store,
		metrics: cfg.Metrics,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           observe.Middleware(cfg.Metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// No global read/write timeouts: the media-stream WebSocket stays
		// open for the full duration of a call.
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	// Meeting API
	mux.HandleFunc("POST /api/meetings", s.handleCreateMeeting)
	mux.HandleFunc("GET /api/meetings", s.handleListMeetings)
	mux.HandleFunc("GET /api/meetings/{id}", s.handleGetMeeting)
	mux.HandleFunc("PATCH /api/meetings/{id}/end", s.handleEndMeeting)

	// Telephony
	mux.HandleFunc("POST /api/twilio/voice", s.handleVoiceWebhook)
	mux.HandleFunc("POST /api/twilio/status", s.handleStatusCallback)
	mux.HandleFunc("GET /media-stream", s.handleMediaStream)

	// Operational
	mux.HandleFunc("GET /healthz", s.cfg.Health.Healthz)
	mux.HandleFunc("GET /readyz", s.cfg.Health.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening",
			"addr", s.http.Addr, "tls", s.cfg.TLS != nil)
		var err error
		if s.cfg.TLS != nil {
			err = s.http.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.http.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Handler returns the server's root handler, middleware included. Exposed
// for tests that drive the mux through httptest.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
