// Command parley is the Parley call transcription and analysis server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/parleyhq/parley/internal/agent"
	"github.com/parleyhq/parley/internal/audio"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/health"
	"github.com/parleyhq/parley/internal/meeting"
	meetingmock "github.com/parleyhq/parley/internal/meeting/mock"
	"github.com/parleyhq/parley/internal/meeting/postgres"
	"github.com/parleyhq/parley/internal/observe"
	"github.com/parleyhq/parley/internal/resilience"
	"github.com/parleyhq/parley/internal/server"
	"github.com/parleyhq/parley/internal/transcribe"
	"github.com/parleyhq/parley/pkg/provider/llm"
	"github.com/parleyhq/parley/pkg/provider/llm/anyllm"
	llmopenai "github.com/parleyhq/parley/pkg/provider/llm/openai"
	"github.com/parleyhq/parley/pkg/provider/stt"
	"github.com/parleyhq/parley/pkg/provider/stt/elevenlabs"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "parley: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("parley starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "parley",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	sttProvider, llmProvider, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	var (
		store    meeting.Store
		checkers []health.Checker
	)
	if cfg.Storage.PostgresDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pg.Close()
		store = pg
		checkers = append(checkers, health.Checker{Name: "database", Check: pg.Ping})
		slog.Info("postgres store ready")
	} else {
		// Dev fallback: everything lives in memory and dies with the process.
		store = meetingmock.NewStore()
		slog.Warn("no postgres_dsn configured; using in-memory store")
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	transcriber := transcribe.NewClient(sttProvider, transcribe.WithMetrics(metrics))

	var runner agent.Runner = agent.NopRunner{}
	if llmProvider != nil {
		runner = agent.NewOrchestrator(llmProvider, store)
	} else {
		slog.Warn("no llm provider configured; transcript analysis disabled")
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv, err := server.New(server.Config{
		ListenAddr:  listenAddr(cfg),
		PublicHost:  cfg.Server.PublicHost,
		TLS:         cfg.Server.TLS,
		Store:       store,
		Transcriber: transcriber,
		Runner:      runner,
		Stream: server.StreamSettings{
			BatchChunks:      cfg.Stream.BatchChunks,
			AnalysisInterval: cfg.Stream.AnalysisInterval(),
			Format:           streamFormat(cfg.Stream.Encoding),
			DefaultUserID:    cfg.Stream.DefaultUserID,
		},
		Health:  health.New(checkers...),
		Metrics: metrics,
	})
	if err != nil {
		slog.Error("failed to initialise server", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("elevenlabs", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	// ── LLM ───────────────────────────────────────────────────────────────────

	// openai uses the official SDK directly so JSON response forcing works.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []llmopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, llmopenai.WithOrganization(org))
		}
		return llmopenai.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining backends all share the same pattern through any-llm-go:
	// optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, opts...)
	})
}

// buildProviders instantiates the configured STT and LLM providers, wrapping
// each in a circuit-breaking fallback chain when fallbacks are configured.
func buildProviders(cfg *config.Config, reg *config.Registry) (stt.Provider, llm.Provider, error) {
	var sttProvider stt.Provider
	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if err != nil {
			return nil, nil, fmt.Errorf("create stt provider %q: %w", name, err)
		}
		sttProvider = p
		slog.Info("provider created", "kind", "stt", "name", name)

		if len(cfg.Providers.STTFallbacks) > 0 {
			fb := resilience.NewSTTFallback(p, name, resilience.FallbackConfig{})
			for _, entry := range cfg.Providers.STTFallbacks {
				fp, err := reg.CreateSTT(entry)
				if err != nil {
					return nil, nil, fmt.Errorf("create stt fallback %q: %w", entry.Name, err)
				}
				fb.AddFallback(entry.Name, fp)
				slog.Info("fallback provider created", "kind", "stt", "name", entry.Name)
			}
			sttProvider = fb
		}
	} else {
		return nil, nil, errors.New("providers.stt is not configured")
	}

	var llmProvider llm.Provider
	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			return nil, nil, fmt.Errorf("create llm provider %q: %w", name, err)
		}
		llmProvider = p
		slog.Info("provider created", "kind", "llm", "name", name)

		if len(cfg.Providers.LLMFallbacks) > 0 {
			fb := resilience.NewLLMFallback(p, name, resilience.FallbackConfig{})
			for _, entry := range cfg.Providers.LLMFallbacks {
				fp, err := reg.CreateLLM(entry)
				if err != nil {
					return nil, nil, fmt.Errorf("create llm fallback %q: %w", entry.Name, err)
				}
				fb.AddFallback(entry.Name, fp)
				slog.Info("fallback provider created", "kind", "llm", "name", entry.Name)
			}
			llmProvider = fb
		}
	}

	return sttProvider, llmProvider, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func listenAddr(cfg *config.Config) string {
	if cfg.Server.ListenAddr != "" {
		return cfg.Server.ListenAddr
	}
	return ":8080"
}

// streamFormat maps the configured encoding onto an audio format. Telephony
// media streams are always 8 kHz mono.
func streamFormat(encoding string) audio.Format {
	f := audio.DefaultFormat
	if encoding == string(audio.EncodingPCM16) {
		f.Encoding = audio.EncodingPCM16
	}
	return f
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
