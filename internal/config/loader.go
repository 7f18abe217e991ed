package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt": {"elevenlabs"},
}

// validEncodings lists the audio encodings the stream pipeline accepts.
var validEncodings = []string{"mulaw", "pcm16"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.PublicHost == "" {
		slog.Warn("server.public_host is empty; the voice webhook cannot build a media-stream URL")
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	for _, entry := range cfg.Providers.STTFallbacks {
		validateProviderName("stt", entry.Name)
	}
	validateProviderName("llm", cfg.Providers.LLM.Name)
	for _, entry := range cfg.Providers.LLMFallbacks {
		validateProviderName("llm", entry.Name)
	}

	// Provider availability
	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required; calls cannot be transcribed without an STT provider"))
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; transcript analysis agents will not run")
	}
	if len(cfg.Providers.STTFallbacks) > 0 && cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt_fallbacks configured without a primary providers.stt"))
	}
	if len(cfg.Providers.LLMFallbacks) > 0 && cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm_fallbacks configured without a primary providers.llm"))
	}

	// Stream
	if cfg.Stream.BatchChunks < 0 {
		errs = append(errs, fmt.Errorf("stream.batch_chunks %d must not be negative", cfg.Stream.BatchChunks))
	}
	if cfg.Stream.AnalysisIntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("stream.analysis_interval_seconds %d must not be negative", cfg.Stream.AnalysisIntervalSeconds))
	}
	if cfg.Stream.Encoding != "" && !slices.Contains(validEncodings, cfg.Stream.Encoding) {
		errs = append(errs, fmt.Errorf("stream.encoding %q is invalid; valid values: mulaw, pcm16", cfg.Stream.Encoding))
	}

	// Storage
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; meetings and transcripts will not be persisted")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
