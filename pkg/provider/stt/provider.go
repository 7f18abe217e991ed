// Package stt defines the Provider interface for batch Speech-to-Text backends.
//
// An STT provider wraps a remote transcription service and exposes a uniform
// batch interface: one packaged audio payload in, one transcription [Result]
// out. Parley's session pipeline accumulates live stream audio into bounded
// batches and submits each batch as an independent request, so no streaming
// session state exists at this boundary — a failed or empty batch is simply a
// dropped unit of work.
//
// Implementations must be safe for concurrent use; multiple live calls may
// transcribe batches simultaneously.
package stt

import "context"

// Request carries one packaged audio payload for transcription.
type Request struct {
	// Audio is the complete container-framed payload (e.g., a WAV file).
	Audio []byte

	// MimeType describes the payload container (e.g., "audio/wav").
	// Empty lets the provider assume its default.
	MimeType string

	// NumSpeakers hints the expected speaker count for diarization.
	// Zero lets the provider decide.
	NumSpeakers int
}

// Provider is the abstraction over any batch STT backend.
type Provider interface {
	// Transcribe submits one audio batch and returns the recognised text with
	// optional word-level detail. A nil error with empty Result.Text is a
	// valid outcome for silence or noise-only audio. Implementations should
	// return an error for transport failures and non-success responses; the
	// caller treats both as a dropped batch, never retried.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}
