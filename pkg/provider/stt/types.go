package stt

// Result is one batch transcription result from an STT provider.
type Result struct {
	// Text is the full transcribed speech content. May be empty for silence.
	Text string

	// Words contains per-word detail when the provider supports it.
	// May be nil.
	Words []WordDetail
}

// WordDetail holds per-word metadata from providers that support it.
type WordDetail struct {
	// Text is the recognised word.
	Text string

	// Start and End are offsets in seconds from the beginning of the batch.
	Start float64
	End   float64

	// SpeakerID labels the diarized speaker (e.g., "speaker_0"). Empty when
	// diarization is unavailable.
	SpeakerID string

	// Confidence is the per-word recognition confidence (0.0–1.0). Zero when
	// the provider does not report it; use HasConfidence to distinguish.
	Confidence float64

	// HasConfidence reports whether Confidence carries a provider value.
	HasConfidence bool
}
