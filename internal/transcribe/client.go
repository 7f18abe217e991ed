// Package transcribe turns packaged audio batches into transcript segments.
//
// Client sits between the session pipeline and the speech-to-text provider:
// it submits one batch per call and normalises the provider's free-text
// result plus optional word-level metadata into a [meeting.Segment]. A failed
// or empty batch yields no segment — a dropped batch is an acceptable,
// bounded loss, never retried and never fatal to the stream.
package transcribe

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/meeting"
	"github.com/parleyhq/parley/internal/observe"
	"github.com/parleyhq/parley/pkg/provider/stt"
)

// Track labels for the two legs of a call. The media stream tags each chunk
// with the track it came from; when the provider reports no speaker ID the
// track decides the fallback speaker label.
const (
	TrackInbound  = "inbound"
	TrackOutbound = "outbound"

	speakerCaller = "Caller"
	speakerAgent  = "Agent"
)

// defaultNumSpeakers is the diarization hint sent with every batch: one
// caller leg and one agent leg.
const defaultNumSpeakers = 2

// Option configures a Client.
type Option func(*Client)

// WithNumSpeakers overrides the expected-speaker-count hint.
func WithNumSpeakers(n int) Option {
	return func(c *Client) { c.numSpeakers = n }
}

// WithMetrics sets the metrics instance used for latency and error counts.
// Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client submits packaged audio batches to an STT provider and normalises
// results into transcript segments. Safe for concurrent use.
type Client struct {
	provider    stt.Provider
	numSpeakers int
	metrics     *observe.Metrics
}

// NewClient creates a Client backed by provider.
func NewClient(provider stt.Provider, opts ...Option) *Client {
	c := &Client{
		provider:    provider,
		numSpeakers: defaultNumSpeakers,
		metrics:     observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Transcribe sends one packaged audio payload to the provider and returns the
// normalised segment, or nil when the batch produced nothing usable (provider
// error, empty text, whitespace-only text). track selects the fallback
// speaker label when the provider reports no speaker diarization.
//
// The returned segment has no meeting ID; the caller owns that association.
func (c *Client) Transcribe(ctx context.Context, payload []byte, track string) *meeting.Segment {
	start := time.Now()
	result, err := c.provider.Transcribe(ctx, stt.Request{
		Audio:       payload,
		MimeType:    "audio/wav",
		NumSpeakers: c.numSpeakers,
	})
	c.metrics.ObserveSTT(ctx, time.Since(start), err)
	if err != nil {
		slog.Error("transcription request failed", "err", err, "payload_bytes", len(payload))
		return nil
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		// Silence or noise-only batch.
		return nil
	}

	seg := &meeting.Segment{
		Speaker: fallbackSpeaker(track),
		Content: text,
	}

	if len(result.Words) > 0 {
		first, last := result.Words[0], result.Words[len(result.Words)-1]
		if first.SpeakerID != "" {
			seg.Speaker = first.SpeakerID
		}
		startTime, endTime := first.Start, last.End
		seg.StartTime = &startTime
		seg.EndTime = &endTime

		mean := meanConfidence(result.Words)
		seg.Confidence = &mean
	}

	return seg
}

// fallbackSpeaker maps a media track label to a static speaker label.
func fallbackSpeaker(track string) string {
	if track == TrackInbound {
		return speakerCaller
	}
	return speakerAgent
}

// meanConfidence returns the arithmetic mean of the per-word confidence
// scores. Words without a reported confidence count as fully confident,
// mirroring how providers omit the field for unambiguous words; a batch
// where no word carries a score therefore reads as 1.0.
func meanConfidence(words []stt.WordDetail) float64 {
	sum := 0.0
	for _, w := range words {
		if w.HasConfidence {
			sum += w.Confidence
		} else {
			sum += 1
		}
	}
	return sum / float64(len(words))
}
