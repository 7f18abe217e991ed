package transcribe

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/parleyhq/parley/internal/observe"
	"github.com/parleyhq/parley/pkg/provider/stt"
	sttmock "github.com/parleyhq/parley/pkg/provider/stt/mock"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("creating metrics: %v", err)
	}
	return m
}

func newTestClient(t *testing.T, p stt.Provider, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithMetrics(testMetrics(t))}, opts...)
	return NewClient(p, opts...)
}

func floatPtrEqual(a *float64, want float64) bool {
	return a != nil && math.Abs(*a-want) < 1e-9
}

func TestTranscribe_WordMetadata(t *testing.T) {
	c1, c3 := 0.9, 0.7
	provider := &sttmock.Provider{
		Result: &stt.Result{
			Text: "hello there general",
			Words: []stt.WordDetail{
				{Text: "hello", Start: 0.1, End: 0.4, SpeakerID: "speaker_0", Confidence: c1, HasConfidence: true},
				{Text: "there", Start: 0.5, End: 0.8, SpeakerID: "speaker_0"},
				{Text: "general", Start: 0.9, End: 1.4, SpeakerID: "speaker_1", Confidence: c3, HasConfidence: true},
			},
		},
	}
	client := newTestClient(t, provider)

	seg := client.Transcribe(context.Background(), []byte{0x01}, TrackInbound)
	if seg == nil {
		t.Fatal("expected a segment")
	}
	if seg.Content != "hello there general" {
		t.Errorf("content = %q", seg.Content)
	}
	if seg.Speaker != "speaker_0" {
		t.Errorf("speaker = %q, want speaker_0 from first word", seg.Speaker)
	}
	if !floatPtrEqual(seg.StartTime, 0.1) {
		t.Errorf("start time = %v, want 0.1", seg.StartTime)
	}
	if !floatPtrEqual(seg.EndTime, 1.4) {
		t.Errorf("end time = %v, want 1.4", seg.EndTime)
	}
	// (0.9 + 1.0 + 0.7) / 3 — the unconfident word counts as fully confident.
	if !floatPtrEqual(seg.Confidence, (0.9+1.0+0.7)/3) {
		t.Errorf("confidence = %v", seg.Confidence)
	}
	if seg.MeetingID != "" {
		t.Errorf("meeting id = %q, want empty", seg.MeetingID)
	}
}

func TestTranscribe_FallbackSpeaker(t *testing.T) {
	tests := []struct {
		track string
		want  string
	}{
		{track: TrackInbound, want: "Caller"},
		{track: TrackOutbound, want: "Agent"},
		{track: "", want: "Agent"},
	}

	for _, tt := range tests {
		t.Run("track="+tt.track, func(t *testing.T) {
			provider := &sttmock.Provider{
				Result: &stt.Result{Text: "no diarization here"},
			}
			client := newTestClient(t, provider)

			seg := client.Transcribe(context.Background(), []byte{0x01}, tt.track)
			if seg == nil {
				t.Fatal("expected a segment")
			}
			if seg.Speaker != tt.want {
				t.Errorf("speaker = %q, want %q", seg.Speaker, tt.want)
			}
			if seg.StartTime != nil || seg.EndTime != nil || seg.Confidence != nil {
				t.Error("expected no timing or confidence without word metadata")
			}
		})
	}
}

func TestTranscribe_NoConfidenceReported(t *testing.T) {
	provider := &sttmock.Provider{
		Result: &stt.Result{
			Text: "hi",
			Words: []stt.WordDetail{
				{Text: "hi", Start: 0, End: 0.2, SpeakerID: "speaker_0"},
			},
		},
	}
	client := newTestClient(t, provider)

	seg := client.Transcribe(context.Background(), []byte{0x01}, TrackInbound)
	if seg == nil {
		t.Fatal("expected a segment")
	}
	if !floatPtrEqual(seg.Confidence, 1.0) {
		t.Errorf("confidence = %v, want 1.0 when no word carries a score", seg.Confidence)
	}
}

func TestTranscribe_DropsEmptyAndFailedBatches(t *testing.T) {
	tests := []struct {
		name     string
		provider *sttmock.Provider
	}{
		{name: "provider error", provider: &sttmock.Provider{Err: errors.New("upstream 500")}},
		{name: "empty text", provider: &sttmock.Provider{Result: &stt.Result{Text: ""}}},
		{name: "whitespace only", provider: &sttmock.Provider{Result: &stt.Result{Text: "  \n "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.provider)
			if seg := client.Transcribe(context.Background(), []byte{0x01}, TrackInbound); seg != nil {
				t.Fatalf("segment = %+v, want nil", seg)
			}
		})
	}
}

func TestTranscribe_RequestShape(t *testing.T) {
	provider := &sttmock.Provider{Result: &stt.Result{Text: "ok"}}
	client := newTestClient(t, provider, WithNumSpeakers(4))

	payload := []byte{0x01, 0x02, 0x03}
	client.Transcribe(context.Background(), payload, TrackInbound)

	if provider.CallCount() != 1 {
		t.Fatalf("call count = %d, want 1", provider.CallCount())
	}
	req := provider.Requests[0]
	if req.MimeType != "audio/wav" {
		t.Errorf("mime type = %q, want audio/wav", req.MimeType)
	}
	if req.NumSpeakers != 4 {
		t.Errorf("num speakers = %d, want 4", req.NumSpeakers)
	}
	if len(req.Audio) != len(payload) {
		t.Errorf("audio len = %d, want %d", len(req.Audio), len(payload))
	}
}
