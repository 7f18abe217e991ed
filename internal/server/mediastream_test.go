package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/parleyhq/parley/internal/meeting"
	"github.com/parleyhq/parley/internal/stream"
	"github.com/parleyhq/parley/internal/transcribe"
	"github.com/parleyhq/parley/pkg/provider/stt"
	sttmock "github.com/parleyhq/parley/pkg/provider/stt/mock"
)

// TestMediaStream_CallRoundTrip drives one full call over a real WebSocket
// connection: start, a partial batch of media, stop. The server must create
// the meeting, flush and transcribe the trailing batch on stop, complete the
// meeting, and close the connection normally.
func TestMediaStream_CallRoundTrip(t *testing.T) {
	sttProvider := &sttmock.Provider{
		Result: &stt.Result{Text: "hello world"},
	}
	transcriber := transcribe.NewClient(sttProvider)

	srv, store := newTestServer(t, func(cfg *Config) {
		cfg.Transcriber = transcriber
		cfg.Stream = StreamSettings{
			BatchChunks:      50,
			AnalysisInterval: time.Hour,
		}
	})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/media-stream"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dialing media stream: %v", err)
	}
	defer conn.Close(websocket.StatusInternalError, "test done")

	send := func(v any) {
		t.Helper()
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshaling event: %v", err)
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	send(map[string]any{"event": "connected", "protocol": "Call", "version": "1.0.0"})
	send(map[string]any{
		"event":     "start",
		"streamSid": "MZ0001",
		"start": map[string]any{
			"accountSid": "AC0001",
			"streamSid":  "MZ0001",
			"callSid":    "CA1234567890",
			"tracks":     []string{"inbound"},
			"mediaFormat": map[string]any{
				"encoding":   "audio/x-mulaw",
				"sampleRate": 8000,
				"channels":   1,
			},
		},
	})
	for i := 0; i < 3; i++ {
		send(map[string]any{
			"event": "media",
			"media": map[string]any{
				"track":     "inbound",
				"chunk":     "1",
				"timestamp": "0",
				"payload":   base64.StdEncoding.EncodeToString([]byte("audio-frame")),
			},
		})
	}
	send(map[string]any{
		"event": "stop",
		"stop":  map[string]any{"accountSid": "AC0001", "callSid": "CA1234567890"},
	})

	// The server closes the socket after processing the stop event.
	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("expected connection close after stop")
	}
	if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure {
		t.Fatalf("close status = %v, want normal closure: %v", status, err)
	}

	meetings, err := store.ListMeetings(context.Background(), stream.DefaultUserID)
	if err != nil {
		t.Fatalf("ListMeetings: %v", err)
	}
	if len(meetings) != 1 {
		t.Fatalf("meetings = %d, want 1", len(meetings))
	}
	m := meetings[0]
	if m.Title != "Call 567890" {
		t.Errorf("title = %q, want Call 567890", m.Title)
	}
	if m.Status != meeting.StatusCompleted {
		t.Errorf("status = %q, want completed", m.Status)
	}

	if got := sttProvider.CallCount(); got != 1 {
		t.Errorf("stt calls = %d, want 1 (trailing batch flushed at stop)", got)
	}
	segs, err := store.ListSegments(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segs) != 1 || segs[0].Content != "hello world" {
		t.Errorf("segments = %+v", segs)
	}
}
