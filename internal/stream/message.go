// Package stream implements the live media-stream session: it consumes
// Twilio media-stream events from a WebSocket connection, batches the call
// audio, drives transcription and persistence, and schedules the recurring
// transcript analysis passes.
package stream

import (
	"encoding/json"
	"fmt"
)

// Event names used by the Twilio media-stream protocol.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventStop      = "stop"
)

// Audio track identifiers within a media event.
const (
	TrackInbound  = "inbound"
	TrackOutbound = "outbound"
)

// Event is one decoded media-stream protocol message. Only the payload
// matching Event is populated.
type Event struct {
	Event          string `json:"event"`
	SequenceNumber string `json:"sequenceNumber,omitempty"`
	StreamSID      string `json:"streamSid,omitempty"`

	Start *StartPayload `json:"start,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
	Stop  *StopPayload  `json:"stop,omitempty"`
}

// StartPayload carries call identity and audio format, sent once per stream.
type StartPayload struct {
	AccountSID       string            `json:"accountSid"`
	StreamSID        string            `json:"streamSid"`
	CallSID          string            `json:"callSid"`
	Tracks           []string          `json:"tracks"`
	MediaFormat      MediaFormat       `json:"mediaFormat"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// MediaFormat describes the audio encoding of the stream.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// MediaPayload carries one base64-encoded audio chunk.
type MediaPayload struct {
	Track     string `json:"track"`
	Chunk     string `json:"chunk"`
	Timestamp string `json:"timestamp"`
	Payload   string `json:"payload"`
}

// StopPayload is sent once when the stream ends.
type StopPayload struct {
	AccountSID string `json:"accountSid"`
	CallSID    string `json:"callSid"`
}

// DecodeEvent parses one raw WebSocket text message into an [Event].
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("stream: decode event: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("stream: event missing %q field", "event")
	}
	return &ev, nil
}
