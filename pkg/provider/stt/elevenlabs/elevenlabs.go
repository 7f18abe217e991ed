// Package elevenlabs provides an ElevenLabs Scribe-backed STT provider.
// It implements the stt.Provider batch interface by POSTing each packaged
// audio payload to the Speech-to-Text REST endpoint as multipart/form-data.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/parleyhq/parley/pkg/provider/stt"
)

const (
	defaultBaseURL  = "https://api.elevenlabs.io"
	defaultModel    = "scribe_v1"
	defaultMimeType = "audio/wav"

	sttPath = "/v1/speech-to-text"
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithModel sets the Scribe model identifier (e.g., "scribe_v1").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL overrides the API base URL. Primarily used in tests to point at
// a local mock server.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements stt.Provider backed by the ElevenLabs Speech-to-Text API.
// Safe for concurrent use; each Transcribe call is an independent request.
type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a new ElevenLabs STT Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// response mirrors the Speech-to-Text JSON response body.
type response struct {
	Text  string `json:"text"`
	Words []struct {
		Text       string   `json:"text"`
		Start      float64  `json:"start"`
		End        float64  `json:"end"`
		SpeakerID  string   `json:"speaker_id"`
		Confidence *float64 `json:"confidence"`
	} `json:"words"`
}

// Transcribe implements stt.Provider. It uploads the packaged audio payload as
// multipart/form-data together with the model identifier and the expected
// speaker count, and converts the response into an [stt.Result].
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	if len(req.Audio) == 0 {
		return nil, errors.New("elevenlabs: audio payload must not be empty")
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create form file: %w", err)
	}
	if _, err := fw.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("elevenlabs: write audio data: %w", err)
	}
	if err := mw.WriteField("model_id", p.model); err != nil {
		return nil, fmt.Errorf("elevenlabs: write model_id field: %w", err)
	}
	if req.NumSpeakers > 0 {
		if err := mw.WriteField("num_speakers", strconv.Itoa(req.NumSpeakers)); err != nil {
			return nil, fmt.Errorf("elevenlabs: write num_speakers field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("elevenlabs: close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+sttPath, &body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs: server returned HTTP %d: %s", resp.StatusCode, detail)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read response body: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("elevenlabs: parse JSON response: %w", err)
	}

	result := &stt.Result{Text: parsed.Text}
	for _, w := range parsed.Words {
		wd := stt.WordDetail{
			Text:      w.Text,
			Start:     w.Start,
			End:       w.End,
			SpeakerID: w.SpeakerID,
		}
		if w.Confidence != nil {
			wd.Confidence = *w.Confidence
			wd.HasConfidence = true
		}
		result.Words = append(result.Words, wd)
	}
	return result, nil
}
