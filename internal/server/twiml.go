package server

import (
	"encoding/xml"
	"log/slog"
	"net/http"
)

// TwiML response document for the voice webhook. The markup instructs the
// telephony provider to announce the recording, open a media stream to our
// WebSocket endpoint, and then hold the call open while audio flows.
type voiceResponse struct {
	XMLName xml.Name    `xml:"Response"`
	Say     string      `xml:"Say"`
	Start   streamStart `xml:"Start"`
	Pause   pauseVerb   `xml:"Pause"`
}

type streamStart struct {
	Stream streamVerb `xml:"Stream"`
}

type streamVerb struct {
	URL   string `xml:"url,attr"`
	Track string `xml:"track,attr"`
}

type pauseVerb struct {
	Length int `xml:"length,attr"`
}

// callGreeting is spoken to the caller before streaming begins.
const callGreeting = "Connected to the meeting agent. Your call is being recorded and transcribed."

// handleVoiceWebhook answers the telephony voice webhook with TwiML that
// opens a media stream back to this server.
func (s *Server) handleVoiceWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.PublicHost == "" {
		slog.Error("voice webhook called but public_host is not configured")
		writeError(w, http.StatusInternalServerError, "media stream host not configured")
		return
	}

	resp := voiceResponse{
		Say: callGreeting,
		Start: streamStart{
			Stream: streamVerb{
				URL:   "wss://" + s.cfg.PublicHost + "/media-stream",
				Track: "inbound_track",
			},
		},
		Pause: pauseVerb{Length: 3600},
	}

	out, err := xml.Marshal(resp)
	if err != nil {
		slog.Error("twiml marshal failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to build response")
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(out)
}

// handleStatusCallback receives call status updates. The payload is a form
// post; we log the transition and acknowledge.
func (s *Server) handleStatusCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	slog.Info("call status update",
		"call_sid", r.PostFormValue("CallSid"),
		"status", r.PostFormValue("CallStatus"),
	)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
