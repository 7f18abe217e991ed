package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/parleyhq/parley/internal/meeting"
)

// errorBody is the JSON error response shape.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// createMeetingRequest is the POST /api/meetings body.
type createMeetingRequest struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	CallSID string `json:"call_sid,omitempty"`
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req createMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "user_id and title are required")
		return
	}

	m, err := s.store.CreateMeeting(r.Context(), meeting.Meeting{
		UserID:  req.UserID,
		Title:   req.Title,
		CallSID: req.CallSID,
		Status:  meeting.StatusInProgress,
	})
	if err != nil {
		slog.Error("meeting creation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create meeting")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	meetings, err := s.store.ListMeetings(r.Context(), userID)
	if err != nil {
		slog.Error("meeting list failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}
	if meetings == nil {
		meetings = []meeting.Meeting{}
	}
	writeJSON(w, http.StatusOK, meetings)
}

// meetingDetail aggregates a meeting with all of its derived data.
type meetingDetail struct {
	Meeting    *meeting.Meeting  `json:"meeting"`
	Transcript []meeting.Segment `json:"transcript"`
	Notes      []meeting.Note    `json:"notes"`
	Tasks      []meeting.Task    `json:"tasks"`
	Gaps       []meeting.Gap     `json:"gaps"`
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()

	m, err := s.store.GetMeeting(ctx, id)
	if err != nil {
		if errors.Is(err, meeting.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Meeting not found")
			return
		}
		slog.Error("meeting fetch failed", "meeting_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch meeting")
		return
	}

	detail := meetingDetail{
		Meeting:    m,
		Transcript: []meeting.Segment{},
		Notes:      []meeting.Note{},
		Tasks:      []meeting.Task{},
		Gaps:       []meeting.Gap{},
	}

	// Related rows are best effort: a partial detail view beats a 500.
	if segs, err := s.store.ListSegments(ctx, id); err != nil {
		slog.Error("segment list failed", "meeting_id", id, "err", err)
	} else if segs != nil {
		detail.Transcript = segs
	}
	if notes, err := s.store.ListNotes(ctx, id); err != nil {
		slog.Error("note list failed", "meeting_id", id, "err", err)
	} else if notes != nil {
		detail.Notes = notes
	}
	if tasks, err := s.store.ListTasks(ctx, id); err != nil {
		slog.Error("task list failed", "meeting_id", id, "err", err)
	} else if tasks != nil {
		detail.Tasks = tasks
	}
	if gaps, err := s.store.ListGaps(ctx, id); err != nil {
		slog.Error("gap list failed", "meeting_id", id, "err", err)
	} else if gaps != nil {
		detail.Gaps = gaps
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleEndMeeting(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	m, err := s.store.CompleteMeeting(r.Context(), id)
	if err != nil {
		if errors.Is(err, meeting.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Meeting not found")
			return
		}
		slog.Error("meeting completion failed", "meeting_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to end meeting")
		return
	}
	writeJSON(w, http.StatusOK, m)
}
