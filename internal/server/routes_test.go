package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/parleyhq/parley/internal/meeting"
	meetingmock "github.com/parleyhq/parley/internal/meeting/mock"
	"github.com/parleyhq/parley/internal/observe"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("creating metrics: %v", err)
	}
	return m
}

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *meetingmock.Store) {
	t.Helper()
	store := meetingmock.NewStore()
	cfg := Config{
		ListenAddr: ":0",
		PublicHost: "parley.test",
		Store:      store,
		Metrics:    testMetrics(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

func TestCreateMeeting(t *testing.T) {
	srv, store := newTestServer(t, nil)

	w := doRequest(t, srv, http.MethodPost, "/api/meetings",
		`{"user_id":"user-1","title":"Weekly sync","call_sid":"CA123"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body)
	}

	var m meeting.Meeting
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if m.ID == "" {
		t.Error("response meeting has no id")
	}
	if m.Status != meeting.StatusInProgress {
		t.Errorf("status = %q, want in_progress", m.Status)
	}

	stored, err := store.GetMeeting(t.Context(), m.ID)
	if err != nil {
		t.Fatalf("meeting not stored: %v", err)
	}
	if stored.Title != "Weekly sync" || stored.CallSID != "CA123" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestCreateMeeting_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"user_id":`},
		{name: "missing title", body: `{"user_id":"user-1"}`},
		{name: "missing user", body: `{"title":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, srv, http.MethodPost, "/api/meetings", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestListMeetings(t *testing.T) {
	srv, store := newTestServer(t, nil)
	ctx := t.Context()
	store.CreateMeeting(ctx, meeting.Meeting{UserID: "user-1", Title: "One"})
	store.CreateMeeting(ctx, meeting.Meeting{UserID: "user-1", Title: "Two"})
	store.CreateMeeting(ctx, meeting.Meeting{UserID: "user-2", Title: "Other"})

	w := doRequest(t, srv, http.MethodGet, "/api/meetings?user_id=user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var meetings []meeting.Meeting
	if err := json.Unmarshal(w.Body.Bytes(), &meetings); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(meetings) != 2 {
		t.Fatalf("meetings = %d, want 2", len(meetings))
	}

	// Missing user_id is a client error.
	if w := doRequest(t, srv, http.MethodGet, "/api/meetings", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status without user_id = %d, want 400", w.Code)
	}
}

func TestGetMeeting_Detail(t *testing.T) {
	srv, store := newTestServer(t, nil)
	ctx := t.Context()

	m, _ := store.CreateMeeting(ctx, meeting.Meeting{UserID: "user-1", Title: "Standup"})
	store.InsertSegment(ctx, meeting.Segment{MeetingID: m.ID, Speaker: "Caller", Content: "hello"})
	store.ReplaceNotes(ctx, m.ID, []meeting.Note{
		{MeetingID: m.ID, Section: meeting.SectionSummary, Content: "Quick sync."},
	})
	store.ReplaceTasks(ctx, m.ID, []meeting.Task{
		{MeetingID: m.ID, Title: "Send recap", Priority: meeting.PriorityHigh, Status: meeting.TaskPending},
	})

	w := doRequest(t, srv, http.MethodGet, "/api/meetings/"+m.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var detail meetingDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if detail.Meeting == nil || detail.Meeting.ID != m.ID {
		t.Fatalf("meeting = %+v", detail.Meeting)
	}
	if len(detail.Transcript) != 1 || detail.Transcript[0].Content != "hello" {
		t.Errorf("transcript = %+v", detail.Transcript)
	}
	if len(detail.Notes) != 1 || len(detail.Tasks) != 1 {
		t.Errorf("notes = %d, tasks = %d, want 1 each", len(detail.Notes), len(detail.Tasks))
	}
	// No gaps were stored; the field must still be an empty array, not null.
	if detail.Gaps == nil {
		t.Error("gaps should decode as an empty slice")
	}
}

func TestGetMeeting_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doRequest(t, srv, http.MethodGet, "/api/meetings/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestEndMeeting(t *testing.T) {
	srv, store := newTestServer(t, nil)
	m, _ := store.CreateMeeting(t.Context(), meeting.Meeting{UserID: "user-1", Title: "Standup"})

	w := doRequest(t, srv, http.MethodPatch, "/api/meetings/"+m.ID+"/end", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var updated meeting.Meeting
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if updated.Status != meeting.StatusCompleted {
		t.Errorf("status = %q, want completed", updated.Status)
	}
	if updated.EndTime == nil {
		t.Error("end time not set")
	}

	if w := doRequest(t, srv, http.MethodPatch, "/api/meetings/nope/end", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status for unknown meeting = %d, want 404", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		w := doRequest(t, srv, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doRequest(t, srv, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
