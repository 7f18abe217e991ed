// Package mock provides an in-memory test double for [meeting.Store].
//
// Store keeps real state: created meetings, appended segments, and the
// current artifact row sets, so tests can assert the delete-then-insert
// replacement semantics end to end. Error fields inject failures per method.
// All methods are safe for concurrent use.
//
// Typical usage:
//
//	store := mock.NewStore()
//	m, _ := store.CreateMeeting(ctx, meeting.Meeting{Title: "Call CA123"})
//
//	// inject store into the system under test …
//
//	if got := store.CallCount("ReplaceNotes"); got != 1 {
//	    t.Errorf("expected 1 ReplaceNotes call, got %d", got)
//	}
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/meeting"
)

// Compile-time interface check.
var _ meeting.Store = (*Store)(nil)

// Call records the name and non-context arguments of one method invocation.
type Call struct {
	Method string
	Args   []any
}

// Store is a configurable in-memory implementation of [meeting.Store].
// The zero value is not usable; construct with [NewStore].
type Store struct {
	mu    sync.Mutex
	calls []Call

	meetings map[string]*meeting.Meeting
	segments map[string][]meeting.Segment
	notes    map[string][]meeting.Note
	tasks    map[string][]meeting.Task
	gaps     map[string][]meeting.Gap

	nextID int

	// Error injection. Each field, when non-nil, is returned by the
	// corresponding method instead of touching state.
	CreateMeetingErr   error
	CompleteMeetingErr error
	InsertSegmentErr   error
	ReplaceNotesErr    error
	ReplaceTasksErr    error
	ReplaceGapsErr     error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{
		meetings: make(map[string]*meeting.Meeting),
		segments: make(map[string][]meeting.Segment),
		notes:    make(map[string][]meeting.Note),
		tasks:    make(map[string][]meeting.Task),
		gaps:     make(map[string][]meeting.Gap),
	}
}

// Calls returns a copy of all recorded method invocations in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (s *Store) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (s *Store) record(method string, args ...any) {
	s.calls = append(s.calls, Call{Method: method, Args: args})
}

// CreateMeeting implements [meeting.Store].
func (s *Store) CreateMeeting(_ context.Context, m meeting.Meeting) (*meeting.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CreateMeeting", m)
	if s.CreateMeetingErr != nil {
		return nil, s.CreateMeetingErr
	}

	if m.ID == "" {
		s.nextID++
		m.ID = fmt.Sprintf("meeting-%d", s.nextID)
	}
	if m.Status == "" {
		m.Status = meeting.StatusInProgress
	}
	now := time.Now()
	m.StartTime = now
	m.CreatedAt = now
	s.meetings[m.ID] = &m

	out := m
	return &out, nil
}

// CompleteMeeting implements [meeting.Store].
func (s *Store) CompleteMeeting(_ context.Context, meetingID string) (*meeting.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CompleteMeeting", meetingID)
	if s.CompleteMeetingErr != nil {
		return nil, s.CompleteMeetingErr
	}

	m, ok := s.meetings[meetingID]
	if !ok {
		return nil, meeting.ErrNotFound
	}
	now := time.Now()
	m.Status = meeting.StatusCompleted
	m.EndTime = &now

	out := *m
	return &out, nil
}

// GetMeeting implements [meeting.Store].
func (s *Store) GetMeeting(_ context.Context, meetingID string) (*meeting.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GetMeeting", meetingID)

	m, ok := s.meetings[meetingID]
	if !ok {
		return nil, meeting.ErrNotFound
	}
	out := *m
	return &out, nil
}

// ListMeetings implements [meeting.Store].
func (s *Store) ListMeetings(_ context.Context, userID string) ([]meeting.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ListMeetings", userID)

	var out []meeting.Meeting
	for _, m := range s.meetings {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// InsertSegment implements [meeting.Store].
func (s *Store) InsertSegment(_ context.Context, seg meeting.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("InsertSegment", seg)
	if s.InsertSegmentErr != nil {
		return s.InsertSegmentErr
	}
	s.segments[seg.MeetingID] = append(s.segments[seg.MeetingID], seg)
	return nil
}

// ListSegments implements [meeting.Store].
func (s *Store) ListSegments(_ context.Context, meetingID string) ([]meeting.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ListSegments", meetingID)
	out := make([]meeting.Segment, len(s.segments[meetingID]))
	copy(out, s.segments[meetingID])
	return out, nil
}

// ReplaceNotes implements [meeting.Store].
func (s *Store) ReplaceNotes(_ context.Context, meetingID string, notes []meeting.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ReplaceNotes", meetingID, notes)
	if s.ReplaceNotesErr != nil {
		return s.ReplaceNotesErr
	}
	s.notes[meetingID] = append([]meeting.Note(nil), notes...)
	return nil
}

// ReplaceTasks implements [meeting.Store].
func (s *Store) ReplaceTasks(_ context.Context, meetingID string, tasks []meeting.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ReplaceTasks", meetingID, tasks)
	if s.ReplaceTasksErr != nil {
		return s.ReplaceTasksErr
	}
	s.tasks[meetingID] = append([]meeting.Task(nil), tasks...)
	return nil
}

// ReplaceGaps implements [meeting.Store].
func (s *Store) ReplaceGaps(_ context.Context, meetingID string, gaps []meeting.Gap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ReplaceGaps", meetingID, gaps)
	if s.ReplaceGapsErr != nil {
		return s.ReplaceGapsErr
	}
	s.gaps[meetingID] = append([]meeting.Gap(nil), gaps...)
	return nil
}

// ListNotes implements [meeting.Store].
func (s *Store) ListNotes(_ context.Context, meetingID string) ([]meeting.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ListNotes", meetingID)
	out := make([]meeting.Note, len(s.notes[meetingID]))
	copy(out, s.notes[meetingID])
	return out, nil
}

// ListTasks implements [meeting.Store].
func (s *Store) ListTasks(_ context.Context, meetingID string) ([]meeting.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ListTasks", meetingID)
	out := make([]meeting.Task, len(s.tasks[meetingID]))
	copy(out, s.tasks[meetingID])
	return out, nil
}

// ListGaps implements [meeting.Store].
func (s *Store) ListGaps(_ context.Context, meetingID string) ([]meeting.Gap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ListGaps", meetingID)
	out := make([]meeting.Gap, len(s.gaps[meetingID]))
	copy(out, s.gaps[meetingID])
	return out, nil
}
