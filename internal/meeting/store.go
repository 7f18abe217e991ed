package meeting

import (
	"context"
	"errors"
)

// ErrNotFound is returned by read operations when no meeting matches the
// given identifier.
var ErrNotFound = errors.New("meeting: not found")

// Store is the persistence boundary for meetings, transcript segments, and
// derived artifacts. Implementations must be safe for concurrent use; every
// operation is a single best-effort call except the Replace* methods, which
// should make the delete-then-insert swap as close to atomic as the backend
// allows.
type Store interface {
	// CreateMeeting persists m and returns the stored record with its
	// generated ID and timestamps populated.
	CreateMeeting(ctx context.Context, m Meeting) (*Meeting, error)

	// CompleteMeeting marks the meeting as completed and stamps its end time.
	CompleteMeeting(ctx context.Context, meetingID string) (*Meeting, error)

	// GetMeeting returns the meeting with the given ID, or ErrNotFound.
	GetMeeting(ctx context.Context, meetingID string) (*Meeting, error)

	// ListMeetings returns all meetings for userID, newest first.
	ListMeetings(ctx context.Context, userID string) ([]Meeting, error)

	// InsertSegment appends one transcript segment. Segments are never
	// updated or deleted.
	InsertSegment(ctx context.Context, seg Segment) error

	// ListSegments returns all segments for a meeting in chronological order.
	ListSegments(ctx context.Context, meetingID string) ([]Segment, error)

	// ReplaceNotes deletes all existing note rows for the meeting and inserts
	// notes in their place. An empty slice clears the kind entirely.
	ReplaceNotes(ctx context.Context, meetingID string, notes []Note) error

	// ReplaceTasks deletes all existing task rows for the meeting and inserts
	// tasks in their place. An empty slice clears the kind entirely.
	ReplaceTasks(ctx context.Context, meetingID string, tasks []Task) error

	// ReplaceGaps deletes all existing gap rows for the meeting and inserts
	// gaps in their place. An empty slice clears the kind entirely.
	ReplaceGaps(ctx context.Context, meetingID string, gaps []Gap) error

	// ListNotes returns the current note rows for a meeting in insert order.
	ListNotes(ctx context.Context, meetingID string) ([]Note, error)

	// ListTasks returns the current task rows for a meeting in insert order.
	ListTasks(ctx context.Context, meetingID string) ([]Task, error)

	// ListGaps returns the current gap rows for a meeting in insert order.
	ListGaps(ctx context.Context, meetingID string) ([]Gap, error)
}
