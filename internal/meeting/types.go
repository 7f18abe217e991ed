// Package meeting defines the persisted domain records for Parley: meetings,
// transcript segments, and the three replaceable artifact kinds (notes, tasks,
// gaps) derived from a call's transcript.
package meeting

import "time"

// Status is the lifecycle state of a meeting record.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsValid reports whether s is a recognised meeting status.
func (s Status) IsValid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority grades a task or gap.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is a recognised priority.
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ArtifactKind identifies one of the three replaceable artifact row sets
// attached to a meeting. Each analysis run replaces all rows of one kind.
type ArtifactKind string

const (
	KindNotes ArtifactKind = "notes"
	KindTasks ArtifactKind = "tasks"
	KindGaps  ArtifactKind = "gaps"
)

// Meeting is one call's persisted lifecycle record. Created when the media
// stream starts, completed when it stops.
type Meeting struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	CallSID   string     `json:"call_sid,omitempty"`
	Status    Status     `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Segment is one transcribed utterance. Segments are append-only: persisted
// once each, never mutated or deleted.
type Segment struct {
	ID         string    `json:"id,omitempty"`
	MeetingID  string    `json:"meeting_id"`
	Speaker    string    `json:"speaker,omitempty"`
	Content    string    `json:"content"`
	StartTime  *float64  `json:"start_time,omitempty"`
	EndTime    *float64  `json:"end_time,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// NoteSection identifies one of the note agent's output sections.
type NoteSection string

const (
	SectionSummary   NoteSection = "summary"
	SectionKeyPoints NoteSection = "key_points"
	SectionDecisions NoteSection = "decisions"
)

// Note is one section of the generated meeting notes.
type Note struct {
	ID        string      `json:"id,omitempty"`
	MeetingID string      `json:"meeting_id"`
	Section   NoteSection `json:"section"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
}

// TaskStatus is the workflow state of an extracted action item.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task is one action item extracted from the transcript.
type Task struct {
	ID          string     `json:"id,omitempty"`
	MeetingID   string     `json:"meeting_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	Priority    Priority   `json:"priority"`
	DueDate     string     `json:"due_date,omitempty"`
	SourceText  string     `json:"source_text,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
}

// Gap is one unresolved topic identified in the transcript, with suggested
// follow-up questions for the next meeting.
type Gap struct {
	ID                 string    `json:"id,omitempty"`
	MeetingID          string    `json:"meeting_id"`
	Topic              string    `json:"topic"`
	Description        string    `json:"description,omitempty"`
	SuggestedQuestions []string  `json:"suggested_questions"`
	Priority           Priority  `json:"priority"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}
