package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parleyhq/parley/internal/meeting"
)

// Compile-time interface check.
var _ meeting.Store = (*Store)(nil)

// Store implements [meeting.Store] backed by PostgreSQL. Obtain one via
// [NewStore]. All methods are safe for concurrent use.
//
// The Replace* methods run their delete-then-insert swap inside one
// transaction per call, so a concurrent reader never observes rows from two
// different analysis runs interleaved.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store, establishes a connection pool to the PostgreSQL
// database at dsn, and runs [Migrate] to ensure all required tables exist.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateMeeting implements [meeting.Store].
func (s *Store) CreateMeeting(ctx context.Context, m meeting.Meeting) (*meeting.Meeting, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = meeting.StatusInProgress
	}

	const q = `
		INSERT INTO meetings (id, user_id, title, call_sid, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, call_sid, status, start_time, end_time, created_at`

	row := s.pool.QueryRow(ctx, q, m.ID, m.UserID, m.Title, m.CallSID, m.Status)
	out, err := scanMeeting(row)
	if err != nil {
		return nil, fmt.Errorf("postgres: create meeting: %w", err)
	}
	return out, nil
}

// CompleteMeeting implements [meeting.Store].
func (s *Store) CompleteMeeting(ctx context.Context, meetingID string) (*meeting.Meeting, error) {
	const q = `
		UPDATE meetings
		SET    status = $2, end_time = now()
		WHERE  id = $1
		RETURNING id, user_id, title, call_sid, status, start_time, end_time, created_at`

	row := s.pool.QueryRow(ctx, q, meetingID, meeting.StatusCompleted)
	out, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, meeting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: complete meeting: %w", err)
	}
	return out, nil
}

// GetMeeting implements [meeting.Store].
func (s *Store) GetMeeting(ctx context.Context, meetingID string) (*meeting.Meeting, error) {
	const q = `
		SELECT id, user_id, title, call_sid, status, start_time, end_time, created_at
		FROM   meetings
		WHERE  id = $1`

	row := s.pool.QueryRow(ctx, q, meetingID)
	out, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, meeting.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get meeting: %w", err)
	}
	return out, nil
}

// ListMeetings implements [meeting.Store].
func (s *Store) ListMeetings(ctx context.Context, userID string) ([]meeting.Meeting, error) {
	const q = `
		SELECT id, user_id, title, call_sid, status, start_time, end_time, created_at
		FROM   meetings
		WHERE  user_id = $1
		ORDER  BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list meetings: %w", err)
	}
	defer rows.Close()

	var out []meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: list meetings: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// InsertSegment implements [meeting.Store].
func (s *Store) InsertSegment(ctx context.Context, seg meeting.Segment) error {
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}

	const q = `
		INSERT INTO transcript_segments
		    (id, meeting_id, speaker, content, start_time, end_time, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, q,
		seg.ID, seg.MeetingID, seg.Speaker, seg.Content,
		seg.StartTime, seg.EndTime, seg.Confidence,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert segment: %w", err)
	}
	return nil
}

// ListSegments implements [meeting.Store].
func (s *Store) ListSegments(ctx context.Context, meetingID string) ([]meeting.Segment, error) {
	const q = `
		SELECT id, meeting_id, speaker, content, start_time, end_time, confidence, created_at
		FROM   transcript_segments
		WHERE  meeting_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, meetingID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list segments: %w", err)
	}
	defer rows.Close()

	var out []meeting.Segment
	for rows.Next() {
		var seg meeting.Segment
		if err := rows.Scan(&seg.ID, &seg.MeetingID, &seg.Speaker, &seg.Content,
			&seg.StartTime, &seg.EndTime, &seg.Confidence, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: list segments: %w", err)
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// ReplaceNotes implements [meeting.Store].
func (s *Store) ReplaceNotes(ctx context.Context, meetingID string, notes []meeting.Note) error {
	return s.replace(ctx, "notes", meetingID, func(tx pgx.Tx) error {
		const q = `INSERT INTO notes (id, meeting_id, section, content) VALUES ($1, $2, $3, $4)`
		for _, n := range notes {
			id := n.ID
			if id == "" {
				id = uuid.NewString()
			}
			if _, err := tx.Exec(ctx, q, id, meetingID, n.Section, n.Content); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceTasks implements [meeting.Store].
func (s *Store) ReplaceTasks(ctx context.Context, meetingID string, tasks []meeting.Task) error {
	return s.replace(ctx, "tasks", meetingID, func(tx pgx.Tx) error {
		const q = `
			INSERT INTO tasks
			    (id, meeting_id, title, description, assigned_to, priority, due_date, source_text, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		for _, t := range tasks {
			id := t.ID
			if id == "" {
				id = uuid.NewString()
			}
			status := t.Status
			if status == "" {
				status = meeting.TaskPending
			}
			if _, err := tx.Exec(ctx, q, id, meetingID, t.Title, t.Description,
				t.AssignedTo, t.Priority, t.DueDate, t.SourceText, status); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceGaps implements [meeting.Store].
func (s *Store) ReplaceGaps(ctx context.Context, meetingID string, gaps []meeting.Gap) error {
	return s.replace(ctx, "gaps", meetingID, func(tx pgx.Tx) error {
		const q = `
			INSERT INTO gaps (id, meeting_id, topic, description, suggested_questions, priority)
			VALUES ($1, $2, $3, $4, $5, $6)`
		for _, g := range gaps {
			id := g.ID
			if id == "" {
				id = uuid.NewString()
			}
			questions := g.SuggestedQuestions
			if questions == nil {
				questions = []string{}
			}
			if _, err := tx.Exec(ctx, q, id, meetingID, g.Topic, g.Description,
				questions, g.Priority); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListNotes implements [meeting.Store].
func (s *Store) ListNotes(ctx context.Context, meetingID string) ([]meeting.Note, error) {
	const q = `
		SELECT id, meeting_id, section, content, created_at
		FROM   notes
		WHERE  meeting_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, meetingID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list notes: %w", err)
	}
	defer rows.Close()

	var out []meeting.Note
	for rows.Next() {
		var n meeting.Note
		if err := rows.Scan(&n.ID, &n.MeetingID, &n.Section, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: list notes: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListTasks implements [meeting.Store].
func (s *Store) ListTasks(ctx context.Context, meetingID string) ([]meeting.Task, error) {
	const q = `
		SELECT id, meeting_id, title, description, assigned_to, priority, due_date, source_text, status, created_at
		FROM   tasks
		WHERE  meeting_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, meetingID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tasks: %w", err)
	}
	defer rows.Close()

	var out []meeting.Task
	for rows.Next() {
		var t meeting.Task
		if err := rows.Scan(&t.ID, &t.MeetingID, &t.Title, &t.Description, &t.AssignedTo,
			&t.Priority, &t.DueDate, &t.SourceText, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: list tasks: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListGaps implements [meeting.Store].
func (s *Store) ListGaps(ctx context.Context, meetingID string) ([]meeting.Gap, error) {
	const q = `
		SELECT id, meeting_id, topic, description, suggested_questions, priority, created_at
		FROM   gaps
		WHERE  meeting_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, meetingID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list gaps: %w", err)
	}
	defer rows.Close()

	var out []meeting.Gap
	for rows.Next() {
		var g meeting.Gap
		if err := rows.Scan(&g.ID, &g.MeetingID, &g.Topic, &g.Description,
			&g.SuggestedQuestions, &g.Priority, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: list gaps: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// replace deletes all rows of one artifact table for meetingID and runs
// insert inside the same transaction.
func (s *Store) replace(ctx context.Context, table, meetingID string, insert func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: replace %s: begin: %w", table, err)
	}
	defer tx.Rollback(ctx)

	// table is one of three compile-time constants, never user input.
	if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE meeting_id = $1", meetingID); err != nil {
		return fmt.Errorf("postgres: replace %s: delete: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return fmt.Errorf("postgres: replace %s: insert: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: replace %s: commit: %w", table, err)
	}
	return nil
}

// scanMeeting reads one meetings row from r.
func scanMeeting(r pgx.Row) (*meeting.Meeting, error) {
	var m meeting.Meeting
	if err := r.Scan(&m.ID, &m.UserID, &m.Title, &m.CallSID, &m.Status,
		&m.StartTime, &m.EndTime, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
