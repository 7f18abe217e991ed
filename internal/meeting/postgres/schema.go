// Package postgres provides the PostgreSQL-backed implementation of
// [meeting.Store].
//
// All record kinds share a single [pgxpool.Pool] connection pool. [Migrate]
// creates the five tables (meetings, transcript_segments, notes, tasks, gaps)
// if they do not already exist.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	m, _ := store.CreateMeeting(ctx, meeting.Meeting{Title: "Call ABC123"})
//	_ = store.InsertSegment(ctx, seg)
//	_ = store.ReplaceNotes(ctx, m.ID, notes)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlMeetings = `
CREATE TABLE IF NOT EXISTS meetings (
    id          TEXT         PRIMARY KEY,
    user_id     TEXT         NOT NULL DEFAULT '',
    title       TEXT         NOT NULL,
    call_sid    TEXT         NOT NULL DEFAULT '',
    status      TEXT         NOT NULL DEFAULT 'in_progress',
    start_time  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    end_time    TIMESTAMPTZ,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_meetings_user_id    ON meetings (user_id);
CREATE INDEX IF NOT EXISTS idx_meetings_created_at ON meetings (created_at);
`

const ddlSegments = `
CREATE TABLE IF NOT EXISTS transcript_segments (
    id          TEXT             PRIMARY KEY,
    meeting_id  TEXT             NOT NULL REFERENCES meetings (id) ON DELETE CASCADE,
    speaker     TEXT             NOT NULL DEFAULT '',
    content     TEXT             NOT NULL,
    start_time  DOUBLE PRECISION,
    end_time    DOUBLE PRECISION,
    confidence  DOUBLE PRECISION,
    created_at  TIMESTAMPTZ      NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_segments_meeting
    ON transcript_segments (meeting_id, created_at);
`

const ddlArtifacts = `
CREATE TABLE IF NOT EXISTS notes (
    id          TEXT         PRIMARY KEY,
    meeting_id  TEXT         NOT NULL REFERENCES meetings (id) ON DELETE CASCADE,
    section     TEXT         NOT NULL,
    content     TEXT         NOT NULL,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notes_meeting ON notes (meeting_id, created_at);

CREATE TABLE IF NOT EXISTS tasks (
    id          TEXT         PRIMARY KEY,
    meeting_id  TEXT         NOT NULL REFERENCES meetings (id) ON DELETE CASCADE,
    title       TEXT         NOT NULL,
    description TEXT         NOT NULL DEFAULT '',
    assigned_to TEXT         NOT NULL DEFAULT '',
    priority    TEXT         NOT NULL DEFAULT 'medium',
    due_date    TEXT         NOT NULL DEFAULT '',
    source_text TEXT         NOT NULL DEFAULT '',
    status      TEXT         NOT NULL DEFAULT 'pending',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tasks_meeting ON tasks (meeting_id, created_at);

CREATE TABLE IF NOT EXISTS gaps (
    id                  TEXT         PRIMARY KEY,
    meeting_id          TEXT         NOT NULL REFERENCES meetings (id) ON DELETE CASCADE,
    topic               TEXT         NOT NULL,
    description         TEXT         NOT NULL DEFAULT '',
    suggested_questions JSONB        NOT NULL DEFAULT '[]',
    priority            TEXT         NOT NULL DEFAULT 'medium',
    created_at          TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gaps_meeting ON gaps (meeting_id, created_at);
`

// Migrate creates all required tables and indexes. It is idempotent and safe
// to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []string{ddlMeetings, ddlSegments, ddlArtifacts} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
