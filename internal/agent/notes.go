package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parleyhq/parley/internal/meeting"
)

const notesInstruction = `You are a meeting note-taking assistant.
Given the transcript of a meeting, produce structured notes in JSON format.
Return a JSON array of objects, each with:
  - "section": one of "summary", "key_points", "decisions"
  - "content": the text for that section

Rules:
- The summary should be 2-4 sentences.
- key_points should be a bulleted list (use "- " prefixes).
- decisions should list any explicit decisions or agreements.
- If there are no decisions yet, omit that section.
- Only return the JSON array, nothing else.`

// NotesDefinition produces sectioned meeting notes.
func NotesDefinition() Definition {
	return Definition{
		Name:        "notes",
		Instruction: notesInstruction,
		WrapperKeys: []string{"notes", "sections", "note_sections", "meeting_notes"},
		Temperature: 0.3,
		persist:     persistNotes,
	}
}

type noteRow struct {
	Section string `json:"section"`
	Content string `json:"content"`
}

func persistNotes(ctx context.Context, store meeting.Store, meetingID string, items []json.RawMessage) error {
	notes := make([]meeting.Note, 0, len(items))
	for _, item := range items {
		var row noteRow
		if err := json.Unmarshal(item, &row); err != nil {
			return fmt.Errorf("note row: %w", err)
		}
		notes = append(notes, meeting.Note{
			MeetingID: meetingID,
			Section:   meeting.NoteSection(row.Section),
			Content:   row.Content,
		})
	}
	return store.ReplaceNotes(ctx, meetingID, notes)
}
