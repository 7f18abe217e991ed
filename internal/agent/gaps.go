package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parleyhq/parley/internal/meeting"
)

const gapsInstruction = `You are a meeting analysis assistant that finds gaps.
Given a meeting transcript, identify topics that were:
  - Raised but not resolved
  - Mentioned briefly without enough detail
  - Promised for follow-up but no clear next step
  - Questions that were asked but not answered

Return a JSON array of gap objects with:
  - "topic": short name for the gap
  - "description": 1-2 sentence explanation of the gap
  - "suggested_questions": array of 1-3 questions to address in the next meeting
  - "priority": "low", "medium", or "high"

Rules:
- Focus on substantive gaps, not minor details.
- If no meaningful gaps are found, return an empty array [].
- Only return the JSON array, nothing else.`

// GapsDefinition identifies unresolved topics for follow-up.
func GapsDefinition() Definition {
	return Definition{
		Name:        "gaps",
		Instruction: gapsInstruction,
		WrapperKeys: []string{"gaps", "open_topics", "items"},
		Temperature: 0.3,
		persist:     persistGaps,
	}
}

type gapRow struct {
	Topic              string   `json:"topic"`
	Description        *string  `json:"description"`
	SuggestedQuestions []string `json:"suggested_questions"`
	Priority           string   `json:"priority"`
}

func persistGaps(ctx context.Context, store meeting.Store, meetingID string, items []json.RawMessage) error {
	gaps := make([]meeting.Gap, 0, len(items))
	for _, item := range items {
		var row gapRow
		if err := json.Unmarshal(item, &row); err != nil {
			return fmt.Errorf("gap row: %w", err)
		}
		gaps = append(gaps, meeting.Gap{
			MeetingID:          meetingID,
			Topic:              row.Topic,
			Description:        deref(row.Description),
			SuggestedQuestions: row.SuggestedQuestions,
			Priority:           meeting.Priority(row.Priority),
		})
	}
	return store.ReplaceGaps(ctx, meetingID, gaps)
}
