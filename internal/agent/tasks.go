package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parleyhq/parley/internal/meeting"
)

const tasksInstruction = `You are a task extraction assistant.
Given a meeting transcript, identify actionable tasks that were discussed or assigned.

Return a JSON array of task objects with these fields:
  - "title": short description of the task
  - "description": fuller context (1-2 sentences)
  - "assigned_to": name of the person responsible (or null if unclear)
  - "priority": "low", "medium", or "high"
  - "due_date": ISO date string if mentioned, or null
  - "source_text": the exact quote from the transcript that led to this task

Rules:
- Only include concrete, actionable tasks, not vague suggestions.
- If no tasks are found, return an empty array [].
- Only return the JSON array, nothing else.`

// TasksDefinition extracts action items.
func TasksDefinition() Definition {
	return Definition{
		Name:        "tasks",
		Instruction: tasksInstruction,
		WrapperKeys: []string{"tasks", "action_items", "items"},
		Temperature: 0.2,
		persist:     persistTasks,
	}
}

type taskRow struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assigned_to"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	SourceText  *string `json:"source_text"`
}

func persistTasks(ctx context.Context, store meeting.Store, meetingID string, items []json.RawMessage) error {
	tasks := make([]meeting.Task, 0, len(items))
	for _, item := range items {
		var row taskRow
		if err := json.Unmarshal(item, &row); err != nil {
			return fmt.Errorf("task row: %w", err)
		}
		tasks = append(tasks, meeting.Task{
			MeetingID:   meetingID,
			Title:       row.Title,
			Description: deref(row.Description),
			AssignedTo:  deref(row.AssignedTo),
			Priority:    meeting.Priority(row.Priority),
			DueDate:     deref(row.DueDate),
			SourceText:  deref(row.SourceText),
			Status:      meeting.TaskPending,
		})
	}
	return store.ReplaceTasks(ctx, meetingID, tasks)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
