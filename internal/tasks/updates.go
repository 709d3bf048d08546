package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadProgram Phase = iota
	LoadBoard
	PropagateCategories
	WriteBoard
	WriteProgram
	LinkBoard
	SyncWebhooks
	Done
)

func (p Phase) String() string {
	switch p {
	case LoadProgram:
		return "load_program"
	case LoadBoard:
		return "load_board"
	case PropagateCategories:
		return "propagate_categories"
	case WriteBoard:
		return "write_board"
	case WriteProgram:
		return "write_program"
	case LinkBoard:
		return "link_board"
	case SyncWebhooks:
		return "sync_webhooks"
	case Done:
		return "done"
	default:
		return ""
	}
}

func loadPageUpdate(page, loaded int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadProgram,
		Step:    page,
		Total:   0,
		Message: fmt.Sprintf("Loaded program page %d (%d tasks)...", page, loaded),
	}
}

func loadingBoardUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadBoard,
		Message: "Fetching cards from the board...",
	}
}

func loadCardUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadBoard,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func taskDoneUpdate(phase Phase, step, total int, label string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, label),
	}
}

func taskFailedUpdate(phase Phase, step, total int, label string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, label, err),
	}
}

func webhookUpdate(step, total int, action, cardID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncWebhooks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s webhook for card %s", step, total, action, cardID),
	}
}

func doneUpdate(summary string, data any) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: summary,
		Data:    data,
	}
}
