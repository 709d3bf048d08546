package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
)

// EventType is the board action type carried by a webhook notification.
type EventType string

const (
	EventUpdateCard            EventType = "updateCard"
	EventUpdateCustomFieldItem EventType = "updateCustomFieldItem"
)

// Event is one change notification from the board.
type Event struct {
	Type    EventType
	CardID  string
	Payload EventPayload
}

// EventPayload holds the parts of a board action the sync engine reads.
type EventPayload struct {
	Card *services.Card            // card state after the action
	Item *services.CustomFieldItem // changed item, for custom field actions
	Old  map[string]any            // previous values of the changed card attributes
}

// ChangedAttributes returns the sorted names of the card attributes the action changed.
func (p EventPayload) ChangedAttributes() []string {
	attrs := make([]string, 0, len(p.Old))
	for k := range p.Old {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)
	return attrs
}

// HandleRemoteEvent applies one board change to its task and writes the changed fields to the program service.
//
// Events are handled one at a time. Follow-ups run after the program write: an inferred category is pushed back to the
// board, and a newly created program id is written to the card's cross id field. Unsupported event types are logged
// and ignored.
func (e *SyncEngine) HandleRemoteEvent(ctx context.Context, event Event) error {
	e.eventMu.Lock()
	defer e.eventMu.Unlock()

	logger := e.logger.With("event", event.Type, "card", event.CardID)

	if event.Type != EventUpdateCard && event.Type != EventUpdateCustomFieldItem {
		logger.Info("ignoring unsupported event")
		return nil
	}
	if event.CardID == "" {
		return fmt.Errorf("%w: event has no card id", shared.ErrInvalidInput)
	}

	task := e.registry.FindOrCreateByBoardID(event.CardID)
	task.ClearDirty()

	switch event.Type {
	case EventUpdateCard:
		if event.Payload.Card == nil {
			return fmt.Errorf("%w: %s event without card", shared.ErrInvalidInput, event.Type)
		}
		if err := e.boardAdapter.ApplyCardChange(task, *event.Payload.Card, event.Payload.ChangedAttributes()); err != nil {
			return err
		}
	case EventUpdateCustomFieldItem:
		if event.Payload.Item == nil {
			return fmt.Errorf("%w: %s event without item", shared.ErrInvalidInput, event.Type)
		}
		if err := e.boardAdapter.ApplyCustomFieldChange(task, *event.Payload.Item); err != nil {
			return err
		}
	}

	fields := task.DirtyFields()
	logger.Debug("applying event", "task", task.Label(), "fields", fields)

	if err := e.programAdapter.WriteChangedFields(ctx, task, fields); err != nil {
		return fmt.Errorf("failed to write %s to program: %w", task.Label(), err)
	}

	if task.CategoryJustInferred {
		task.CategoryJustInferred = false
		if err := e.boardAdapter.PropagateCategoryChange(ctx, task); err != nil {
			return fmt.Errorf("failed to propagate categories of %s: %w", task.Label(), err)
		}
	}

	if task.CreatedOnProgram {
		task.CreatedOnProgram = false
		if err := e.boardAdapter.WriteChangedFields(ctx, task, []models.Field{models.FieldProgramID}); err != nil {
			return fmt.Errorf("failed to link card %s: %w", event.CardID, err)
		}
	}

	task.ClearDirty()
	return nil
}
