package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/boardsync/internal/services"
)

// WebhookResult summarizes a webhook maintenance run.
type WebhookResult struct {
	Created  []services.Webhook
	Deleted  []services.Webhook
	Kept     int
	Failures []RecordFailure
}

// Webhooks returns the board webhooks that point at this engine's callback URL.
func (e *SyncEngine) Webhooks(ctx context.Context) ([]services.Webhook, error) {
	hooks, err := e.board.ListWebhooks(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]services.Webhook, 0, len(hooks))
	for _, h := range hooks {
		if e.callbackURL == "" || h.CallbackURL == e.callbackURL {
			owned = append(owned, h)
		}
	}
	return owned, nil
}

// SyncWebhooks keeps exactly one webhook per card known to the registry: missing ones are created, and webhooks for
// unknown cards or duplicates are deleted.
func (e *SyncEngine) SyncWebhooks(ctx context.Context, progress chan<- ProgressUpdate) (*WebhookResult, error) {
	hooks, err := e.Webhooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}

	cards := make(map[string]bool)
	var order []string
	for _, t := range e.registry.All() {
		if id := t.BoardID(); id != "" && !cards[id] {
			cards[id] = true
			order = append(order, id)
		}
	}

	covered := make(map[string]bool)
	var stale []services.Webhook
	for _, h := range hooks {
		if !cards[h.IDModel] || covered[h.IDModel] {
			stale = append(stale, h)
			continue
		}
		covered[h.IDModel] = true
	}

	var missing []string
	for _, id := range order {
		if !covered[id] {
			missing = append(missing, id)
		}
	}

	result := &WebhookResult{Kept: len(covered)}
	total := len(stale) + len(missing)
	step := 0

	for _, h := range stale {
		step++
		if err := e.board.DeleteWebhook(ctx, h.ID); err != nil {
			e.webhookFailure(result, h.IDModel, err)
			continue
		}
		result.Deleted = append(result.Deleted, h)
		e.sendProgress(progress, webhookUpdate(step, total, "deleted", h.IDModel))
	}

	for _, id := range missing {
		step++
		hook, err := e.board.CreateWebhook(ctx, id)
		if err != nil {
			e.webhookFailure(result, id, err)
			continue
		}
		result.Created = append(result.Created, *hook)
		e.sendProgress(progress, webhookUpdate(step, total, "created", id))
	}

	e.logger.Info("webhooks synced",
		"created", len(result.Created),
		"deleted", len(result.Deleted),
		"kept", result.Kept,
		"failures", len(result.Failures),
	)
	return result, nil
}

// PruneWebhooks deletes every webhook pointing at this engine's callback URL.
func (e *SyncEngine) PruneWebhooks(ctx context.Context, progress chan<- ProgressUpdate) (*WebhookResult, error) {
	hooks, err := e.Webhooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}

	result := &WebhookResult{}
	for i, h := range hooks {
		if err := e.board.DeleteWebhook(ctx, h.ID); err != nil {
			e.webhookFailure(result, h.IDModel, err)
			continue
		}
		result.Deleted = append(result.Deleted, h)
		e.sendProgress(progress, webhookUpdate(i+1, len(hooks), "deleted", h.IDModel))
	}

	e.logger.Info("webhooks pruned", "deleted", len(result.Deleted), "failures", len(result.Failures))
	return result, nil
}

func (e *SyncEngine) webhookFailure(result *WebhookResult, cardID string, err error) {
	e.logger.Error("webhook operation failed", "card", cardID, "err", err)
	result.Failures = append(result.Failures, RecordFailure{Task: cardID, Error: err})
}
