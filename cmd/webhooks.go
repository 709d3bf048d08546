package main

import (
	"context"

	"github.com/desertthunder/boardsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// WebhooksList prints the webhooks registered with the configured callback URL.
func (r *Runner) WebhooksList(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.Engine()
	if err != nil {
		return err
	}

	hooks, err := engine.Webhooks(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(hooks, true)
	}

	r.writePlainHeader("Webhooks")
	if len(hooks) == 0 {
		r.writePlain("No webhooks registered for %s\n", r.config.Server.CallbackURL)
		return nil
	}
	for _, h := range hooks {
		status := "active"
		if !h.Active {
			status = "inactive"
		}
		r.writePlain("%s  card %s  (%s)\n", h.ID, h.IDModel, status)
	}
	return nil
}

// WebhooksSync loads the board and reconciles webhook registrations with its cards.
func (r *Runner) WebhooksSync(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.Engine()
	if err != nil {
		return err
	}

	var result *tasks.WebhookResult
	err = r.withProgress(false, func(progress chan<- tasks.ProgressUpdate) error {
		if _, err := engine.LoadAllFromBoard(ctx, progress); err != nil {
			return err
		}
		var err error
		result, err = engine.SyncWebhooks(ctx, progress)
		return err
	})
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Webhooks Reconciled")
	r.writePlain("Created: %d\nDeleted: %d\nKept: %d\n", len(result.Created), len(result.Deleted), result.Kept)
	r.writeFailures(result.Failures)
	return nil
}

// WebhooksPrune removes every webhook registered with the configured callback URL.
func (r *Runner) WebhooksPrune(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.Engine()
	if err != nil {
		return err
	}

	var result *tasks.WebhookResult
	err = r.withProgress(false, func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.PruneWebhooks(ctx, progress)
		return err
	})
	if err != nil {
		return err
	}

	r.writePlain("✓ Deleted %d webhooks\n", len(result.Deleted))
	r.writeFailures(result.Failures)
	return nil
}
