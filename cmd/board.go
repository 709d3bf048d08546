package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/boardsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// BoardDelete deletes a card from the board. A card that is already gone counts as deleted.
func (r *Runner) BoardDelete(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.String("id"))
	if id == "" {
		return fmt.Errorf("%w: --id", shared.ErrMissingArgument)
	}

	engine, err := r.Engine()
	if err != nil {
		return err
	}

	task := engine.Registry().FindOrCreateByBoardID(id)
	if err := engine.BoardAdapter().DeleteTask(ctx, task); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}

	r.writePlain("✓ Deleted card %s\n", id)
	return nil
}
