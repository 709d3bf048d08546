package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration file.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Wrote %s\n", path)
	r.writePlain("Fill in the board credentials, list ids and custom field ids before running sync.\n")
	return nil
}

// ConfigCheck validates the loaded configuration, including the board layout and defaults.
func (r *Runner) ConfigCheck(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if _, err := models.ParseDefaults(r.config.Defaults); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	missing := 0
	for _, c := range models.Categories() {
		if r.config.Board.Lists[c.String()] == "" {
			r.logger.Warn("no list configured for category", "category", c)
			missing++
		}
	}

	r.writePlain("✓ Configuration OK (%s)\n", r.configPath)
	if missing > 0 {
		r.writePlain("  %d categories have no list; cards in them fall back to the default list\n", missing)
	}
	return nil
}
