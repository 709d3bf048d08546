// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// syncCommand runs a full load and write
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Load both services, reconcile, and write tasks back to each",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "changed",
				Usage: "Only send fields that changed while loading",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress output",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
		},
		Action: r.Sync,
	}
}

// loadCommand loads and reports without writing
func loadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Load and reconcile tasks from both services, then print a report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format (csv, markdown, json)",
				Value:   "markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Report title (markdown only)",
				Value: "Tasks",
			},
			&cli.BoolFlag{
				Name:  "propagate",
				Usage: "Push categories inferred from list placement back to the board",
			},
		},
		Action: r.Load,
	}
}

// serveCommand runs the webhook receiver
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Load tasks, then apply board changes as webhook notifications arrive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from config)",
			},
			&cli.BoolFlag{
				Name:  "webhooks",
				Usage: "Reconcile webhook registrations after loading",
			},
		},
		Action: r.Serve,
	}
}

// webhooksCommand manages board webhook registrations
func webhooksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "webhooks",
		Aliases: []string{"hooks"},
		Usage:   "Manage board webhook registrations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List webhooks registered with the configured callback URL",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.WebhooksList,
			},
			{
				Name:   "sync",
				Usage:  "Register one webhook per card and remove stale or duplicate ones",
				Action: r.WebhooksSync,
			},
			{
				Name:   "prune",
				Usage:  "Remove every webhook registered with the configured callback URL",
				Action: r.WebhooksPrune,
			},
		},
	}
}

// boardCommand holds direct board operations
func boardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "Board operations",
		Commands: []*cli.Command{
			{
				Name:  "delete",
				Usage: "Delete a card from the board",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Card ID to delete",
						Required: true,
					},
				},
				Action: r.BoardDelete,
			},
		},
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the file (default: the --config path)",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "check",
				Usage:  "Validate the loaded configuration",
				Action: r.ConfigCheck,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for an interactive sync run.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for a sync run",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "changed",
				Usage: "Start in changed-only mode",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file used while the TUI owns the terminal",
				Value: "./tmp/boardsync-tui.log",
			},
		},
		Action: r.TUI,
	}
}
