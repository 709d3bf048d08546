package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/boardsync/internal/formatter"
	"github.com/desertthunder/boardsync/internal/tasks"
	"github.com/desertthunder/boardsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// syncSummary is the JSON shape of a sync run.
type syncSummary struct {
	RunID          string           `json:"run_id"`
	Mode           string           `json:"mode"`
	Tasks          int              `json:"tasks"`
	LoadedProgram  int              `json:"loaded_program"`
	LoadedBoard    int              `json:"loaded_board"`
	Propagated     int              `json:"propagated"`
	BoardWritten   int              `json:"board_written"`
	ProgramWritten int              `json:"program_written"`
	Linked         int              `json:"linked"`
	Failures       []failureSummary `json:"failures"`
}

type failureSummary struct {
	Task  string `json:"task"`
	Error string `json:"error"`
}

func newSyncSummary(runID string, result *tasks.SyncResult) syncSummary {
	summary := syncSummary{RunID: runID, Failures: []failureSummary{}}
	if load := result.Load; load != nil {
		summary.Tasks = load.Tasks
		summary.LoadedProgram = load.Program.Processed
		summary.LoadedBoard = load.Board.Processed
		summary.Propagated = load.Propagated.Succeeded()
	}
	if write := result.Write; write != nil {
		summary.Mode = write.Mode.String()
		summary.BoardWritten = write.Board.Succeeded()
		summary.ProgramWritten = write.Program.Succeeded()
		summary.Linked = write.Linked.Succeeded()
	}
	for _, f := range result.Failures() {
		summary.Failures = append(summary.Failures, failureSummary{Task: f.Task, Error: f.Error.Error()})
	}
	return summary
}

// Sync loads both services, reconciles them, and writes every task back.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.Engine()
	if err != nil {
		return err
	}

	mode := tasks.WriteEverything
	if cmd.Bool("changed") {
		mode = tasks.WriteChanged
	}
	asJSON := cmd.Bool("json")

	r.logger.Info("starting sync", "run", r.runID, "mode", mode)

	var result *tasks.SyncResult
	err = r.withProgress(cmd.Bool("quiet") || asJSON, func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Sync(ctx, mode, progress)
		return err
	})
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(newSyncSummary(r.runID, result), true)
	}

	summary := newSyncSummary(r.runID, result)
	r.writePlain("\n")
	r.writePlainHeader("Sync Complete!")
	r.writePlain("Mode: %s\n", summary.Mode)
	r.writePlain("Tasks: %d (program %d, board %d)\n", summary.Tasks, summary.LoadedProgram, summary.LoadedBoard)
	r.writePlain("Board: %s\n", ui.Summary(result.Write.Board.Succeeded(), len(result.Write.Board.Failures)))
	r.writePlain("Program: %s\n", ui.Summary(result.Write.Program.Succeeded(), len(result.Write.Program.Failures)))
	r.writeFailures(result.Failures())
	return nil
}

// Load loads and reconciles tasks without writing them, then prints a report.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine, err := r.Engine()
	if err != nil {
		return err
	}

	var result *tasks.LoadResult
	if cmd.Bool("propagate") {
		result, err = engine.LoadAll(ctx, nil)
	} else {
		result, err = r.loadWithoutPropagation(ctx, engine)
	}
	if err != nil {
		return err
	}

	all := engine.Registry().All()
	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(format, path, cmd.String("title"), all)
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %d tasks to %s\n", len(all), written)
	} else {
		data, err := formatter.Export(format, cmd.String("title"), all)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	failures := append(append([]tasks.RecordFailure(nil), result.Program.Failures...), result.Board.Failures...)
	for _, f := range failures {
		r.logger.Warn("task failed to load", "task", f.Task, "error", f.Error)
	}
	return nil
}

// loadWithoutPropagation runs both load passes but leaves the board untouched.
func (r *Runner) loadWithoutPropagation(ctx context.Context, engine *tasks.SyncEngine) (*tasks.LoadResult, error) {
	result := &tasks.LoadResult{}

	program, err := engine.LoadAllFromProgram(ctx, nil)
	if err != nil {
		return nil, err
	}
	result.Program = *program

	board, err := engine.LoadAllFromBoard(ctx, nil)
	if err != nil {
		return nil, err
	}
	result.Board = *board
	result.Tasks = engine.Registry().Len()
	return result, nil
}
