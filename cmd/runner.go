package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
	"github.com/desertthunder/boardsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services and the sync engine are built on first use, so commands like config init run without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	board      services.BoardService
	program    services.ProgramService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.SyncEngine
	runID      string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Board      services.BoardService
	Program    services.ProgramService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		board:      opts.Board,
		program:    opts.Program,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		runID:      shared.GenerateID(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, loadCommand, serveCommand, webhooksCommand, boardCommand, configCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger. An engine built earlier keeps its logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// UseConfig loads the config file at path. A missing file keeps the defaults, so the error surfaces when a command
// first needs real settings.
func (r *Runner) UseConfig(path string) error {
	r.configPath = path
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

// Engine returns the sync engine, creating the service clients from config on first use.
func (r *Runner) Engine() (*tasks.SyncEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	if r.board == nil || r.program == nil {
		if err := r.config.Validate(); err != nil {
			return nil, fmt.Errorf("%w (config: %s)", err, r.configPath)
		}
	}

	if r.board == nil {
		board, err := services.NewBoardClient(services.BoardClientOpts{
			BaseURL:     r.config.Board.BaseURL,
			Key:         r.config.Board.Key,
			Token:       r.config.Board.Token,
			BoardID:     r.config.Board.BoardID,
			CallbackURL: r.config.Server.CallbackURL,
			MinInterval: r.config.Board.MinInterval(),
			HTTPClient:  r.httpClient,
		})
		if err != nil {
			return nil, err
		}
		r.board = board
	}

	if r.program == nil {
		program, err := services.NewProgramClient(services.ProgramClientOpts{
			BaseURL:     r.config.Program.BaseURL,
			AccessToken: r.config.Program.AccessToken,
			PageSize:    r.config.Program.PageSize,
			MinInterval: r.config.Program.MinInterval(),
			HTTPClient:  r.httpClient,
		})
		if err != nil {
			return nil, err
		}
		r.program = program
	}

	engine, err := tasks.NewSyncEngine(r.board, r.program, r.config, tasks.EngineOpts{
		CallbackURL: r.config.Server.CallbackURL,
		Logger:      shared.WithLogger(r.logger, "run", r.runID),
	})
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return engine, nil
}

// printProgress writes progress messages until the channel closes, then signals done.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		switch update.Phase {
		case tasks.LoadProgram, tasks.LoadBoard:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.PropagateCategories:
			r.writePlain("🏷  %s\n", update.Message)
		case tasks.WriteBoard, tasks.WriteProgram, tasks.LinkBoard:
			r.writePlain("📝 %s\n", update.Message)
		case tasks.SyncWebhooks:
			r.writePlain("🔗 %s\n", update.Message)
		}
	}
}

// withProgress runs fn with a progress channel that is printed unless quiet is set.
func (r *Runner) withProgress(quiet bool, fn func(chan<- tasks.ProgressUpdate) error) error {
	if quiet {
		return fn(nil)
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	err := fn(progress)
	close(progress)
	<-done
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

func (r *Runner) writeFailures(failures []tasks.RecordFailure) {
	if len(failures) == 0 {
		return
	}
	r.writePlain("\nFailed %d tasks:\n", len(failures))
	for _, f := range failures {
		r.writePlain("  - %s: %v\n", f.Task, f.Error)
	}
}
