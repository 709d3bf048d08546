package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
)

const (
	defaultWorkers = 5
	maxWorkers     = 20
)

// WriteMode selects what a write pass sends.
type WriteMode int

const (
	WriteEverything WriteMode = iota // every backed field of every task
	WriteChanged                     // only dirty fields
)

func (m WriteMode) String() string {
	if m == WriteChanged {
		return "changed"
	}
	return "everything"
}

// RecordFailure is one task that failed during a pass.
type RecordFailure struct {
	Task  string // task label
	Error error
}

// PassResult summarizes one load or write pass over the registry.
type PassResult struct {
	Phase     Phase
	Processed int
	Failures  []RecordFailure
}

// Succeeded returns the number of tasks processed without error.
func (r PassResult) Succeeded() int {
	return r.Processed - len(r.Failures)
}

// LoadResult contains the results of [SyncEngine.LoadAll].
type LoadResult struct {
	Program    PassResult
	Board      PassResult
	Propagated PassResult
	Tasks      int // registry size after loading
}

// WriteResult contains the results of [SyncEngine.WriteAll].
type WriteResult struct {
	Mode    WriteMode
	Board   PassResult
	Program PassResult
	Linked  PassResult // cross ids written to cards after program tasks were created
}

// Failures returns the failures of every write pass.
func (r *WriteResult) Failures() []RecordFailure {
	failures := append([]RecordFailure(nil), r.Board.Failures...)
	failures = append(failures, r.Program.Failures...)
	return append(failures, r.Linked.Failures...)
}

// SyncResult contains the results of [SyncEngine.Sync].
type SyncResult struct {
	Load  *LoadResult
	Write *WriteResult
}

// Failures returns every per-task failure of the run.
func (r *SyncResult) Failures() []RecordFailure {
	var failures []RecordFailure
	if r.Load != nil {
		failures = append(failures, r.Load.Program.Failures...)
		failures = append(failures, r.Load.Board.Failures...)
		failures = append(failures, r.Load.Propagated.Failures...)
	}
	if r.Write != nil {
		failures = append(failures, r.Write.Failures()...)
	}
	return failures
}

// EngineOpts configures a [SyncEngine].
type EngineOpts struct {
	Workers     int    // concurrent remote calls per pass (default: 5, max: 20)
	CallbackURL string // webhooks registered with another callback are left alone
	Logger      *log.Logger
}

// SyncEngine drives load and write passes between the board and program services and applies webhook events.
//
// Passes fan out over a bounded worker pool; a failure on one task is collected and logged without aborting the
// others.
type SyncEngine struct {
	board          services.BoardService
	program        services.ProgramService
	registry       *Registry
	boardAdapter   *BoardAdapter
	programAdapter *ProgramAdapter
	workers        int
	callbackURL    string
	logger         *log.Logger

	eventMu sync.Mutex
}

// NewSyncEngine wires a registry and both adapters from cfg around the given services.
func NewSyncEngine(board services.BoardService, program services.ProgramService, cfg *shared.Config, opts EngineOpts) (*SyncEngine, error) {
	if board == nil {
		return nil, fmt.Errorf("%w: board service not initialized", shared.ErrServiceUnavailable)
	}
	if program == nil {
		return nil, fmt.Errorf("%w: program service not initialized", shared.ErrServiceUnavailable)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	defaults, err := models.ParseDefaults(cfg.Defaults)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry(defaults, logger)
	boardAdapter, err := NewBoardAdapter(board, registry, cfg.Board, logger)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Sync.Workers
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	callbackURL := opts.CallbackURL
	if callbackURL == "" {
		callbackURL = cfg.Server.CallbackURL
	}

	return &SyncEngine{
		board:          board,
		program:        program,
		registry:       registry,
		boardAdapter:   boardAdapter,
		programAdapter: NewProgramAdapter(program, registry, logger),
		workers:        workers,
		callbackURL:    callbackURL,
		logger:         logger,
	}, nil
}

// Registry returns the registry holding the engine's tasks.
func (e *SyncEngine) Registry() *Registry { return e.registry }

// BoardAdapter returns the engine's board adapter.
func (e *SyncEngine) BoardAdapter() *BoardAdapter { return e.boardAdapter }

// ProgramAdapter returns the engine's program adapter.
func (e *SyncEngine) ProgramAdapter() *ProgramAdapter { return e.programAdapter }

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// LoadAll loads the program service, then the board, so board values win conflicts between two non-empty values.
//
// Categories inferred from list placement are then pushed back to the board, and the one-shot flags are cleared.
// A failed fetch aborts the load; per-task failures are collected.
func (e *SyncEngine) LoadAll(ctx context.Context, progress chan<- ProgressUpdate) (*LoadResult, error) {
	result := &LoadResult{}

	program, err := e.LoadAllFromProgram(ctx, progress)
	if err != nil {
		return nil, err
	}
	result.Program = *program

	board, err := e.LoadAllFromBoard(ctx, progress)
	if err != nil {
		return nil, err
	}
	result.Board = *board

	result.Propagated = e.PropagateInferredCategories(ctx, progress)

	for _, t := range e.registry.All() {
		t.CategoryJustInferred = false
		t.CreatedOnBoard = false
		t.CreatedOnProgram = false
	}

	result.Tasks = e.registry.Len()
	e.logger.Info("load complete",
		"tasks", result.Tasks,
		"program", result.Program.Processed,
		"board", result.Board.Processed,
		"propagated", result.Propagated.Processed,
	)
	return result, nil
}

// LoadAllFromProgram folds every program task into the registry, page by page.
func (e *SyncEngine) LoadAllFromProgram(ctx context.Context, progress chan<- ProgressUpdate) (*PassResult, error) {
	result := &PassResult{Phase: LoadProgram}
	pages := 0

	err := services.EachTaskPage(ctx, e.program, func(page *services.TaskPage) error {
		pages++
		for _, pt := range page.Results {
			result.Processed++

			task := e.registry.FindOrCreate(e.programAdapter.Key(pt), func(t *models.Task) bool {
				return e.programAdapter.MatchRecord(t, pt)
			})
			if err := e.programAdapter.ParseIntoRecord(pt, task); err != nil {
				e.recordFailure(result, task, err)
				continue
			}
			e.registry.Index(task)
		}
		e.sendProgress(progress, loadPageUpdate(pages, result.Processed))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load from %s: %w", e.program.Name(), err)
	}
	return result, nil
}

// LoadAllFromBoard folds every card of the board into the registry.
func (e *SyncEngine) LoadAllFromBoard(ctx context.Context, progress chan<- ProgressUpdate) (*PassResult, error) {
	result := &PassResult{Phase: LoadBoard}
	e.sendProgress(progress, loadingBoardUpdate())

	cards, err := e.board.FetchAllCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load from %s: %w", e.board.Name(), err)
	}

	for i, card := range cards {
		result.Processed++

		task := e.registry.FindOrCreate(e.boardAdapter.Key(card), func(t *models.Task) bool {
			return e.boardAdapter.MatchRecord(t, card)
		})
		if err := e.boardAdapter.ParseIntoRecord(card, task); err != nil {
			e.recordFailure(result, task, err)
			continue
		}
		e.registry.Index(task)
		e.sendProgress(progress, loadCardUpdate(i+1, len(cards), card.Name))
	}
	return result, nil
}

// PropagateInferredCategories writes the category checkboxes of every task whose last board parse inferred a
// category from its list.
func (e *SyncEngine) PropagateInferredCategories(ctx context.Context, progress chan<- ProgressUpdate) PassResult {
	var inferred []*models.Task
	for _, t := range e.registry.All() {
		if t.CategoryJustInferred {
			inferred = append(inferred, t)
		}
	}

	return e.runPass(ctx, progress, PropagateCategories, inferred, func(ctx context.Context, t *models.Task) error {
		return e.boardAdapter.PropagateCategoryChange(ctx, t)
	})
}

// WriteAll writes every task to the board, then to the program service, and resets all dirty sets.
//
// In [WriteChanged] mode the dirty sets are captured before the board pass. The program pass also receives fields
// the board pass changed, such as the id of a newly created card. Tasks the program pass created then get their new
// program id written to the card's cross id field.
func (e *SyncEngine) WriteAll(ctx context.Context, mode WriteMode, progress chan<- ProgressUpdate) (*WriteResult, error) {
	tasks := e.registry.All()
	result := &WriteResult{Mode: mode}

	dirty := make(map[*models.Task][]models.Field, len(tasks))
	if mode == WriteChanged {
		for _, t := range tasks {
			dirty[t] = t.DirtyFields()
		}
	}

	result.Board = e.runPass(ctx, progress, WriteBoard, tasks, func(ctx context.Context, t *models.Task) error {
		if mode == WriteEverything {
			return e.boardAdapter.WriteFullTask(ctx, t)
		}
		return e.boardAdapter.WriteChangedFields(ctx, t, dirty[t])
	})

	result.Program = e.runPass(ctx, progress, WriteProgram, tasks, func(ctx context.Context, t *models.Task) error {
		if mode == WriteEverything {
			return e.programAdapter.WriteFullTask(ctx, t)
		}
		return e.programAdapter.WriteChangedFields(ctx, t, mergeFields(dirty[t], t.DirtyFields()))
	})

	result.Linked = e.LinkCreatedProgramTasks(ctx, progress)

	e.registry.ResetDirty()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.logger.Info("write complete",
		"mode", mode,
		"board_ok", result.Board.Succeeded(),
		"program_ok", result.Program.Succeeded(),
		"linked", result.Linked.Succeeded(),
		"failures", len(result.Failures()),
	)
	e.sendProgress(progress, doneUpdate(
		fmt.Sprintf("Wrote %d tasks (%d failures)", len(tasks), len(result.Failures())),
		result,
	))
	return result, nil
}

// LinkCreatedProgramTasks writes the program id of every task whose program task was just created to its card, and
// clears [models.Task.CreatedOnProgram]. Tasks without a card are skipped.
func (e *SyncEngine) LinkCreatedProgramTasks(ctx context.Context, progress chan<- ProgressUpdate) PassResult {
	var created []*models.Task
	for _, t := range e.registry.All() {
		if !t.CreatedOnProgram {
			continue
		}
		t.CreatedOnProgram = false
		if t.BoardID() != "" {
			created = append(created, t)
		}
	}

	return e.runPass(ctx, progress, LinkBoard, created, func(ctx context.Context, t *models.Task) error {
		return e.boardAdapter.WriteChangedFields(ctx, t, []models.Field{models.FieldProgramID})
	})
}

// Sync runs a full reconciliation: [SyncEngine.LoadAll] followed by [SyncEngine.WriteAll] in the given mode.
//
// Fields merged during the load stay dirty, so [WriteChanged] sends every value the load set.
func (e *SyncEngine) Sync(ctx context.Context, mode WriteMode, progress chan<- ProgressUpdate) (*SyncResult, error) {
	result := &SyncResult{}

	load, err := e.LoadAll(ctx, progress)
	if err != nil {
		return nil, err
	}
	result.Load = load

	write, err := e.WriteAll(ctx, mode, progress)
	result.Write = write
	if err != nil {
		return result, err
	}
	return result, nil
}

// runPass applies fn to every task on a bounded worker pool, collecting failures.
//
// Calls for a single task stay sequential inside fn; only distinct tasks run concurrently.
func (e *SyncEngine) runPass(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	phase Phase,
	tasks []*models.Task,
	fn func(context.Context, *models.Task) error,
) PassResult {
	result := PassResult{Phase: phase}
	if len(tasks) == 0 {
		return result
	}

	type outcome struct {
		task *models.Task
		err  error
	}

	jobs := make(chan *models.Task, len(tasks))
	results := make(chan outcome, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < min(e.workers, len(tasks)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				if err := ctx.Err(); err != nil {
					results <- outcome{task: t, err: err}
					continue
				}
				results <- outcome{task: t, err: fn(ctx, t)}
			}
		}()
	}

	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Processed++
		label := res.task.Label()

		if res.err != nil {
			e.recordFailure(&result, res.task, res.err)
			e.sendProgress(progress, taskFailedUpdate(phase, result.Processed, len(tasks), label, res.err))
			continue
		}
		e.sendProgress(progress, taskDoneUpdate(phase, result.Processed, len(tasks), label))
	}
	return result
}

func (e *SyncEngine) recordFailure(result *PassResult, task *models.Task, err error) {
	label := task.Label()
	e.logger.Error("task failed", "phase", result.Phase, "task", label, "err", err)
	result.Failures = append(result.Failures, RecordFailure{Task: label, Error: err})
}

// mergeFields returns the union of a and b in field order.
func mergeFields(a, b []models.Field) []models.Field {
	seen := make(map[models.Field]bool, len(a)+len(b))
	for _, f := range a {
		seen[f] = true
	}
	for _, f := range b {
		seen[f] = true
	}

	var merged []models.Field
	for _, f := range models.Fields() {
		if seen[f] {
			merged = append(merged, f)
		}
	}
	return merged
}
