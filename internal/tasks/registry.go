package tasks

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/models"
)

// Key identifies a task by either id namespace. Empty members are ignored.
type Key struct {
	BoardID   string
	ProgramID string
}

// Registry owns every [models.Task] of a run and resolves identity across the board and program id namespaces.
//
// Tasks are kept in insertion order and indexed by both ids. Get-or-create is an atomic check-then-insert, so at most
// one task exists per distinct board id and per distinct program id.
type Registry struct {
	mu        sync.Mutex
	tasks     []*models.Task
	byBoard   map[string]*models.Task
	byProgram map[string]*models.Task
	defaults  models.Defaults
	logger    *log.Logger
}

// NewRegistry creates an empty registry. New tasks start with defaults.
func NewRegistry(defaults models.Defaults, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		byBoard:   make(map[string]*models.Task),
		byProgram: make(map[string]*models.Task),
		defaults:  defaults,
		logger:    logger,
	}
}

// FindOrCreateByBoardID returns the task with board id, creating it on a miss.
func (r *Registry) FindOrCreateByBoardID(id string) *models.Task {
	return r.FindOrCreate(Key{BoardID: id}, nil)
}

// FindOrCreateByProgramID returns the task with program id, creating it on a miss.
func (r *Registry) FindOrCreateByProgramID(id string) *models.Task {
	return r.FindOrCreate(Key{ProgramID: id}, nil)
}

// FindOrCreate resolves key through the index, board id first. A candidate is returned when match is nil or accepts
// it. On a miss a new task is created with the ids from key and indexed.
func (r *Registry) FindOrCreate(key Key, match func(*models.Task) bool) *models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, candidate := range r.candidates(key) {
		if match == nil || match(candidate) {
			return candidate
		}
	}

	t := r.create()
	if key.BoardID != "" {
		t.Set(models.FieldBoardID, key.BoardID)
	}
	if key.ProgramID != "" {
		t.Set(models.FieldProgramID, key.ProgramID)
	}
	r.index(t)
	return t
}

// FindOrCreateFunc returns the first task, in insertion order, accepted by predicate.
//
// On a miss a new task is created, passed to seed (when non-nil) and indexed.
func (r *Registry) FindOrCreateFunc(predicate func(*models.Task) bool, seed func(*models.Task)) *models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tasks {
		if predicate(t) {
			return t
		}
	}

	t := r.create()
	if seed != nil {
		seed(t)
	}
	r.index(t)
	return t
}

// Index records the current ids of t. Adapters call it after assigning a new id.
//
// An id already held by another task is left pointing at that task and logged.
func (r *Registry) Index(t *models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index(t)
}

// Forget drops the board id index entry, if it points at t.
func (r *Registry) Forget(t *models.Task, boardID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byBoard[boardID] == t {
		delete(r.byBoard, boardID)
	}
}

// Lookup resolves key without creating, board id first.
func (r *Registry) Lookup(key Key) (*models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.candidates(key)
	if len(c) == 0 {
		return nil, false
	}
	return c[0], true
}

// All returns the tasks in insertion order.
func (r *Registry) All() []*models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Task(nil), r.tasks...)
}

// Len returns the number of tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// ResetDirty clears the dirty set of every task.
func (r *Registry) ResetDirty() {
	for _, t := range r.All() {
		t.ClearDirty()
	}
}

func (r *Registry) candidates(key Key) []*models.Task {
	var found []*models.Task
	if key.BoardID != "" {
		if t, ok := r.byBoard[key.BoardID]; ok {
			found = append(found, t)
		}
	}
	if key.ProgramID != "" {
		if t, ok := r.byProgram[key.ProgramID]; ok {
			found = append(found, t)
		}
	}
	return found
}

func (r *Registry) create() *models.Task {
	t := models.NewTask(r.defaults, r.logger)
	r.tasks = append(r.tasks, t)
	return t
}

func (r *Registry) index(t *models.Task) {
	if id := t.BoardID(); id != "" {
		if existing, ok := r.byBoard[id]; ok && existing != t {
			r.logger.Warn("board id already belongs to another task", "card", id, "task", existing.Label())
		} else {
			r.byBoard[id] = t
		}
	}
	if id := t.ProgramID(); id != "" {
		if existing, ok := r.byProgram[id]; ok && existing != t {
			r.logger.Warn("program id already belongs to another task", "program_id", id, "task", existing.Label())
		} else {
			r.byProgram[id] = t
		}
	}
}
