package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
)

// programAttributes names the program API attribute backing each writable task field.
var programAttributes = map[models.Field]string{
	models.FieldBoardID:     "board_card_id",
	models.FieldName:        "title",
	models.FieldDescription: "notes",
	models.FieldCategories:  "categories",
	models.FieldTags:        "tags",
	models.FieldOwner:       "owner",
	models.FieldPoints:      "points",
	models.FieldBlocked:     "blocked",
	models.FieldDue:         "due",
}

// ProgramAdapter converts between program tasks and task records and implements the program write protocol.
type ProgramAdapter struct {
	program  services.ProgramService
	registry *Registry
	logger   *log.Logger
}

// NewProgramAdapter creates a program adapter.
func NewProgramAdapter(program services.ProgramService, registry *Registry, logger *log.Logger) *ProgramAdapter {
	if logger == nil {
		logger = log.Default()
	}
	return &ProgramAdapter{program: program, registry: registry, logger: logger}
}

// Key returns the registry key for pt.
func (a *ProgramAdapter) Key(pt services.ProgramTask) Key {
	return Key{BoardID: pt.BoardCardID, ProgramID: pt.ID}
}

// ParseIntoRecord folds pt into task with conditional writes. The program modification time is always written.
//
// Unknown category names are logged and skipped.
func (a *ProgramAdapter) ParseIntoRecord(pt services.ProgramTask, task *models.Task) error {
	cats := make([]models.Category, 0, len(pt.Categories))
	for _, name := range pt.Categories {
		c, err := models.ParseCategory(name)
		if err != nil {
			a.logger.Warn("skipping unknown category", "program_id", pt.ID, "category", name)
			continue
		}
		if !models.ContainsCategory(cats, c) {
			cats = append(cats, c)
		}
	}

	var points, blocked, due any
	if pt.Points != nil {
		points = *pt.Points
	}
	if pt.Blocked != nil {
		blocked = *pt.Blocked
	}
	if pt.Due != nil {
		due = *pt.Due
	}

	values := []struct {
		field models.Field
		value any
	}{
		{models.FieldProgramID, pt.ID},
		{models.FieldBoardID, pt.BoardCardID},
		{models.FieldName, pt.Title},
		{models.FieldDescription, pt.Notes},
		{models.FieldCategories, cats},
		{models.FieldTags, append([]string{}, pt.Tags...)},
		{models.FieldOwner, pt.Owner},
		{models.FieldPoints, points},
		{models.FieldBlocked, blocked},
		{models.FieldDue, due},
	}
	for _, v := range values {
		if _, err := task.SetIfMeaningful(v.field, v.value); err != nil {
			return err
		}
	}

	var modified any
	if !pt.Updated.IsZero() {
		modified = pt.Updated
	}
	return task.Set(models.FieldProgramModified, modified)
}

// MatchRecord reports whether pt belongs to task: same program id, else pt's board card id equals the task's board id.
func (a *ProgramAdapter) MatchRecord(task *models.Task, pt services.ProgramTask) bool {
	if id := task.ProgramID(); id != "" && id == pt.ID {
		return true
	}
	id := task.BoardID()
	return id != "" && id == pt.BoardCardID
}

// WriteFullTask writes every program-backed field, creating the task when it has no program id or it is gone.
func (a *ProgramAdapter) WriteFullTask(ctx context.Context, task *models.Task) error {
	return a.writeOrCreate(ctx, task, a.patch(task, models.Fields()))
}

// WriteChangedFields patches only fields. A task without a program id is created in full.
func (a *ProgramAdapter) WriteChangedFields(ctx context.Context, task *models.Task, fields []models.Field) error {
	if len(fields) == 0 {
		return nil
	}

	patch := a.patch(task, fields)
	if task.ProgramID() != "" && len(patch) == 0 {
		task.CreatedOnProgram = false
		return nil
	}
	return a.writeOrCreate(ctx, task, patch)
}

func (a *ProgramAdapter) writeOrCreate(ctx context.Context, task *models.Task, patch map[string]any) error {
	task.CreatedOnProgram = false

	if id := task.ProgramID(); id != "" {
		_, err := a.program.UpdateTask(ctx, id, patch)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		a.logger.Warn("program task no longer exists, recreating", "program_id", id, "task", task.Label())
	}

	created, err := a.program.CreateTask(ctx, a.toProgramTask(task))
	if err != nil {
		return err
	}
	if created.ID == "" {
		return fmt.Errorf("%w: program service returned no id for %s", shared.ErrAPIRequest, task.Label())
	}
	if err := task.Set(models.FieldProgramID, created.ID); err != nil {
		return err
	}
	a.registry.Index(task)
	task.CreatedOnProgram = true

	a.logger.Info("created program task", "program_id", created.ID, "task", task.Label())
	return nil
}

// patch builds the partial update for fields. Fields with no program attribute are skipped.
func (a *ProgramAdapter) patch(task *models.Task, fields []models.Field) map[string]any {
	patch := make(map[string]any)
	for _, f := range fields {
		attr, ok := programAttributes[f]
		if !ok {
			continue
		}

		v, _ := task.Get(f)
		switch x := v.(type) {
		case []models.Category:
			names := make([]string, 0, len(x))
			for _, c := range x {
				names = append(names, c.String())
			}
			v = names
		case time.Time:
			if x.IsZero() {
				v = nil
			}
		}
		patch[attr] = v
	}
	return patch
}

func (a *ProgramAdapter) toProgramTask(task *models.Task) services.ProgramTask {
	pt := services.ProgramTask{
		Title:       task.String(models.FieldName),
		Notes:       task.String(models.FieldDescription),
		Categories:  []string{},
		Tags:        task.Tags(),
		Owner:       task.String(models.FieldOwner),
		BoardCardID: task.BoardID(),
	}
	for _, c := range task.Categories() {
		pt.Categories = append(pt.Categories, c.String())
	}
	if pt.Tags == nil {
		pt.Tags = []string{}
	}
	if v, _ := task.Get(models.FieldPoints); v != nil {
		points := task.Int(models.FieldPoints)
		pt.Points = &points
	}
	if v, _ := task.Get(models.FieldBlocked); v != nil {
		blocked := task.Bool(models.FieldBlocked)
		pt.Blocked = &blocked
	}
	if due := task.Time(models.FieldDue); !due.IsZero() {
		pt.Due = &due
	}
	return pt
}
