package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
)

// customBinding maps one board custom field to the task field (or category) it carries.
type customBinding struct {
	fieldID  string
	field    models.Field
	kind     services.CustomFieldKind
	category models.Category // set when field is FieldCategories
}

// BoardAdapter converts between board cards and tasks and implements the board write protocol.
type BoardAdapter struct {
	board    services.BoardService
	registry *Registry
	logger   *log.Logger

	lists          map[models.Category]string // category -> list id
	listCategories map[string]models.Category // list id -> category
	defaultList    string

	categoryFields map[models.Category]string
	bindings       []customBinding          // declaration order, categories first
	byCustomID     map[string]customBinding // custom field id -> binding
	programIDField string

	mu        sync.Mutex
	cardLists map[string]string // card id -> last list seen
}

// NewBoardAdapter builds an adapter from the static board layout in cfg.
//
// Category names in [board.lists] must be known categories. Custom fields left blank in config are not synced.
func NewBoardAdapter(board services.BoardService, registry *Registry, cfg shared.BoardConfig, logger *log.Logger) (*BoardAdapter, error) {
	if logger == nil {
		logger = log.Default()
	}

	a := &BoardAdapter{
		board:          board,
		registry:       registry,
		logger:         logger,
		lists:          make(map[models.Category]string),
		listCategories: make(map[string]models.Category),
		defaultList:    cfg.DefaultListID,
		byCustomID:     make(map[string]customBinding),
		programIDField: cfg.CustomFields.ProgramID,
		cardLists:      make(map[string]string),
	}

	for name, listID := range cfg.Lists {
		c, err := models.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("%w: board.lists: %v", shared.ErrInvalidConfig, err)
		}
		if listID == "" {
			continue
		}
		if other, ok := a.listCategories[listID]; ok {
			return nil, fmt.Errorf("%w: list %s is mapped to both %s and %s", shared.ErrInvalidConfig, listID, other, c)
		}
		a.lists[c] = listID
		a.listCategories[listID] = c
	}

	cf := cfg.CustomFields
	a.categoryFields = map[models.Category]string{
		models.CategoryDesign:       cf.IsDesign,
		models.CategoryCoding:       cf.IsCode,
		models.CategoryDocsTraining: cf.IsDocs,
		models.CategoryOutResearch:  cf.IsResearch,
		models.CategoryQA:           cf.IsQA,
	}
	for _, c := range models.Categories() {
		a.bind(customBinding{fieldID: a.categoryFields[c], field: models.FieldCategories, kind: services.CustomFieldChecked, category: c})
	}
	a.bind(customBinding{fieldID: cf.ProgramID, field: models.FieldProgramID, kind: services.CustomFieldText})
	a.bind(customBinding{fieldID: cf.Tags, field: models.FieldTags, kind: services.CustomFieldText})
	a.bind(customBinding{fieldID: cf.Owner, field: models.FieldOwner, kind: services.CustomFieldText})
	a.bind(customBinding{fieldID: cf.Points, field: models.FieldPoints, kind: services.CustomFieldNumber})
	a.bind(customBinding{fieldID: cf.Blocked, field: models.FieldBlocked, kind: services.CustomFieldChecked})

	return a, nil
}

func (a *BoardAdapter) bind(b customBinding) {
	if b.fieldID == "" {
		return
	}
	a.bindings = append(a.bindings, b)
	a.byCustomID[b.fieldID] = b
}

// Key returns the registry key for card: its id and the program id it carries, if any.
func (a *BoardAdapter) Key(card services.Card) Key {
	key := Key{BoardID: card.ID}
	if v, err := a.customValue(card, a.programIDField, services.CustomFieldText); err == nil {
		key.ProgramID, _ = v.(string)
	}
	return key
}

// ParseIntoRecord folds card into task.
//
// Mapped fields use [models.Task.SetIfMeaningful] so a blank card value never erases a known one. The board
// modification time is always written. Sets [models.Task.CategoryJustInferred] when the card's list added a category.
func (a *BoardAdapter) ParseIntoRecord(card services.Card, task *models.Task) error {
	var due any
	if card.Due != nil {
		due = *card.Due
	}

	main := []struct {
		field models.Field
		value any
	}{
		{models.FieldBoardID, card.ID},
		{models.FieldName, card.Name},
		{models.FieldDescription, card.Desc},
		{models.FieldDue, due},
	}
	for _, m := range main {
		if _, err := task.SetIfMeaningful(m.field, m.value); err != nil {
			return err
		}
	}

	for _, b := range a.bindings {
		if b.field == models.FieldCategories {
			continue
		}

		v, err := a.customValue(card, b.fieldID, b.kind)
		if err != nil {
			return fmt.Errorf("card %s field %s: %w", card.ID, b.field, err)
		}
		if v, err = toFieldValue(b.field, v); err != nil {
			return fmt.Errorf("card %s field %s: %w", card.ID, b.field, err)
		}
		if _, err := task.SetIfMeaningful(b.field, v); err != nil {
			return err
		}
	}

	a.rememberList(card.ID, card.IDList)
	cats, inferred := a.ComputeCategorySet(card)
	if _, err := task.SetIfMeaningful(models.FieldCategories, cats); err != nil {
		return err
	}
	task.CategoryJustInferred = inferred

	var modified any
	if !card.DateLastActivity.IsZero() {
		modified = card.DateLastActivity
	}
	return task.Set(models.FieldBoardModified, modified)
}

// ComputeCategorySet reads the explicit category checkboxes of card and adds the category implied by its list.
//
// Reports whether the list category had to be added. A list with no category mapping is logged as an integrity
// error and adds nothing.
func (a *BoardAdapter) ComputeCategorySet(card services.Card) ([]models.Category, bool) {
	cats := make([]models.Category, 0, len(a.categoryFields)+1)
	for _, c := range models.Categories() {
		v, err := a.customValue(card, a.categoryFields[c], services.CustomFieldChecked)
		if err != nil {
			a.logger.Warn("unreadable category field", "card", card.ID, "category", c, "err", err)
			continue
		}
		if checked, _ := v.(bool); checked {
			cats = append(cats, c)
		}
	}

	listCategory, ok := a.listCategories[card.IDList]
	if !ok {
		a.logger.Error("card list has no category mapping", "card", card.ID, "list", card.IDList)
		return cats, false
	}
	if models.ContainsCategory(cats, listCategory) {
		return cats, false
	}
	return append(cats, listCategory), true
}

// MatchRecord reports whether card belongs to task: same board id, else the card's program id field equals the
// task's program id.
func (a *BoardAdapter) MatchRecord(task *models.Task, card services.Card) bool {
	if id := task.BoardID(); id != "" && id == card.ID {
		return true
	}

	programID := task.ProgramID()
	if programID == "" {
		return false
	}
	return a.Key(card).ProgramID == programID
}

// WriteOrCreate updates the card's main fields, creating the card when the task has no board id or its card is gone.
func (a *BoardAdapter) WriteOrCreate(ctx context.Context, task *models.Task) (*services.Card, error) {
	id := task.BoardID()
	if id == "" {
		return a.CreateCard(ctx, task)
	}

	card, err := a.board.UpdateCardMainFields(ctx, id, a.mainFields(task))
	if err == nil {
		return card, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	a.logger.Warn("card no longer exists, recreating", "card", id, "task", task.Label())
	a.registry.Forget(task, id)
	a.rememberList(id, "")
	return a.CreateCard(ctx, task)
}

// CreateCard creates a card for task in the list of its first category, or the default list.
//
// The new card id is written to the task with a direct set, so it shows up as dirty.
func (a *BoardAdapter) CreateCard(ctx context.Context, task *models.Task) (*services.Card, error) {
	fields := a.mainFields(task)
	fields.IDList = a.destinationList(task)

	card, err := a.board.CreateCard(ctx, fields)
	if err != nil {
		return nil, err
	}
	if err := task.Set(models.FieldBoardID, card.ID); err != nil {
		return nil, err
	}
	a.registry.Index(task)
	a.rememberList(card.ID, fields.IDList)

	a.logger.Info("created card", "card", card.ID, "list", fields.IDList, "task", task.Label())
	return card, nil
}

// WriteFullTask writes every board-backed field of task.
//
// Custom fields are written one call at a time, in order, and the first failure aborts the rest.
func (a *BoardAdapter) WriteFullTask(ctx context.Context, task *models.Task) error {
	task.ClearDirty()

	updates, err := a.customFieldUpdates(task, models.Fields())
	if err != nil {
		return err
	}

	card, err := a.WriteOrCreate(ctx, task)
	if err != nil {
		return err
	}
	task.CreatedOnBoard = task.IsDirty(models.FieldBoardID)

	for _, u := range updates {
		if err := a.board.UpdateCustomField(ctx, card.ID, u.IDCustomField, u.Value); err != nil {
			return fmt.Errorf("custom field %s: %w", u.IDCustomField, err)
		}
	}
	return nil
}

// WriteChangedFields writes only fields. Main fields trigger one [BoardAdapter.WriteOrCreate]; custom fields are
// staged and sent in one batched update.
//
// A task without a card gets one created, and then every custom field is written.
func (a *BoardAdapter) WriteChangedFields(ctx context.Context, task *models.Task, fields []models.Field) error {
	if len(fields) == 0 {
		return nil
	}

	previous := task.BoardID()
	rewriteMain := previous == ""
	for _, f := range fields {
		switch f {
		case models.FieldName, models.FieldDescription, models.FieldDue:
			rewriteMain = true
		}
	}

	if rewriteMain {
		if _, err := a.WriteOrCreate(ctx, task); err != nil {
			return err
		}
	}
	task.CreatedOnBoard = task.BoardID() != previous

	staged := fields
	if task.CreatedOnBoard {
		staged = models.Fields()
	}

	updates, err := a.customFieldUpdates(task, staged)
	if err != nil || len(updates) == 0 {
		return err
	}
	return a.board.UpdateCustomFields(ctx, task.BoardID(), updates)
}

// PropagateCategoryChange rewrites the category checkboxes of task's card from its category set.
func (a *BoardAdapter) PropagateCategoryChange(ctx context.Context, task *models.Task) error {
	id := task.BoardID()
	if id == "" {
		return fmt.Errorf("%w: task %s has no card", shared.ErrMissingArgument, task.Label())
	}

	updates, err := a.customFieldUpdates(task, []models.Field{models.FieldCategories})
	if err != nil {
		return err
	}
	if err := a.board.UpdateCustomFields(ctx, id, updates); err != nil {
		return err
	}

	a.logger.Debug("propagated categories", "card", id, "categories", task.Categories())
	return nil
}

// ApplyCardChange applies the main card fields named in changed (board attribute names such as "name", "desc",
// "due", "idList") to task. An empty changed applies all of them.
//
// A list change adds the list's category and raises [models.Task.CategoryJustInferred] when it was missing.
func (a *BoardAdapter) ApplyCardChange(task *models.Task, card services.Card, changed []string) error {
	if len(changed) == 0 {
		changed = []string{"name", "desc", "due", "idList"}
	}

	for _, attr := range changed {
		var err error
		switch attr {
		case "name":
			err = task.Set(models.FieldName, card.Name)
		case "desc":
			err = task.Set(models.FieldDescription, card.Desc)
		case "due":
			var due any
			if card.Due != nil {
				due = *card.Due
			}
			err = task.Set(models.FieldDue, due)
		case "idList":
			a.rememberList(task.BoardID(), card.IDList)
			c, ok := a.listCategories[card.IDList]
			if !ok {
				a.logger.Error("card list has no category mapping", "card", card.ID, "list", card.IDList)
				continue
			}
			if !models.ContainsCategory(task.Categories(), c) {
				task.AddCategory(c)
				task.CategoryJustInferred = true
			}
		default:
			a.logger.Debug("ignoring card attribute", "card", card.ID, "attribute", attr)
		}
		if err != nil {
			return err
		}
	}

	if !card.DateLastActivity.IsZero() {
		return task.Set(models.FieldBoardModified, card.DateLastActivity)
	}
	return nil
}

// ApplyCustomFieldChange applies one changed custom field item to task. Items of unmapped custom fields are ignored.
//
// Unchecking the category of the list the card was last seen in keeps that category, since the list still implies it.
func (a *BoardAdapter) ApplyCustomFieldChange(task *models.Task, item services.CustomFieldItem) error {
	b, ok := a.byCustomID[item.IDCustomField]
	if !ok {
		a.logger.Debug("ignoring unmapped custom field", "field", item.IDCustomField)
		return nil
	}

	card := services.Card{CustomFieldItems: []services.CustomFieldItem{item}}
	v, err := a.customValue(card, b.fieldID, b.kind)
	if err != nil {
		return fmt.Errorf("field %s: %w", b.field, err)
	}

	if b.field == models.FieldCategories {
		checked, _ := v.(bool)
		switch {
		case checked:
			task.AddCategory(b.category)
		case a.isListCategory(task.BoardID(), b.category):
			a.logger.Debug("keeping category of the card's list", "card", task.BoardID(), "category", b.category)
		default:
			task.RemoveCategory(b.category)
		}
		return nil
	}

	if v, err = toFieldValue(b.field, v); err != nil {
		return fmt.Errorf("field %s: %w", b.field, err)
	}
	return task.Set(b.field, v)
}

// DeleteTask deletes task's card and clears its board id. A card that is already gone is not an error.
func (a *BoardAdapter) DeleteTask(ctx context.Context, task *models.Task) error {
	id := task.BoardID()
	if id == "" {
		return fmt.Errorf("%w: task %s has no card", shared.ErrMissingArgument, task.Label())
	}

	if err := a.board.DeleteCard(ctx, id); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	a.registry.Forget(task, id)
	a.rememberList(id, "")
	a.logger.Info("deleted card", "card", id, "task", task.Label())
	return task.Set(models.FieldBoardID, nil)
}

// rememberList records the list a card was last seen in. An empty list forgets the card.
func (a *BoardAdapter) rememberList(cardID, listID string) {
	if cardID == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if listID == "" {
		delete(a.cardLists, cardID)
		return
	}
	a.cardLists[cardID] = listID
}

// isListCategory reports whether c is the category of the list the card was last seen in.
func (a *BoardAdapter) isListCategory(cardID string, c models.Category) bool {
	a.mu.Lock()
	listID, ok := a.cardLists[cardID]
	a.mu.Unlock()
	if !ok {
		return false
	}

	listCategory, ok := a.listCategories[listID]
	return ok && listCategory == c
}

func (a *BoardAdapter) mainFields(task *models.Task) services.CardFields {
	fields := services.CardFields{
		Name: task.String(models.FieldName),
		Desc: task.String(models.FieldDescription),
	}
	if due := task.Time(models.FieldDue); !due.IsZero() {
		fields.Due = &due
	}
	return fields
}

func (a *BoardAdapter) destinationList(task *models.Task) string {
	cats := task.Categories()
	if len(cats) == 0 {
		return a.defaultList
	}
	if listID, ok := a.lists[cats[0]]; ok {
		return listID
	}

	a.logger.Warn("category has no list, using default list", "category", cats[0], "task", task.Label())
	return a.defaultList
}

// customFieldUpdates serializes the board custom fields backing fields, each independently, in binding order.
func (a *BoardAdapter) customFieldUpdates(task *models.Task, fields []models.Field) ([]services.CustomFieldUpdate, error) {
	wanted := make(map[models.Field]bool, len(fields))
	for _, f := range fields {
		wanted[f] = true
	}

	var updates []services.CustomFieldUpdate
	for _, b := range a.bindings {
		if !wanted[b.field] {
			continue
		}

		value, err := a.serialize(task, b)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", b.field, err)
		}
		updates = append(updates, services.CustomFieldUpdate{IDCustomField: b.fieldID, Value: value})
	}
	return updates, nil
}

func (a *BoardAdapter) serialize(task *models.Task, b customBinding) (services.CustomFieldValue, error) {
	if b.field == models.FieldCategories {
		return services.Checked(models.ContainsCategory(task.Categories(), b.category)), nil
	}

	v, err := task.Get(b.field)
	if err != nil {
		return services.CustomFieldValue{}, err
	}
	if tags, ok := v.([]string); ok {
		v = shared.JoinList(tags)
	}
	if models.IsEmpty(v) {
		return services.Empty(), nil
	}
	return services.ValueToCustomField(v)
}

// customValue decodes the item for fieldID on card. Missing items, and empty non-checkbox items, decode to nil.
func (a *BoardAdapter) customValue(card services.Card, fieldID string, want services.CustomFieldKind) (any, error) {
	item, ok := card.CustomField(fieldID)
	if !ok {
		return nil, nil
	}
	if item.Value.Kind == services.CustomFieldEmpty && want != services.CustomFieldChecked {
		return nil, nil
	}
	if item.Value.Kind != want && item.Value.Kind != services.CustomFieldEmpty {
		return nil, &shared.UnsupportedTypeError{Value: item.Value}
	}
	return services.CustomFieldToValue(item.Value)
}

// toFieldValue converts a decoded custom field value to the Go type of f.
func toFieldValue(f models.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch f {
	case models.FieldTags:
		s, _ := v.(string)
		return shared.SplitList(s), nil
	case models.FieldPoints:
		if _, ok := v.(int); !ok {
			return nil, &shared.UnsupportedTypeError{Value: v}
		}
	}
	return v, nil
}
