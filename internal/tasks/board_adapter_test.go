package tasks

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
	tu "github.com/desertthunder/boardsync/internal/testing"
)

func TestNewBoardAdapter(t *testing.T) {
	t.Run("Unknown Category In Lists", func(t *testing.T) {
		cfg := testBoardConfig()
		cfg.Lists["marketing"] = "L9"

		_, err := NewBoardAdapter(tu.NewFakeBoard(), NewRegistry(nil, nil), cfg, discardLogger())
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("List Mapped Twice", func(t *testing.T) {
		cfg := testBoardConfig()
		cfg.Lists["qa"] = listDesign

		_, err := NewBoardAdapter(tu.NewFakeBoard(), NewRegistry(nil, nil), cfg, discardLogger())
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestComputeCategorySet(t *testing.T) {
	adapter, _ := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)

	tests := []struct {
		name         string
		card         services.Card
		want         []models.Category
		wantInferred bool
	}{
		{
			name:         "code card on qa list",
			card:         card("c1", "Fix", listQA, checked("f-code")),
			want:         []models.Category{models.CategoryCoding, models.CategoryQA},
			wantInferred: true,
		},
		{
			name:         "qa card on qa list",
			card:         card("c2", "Test", listQA, checked("f-qa")),
			want:         []models.Category{models.CategoryQA},
			wantInferred: false,
		},
		{
			name:         "no checkboxes",
			card:         card("c3", "Sketch", listDesign),
			want:         []models.Category{models.CategoryDesign},
			wantInferred: true,
		},
		{
			name: "unchecked boxes are ignored",
			card: card("c4", "Docs", listDocs,
				services.CustomFieldItem{IDCustomField: "f-design", Value: services.Checked(false)},
				services.CustomFieldItem{IDCustomField: "f-code", Value: services.Empty()},
			),
			want:         []models.Category{models.CategoryDocsTraining},
			wantInferred: true,
		},
		{
			name:         "several explicit categories",
			card:         card("c5", "Spike", listResearch, checked("f-research"), checked("f-design")),
			want:         []models.Category{models.CategoryDesign, models.CategoryOutResearch},
			wantInferred: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, inferred := adapter.ComputeCategorySet(tt.card)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if inferred != tt.wantInferred {
				t.Errorf("expected inferred %v, got %v", tt.wantInferred, inferred)
			}
		})
	}

	t.Run("Unmapped List", func(t *testing.T) {
		logger, buf := tu.NewBufferLogger()
		adapter, _ := newTestBoardAdapter(t, tu.NewFakeBoard(), logger)

		got, inferred := adapter.ComputeCategorySet(card("c9", "Lost", "L-unknown", checked("f-qa")))
		if !reflect.DeepEqual(got, []models.Category{models.CategoryQA}) {
			t.Errorf("expected only explicit categories, got %v", got)
		}
		if inferred {
			t.Error("expected no inference for an unmapped list")
		}
		if strings.Count(buf.String(), "card list has no category mapping") != 1 {
			t.Errorf("expected one integrity error, got %q", buf.String())
		}
	})
}

func TestBoardAdapterMatchRecord(t *testing.T) {
	adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)

	t.Run("Board ID Wins Regardless Of Cross ID", func(t *testing.T) {
		task := registry.FindOrCreateByBoardID("X")
		task.Set(models.FieldProgramID, "p-other")

		if !adapter.MatchRecord(task, card("X", "", listQA, text("f-pid", "g-unrelated"))) {
			t.Error("expected board id match")
		}
	})

	t.Run("Cross ID", func(t *testing.T) {
		task := registry.FindOrCreateByProgramID("g1")

		if !adapter.MatchRecord(task, card("c-new", "", listQA, text("f-pid", "g1"))) {
			t.Error("expected cross id match")
		}
		if adapter.MatchRecord(task, card("c-new", "", listQA, text("f-pid", "g2"))) {
			t.Error("expected no match for a different cross id")
		}
		if adapter.MatchRecord(task, card("c-new", "", listQA)) {
			t.Error("expected no match without a cross id field")
		}
	})

	t.Run("Unlinked Task", func(t *testing.T) {
		task := models.NewTask(nil, discardLogger())
		if adapter.MatchRecord(task, card("c1", "", listQA, services.CustomFieldItem{IDCustomField: "f-pid", Value: services.Empty()})) {
			t.Error("expected an empty task never to match")
		}
	})
}

func TestBoardAdapterParseIntoRecord(t *testing.T) {
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("All Fields", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		c := card("c1", "Ship it", listCoding,
			text("f-pid", "p1"),
			text("f-tags", "backend, urgent"),
			text("f-owner", "ada"),
			number("f-points", "3"),
			checked("f-blocked"),
		)
		c.Desc = "details"
		c.Due = &due

		task := registry.FindOrCreateByBoardID("c1")
		if err := adapter.ParseIntoRecord(c, task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if task.String(models.FieldName) != "Ship it" || task.String(models.FieldDescription) != "details" {
			t.Errorf("unexpected main fields %q/%q", task.String(models.FieldName), task.String(models.FieldDescription))
		}
		if task.ProgramID() != "p1" {
			t.Errorf("expected cross id p1, got %s", task.ProgramID())
		}
		if !reflect.DeepEqual(task.Tags(), []string{"backend", "urgent"}) {
			t.Errorf("unexpected tags %v", task.Tags())
		}
		if task.String(models.FieldOwner) != "ada" || task.Int(models.FieldPoints) != 3 || !task.Bool(models.FieldBlocked) {
			t.Error("unexpected owner, points or blocked")
		}
		if !task.Time(models.FieldDue).Equal(due) {
			t.Errorf("expected due %v, got %v", due, task.Time(models.FieldDue))
		}
		if !reflect.DeepEqual(task.Categories(), []models.Category{models.CategoryCoding}) {
			t.Errorf("unexpected categories %v", task.Categories())
		}
		if !task.CategoryJustInferred {
			t.Error("expected list category to be inferred")
		}
		if !task.Time(models.FieldBoardModified).Equal(c.DateLastActivity) {
			t.Error("expected board modification time")
		}
	})

	t.Run("Blank Values Keep Known Ones", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")
		task.Set(models.FieldDescription, "from program")
		task.Set(models.FieldOwner, "grace")
		task.Set(models.FieldBoardModified, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
		task.ClearDirty()

		c := card("c1", "Name", listQA, checked("f-qa"))
		if err := adapter.ParseIntoRecord(c, task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if task.String(models.FieldDescription) != "from program" {
			t.Error("expected blank description not to erase the known one")
		}
		if task.IsDirty(models.FieldDescription) || task.IsDirty(models.FieldOwner) {
			t.Error("expected skipped fields not to be dirtied")
		}
		if !task.Time(models.FieldBoardModified).Equal(c.DateLastActivity) {
			t.Error("expected modification time to be overwritten directly")
		}
		if task.CategoryJustInferred {
			t.Error("expected no inference when the list category is already checked")
		}
	})

	t.Run("Empty Checkbox Reads As False", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")

		c := card("c1", "n", listQA, services.CustomFieldItem{IDCustomField: "f-blocked", Value: services.Empty()})
		if err := adapter.ParseIntoRecord(c, task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		v, _ := task.Get(models.FieldBlocked)
		if v != false {
			t.Errorf("expected false, got %v", v)
		}
	})

	t.Run("Unsupported Variant", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")

		c := card("c1", "n", listQA, text("f-points", "three"))
		err := adapter.ParseIntoRecord(c, task)
		if !errors.Is(err, shared.ErrUnsupportedType) {
			t.Errorf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("Fractional Points", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")

		err := adapter.ParseIntoRecord(card("c1", "n", listQA, number("f-points", "1.5")), task)
		if !errors.Is(err, shared.ErrUnsupportedType) {
			t.Errorf("expected ErrUnsupportedType, got %v", err)
		}
	})
}

func TestBoardAdapterWriteOrCreate(t *testing.T) {
	t.Run("Updates Existing Card", func(t *testing.T) {
		board := tu.NewFakeBoard(card("c1", "Old", listQA))
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByBoardID("c1")
		task.Set(models.FieldName, "New")

		if _, err := adapter.WriteOrCreate(context.Background(), task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if board.CallCount("CreateCard") != 0 {
			t.Error("expected no card to be created")
		}
		if got, _ := board.Card("c1"); got.Name != "New" {
			t.Errorf("expected card to be renamed, got %s", got.Name)
		}
	})

	t.Run("Not Found Falls Back To Create Once", func(t *testing.T) {
		board := tu.NewFakeBoard()
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByBoardID("gone")
		task.Set(models.FieldName, "Phoenix")
		task.ClearDirty()

		card, err := adapter.WriteOrCreate(context.Background(), task)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if board.CallCount("CreateCard") != 1 {
			t.Errorf("expected exactly one create, got %d", board.CallCount("CreateCard"))
		}
		if task.BoardID() != card.ID || task.BoardID() == "gone" {
			t.Errorf("expected board id to be replaced, got %s", task.BoardID())
		}
		if !task.IsDirty(models.FieldBoardID) {
			t.Error("expected new board id to be dirty")
		}
		if found, ok := registry.Lookup(Key{BoardID: card.ID}); !ok || found != task {
			t.Error("expected new board id to be indexed")
		}
		if _, ok := registry.Lookup(Key{BoardID: "gone"}); ok {
			t.Error("expected stale board id to be dropped")
		}
	})

	t.Run("Other Errors Propagate", func(t *testing.T) {
		board := tu.NewFakeBoard(card("c1", "x", listQA))
		board.Errors["UpdateCardMainFields"] = shared.ErrAPIRequest
		adapter, registry := newTestBoardAdapter(t, board, nil)

		_, err := adapter.WriteOrCreate(context.Background(), registry.FindOrCreateByBoardID("c1"))
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if board.CallCount("CreateCard") != 0 {
			t.Error("expected no create on a non not-found failure")
		}
	})

	t.Run("No Board ID Creates", func(t *testing.T) {
		board := tu.NewFakeBoard()
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByProgramID("p1")
		if _, err := adapter.WriteOrCreate(context.Background(), task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if board.CallCount("UpdateCardMainFields") != 0 || board.CallCount("CreateCard") != 1 {
			t.Error("expected a create without an update attempt")
		}
	})
}

func TestBoardAdapterCreateCard(t *testing.T) {
	tests := []struct {
		name       string
		categories []models.Category
		wantList   string
	}{
		{"first category list", []models.Category{models.CategoryQA, models.CategoryDesign}, listQA},
		{"default list without categories", nil, listInbox},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := tu.NewFakeBoard()
			adapter, registry := newTestBoardAdapter(t, board, nil)

			task := registry.FindOrCreateByProgramID("p1")
			for _, c := range tt.categories {
				task.AddCategory(c)
			}

			card, err := adapter.CreateCard(context.Background(), task)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if card.IDList != tt.wantList {
				t.Errorf("expected list %s, got %s", tt.wantList, card.IDList)
			}
		})
	}
}

func TestBoardAdapterWriteFullTask(t *testing.T) {
	t.Run("Writes Every Custom Field In Order", func(t *testing.T) {
		board := tu.NewFakeBoard(card("c1", "x", listQA))
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByBoardID("c1")
		task.Set(models.FieldProgramID, "p1")
		task.Set(models.FieldTags, []string{"a", "b"})
		task.Set(models.FieldPoints, 2)
		task.AddCategory(models.CategoryQA)

		if err := adapter.WriteFullTask(context.Background(), task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		calls := board.Calls("UpdateCustomField")
		if len(calls) != 10 {
			t.Fatalf("expected 10 custom field writes, got %d", len(calls))
		}
		if calls[0].Args.(services.CustomFieldUpdate).IDCustomField != "f-design" {
			t.Error("expected category checkboxes first")
		}
		if task.CreatedOnBoard {
			t.Error("expected an update not to count as a creation")
		}

		got, _ := board.Card("c1")
		if item, ok := got.CustomField("f-tags"); !ok || item.Value.Text != "a, b" {
			t.Errorf("expected joined tags, got %+v", item)
		}
		if item, ok := got.CustomField("f-points"); !ok || item.Value.Number != "2" {
			t.Errorf("expected points, got %+v", item)
		}
		if _, ok := got.CustomField("f-owner"); ok {
			t.Error("expected an unset owner to clear the field")
		}
	})

	t.Run("Creation Sets Flag", func(t *testing.T) {
		board := tu.NewFakeBoard()
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByProgramID("p1")
		if err := adapter.WriteFullTask(context.Background(), task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !task.CreatedOnBoard {
			t.Error("expected CreatedOnBoard after a create")
		}
	})

	t.Run("First Failure Aborts Remaining Fields", func(t *testing.T) {
		board := tu.NewFakeBoard(card("c1", "x", listQA))
		board.Errors["UpdateCustomField"] = shared.ErrAPIRequest
		adapter, registry := newTestBoardAdapter(t, board, nil)

		err := adapter.WriteFullTask(context.Background(), registry.FindOrCreateByBoardID("c1"))
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if board.CallCount("UpdateCustomField") != 1 {
			t.Errorf("expected one attempted write, got %d", board.CallCount("UpdateCustomField"))
		}
	})

	t.Run("Blocked Checkbox", func(t *testing.T) {
		board := tu.NewFakeBoard(card("c1", "x", listQA))
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByBoardID("c1")
		task.Set(models.FieldBlocked, true)

		if err := adapter.WriteFullTask(context.Background(), task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got, _ := board.Card("c1")
		if item, ok := got.CustomField("f-blocked"); !ok || !item.Value.Checked {
			t.Error("expected blocked checkbox to be checked")
		}
	})
}

func TestBoardAdapterWriteChangedFields(t *testing.T) {
	t.Run("Main And Custom Fields", func(t *testing.T) {
		board := tu.NewFakeBoard(card("c1", "x", listQA))
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByBoardID("c1")
		task.Set(models.FieldName, "Renamed")
		task.Set(models.FieldOwner, "ada")

		err := adapter.WriteChangedFields(context.Background(), task, []models.Field{models.FieldName, models.FieldOwner})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if board.CallCount("UpdateCardMainFields") != 1 {
			t.Errorf("expected one main field update, got %d", board.CallCount("UpdateCardMainFields"))
		}
		batches := board.Calls("UpdateCustomFields")
		if len(batches) != 1 {
			t.Fatalf("expected one batch, got %d", len(batches))
		}
		updates := batches[0].Args.([]services.CustomFieldUpdate)
		if len(updates) != 1 || updates[0].IDCustomField != "f-owner" {
			t.Errorf("expected only the owner field, got %+v", updates)
		}
		if board.CallCount("UpdateCustomField") != 0 {
			t.Error("expected no single field writes")
		}
	})

	t.Run("Description And Due Share One Update", func(t *testing.T) {
		board := tu.NewFakeBoard(card("c1", "x", listQA))
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByBoardID("c1")
		err := adapter.WriteChangedFields(context.Background(), task, []models.Field{models.FieldDescription, models.FieldDue, models.FieldName})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if board.CallCount("UpdateCardMainFields") != 1 {
			t.Errorf("expected one main field update, got %d", board.CallCount("UpdateCardMainFields"))
		}
		if board.CallCount("UpdateCustomFields") != 0 {
			t.Error("expected no empty batch")
		}
	})

	t.Run("Categories Only", func(t *testing.T) {
		board := tu.NewFakeBoard(card("c1", "x", listQA))
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByBoardID("c1")
		task.AddCategory(models.CategoryDesign)

		if err := adapter.WriteChangedFields(context.Background(), task, []models.Field{models.FieldCategories}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if board.CallCount("UpdateCardMainFields") != 0 {
			t.Error("expected no main field update")
		}

		updates := board.Calls("UpdateCustomFields")[0].Args.([]services.CustomFieldUpdate)
		if len(updates) != 5 {
			t.Fatalf("expected 5 checkbox updates, got %d", len(updates))
		}
		if !updates[0].Value.Checked || updates[4].Value.Checked {
			t.Errorf("expected only design to be checked, got %+v", updates)
		}
	})

	t.Run("Missing Card Is Created With Every Custom Field", func(t *testing.T) {
		board := tu.NewFakeBoard()
		adapter, registry := newTestBoardAdapter(t, board, nil)

		task := registry.FindOrCreateByProgramID("p1")
		task.Set(models.FieldOwner, "ada")

		if err := adapter.WriteChangedFields(context.Background(), task, []models.Field{models.FieldOwner}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if board.CallCount("CreateCard") != 1 {
			t.Errorf("expected one create, got %d", board.CallCount("CreateCard"))
		}
		if !task.CreatedOnBoard {
			t.Error("expected CreatedOnBoard")
		}
		updates := board.Calls("UpdateCustomFields")[0].Args.([]services.CustomFieldUpdate)
		if len(updates) != 10 {
			t.Errorf("expected every custom field on a new card, got %d", len(updates))
		}
	})

	t.Run("Nothing Dirty", func(t *testing.T) {
		board := tu.NewFakeBoard()
		adapter, registry := newTestBoardAdapter(t, board, nil)

		if err := adapter.WriteChangedFields(context.Background(), registry.FindOrCreateByProgramID("p1"), nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(board.Calls("")) != 0 {
			t.Error("expected no calls")
		}
	})
}

func TestBoardAdapterPropagateCategoryChange(t *testing.T) {
	board := tu.NewFakeBoard(card("c1", "x", listQA, checked("f-code")))
	adapter, registry := newTestBoardAdapter(t, board, nil)

	c, _ := board.Card("c1")
	task := registry.FindOrCreateByBoardID("c1")
	if err := adapter.ParseIntoRecord(c, task); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := adapter.PropagateCategoryChange(context.Background(), task); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, _ := board.Card("c1")
	cats, inferred := adapter.ComputeCategorySet(got)
	if inferred {
		t.Error("expected checkboxes to agree with the list after propagation")
	}
	if !reflect.DeepEqual(cats, []models.Category{models.CategoryCoding, models.CategoryQA}) {
		t.Errorf("unexpected categories %v", cats)
	}

	t.Run("Without Card", func(t *testing.T) {
		err := adapter.PropagateCategoryChange(context.Background(), registry.FindOrCreateByProgramID("p1"))
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestBoardAdapterApplyChanges(t *testing.T) {
	t.Run("Card Change Applies Only Named Attributes", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")
		task.Set(models.FieldDescription, "keep")
		task.ClearDirty()

		c := card("c1", "Renamed", listQA)
		if err := adapter.ApplyCardChange(task, c, []string{"name"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if task.String(models.FieldName) != "Renamed" || task.String(models.FieldDescription) != "keep" {
			t.Error("expected only the name to change")
		}
		want := []models.Field{models.FieldName, models.FieldBoardModified}
		if !reflect.DeepEqual(task.DirtyFields(), want) {
			t.Errorf("expected dirty %v, got %v", want, task.DirtyFields())
		}
	})

	t.Run("List Change Infers Category", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")

		if err := adapter.ApplyCardChange(task, card("c1", "x", listDocs), []string{"idList"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !models.ContainsCategory(task.Categories(), models.CategoryDocsTraining) || !task.CategoryJustInferred {
			t.Error("expected docs category to be inferred")
		}
	})

	t.Run("Custom Field Change", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")
		task.AddCategory(models.CategoryQA)

		steps := []services.CustomFieldItem{
			text("f-owner", "grace"),
			checked("f-design"),
			{IDCustomField: "f-qa", Value: services.Empty()},
			number("f-points", "8"),
			text("f-unmapped", "ignored"),
		}
		for _, item := range steps {
			if err := adapter.ApplyCustomFieldChange(task, item); err != nil {
				t.Fatalf("item %s: expected no error, got %v", item.IDCustomField, err)
			}
		}

		if task.String(models.FieldOwner) != "grace" || task.Int(models.FieldPoints) != 8 {
			t.Error("expected owner and points to be applied")
		}
		if !reflect.DeepEqual(task.Categories(), []models.Category{models.CategoryDesign}) {
			t.Errorf("expected design only, got %v", task.Categories())
		}
	})

	t.Run("Unchecking List Category Keeps It", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")
		if err := adapter.ParseIntoRecord(card("c1", "x", listCoding, checked("f-code"), checked("f-qa")), task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, id := range []string{"f-code", "f-qa"} {
			item := services.CustomFieldItem{IDCustomField: id, Value: services.Checked(false)}
			if err := adapter.ApplyCustomFieldChange(task, item); err != nil {
				t.Fatalf("item %s: expected no error, got %v", id, err)
			}
		}

		if !reflect.DeepEqual(task.Categories(), []models.Category{models.CategoryCoding}) {
			t.Errorf("expected the list category to remain, got %v", task.Categories())
		}
	})

	t.Run("Unchecking After List Change", func(t *testing.T) {
		adapter, registry := newTestBoardAdapter(t, tu.NewFakeBoard(), nil)
		task := registry.FindOrCreateByBoardID("c1")
		if err := adapter.ParseIntoRecord(card("c1", "x", listCoding, checked("f-code")), task); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := adapter.ApplyCardChange(task, card("c1", "x", listQA), []string{"idList"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		item := services.CustomFieldItem{IDCustomField: "f-code", Value: services.Checked(false)}
		if err := adapter.ApplyCustomFieldChange(task, item); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(task.Categories(), []models.Category{models.CategoryQA}) {
			t.Errorf("expected coding removed and qa kept, got %v", task.Categories())
		}
	})
}

func TestBoardAdapterDeleteTask(t *testing.T) {
	board := tu.NewFakeBoard(card("c1", "x", listQA))
	adapter, registry := newTestBoardAdapter(t, board, nil)

	task := registry.FindOrCreateByBoardID("c1")
	if err := adapter.DeleteTask(context.Background(), task); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := board.Card("c1"); ok {
		t.Error("expected card to be deleted")
	}
	if task.BoardID() != "" {
		t.Error("expected board id to be cleared")
	}

	t.Run("Already Gone", func(t *testing.T) {
		task := registry.FindOrCreateByBoardID("c-missing")
		if err := adapter.DeleteTask(context.Background(), task); err != nil {
			t.Errorf("expected a missing card not to be an error, got %v", err)
		}
	})
}
