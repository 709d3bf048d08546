package models

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/shared"
)

func sampleValues() map[Field]any {
	return map[Field]any{
		FieldBoardID:         "card-1",
		FieldProgramID:       "g1",
		FieldName:            "Write docs",
		FieldDescription:     "All of them",
		FieldCategories:      []Category{CategoryDocsTraining, CategoryQA},
		FieldTags:            []string{"backend", "q3"},
		FieldOwner:           "sam",
		FieldPoints:          5,
		FieldBlocked:         true,
		FieldDue:             time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		FieldBoardModified:   time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		FieldProgramModified: time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestTask_GetSet(t *testing.T) {
	t.Run("round trips every known field", func(t *testing.T) {
		task := NewTask(nil, nil)

		for f, v := range sampleValues() {
			if err := task.Set(f, v); err != nil {
				t.Fatalf("Set(%s) error = %v", f, err)
			}

			got, err := task.Get(f)
			if err != nil {
				t.Fatalf("Get(%s) error = %v", f, err)
			}
			if !reflect.DeepEqual(got, v) {
				t.Errorf("Get(%s) = %v, want %v", f, got, v)
			}
			if !task.IsDirty(f) {
				t.Errorf("expected %s to be dirty", f)
			}
		}
	})

	t.Run("unknown field fails", func(t *testing.T) {
		task := NewTask(nil, nil)

		for _, f := range []Field{-1, fieldCount, 99} {
			if _, err := task.Get(f); !errors.Is(err, shared.ErrUnknownField) {
				t.Errorf("Get(%d) error = %v, want ErrUnknownField", f, err)
			}

			err := task.Set(f, "x")
			var fieldErr *shared.FieldError
			if !errors.As(err, &fieldErr) {
				t.Errorf("Set(%d) error = %v, want *FieldError", f, err)
			}

			if _, err := task.SetIfMeaningful(f, "x"); !errors.Is(err, shared.ErrUnknownField) {
				t.Errorf("SetIfMeaningful(%d) error = %v, want ErrUnknownField", f, err)
			}
		}
	})

	t.Run("wrong type is rejected", func(t *testing.T) {
		task := NewTask(nil, nil)

		if err := task.Set(FieldPoints, "five"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if task.IsDirty(FieldPoints) {
			t.Error("rejected write should not dirty the field")
		}
	})

	t.Run("unset fields are nil", func(t *testing.T) {
		task := NewTask(nil, nil)
		if v, _ := task.Get(FieldOwner); v != nil {
			t.Errorf("expected nil, got %v", v)
		}
	})

	t.Run("defaults are applied but not dirty", func(t *testing.T) {
		task := NewTask(Defaults{FieldPoints: 1, FieldDescription: ""}, nil)

		if task.Int(FieldPoints) != 1 {
			t.Errorf("expected default points 1, got %d", task.Int(FieldPoints))
		}
		if len(task.DirtyFields()) != 0 {
			t.Errorf("expected no dirty fields, got %v", task.DirtyFields())
		}
	})
}

func TestTask_SetIfMeaningful(t *testing.T) {
	t.Run("null current accepts anything", func(t *testing.T) {
		values := []struct {
			field Field
			value any
		}{
			{FieldName, "x"},
			{FieldName, ""},
			{FieldTags, []string{}},
			{FieldCategories, []Category{}},
			{FieldPoints, 0},
		}

		for _, tc := range values {
			task := NewTask(nil, nil)
			wrote, err := task.SetIfMeaningful(tc.field, tc.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !wrote || !task.IsDirty(tc.field) {
				t.Errorf("expected %s=%v to be written and dirty", tc.field, tc.value)
			}
			got, _ := task.Get(tc.field)
			if !reflect.DeepEqual(got, tc.value) {
				t.Errorf("Get(%s) = %v, want %v", tc.field, got, tc.value)
			}
		}
	})

	t.Run("empty values never erase a known value", func(t *testing.T) {
		empties := []struct {
			field Field
			value any
		}{
			{FieldName, nil},
			{FieldName, ""},
			{FieldTags, []string{}},
			{FieldCategories, []Category{}},
			{FieldDue, time.Time{}},
			{FieldName, map[string]any{}},
			{FieldDescription, map[string]any{}},
			{FieldPoints, []any{}},
		}

		for _, tc := range empties {
			task := NewTask(nil, nil)
			initial := sampleValues()[tc.field]
			task.Set(tc.field, initial)
			task.ClearDirty()

			wrote, err := task.SetIfMeaningful(tc.field, tc.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if wrote {
				t.Errorf("%s: empty value %v should not be written", tc.field, tc.value)
			}
			if task.IsDirty(tc.field) {
				t.Errorf("%s: should not be newly dirtied", tc.field)
			}
			got, _ := task.Get(tc.field)
			if !reflect.DeepEqual(got, initial) {
				t.Errorf("%s: value changed to %v", tc.field, got)
			}
		}
	})

	t.Run("wrong type into a null field is rejected", func(t *testing.T) {
		task := NewTask(nil, nil)

		if _, err := task.SetIfMeaningful(FieldDescription, map[string]any{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if task.IsDirty(FieldDescription) {
			t.Error("expected no write")
		}
	})

	t.Run("already dirty field stays dirty", func(t *testing.T) {
		task := NewTask(nil, nil)
		task.Set(FieldName, "x")

		task.SetIfMeaningful(FieldName, "")
		if !task.IsDirty(FieldName) {
			t.Error("expected field to remain dirty")
		}
	})

	t.Run("non-empty value overwrites", func(t *testing.T) {
		task := NewTask(nil, nil)
		task.Set(FieldName, "old")
		task.ClearDirty()

		if wrote, _ := task.SetIfMeaningful(FieldName, "new"); !wrote {
			t.Error("expected write")
		}
		if task.String(FieldName) != "new" || !task.IsDirty(FieldName) {
			t.Errorf("expected new dirty value, got %q", task.String(FieldName))
		}
	})

	t.Run("false is meaningful", func(t *testing.T) {
		task := NewTask(nil, nil)
		task.Set(FieldBlocked, true)

		task.SetIfMeaningful(FieldBlocked, false)
		if task.Bool(FieldBlocked) {
			t.Error("expected false to overwrite true")
		}
	})
}

func TestTask_Dirty(t *testing.T) {
	task := NewTask(nil, nil)
	task.Set(FieldOwner, "a")
	task.Set(FieldBoardID, "c1")

	got := task.DirtyFields()
	want := []Field{FieldBoardID, FieldOwner}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DirtyFields() = %v, want %v", got, want)
	}

	task.ClearDirty()
	if len(task.DirtyFields()) != 0 || task.IsDirty(FieldOwner) {
		t.Error("expected dirty set to be empty")
	}
	if task.IsDirty(-1) {
		t.Error("unknown field is never dirty")
	}
}

func TestTask_Categories(t *testing.T) {
	t.Run("AddCategory is idempotent", func(t *testing.T) {
		task := NewTask(nil, nil)
		task.AddCategory(CategoryCoding)
		task.AddCategory(CategoryCoding)
		task.AddCategory(CategoryQA)

		if got := task.Categories(); !reflect.DeepEqual(got, []Category{CategoryCoding, CategoryQA}) {
			t.Errorf("Categories() = %v", got)
		}
		if !task.IsDirty(FieldCategories) {
			t.Error("expected categories to be dirty")
		}
	})

	t.Run("AddCategory existing does not dirty", func(t *testing.T) {
		task := NewTask(nil, nil)
		task.AddCategory(CategoryCoding)
		task.ClearDirty()

		task.AddCategory(CategoryCoding)
		if task.IsDirty(FieldCategories) {
			t.Error("no-op add should not dirty")
		}
	})

	t.Run("AddCategory does not alias caller slice", func(t *testing.T) {
		task := NewTask(nil, nil)
		original := make([]Category, 1, 4)
		original[0] = CategoryDesign
		task.Set(FieldCategories, original)

		task.AddCategory(CategoryQA)
		if len(original) != 1 || original[:2][1] == CategoryQA {
			t.Error("caller slice was mutated")
		}
	})

	t.Run("RemoveCategory", func(t *testing.T) {
		task := NewTask(nil, nil)
		task.Set(FieldCategories, []Category{CategoryDesign, CategoryQA})

		task.RemoveCategory(CategoryDesign)
		if got := task.Categories(); !reflect.DeepEqual(got, []Category{CategoryQA}) {
			t.Errorf("Categories() = %v", got)
		}
	})

	t.Run("RemoveCategory absent warns", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithOptions(&buf, log.Options{})
		task := NewTask(nil, logger)
		task.Set(FieldCategories, []Category{CategoryQA})
		task.ClearDirty()

		task.RemoveCategory(CategoryDesign)

		if got := task.Categories(); len(got) != 1 {
			t.Errorf("expected set unchanged, got %v", got)
		}
		if task.IsDirty(FieldCategories) {
			t.Error("no-op remove should not dirty")
		}
		if !strings.Contains(buf.String(), "category not present") {
			t.Errorf("expected warning, got %q", buf.String())
		}
	})
}

func TestTask_Identity(t *testing.T) {
	task := NewTask(nil, nil)
	if task.Linked() {
		t.Error("empty task is not linked")
	}
	if task.Label() != "<new task>" {
		t.Errorf("unexpected label %q", task.Label())
	}

	task.Set(FieldBoardID, "c1")
	if task.Linked() || task.Label() != "c1" {
		t.Errorf("unexpected state linked=%v label=%q", task.Linked(), task.Label())
	}

	task.Set(FieldProgramID, "g1")
	task.Set(FieldName, "Ship it")
	if !task.Linked() || task.Label() != "Ship it" {
		t.Errorf("unexpected state linked=%v label=%q", task.Linked(), task.Label())
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, true},
		{"", true},
		{[]string{}, true},
		{[]Category(nil), true},
		{map[string]int{}, true},
		{time.Time{}, true},
		{"x", false},
		{0, false},
		{false, false},
		{[]string{"a"}, false},
		{time.Now(), false},
	}

	for _, tt := range tests {
		if got := IsEmpty(tt.value); got != tt.want {
			t.Errorf("IsEmpty(%#v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestParseDefaults(t *testing.T) {
	t.Run("normalizes toml values", func(t *testing.T) {
		defaults, err := ParseDefaults(map[string]any{
			"points":     int64(2),
			"tags":       []any{"triage"},
			"categories": []any{"qa"},
			"due":        "2026-01-02T00:00:00Z",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if defaults[FieldPoints] != 2 {
			t.Errorf("expected points 2, got %v", defaults[FieldPoints])
		}
		if !reflect.DeepEqual(defaults[FieldTags], []string{"triage"}) {
			t.Errorf("unexpected tags %v", defaults[FieldTags])
		}
		if !reflect.DeepEqual(defaults[FieldCategories], []Category{CategoryQA}) {
			t.Errorf("unexpected categories %v", defaults[FieldCategories])
		}
		if _, ok := defaults[FieldDue].(time.Time); !ok {
			t.Errorf("expected due to be a time, got %T", defaults[FieldDue])
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		if _, err := ParseDefaults(map[string]any{"color": "red"}); !errors.Is(err, shared.ErrUnknownField) {
			t.Errorf("expected ErrUnknownField, got %v", err)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		if _, err := ParseDefaults(map[string]any{"blocked": "yes"}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestEnums(t *testing.T) {
	for _, f := range Fields() {
		parsed, err := ParseField(f.String())
		if err != nil || parsed != f {
			t.Errorf("ParseField(%q) = %v, %v", f.String(), parsed, err)
		}
	}

	for _, c := range Categories() {
		parsed, err := ParseCategory(c.String())
		if err != nil || parsed != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c.String(), parsed, err)
		}
	}

	if _, err := ParseCategory("marketing"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
