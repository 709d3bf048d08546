package models

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/shared"
)

// Defaults holds the values unset fields start with.
type Defaults map[Field]any

// Task is one unit of work unified across the board and program services.
//
// Field access is guarded by an internal mutex. The transient flags are owned by whichever goroutine is processing the task.
type Task struct {
	mu     sync.Mutex
	values [fieldCount]any
	dirty  [fieldCount]bool
	logger *log.Logger

	CreatedOnBoard       bool // card was created by the last board write
	CreatedOnProgram     bool // task was created by the last program write
	CategoryJustInferred bool // last board parse added the list-derived category
}

// NewTask creates an empty task seeded with defaults. Defaults are not dirty.
//
// A nil logger falls back to [log.Default].
func NewTask(defaults Defaults, logger *log.Logger) *Task {
	if logger == nil {
		logger = log.Default()
	}

	t := &Task{logger: logger}
	for f, v := range defaults {
		if f.Valid() {
			t.values[f] = v
		}
	}
	return t
}

// Get returns the current value of f, nil when unset.
func (t *Task) Get(f Field) (any, error) {
	if err := checkField(f); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.values[f], nil
}

// Set stores v in f and marks f dirty.
func (t *Task) Set(f Field, v any) error {
	if err := checkField(f); err != nil {
		return err
	}
	if err := checkType(f, v); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.set(f, v)
	return nil
}

// SetIfMeaningful writes v unless f already holds a value and v is empty.
//
// Reports whether the write happened.
func (t *Task) SetIfMeaningful(f Field, v any) (bool, error) {
	if err := checkField(f); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.values[f] != nil && IsEmpty(v) {
		return false, nil
	}
	if err := checkType(f, v); err != nil {
		return false, err
	}
	t.set(f, v)
	return true, nil
}

func (t *Task) set(f Field, v any) {
	t.values[f] = v
	t.dirty[f] = true
}

// IsDirty reports whether f was written since the dirty set was last cleared.
func (t *Task) IsDirty(f Field) bool {
	if !f.Valid() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty[f]
}

// DirtyFields returns the dirty fields in declaration order.
func (t *Task) DirtyFields() []Field {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fields []Field
	for i, d := range t.dirty {
		if d {
			fields = append(fields, Field(i))
		}
	}
	return fields
}

// ClearDirty empties the dirty set.
func (t *Task) ClearDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = [fieldCount]bool{}
}

// AddCategory inserts c into the category set. Adding a present category changes nothing.
func (t *Task) AddCategory(c Category) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cats, _ := t.values[FieldCategories].([]Category)
	if ContainsCategory(cats, c) {
		return
	}

	next := make([]Category, 0, len(cats)+1)
	next = append(next, cats...)
	t.set(FieldCategories, append(next, c))
}

// RemoveCategory drops c from the category set. Removing an absent category logs a warning and changes nothing.
func (t *Task) RemoveCategory(c Category) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cats, _ := t.values[FieldCategories].([]Category)
	if !ContainsCategory(cats, c) {
		t.logger.Warn("category not present on task", "category", c, "task", t.label())
		return
	}

	next := make([]Category, 0, len(cats)-1)
	for _, existing := range cats {
		if existing != c {
			next = append(next, existing)
		}
	}
	t.set(FieldCategories, next)
}

// BoardID returns the board card id, empty when unlinked.
func (t *Task) BoardID() string { return t.String(FieldBoardID) }

// ProgramID returns the program task id, empty when unlinked.
func (t *Task) ProgramID() string { return t.String(FieldProgramID) }

// Linked reports whether the task is known to both services.
func (t *Task) Linked() bool {
	return t.BoardID() != "" && t.ProgramID() != ""
}

// String returns f as a string, empty for unset or non-string values.
func (t *Task) String(f Field) string {
	v, _ := t.Get(f)
	s, _ := v.(string)
	return s
}

// Bool returns f as a bool.
func (t *Task) Bool(f Field) bool {
	v, _ := t.Get(f)
	b, _ := v.(bool)
	return b
}

// Int returns f as an int.
func (t *Task) Int(f Field) int {
	v, _ := t.Get(f)
	i, _ := v.(int)
	return i
}

// Time returns f as a [time.Time], zero when unset.
func (t *Task) Time(f Field) time.Time {
	v, _ := t.Get(f)
	ts, _ := v.(time.Time)
	return ts
}

// Categories returns a copy of the category set in insertion order.
func (t *Task) Categories() []Category {
	v, _ := t.Get(FieldCategories)
	cats, _ := v.([]Category)
	return append([]Category(nil), cats...)
}

// Tags returns a copy of the tag list.
func (t *Task) Tags() []string {
	v, _ := t.Get(FieldTags)
	tags, _ := v.([]string)
	return append([]string(nil), tags...)
}

// Label names the task for log output.
func (t *Task) Label() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.label()
}

func (t *Task) label() string {
	for _, f := range []Field{FieldName, FieldBoardID, FieldProgramID} {
		if s, ok := t.values[f].(string); ok && s != "" {
			return s
		}
	}
	return "<new task>"
}

// IsEmpty reports whether v carries no information: nil, "", an empty slice or map, or a zero time.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}

	switch x := v.(type) {
	case string:
		return x == ""
	case time.Time:
		return x.IsZero()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

var fieldTypes = [fieldCount]reflect.Type{
	FieldBoardID:         reflect.TypeFor[string](),
	FieldProgramID:       reflect.TypeFor[string](),
	FieldName:            reflect.TypeFor[string](),
	FieldDescription:     reflect.TypeFor[string](),
	FieldCategories:      reflect.TypeFor[[]Category](),
	FieldTags:            reflect.TypeFor[[]string](),
	FieldOwner:           reflect.TypeFor[string](),
	FieldPoints:          reflect.TypeFor[int](),
	FieldBlocked:         reflect.TypeFor[bool](),
	FieldDue:             reflect.TypeFor[time.Time](),
	FieldBoardModified:   reflect.TypeFor[time.Time](),
	FieldProgramModified: reflect.TypeFor[time.Time](),
}

// checkType rejects values of the wrong Go type. nil is always accepted.
func checkType(f Field, v any) error {
	if v == nil {
		return nil
	}
	if want := fieldTypes[f]; reflect.TypeOf(v) != want {
		return fmt.Errorf("%w: field %s expects %s, got %T", shared.ErrInvalidInput, f, want, v)
	}
	return nil
}

// ParseDefaults converts configured defaults keyed by field name into typed [Defaults].
//
// Integers decoded from TOML arrive as int64 and lists as []any; both are normalized.
func ParseDefaults(raw map[string]any) (Defaults, error) {
	defaults := Defaults{}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}

		v, err := normalizeDefault(f, raw[name])
		if err != nil {
			return nil, err
		}
		defaults[f] = v
	}
	return defaults, nil
}

func normalizeDefault(f Field, v any) (any, error) {
	switch x := v.(type) {
	case int64:
		v = int(x)
	case []any:
		if f == FieldCategories {
			cats := make([]Category, 0, len(x))
			for _, item := range x {
				name, _ := item.(string)
				c, err := ParseCategory(name)
				if err != nil {
					return nil, err
				}
				cats = append(cats, c)
			}
			v = cats
		} else {
			items := make([]string, 0, len(x))
			for _, item := range x {
				items = append(items, fmt.Sprint(item))
			}
			v = items
		}
	case string:
		if fieldTypes[f] == reflect.TypeFor[time.Time]() {
			ts, err := time.Parse(time.RFC3339, x)
			if err != nil {
				return nil, fmt.Errorf("%w: default for %s: %v", shared.ErrInvalidConfig, f, err)
			}
			v = ts
		}
	}

	if err := checkType(f, v); err != nil {
		return nil, fmt.Errorf("%w: default for %s: %v", shared.ErrInvalidConfig, f, err)
	}
	return v, nil
}
