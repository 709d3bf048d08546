package models

import (
	"strconv"

	"github.com/desertthunder/boardsync/internal/shared"
)

// Field identifies one attribute of a [Task].
type Field int

const (
	FieldBoardID Field = iota
	FieldProgramID
	FieldName
	FieldDescription
	FieldCategories
	FieldTags
	FieldOwner
	FieldPoints
	FieldBlocked
	FieldDue
	FieldBoardModified
	FieldProgramModified
	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldBoardID:         "board_id",
	FieldProgramID:       "program_id",
	FieldName:            "name",
	FieldDescription:     "description",
	FieldCategories:      "categories",
	FieldTags:            "tags",
	FieldOwner:           "owner",
	FieldPoints:          "points",
	FieldBlocked:         "blocked",
	FieldDue:             "due",
	FieldBoardModified:   "board_modified",
	FieldProgramModified: "program_modified",
}

// Fields returns every known field in declaration order.
func Fields() []Field {
	fields := make([]Field, fieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

// Valid reports whether f is part of the task schema.
func (f Field) Valid() bool {
	return f >= 0 && f < fieldCount
}

func (f Field) String() string {
	if !f.Valid() {
		return ""
	}
	return fieldNames[f]
}

// ParseField resolves a field by name.
func ParseField(name string) (Field, error) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return -1, &shared.FieldError{Field: name}
}

func checkField(f Field) error {
	if !f.Valid() {
		return &shared.FieldError{Field: f.GoString()}
	}
	return nil
}

// GoString renders unknown fields by number so error messages stay readable.
func (f Field) GoString() string {
	if f.Valid() {
		return fieldNames[f]
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}
