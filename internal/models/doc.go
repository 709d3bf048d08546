// Package models defines the in-memory task record shared by every sync component.
//
// A [Task] holds a fixed set of named fields ([Field]) and tracks which of them were written since the dirty set was last cleared.
// Records are transient: they are rebuilt from both remote services on every run and never persisted.
//
// # Writes
//
// [Task.Set] always stores the value and marks the field dirty.
// [Task.SetIfMeaningful] refuses to replace a known value with an empty one, which lets several sources fold into one record
// without a blank field erasing data another source supplied.
//
// # Categories
//
// [Category] is a fixed enum of work classifications. The board service encodes it twice:
// as one checkbox custom field per category and implicitly through the list a card sits in.
package models
