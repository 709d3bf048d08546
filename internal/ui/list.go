package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/tasks"
)

var (
	_ list.Item = taskItem{}
	_ list.Item = failureItem{}
)

// taskItem wraps [models.Task] to implement [list.Item].
type taskItem struct {
	task *models.Task
}

func (i taskItem) FilterValue() string { return i.task.Label() }
func (i taskItem) Title() string       { return i.task.Label() }
func (i taskItem) Description() string {
	cats := i.task.Categories()
	names := make([]string, len(cats))
	for j, c := range cats {
		names[j] = c.String()
	}

	desc := "unlinked"
	if i.task.Linked() {
		desc = fmt.Sprintf("%s ↔ %s", i.task.BoardID(), i.task.ProgramID())
	}
	if len(names) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(names, ", "))
	}
	return desc
}

// failureItem wraps [tasks.RecordFailure] to implement [list.Item].
type failureItem struct {
	failure tasks.RecordFailure
}

func (i failureItem) FilterValue() string { return i.failure.Task }
func (i failureItem) Title() string       { return "✗ " + i.failure.Task }
func (i failureItem) Description() string {
	if i.failure.Error == nil {
		return ""
	}
	return i.failure.Error.Error()
}

func resultItems(result *tasks.SyncResult, all []*models.Task) []list.Item {
	var items []list.Item
	if result != nil {
		for _, f := range result.Failures() {
			items = append(items, failureItem{failure: f})
		}
	}
	for _, t := range all {
		items = append(items, taskItem{task: t})
	}
	return items
}

func fmtCount(n int, label string) string {
	return fmt.Sprintf("%d %s", n, label)
}
