// package formatter renders reconciled tasks as CSV, Markdown or JSON reports
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/boardsync/internal/models"
	"github.com/desertthunder/boardsync/internal/shared"
)

// Format names a report encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat resolves a format name; "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidInput, s)
	}
}

// Extension is the file extension used for reports in f.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Row is the flattened, report-ready view of a task.
type Row struct {
	BoardID    string     `json:"board_id,omitempty"`
	ProgramID  string     `json:"program_id,omitempty"`
	Name       string     `json:"name"`
	Categories []string   `json:"categories"`
	Tags       []string   `json:"tags,omitempty"`
	Owner      string     `json:"owner,omitempty"`
	Points     int        `json:"points"`
	Blocked    bool       `json:"blocked"`
	Due        *time.Time `json:"due,omitempty"`
	Linked     bool       `json:"linked"`
}

// NewRow flattens a task.
func NewRow(t *models.Task) Row {
	cats := t.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}

	row := Row{
		BoardID:    t.BoardID(),
		ProgramID:  t.ProgramID(),
		Name:       t.String(models.FieldName),
		Categories: names,
		Tags:       t.Tags(),
		Owner:      t.String(models.FieldOwner),
		Points:     t.Int(models.FieldPoints),
		Blocked:    t.Bool(models.FieldBlocked),
		Linked:     t.Linked(),
	}
	if due := t.Time(models.FieldDue); !due.IsZero() {
		row.Due = &due
	}
	return row
}

// Rows flattens tasks, sorted by name then board id then program id.
func Rows(tasks []*models.Task) []Row {
	rows := make([]Row, len(tasks))
	for i, t := range tasks {
		rows[i] = NewRow(t)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.BoardID != b.BoardID {
			return a.BoardID < b.BoardID
		}
		return a.ProgramID < b.ProgramID
	})
	return rows
}

// ExportToCSV renders tasks with columns: Board ID, Program ID, Name, Categories, Tags, Owner, Points, Blocked, Due
func ExportToCSV(tasks []*models.Task) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Board ID", "Program ID", "Name", "Categories", "Tags", "Owner", "Points", "Blocked", "Due"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range Rows(tasks) {
		record := []string{
			row.BoardID,
			row.ProgramID,
			row.Name,
			strings.Join(row.Categories, ";"),
			shared.JoinList(row.Tags),
			row.Owner,
			strconv.Itoa(row.Points),
			strconv.FormatBool(row.Blocked),
			formatDue(row.Due),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders tasks as a summary followed by one section per category.
//
// Tasks without a category are listed under "Uncategorized". A task with several categories appears in each.
func ExportToMarkdown(title string, tasks []*models.Task) ([]byte, error) {
	var buf bytes.Buffer
	rows := Rows(tasks)

	if title == "" {
		title = "Tasks"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	linked := 0
	for _, row := range rows {
		if row.Linked {
			linked++
		}
	}
	buf.WriteString(fmt.Sprintf("**Tasks**: %d\n", len(rows)))
	buf.WriteString(fmt.Sprintf("**Linked**: %d\n\n", linked))

	sections := make([]string, 0, len(models.Categories())+1)
	byCategory := make(map[string][]Row)
	for _, c := range models.Categories() {
		sections = append(sections, c.String())
	}
	sections = append(sections, "Uncategorized")

	for _, row := range rows {
		if len(row.Categories) == 0 {
			byCategory["Uncategorized"] = append(byCategory["Uncategorized"], row)
			continue
		}
		for _, c := range row.Categories {
			byCategory[c] = append(byCategory[c], row)
		}
	}

	for _, section := range sections {
		entries := byCategory[section]
		if len(entries) == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("## %s\n\n", section))
		for _, row := range entries {
			buf.WriteString(markdownItem(row))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func markdownItem(row Row) string {
	box := " "
	if row.Linked {
		box = "x"
	}

	var details []string
	if row.Owner != "" {
		details = append(details, "@"+row.Owner)
	}
	if row.Points > 0 {
		details = append(details, fmt.Sprintf("%d pts", row.Points))
	}
	if row.Due != nil {
		details = append(details, "due "+formatDue(row.Due))
	}
	if row.Blocked {
		details = append(details, "**blocked**")
	}

	suffix := ""
	if len(details) > 0 {
		suffix = " (" + strings.Join(details, ", ") + ")"
	}

	name := row.Name
	if name == "" {
		name = "<untitled>"
	}
	return fmt.Sprintf("- [%s] %s%s\n", box, name, suffix)
}

// ExportToJSON renders tasks as an indented JSON array of [Row].
func ExportToJSON(tasks []*models.Task) ([]byte, error) {
	data, err := json.MarshalIndent(Rows(tasks), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tasks: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders tasks in the given format.
func Export(format Format, title string, tasks []*models.Task) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(tasks)
	case FormatMarkdown:
		return ExportToMarkdown(title, tasks)
	case FormatJSON:
		return ExportToJSON(tasks)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidInput, format)
	}
}

// WriteExport renders tasks and writes them to path.
//
// Defaults to tasks.{ext} as the filename. Returns the path written.
func WriteExport(format Format, path, title string, tasks []*models.Task) (string, error) {
	if path == "" {
		path = "tasks." + format.Extension()
	}

	data, err := Export(format, title, tasks)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

func formatDue(due *time.Time) string {
	if due == nil || due.IsZero() {
		return ""
	}
	return due.UTC().Format("2006-01-02")
}
