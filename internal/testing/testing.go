// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
)

// Call records one invocation of a fake service method.
type Call struct {
	Method string
	ID     string
	Args   any
}

type recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *recorder) record(method, id string, args any) {
	r.calls = append(r.calls, Call{Method: method, ID: id, Args: args})
}

// Calls returns the recorded calls to method, in order. An empty method returns every call.
func (r *recorder) Calls(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	for _, c := range r.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns the number of recorded calls to method.
func (r *recorder) CallCount(method string) int {
	return len(r.Calls(method))
}

// FakeBoard is an in-memory [services.BoardService] that records every call.
//
// Errors placed in Errors, keyed by method name, are returned by that method.
// UpdateCardMainFields for an unknown card returns a [shared.NotFoundError].
type FakeBoard struct {
	recorder

	Errors      map[string]error
	CallbackURL string

	cards    map[string]*services.Card
	order    []string
	webhooks []services.Webhook
	nextID   int
}

// NewFakeBoard creates a fake board holding cards.
func NewFakeBoard(cards ...services.Card) *FakeBoard {
	b := &FakeBoard{Errors: map[string]error{}, cards: map[string]*services.Card{}, CallbackURL: "http://fake/webhooks/board"}
	for _, c := range cards {
		b.AddCard(c)
	}
	return b
}

// AddCard stores a card.
func (b *FakeBoard) AddCard(c services.Card) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.cards[c.ID]; !ok {
		b.order = append(b.order, c.ID)
	}
	card := c
	b.cards[c.ID] = &card
}

// Card returns a copy of the stored card.
func (b *FakeBoard) Card(id string) (services.Card, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.cards[id]
	if !ok {
		return services.Card{}, false
	}
	return *c, true
}

// AddWebhook stores a webhook registration.
func (b *FakeBoard) AddWebhook(h services.Webhook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.webhooks = append(b.webhooks, h)
}

func (b *FakeBoard) Name() string { return "fake-board" }

func (b *FakeBoard) FetchAllCards(ctx context.Context) ([]services.Card, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("FetchAllCards", "", nil)

	if err := b.Errors["FetchAllCards"]; err != nil {
		return nil, err
	}

	cards := make([]services.Card, 0, len(b.order))
	for _, id := range b.order {
		if c, ok := b.cards[id]; ok {
			cards = append(cards, *c)
		}
	}
	return cards, nil
}

func (b *FakeBoard) UpdateCardMainFields(ctx context.Context, id string, fields services.CardFields) (*services.Card, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UpdateCardMainFields", id, fields)

	if err := b.Errors["UpdateCardMainFields"]; err != nil {
		return nil, err
	}

	c, ok := b.cards[id]
	if !ok {
		return nil, &shared.NotFoundError{Kind: "card", ID: id}
	}
	c.Name, c.Desc, c.Due = fields.Name, fields.Desc, fields.Due
	card := *c
	return &card, nil
}

func (b *FakeBoard) CreateCard(ctx context.Context, fields services.CardFields) (*services.Card, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CreateCard", "", fields)

	if err := b.Errors["CreateCard"]; err != nil {
		return nil, err
	}

	b.nextID++
	card := services.Card{
		ID:     "card-" + strconv.Itoa(b.nextID),
		Name:   fields.Name,
		Desc:   fields.Desc,
		Due:    fields.Due,
		IDList: fields.IDList,
	}
	b.cards[card.ID] = &card
	b.order = append(b.order, card.ID)

	created := card
	return &created, nil
}

func (b *FakeBoard) DeleteCard(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteCard", id, nil)

	if err := b.Errors["DeleteCard"]; err != nil {
		return err
	}
	if _, ok := b.cards[id]; !ok {
		return &shared.NotFoundError{Kind: "card", ID: id}
	}
	delete(b.cards, id)
	return nil
}

func (b *FakeBoard) UpdateCustomField(ctx context.Context, cardID, fieldID string, value services.CustomFieldValue) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UpdateCustomField", cardID, services.CustomFieldUpdate{IDCustomField: fieldID, Value: value})

	if err := b.Errors["UpdateCustomField"]; err != nil {
		return err
	}
	return b.applyCustomField(cardID, fieldID, value)
}

func (b *FakeBoard) UpdateCustomFields(ctx context.Context, cardID string, updates []services.CustomFieldUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UpdateCustomFields", cardID, append([]services.CustomFieldUpdate(nil), updates...))

	if err := b.Errors["UpdateCustomFields"]; err != nil {
		return err
	}
	for _, u := range updates {
		if err := b.applyCustomField(cardID, u.IDCustomField, u.Value); err != nil {
			return err
		}
	}
	return nil
}

func (b *FakeBoard) applyCustomField(cardID, fieldID string, value services.CustomFieldValue) error {
	c, ok := b.cards[cardID]
	if !ok {
		return &shared.NotFoundError{Kind: "card", ID: cardID}
	}

	items := c.CustomFieldItems[:0:0]
	for _, item := range c.CustomFieldItems {
		if item.IDCustomField != fieldID {
			items = append(items, item)
		}
	}
	if value.Kind != services.CustomFieldEmpty {
		items = append(items, services.CustomFieldItem{IDCustomField: fieldID, IDModel: cardID, Value: value})
	}
	c.CustomFieldItems = items
	return nil
}

func (b *FakeBoard) ListWebhooks(ctx context.Context) ([]services.Webhook, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ListWebhooks", "", nil)

	if err := b.Errors["ListWebhooks"]; err != nil {
		return nil, err
	}
	return append([]services.Webhook(nil), b.webhooks...), nil
}

func (b *FakeBoard) DeleteWebhook(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteWebhook", id, nil)

	if err := b.Errors["DeleteWebhook"]; err != nil {
		return err
	}
	for i, h := range b.webhooks {
		if h.ID == id {
			b.webhooks = append(b.webhooks[:i], b.webhooks[i+1:]...)
			return nil
		}
	}
	return &shared.NotFoundError{Kind: "webhook", ID: id}
}

func (b *FakeBoard) CreateWebhook(ctx context.Context, cardID string) (*services.Webhook, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CreateWebhook", cardID, nil)

	if err := b.Errors["CreateWebhook"]; err != nil {
		return nil, err
	}

	b.nextID++
	h := services.Webhook{ID: "hook-" + strconv.Itoa(b.nextID), IDModel: cardID, CallbackURL: b.CallbackURL, Active: true}
	b.webhooks = append(b.webhooks, h)
	return &h, nil
}

// FakeProgram is an in-memory [services.ProgramService] that records every call.
//
// Tasks are served PageSize at a time with numeric page tokens. Errors keyed by method name are returned by that
// method. UpdateTask for an unknown task returns a [shared.NotFoundError].
type FakeProgram struct {
	recorder

	Errors   map[string]error
	PageSize int

	tasks  map[string]*services.ProgramTask
	order  []string
	nextID int
}

// NewFakeProgram creates a fake program service holding tasks.
func NewFakeProgram(tasks ...services.ProgramTask) *FakeProgram {
	p := &FakeProgram{Errors: map[string]error{}, PageSize: 2, tasks: map[string]*services.ProgramTask{}}
	for _, t := range tasks {
		p.AddTask(t)
	}
	return p
}

// AddTask stores a task.
func (p *FakeProgram) AddTask(t services.ProgramTask) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.tasks[t.ID]; !ok {
		p.order = append(p.order, t.ID)
	}
	task := t
	p.tasks[t.ID] = &task
}

// Task returns a copy of the stored task.
func (p *FakeProgram) Task(id string) (services.ProgramTask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tasks[id]
	if !ok {
		return services.ProgramTask{}, false
	}
	return *t, true
}

func (p *FakeProgram) Name() string { return "fake-program" }

func (p *FakeProgram) FetchTaskPage(ctx context.Context, pageToken string) (*services.TaskPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("FetchTaskPage", pageToken, nil)

	if err := p.Errors["FetchTaskPage"]; err != nil {
		return nil, err
	}

	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, fmt.Errorf("%w: bad page token %q", shared.ErrAPIRequest, pageToken)
		}
		start = n
	}

	size := max(p.PageSize, 1)
	end := min(start+size, len(p.order))

	page := &services.TaskPage{Results: []services.ProgramTask{}}
	for _, id := range p.order[start:end] {
		page.Results = append(page.Results, *p.tasks[id])
	}
	if end < len(p.order) {
		next := strconv.Itoa(end)
		page.Next = &next
	}
	return page, nil
}

func (p *FakeProgram) UpdateTask(ctx context.Context, id string, patch map[string]any) (*services.ProgramTask, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("UpdateTask", id, patch)

	if err := p.Errors["UpdateTask"]; err != nil {
		return nil, err
	}

	t, ok := p.tasks[id]
	if !ok {
		return nil, &shared.NotFoundError{Kind: "task", ID: id}
	}
	if v, ok := patch["title"].(string); ok {
		t.Title = v
	}
	if v, ok := patch["notes"].(string); ok {
		t.Notes = v
	}
	if v, ok := patch["categories"].([]string); ok {
		t.Categories = v
	}
	if v, ok := patch["board_card_id"].(string); ok {
		t.BoardCardID = v
	}
	task := *t
	return &task, nil
}

func (p *FakeProgram) CreateTask(ctx context.Context, task services.ProgramTask) (*services.ProgramTask, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("CreateTask", "", task)

	if err := p.Errors["CreateTask"]; err != nil {
		return nil, err
	}

	p.nextID++
	task.ID = "task-" + strconv.Itoa(p.nextID)
	p.tasks[task.ID] = &task
	p.order = append(p.order, task.ID)

	created := task
	return &created, nil
}

// PatchKeys returns the sorted keys of a recorded UpdateTask patch.
func PatchKeys(c Call) []string {
	patch, _ := c.Args.(map[string]any)
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewBufferLogger returns a logger writing plain text into the returned buffer, for asserting on log output.
func NewBufferLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	return logger, &buf
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
