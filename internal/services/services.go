package services

import (
	"context"
	"time"
)

// BoardService defines the operations the sync engine needs from the Kanban board service.
type BoardService interface {
	// FetchAllCards returns every open card on the configured board with its custom field items.
	FetchAllCards(ctx context.Context) ([]Card, error)

	// UpdateCardMainFields writes name, description and due date of an existing card.
	// Returns a [shared.NotFoundError] when the card no longer exists.
	UpdateCardMainFields(ctx context.Context, id string, fields CardFields) (*Card, error)

	// CreateCard creates a card in fields.IDList.
	CreateCard(ctx context.Context, fields CardFields) (*Card, error)

	// DeleteCard removes a card.
	DeleteCard(ctx context.Context, id string) error

	// UpdateCustomField sets a single custom field item on a card.
	UpdateCustomField(ctx context.Context, cardID, fieldID string, value CustomFieldValue) error

	// UpdateCustomFields sets several custom field items on a card in one call.
	UpdateCustomFields(ctx context.Context, cardID string, updates []CustomFieldUpdate) error

	// ListWebhooks returns the webhooks registered for the API token.
	ListWebhooks(ctx context.Context) ([]Webhook, error)

	// DeleteWebhook removes a webhook.
	DeleteWebhook(ctx context.Context, id string) error

	// CreateWebhook registers the configured callback for changes to a card.
	CreateWebhook(ctx context.Context, cardID string) (*Webhook, error)

	// Name returns the name of the service
	Name() string
}

// ProgramService defines the operations the sync engine needs from the program-management API.
type ProgramService interface {
	// FetchTaskPage returns one page of tasks. An empty token requests the first page.
	FetchTaskPage(ctx context.Context, pageToken string) (*TaskPage, error)

	// UpdateTask applies a partial update. Returns a [shared.NotFoundError] when the task no longer exists.
	UpdateTask(ctx context.Context, id string, patch map[string]any) (*ProgramTask, error)

	// CreateTask creates a task and returns it with its assigned id.
	CreateTask(ctx context.Context, task ProgramTask) (*ProgramTask, error)

	// Name returns the name of the service
	Name() string
}

// Card is a board card as returned by the board service.
type Card struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Desc             string            `json:"desc"`
	IDList           string            `json:"idList"`
	IDBoard          string            `json:"idBoard,omitempty"`
	Due              *time.Time        `json:"due"`
	DateLastActivity time.Time         `json:"dateLastActivity"`
	ShortURL         string            `json:"shortUrl,omitempty"`
	CustomFieldItems []CustomFieldItem `json:"customFieldItems,omitempty"`
}

// CustomField returns the item for the custom field id, if the card carries one.
func (c Card) CustomField(fieldID string) (CustomFieldItem, bool) {
	if fieldID == "" {
		return CustomFieldItem{}, false
	}
	for _, item := range c.CustomFieldItems {
		if item.IDCustomField == fieldID {
			return item, true
		}
	}
	return CustomFieldItem{}, false
}

// CardFields are the main (non custom) card fields accepted by create and update calls.
type CardFields struct {
	Name   string     `json:"name"`
	Desc   string     `json:"desc"`
	Due    *time.Time `json:"due"`
	IDList string     `json:"idList,omitempty"`
}

// CustomFieldItem is the value of one custom field on one card.
type CustomFieldItem struct {
	ID            string           `json:"id,omitempty"`
	IDCustomField string           `json:"idCustomField"`
	IDModel       string           `json:"idModel,omitempty"`
	Value         CustomFieldValue `json:"value"`
}

// CustomFieldUpdate is one entry of a batched custom field update.
type CustomFieldUpdate struct {
	IDCustomField string           `json:"idCustomField"`
	Value         CustomFieldValue `json:"value"`
}

// Webhook is a board webhook registration.
type Webhook struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IDModel     string `json:"idModel"`
	CallbackURL string `json:"callbackURL"`
	Active      bool   `json:"active"`
}

// ProgramTask is a task as returned by the program service.
//
// Pointer fields are nil when the service omits them.
type ProgramTask struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes"`
	Categories  []string   `json:"categories"`
	Tags        []string   `json:"tags"`
	Owner       string     `json:"owner"`
	Points      *int       `json:"points,omitempty"`
	Blocked     *bool      `json:"blocked,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
	Updated     time.Time  `json:"updated"`
	BoardCardID string     `json:"board_card_id,omitempty"`
}

// TaskPage is one page of the program task listing.
type TaskPage struct {
	Results []ProgramTask `json:"results"`
	Next    *string       `json:"next"`
}

// NextToken returns the cursor of the following page, empty on the last page.
func (p *TaskPage) NextToken() string {
	if p == nil || p.Next == nil {
		return ""
	}
	return *p.Next
}
