// Board service client.
//
// Endpoint shapes follow the Trello REST API: https://developer.atlassian.com/cloud/trello/rest/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/boardsync/internal/shared"
	"github.com/google/uuid"
)

const DefaultBoardBaseURL = "https://api.trello.com/1"

// BoardClientOpts configures a [BoardClient].
type BoardClientOpts struct {
	BaseURL     string
	Key         string
	Token       string
	BoardID     string
	CallbackURL string        // receiver URL registered with new webhooks
	MinInterval time.Duration // minimum spacing between calls; zero disables limiting
	HTTPClient  *http.Client
}

// BoardClient implements [BoardService] over the board's REST API.
//
// Authentication uses key and token query parameters on every request.
type BoardClient struct {
	rest        restClient
	boardID     string
	token       string
	callbackURL string
}

// NewBoardClient creates a board client. Key, token and board id are required.
func NewBoardClient(opts BoardClientOpts) (*BoardClient, error) {
	if opts.Key == "" || opts.Token == "" {
		return nil, fmt.Errorf("%w: board key and token are required", shared.ErrMissingCredentials)
	}
	if opts.BoardID == "" {
		return nil, fmt.Errorf("%w: board_id is required", shared.ErrInvalidConfig)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBoardBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &BoardClient{
		rest: restClient{
			name:       "board",
			baseURL:    baseURL,
			query:      url.Values{"key": {opts.Key}, "token": {opts.Token}},
			httpClient: httpClient,
			limiter:    newLimiter(opts.MinInterval),
		},
		boardID:     opts.BoardID,
		token:       opts.Token,
		callbackURL: opts.CallbackURL,
	}, nil
}

// Name returns the service name.
func (b *BoardClient) Name() string {
	return "Board"
}

// FetchAllCards implements [BoardService].
func (b *BoardClient) FetchAllCards(ctx context.Context) ([]Card, error) {
	params := url.Values{"customFieldItems": {"true"}, "filter": {"open"}}

	var cards []Card
	if err := b.rest.doRequest(ctx, http.MethodGet, "/boards/"+b.boardID+"/cards", params, nil, &cards); err != nil {
		return nil, fmt.Errorf("failed to fetch cards for board %s: %w", b.boardID, err)
	}
	return cards, nil
}

// UpdateCardMainFields implements [BoardService].
func (b *BoardClient) UpdateCardMainFields(ctx context.Context, id string, fields CardFields) (*Card, error) {
	var card Card
	if err := b.rest.doRequest(ctx, http.MethodPut, "/cards/"+id, nil, fields, &card); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &shared.NotFoundError{Kind: "card", ID: id}
		}
		return nil, fmt.Errorf("failed to update card %s: %w", id, err)
	}
	return &card, nil
}

// CreateCard implements [BoardService].
func (b *BoardClient) CreateCard(ctx context.Context, fields CardFields) (*Card, error) {
	if fields.IDList == "" {
		return nil, fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}

	var card Card
	if err := b.rest.doRequest(ctx, http.MethodPost, "/cards", nil, fields, &card); err != nil {
		return nil, fmt.Errorf("failed to create card in list %s: %w", fields.IDList, err)
	}
	return &card, nil
}

// DeleteCard implements [BoardService].
func (b *BoardClient) DeleteCard(ctx context.Context, id string) error {
	if err := b.rest.doRequest(ctx, http.MethodDelete, "/cards/"+id, nil, nil, nil); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &shared.NotFoundError{Kind: "card", ID: id}
		}
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

// UpdateCustomField implements [BoardService].
func (b *BoardClient) UpdateCustomField(ctx context.Context, cardID, fieldID string, value CustomFieldValue) error {
	endpoint := fmt.Sprintf("/cards/%s/customField/%s/item", cardID, fieldID)
	body := map[string]CustomFieldValue{"value": value}

	if err := b.rest.doRequest(ctx, http.MethodPut, endpoint, nil, body, nil); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &shared.NotFoundError{Kind: "card", ID: cardID}
		}
		return fmt.Errorf("failed to update custom field %s on card %s: %w", fieldID, cardID, err)
	}
	return nil
}

// UpdateCustomFields implements [BoardService]. An empty batch makes no request.
func (b *BoardClient) UpdateCustomFields(ctx context.Context, cardID string, updates []CustomFieldUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	body := map[string][]CustomFieldUpdate{"customFieldItems": updates}
	if err := b.rest.doRequest(ctx, http.MethodPut, "/cards/"+cardID+"/customFields", nil, body, nil); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &shared.NotFoundError{Kind: "card", ID: cardID}
		}
		return fmt.Errorf("failed to update %d custom fields on card %s: %w", len(updates), cardID, err)
	}
	return nil
}

// ListWebhooks implements [BoardService].
func (b *BoardClient) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var hooks []Webhook
	if err := b.rest.doRequest(ctx, http.MethodGet, "/tokens/"+b.token+"/webhooks", nil, nil, &hooks); err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return hooks, nil
}

// DeleteWebhook implements [BoardService].
func (b *BoardClient) DeleteWebhook(ctx context.Context, id string) error {
	if err := b.rest.doRequest(ctx, http.MethodDelete, "/webhooks/"+id, nil, nil, nil); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &shared.NotFoundError{Kind: "webhook", ID: id}
		}
		return fmt.Errorf("failed to delete webhook %s: %w", id, err)
	}
	return nil
}

// CreateWebhook implements [BoardService].
func (b *BoardClient) CreateWebhook(ctx context.Context, cardID string) (*Webhook, error) {
	if b.callbackURL == "" {
		return nil, fmt.Errorf("%w: server.callback_url is required to register webhooks", shared.ErrInvalidConfig)
	}

	body := map[string]string{
		"callbackURL": b.callbackURL,
		"idModel":     cardID,
		"description": "boardsync " + uuid.NewString(),
	}

	var hook Webhook
	if err := b.rest.doRequest(ctx, http.MethodPost, "/webhooks", nil, body, &hook); err != nil {
		return nil, fmt.Errorf("failed to create webhook for card %s: %w", cardID, err)
	}
	return &hook, nil
}

// CallbackURL returns the receiver URL new webhooks are registered with.
func (b *BoardClient) CallbackURL() string {
	return b.callbackURL
}
