// Program service client.
//
// The program API lists tasks with cursor pagination and accepts partial updates via PATCH.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/boardsync/internal/shared"
	"golang.org/x/oauth2"
)

const DefaultProgramPageSize = 100

// ProgramClientOpts configures a [ProgramClient].
type ProgramClientOpts struct {
	BaseURL     string
	AccessToken string
	PageSize    int
	MinInterval time.Duration
	HTTPClient  *http.Client // base transport; the bearer token is layered on top
}

// ProgramClient implements [ProgramService].
//
// Requests carry the access token as a bearer token through an [oauth2.StaticTokenSource].
type ProgramClient struct {
	rest     restClient
	pageSize int
}

// NewProgramClient creates a program client. Base URL and access token are required.
func NewProgramClient(opts ProgramClientOpts) (*ProgramClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: program base_url is required", shared.ErrInvalidConfig)
	}
	if opts.AccessToken == "" {
		return nil, fmt.Errorf("%w: program access_token is required", shared.ErrMissingCredentials)
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: opts.AccessToken,
		TokenType:   "Bearer",
	}))
	if httpClient.Timeout == 0 {
		httpClient.Timeout = 30 * time.Second
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultProgramPageSize
	}

	return &ProgramClient{
		rest: restClient{
			name:       "program",
			baseURL:    opts.BaseURL,
			httpClient: httpClient,
			limiter:    newLimiter(opts.MinInterval),
		},
		pageSize: pageSize,
	}, nil
}

// Name returns the service name.
func (p *ProgramClient) Name() string {
	return "Program"
}

// FetchTaskPage implements [ProgramService].
func (p *ProgramClient) FetchTaskPage(ctx context.Context, pageToken string) (*TaskPage, error) {
	params := url.Values{"page_size": {strconv.Itoa(p.pageSize)}}
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}

	var page TaskPage
	if err := p.rest.doRequest(ctx, http.MethodGet, "/tasks", params, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch task page: %w", err)
	}
	return &page, nil
}

// EachTaskPage follows the pagination cursor of svc, calling fn with every page until the last one.
//
// The first error, from the service or from fn, stops the walk.
func EachTaskPage(ctx context.Context, svc ProgramService, fn func(*TaskPage) error) error {
	var token string
	for {
		page, err := svc.FetchTaskPage(ctx, token)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}

		token = page.NextToken()
		if token == "" {
			return nil
		}
	}
}

// UpdateTask implements [ProgramService].
func (p *ProgramClient) UpdateTask(ctx context.Context, id string, patch map[string]any) (*ProgramTask, error) {
	var task ProgramTask
	if err := p.rest.doRequest(ctx, http.MethodPatch, "/tasks/"+id, nil, patch, &task); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &shared.NotFoundError{Kind: "task", ID: id}
		}
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return &task, nil
}

// CreateTask implements [ProgramService].
func (p *ProgramClient) CreateTask(ctx context.Context, task ProgramTask) (*ProgramTask, error) {
	task.ID = ""

	var created ProgramTask
	if err := p.rest.doRequest(ctx, http.MethodPost, "/tasks", nil, task, &created); err != nil {
		return nil, fmt.Errorf("failed to create task %q: %w", task.Title, err)
	}
	return &created, nil
}
