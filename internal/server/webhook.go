package server

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
	"github.com/desertthunder/boardsync/internal/tasks"
)

const (
	// DefaultWebhookPath is where the board delivers change notifications.
	DefaultWebhookPath = "/webhooks/board"
	// SignatureHeader carries the base64 HMAC-SHA1 of the body followed by the callback URL.
	SignatureHeader = "X-Trello-Webhook"

	maxWebhookBody = 1 << 20
)

// BoardWebhookOpts configures a [BoardWebhookHandler].
type BoardWebhookOpts struct {
	Path        string // defaults to [DefaultWebhookPath]
	Secret      string // signature verification is skipped when empty
	CallbackURL string // URL the webhooks were registered with; part of the signed content
	Logger      *log.Logger
}

// BoardWebhookHandler receives board webhook notifications and hands them to an [EventHandler].
//
// HEAD and GET answer 200 so the board can validate the callback URL when a webhook is registered.
type BoardWebhookHandler struct {
	events      EventHandler
	path        string
	secret      []byte
	callbackURL string
	logger      *log.Logger
}

// NewBoardWebhookHandler creates a handler that forwards decoded notifications to events.
func NewBoardWebhookHandler(events EventHandler, opts BoardWebhookOpts) *BoardWebhookHandler {
	if opts.Path == "" {
		opts.Path = DefaultWebhookPath
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &BoardWebhookHandler{
		events:      events,
		path:        opts.Path,
		secret:      []byte(opts.Secret),
		callbackURL: opts.CallbackURL,
		logger:      opts.Logger,
	}
}

// Routes implements [Handler].
func (h *BoardWebhookHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP implements [http.Handler].
func (h *BoardWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead, http.MethodGet:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxWebhookBody {
		http.Error(w, "Body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if len(h.secret) > 0 {
		if err := h.verify(body, r.Header.Get(SignatureHeader)); err != nil {
			h.logger.Warn("rejected webhook", "remote", r.RemoteAddr, "error", err)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	event, err := DecodeBoardEvent(body)
	if err != nil {
		h.logger.Warn("rejected malformed webhook", "error", err)
		http.Error(w, "Malformed notification", http.StatusBadRequest)
		return
	}

	if err := h.events.HandleRemoteEvent(r.Context(), event); err != nil {
		h.logger.Error("failed to handle webhook", "event", event.Type, "card", event.CardID, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		http.Error(w, "Failed to handle notification", status)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *BoardWebhookHandler) verify(body []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", shared.ErrInvalidSignature, SignatureHeader)
	}
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidSignature, err)
	}
	if !hmac.Equal(got, Sign(h.secret, body, h.callbackURL)) {
		return shared.ErrInvalidSignature
	}
	return nil
}

// Sign computes the raw HMAC-SHA1 the board attaches to a notification for the given callback URL.
func Sign(secret, body []byte, callbackURL string) []byte {
	mac := hmac.New(sha1.New, secret)
	mac.Write(body)
	mac.Write([]byte(callbackURL))
	return mac.Sum(nil)
}

// SignBase64 is [Sign] encoded the way the signature header carries it.
func SignBase64(secret, body []byte, callbackURL string) string {
	return base64.StdEncoding.EncodeToString(Sign(secret, body, callbackURL))
}

type boardNotification struct {
	Action struct {
		Type string `json:"type"`
		Data struct {
			Card            *services.Card            `json:"card"`
			Old             map[string]any            `json:"old"`
			CustomFieldItem *services.CustomFieldItem `json:"customFieldItem"`
		} `json:"data"`
	} `json:"action"`
}

// DecodeBoardEvent converts a webhook notification body into a [tasks.Event].
func DecodeBoardEvent(body []byte) (tasks.Event, error) {
	var n boardNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return tasks.Event{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if n.Action.Type == "" {
		return tasks.Event{}, fmt.Errorf("%w: notification has no action type", shared.ErrInvalidInput)
	}

	data := n.Action.Data
	event := tasks.Event{
		Type: tasks.EventType(n.Action.Type),
		Payload: tasks.EventPayload{
			Card: data.Card,
			Item: data.CustomFieldItem,
			Old:  data.Old,
		},
	}

	switch {
	case data.Card != nil && data.Card.ID != "":
		event.CardID = data.Card.ID
	case data.CustomFieldItem != nil:
		event.CardID = data.CustomFieldItem.IDModel
	}
	return event, nil
}
