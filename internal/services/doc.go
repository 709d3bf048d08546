// Package services defines the remote collaborators of a sync run, [BoardService] and [ProgramService], and implements them over HTTP.
//
// # Board Service
//
// [BoardClient] talks to a Trello-style Kanban board: cards live in lists, carry typed custom field items, and can be
// watched through webhooks. Key and token are sent as query parameters on every request.
//
// Custom field values use a tri-variant encoding ({"checked": "true"}, {"text": "..."}, {"number": "42"}) modelled
// here as the tagged union [CustomFieldValue]. [ValueToCustomField] and [CustomFieldToValue] convert between task
// values and that encoding.
//
// # Program Service
//
// [ProgramClient] talks to the program-management API. The task listing is cursor paginated through [TaskPage];
// [EachTaskPage] follows the cursor. Authentication is a bearer token applied by an [oauth2.StaticTokenSource].
//
// # Rate Limiting
//
// Each client owns a [rate.Limiter] that enforces a minimum interval between calls to its service. The limiter is
// shared by every goroutine using the client, so concurrent write passes stay within the service's limits.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.NotFoundError] : the card, webhook or task no longer exists (Is [shared.ErrNotFound])
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.UnsupportedTypeError] : a value with no custom field encoding
//
// No call is retried.
package services
