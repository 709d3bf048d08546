// Package server provides HTTP routing, middleware, and the board webhook receiver.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger], [Recoverer] and [MaxBody] are the stock middleware.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally and dispatches by method per path,
// answering 405 with an Allow header for methods a path does not serve.
//
// # Board Webhooks
//
// [BoardWebhookHandler] accepts change notifications from the board. HEAD and GET answer 200 so the board can
// validate the callback URL when a webhook is created. POST bodies are decoded with [DecodeBoardEvent] and passed to
// an [EventHandler], normally the sync engine.
//
// When a secret is configured, each POST must carry a base64 HMAC-SHA1 of the body followed by the callback URL in
// the [SignatureHeader] header. Notifications that fail verification get a 401.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [Serve] runs a handler until its context is cancelled, then shuts down with a fixed grace period.
package server
