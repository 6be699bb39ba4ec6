// Package server provides HTTP routing, middleware, and upload handlers for the sync web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handlers
//
// [HealthHandler] answers liveness checks on GET /.
//
// [SyncHandler] accepts one spreadsheet upload per POST /sync request, runs a
// full reconcile-and-sync pass through [SyncRunner], and maps run failures to
// HTTP statuses: unresolved project name → 404, malformed upload → 400,
// upstream dependency failure → 500. Per-task sync failures are not HTTP
// errors; they appear in the returned outcome log.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
