// Package server provides HTTP routing, middleware and the listener lifecycle for the web front-end.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [Recoverer] are the stock middleware.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Server
//
// [Server] binds first so callers can learn the real address (port 0 in tests, the browser URL for --open)
// and then serves until its context is cancelled, shutting down gracefully.
package server
