// package server contains the HTTP routing, middleware and handlers for the
// review API.
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the review API.
// Implementations handle specific endpoint groups (auth, reviews, exploration, social).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                // Use adds middleware to the router's middleware stack
	Handle(pattern string, handler http.Handler) // Handle registers a handler for the given method-and-path pattern
	Handler(handler Handler)                     // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}
