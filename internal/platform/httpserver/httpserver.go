// Package httpserver configures the stdlib server both binaries listen with.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server with timeouts suited to small JSON request bodies.
// Per-request deadlines are enforced by the router's timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
