package httpserver

import (
	"net/http"
	"time"
)

// New builds the ops HTTP server (health and metrics only) with conservative
// timeouts. The product surface of this module is library-level, not HTTP.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
