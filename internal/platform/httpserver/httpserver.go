package httpserver

import (
	"net/http"
	"time"
)

// Option overrides one of the server defaults.
type Option func(*http.Server)

func WithReadTimeout(d time.Duration) Option {
	return func(srv *http.Server) { srv.ReadTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(srv *http.Server) { srv.WriteTimeout = d }
}

// New builds an HTTP server with sane defaults for this project.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
