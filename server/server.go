// Package server exposes the generated feeds over HTTP so the documents are
// reachable at their configured rsslink, plus a small status API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
)

// WriteTracker reports per-destination write state for the status endpoint
type WriteTracker interface {
	Written(destination string) bool
}

// Feed is one served feed: the task-facing name and the destination file
// behind it
type Feed struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// Config holds server configuration
type Config struct {
	Listen  string
	Timeout time.Duration
	Version string
	Debug   bool
	Feeds   []Feed
	Tracker WriteTracker
}

// Server represents HTTP server instance
type Server struct {
	listen  string
	timeout time.Duration
	version string
	debug   bool
	feeds   map[string]Feed
	order   []string
	tracker WriteTracker

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance
func New(cfg Config) *Server {
	s := &Server{
		listen:  cfg.Listen,
		timeout: cfg.Timeout,
		version: cfg.Version,
		debug:   cfg.Debug,
		feeds:   make(map[string]Feed),
		tracker: cfg.Tracker,
		router:  routegroup.New(http.NewServeMux()),
	}
	for _, f := range cfg.Feeds {
		if _, ok := s.feeds[f.Name]; !ok {
			s.order = append(s.order, f.Name)
		}
		s.feeds[f.Name] = f
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         s.listen,
		Handler:      s.router,
		ReadTimeout:  s.timeout,
		WriteTimeout: s.timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("feedmill", "feedmill", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
	})

	s.router.HandleFunc("GET /feeds/{name}", s.feedHandler)
}

// statusHandler returns per-destination write state for this process lifetime
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	type feedStatus struct {
		Name    string `json:"name"`
		File    string `json:"file"`
		Written bool   `json:"written"`
	}

	feeds := make([]feedStatus, 0, len(s.order))
	for _, name := range s.order {
		f := s.feeds[name]
		written := false
		if s.tracker != nil {
			written = s.tracker.Written(f.File)
		}
		feeds = append(feeds, feedStatus{Name: f.Name, File: f.File, Written: written})
	}

	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
		"feeds":   feeds,
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// feedHandler serves the generated document of one named task
func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	f, ok := s.feeds[name]
	if !ok {
		RenderError(w, r, fmt.Errorf("unknown feed %q", name), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	http.ServeFile(w, r, f.File)
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
