package web

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cwhit/musicvault/internal/gateway"
	"github.com/cwhit/musicvault/internal/identity"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	SessionTTL  time.Duration
	Sessions    SessionManager // in-memory store when nil
	Provider    *identity.Provider
	Resolver    *identity.Resolver
	Blobs       *gateway.BlobCache
	TemplatesFS fs.FS
	StaticFS    fs.FS
	Logger      *log.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	sessions  SessionManager
	views     *Views
	handlers  *Handlers
	logger    *log.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewSessionStore(cfg.SessionTTL)
	}
	views := NewViews(cfg.Resolver, cfg.Provider.Events(), cfg.Logger)
	handlers := NewHandlers(cfg.Provider, views, sessions, templates, cfg.Blobs, cfg.Logger)

	router := chi.NewRouter()

	s := &Server{
		router:    router,
		templates: templates,
		sessions:  sessions,
		views:     views,
		handlers:  handlers,
		logger:    cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	// Static files
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Pages
	s.router.Get("/", s.handlers.Home)
	s.router.Get("/signup", s.handlers.SignupPage)
	s.router.Get("/dashboard", s.handlers.Dashboard)

	// Auth
	s.router.Post("/login", s.handlers.Login)
	s.router.Post("/signup", s.handlers.Signup)
	s.router.Post("/logout", s.handlers.Logout)

	// Playlist
	s.router.Post("/songs", s.handlers.UploadSongs)
	s.router.Post("/songs/reorder", s.handlers.Reorder)
	s.router.Post("/songs/sync", s.handlers.SyncNow)
	s.router.Post("/songs/{id}/delete", s.handlers.DeleteSong)
	s.router.Post("/songs/{id}/title", s.handlers.RenameSong)
	s.router.Post("/songs/{id}/duration", s.handlers.ReportDuration)
	s.router.Post("/songs/{id}/toggle", s.handlers.TogglePlayback)
	s.router.Post("/songs/{id}/ended", s.handlers.TrackEnded)

	// Fallback-mode audio
	s.router.Get("/blobs/{id}", s.handlers.Blob)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "url", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	// Flush pending playlist saves before the process exits.
	s.views.CloseAll(ctx)
	return err
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
