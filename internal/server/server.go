// Package server exposes gesture events, detector state and the camera preview over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/leapball/internal/server/api"
)

// Config holds the server collaborators. Routes whose collaborator is nil are not registered.
type Config struct {
	StaticDir string
	Controls  api.Controls
	Hub       *Hub
	Preview   FrameSource
	Logger    logrus.FieldLogger
}

// Server is the HTTP front end of the application.
type Server struct {
	config Config
	log    logrus.FieldLogger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a Server with its routes registered.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		config: config,
		log:    logger.WithField("component", "server"),
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Controls != nil {
		s.mux.HandleFunc("/api/state", s.handleState)

		detectors := api.NewDetectorHandler(s.config.Controls)
		s.mux.Handle("/api/detectors", detectors)
		s.mux.Handle("/api/detectors/", detectors)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Hub != nil {
		resp["clients"] = s.config.Hub.Clients()
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	api.WriteJSON(w, http.StatusOK, s.config.Controls.State())
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
