// Package themeapi serves the theme-preference endpoint. The UI posts the
// toggled theme here; the endpoint answers with a long-lived cookie so every
// surface sharing the cookie jar agrees on the theme.
package themeapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const cookieMaxAge = 60 * 60 * 24 * 365

// Server wraps the HTTP server for the theme endpoint.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// NewServer builds the server on the given address.
func NewServer(addr string, logger *zap.Logger) *Server {
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Second))
	r.Post("/api/theme", s.handleSetTheme)
	r.Get("/healthz", s.handleHealthz)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start runs the server until shutdown.
func (s *Server) Start() error {
	s.logger.Info("theme endpoint listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down within the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("theme endpoint shutting down")
	return s.http.Shutdown(ctx)
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// handleSetTheme accepts {"theme":"dark"|"light"} and answers with a one-year
// SameSite=Strict cookie. Any other value is rejected without touching the
// cookie.
func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("theme request body unreadable", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Failed to set theme"})
		return
	}

	if req.Theme != "dark" && req.Theme != "light" {
		s.logger.Warn("theme value rejected", zap.String("theme", req.Theme))
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid theme value"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "theme",
		Value:    req.Theme,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteStrictMode,
	})
	s.logger.Info("theme set", zap.String("theme", req.Theme))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "theme": req.Theme})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
