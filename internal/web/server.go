// Package web serves the flashcard pipeline over HTTP. Clients open an
// anonymous session, upload documents into it, review and edit the
// generated cards, and download the collection as CSV. Sessions expire
// after a period of inactivity and take their cards and scratch files
// with them.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deckfoundry/cardforge/internal/config"
	"github.com/deckfoundry/cardforge/internal/llm"
	"github.com/deckfoundry/cardforge/internal/pipeline"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal.
const shutdownTimeout = 10 * time.Second

// Server owns the HTTP surface: router, session manager and handlers.
type Server struct {
	logger   *slog.Logger
	cfg      *config.Config
	sessions *SessionManager
	handler  *Handler
}

// New builds a Server from configuration. The provider client behind
// the generation stage is constructed once and shared by all sessions.
func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, explicitModel string) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	factory, err := pipeline.NewSessionFactory(ctx, logger, cfg, explicitModel)
	if err != nil {
		return nil, err
	}

	sessions, err := NewSessionManager(logger, cfg.Server.SessionTTL, factory)
	if err != nil {
		return nil, err
	}

	creds := llm.Credentials{
		GeminiAPIKey: cfg.Providers.GeminiAPIKey,
		OpenAIAPIKey: cfg.Providers.OpenAIAPIKey,
	}
	spec, _, err := llm.Resolve(explicitModel, cfg.Generation.Model, creds)
	if err != nil {
		return nil, err
	}

	// Uploads may be full archives; allow the archive ceiling plus some
	// slack for multipart framing.
	maxUpload := int64(cfg.Extraction.MaxArchiveMB)<<20 + 1<<20

	handler, err := NewHandler(logger, sessions, creds, spec.Name, maxUpload)
	if err != nil {
		return nil, err
	}

	return &Server{
		logger:   logger.With(slog.String("component", "server")),
		cfg:      cfg,
		sessions: sessions,
		handler:  handler,
	}, nil
}

// Handler assembles the router with the standard middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", s.handler.ListModels)
		r.Post("/sessions", s.handler.CreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.handler.sessionCtx)

			r.Get("/", s.handler.GetSession)
			r.Delete("/", s.handler.DeleteSession)
			r.Post("/upload", s.handler.Upload)

			r.Get("/cards", s.handler.ListCards)
			r.Post("/cards", s.handler.CreateCard)
			r.Put("/cards/{cardID}", s.handler.UpdateCard)
			r.Delete("/cards/{cardID}", s.handler.DeleteCard)

			r.Get("/stats", s.handler.Stats)
			r.Get("/export", s.handler.Export)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			s.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

// requestLogger emits one structured log line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.InfoContext(r.Context(), "Request handled",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)))
	})
}

// Sessions exposes the session manager, mainly for tests and shutdown
// accounting.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully and drops all sessions.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go s.sessions.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", slog.Int("port", s.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.sessions.Close()
	s.logger.Info("Server shutdown completed")
	return nil
}
