package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/clusterpulse/aiops-engine/internal/config"
)

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	logger *slog.Logger
	http   *http.Server
}

// NewServer builds the listener around the handler's routes, applying CORS
// when enabled.
func NewServer(cfg config.ServerConfig, handler *Handler, logger *slog.Logger) *Server {
	router := mux.NewRouter()
	handler.Routes(router)

	var root http.Handler = router
	if cfg.EnableCORS {
		root = cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
			AllowCredentials: true,
		}).Handler(router)
	}

	return &Server{
		logger: logger,
		http: &http.Server{
			Addr:         cfg.Address,
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start serves until the listener closes. Returns nil on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
