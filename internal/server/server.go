// Package server provides the HTTP server for the token broker.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/averlon/tokenbroker/internal/config"
	"github.com/averlon/tokenbroker/internal/logger"
	"github.com/averlon/tokenbroker/internal/server/handler"
	"github.com/averlon/tokenbroker/internal/utils"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server hosts the broker's HTTP routes and owns the listener lifecycle.
type Server struct {
	config  *config.Config
	handler *handler.Handler
}

// NewServer creates a new Server instance with the provided configuration
func NewServer(cfg *config.Config, h *handler.Handler) *Server {
	if cfg == nil {
		logger.Fatal("Config cannot be nil")
	}
	if h == nil {
		logger.Fatal("Handler cannot be nil")
	}

	return &Server{
		config:  cfg,
		handler: h,
	}
}

// Routes builds the request multiplexer with all broker routes registered
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	s.handler.RegisterRoutes(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, map[string]string{"status": "healthy"})
	})

	return mux
}

// Start runs the HTTP server until the context is cancelled or the listener
// fails. Shutdown is graceful and bounded by shutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server",
			zap.String("address", addr),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// Module provides the HTTP server dependencies
var Module = fx.Module("server",
	fx.Provide(
		handler.NewHandler,
		NewServer,
	),
)
