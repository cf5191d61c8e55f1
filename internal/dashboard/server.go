// Package dashboard exposes a read-only HTTP API over the collected
// messages: counters, last summary time, and recent messages.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgard/teledigest/internal/config"
	"github.com/edgard/teledigest/internal/database"
	"github.com/edgard/teledigest/internal/timeutil"
)

const shutdownTimeout = 10 * time.Second

// Server is the dashboard HTTP server. It only reads from the store and
// never mutates collected data.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a dashboard server with all routes configured.
func NewServer(cfg config.DashboardConfig, store database.Store, logger *slog.Logger) (*Server, error) {
	loc, err := timeutil.LoadDisplayLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "dashboard")
	handler := newHandler(store, loc, log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", handler.Index)
	r.GET("/health", handler.Health)
	r.GET("/stats", handler.Stats)
	r.GET("/messages", handler.Messages)
	r.GET("/chats/:chat_id/count", handler.ChatCount)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Dashboard server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dashboard server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down dashboard server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard server shutdown failed: %w", err)
	}

	s.logger.Info("Dashboard server stopped gracefully.")
	return nil
}
