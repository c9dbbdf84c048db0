// Package web exposes the operational HTTP surface: liveness and
// index statistics. Observability only, no user-facing data.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jggl/kb-assist/internal/domain/ports"
)

// Server is the ops HTTP server.
type Server struct {
	echo  *echo.Echo
	index ports.VectorIndex
	addr  string
	log   *slog.Logger
}

// New builds the server with its routes registered.
func New(index ports.VectorIndex, addr string, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, index: index, addr: addr, log: log}
	e.GET("/healthz", s.health)
	e.GET("/stats", s.stats)
	return s
}

// Start runs the server until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.log.Error("ops server shutdown", "error", err)
		}
	}()

	s.log.Info("ops server starting", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(c echo.Context) error {
	count, err := s.index.Count(c.Request().Context())
	if err != nil {
		s.log.Error("stats count failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "index unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]int{"total_chunks": count})
}
