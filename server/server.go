// Package server exposes the HTTP surface of the vision service: face
// verification, live camera feeds, match lifecycle control, health, and
// metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/metrics"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/pipeline"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/profile"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/vision"
)

// Server is the HTTP server of the vision service.
type Server struct {
	echo      *echo.Echo
	profile   *profile.Profile
	index     *facematch.Index
	publisher *pipeline.Publisher
	analyzer  vision.FaceAnalyzer
}

// NewServer creates the server and registers all routes.
func NewServer(p *profile.Profile, index *facematch.Index, publisher *pipeline.Publisher,
	analyzer vision.FaceAnalyzer, m *metrics.Metrics,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	// The enrollment web app is served from a different origin.
	e.Use(middleware.CORS())

	s := &Server{
		echo:      e,
		profile:   p,
		index:     index,
		publisher: publisher,
		analyzer:  analyzer,
	}

	e.POST("/verify_faceset", s.verifyFaceset)
	e.POST("/verify_resolve_photo", s.verifyResolvePhoto)
	e.POST("/update_search_status", s.updateSearchStatus)
	e.GET("/video_feed/:id", s.videoFeed)
	e.GET("/health", s.health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	return s
}

// Start begins serving in the background. Fatal listener errors are logged;
// a clean shutdown surfaces as http.ErrServerClosed and is ignored.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	go func() {
		if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "err", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "err", err)
	}
	slog.Info("http server stopped")
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
