package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/pipeline"
)

// feedPollInterval paces the frame slot polling; the feed is pull-based.
const feedPollInterval = 50 * time.Millisecond

// videoFeed streams the latest annotated frames for one camera as an
// MJPEG multipart stream. The stream never terminates on its own; it ends
// when the client disconnects or the server shuts down. Cycles where no
// frame is available yet are skipped, never blocked on.
func (s *Server) videoFeed(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 || id >= len(s.profile.Cameras) {
		return echo.NewHTTPError(http.StatusNotFound, "Invalid Camera ID")
	}
	camera := pipeline.CameraLabel(id)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "multipart/x-mixed-replace; boundary=frame")
	resp.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	limiter := rate.NewLimiter(rate.Every(feedPollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		frame, ok := s.publisher.Latest(camera)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(resp, "--frame\r\nContent-Type: image/jpeg\r\n\r\n"); err != nil {
			return nil
		}
		if _, err := resp.Write(frame); err != nil {
			return nil
		}
		if _, err := fmt.Fprint(resp, "\r\n"); err != nil {
			return nil
		}
		resp.Flush()
	}
}
