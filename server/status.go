package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type searchStatusRequest struct {
	MongoID string `json:"mongo_id"`
	Action  string `json:"action"`
}

// updateSearchStatus applies an operator decision to the match lifecycle:
// "accept" closes the case permanently, "research" re-enables matching for
// a person whose report was rejected.
func (s *Server) updateSearchStatus(c echo.Context) error {
	var req searchStatusRequest
	if err := c.Bind(&req); err != nil || req.MongoID == "" || req.Action == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid data")
	}

	switch req.Action {
	case "accept":
		s.index.Resolve(req.MongoID)
		slog.Info("person permanently removed from live search", "id", req.MongoID)
	case "research":
		s.index.Research(req.MongoID)
		slog.Info("search re-enabled for person", "id", req.MongoID)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid data")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
