package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) health(c echo.Context) error {
	status, healthy := s.deps.Health.Check(c.Request().Context())
	now := s.deps.Clock.Now()

	database := "Connected"
	if status["database"] != "ok" {
		database = "Disconnected"
	}

	body := echo.Map{
		"timestamp":   now.UTC().Format(time.RFC3339),
		"database":    database,
		"uptime":      now.Sub(s.startedAt).Seconds(),
		"environment": s.deps.Env,
	}
	if cache, ok := status["cache"]; ok {
		body["cache"] = cache
	}

	if !healthy {
		body["status"] = "ERROR"
		body["message"] = "Dependency unavailable"
		if database == "Disconnected" {
			body["message"] = "Database connection lost"
		}
		return c.JSON(http.StatusServiceUnavailable, body)
	}

	body["status"] = "OK"
	body["message"] = "Server is running"
	return c.JSON(http.StatusOK, body)
}
