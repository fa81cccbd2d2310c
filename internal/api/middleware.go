package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// requestLogger logs every request and counts it by route and status code.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			startTime := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			code := c.Response().Status

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			s.metrics.HTTPRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(code)).Inc()

			level := slog.LevelDebug
			if code >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			s.log.Log(c.Request().Context(), level, "Request served",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", code,
				"duration", time.Since(startTime),
			)

			return nil
		}
	}
}
