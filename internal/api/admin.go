package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/report"
	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) dashboard(c echo.Context) error {
	stats, err := s.deps.Stats.Dashboard(c.Request().Context())
	if err != nil {
		return s.fail(c, err, "", "Error fetching statistics")
	}
	return success(c, http.StatusOK, echo.Map{"stats": stats})
}

func (s *Server) employeeStats(c echo.Context) error {
	period, err := models.ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return s.fail(c, err, "", "Error fetching employee statistics")
	}

	table, err := s.deps.Stats.EmployeeStats(c.Request().Context(), period)
	if err != nil {
		return s.fail(c, err, "", "Error fetching employee statistics")
	}
	if table == nil {
		table = []models.EmployeeStats{}
	}
	return success(c, http.StatusOK, echo.Map{"employeeStats": table})
}

func (s *Server) exportEmployeeStats(c echo.Context) error {
	period, err := models.ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return s.fail(c, err, "", "Error exporting employee statistics")
	}

	table, err := s.deps.Stats.EmployeeStats(c.Request().Context(), period)
	if err != nil {
		return s.fail(c, err, "", "Error exporting employee statistics")
	}

	startTime := time.Now()
	buffer, err := report.GenerateEmployeeStatsReport(period, table)
	s.metrics.ReportGeneration.WithLabelValues(string(period)).Observe(time.Since(startTime).Seconds())
	if err != nil {
		if len(table) == 0 {
			return failure(c, http.StatusNotFound, "No employees to export")
		}
		return s.fail(c, err, "", "Error exporting employee statistics")
	}

	filename := fmt.Sprintf("employee-stats-%s-%s.xlsx", period, s.deps.Clock.Now().Format(time.DateOnly))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Stream(http.StatusOK, xlsxContentType, buffer)
}

func (s *Server) topPerformers(c echo.Context) error {
	performers, err := s.deps.Stats.TopPerformers(c.Request().Context())
	if err != nil {
		return s.fail(c, err, "", "Error fetching top performers")
	}
	if performers == nil {
		performers = []models.Performer{}
	}
	return success(c, http.StatusOK, echo.Map{"performers": performers})
}
