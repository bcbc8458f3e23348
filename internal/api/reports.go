package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/christopherklint97/timepulse/internal/export"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

func (s *Server) reportSummary(c *gin.Context) {
	user, ok := s.userID(c)
	if !ok {
		return
	}
	anchor, ok := dateQuery(c, "date", s.now())
	if !ok {
		return
	}
	r, err := s.svc.ReportSummary(c.Request.Context(), user, anchor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// exportWeek downloads the week containing ?date as a workbook.
func (s *Server) exportWeek(c *gin.Context) {
	user, ok := s.userID(c)
	if !ok {
		return
	}
	anchor, ok := dateQuery(c, "date", s.now())
	if !ok {
		return
	}
	report, err := s.svc.WeekReport(c.Request.Context(), user, anchor)
	if err != nil {
		fail(c, err)
		return
	}
	buf, name, err := export.WeeklyWorkbook(report)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Message: "Failed to export timesheet"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(name))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (s *Server) auditLogs(c *gin.Context) {
	filter := timesheet.AuditFilter{
		EntityType: c.Query("entityType"),
		Action:     c.Query("action"),
	}
	if raw := c.Query("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, "startDate: "+err.Error())
			return
		}
		filter.Start = t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, "endDate: "+err.Error())
			return
		}
		// A bare date includes the whole day.
		if _, err := timesheet.ParseDateKey(raw); err == nil {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.End = t
	}

	logs, err := s.svc.AuditLogs(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
