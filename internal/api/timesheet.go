package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// entryRequest is the wire form of an entry. Dates arrive as YYYY-MM-DD or
// RFC 3339 strings.
type entryRequest struct {
	WorkOrderID   int64               `json:"workOrderId"`
	Date          string              `json:"date"`
	Hours         float64             `json:"hours"`
	StartTime     string              `json:"startTime"`
	EndTime       string              `json:"endTime"`
	Description   string              `json:"description"`
	BreakTaken    bool                `json:"breakTaken"`
	BreakDuration int                 `json:"breakDuration"`
	IsLeave       bool                `json:"isLeave"`
	LeaveType     timesheet.LeaveType `json:"leaveType"`
	LeaveHours    float64             `json:"leaveHours"`
}

type entryPatchRequest struct {
	timesheet.EntryPatch
	Date *string `json:"date,omitempty"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
	// Preview parses without saving.
	Preview bool `json:"preview"`
}

func (s *Server) listEntries(c *gin.Context) {
	user, ok := s.userID(c)
	if !ok {
		return
	}
	if c.Query("start") == "" || c.Query("end") == "" {
		badRequest(c, "Start date and end date are required")
		return
	}
	start, ok := dateQuery(c, "start", s.now())
	if !ok {
		return
	}
	end, ok := dateQuery(c, "end", s.now())
	if !ok {
		return
	}
	entries, err := s.svc.Entries(c.Request.Context(), user, start, end)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) week(c *gin.Context) {
	user, ok := s.userID(c)
	if !ok {
		return
	}
	anchor, ok := dateQuery(c, "date", s.now())
	if !ok {
		return
	}
	view, err := s.svc.Week(c.Request.Context(), user, anchor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) deletedEntries(c *gin.Context) {
	user, ok := s.userID(c)
	if !ok {
		return
	}
	entries, err := s.svc.DeletedEntries(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) suggestions(c *gin.Context) {
	user, ok := s.userID(c)
	if !ok {
		return
	}
	limit := timesheet.DisplayLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, s.svc.Suggestions(c.Request.Context(), user, limit))
}

func (s *Server) createEntry(c *gin.Context) {
	user, ok := s.userID(c)
	if !ok {
		return
	}
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid entry: "+err.Error())
		return
	}
	if req.Date == "" {
		badRequest(c, "date is required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		badRequest(c, "date: "+err.Error())
		return
	}

	e, err := s.svc.CreateEntry(c.Request.Context(), timesheet.Entry{
		UserID:        user,
		WorkOrderID:   req.WorkOrderID,
		Date:          date,
		Hours:         req.Hours,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Description:   req.Description,
		BreakTaken:    req.BreakTaken,
		BreakDuration: req.BreakDuration,
		IsLeave:       req.IsLeave,
		LeaveType:     req.LeaveType,
		LeaveHours:    req.LeaveHours,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) prompt(c *gin.Context) {
	user, ok := s.userID(c)
	if !ok {
		return
	}
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid prompt: "+err.Error())
		return
	}

	if req.Preview {
		cand, err := s.svc.ParsePrompt(c.Request.Context(), req.Prompt)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, cand)
		return
	}

	res, err := s.svc.LogPrompt(c.Request.Context(), user, req.Prompt)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) updateEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req entryPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid entry: "+err.Error())
		return
	}
	patch := req.EntryPatch
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			badRequest(c, "date: "+err.Error())
			return
		}
		patch.Date = &date
	}

	e, err := s.svc.UpdateEntry(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) deleteEntry(c *gin.Context) {
	actor, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteEntry(c.Request.Context(), actor, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Timesheet entry deleted"})
}

func (s *Server) restore(c *gin.Context) {
	actor, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	e, err := s.svc.Restore(c.Request.Context(), actor, c.Param("type"), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item restored successfully", "entry": e})
}
