package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/christopherklint97/timepulse/internal/parser"
	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/store"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

const userIDHeader = "X-User-ID"

type errorResponse struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: msg})
}

// fail maps an application error onto a status code. Storage failures keep
// their detail out of the response body; it is attached to the context for
// the request logger instead.
func fail(c *gin.Context, err error) {
	var failure *parser.Failure
	var opErr *service.OpError

	switch {
	case errors.As(err, &failure):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Message: failure.Message, Reason: failure.Reason})
	case errors.Is(err, store.ErrNotFound):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Message: recordKind(err) + " not found"})
	case errors.Is(err, store.ErrDuplicate):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Message: conflictMessage(err)})
	case errors.Is(err, service.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.As(err, &opErr):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{Message: "could not reach storage"})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}

// recordKind names the entity behind a store lookup error, capitalised for
// a response message.
func recordKind(err error) string {
	kind := "record"
	var rec *store.RecordError
	if errors.As(err, &rec) && rec.Kind != "" {
		kind = rec.Kind
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

func conflictMessage(err error) string {
	var rec *store.RecordError
	if errors.As(err, &rec) {
		switch rec.Kind {
		case "project":
			return "A project with this reference number already exists"
		case "work order":
			return "A work order with this identifier already exists"
		}
	}
	return recordKind(err) + " already exists"
}

func (s *Server) userID(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.GetHeader(userIDHeader))
	if raw == "" {
		return s.defaultUser, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "X-User-ID must be a positive integer")
		return 0, false
	}
	return id, true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := timesheet.ParseDateKey(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("expected YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return t, nil
}

// dateQuery reads an optional date query parameter, falling back to def.
func dateQuery(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	t, err := parseDate(raw)
	if err != nil {
		badRequest(c, name+": "+err.Error())
		return time.Time{}, false
	}
	return t, true
}
