package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/christopherklint97/timepulse/internal/service"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	CORSOrigins []string
	// DefaultUserID acts for requests without an X-User-ID header.
	DefaultUserID int64
	Logger        *slog.Logger
	Now           func() time.Time
}

// Server exposes the service as a JSON API under /api.
type Server struct {
	svc         *service.Service
	engine      *gin.Engine
	logger      *slog.Logger
	defaultUser int64
	now         func() time.Time
}

func New(svc *service.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	user := opts.DefaultUserID
	if user <= 0 {
		user = 1
	}

	s := &Server{svc: svc, logger: logger, defaultUser: user, now: now}
	s.engine = s.routes(opts.CORSOrigins)
	return s
}

func (s *Server) routes(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Logger(s.logger))
	r.Use(CORS(origins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		projects := api.Group("/projects")
		projects.GET("", s.listProjects)
		projects.POST("", s.createProject)
		projects.POST("/bulk-delete", s.bulkDeleteProjects)
		projects.GET("/:id", s.getProject)
		projects.PUT("/:id", s.updateProject)
		projects.DELETE("/:id", s.deleteProject)
		projects.GET("/:id/workorders", s.listWorkOrders)
		projects.GET("/:id/events", s.listEvents)
		projects.POST("/:id/events", s.addComment)

		ts := api.Group("/timesheet")
		ts.GET("", s.listEntries)
		ts.GET("/week", s.week)
		ts.GET("/deleted", s.deletedEntries)
		ts.GET("/suggestions", s.suggestions)
		ts.POST("", s.createEntry)
		ts.POST("/prompt", s.prompt)
		ts.PUT("/:id", s.updateEntry)
		ts.DELETE("/:id", s.deleteEntry)

		api.POST("/restore/:type/:id", s.restore)

		api.GET("/reports/summary", s.reportSummary)
		api.GET("/reports/export", s.exportWeek)
		api.GET("/audit-logs", s.auditLogs)
	}
	return r
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
