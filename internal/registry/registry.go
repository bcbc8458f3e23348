package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// DefaultTTL bounds how stale the parser's project list may get.
const DefaultTTL = 5 * time.Minute

// Source is where the registry loads projects and work orders from.
type Source interface {
	GetProjects(ctx context.Context) ([]timesheet.Project, error)
	GetWorkOrders(ctx context.Context, projectID int64) ([]timesheet.WorkOrder, error)
}

// Registry serves project lookups for prompt parsing, caching the project
// list. Work orders are always read through.
type Registry struct {
	source Source
	cache  *ProjectCache
	logger *slog.Logger
}

func New(source Source, ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{source: source, cache: NewProjectCache(ttl), logger: logger}
}

func (r *Registry) GetProjects(ctx context.Context) ([]timesheet.Project, error) {
	if cached := r.cache.Get(); cached != nil {
		return cached, nil
	}

	projects, err := r.source.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting projects: %w", err)
	}
	if projects == nil {
		projects = []timesheet.Project{}
	}
	r.cache.Set(projects)
	r.logger.Debug("project cache refreshed", "count", len(projects))
	return projects, nil
}

func (r *Registry) GetWorkOrders(ctx context.Context, projectID int64) ([]timesheet.WorkOrder, error) {
	wos, err := r.source.GetWorkOrders(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("getting work orders: %w", err)
	}
	return wos, nil
}

// Invalidate drops the cached project list; call it after any project
// mutation.
func (r *Registry) Invalidate() {
	r.cache.Invalidate()
}
