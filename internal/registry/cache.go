package registry

import (
	"sync"
	"time"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

type ProjectCache struct {
	mu        sync.RWMutex
	projects  []timesheet.Project
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewProjectCache(ttl time.Duration) *ProjectCache {
	return &ProjectCache{ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached projects, or nil when the cache is empty
// or stale.
func (c *ProjectCache) Get() []timesheet.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.projects == nil || c.now().Sub(c.fetchedAt) > c.ttl {
		return nil
	}

	result := make([]timesheet.Project, len(c.projects))
	copy(result, c.projects)
	return result
}

func (c *ProjectCache) Set(projects []timesheet.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = make([]timesheet.Project, len(projects))
	copy(c.projects, projects)
	c.fetchedAt = c.now()
}

func (c *ProjectCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = nil
}
