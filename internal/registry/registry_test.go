package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

type countingSource struct {
	projects []timesheet.Project
	calls    int
	err      error
}

func (s *countingSource) GetProjects(context.Context) ([]timesheet.Project, error) {
	s.calls++
	return s.projects, s.err
}

func (s *countingSource) GetWorkOrders(_ context.Context, projectID int64) ([]timesheet.WorkOrder, error) {
	return []timesheet.WorkOrder{{ID: 1, ProjectID: projectID}}, s.err
}

func TestRegistryCachesProjects(t *testing.T) {
	src := &countingSource{projects: []timesheet.Project{{ID: 1, Title: "North Metro"}}}
	r := New(src, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := r.GetProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, 1, src.calls)

	r.Invalidate()
	_, err := r.GetProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRegistryCachesEmptyList(t *testing.T) {
	src := &countingSource{}
	r := New(src, time.Minute, nil)

	got, err := r.GetProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	_, _ = r.GetProjects(context.Background())
	assert.Equal(t, 1, src.calls)
}

func TestRegistryPropagatesErrors(t *testing.T) {
	src := &countingSource{err: errors.New("disk I/O error")}
	r := New(src, time.Minute, nil)

	_, err := r.GetProjects(context.Background())
	assert.ErrorIs(t, err, src.err)
	_, err = r.GetWorkOrders(context.Background(), 1)
	assert.ErrorIs(t, err, src.err)
}

func TestProjectCacheExpires(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	c := NewProjectCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set([]timesheet.Project{{ID: 1}})
	got := c.Get()
	require.Len(t, got, 1)

	got[0].ID = 99
	assert.Equal(t, int64(1), c.Get()[0].ID)

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.Get())
}
