package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/store"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

type recorder struct {
	messages []string
	err      error
}

func (r *recorder) Notify(title, message string) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, message)
	return nil
}

func setup(t *testing.T, now time.Time, hours float64) (*Reminder, *recorder) {
	t.Helper()
	clock := func() time.Time { return now }
	svc := service.New(store.NewMemory(), service.Options{Now: clock})

	ctx := context.Background()
	if hours > 0 {
		p, err := svc.CreateProject(ctx, 1, service.ProjectInput{Title: "North Metro", ReferenceNumber: "PRJ-2024-0001"})
		require.NoError(t, err)
		_, err = svc.CreateEntry(ctx, timesheet.Entry{UserID: 1, WorkOrderID: p.WorkOrders[0].ID, Date: now, Hours: hours})
		require.NoError(t, err)
	}

	rec := &recorder{}
	r := New(svc, Options{
		UserID:      1,
		WorkStart:   "09:00",
		WorkEnd:     "17:00",
		DailyTarget: 8,
		Notifier:    rec,
		Now:         clock,
	})
	return r, rec
}

func TestCheckRemindsOncePerDay(t *testing.T) {
	// Wednesday evening.
	r, rec := setup(t, time.Date(2024, 3, 6, 17, 30, 0, 0, time.UTC), 3)

	sent, err := r.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, rec.messages, 1)
	assert.Contains(t, rec.messages[0], "3.00 of 8.00 hours")

	sent, err = r.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Len(t, rec.messages, 1)
}

func TestCheckSkips(t *testing.T) {
	tests := []struct {
		name  string
		now   time.Time
		hours float64
	}{
		{"before work end", time.Date(2024, 3, 6, 16, 59, 0, 0, time.UTC), 0},
		{"weekend", time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC), 0},
		// 8.5 logged minus the automatic break still meets the target.
		{"target met", time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC), 8.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rec := setup(t, tt.now, tt.hours)
			sent, err := r.Check(context.Background())
			require.NoError(t, err)
			assert.False(t, sent)
			assert.Empty(t, rec.messages)
		})
	}
}

func TestCheckNotifierFailureDoesNotMarkDay(t *testing.T) {
	r, rec := setup(t, time.Date(2024, 3, 6, 17, 30, 0, 0, time.UTC), 0)
	rec.err = errors.New("no notification daemon")

	_, err := r.Check(context.Background())
	require.Error(t, err)

	rec.err = nil
	sent, err := r.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestNextAlignedTick(t *testing.T) {
	now := time.Date(2024, 3, 6, 10, 7, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 6, 11, 0, 0, 0, time.UTC), nextAlignedTick(now, time.Hour))
	assert.Equal(t, time.Date(2024, 3, 6, 10, 15, 0, 0, time.UTC), nextAlignedTick(now, 15*time.Minute))
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), nextAlignedTick(time.Date(2024, 3, 6, 23, 30, 0, 0, time.UTC), time.Hour))
}

func TestRunStopsOnCancel(t *testing.T) {
	r, _ := setup(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC), 0)
	r.opts.PIDPath = filepath.Join(t.TempDir(), "timepulse.pid")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := ReadPID(r.opts.PIDPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err := ReadPID(r.opts.PIDPath)
	assert.Error(t, err)
}

func TestTargetDefaultsToWorkingHours(t *testing.T) {
	now := time.Date(2024, 3, 6, 14, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := service.New(store.NewMemory(), service.Options{Now: clock})

	rec := &recorder{}
	r := New(svc, Options{UserID: 1, WorkStart: "08:00", WorkEnd: "14:00", Notifier: rec, Now: clock})
	assert.Equal(t, 6.0, r.opts.DailyTarget)

	sent, err := r.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, rec.messages, 1)
	assert.Contains(t, rec.messages[0], "0.00 of 6.00 hours")

	assert.Equal(t, 8.0, workSpan("17:00", "09:00"))
	assert.Equal(t, 8.0, workSpan("", "17:00"))
	assert.Equal(t, 7.5, workSpan("09:00", "16:30"))
}
