package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/timepulse/internal/calendar"
	"github.com/christopherklint97/timepulse/internal/parser"
	"github.com/christopherklint97/timepulse/internal/store"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// Wednesday.
var fixedNow = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, st store.Store) *Service {
	t.Helper()
	if st == nil {
		st = store.NewMemory()
	}
	return New(st, Options{Now: func() time.Time { return fixedNow }})
}

func day(s string) time.Time {
	d, err := timesheet.ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedProject(t *testing.T, s *Service, title, ref string) *ProjectDetail {
	t.Helper()
	p, err := s.CreateProject(context.Background(), 1, ProjectInput{Title: title, ReferenceNumber: ref})
	require.NoError(t, err)
	require.Len(t, p.WorkOrders, 2)
	return p
}

type brokenStore struct {
	*store.Memory
	err error
}

func (b brokenStore) GetTimesheetEntries(context.Context, int64, time.Time, time.Time) ([]timesheet.Entry, error) {
	return nil, b.err
}

func (b brokenStore) CreateProject(context.Context, *timesheet.Project, int64) error {
	return b.err
}

func TestCreateEntryNormalizes(t *testing.T) {
	s := newTestService(t, nil)
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")

	e, err := s.CreateEntry(context.Background(), timesheet.Entry{
		UserID:        1,
		WorkOrderID:   p.WorkOrders[0].ID,
		Date:          time.Date(2024, 3, 5, 17, 45, 0, 0, time.UTC),
		Hours:         99,
		StartTime:     "9:00",
		EndTime:       "11:30",
		BreakDuration: 20,
		LeaveType:     timesheet.LeaveFullDay,
		LeaveHours:    3,
	})
	require.NoError(t, err)

	assert.NotZero(t, e.ID)
	assert.Equal(t, day("2024-03-05"), e.Date)
	assert.Equal(t, "09:00", e.StartTime)
	assert.Equal(t, 2.5, e.Hours)
	assert.Zero(t, e.BreakDuration)
	assert.Empty(t, e.LeaveType)
	assert.Zero(t, e.LeaveHours)
}

func TestCreateEntryRejectsBadInput(t *testing.T) {
	s := newTestService(t, nil)
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")
	wo := p.WorkOrders[0].ID

	tests := []struct {
		name  string
		entry timesheet.Entry
	}{
		{"no work order", timesheet.Entry{Date: day("2024-03-05"), Hours: 1}},
		{"unknown work order", timesheet.Entry{WorkOrderID: 999, Date: day("2024-03-05"), Hours: 1}},
		{"no date", timesheet.Entry{WorkOrderID: wo, Hours: 1}},
		{"negative hours", timesheet.Entry{WorkOrderID: wo, Date: day("2024-03-05"), Hours: -1}},
		{"bad clock", timesheet.Entry{WorkOrderID: wo, Date: day("2024-03-05"), StartTime: "25:00", EndTime: "26:00"}},
		{"reversed range", timesheet.Entry{WorkOrderID: wo, Date: day("2024-03-05"), StartTime: "12:00", EndTime: "09:00"}},
		{"bad leave type", timesheet.Entry{WorkOrderID: wo, Date: day("2024-03-05"), IsLeave: true, LeaveType: "sabbatical"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateEntry(context.Background(), tt.entry)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdateEntry(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")

	e, err := s.CreateEntry(ctx, timesheet.Entry{UserID: 1, WorkOrderID: p.WorkOrders[0].ID, Date: day("2024-03-05"), Hours: 1})
	require.NoError(t, err)

	start, end := "13:00", "15:15"
	design := p.WorkOrders[1].ID
	updated, err := s.UpdateEntry(ctx, e.ID, timesheet.EntryPatch{StartTime: &start, EndTime: &end, WorkOrderID: &design})
	require.NoError(t, err)
	assert.Equal(t, 2.25, updated.Hours)
	assert.Equal(t, design, updated.WorkOrderID)

	bogus := int64(404)
	_, err = s.UpdateEntry(ctx, e.ID, timesheet.EntryPatch{WorkOrderID: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.UpdateEntry(ctx, 12345, timesheet.EntryPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteAndRestoreEntry(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")
	e, err := s.CreateEntry(ctx, timesheet.Entry{UserID: 1, WorkOrderID: p.WorkOrders[0].ID, Date: day("2024-03-05"), Hours: 1})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntry(ctx, 1, e.ID))
	deleted, err := s.DeletedEntries(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	_, err = s.Restore(ctx, 1, timesheet.EntityProject, p.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	restored, err := s.Restore(ctx, 1, timesheet.EntityTimesheet, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, restored.ID)

	_, err = s.Restore(ctx, 1, timesheet.EntityTimesheet, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEntry(ctx, 1, 999), store.ErrNotFound)
}

func TestEntriesCarryLabels(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")
	_, err := s.CreateEntry(ctx, timesheet.Entry{UserID: 1, WorkOrderID: p.WorkOrders[1].ID, Date: day("2024-03-05"), Hours: 2})
	require.NoError(t, err)

	got, err := s.Entries(ctx, 1, day("2024-03-04"), day("2024-03-10"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "North Metro", got[0].ProjectTitle)
	require.NotNil(t, got[0].WorkOrder)
	assert.Equal(t, "DESIGN-PRJ-2024-0001", got[0].WorkOrder.Identifier)

	_, err = s.Entries(ctx, 1, day("2024-03-10"), day("2024-03-04"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogPrompt(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	seedProject(t, s, "North Metro", "PRJ-2023-0001")

	res, err := s.LogPrompt(ctx, 7, "Log 3 hours of internal design on PRJ-2023-0001 yesterday")
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Entry.UserID)
	assert.Equal(t, 3.0, res.Entry.Hours)
	assert.Equal(t, "2024-03-05", timesheet.DateKey(res.Entry.Date))
	assert.Equal(t, "Successfully logged 3.00 hours for PRJ-2023-0001 (internal design) on Tuesday, March 5.", res.Message)

	entries, err := s.Entries(ctx, 7, day("2024-03-05"), day("2024-03-05"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLogPromptFailure(t *testing.T) {
	s := newTestService(t, nil)

	_, err := s.LogPrompt(context.Background(), 1, "validation for 2 hours")
	var failure *parser.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, parser.ReasonNoProject, failure.Reason)

	_, err = s.LogPrompt(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPromptSeesNewProjects(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	_, err := s.ParsePrompt(ctx, "harbour bridge validation 1 hour")
	require.Error(t, err)

	seedProject(t, s, "Harbour Bridge", "PRJ-2024-0003")
	c, err := s.ParsePrompt(ctx, "harbour bridge validation 1 hour")
	require.NoError(t, err)
	assert.Equal(t, "VALID-PRJ-2024-0003", c.WorkOrder.Identifier)
}

func TestPromptSeesProjectsAddedElsewhere(t *testing.T) {
	shared := store.NewMemory()
	server := newTestService(t, shared)
	cli := newTestService(t, shared)
	ctx := context.Background()

	// Warm the server's project cache before the project exists.
	_, err := server.ParsePrompt(ctx, "harbour bridge validation 1 hour")
	var failure *parser.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, parser.ReasonNoProject, failure.Reason)

	seedProject(t, cli, "Harbour Bridge", "PRJ-2024-0003")

	c, err := server.ParsePrompt(ctx, "harbour bridge validation 1 hour")
	require.NoError(t, err)
	assert.Equal(t, "VALID-PRJ-2024-0003", c.WorkOrder.Identifier)
}

func TestWeek(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")
	wo := p.WorkOrders[0].ID

	for _, e := range []timesheet.Entry{
		{UserID: 1, WorkOrderID: wo, Date: day("2024-03-04"), Hours: 3},
		{UserID: 1, WorkOrderID: wo, Date: day("2024-03-04"), Hours: 2},
		{UserID: 1, WorkOrderID: wo, Date: day("2024-03-05"), Hours: 5, BreakTaken: true, BreakDuration: 30},
		{UserID: 1, WorkOrderID: wo, Date: day("2024-03-07"), IsLeave: true, LeaveType: timesheet.LeaveFullDay},
		{UserID: 1, WorkOrderID: wo, Date: day("2024-03-09"), Hours: 1},
		{UserID: 2, WorkOrderID: wo, Date: day("2024-03-06"), Hours: 8},
	} {
		_, err := s.CreateEntry(ctx, e)
		require.NoError(t, err)
	}

	w, err := s.Week(ctx, 1, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", w.Start)
	assert.Equal(t, "2024-03-10", w.End)
	require.Len(t, w.Days, 6)
	assert.Equal(t, "2024-03-09", w.Days[5].Date)

	monday := w.Days[0]
	assert.Equal(t, 5.0, monday.RawHours)
	assert.Equal(t, 4.5, monday.Total)
	assert.True(t, monday.AutoBreak)

	assert.Equal(t, 5.0, w.Days[1].Total)
	assert.Empty(t, w.Days[2].Entries)
	assert.Equal(t, 8.0, w.Days[3].LeaveHours)

	assert.Equal(t, 10.5, w.TotalHours)
	assert.Equal(t, 8.0, w.LeaveHours)
	assert.Equal(t, 40.0, w.TargetHours)
}

func TestSuggestions(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")

	for _, d := range []string{"2024-03-01", "2024-03-04", "2024-03-05"} {
		_, err := s.CreateEntry(ctx, timesheet.Entry{
			UserID: 1, WorkOrderID: p.WorkOrders[0].ID, Date: day(d), StartTime: "09:00", EndTime: "11:00", Description: "site checks",
		})
		require.NoError(t, err)
	}
	_, err := s.CreateEntry(ctx, timesheet.Entry{UserID: 1, WorkOrderID: p.WorkOrders[1].ID, Date: day("2024-03-05"), Hours: 1})
	require.NoError(t, err)

	got := s.Suggestions(ctx, 1, 5)
	require.Len(t, got, 1)
	assert.Equal(t, p.WorkOrders[0].ID, got[0].WorkOrderID)
	assert.Equal(t, 3, got[0].Frequency)
	assert.Equal(t, "North Metro", got[0].ProjectTitle)
	assert.Equal(t, "VALID-PRJ-2024-0001", got[0].WorkOrderIdentifier)
	assert.Equal(t, 2.0, got[0].Hours)
}

func TestSuggestionsDegradeOnStoreFailure(t *testing.T) {
	s := newTestService(t, brokenStore{Memory: store.NewMemory(), err: errors.New("disk I/O error")})

	got := s.Suggestions(context.Background(), 1, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStorageFailuresBecomeOpErrors(t *testing.T) {
	cause := errors.New("disk I/O error")
	s := newTestService(t, brokenStore{Memory: store.NewMemory(), err: cause})

	_, err := s.CreateProject(context.Background(), 1, ProjectInput{Title: "X", ReferenceNumber: "PRJ-2024-0009"})
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "creating project", opErr.Op)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "disk")

	_, err = s.Week(context.Background(), 1, fixedNow)
	assert.ErrorAs(t, err, &opErr)
}

func TestCreateProject(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, 3, ProjectInput{Title: "  South Loop ", FormCodeType: "F-22"})
	require.NoError(t, err)
	assert.Equal(t, "South Loop", p.Title)
	assert.Equal(t, "PRJ-2024-0001", p.ReferenceNumber)
	assert.Equal(t, timesheet.StatusDraft, p.Status)
	require.Len(t, p.Events, 1)
	assert.Equal(t, timesheet.EventCreated, p.Events[0].Type)
	assert.Equal(t, int64(3), p.Events[0].CreatedBy)

	next, err := s.CreateProject(ctx, 3, ProjectInput{Title: "East Yard"})
	require.NoError(t, err)
	assert.Equal(t, "PRJ-2024-0002", next.ReferenceNumber)

	_, err = s.CreateProject(ctx, 3, ProjectInput{Title: "Copy", ReferenceNumber: "PRJ-2024-0001"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.CreateProject(ctx, 3, ProjectInput{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreateProject(ctx, 3, ProjectInput{Title: "Odd", Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRenamedReferenceIsReused(t *testing.T) {
	stores := map[string]func(t *testing.T) store.Store{
		"memory": func(t *testing.T) store.Store { return store.NewMemory() },
		"sqlite": func(t *testing.T) store.Store {
			db, err := store.Open(store.MemoryPath)
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return db
		},
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := newTestService(t, open(t))
			ctx := context.Background()

			alpha, err := s.CreateProject(ctx, 1, ProjectInput{Title: "Alpha"})
			require.NoError(t, err)
			ref := "ALPHA-1"
			renamed, err := s.UpdateProject(ctx, 1, alpha.ID, timesheet.ProjectPatch{ReferenceNumber: &ref})
			require.NoError(t, err)
			assert.Equal(t, "VALID-ALPHA-1", renamed.WorkOrders[0].Identifier)

			beta, err := s.CreateProject(ctx, 1, ProjectInput{Title: "Beta"})
			require.NoError(t, err)
			assert.Equal(t, "PRJ-2024-0001", beta.ReferenceNumber)
			assert.Equal(t, "VALID-PRJ-2024-0001", beta.WorkOrders[0].Identifier)
			assert.Equal(t, "DESIGN-PRJ-2024-0001", beta.WorkOrders[1].Identifier)
		})
	}
}

func TestUpdateProjectStatus(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")

	status := timesheet.StatusInProgress
	updated, err := s.UpdateProject(ctx, 2, p.ID, timesheet.ProjectPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusInProgress, updated.Status)
	require.Len(t, updated.Events, 2)
	assert.Equal(t, `Status changed from "draft" to "in_progress"`, updated.Events[0].Content)

	bad := timesheet.ProjectStatus("gone")
	_, err = s.UpdateProject(ctx, 2, p.ID, timesheet.ProjectPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.UpdateProject(ctx, 2, 999, timesheet.ProjectPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProjectsSummaries(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	a := seedProject(t, s, "North Metro", "PRJ-2024-0001")
	b := seedProject(t, s, "South Loop", "PRJ-2024-0002")

	for _, e := range []timesheet.Entry{
		{UserID: 1, WorkOrderID: a.WorkOrders[0].ID, Date: day("2024-03-04"), Hours: 2},
		{UserID: 2, WorkOrderID: a.WorkOrders[1].ID, Date: day("2024-03-04"), Hours: 1.5},
		{UserID: 1, WorkOrderID: b.WorkOrders[1].ID, Date: day("2024-03-05"), Hours: 4},
	} {
		_, err := s.CreateEntry(ctx, e)
		require.NoError(t, err)
	}

	list, err := s.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2.0, list[0].ValidationHours)
	assert.Equal(t, 1.5, list[0].DesignHours)
	assert.Equal(t, 3.5, list[0].TotalHours)
	assert.Equal(t, 4.0, list[1].TotalHours)

	wos, err := s.WorkOrders(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, wos, 2)
	assert.Equal(t, 2.0, wos[0].TotalHours)
}

func TestBulkDeleteProjects(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	a := seedProject(t, s, "North Metro", "PRJ-2024-0001")
	b := seedProject(t, s, "South Loop", "PRJ-2024-0002")
	c := seedProject(t, s, "East Yard", "PRJ-2024-0003")

	n, err := s.BulkDeleteProjects(ctx, 1, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	_, err = s.BulkDeleteProjects(ctx, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, s.DeleteProject(ctx, 1, a.ID), store.ErrNotFound)
}

func TestComments(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")

	ev, err := s.Comment(ctx, 4, p.ID, "  waiting on drawings ")
	require.NoError(t, err)
	assert.Equal(t, "waiting on drawings", ev.Content)
	assert.Equal(t, timesheet.EventComment, ev.Type)

	events, err := s.Events(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ev.ID, events[0].ID)

	_, err = s.Comment(ctx, 4, p.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Comment(ctx, 4, 999, "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Events(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReportSummary(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	a := seedProject(t, s, "North Metro", "PRJ-2024-0001")
	seedProject(t, s, "South Loop", "PRJ-2024-0002")

	status := timesheet.StatusInProgress
	_, err := s.UpdateProject(ctx, 1, a.ID, timesheet.ProjectPatch{Status: &status})
	require.NoError(t, err)

	for _, e := range []timesheet.Entry{
		{UserID: 1, WorkOrderID: a.WorkOrders[0].ID, Date: day("2024-03-04"), Hours: 2},
		{UserID: 1, WorkOrderID: a.WorkOrders[1].ID, Date: day("2024-03-06"), Hours: 3},
		{UserID: 1, WorkOrderID: a.WorkOrders[1].ID, Date: day("2024-02-26"), Hours: 9},
	} {
		_, err := s.CreateEntry(ctx, e)
		require.NoError(t, err)
	}

	r, err := s.ReportSummary(ctx, 1, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 5.0, r.WeeklyHours)
	assert.Equal(t, 2.0, r.ValidationHours)
	assert.Equal(t, 3.0, r.DesignHours)
	assert.Equal(t, 1, r.ActiveProjects)
	assert.Equal(t, 2, r.TotalProjects)

	logs, err := s.AuditLogs(ctx, timesheet.AuditFilter{EntityType: timesheet.EntityProject, Action: timesheet.AuditUpdate})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestImportEvents(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()
	p := seedProject(t, s, "North Metro", "PRJ-2024-0001")

	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	events := []calendar.Event{
		{Summary: "PRJ-2024-0001 validation site walk", StartTime: start, EndTime: start.Add(90 * time.Minute)},
		{Summary: "Team lunch", StartTime: start.Add(3 * time.Hour), EndTime: start.Add(4 * time.Hour)},
		{Summary: "North Metro design", StartTime: start, EndTime: start.AddDate(0, 0, 1), AllDay: true},
	}

	dry, err := s.ImportEvents(ctx, 1, events, true)
	require.NoError(t, err)
	assert.Len(t, dry.Imported, 1)
	assert.Len(t, dry.Skipped, 2)
	stored, err := s.Entries(ctx, 1, day("2024-03-05"), day("2024-03-05"))
	require.NoError(t, err)
	assert.Empty(t, stored)

	res, err := s.ImportEvents(ctx, 1, events, false)
	require.NoError(t, err)
	require.Len(t, res.Imported, 1)
	imported := res.Imported[0]
	assert.NotZero(t, imported.ID)
	assert.Equal(t, p.WorkOrders[0].ID, imported.WorkOrderID)
	assert.Equal(t, 1.5, imported.Hours)
	assert.Equal(t, "09:00", imported.StartTime)
	assert.Equal(t, "site walk", imported.Description)

	again, err := s.ImportEvents(ctx, 1, events, false)
	require.NoError(t, err)
	assert.Empty(t, again.Imported)
	assert.Len(t, again.Skipped, 3)
}
