package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemory()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		db, err := Open(MemoryPath)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	})
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "timepulse.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	p := &timesheet.Project{Title: "North Metro", ReferenceNumber: "PRJ-2024-0001", Status: timesheet.StatusDraft}
	require.NoError(t, db.CreateProject(ctx, p, 1))
	require.NoError(t, db.SetState(ctx, "last_reminder", "2024-03-05"))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.GetProjectByReference(ctx, "PRJ-2024-0001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	v, err := db.GetState(ctx, "last_reminder")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", v)
}

func date(s string) time.Time {
	d, err := timesheet.ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return d
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	seed := func(t *testing.T, s Store, ref string) (*timesheet.Project, []timesheet.WorkOrder) {
		t.Helper()
		p := &timesheet.Project{Title: "Project " + ref, ReferenceNumber: ref, FormCodeType: "FC-1", Status: timesheet.StatusDraft}
		require.NoError(t, s.CreateProject(ctx, p, 1))
		wos, err := s.GetWorkOrders(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, wos, 2)
		return p, wos
	}

	t.Run("create project adds work orders and a created event", func(t *testing.T) {
		s := newStore(t)
		p, wos := seed(t, s, "PRJ-2024-0001")

		assert.NotZero(t, p.ID)
		assert.False(t, p.CreatedAt.IsZero())
		assert.Equal(t, timesheet.WorkOrderValidation, wos[0].Type)
		assert.Equal(t, "VALID-PRJ-2024-0001", wos[0].Identifier)
		assert.Equal(t, timesheet.WorkOrderInternalDesign, wos[1].Type)
		assert.Equal(t, "DESIGN-PRJ-2024-0001", wos[1].Identifier)

		events, err := s.GetProjectEvents(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, timesheet.EventCreated, events[0].Type)
		assert.Equal(t, `Project "Project PRJ-2024-0001" created`, events[0].Content)

		logs, err := s.GetAuditLogs(ctx, timesheet.AuditFilter{EntityType: timesheet.EntityProject})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, timesheet.AuditCreate, logs[0].Action)
	})

	t.Run("duplicate reference numbers are rejected", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "PRJ-2024-0001")

		err := s.CreateProject(ctx, &timesheet.Project{Title: "Again", ReferenceNumber: "prj-2024-0001"}, 1)
		assert.ErrorIs(t, err, ErrDuplicate)

		projects, err := s.GetProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, projects, 1)
	})

	t.Run("lookup by reference ignores case", func(t *testing.T) {
		s := newStore(t)
		p, _ := seed(t, s, "PRJ-2024-0007")

		got, err := s.GetProjectByReference(ctx, "prj-2024-0007")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)

		_, err = s.GetProjectByReference(ctx, "PRJ-1999-0001")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("status change records an event", func(t *testing.T) {
		s := newStore(t)
		p, _ := seed(t, s, "PRJ-2024-0001")

		p.Status = timesheet.StatusInProgress
		p.Notes = "kick-off done"
		require.NoError(t, s.UpdateProject(ctx, p, 2))

		got, err := s.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, timesheet.StatusInProgress, got.Status)
		assert.Equal(t, "kick-off done", got.Notes)

		events, err := s.GetProjectEvents(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, timesheet.EventStatusChange, events[0].Type)
		assert.Equal(t, `Status changed from "draft" to "in_progress"`, events[0].Content)
		assert.Equal(t, int64(2), events[0].CreatedBy)

		p.Title = "Renamed"
		require.NoError(t, s.UpdateProject(ctx, p, 2))
		events, err = s.GetProjectEvents(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("reference change renames work orders", func(t *testing.T) {
		s := newStore(t)
		p, _ := seed(t, s, "PRJ-2024-0001")

		p.ReferenceNumber = "ALPHA-1"
		require.NoError(t, s.UpdateProject(ctx, p, 1))

		wos, err := s.GetWorkOrders(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, wos, 2)
		assert.Equal(t, "VALID-ALPHA-1", wos[0].Identifier)
		assert.Equal(t, "DESIGN-ALPHA-1", wos[1].Identifier)

		// The freed reference can be handed out again.
		_, wos = seed(t, s, "PRJ-2024-0001")
		assert.Equal(t, "VALID-PRJ-2024-0001", wos[0].Identifier)
		assert.Equal(t, "DESIGN-PRJ-2024-0001", wos[1].Identifier)

		all, err := s.ListWorkOrders(ctx)
		require.NoError(t, err)
		seen := make(map[string]bool)
		for _, wo := range all {
			assert.False(t, seen[wo.Identifier], "duplicate identifier %s", wo.Identifier)
			seen[wo.Identifier] = true
		}
		assert.Len(t, seen, 4)
	})

	t.Run("update of a missing project", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdateProject(ctx, &timesheet.Project{ID: 99, ReferenceNumber: "PRJ-2024-0099"}, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("entries in an inclusive date range", func(t *testing.T) {
		s := newStore(t)
		_, wos := seed(t, s, "PRJ-2024-0001")

		for _, e := range []timesheet.Entry{
			{UserID: 1, WorkOrderID: wos[0].ID, Date: date("2024-03-03"), Hours: 1},
			{UserID: 1, WorkOrderID: wos[0].ID, Date: date("2024-03-04"), Hours: 2, StartTime: "09:00", EndTime: "11:00"},
			{UserID: 1, WorkOrderID: wos[1].ID, Date: date("2024-03-08"), Hours: 3, BreakTaken: true, BreakDuration: 30},
			{UserID: 1, WorkOrderID: wos[1].ID, Date: date("2024-03-09"), Hours: 4},
			{UserID: 2, WorkOrderID: wos[1].ID, Date: date("2024-03-05"), Hours: 5},
		} {
			e := e
			require.NoError(t, s.CreateTimesheetEntry(ctx, &e))
			assert.NotZero(t, e.ID)
		}

		got, err := s.GetTimesheetEntries(ctx, 1, date("2024-03-04"), date("2024-03-08"))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2024-03-04", timesheet.DateKey(got[0].Date))
		assert.Equal(t, "09:00", got[0].StartTime)
		assert.Equal(t, "2024-03-08", timesheet.DateKey(got[1].Date))
		assert.True(t, got[1].BreakTaken)
		assert.Equal(t, 30, got[1].BreakDuration)

		byWO, err := s.GetTimesheetEntriesByWorkOrder(ctx, wos[1].ID)
		require.NoError(t, err)
		assert.Len(t, byWO, 3)
	})

	t.Run("entry needs an existing work order", func(t *testing.T) {
		s := newStore(t)
		err := s.CreateTimesheetEntry(ctx, &timesheet.Entry{UserID: 1, WorkOrderID: 404, Date: date("2024-03-04"), Hours: 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update entry", func(t *testing.T) {
		s := newStore(t)
		_, wos := seed(t, s, "PRJ-2024-0001")
		e := &timesheet.Entry{UserID: 1, WorkOrderID: wos[0].ID, Date: date("2024-03-04"), Hours: 1}
		require.NoError(t, s.CreateTimesheetEntry(ctx, e))

		e.Hours = 2.5
		e.Description = "reworked"
		e.IsLeave = true
		e.LeaveType = timesheet.LeaveHours
		e.LeaveHours = 2
		require.NoError(t, s.UpdateTimesheetEntry(ctx, e))

		got, err := s.GetTimesheetEntry(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 2.5, got.Hours)
		assert.Equal(t, "reworked", got.Description)
		assert.Equal(t, timesheet.LeaveHours, got.LeaveType)
		assert.Equal(t, 2.0, got.LeaveHours)

		err = s.UpdateTimesheetEntry(ctx, &timesheet.Entry{ID: 999, WorkOrderID: wos[0].ID})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("soft delete and restore", func(t *testing.T) {
		s := newStore(t)
		_, wos := seed(t, s, "PRJ-2024-0001")
		e := &timesheet.Entry{UserID: 1, WorkOrderID: wos[0].ID, Date: date("2024-03-04"), Hours: 2, Description: "survey"}
		require.NoError(t, s.CreateTimesheetEntry(ctx, e))

		require.NoError(t, s.DeleteTimesheetEntry(ctx, e.ID, 1))

		live, err := s.GetTimesheetEntries(ctx, 1, date("2024-03-01"), date("2024-03-31"))
		require.NoError(t, err)
		assert.Empty(t, live)
		_, err = s.GetTimesheetEntry(ctx, e.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		held, err := s.GetDeletedTimesheetEntries(ctx, 1)
		require.NoError(t, err)
		require.Len(t, held, 1)
		assert.Equal(t, e.ID, held[0].ID)

		assert.ErrorIs(t, s.DeleteTimesheetEntry(ctx, e.ID, 1), ErrNotFound)

		restored, err := s.RestoreTimesheetEntry(ctx, e.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, e.ID, restored.ID)
		assert.Equal(t, "survey", restored.Description)

		live, err = s.GetTimesheetEntries(ctx, 1, date("2024-03-01"), date("2024-03-31"))
		require.NoError(t, err)
		assert.Len(t, live, 1)

		_, err = s.RestoreTimesheetEntry(ctx, e.ID, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		logs, err := s.GetAuditLogs(ctx, timesheet.AuditFilter{EntityType: timesheet.EntityTimesheet})
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, timesheet.AuditRestore, logs[0].Action)
		assert.Equal(t, timesheet.AuditDelete, logs[1].Action)
	})

	t.Run("delete project cascades", func(t *testing.T) {
		s := newStore(t)
		p, wos := seed(t, s, "PRJ-2024-0001")
		other, otherWOs := seed(t, s, "PRJ-2024-0002")

		live := &timesheet.Entry{UserID: 1, WorkOrderID: wos[0].ID, Date: date("2024-03-04"), Hours: 1}
		held := &timesheet.Entry{UserID: 1, WorkOrderID: wos[1].ID, Date: date("2024-03-05"), Hours: 1}
		kept := &timesheet.Entry{UserID: 1, WorkOrderID: otherWOs[0].ID, Date: date("2024-03-05"), Hours: 1}
		for _, e := range []*timesheet.Entry{live, held, kept} {
			require.NoError(t, s.CreateTimesheetEntry(ctx, e))
		}
		require.NoError(t, s.DeleteTimesheetEntry(ctx, held.ID, 1))
		require.NoError(t, s.CreateProjectEvent(ctx, &timesheet.ProjectEvent{
			ProjectID: p.ID, Type: timesheet.EventComment, Content: "note", CreatedBy: 1,
		}))

		require.NoError(t, s.DeleteProject(ctx, p.ID, 1))

		_, err := s.GetProject(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetWorkOrder(ctx, wos[0].ID)
		assert.ErrorIs(t, err, ErrNotFound)

		woLeft, err := s.GetWorkOrders(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, woLeft)

		events, err := s.GetProjectEvents(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, events)

		entries, err := s.GetTimesheetEntries(ctx, 1, date("2024-03-01"), date("2024-03-31"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, kept.ID, entries[0].ID)

		deleted, err := s.GetDeletedTimesheetEntries(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, deleted)
		_, err = s.RestoreTimesheetEntry(ctx, held.ID, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		remaining, err := s.GetProject(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, "PRJ-2024-0002", remaining.ReferenceNumber)

		assert.ErrorIs(t, s.DeleteProject(ctx, p.ID, 1), ErrNotFound)

		logs, err := s.GetAuditLogs(ctx, timesheet.AuditFilter{EntityType: timesheet.EntityProject, Action: timesheet.AuditDelete})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, p.ID, logs[0].EntityID)
	})

	t.Run("comments need an existing project", func(t *testing.T) {
		s := newStore(t)
		err := s.CreateProjectEvent(ctx, &timesheet.ProjectEvent{ProjectID: 5, Type: timesheet.EventComment, Content: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("listing work orders", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "PRJ-2024-0001")
		seed(t, s, "PRJ-2024-0002")

		wos, err := s.ListWorkOrders(ctx)
		require.NoError(t, err)
		assert.Len(t, wos, 4)
	})

	t.Run("state", func(t *testing.T) {
		s := newStore(t)
		v, err := s.GetState(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, v)

		require.NoError(t, s.SetState(ctx, "k", "1"))
		require.NoError(t, s.SetState(ctx, "k", "2"))
		v, err = s.GetState(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})
}
