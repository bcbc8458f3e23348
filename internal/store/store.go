package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("already exists")
)

// RecordError names the record a lookup or uniqueness check failed on. Err
// is ErrNotFound or ErrDuplicate.
type RecordError struct {
	Kind string
	Key  any
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Kind, e.Key, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func missing(kind string, key any) error {
	return &RecordError{Kind: kind, Key: key, Err: ErrNotFound}
}

func duplicate(kind string, key any) error {
	return &RecordError{Kind: kind, Key: key, Err: ErrDuplicate}
}

// Store persists projects, work orders, timesheet entries and their history.
// Both the SQLite database and the in-memory store implement it.
type Store interface {
	GetProjects(ctx context.Context) ([]timesheet.Project, error)
	GetProject(ctx context.Context, id int64) (*timesheet.Project, error)
	GetProjectByReference(ctx context.Context, ref string) (*timesheet.Project, error)
	// CreateProject assigns p an id, creates one work order of each type, a
	// created event and an audit entry.
	CreateProject(ctx context.Context, p *timesheet.Project, actor int64) error
	// UpdateProject overwrites the stored project. A status change is
	// recorded as a project event.
	UpdateProject(ctx context.Context, p *timesheet.Project, actor int64) error
	// DeleteProject removes the project and everything it owns, including
	// soft-deleted entries.
	DeleteProject(ctx context.Context, id, actor int64) error

	GetWorkOrders(ctx context.Context, projectID int64) ([]timesheet.WorkOrder, error)
	ListWorkOrders(ctx context.Context) ([]timesheet.WorkOrder, error)
	GetWorkOrder(ctx context.Context, id int64) (*timesheet.WorkOrder, error)

	// GetTimesheetEntries lists a user's live entries between two calendar
	// dates, both inclusive.
	GetTimesheetEntries(ctx context.Context, userID int64, start, end time.Time) ([]timesheet.Entry, error)
	GetTimesheetEntriesByProject(ctx context.Context, projectID int64) ([]timesheet.Entry, error)
	GetTimesheetEntriesByWorkOrder(ctx context.Context, workOrderID int64) ([]timesheet.Entry, error)
	GetTimesheetEntry(ctx context.Context, id int64) (*timesheet.Entry, error)
	CreateTimesheetEntry(ctx context.Context, e *timesheet.Entry) error
	UpdateTimesheetEntry(ctx context.Context, e *timesheet.Entry) error
	// DeleteTimesheetEntry moves a live entry to the holding area.
	DeleteTimesheetEntry(ctx context.Context, id, actor int64) error
	RestoreTimesheetEntry(ctx context.Context, id, actor int64) (*timesheet.Entry, error)
	GetDeletedTimesheetEntries(ctx context.Context, userID int64) ([]timesheet.Entry, error)

	// GetProjectEvents lists a project's timeline, newest first.
	GetProjectEvents(ctx context.Context, projectID int64) ([]timesheet.ProjectEvent, error)
	CreateProjectEvent(ctx context.Context, ev *timesheet.ProjectEvent) error

	// GetAuditLogs lists matching audit entries, newest first.
	GetAuditLogs(ctx context.Context, filter timesheet.AuditFilter) ([]timesheet.AuditLog, error)

	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error

	Close() error
}

func createdEventContent(title string) string {
	return `Project "` + title + `" created`
}

func statusEventContent(from, to timesheet.ProjectStatus) string {
	return `Status changed from "` + string(from) + `" to "` + string(to) + `"`
}

func workOrdersFor(p *timesheet.Project, now time.Time) []timesheet.WorkOrder {
	types := []timesheet.WorkOrderType{timesheet.WorkOrderValidation, timesheet.WorkOrderInternalDesign}
	wos := make([]timesheet.WorkOrder, 0, len(types))
	for _, t := range types {
		wos = append(wos, timesheet.WorkOrder{
			ProjectID:   p.ID,
			Type:        t,
			Identifier:  timesheet.WorkOrderIdentifier(t, p.ReferenceNumber),
			Description: t.Label() + " work for " + p.Title,
			CreatedAt:   now,
		})
	}
	return wos
}
