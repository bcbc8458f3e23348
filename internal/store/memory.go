package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// Memory is a Store kept entirely in process memory. Soft-deleted entries
// move to a separate holding map keyed by their original id.
type Memory struct {
	mu sync.RWMutex

	projects   map[int64]timesheet.Project
	workOrders map[int64]timesheet.WorkOrder
	entries    map[int64]timesheet.Entry
	deleted    map[int64]deletedEntry
	events     []timesheet.ProjectEvent
	audit      []timesheet.AuditLog
	state      map[string]string

	nextProject, nextWorkOrder, nextEntry, nextEvent, nextAudit int64

	now func() time.Time
}

type deletedEntry struct {
	entry     timesheet.Entry
	deletedAt time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		projects:   make(map[int64]timesheet.Project),
		workOrders: make(map[int64]timesheet.WorkOrder),
		entries:    make(map[int64]timesheet.Entry),
		deleted:    make(map[int64]deletedEntry),
		state:      make(map[string]string),
		now:        time.Now,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) stamp() time.Time {
	return m.now().UTC().Truncate(time.Second)
}

func (m *Memory) addAudit(entityType string, entityID int64, action string, actor int64, details string, at time.Time) {
	m.nextAudit++
	m.audit = append(m.audit, timesheet.AuditLog{
		ID:         m.nextAudit,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActionBy:   actor,
		Details:    details,
		CreatedAt:  at,
	})
}

func (m *Memory) addEvent(projectID int64, typ timesheet.EventType, content string, actor int64, at time.Time) timesheet.ProjectEvent {
	m.nextEvent++
	ev := timesheet.ProjectEvent{
		ID:        m.nextEvent,
		ProjectID: projectID,
		Type:      typ,
		Content:   content,
		CreatedBy: actor,
		CreatedAt: at,
	}
	m.events = append(m.events, ev)
	return ev
}

func (m *Memory) referenceTaken(ref string, exceptID int64) bool {
	for id, p := range m.projects {
		if id != exceptID && strings.EqualFold(p.ReferenceNumber, strings.TrimSpace(ref)) {
			return true
		}
	}
	return false
}

func (m *Memory) identifierTaken(identifier string, exceptProject int64) bool {
	for _, wo := range m.workOrders {
		if wo.ProjectID != exceptProject && wo.Identifier == identifier {
			return true
		}
	}
	return false
}

func (m *Memory) GetProjects(ctx context.Context) ([]timesheet.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	projects := make([]timesheet.Project, 0, len(m.projects))
	for _, p := range m.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (m *Memory) GetProject(ctx context.Context, id int64) (*timesheet.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, missing("project", id)
	}
	return &p, nil
}

func (m *Memory) GetProjectByReference(ctx context.Context, ref string) (*timesheet.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.projects {
		if strings.EqualFold(p.ReferenceNumber, ref) {
			return &p, nil
		}
	}
	return nil, missing("project", ref)
}

func (m *Memory) CreateProject(ctx context.Context, p *timesheet.Project, actor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.referenceTaken(p.ReferenceNumber, 0) {
		return duplicate("project", p.ReferenceNumber)
	}

	now := m.stamp()
	wos := workOrdersFor(p, now)
	for _, wo := range wos {
		if m.identifierTaken(wo.Identifier, 0) {
			return duplicate("work order", wo.Identifier)
		}
	}

	m.nextProject++
	p.ID = m.nextProject
	p.CreatedAt = now
	m.projects[p.ID] = *p

	for _, wo := range wos {
		wo.ProjectID = p.ID
		m.nextWorkOrder++
		wo.ID = m.nextWorkOrder
		m.workOrders[wo.ID] = wo
	}

	m.addEvent(p.ID, timesheet.EventCreated, createdEventContent(p.Title), actor, now)
	m.addAudit(timesheet.EntityProject, p.ID, timesheet.AuditCreate, actor, p.ReferenceNumber, now)
	return nil
}

func (m *Memory) UpdateProject(ctx context.Context, p *timesheet.Project, actor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.projects[p.ID]
	if !ok {
		return missing("project", p.ID)
	}
	if m.referenceTaken(p.ReferenceNumber, p.ID) {
		return duplicate("project", p.ReferenceNumber)
	}

	renamed := current.ReferenceNumber != p.ReferenceNumber
	if renamed {
		for _, t := range []timesheet.WorkOrderType{timesheet.WorkOrderValidation, timesheet.WorkOrderInternalDesign} {
			if id := timesheet.WorkOrderIdentifier(t, p.ReferenceNumber); m.identifierTaken(id, p.ID) {
				return duplicate("work order", id)
			}
		}
	}

	now := m.stamp()
	p.CreatedAt = current.CreatedAt
	m.projects[p.ID] = *p
	if renamed {
		for id, wo := range m.workOrders {
			if wo.ProjectID == p.ID {
				wo.Identifier = timesheet.WorkOrderIdentifier(wo.Type, p.ReferenceNumber)
				m.workOrders[id] = wo
			}
		}
	}
	if current.Status != p.Status {
		m.addEvent(p.ID, timesheet.EventStatusChange, statusEventContent(current.Status, p.Status), actor, now)
	}
	m.addAudit(timesheet.EntityProject, p.ID, timesheet.AuditUpdate, actor, "", now)
	return nil
}

func (m *Memory) DeleteProject(ctx context.Context, id, actor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return missing("project", id)
	}

	for woID, wo := range m.workOrders {
		if wo.ProjectID != id {
			continue
		}
		for eID, e := range m.entries {
			if e.WorkOrderID == woID {
				delete(m.entries, eID)
			}
		}
		for eID, d := range m.deleted {
			if d.entry.WorkOrderID == woID {
				delete(m.deleted, eID)
			}
		}
		delete(m.workOrders, woID)
	}

	events := m.events[:0]
	for _, ev := range m.events {
		if ev.ProjectID != id {
			events = append(events, ev)
		}
	}
	m.events = events

	delete(m.projects, id)
	m.addAudit(timesheet.EntityProject, id, timesheet.AuditDelete, actor, p.ReferenceNumber, m.stamp())
	return nil
}

func (m *Memory) workOrdersWhere(keep func(timesheet.WorkOrder) bool) []timesheet.WorkOrder {
	var wos []timesheet.WorkOrder
	for _, wo := range m.workOrders {
		if keep(wo) {
			wos = append(wos, wo)
		}
	}
	sort.Slice(wos, func(i, j int) bool { return wos[i].ID < wos[j].ID })
	return wos
}

func (m *Memory) GetWorkOrders(ctx context.Context, projectID int64) ([]timesheet.WorkOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workOrdersWhere(func(wo timesheet.WorkOrder) bool { return wo.ProjectID == projectID }), nil
}

func (m *Memory) ListWorkOrders(ctx context.Context) ([]timesheet.WorkOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workOrdersWhere(func(timesheet.WorkOrder) bool { return true }), nil
}

func (m *Memory) GetWorkOrder(ctx context.Context, id int64) (*timesheet.WorkOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wo, ok := m.workOrders[id]
	if !ok {
		return nil, missing("work order", id)
	}
	return &wo, nil
}

func sortEntries(entries []timesheet.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})
}

func (m *Memory) entriesWhere(keep func(timesheet.Entry) bool) []timesheet.Entry {
	var entries []timesheet.Entry
	for _, e := range m.entries {
		if keep(e) {
			entries = append(entries, e)
		}
	}
	sortEntries(entries)
	return entries
}

func (m *Memory) GetTimesheetEntries(ctx context.Context, userID int64, start, end time.Time) ([]timesheet.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	from, to := timesheet.DateKey(start), timesheet.DateKey(end)
	return m.entriesWhere(func(e timesheet.Entry) bool {
		key := timesheet.DateKey(e.Date)
		return e.UserID == userID && key >= from && key <= to
	}), nil
}

func (m *Memory) GetTimesheetEntriesByProject(ctx context.Context, projectID int64) ([]timesheet.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.entriesWhere(func(e timesheet.Entry) bool {
		wo, ok := m.workOrders[e.WorkOrderID]
		return ok && wo.ProjectID == projectID
	}), nil
}

func (m *Memory) GetTimesheetEntriesByWorkOrder(ctx context.Context, workOrderID int64) ([]timesheet.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.entriesWhere(func(e timesheet.Entry) bool { return e.WorkOrderID == workOrderID }), nil
}

func (m *Memory) GetTimesheetEntry(ctx context.Context, id int64) (*timesheet.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, missing("timesheet entry", id)
	}
	return &e, nil
}

func (m *Memory) CreateTimesheetEntry(ctx context.Context, e *timesheet.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.workOrders[e.WorkOrderID]; !ok {
		return missing("work order", e.WorkOrderID)
	}

	m.nextEntry++
	e.ID = m.nextEntry
	e.Date = timesheet.NormalizeDate(e.Date)
	e.CreatedAt = m.stamp()
	m.entries[e.ID] = *e
	return nil
}

func (m *Memory) UpdateTimesheetEntry(ctx context.Context, e *timesheet.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.entries[e.ID]
	if !ok {
		return missing("timesheet entry", e.ID)
	}
	e.UserID = current.UserID
	e.CreatedAt = current.CreatedAt
	e.Date = timesheet.NormalizeDate(e.Date)
	m.entries[e.ID] = *e
	return nil
}

func (m *Memory) DeleteTimesheetEntry(ctx context.Context, id, actor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return missing("timesheet entry", id)
	}
	now := m.stamp()
	delete(m.entries, id)
	m.deleted[id] = deletedEntry{entry: e, deletedAt: now}
	m.addAudit(timesheet.EntityTimesheet, id, timesheet.AuditDelete, actor, "", now)
	return nil
}

func (m *Memory) RestoreTimesheetEntry(ctx context.Context, id, actor int64) (*timesheet.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.deleted[id]
	if !ok {
		return nil, missing("deleted timesheet entry", id)
	}
	delete(m.deleted, id)
	m.entries[id] = d.entry
	m.addAudit(timesheet.EntityTimesheet, id, timesheet.AuditRestore, actor, "", m.stamp())
	e := d.entry
	return &e, nil
}

func (m *Memory) GetDeletedTimesheetEntries(ctx context.Context, userID int64) ([]timesheet.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var held []deletedEntry
	for _, d := range m.deleted {
		if d.entry.UserID == userID {
			held = append(held, d)
		}
	}
	sort.Slice(held, func(i, j int) bool {
		if !held[i].deletedAt.Equal(held[j].deletedAt) {
			return held[i].deletedAt.After(held[j].deletedAt)
		}
		return held[i].entry.ID > held[j].entry.ID
	})

	entries := make([]timesheet.Entry, 0, len(held))
	for _, d := range held {
		entries = append(entries, d.entry)
	}
	return entries, nil
}

func (m *Memory) GetProjectEvents(ctx context.Context, projectID int64) ([]timesheet.ProjectEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []timesheet.ProjectEvent
	for _, ev := range m.events {
		if ev.ProjectID == projectID {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID > events[j].ID
	})
	return events, nil
}

func (m *Memory) CreateProjectEvent(ctx context.Context, ev *timesheet.ProjectEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[ev.ProjectID]; !ok {
		return missing("project", ev.ProjectID)
	}
	now := m.stamp()
	*ev = m.addEvent(ev.ProjectID, ev.Type, ev.Content, ev.CreatedBy, now)
	m.addAudit(timesheet.EntityProjectEvent, ev.ID, timesheet.AuditCreate, ev.CreatedBy, string(ev.Type), now)
	return nil
}

func (m *Memory) GetAuditLogs(ctx context.Context, filter timesheet.AuditFilter) ([]timesheet.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var logs []timesheet.AuditLog
	for i := len(m.audit) - 1; i >= 0; i-- {
		if filter.Match(m.audit[i]) {
			logs = append(logs, m.audit[i])
		}
	}
	return logs, nil
}

func (m *Memory) GetState(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state[key], nil
}

func (m *Memory) SetState(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = value
	return nil
}
