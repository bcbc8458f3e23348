package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/christopherklint97/timepulse/internal/parser"
	"github.com/christopherklint97/timepulse/internal/store"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// EntryDetail is an entry joined with its work order and project labels.
type EntryDetail struct {
	timesheet.Entry
	WorkOrder        *timesheet.WorkOrder `json:"workOrder,omitempty"`
	ProjectTitle     string               `json:"projectTitle,omitempty"`
	ProjectReference string               `json:"projectReference,omitempty"`
}

type WeekView struct {
	Start       string                 `json:"start"`
	End         string                 `json:"end"`
	Days        []timesheet.DaySummary `json:"days"`
	TotalHours  float64                `json:"totalHours"`
	LeaveHours  float64                `json:"leaveHours"`
	TargetHours float64                `json:"targetHours"`
}

type PromptResult struct {
	Entry     *timesheet.Entry  `json:"entry"`
	Candidate *parser.Candidate `json:"candidate"`
	Message   string            `json:"message"`
}

// normalizeEntry validates e in place: dates lose their time of day, clock
// times are zero-padded, hours are derived from a clock range, and break and
// leave details are dropped when they do not apply.
func normalizeEntry(e *timesheet.Entry) error {
	if e.WorkOrderID <= 0 {
		return invalid("workOrderId is required")
	}
	if e.Date.IsZero() {
		return invalid("date is required")
	}
	e.Date = timesheet.NormalizeDate(e.Date)
	e.Description = strings.TrimSpace(e.Description)

	for _, clock := range []*string{&e.StartTime, &e.EndTime} {
		if *clock == "" {
			continue
		}
		v, err := timesheet.NormalizeClock(*clock)
		if err != nil {
			return invalid("%v", err)
		}
		*clock = v
	}
	if e.StartTime != "" && e.EndTime != "" {
		start, _ := timesheet.ParseClock(e.StartTime)
		end, _ := timesheet.ParseClock(e.EndTime)
		if end < start {
			return invalid("end time %s is before start time %s", e.EndTime, e.StartTime)
		}
		e.Hours = timesheet.HoursBetween(e.StartTime, e.EndTime)
	}
	if e.Hours < 0 || math.IsNaN(e.Hours) || math.IsInf(e.Hours, 0) {
		return invalid("hours must be a non-negative number")
	}

	if !e.BreakTaken {
		e.BreakDuration = 0
	} else if e.BreakDuration < 0 {
		return invalid("breakDuration must not be negative")
	}

	if !e.IsLeave {
		e.LeaveType = ""
		e.LeaveHours = 0
		return nil
	}
	if !e.LeaveType.Valid() {
		return invalid("leaveType must be one of full-day, half-day or hours")
	}
	if e.LeaveType != timesheet.LeaveHours {
		e.LeaveHours = 0
	} else if e.LeaveHours < 0 {
		return invalid("leaveHours must not be negative")
	}
	return nil
}

func (s *Service) requireWorkOrder(ctx context.Context, id int64) error {
	if _, err := s.store.GetWorkOrder(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid("work order %d does not exist", id)
		}
		return &OpError{Op: "loading work order", Err: err}
	}
	return nil
}

func (s *Service) CreateEntry(ctx context.Context, e timesheet.Entry) (*timesheet.Entry, error) {
	if err := normalizeEntry(&e); err != nil {
		return nil, err
	}
	if err := s.requireWorkOrder(ctx, e.WorkOrderID); err != nil {
		return nil, err
	}
	if err := s.store.CreateTimesheetEntry(ctx, &e); err != nil {
		return nil, classify("creating timesheet entry", err)
	}
	s.logger.Info("timesheet entry created", "id", e.ID, "user_id", e.UserID, "work_order_id", e.WorkOrderID, "hours", e.Hours)
	return &e, nil
}

func (s *Service) UpdateEntry(ctx context.Context, id int64, patch timesheet.EntryPatch) (*timesheet.Entry, error) {
	e, err := s.store.GetTimesheetEntry(ctx, id)
	if err != nil {
		return nil, classify("loading timesheet entry", err)
	}
	previousWorkOrder := e.WorkOrderID

	patch.Apply(e)
	if err := normalizeEntry(e); err != nil {
		return nil, err
	}
	if e.WorkOrderID != previousWorkOrder {
		if err := s.requireWorkOrder(ctx, e.WorkOrderID); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdateTimesheetEntry(ctx, e); err != nil {
		return nil, classify("updating timesheet entry", err)
	}
	return e, nil
}

func (s *Service) DeleteEntry(ctx context.Context, actor, id int64) error {
	if err := s.store.DeleteTimesheetEntry(ctx, id, actor); err != nil {
		return classify("deleting timesheet entry", err)
	}
	s.logger.Info("timesheet entry deleted", "id", id, "by", actor)
	return nil
}

// Restore brings back a soft-deleted record. Only timesheet entries can be
// restored.
func (s *Service) Restore(ctx context.Context, actor int64, entityType string, id int64) (*timesheet.Entry, error) {
	if entityType != timesheet.EntityTimesheet {
		return nil, invalid("restoring %q records is not supported", entityType)
	}
	e, err := s.store.RestoreTimesheetEntry(ctx, id, actor)
	if err != nil {
		return nil, classify("restoring timesheet entry", err)
	}
	s.logger.Info("timesheet entry restored", "id", id, "by", actor)
	return e, nil
}

func (s *Service) DeletedEntries(ctx context.Context, userID int64) ([]timesheet.Entry, error) {
	entries, err := s.store.GetDeletedTimesheetEntries(ctx, userID)
	if err != nil {
		return nil, classify("listing deleted entries", err)
	}
	if entries == nil {
		entries = []timesheet.Entry{}
	}
	return entries, nil
}

type lookup struct {
	workOrders map[int64]timesheet.WorkOrder
	projects   map[int64]timesheet.Project
}

func (s *Service) loadLookup(ctx context.Context) (*lookup, error) {
	projects, err := s.store.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	wos, err := s.store.ListWorkOrders(ctx)
	if err != nil {
		return nil, err
	}

	l := &lookup{
		workOrders: make(map[int64]timesheet.WorkOrder, len(wos)),
		projects:   make(map[int64]timesheet.Project, len(projects)),
	}
	for _, p := range projects {
		l.projects[p.ID] = p
	}
	for _, wo := range wos {
		l.workOrders[wo.ID] = wo
	}
	return l, nil
}

func (l *lookup) labels() map[int64]timesheet.WorkOrderLabel {
	labels := make(map[int64]timesheet.WorkOrderLabel, len(l.workOrders))
	for id, wo := range l.workOrders {
		p := l.projects[wo.ProjectID]
		labels[id] = timesheet.WorkOrderLabel{
			ProjectTitle:        p.Title,
			ProjectReference:    p.ReferenceNumber,
			WorkOrderType:       wo.Type,
			WorkOrderIdentifier: wo.Identifier,
		}
	}
	return labels
}

func (l *lookup) detail(e timesheet.Entry) EntryDetail {
	d := EntryDetail{Entry: e}
	if wo, ok := l.workOrders[e.WorkOrderID]; ok {
		d.WorkOrder = &wo
		p := l.projects[wo.ProjectID]
		d.ProjectTitle = p.Title
		d.ProjectReference = p.ReferenceNumber
	}
	return d
}

// Entries lists a user's entries between two calendar dates, inclusive.
func (s *Service) Entries(ctx context.Context, userID int64, start, end time.Time) ([]EntryDetail, error) {
	start, end = timesheet.NormalizeDate(start), timesheet.NormalizeDate(end)
	if end.Before(start) {
		return nil, invalid("end date %s is before start date %s", timesheet.DateKey(end), timesheet.DateKey(start))
	}

	entries, err := s.store.GetTimesheetEntries(ctx, userID, start, end)
	if err != nil {
		return nil, classify("listing timesheet entries", err)
	}
	l, err := s.loadLookup(ctx)
	if err != nil {
		return nil, classify("loading work orders", err)
	}

	details := make([]EntryDetail, 0, len(entries))
	for _, e := range entries {
		details = append(details, l.detail(e))
	}
	return details, nil
}

// Week assembles the Monday-first week containing anchor: the configured
// work days, plus any other day of that week that has entries.
func (s *Service) Week(ctx context.Context, userID int64, anchor time.Time) (*WeekView, error) {
	start, end := timesheet.WeekRange(anchor)
	entries, err := s.store.GetTimesheetEntries(ctx, userID, start, end)
	if err != nil {
		return nil, classify("listing week entries", err)
	}

	workDay := make(map[string]bool)
	for _, k := range timesheet.WeekDateKeys(anchor, s.opts.WorkDays) {
		workDay[k] = true
	}
	hasEntries := make(map[string]bool)
	for _, e := range entries {
		hasEntries[timesheet.DateKey(e.Date)] = true
	}

	var keys []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		k := timesheet.DateKey(d)
		if workDay[k] || hasEntries[k] {
			keys = append(keys, k)
		}
	}

	grouped := timesheet.GroupByDate(entries, keys)
	view := &WeekView{
		Start:       timesheet.DateKey(start),
		End:         timesheet.DateKey(end),
		Days:        make([]timesheet.DaySummary, 0, len(keys)),
		TargetHours: s.opts.TargetHours * float64(len(workDay)),
	}
	for _, k := range keys {
		day := timesheet.SummarizeDay(k, grouped[k], s.opts.WorkdayHours)
		view.TotalHours += day.Total
		view.LeaveHours += day.LeaveHours
		view.Days = append(view.Days, day)
	}
	view.TotalHours = timesheet.Round2(view.TotalHours)
	view.LeaveHours = timesheet.Round2(view.LeaveHours)
	return view, nil
}

// ParsePrompt previews what a prompt would log without saving anything. A
// prompt that names no known project is parsed once more against a fresh
// project list, since another process may have added the project since the
// list was cached.
func (s *Service) ParsePrompt(ctx context.Context, prompt string) (*parser.Candidate, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, invalid("prompt is empty")
	}
	c, err := s.parser.Parse(ctx, prompt, s.now())
	var failure *parser.Failure
	if errors.As(err, &failure) && failure.Reason == parser.ReasonNoProject {
		s.logger.Debug("no project matched, reloading project list")
		s.registry.Invalidate()
		return s.parser.Parse(ctx, prompt, s.now())
	}
	return c, err
}

// LogPrompt parses prompt and saves the resulting entry for userID.
func (s *Service) LogPrompt(ctx context.Context, userID int64, prompt string) (*PromptResult, error) {
	c, err := s.ParsePrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s.LogCandidate(ctx, userID, c)
}

// LogCandidate saves an already parsed candidate.
func (s *Service) LogCandidate(ctx context.Context, userID int64, c *parser.Candidate) (*PromptResult, error) {
	e, err := s.CreateEntry(ctx, c.Entry(userID))
	if err != nil {
		return nil, err
	}
	return &PromptResult{Entry: e, Candidate: c, Message: c.Message()}, nil
}

// Suggestions ranks the user's recurring work from the last 30 days. Store
// failures are logged and produce no suggestions. A positive limit caps the
// list.
func (s *Service) Suggestions(ctx context.Context, userID int64, limit int) []timesheet.Suggestion {
	now := s.now()
	entries, err := s.store.GetTimesheetEntries(ctx, userID, now.Add(-timesheet.SuggestionWindow), now)
	if err != nil {
		s.logger.Warn("loading entries for suggestions", "user_id", userID, "error", err)
		return []timesheet.Suggestion{}
	}
	l, err := s.loadLookup(ctx)
	if err != nil {
		s.logger.Warn("loading work orders for suggestions", "error", err)
		return []timesheet.Suggestion{}
	}

	suggestions := timesheet.Suggest(entries, l.labels(), now)
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// Day summarises a single calendar day for userID.
func (s *Service) Day(ctx context.Context, userID int64, date time.Time) (*timesheet.DaySummary, error) {
	date = timesheet.NormalizeDate(date)
	entries, err := s.store.GetTimesheetEntries(ctx, userID, date, date)
	if err != nil {
		return nil, classify("listing day entries", err)
	}
	day := timesheet.SummarizeDay(timesheet.DateKey(date), entries, s.opts.WorkdayHours)
	return &day, nil
}
