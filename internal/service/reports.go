package service

import (
	"context"
	"time"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// ReportSummary is the dashboard view of one week for one user.
type ReportSummary struct {
	WeekStart       string  `json:"weekStart"`
	WeekEnd         string  `json:"weekEnd"`
	WeeklyHours     float64 `json:"weeklyHours"`
	ActiveProjects  int     `json:"activeProjects"`
	TotalProjects   int     `json:"totalProjects"`
	ValidationHours float64 `json:"validationHours"`
	DesignHours     float64 `json:"designHours"`
}

// WeekReport carries a week view together with every entry's labels, ready
// for export.
type WeekReport struct {
	Week    *WeekView     `json:"week"`
	Entries []EntryDetail `json:"entries"`
}

func (s *Service) ReportSummary(ctx context.Context, userID int64, anchor time.Time) (*ReportSummary, error) {
	start, end := timesheet.WeekRange(anchor)

	projects, err := s.store.GetProjects(ctx)
	if err != nil {
		return nil, classify("listing projects", err)
	}
	entries, err := s.store.GetTimesheetEntries(ctx, userID, start, end)
	if err != nil {
		return nil, classify("listing week entries", err)
	}
	l, err := s.loadLookup(ctx)
	if err != nil {
		return nil, classify("loading work orders", err)
	}

	r := &ReportSummary{
		WeekStart:     timesheet.DateKey(start),
		WeekEnd:       timesheet.DateKey(end),
		TotalProjects: len(projects),
	}
	for _, p := range projects {
		if p.Status == timesheet.StatusInProgress {
			r.ActiveProjects++
		}
	}
	for _, e := range entries {
		r.WeeklyHours += e.Hours
		wo, ok := l.workOrders[e.WorkOrderID]
		if !ok {
			continue
		}
		switch wo.Type {
		case timesheet.WorkOrderValidation:
			r.ValidationHours += e.Hours
		case timesheet.WorkOrderInternalDesign:
			r.DesignHours += e.Hours
		}
	}
	r.WeeklyHours = timesheet.Round2(r.WeeklyHours)
	r.ValidationHours = timesheet.Round2(r.ValidationHours)
	r.DesignHours = timesheet.Round2(r.DesignHours)
	return r, nil
}

func (s *Service) WeekReport(ctx context.Context, userID int64, anchor time.Time) (*WeekReport, error) {
	week, err := s.Week(ctx, userID, anchor)
	if err != nil {
		return nil, err
	}
	start, end := timesheet.WeekRange(anchor)
	entries, err := s.Entries(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return &WeekReport{Week: week, Entries: entries}, nil
}

func (s *Service) AuditLogs(ctx context.Context, filter timesheet.AuditFilter) ([]timesheet.AuditLog, error) {
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return nil, invalid("end is before start")
	}
	logs, err := s.store.GetAuditLogs(ctx, filter)
	if err != nil {
		return nil, classify("listing audit logs", err)
	}
	if logs == nil {
		logs = []timesheet.AuditLog{}
	}
	return logs, nil
}
