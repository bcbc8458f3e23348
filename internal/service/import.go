package service

import (
	"context"
	"errors"

	"github.com/christopherklint97/timepulse/internal/calendar"
	"github.com/christopherklint97/timepulse/internal/parser"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

type SkippedEvent struct {
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}

type ImportResult struct {
	Imported []timesheet.Entry `json:"imported"`
	Skipped  []SkippedEvent    `json:"skipped"`
}

type entryKey struct {
	workOrderID int64
	date        string
	start, end  string
}

func keyOf(e timesheet.Entry) entryKey {
	return entryKey{e.WorkOrderID, timesheet.DateKey(e.Date), e.StartTime, e.EndTime}
}

// ImportEvents turns calendar events into entries for userID. Events whose
// summary names no project or work type are skipped, as are all-day events
// and events already imported. With dryRun nothing is saved.
func (s *Service) ImportEvents(ctx context.Context, userID int64, events []calendar.Event, dryRun bool) (*ImportResult, error) {
	result := &ImportResult{Imported: []timesheet.Entry{}, Skipped: []SkippedEvent{}}
	if len(events) == 0 {
		return result, nil
	}

	first, last := events[0].StartTime, events[0].StartTime
	for _, ev := range events {
		if ev.StartTime.Before(first) {
			first = ev.StartTime
		}
		if ev.StartTime.After(last) {
			last = ev.StartTime
		}
	}
	existing, err := s.store.GetTimesheetEntries(ctx, userID, timesheet.NormalizeDate(first), timesheet.NormalizeDate(last))
	if err != nil {
		return nil, classify("listing existing entries", err)
	}
	// Match events against the current project list, not a cached one.
	s.registry.Invalidate()

	seen := make(map[entryKey]bool, len(existing))
	for _, e := range existing {
		seen[keyOf(e)] = true
	}

	for _, ev := range events {
		if ev.AllDay {
			result.Skipped = append(result.Skipped, SkippedEvent{Summary: ev.Summary, Reason: "all-day event"})
			continue
		}

		c, err := s.parser.ParseEvent(ctx, ev.Summary, ev.StartTime, ev.EndTime)
		var failure *parser.Failure
		if errors.As(err, &failure) {
			result.Skipped = append(result.Skipped, SkippedEvent{Summary: ev.Summary, Reason: failure.Message})
			continue
		}
		if err != nil {
			return nil, err
		}

		e := c.Entry(userID)
		if err := normalizeEntry(&e); err != nil {
			result.Skipped = append(result.Skipped, SkippedEvent{Summary: ev.Summary, Reason: err.Error()})
			continue
		}
		if seen[keyOf(e)] {
			result.Skipped = append(result.Skipped, SkippedEvent{Summary: ev.Summary, Reason: "already imported"})
			continue
		}
		seen[keyOf(e)] = true

		if !dryRun {
			created, err := s.CreateEntry(ctx, e)
			if err != nil {
				return nil, err
			}
			e = *created
		}
		result.Imported = append(result.Imported, e)
	}

	s.logger.Info("calendar import finished",
		"user_id", userID, "imported", len(result.Imported), "skipped", len(result.Skipped), "dry_run", dryRun)
	return result, nil
}
