package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// lastReminderKey holds the date of the last reminder sent, so restarts do
// not repeat a reminder on the same day.
const lastReminderKey = "last_reminder_date"

type Options struct {
	UserID          int64
	WorkStart       string
	WorkEnd         string
	WorkDays        []int
	IntervalMinutes int
	// DailyTarget is the number of hours a work day should reach. Zero means
	// the span from WorkStart to WorkEnd.
	DailyTarget float64
	Notifier    Notifier
	Logger      *slog.Logger
	Now         func() time.Time
	// PIDPath is written while Run is active. Empty disables the PID file.
	PIDPath string
}

// Reminder nags once per work day, after the end of the working hours, when
// the logged hours fall short of the daily target.
type Reminder struct {
	svc    *service.Service
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func New(svc *service.Service, opts Options) *Reminder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.IntervalMinutes <= 0 {
		opts.IntervalMinutes = 60
	}
	if opts.DailyTarget <= 0 {
		opts.DailyTarget = workSpan(opts.WorkStart, opts.WorkEnd)
	}
	if len(opts.WorkDays) == 0 {
		opts.WorkDays = []int{1, 2, 3, 4, 5}
	}
	if opts.Notifier == nil {
		opts.Notifier = Desktop{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Reminder{svc: svc, opts: opts, logger: logger, now: now}
}

func (r *Reminder) interval() time.Duration {
	return time.Duration(r.opts.IntervalMinutes) * time.Minute
}

// Run checks on every aligned tick until ctx is cancelled.
func (r *Reminder) Run(ctx context.Context) error {
	if r.opts.PIDPath != "" {
		if err := WritePID(r.opts.PIDPath); err != nil {
			return fmt.Errorf("writing PID file: %w", err)
		}
		defer RemovePID(r.opts.PIDPath)
	}

	r.logger.Info("reminder started",
		"interval", r.interval(), "work_start", r.opts.WorkStart, "work_end", r.opts.WorkEnd, "target", r.opts.DailyTarget)

	for {
		now := r.now()
		next := nextAlignedTick(now, r.interval())
		r.logger.Debug("next reminder check", "at", next.Format("15:04"))

		select {
		case <-ctx.Done():
			r.logger.Info("reminder stopped")
			return nil
		case <-time.After(next.Sub(now)):
		}

		if _, err := r.Check(ctx); err != nil {
			r.logger.Warn("reminder check failed", "error", err)
		}
	}
}

// Check sends today's reminder if it is due. It reports whether a
// notification went out.
func (r *Reminder) Check(ctx context.Context) (bool, error) {
	now := r.now()
	if !isWorkDay(now, r.opts.WorkDays) || !afterWorkEnd(now, r.opts.WorkEnd) {
		return false, nil
	}

	st := r.svc.Store()
	today := timesheet.DateKey(now)
	last, err := st.GetState(ctx, lastReminderKey)
	if err != nil {
		return false, fmt.Errorf("reading reminder state: %w", err)
	}
	if last == today {
		return false, nil
	}

	day, err := r.svc.Day(ctx, r.opts.UserID, now)
	if err != nil {
		return false, fmt.Errorf("loading today's entries: %w", err)
	}
	logged := timesheet.Round2(day.Total + day.LeaveHours)
	if logged >= r.opts.DailyTarget {
		return false, nil
	}

	msg := fmt.Sprintf("You have logged %.2f of %.2f hours today. Run `timepulse log` to fill the gap.", logged, r.opts.DailyTarget)
	if err := r.opts.Notifier.Notify("timepulse", msg); err != nil {
		return false, fmt.Errorf("sending notification: %w", err)
	}
	if err := st.SetState(ctx, lastReminderKey, today); err != nil {
		return true, fmt.Errorf("saving reminder state: %w", err)
	}
	r.logger.Info("reminder sent", "date", today, "logged", logged, "target", r.opts.DailyTarget)
	return true, nil
}

func nextAlignedTick(now time.Time, interval time.Duration) time.Time {
	mins := int(interval.Minutes())
	if mins <= 0 {
		mins = 60
	}

	nextMinute := ((now.Minute() / mins) + 1) * mins

	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	return next.Add(time.Duration(nextMinute) * time.Minute)
}

func isWorkDay(t time.Time, workDays []int) bool {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	for _, d := range workDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// workSpan is the length of the working hours, falling back to eight hours
// when they are missing or inverted.
func workSpan(workStart, workEnd string) float64 {
	start, err := timesheet.ParseClock(workStart)
	if err != nil {
		return 8
	}
	end, err := timesheet.ParseClock(workEnd)
	if err != nil || end <= start {
		return 8
	}
	return timesheet.Round2(float64(end-start) / 60)
}

func afterWorkEnd(t time.Time, workEnd string) bool {
	end, err := timesheet.ParseClock(workEnd)
	if err != nil {
		end = 17 * 60
	}
	return t.Hour()*60+t.Minute() >= end
}
