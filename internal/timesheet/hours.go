package timesheet

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

const (
	// AutoBreakThreshold is the daily total at which a 30 minute break is
	// assumed when none was logged.
	AutoBreakThreshold = 4.5
	AutoBreakHours     = 0.5
)

// ParseClock parses an "HH:MM" (or "H:MM") 24-hour clock time into minutes
// since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || len(h) > 2 || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

// NormalizeClock rewrites a valid clock time as zero-padded "HH:MM".
func NormalizeClock(s string) (string, error) {
	mins, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(mins), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// HoursBetween returns the hours from start to end on the same day, rounded
// to two decimals. An end before start yields 0, as does malformed input.
func HoursBetween(start, end string) float64 {
	s, err := ParseClock(start)
	if err != nil {
		slog.Warn("malformed start time, counting 0 hours", "start", start, "end", end, "error", err)
		return 0
	}
	e, err := ParseClock(end)
	if err != nil {
		slog.Warn("malformed end time, counting 0 hours", "start", start, "end", end, "error", err)
		return 0
	}
	if e < s {
		return 0
	}
	return Round2(float64(e-s) / 60)
}

func sumHours(entries []Entry) float64 {
	total := 0.0
	for _, e := range entries {
		total += e.Hours
	}
	return total
}

func anyBreakTaken(entries []Entry) bool {
	for _, e := range entries {
		if e.BreakTaken {
			return true
		}
	}
	return false
}

// DailyTotal sums one calendar day's hours. When no break was logged and the
// day reaches AutoBreakThreshold, half an hour is deducted.
func DailyTotal(entries []Entry) float64 {
	total := sumHours(entries)
	if !anyBreakTaken(entries) && total >= AutoBreakThreshold {
		total = math.Max(0, total-AutoBreakHours)
	}
	return total
}

// LeaveCredit is the number of leave hours an entry accounts for.
func LeaveCredit(e Entry, workdayHours float64) float64 {
	if !e.IsLeave {
		return 0
	}
	switch e.LeaveType {
	case LeaveFullDay:
		return workdayHours
	case LeaveHalfDay:
		return workdayHours / 2
	case LeaveHours:
		return e.LeaveHours
	}
	return 0
}

type DaySummary struct {
	Date       string  `json:"date"`
	Entries    []Entry `json:"entries"`
	RawHours   float64 `json:"rawHours"`
	Total      float64 `json:"total"`
	AutoBreak  bool    `json:"autoBreak"`
	LeaveHours float64 `json:"leaveHours"`
}

func SummarizeDay(date string, entries []Entry, workdayHours float64) DaySummary {
	if entries == nil {
		entries = []Entry{}
	}
	day := DaySummary{
		Date:     date,
		Entries:  entries,
		RawHours: sumHours(entries),
		Total:    DailyTotal(entries),
	}
	day.AutoBreak = day.Total != day.RawHours
	for _, e := range entries {
		day.LeaveHours += LeaveCredit(e, workdayHours)
	}
	return day
}
