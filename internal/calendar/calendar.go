package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// Event represents a parsed calendar event.
type Event struct {
	UID       string
	Summary   string
	StartTime time.Time
	EndTime   time.Time
	AllDay    bool
}

// Fetch retrieves and parses iCalendar events from a URL or file path,
// returning events that overlap with the given time window.
func Fetch(ctx context.Context, source string, windowStart, windowEnd time.Time) ([]Event, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	return Decode(r, windowStart, windowEnd)
}

// Decode parses every calendar in r and returns the summarised events that
// overlap the window, ordered by start time.
func Decode(r io.Reader, windowStart, windowEnd time.Time) ([]Event, error) {
	dec := ical.NewDecoder(r)
	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(time.Local)
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(time.Local)
			if err != nil {
				continue
			}
			if !start.Before(windowEnd) || !end.After(windowStart) {
				continue
			}

			summary, _ := event.Props.Text(ical.PropSummary)
			if summary == "" {
				continue
			}
			uid, _ := event.Props.Text(ical.PropUID)

			allDay := false
			if prop := event.Props.Get(ical.PropDateTimeStart); prop != nil {
				allDay = prop.ValueType() == ical.ValueDate
			}

			events = append(events, Event{
				UID:       uid,
				Summary:   summary,
				StartTime: start,
				EndTime:   end,
				AllDay:    allDay,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

// GroupByDay buckets events under the local calendar day they start on.
func GroupByDay(events []Event) map[string][]Event {
	grouped := make(map[string][]Event)
	for _, e := range events {
		key := timesheet.DateKey(e.StartTime.Local())
		grouped[key] = append(grouped[key], e)
	}
	return grouped
}

// PrefillPrompts turns a day's timed events into prompt text, one prompt
// per event with its clock range so the prompt parser can pick up the
// duration. All-day events carry no hours and are left out.
func PrefillPrompts(events []Event) []string {
	var prompts []string
	for _, e := range events {
		if e.AllDay {
			continue
		}
		prompts = append(prompts, fmt.Sprintf("%s %s to %s",
			e.Summary, e.StartTime.Local().Format("15:04"), e.EndTime.Local().Format("15:04")))
	}
	return prompts
}
