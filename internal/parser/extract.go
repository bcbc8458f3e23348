package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

var (
	referencePattern = regexp.MustCompile(`(?i)PRJ-\d{4}-\d{4}`)
	hourCountPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:hours?|hrs?)\b`)
	timeRangePattern = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?(?:am|pm)?)\s*(?:to|-)\s*(\d{1,2}(?::\d{2})?(?:am|pm)?)\b`)
	clockLikePattern = regexp.MustCompile(`(?i)\d{1,2}(?::\d{2})?(?:am|pm)?`)
)

var stopWords = map[string]bool{
	"i": true, "worked": true, "working": true, "work": true, "on": true, "project": true,
	"for": true, "from": true, "to": true, "hours": true, "hour": true, "hrs": true, "hr": true,
	"validation": true, "internal": true, "design": true, "today": true, "yesterday": true,
	"tomorrow": true, "morning": true, "afternoon": true, "evening": true, "spent": true,
	"log": true, "logged": true, "please": true, "create": true, "entry": true,
	"the": true, "and": true, "with": true, "this": true, "that": true, "into": true,
	"of": true, "at": true, "in": true, "an": true, "a": true, "was": true, "did": true,
}

// projectRef is what the project extractor found in a prompt.
type projectRef struct {
	// Reference is set when the prompt carried a reference number.
	Reference string
	// Project is set when the prompt named a known project by title.
	Project *timesheet.Project
	// needle is the lowercased text that identified the project.
	needle string
}

func (r projectRef) label() string {
	if r.Reference != "" {
		return r.Reference
	}
	if r.Project != nil {
		if r.Project.ReferenceNumber != "" {
			return r.Project.ReferenceNumber
		}
		return r.Project.Title
	}
	return ""
}

// extractProject finds a reference number, or failing that the first known
// project whose title occurs in the prompt.
func extractProject(prompt string, projects []timesheet.Project) (projectRef, bool) {
	if ref := referencePattern.FindString(prompt); ref != "" {
		return projectRef{Reference: strings.ToUpper(ref), needle: strings.ToLower(ref)}, true
	}

	lower := strings.ToLower(prompt)
	for i := range projects {
		title := strings.ToLower(strings.TrimSpace(projects[i].Title))
		if title == "" {
			continue
		}
		if strings.Contains(lower, title) {
			p := projects[i]
			return projectRef{Project: &p, needle: title}, true
		}
	}
	return projectRef{}, false
}

// extractWorkType classifies the prompt. Validation wins when both kinds of
// work are mentioned.
func extractWorkType(prompt string) (timesheet.WorkOrderType, bool) {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "validation"):
		return timesheet.WorkOrderValidation, true
	case strings.Contains(lower, "internal design"), strings.Contains(lower, "design"):
		return timesheet.WorkOrderInternalDesign, true
	}
	return "", false
}

type duration struct {
	Hours     float64
	StartTime string
	EndTime   string
}

// extractDuration prefers an explicit hour count over a time range. The
// prompt must already have the project reference removed, since reference
// digits look like a range.
func extractDuration(prompt string) (duration, bool) {
	if m := hourCountPattern.FindStringSubmatch(prompt); m != nil {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return duration{Hours: hours}, true
		}
	}

	if m := timeRangePattern.FindStringSubmatch(prompt); m != nil {
		start := normalizeTime(m[1])
		end := normalizeTime(m[2])
		return duration{
			Hours:     timesheet.HoursBetween(start, end),
			StartTime: start,
			EndTime:   end,
		}, true
	}
	return duration{}, false
}

// normalizeTime turns "9", "9:30", "2pm" or "10:15am" into "HH:MM".
func normalizeTime(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	pm := strings.HasSuffix(t, "pm")
	t = strings.TrimSuffix(strings.TrimSuffix(t, "pm"), "am")

	hourPart, minutePart, _ := strings.Cut(t, ":")
	hour, _ := strconv.Atoi(hourPart)
	minute, _ := strconv.Atoi(minutePart)

	if pm && hour < 12 {
		hour += 12
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// extractDate understands "yesterday" and "tomorrow"; anything else is today.
func extractDate(prompt string, now time.Time) time.Time {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "yesterday"):
		now = now.AddDate(0, 0, -1)
	case strings.Contains(lower, "tomorrow"):
		now = now.AddDate(0, 0, 1)
	}
	return timesheet.NormalizeDate(now)
}

// extractDescription keeps the words of the prompt that are not the project,
// times, hour counts or filler.
func extractDescription(prompt string, ref projectRef) string {
	text := strings.ToLower(prompt)
	if ref.needle != "" {
		text = strings.Replace(text, ref.needle, " ", 1)
	}
	text = hourCountPattern.ReplaceAllString(text, " ")
	text = clockLikePattern.ReplaceAllString(text, " ")

	var words []string
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ".,!?")
		if len(w) <= 2 || stopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}
