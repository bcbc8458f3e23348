package timesheet

import (
	"sort"
	"time"
)

const (
	// SuggestionWindow is how far back entries are analysed.
	SuggestionWindow = 30 * 24 * time.Hour
	// DisplayLimit is how many suggestions a UI acts upon.
	DisplayLimit = 5

	recentWindow    = 7 * 24 * time.Hour
	minOccurrences  = 2
	strongFrequency = 3
)

// WorkOrderLabel denormalises a work order for display.
type WorkOrderLabel struct {
	ProjectTitle        string
	ProjectReference    string
	WorkOrderType       WorkOrderType
	WorkOrderIdentifier string
}

type Suggestion struct {
	WorkOrderID         int64         `json:"workOrderId"`
	ProjectTitle        string        `json:"projectTitle"`
	ProjectReference    string        `json:"projectReference"`
	WorkOrderType       WorkOrderType `json:"workOrderType"`
	WorkOrderIdentifier string        `json:"workOrderIdentifier"`
	Hours               float64       `json:"hours"`
	StartTime           string        `json:"startTime,omitempty"`
	EndTime             string        `json:"endTime,omitempty"`
	Description         string        `json:"description,omitempty"`
	Frequency           int           `json:"frequency"`
	LastUsed            time.Time     `json:"lastUsed"`
	BreakTaken          bool          `json:"breakTaken"`
	BreakDuration       int           `json:"breakDuration,omitempty"`
	IsLeave             bool          `json:"isLeave"`
	LeaveType           LeaveType     `json:"leaveType,omitempty"`
	LeaveHours          float64       `json:"leaveHours,omitempty"`
}

// Entry turns the suggestion back into an entry for the given user and date.
func (s Suggestion) Entry(userID int64, date time.Time) Entry {
	return Entry{
		UserID:        userID,
		WorkOrderID:   s.WorkOrderID,
		Date:          NormalizeDate(date),
		Hours:         s.Hours,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Description:   s.Description,
		BreakTaken:    s.BreakTaken,
		BreakDuration: s.BreakDuration,
		IsLeave:       s.IsLeave,
		LeaveType:     s.LeaveType,
		LeaveHours:    s.LeaveHours,
	}
}

func newer(a, b Entry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID > b.ID
}

// Suggest surfaces recurring work orders from recent entries. A work order
// qualifies with at least two entries, and either a use in the last seven
// days or three or more entries overall. The representative is the most
// recent entry. Results are ordered by frequency, most frequent first.
func Suggest(entries []Entry, labels map[int64]WorkOrderLabel, now time.Time) []Suggestion {
	groups := make(map[int64][]Entry)
	for _, e := range entries {
		groups[e.WorkOrderID] = append(groups[e.WorkOrderID], e)
	}

	suggestions := make([]Suggestion, 0, len(groups))
	for woID, group := range groups {
		if len(group) < minOccurrences {
			continue
		}

		latest := group[0]
		for _, e := range group[1:] {
			if newer(e, latest) {
				latest = e
			}
		}

		recent := now.Sub(latest.Date) < recentWindow
		if !recent && len(group) < strongFrequency {
			continue
		}

		label := labels[woID]
		suggestions = append(suggestions, Suggestion{
			WorkOrderID:         woID,
			ProjectTitle:        label.ProjectTitle,
			ProjectReference:    label.ProjectReference,
			WorkOrderType:       label.WorkOrderType,
			WorkOrderIdentifier: label.WorkOrderIdentifier,
			Hours:               latest.Hours,
			StartTime:           latest.StartTime,
			EndTime:             latest.EndTime,
			Description:         latest.Description,
			Frequency:           len(group),
			LastUsed:            latest.Date,
			BreakTaken:          latest.BreakTaken,
			BreakDuration:       latest.BreakDuration,
			IsLeave:             latest.IsLeave,
			LeaveType:           latest.LeaveType,
			LeaveHours:          latest.LeaveHours,
		})
	}

	// Map iteration is random; fix a deterministic order before ranking.
	sort.Slice(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if !a.LastUsed.Equal(b.LastUsed) {
			return a.LastUsed.After(b.LastUsed)
		}
		return a.WorkOrderID < b.WorkOrderID
	})
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Frequency > suggestions[j].Frequency
	})
	return suggestions
}
