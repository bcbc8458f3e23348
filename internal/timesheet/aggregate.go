package timesheet

import "time"

const DateLayout = "2006-01-02"

// NormalizeDate drops the time of day, keeping the calendar date t carries in
// its own location, as midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey is the ISO yyyy-MM-dd key of the calendar date t carries.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDateKey(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// GroupByDate buckets entries under their date key. Every requested key is
// present, empty or not; entries outside the requested keys are left out.
func GroupByDate(entries []Entry, dateKeys []string) map[string][]Entry {
	grouped := make(map[string][]Entry, len(dateKeys))
	for _, k := range dateKeys {
		grouped[k] = []Entry{}
	}
	for _, e := range entries {
		key := DateKey(e.Date)
		if list, ok := grouped[key]; ok {
			grouped[key] = append(list, e)
		}
	}
	return grouped
}

// WeekRange returns the Monday and Sunday of the week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	day := NormalizeDate(t)
	offset := int(day.Weekday())
	if offset == 0 {
		offset = 7
	}
	start := day.AddDate(0, 0, -offset+1)
	return start, start.AddDate(0, 0, 6)
}

// WeekDateKeys lists the date keys of the week containing anchor whose ISO
// weekday (Monday=1 .. Sunday=7) is in workDays. An empty workDays means
// Monday to Friday.
func WeekDateKeys(anchor time.Time, workDays []int) []string {
	if len(workDays) == 0 {
		workDays = []int{1, 2, 3, 4, 5}
	}
	include := make(map[int]bool, len(workDays))
	for _, d := range workDays {
		include[d] = true
	}

	start, _ := WeekRange(anchor)
	var keys []string
	for i := 0; i < 7; i++ {
		if include[i+1] {
			keys = append(keys, DateKey(start.AddDate(0, 0, i)))
		}
	}
	return keys
}

type Hours struct {
	TotalHours      float64 `json:"totalHours"`
	ValidationHours float64 `json:"validationHours"`
	DesignHours     float64 `json:"designHours"`
}

func (h *Hours) add(t WorkOrderType, v float64) {
	if t == WorkOrderValidation {
		h.ValidationHours += v
	} else {
		h.DesignHours += v
	}
	h.TotalHours = h.ValidationHours + h.DesignHours
}

type WorkOrderSummary struct {
	WorkOrder
	TotalHours float64 `json:"totalHours"`
}

type ProjectSummary struct {
	Project
	Hours
	WorkOrders []WorkOrderSummary `json:"workOrders"`
}

type Summary struct {
	Projects []ProjectSummary `json:"projects"`
	Totals   Hours            `json:"totals"`
}

// Summarize totals entry hours per work order and buckets them by work order
// type, per project and across all listed projects. Entries against work
// orders of unlisted projects are ignored.
func Summarize(projects []Project, workOrders []WorkOrder, entries []Entry) Summary {
	byWorkOrder := make(map[int64]float64)
	for _, e := range entries {
		byWorkOrder[e.WorkOrderID] += e.Hours
	}

	ordersByProject := make(map[int64][]WorkOrder)
	for _, wo := range workOrders {
		ordersByProject[wo.ProjectID] = append(ordersByProject[wo.ProjectID], wo)
	}

	summary := Summary{Projects: make([]ProjectSummary, 0, len(projects))}
	for _, p := range projects {
		ps := ProjectSummary{Project: p, WorkOrders: []WorkOrderSummary{}}
		for _, wo := range ordersByProject[p.ID] {
			hours := byWorkOrder[wo.ID]
			ps.WorkOrders = append(ps.WorkOrders, WorkOrderSummary{WorkOrder: wo, TotalHours: hours})
			ps.add(wo.Type, hours)
			summary.Totals.add(wo.Type, hours)
		}
		summary.Projects = append(summary.Projects, ps)
	}
	return summary
}
