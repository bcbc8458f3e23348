package timesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGroupByDate(t *testing.T) {
	keys := []string{"2024-03-04", "2024-03-05", "2024-03-06"}
	entries := []Entry{
		{ID: 1, Date: day("2024-03-04")},
		{ID: 2, Date: time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC)},
		{ID: 3, Date: day("2024-03-06")},
	}

	grouped := GroupByDate(entries, keys)

	require.Len(t, grouped, len(keys))
	for _, k := range keys {
		assert.Contains(t, grouped, k)
	}
	assert.Len(t, grouped["2024-03-04"], 2)
	assert.Empty(t, grouped["2024-03-05"])
	assert.NotNil(t, grouped["2024-03-05"])
	assert.Equal(t, int64(3), grouped["2024-03-06"][0].ID)

	seen := map[int64]int{}
	for k, list := range grouped {
		for _, e := range list {
			assert.Equal(t, k, DateKey(e.Date))
			seen[e.ID]++
		}
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 1, 3: 1}, seen)
}

func TestGroupByDateIgnoresUnrequestedDays(t *testing.T) {
	grouped := GroupByDate([]Entry{{ID: 1, Date: day("2024-03-09")}}, []string{"2024-03-08"})
	assert.Equal(t, map[string][]Entry{"2024-03-08": {}}, grouped)
}

func TestWeekDateKeys(t *testing.T) {
	wednesday := time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC)

	assert.Equal(t,
		[]string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"},
		WeekDateKeys(wednesday, nil))

	assert.Equal(t,
		[]string{"2024-03-09", "2024-03-10"},
		WeekDateKeys(wednesday, []int{6, 7}))

	sunday := day("2024-03-10")
	start, end := WeekRange(sunday)
	assert.Equal(t, "2024-03-04", DateKey(start))
	assert.Equal(t, "2024-03-10", DateKey(end))
}

func TestNormalizeDateKeepsCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	local := time.Date(2024, 3, 4, 6, 0, 0, 0, loc) // 2024-03-03T20:00Z
	assert.Equal(t, "2024-03-04", DateKey(NormalizeDate(local)))
}

func TestSummarize(t *testing.T) {
	projects := []Project{{ID: 1, Title: "North Metro"}, {ID: 2, Title: "South Loop"}}
	workOrders := []WorkOrder{
		{ID: 10, ProjectID: 1, Type: WorkOrderValidation},
		{ID: 11, ProjectID: 1, Type: WorkOrderInternalDesign},
		{ID: 20, ProjectID: 2, Type: WorkOrderValidation},
		{ID: 21, ProjectID: 2, Type: WorkOrderInternalDesign},
		{ID: 30, ProjectID: 3, Type: WorkOrderValidation},
	}
	entries := []Entry{
		{WorkOrderID: 10, Hours: 2},
		{WorkOrderID: 10, Hours: 1.5},
		{WorkOrderID: 11, Hours: 3},
		{WorkOrderID: 21, Hours: 4},
		{WorkOrderID: 30, Hours: 9},
	}

	s := Summarize(projects, workOrders, entries)

	require.Len(t, s.Projects, 2)
	first := s.Projects[0]
	assert.Equal(t, 3.5, first.ValidationHours)
	assert.Equal(t, 3.0, first.DesignHours)
	assert.Equal(t, 6.5, first.TotalHours)
	require.Len(t, first.WorkOrders, 2)
	assert.Equal(t, 3.5, first.WorkOrders[0].TotalHours)

	second := s.Projects[1]
	assert.Equal(t, 0.0, second.ValidationHours)
	assert.Equal(t, 4.0, second.TotalHours)

	var sum float64
	for _, p := range s.Projects {
		assert.Equal(t, p.ValidationHours+p.DesignHours, p.TotalHours)
		sum += p.TotalHours
	}
	assert.Equal(t, 10.5, sum)
	assert.Equal(t, 10.5, s.Totals.TotalHours)
	assert.Equal(t, 3.5, s.Totals.ValidationHours)
}
