package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

func TestWeeklyWorkbook(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	wo := &timesheet.WorkOrder{ID: 1, Type: timesheet.WorkOrderValidation, Identifier: "VALID-PRJ-2024-0001"}
	entries := []service.EntryDetail{
		{Entry: timesheet.Entry{ID: 1, Date: monday, Hours: 3, Description: "site walk"}, WorkOrder: wo,
			ProjectTitle: "North Metro", ProjectReference: "PRJ-2024-0001"},
		{Entry: timesheet.Entry{ID: 2, Date: monday, Hours: 2, StartTime: "13:00", EndTime: "15:00"}, WorkOrder: wo,
			ProjectTitle: "North Metro", ProjectReference: "PRJ-2024-0001"},
		{Entry: timesheet.Entry{ID: 3, Date: monday.AddDate(0, 0, 1), IsLeave: true, LeaveType: timesheet.LeaveFullDay}},
	}
	report := &service.WeekReport{
		Week: &service.WeekView{
			Start: "2024-03-04",
			End:   "2024-03-10",
			Days: []timesheet.DaySummary{
				{Date: "2024-03-04", RawHours: 5, Total: 4.5, AutoBreak: true},
				{Date: "2024-03-05", LeaveHours: 8},
			},
			TotalHours: 4.5,
			LeaveHours: 8,
		},
		Entries: entries,
	}

	buf, name, err := WeeklyWorkbook(report)
	require.NoError(t, err)
	assert.Equal(t, "timesheet_2024-03-04.xlsx", name)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TimesheetSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(TimesheetSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1+len(entries))
	assert.Equal(t, entryHeader, rows[0])
	assert.Equal(t, "2024-03-04", rows[1][0])
	assert.Equal(t, "North Metro", rows[1][1])
	assert.Equal(t, "VALID-PRJ-2024-0001", rows[1][3])
	assert.Equal(t, "Validation", rows[1][4])
	assert.Equal(t, "site walk", rows[1][10])
	assert.Equal(t, "13:00", rows[2][5])
	assert.Equal(t, "full-day", rows[3][9])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, "yes", summary[1][3])
	assert.Equal(t, "4.5", summary[1][2])
	assert.Equal(t, "Total", summary[3][0])
}
