package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

const (
	TimesheetSheet = "Timesheet"
	SummarySheet   = "Summary"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var entryHeader = []string{
	"Date", "Project", "Reference", "Work order", "Type", "Start", "End", "Hours", "Break (min)", "Leave", "Description",
}

var summaryHeader = []string{"Date", "Logged hours", "Total hours", "Auto break", "Leave hours"}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// WeeklyWorkbook renders a week report as an .xlsx workbook: one row per
// entry on the Timesheet sheet and one row per day on the Summary sheet.
func WeeklyWorkbook(report *service.WeekReport) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(TimesheetSheet)
	if err != nil {
		return nil, "", fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, "", fmt.Errorf("creating sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	writeHeader := func(sheet string, header []string) {
		for i, h := range header {
			f.SetCellValue(sheet, cell(i+1, 1), h)
		}
		f.SetCellStyle(sheet, cell(1, 1), cell(len(header), 1), headerStyle)
	}

	writeHeader(TimesheetSheet, entryHeader)
	f.SetColWidth(TimesheetSheet, "A", "A", 12)
	f.SetColWidth(TimesheetSheet, "B", "D", 22)
	f.SetColWidth(TimesheetSheet, "K", "K", 40)

	row := 2
	for _, e := range report.Entries {
		identifier, typ := "", ""
		if e.WorkOrder != nil {
			identifier = e.WorkOrder.Identifier
			typ = e.WorkOrder.Type.Label()
		}
		leave := ""
		if e.IsLeave {
			leave = string(e.LeaveType)
		}
		values := []any{
			timesheet.DateKey(e.Date), e.ProjectTitle, e.ProjectReference, identifier, typ,
			e.StartTime, e.EndTime, e.Hours, e.BreakDuration, leave, e.Description,
		}
		for i, v := range values {
			f.SetCellValue(TimesheetSheet, cell(i+1, row), v)
		}
		row++
	}

	writeHeader(SummarySheet, summaryHeader)
	f.SetColWidth(SummarySheet, "A", "E", 14)

	row = 2
	for _, d := range report.Week.Days {
		autoBreak := "no"
		if d.AutoBreak {
			autoBreak = "yes"
		}
		values := []any{d.Date, d.RawHours, d.Total, autoBreak, d.LeaveHours}
		for i, v := range values {
			f.SetCellValue(SummarySheet, cell(i+1, row), v)
		}
		row++
	}
	f.SetCellValue(SummarySheet, cell(1, row), "Total")
	f.SetCellValue(SummarySheet, cell(3, row), report.Week.TotalHours)
	f.SetCellValue(SummarySheet, cell(5, row), report.Week.LeaveHours)
	f.SetCellStyle(SummarySheet, cell(1, row), cell(len(summaryHeader), row), totalStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("writing workbook: %w", err)
	}
	return buf, fmt.Sprintf("timesheet_%s.xlsx", report.Week.Start), nil
}
