package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/timepulse/internal/calendar"
	"github.com/christopherklint97/timepulse/internal/export"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Weekly reports",
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Weekly hours, project counts and the validation/design split",
	RunE:  runReportSummary,
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a week's timesheet to an .xlsx workbook",
	RunE:  runReportExport,
}

var importCmd = &cobra.Command{
	Use:   "import <ics-url-or-file>",
	Short: "Create entries from calendar events",
	Long: `Create entries from the events of an iCalendar feed or file. An event is
imported when its title names a project and a work type, for example
"PRJ-2024-0001 validation walkthrough"; its duration becomes the hours.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	reportSummaryCmd.Flags().String("date", "", "any day of the week")
	reportSummaryCmd.Flags().Bool("json", false, "print JSON")

	reportExportCmd.Flags().String("date", "", "any day of the week")
	reportExportCmd.Flags().StringP("output", "o", "", "output file (default timesheet_<week start>.xlsx)")

	importCmd.Flags().String("from", "", "first day to import (default: Monday of this week)")
	importCmd.Flags().String("to", "", "last day to import (default: today)")
	importCmd.Flags().Bool("dry-run", false, "show what would be imported")

	reportCmd.AddCommand(reportSummaryCmd, reportExportCmd)
	rootCmd.AddCommand(reportCmd, importCmd)
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	anchor, err := dateFlag(cmd, "date")
	if err != nil {
		return err
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.svc.ReportSummary(cmd.Context(), a.userID, anchor)
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(stdout, r)
	}

	fmt.Fprintln(stdout, heading(fmt.Sprintf("Week of %s to %s", r.WeekStart, r.WeekEnd)))
	fmt.Fprintln(stdout, renderTable([]string{"", ""}, [][]string{
		{"Weekly hours", hours(r.WeeklyHours)},
		{"Validation hours", hours(r.ValidationHours)},
		{"Design hours", hours(r.DesignHours)},
		{"Active projects", fmt.Sprintf("%d of %d", r.ActiveProjects, r.TotalProjects)},
	}))
	return nil
}

func runReportExport(cmd *cobra.Command, args []string) error {
	anchor, err := dateFlag(cmd, "date")
	if err != nil {
		return err
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.svc.WeekReport(cmd.Context(), a.userID, anchor)
	if err != nil {
		return err
	}
	buf, name, err := export.WeeklyWorkbook(report)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	abs, _ := filepath.Abs(out)
	fmt.Fprintf(stdout, "%s %d entries to %s\n", ok("Exported"), len(report.Entries), abs)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	source := a.cfg.Calendar.Source
	if len(args) == 1 {
		source = args[0]
	}
	if source == "" {
		return fmt.Errorf("no calendar given: pass an ICS URL or file, or set calendar.source")
	}

	now := time.Now()
	weekStart, _ := timesheet.WeekRange(now)
	fromDefault := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.Local)

	from := fromDefault
	if raw, _ := cmd.Flags().GetString("from"); raw != "" {
		d, err := parseDate(raw, now)
		if err != nil {
			return err
		}
		from = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
	}
	to := now
	if raw, _ := cmd.Flags().GetString("to"); raw != "" {
		d, err := parseDate(raw, now)
		if err != nil {
			return err
		}
		to = d
	}
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)
	if !to.After(from) {
		return fmt.Errorf("--to must not be before --from")
	}

	events, err := calendar.Fetch(cmd.Context(), source, from, to)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, dim(fmt.Sprintf("%d events on %d days from %s", len(events), len(calendar.GroupByDay(events)), source)))

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	res, err := a.svc.ImportEvents(cmd.Context(), a.userID, events, dryRun)
	if err != nil {
		return err
	}

	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	for _, e := range res.Imported {
		fmt.Fprintf(stdout, "  %s  %s–%s  %sh  %s\n", timesheet.DateKey(e.Date), e.StartTime, e.EndTime, hours(e.Hours), e.Description)
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(stdout, "  %s %s: %s\n", dim("skipped"), s.Summary, dim(s.Reason))
	}
	fmt.Fprintf(stdout, "%s %d of %d events.\n", ok(verb), len(res.Imported), len(events))
	return nil
}
