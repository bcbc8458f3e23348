package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/timepulse/internal/calendar"
	"github.com/christopherklint97/timepulse/internal/timesheet"
	"github.com/christopherklint97/timepulse/internal/tui"
)

var logCmd = &cobra.Command{
	Use:   "log [prompt...]",
	Short: "Log time from a sentence, or interactively without one",
	Long: `Log time from a sentence such as

  timepulse log Worked on PRJ-2024-0001 validation from 9 to 11:30

Without a prompt an interactive screen opens with your recurring work as
suggestions.`,
	RunE: runLog,
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the timesheet for a week",
	RunE:  runWeek,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Show quick-fill suggestions from recurring work",
	RunE:  runSuggest,
}

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Change, delete and restore timesheet entries",
}

var entryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryUpdate,
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry (it can be restored)",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryDelete,
}

var entryRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a deleted entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryRestore,
}

var entryDeletedCmd = &cobra.Command{
	Use:   "deleted",
	Short: "List deleted entries",
	RunE:  runEntryDeleted,
}

func init() {
	logCmd.Flags().Bool("dry-run", false, "parse and show the entry without saving it")
	logCmd.Flags().Bool("calendar", false, "step through today's calendar events, one prompt per event")

	weekCmd.Flags().String("date", "", `any day of the week, e.g. 2024-03-06 or "last friday"`)
	weekCmd.Flags().Bool("json", false, "print JSON")

	suggestCmd.Flags().Int("limit", timesheet.DisplayLimit, "maximum number of suggestions")

	entryUpdateCmd.Flags().String("date", "", "new date")
	entryUpdateCmd.Flags().Float64("hours", 0, "new hours (ignored when a start and end time are set)")
	entryUpdateCmd.Flags().String("start", "", "new start time HH:MM")
	entryUpdateCmd.Flags().String("end", "", "new end time HH:MM")
	entryUpdateCmd.Flags().String("description", "", "new description")
	entryUpdateCmd.Flags().Int("break", 0, "break taken, in minutes (0 clears it)")

	entryCmd.AddCommand(entryUpdateCmd, entryDeleteCmd, entryRestoreCmd, entryDeletedCmd)
	rootCmd.AddCommand(logCmd, weekCmd, suggestCmd, entryCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	prompt := strings.TrimSpace(strings.Join(args, " "))

	if prompt == "" {
		var prompts []string
		if useCal, _ := cmd.Flags().GetBool("calendar"); useCal {
			prompts = todaysEvents(cmd, a)
		}

		app := tui.NewApp(a.svc, a.userID, time.Now(), prompts...)
		p := tea.NewProgram(app)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		if result := app.GetResult(); result != nil && result.Skipped {
			fmt.Fprintln(stdout, "Entry skipped.")
		}
		return nil
	}

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		c, err := a.svc.ParsePrompt(ctx, prompt)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Would log %s hours for %s (%s) on %s\n",
			hours(c.Hours), c.Project.Title, c.WorkOrder.Identifier, c.Date.Format("Monday, January 2"))
		return nil
	}

	res, err := a.svc.LogPrompt(ctx, a.userID, prompt)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, ok(res.Message))
	return nil
}

// todaysEvents returns one prompt per timed event on today's calendar.
func todaysEvents(cmd *cobra.Command, a *app) []string {
	if a.cfg.Calendar.Source == "" {
		fmt.Fprintln(stdout, dim("No calendar configured; set calendar.source to an ICS URL or file."))
		return nil
	}
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	events, err := calendar.Fetch(cmd.Context(), a.cfg.Calendar.Source, start, start.AddDate(0, 0, 1))
	if err != nil {
		a.logger.Warn("fetching calendar", "error", err)
		return nil
	}
	return calendar.PrefillPrompts(events)
}

func runWeek(cmd *cobra.Command, args []string) error {
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
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(stdout, report)
	}

	week := report.Week
	fmt.Fprintln(stdout, heading(fmt.Sprintf("Week of %s to %s", week.Start, week.End)))

	byDay := make(map[string][]string)
	for _, e := range report.Entries {
		label := e.ProjectTitle
		if e.WorkOrder != nil {
			label += " · " + e.WorkOrder.Type.Label()
		}
		byDay[timesheet.DateKey(e.Date)] = append(byDay[timesheet.DateKey(e.Date)], label)
	}

	rows := make([][]string, 0, len(week.Days))
	for _, d := range week.Days {
		date, _ := timesheet.ParseDateKey(d.Date)
		note := ""
		if d.AutoBreak {
			note = "−0.5 break"
		}
		if d.LeaveHours > 0 {
			note = strings.TrimSpace(note + " leave " + hours(d.LeaveHours))
		}
		rows = append(rows, []string{
			date.Format("Mon 02 Jan"),
			hours(d.RawHours),
			hours(d.Total),
			note,
			strings.Join(byDay[d.Date], ", "),
		})
	}
	fmt.Fprintln(stdout, renderTable([]string{"Day", "Logged", "Total", "", "Work"}, rows))
	fmt.Fprintf(stdout, "Total %s of %s target hours", hours(week.TotalHours), hours(week.TargetHours))
	if week.LeaveHours > 0 {
		fmt.Fprintf(stdout, ", %s leave", hours(week.LeaveHours))
	}
	fmt.Fprintln(stdout)
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	suggestions := a.svc.Suggestions(cmd.Context(), a.userID, limit)
	if len(suggestions) == 0 {
		fmt.Fprintln(stdout, "No suggestions. Work logged at least twice in the last 30 days shows up here.")
		return nil
	}

	rows := make([][]string, 0, len(suggestions))
	for i, s := range suggestions {
		clock := ""
		if s.StartTime != "" {
			clock = s.StartTime + "–" + s.EndTime
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.ProjectTitle,
			s.WorkOrderType.Label(),
			hours(s.Hours),
			clock,
			strconv.Itoa(s.Frequency),
			timesheet.DateKey(s.LastUsed),
			s.Description,
		})
	}
	fmt.Fprintln(stdout, renderTable([]string{"#", "Project", "Type", "Hours", "Time", "Times", "Last used", "Description"}, rows))
	return nil
}

func runEntryUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var patch timesheet.EntryPatch
	flags := cmd.Flags()
	if flags.Changed("date") {
		d, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		patch.Date = &d
	}
	if flags.Changed("hours") {
		h, _ := flags.GetFloat64("hours")
		patch.Hours = &h
	}
	for name, dst := range map[string]**string{"start": &patch.StartTime, "end": &patch.EndTime, "description": &patch.Description} {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = &v
		}
	}
	if flags.Changed("break") {
		minutes, _ := flags.GetInt("break")
		taken := minutes > 0
		patch.BreakTaken = &taken
		patch.BreakDuration = &minutes
	}
	if patch == (timesheet.EntryPatch{}) {
		return fmt.Errorf("nothing to update")
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.svc.UpdateEntry(cmd.Context(), id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s entry %d: %s hours on %s\n", ok("Updated"), e.ID, hours(e.Hours), timesheet.DateKey(e.Date))
	return nil
}

func runEntryDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.svc.DeleteEntry(cmd.Context(), a.userID, id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Entry %d deleted. Undo with `timepulse entry restore %d`.\n", id, id)
	return nil
}

func runEntryRestore(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.svc.Restore(cmd.Context(), a.userID, timesheet.EntityTimesheet, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s entry %d (%s hours on %s)\n", ok("Restored"), e.ID, hours(e.Hours), timesheet.DateKey(e.Date))
	return nil
}

func runEntryDeleted(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.svc.DeletedEntries(cmd.Context(), a.userID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No deleted entries.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			timesheet.DateKey(e.Date),
			hours(e.Hours),
			e.Description,
		})
	}
	fmt.Fprintln(stdout, renderTable([]string{"ID", "Date", "Hours", "Description"}, rows))
	return nil
}
