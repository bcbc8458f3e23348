package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Manage projects",
	RunE:    runProjectsList,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects with their hours",
	RunE:  runProjectsList,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a project and its two work orders",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProjectsCreate,
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a project's fields or status",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsUpdate,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete projects with their work orders and entries",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProjectsDelete,
}

var projectsCommentCmd = &cobra.Command{
	Use:   "comment <id> <text>",
	Short: "Add a comment to a project's timeline",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runProjectsComment,
}

var projectsEventsCmd = &cobra.Command{
	Use:   "events <id>",
	Short: "Show a project's timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsEvents,
}

func init() {
	projectsCreateCmd.Flags().String("ref", "", "reference number (generated when empty)")
	projectsCreateCmd.Flags().String("form-code", "", "form code type")
	projectsCreateCmd.Flags().String("status", string(timesheet.StatusDraft), "initial status")
	projectsCreateCmd.Flags().String("notes", "", "free-form notes")

	projectsUpdateCmd.Flags().String("title", "", "new title")
	projectsUpdateCmd.Flags().String("ref", "", "new reference number")
	projectsUpdateCmd.Flags().String("form-code", "", "new form code type")
	projectsUpdateCmd.Flags().String("status", "", "new status: draft, in_progress, design_review or completed")
	projectsUpdateCmd.Flags().String("notes", "", "new notes")

	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsUpdateCmd, projectsDeleteCmd, projectsCommentCmd, projectsEventsCmd)
	rootCmd.AddCommand(projectsCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", s)
	}
	return id, nil
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	projects, err := a.svc.Projects(cmd.Context())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(stdout, "No projects yet. Create one with `timepulse projects create <title>`.")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.ReferenceNumber,
			p.Title,
			string(p.Status),
			hours(p.Hours.ValidationHours),
			hours(p.Hours.DesignHours),
			hours(p.Hours.TotalHours),
		})
	}
	fmt.Fprintln(stdout, renderTable([]string{"ID", "Reference", "Title", "Status", "Validation", "Design", "Total"}, rows))
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ref, _ := cmd.Flags().GetString("ref")
	formCode, _ := cmd.Flags().GetString("form-code")
	status, _ := cmd.Flags().GetString("status")
	notes, _ := cmd.Flags().GetString("notes")

	p, err := a.svc.CreateProject(cmd.Context(), a.userID, service.ProjectInput{
		Title:           strings.Join(args, " "),
		ReferenceNumber: ref,
		FormCodeType:    formCode,
		Status:          timesheet.ProjectStatus(status),
		Notes:           notes,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s %s (%s, id %d)\n", ok("Created"), p.Title, p.ReferenceNumber, p.ID)
	for _, wo := range p.WorkOrders {
		fmt.Fprintf(stdout, "  %s  %s\n", wo.Identifier, dim(wo.Type.Label()))
	}
	return nil
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var patch timesheet.ProjectPatch
	str := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	patch.Title = str("title")
	patch.ReferenceNumber = str("ref")
	patch.FormCodeType = str("form-code")
	patch.Notes = str("notes")
	if s := str("status"); s != nil {
		status := timesheet.ProjectStatus(*s)
		patch.Status = &status
	}
	if patch == (timesheet.ProjectPatch{}) {
		return fmt.Errorf("nothing to update: pass at least one of --title, --ref, --form-code, --status or --notes")
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.svc.UpdateProject(cmd.Context(), a.userID, id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %s (%s) is %s\n", ok("Updated"), p.Title, p.ReferenceNumber, p.Status)
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(ids) == 1 {
		if err := a.svc.DeleteProject(cmd.Context(), a.userID, ids[0]); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ok("Project deleted."))
		return nil
	}

	n, err := a.svc.BulkDeleteProjects(cmd.Context(), a.userID, ids)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, ok(fmt.Sprintf("Deleted %d of %d projects.", n, len(ids))))
	return nil
}

func runProjectsComment(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.svc.Comment(cmd.Context(), a.userID, id, strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintln(stdout, ok("Comment added."))
	return nil
}

func runProjectsEvents(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.svc.Events(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(stdout, "No events.")
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(stdout, "%s  %-13s  %s\n", dim(ev.CreatedAt.Local().Format("2006-01-02 15:04")), ev.Type, ev.Content)
	}
	return nil
}
