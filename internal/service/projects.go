package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/christopherklint97/timepulse/internal/store"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

var generatedReference = regexp.MustCompile(`^PRJ-(\d{4})-(\d{4})$`)

type ProjectInput struct {
	Title           string                  `json:"title"`
	ReferenceNumber string                  `json:"referenceNumber"`
	FormCodeType    string                  `json:"formCodeType"`
	Status          timesheet.ProjectStatus `json:"status"`
	Notes           string                  `json:"notes"`
}

type ProjectDetail struct {
	timesheet.ProjectSummary
	Events []timesheet.ProjectEvent `json:"events"`
}

func validateProject(p *timesheet.Project) error {
	p.Title = strings.TrimSpace(p.Title)
	p.ReferenceNumber = strings.TrimSpace(p.ReferenceNumber)
	if p.Title == "" {
		return invalid("title is required")
	}
	if p.ReferenceNumber == "" {
		return invalid("referenceNumber is required")
	}
	if p.Status == "" {
		p.Status = timesheet.StatusDraft
	}
	if !p.Status.Valid() {
		return invalid("unknown status %q", p.Status)
	}
	return nil
}

// nextReference picks the next free PRJ-<year>-NNNN number.
func (s *Service) nextReference(ctx context.Context) (string, error) {
	projects, err := s.store.GetProjects(ctx)
	if err != nil {
		return "", err
	}
	year := s.now().Year()
	highest := 0
	for _, p := range projects {
		m := generatedReference.FindStringSubmatch(strings.ToUpper(p.ReferenceNumber))
		if m == nil || m[1] != strconv.Itoa(year) {
			continue
		}
		if n, _ := strconv.Atoi(m[2]); n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("PRJ-%d-%04d", year, highest+1), nil
}

func (s *Service) CreateProject(ctx context.Context, actor int64, in ProjectInput) (*ProjectDetail, error) {
	p := timesheet.Project{
		Title:           in.Title,
		ReferenceNumber: in.ReferenceNumber,
		FormCodeType:    strings.TrimSpace(in.FormCodeType),
		Status:          in.Status,
		Notes:           strings.TrimSpace(in.Notes),
	}
	if strings.TrimSpace(p.ReferenceNumber) == "" {
		ref, err := s.nextReference(ctx)
		if err != nil {
			return nil, classify("generating reference number", err)
		}
		p.ReferenceNumber = ref
	}
	if err := validateProject(&p); err != nil {
		return nil, err
	}

	if err := s.store.CreateProject(ctx, &p, actor); err != nil {
		return nil, classify("creating project", err)
	}
	s.registry.Invalidate()
	s.logger.Info("project created", "id", p.ID, "reference", p.ReferenceNumber, "by", actor)
	return s.Project(ctx, p.ID)
}

func (s *Service) UpdateProject(ctx context.Context, actor, id int64, patch timesheet.ProjectPatch) (*ProjectDetail, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, classify("loading project", err)
	}
	patch.Apply(p)
	if err := validateProject(p); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProject(ctx, p, actor); err != nil {
		return nil, classify("updating project", err)
	}
	s.registry.Invalidate()
	return s.Project(ctx, id)
}

func (s *Service) DeleteProject(ctx context.Context, actor, id int64) error {
	if err := s.store.DeleteProject(ctx, id, actor); err != nil {
		return classify("deleting project", err)
	}
	s.registry.Invalidate()
	s.logger.Info("project deleted", "id", id, "by", actor)
	return nil
}

// BulkDeleteProjects deletes every listed project, skipping ids that do not
// exist, and reports how many were removed.
func (s *Service) BulkDeleteProjects(ctx context.Context, actor int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, invalid("projectIds must not be empty")
	}

	deleted := 0
	for _, id := range ids {
		err := s.store.DeleteProject(ctx, id, actor)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			s.registry.Invalidate()
			return deleted, classify("deleting projects", err)
		}
		deleted++
	}
	s.registry.Invalidate()
	s.logger.Info("projects deleted", "count", deleted, "requested", len(ids), "by", actor)
	return deleted, nil
}

// Projects lists every project with its work orders and hour totals.
func (s *Service) Projects(ctx context.Context) ([]timesheet.ProjectSummary, error) {
	projects, err := s.store.GetProjects(ctx)
	if err != nil {
		return nil, classify("listing projects", err)
	}
	wos, err := s.store.ListWorkOrders(ctx)
	if err != nil {
		return nil, classify("listing work orders", err)
	}

	var entries []timesheet.Entry
	for _, p := range projects {
		pe, err := s.store.GetTimesheetEntriesByProject(ctx, p.ID)
		if err != nil {
			return nil, classify("listing project entries", err)
		}
		entries = append(entries, pe...)
	}
	return timesheet.Summarize(projects, wos, entries).Projects, nil
}

// Project returns one project with work order hours and its timeline.
func (s *Service) Project(ctx context.Context, id int64) (*ProjectDetail, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, classify("loading project", err)
	}
	wos, err := s.store.GetWorkOrders(ctx, id)
	if err != nil {
		return nil, classify("loading work orders", err)
	}
	entries, err := s.store.GetTimesheetEntriesByProject(ctx, id)
	if err != nil {
		return nil, classify("loading project entries", err)
	}
	events, err := s.store.GetProjectEvents(ctx, id)
	if err != nil {
		return nil, classify("loading project events", err)
	}
	if events == nil {
		events = []timesheet.ProjectEvent{}
	}

	summary := timesheet.Summarize([]timesheet.Project{*p}, wos, entries)
	return &ProjectDetail{ProjectSummary: summary.Projects[0], Events: events}, nil
}

func (s *Service) WorkOrders(ctx context.Context, projectID int64) ([]timesheet.WorkOrderSummary, error) {
	detail, err := s.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return detail.WorkOrders, nil
}

func (s *Service) Events(ctx context.Context, projectID int64) ([]timesheet.ProjectEvent, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, classify("loading project", err)
	}
	events, err := s.store.GetProjectEvents(ctx, projectID)
	if err != nil {
		return nil, classify("loading project events", err)
	}
	if events == nil {
		events = []timesheet.ProjectEvent{}
	}
	return events, nil
}

// Comment adds a comment to a project's timeline.
func (s *Service) Comment(ctx context.Context, actor, projectID int64, content string) (*timesheet.ProjectEvent, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("comment must not be empty")
	}
	ev := &timesheet.ProjectEvent{
		ProjectID: projectID,
		Type:      timesheet.EventComment,
		Content:   content,
		CreatedBy: actor,
	}
	if err := s.store.CreateProjectEvent(ctx, ev); err != nil {
		return nil, classify("adding comment", err)
	}
	return ev, nil
}
