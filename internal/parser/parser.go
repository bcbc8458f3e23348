package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/christopherklint97/timepulse/internal/timesheet"
)

// Registry is the parser's view of the project registry.
type Registry interface {
	GetProjects(ctx context.Context) ([]timesheet.Project, error)
	GetWorkOrders(ctx context.Context, projectID int64) ([]timesheet.WorkOrder, error)
}

// Failure reasons.
const (
	ReasonNoProject   = "no_project"
	ReasonNoWorkType  = "no_work_type"
	ReasonNoDuration  = "no_duration"
	ReasonNoWorkOrder = "no_work_order"
)

// Failure reports why a prompt could not be turned into an entry. Message is
// meant for the person who typed the prompt.
type Failure struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

// Candidate is a parsed but not yet persisted entry.
type Candidate struct {
	Project     timesheet.Project       `json:"project"`
	WorkOrder   timesheet.WorkOrder     `json:"workOrder"`
	WorkType    timesheet.WorkOrderType `json:"workType"`
	Date        time.Time               `json:"date"`
	Hours       float64                 `json:"hours"`
	StartTime   string                  `json:"startTime,omitempty"`
	EndTime     string                  `json:"endTime,omitempty"`
	Description string                  `json:"description,omitempty"`

	label string
}

// Entry converts the candidate into an entry owned by userID.
func (c *Candidate) Entry(userID int64) timesheet.Entry {
	return timesheet.Entry{
		UserID:      userID,
		WorkOrderID: c.WorkOrder.ID,
		Date:        c.Date,
		Hours:       c.Hours,
		StartTime:   c.StartTime,
		EndTime:     c.EndTime,
		Description: c.Description,
	}
}

// Message is the confirmation shown once the candidate has been logged.
func (c *Candidate) Message() string {
	msg := fmt.Sprintf("Successfully logged %.2f hours for %s (%s) on %s",
		c.Hours, c.label, strings.ToLower(c.WorkType.Label()), c.Date.Format("Monday, January 2"))
	if c.Description != "" {
		msg += " with description: " + c.Description
	}
	return msg + "."
}

// Parser turns free-text prompts into entry candidates.
type Parser struct {
	registry Registry
	logger   *slog.Logger
}

func New(registry Registry, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{registry: registry, logger: logger}
}

// Parse extracts an entry candidate from prompt. Relative dates resolve
// against now. A prompt that cannot be understood yields a *Failure.
func (p *Parser) Parse(ctx context.Context, prompt string, now time.Time) (*Candidate, error) {
	prompt = strings.TrimSpace(prompt)
	projects := p.projects(ctx)

	ref, ok := extractProject(prompt, projects)
	if !ok {
		return nil, &Failure{
			Reason:  ReasonNoProject,
			Message: "I couldn't find a project in your request. Include a project reference (like PRJ-2023-0001) or a project name.",
		}
	}

	workType, ok := extractWorkType(prompt)
	if !ok {
		return nil, &Failure{
			Reason:  ReasonNoWorkType,
			Message: "I couldn't tell the type of work. Mention either validation or internal design.",
		}
	}

	withoutProject := strings.Replace(strings.ToLower(prompt), ref.needle, " ", 1)
	dur, ok := extractDuration(withoutProject)
	if !ok {
		return nil, &Failure{
			Reason:  ReasonNoDuration,
			Message: "I couldn't work out how long you worked. Give a number of hours (like 3 hours) or a time range (like 9:00 to 11:30).",
		}
	}

	if dur.StartTime != "" && dur.Hours == 0 {
		p.logger.Warn("time range yields no hours", "start", dur.StartTime, "end", dur.EndTime)
	}

	c := &Candidate{
		WorkType:    workType,
		Date:        extractDate(prompt, now),
		Hours:       dur.Hours,
		StartTime:   dur.StartTime,
		EndTime:     dur.EndTime,
		Description: extractDescription(prompt, ref),
		label:       ref.label(),
	}

	if err := p.resolve(ctx, c, ref, projects); err != nil {
		return nil, err
	}

	p.logger.Debug("parsed prompt",
		"project", c.label,
		"work_type", string(c.WorkType),
		"hours", c.Hours,
		"date", timesheet.DateKey(c.Date))
	return c, nil
}

// ParseEvent builds a candidate from a calendar event. The summary names the
// project and the kind of work, and the event's start and end give the
// duration.
func (p *Parser) ParseEvent(ctx context.Context, summary string, start, end time.Time) (*Candidate, error) {
	projects := p.projects(ctx)

	ref, ok := extractProject(summary, projects)
	if !ok {
		return nil, &Failure{Reason: ReasonNoProject, Message: fmt.Sprintf("no project found in event %q", summary)}
	}
	workType, ok := extractWorkType(summary)
	if !ok {
		return nil, &Failure{Reason: ReasonNoWorkType, Message: fmt.Sprintf("no work type found in event %q", summary)}
	}
	lastInstant := end.Add(-time.Nanosecond).In(start.Location())
	if !end.After(start) || start.Format(timesheet.DateLayout) != lastInstant.Format(timesheet.DateLayout) {
		return nil, &Failure{Reason: ReasonNoDuration, Message: fmt.Sprintf("event %q does not fit within a single day", summary)}
	}

	c := &Candidate{
		WorkType:    workType,
		Date:        timesheet.NormalizeDate(start),
		Hours:       timesheet.Round2(end.Sub(start).Hours()),
		StartTime:   start.Format("15:04"),
		EndTime:     end.Format("15:04"),
		Description: extractDescription(summary, ref),
		label:       ref.label(),
	}
	if err := p.resolve(ctx, c, ref, projects); err != nil {
		return nil, err
	}
	return c, nil
}

// resolve finds the work order of the candidate's project and type.
func (p *Parser) resolve(ctx context.Context, c *Candidate, ref projectRef, projects []timesheet.Project) error {
	var project *timesheet.Project
	if ref.Project != nil {
		project = ref.Project
	} else {
		for i := range projects {
			if strings.EqualFold(projects[i].ReferenceNumber, ref.Reference) {
				project = &projects[i]
				break
			}
		}
	}

	notFound := &Failure{
		Reason:  ReasonNoWorkOrder,
		Message: fmt.Sprintf("I couldn't find a %s work order for project %s.", strings.ToLower(c.WorkType.Label()), c.label),
	}
	if project == nil {
		return notFound
	}

	workOrders, err := p.registry.GetWorkOrders(ctx, project.ID)
	if err != nil {
		p.logger.Warn("loading work orders", "project_id", project.ID, "error", err)
		return notFound
	}
	for _, wo := range workOrders {
		if wo.Type == c.WorkType {
			c.Project = *project
			c.WorkOrder = wo
			return nil
		}
	}
	return notFound
}

func (p *Parser) projects(ctx context.Context) []timesheet.Project {
	projects, err := p.registry.GetProjects(ctx)
	if err != nil {
		p.logger.Warn("loading projects", "error", err)
		return nil
	}
	return projects
}
