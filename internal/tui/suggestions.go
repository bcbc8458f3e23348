package tui

import (
	"fmt"
	"strings"

	"github.com/christopherklint97/timepulse/internal/parser"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

type suggestionsModel struct {
	items   []timesheet.Suggestion
	cursor  int
	focused bool
}

func newSuggestionsModel(items []timesheet.Suggestion) suggestionsModel {
	return suggestionsModel{items: items}
}

func (m *suggestionsModel) Len() int { return len(m.items) }

func (m *suggestionsModel) Up() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *suggestionsModel) Down() {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

func (m suggestionsModel) Selected() (timesheet.Suggestion, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return timesheet.Suggestion{}, false
	}
	return m.items[m.cursor], true
}

func (m suggestionsModel) View() string {
	if len(m.items) == 0 {
		return dimStyle.Render("No suggestions yet. Recurring work from the last 30 days shows up here.")
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Suggestions"))
	sb.WriteString("\n")

	for i, s := range m.items {
		prefix := "  "
		if m.focused && i == m.cursor {
			prefix = "> "
		}

		clock := ""
		if s.StartTime != "" && s.EndTime != "" {
			clock = s.StartTime + "–" + s.EndTime
		}
		line := fmt.Sprintf("%s%-28s  %-15s  %5.2fh  %-11s  %s",
			prefix,
			s.ProjectTitle,
			s.WorkOrderType.Label(),
			s.Hours,
			clock,
			dimStyle.Render(fmt.Sprintf("×%d", s.Frequency)),
		)

		if m.focused && i == m.cursor {
			line = highlightStyle.Render(line)
		}

		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return boxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func previewBox(c *parser.Candidate) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Parsed entry"))
	sb.WriteString("\n")

	rows := [][2]string{
		{"Project", c.Project.Title + " (" + c.Project.ReferenceNumber + ")"},
		{"Work order", c.WorkOrder.Identifier + " · " + c.WorkType.Label()},
		{"Date", c.Date.Format("Monday, January 2 2006")},
		{"Hours", fmt.Sprintf("%.2f", c.Hours)},
	}
	if c.StartTime != "" && c.EndTime != "" {
		rows = append(rows, [2]string{"Time", c.StartTime + "–" + c.EndTime})
	}
	if c.Description != "" {
		rows = append(rows, [2]string{"Description", c.Description})
	}
	for _, r := range rows {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", r[0])))
		sb.WriteString(r[1])
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("[a]ccept • [r]etry • [s]kip"))

	return boxStyle.Render(sb.String())
}
