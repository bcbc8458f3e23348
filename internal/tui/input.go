package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type inputModel struct {
	textarea textarea.Model
	dateInfo string
	width    int
	height   int
}

func newInputModel(dateInfo string, prefill string) inputModel {
	ta := textarea.New()
	ta.Placeholder = "e.g. Worked on PRJ-2024-0001 validation from 9 to 11:30"
	ta.Focus()
	ta.CharLimit = 500
	ta.SetWidth(60)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	if prefill != "" {
		ta.SetValue(prefill)
	}

	return inputModel{
		textarea: ta,
		dateInfo: dateInfo,
	}
}

func (m inputModel) Update(msg tea.Msg) (inputModel, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		if ws.Width > 4 && ws.Width < 64 {
			m.textarea.SetWidth(ws.Width - 4)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m inputModel) View(suggestionsFocused bool) string {
	header := titleStyle.Render("timepulse · Log time")
	dateLabel := subtitleStyle.Render(m.dateInfo)
	help := helpStyle.Render("Enter: parse • Tab: suggestions • Ctrl+C: cancel")
	if suggestionsFocused {
		help = helpStyle.Render("Tab: back to prompt • Esc: cancel")
	}

	return header + "\n" + dateLabel + "\n" + m.textarea.View() + "\n" + help
}

func (m inputModel) Value() string {
	return m.textarea.Value()
}
