package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/timepulse/internal/parser"
	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

const requestTimeout = 10 * time.Second

// Backend is what the entry screen needs from the application layer.
type Backend interface {
	ParsePrompt(ctx context.Context, prompt string) (*parser.Candidate, error)
	LogCandidate(ctx context.Context, userID int64, c *parser.Candidate) (*service.PromptResult, error)
	CreateEntry(ctx context.Context, e timesheet.Entry) (*timesheet.Entry, error)
	Suggestions(ctx context.Context, userID int64, limit int) []timesheet.Suggestion
}

type viewState int

const (
	inputView viewState = iota
	loadingView
	previewView
	confirmationView
)

type Result struct {
	Skipped bool
	Entry   *timesheet.Entry
	Message string
}

type parsedMsg struct {
	candidate *parser.Candidate
	err       error
}

type savedMsg struct {
	entry   *timesheet.Entry
	message string
	err     error
}

type App struct {
	state       viewState
	input       inputModel
	spinner     spinner.Model
	suggestions suggestionsModel
	preview     *parser.Candidate
	result      *Result
	errMsg      string
	// warnMsg is a recoverable problem shown above the prompt.
	warnMsg string

	// queue holds the prompts still to come after the current one.
	queue    []string
	position int
	total    int

	backend Backend
	userID  int64
	date    time.Time
}

// NewApp builds the entry screen for userID. Suggestions are logged on date.
// Each prompt seeds the input in turn, for example one per calendar event,
// and is parsed and logged on its own.
func NewApp(backend Backend, userID int64, date time.Time, prompts ...string) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	a := &App{
		state:       inputView,
		spinner:     s,
		suggestions: newSuggestionsModel(backend.Suggestions(ctx, userID, timesheet.DisplayLimit)),
		total:       len(prompts),
		backend:     backend,
		userID:      userID,
		date:        date,
	}
	first := ""
	if len(prompts) > 0 {
		first, a.queue = prompts[0], prompts[1:]
	}
	a.input = newInputModel(a.label(), first)
	return a
}

func (a *App) label() string {
	l := a.date.Format("Monday, January 2")
	if a.total > 1 {
		l += fmt.Sprintf(" · event %d of %d", a.position+1, a.total)
	}
	return l
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.input.textarea.Focus(), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsMsg, ok := msg.(tea.WindowSizeMsg); ok {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(wsMsg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.result = &Result{Skipped: true}
			return a, tea.Quit
		}
	case parsedMsg:
		return a.handleParsed(msg)
	case savedMsg:
		return a.handleSaved(msg)
	}

	switch a.state {
	case inputView:
		return a.updateInput(msg)
	case loadingView:
		return a.updateLoading(msg)
	case previewView:
		return a.updatePreview(msg)
	case confirmationView:
		return a.updateConfirmation(msg)
	}

	return a, nil
}

func (a *App) View() string {
	switch a.state {
	case inputView:
		v := a.input.View(a.suggestions.focused)
		if a.warnMsg != "" {
			v = warningStyle.Render(a.warnMsg) + "\n\n" + v
		}
		return v + "\n\n" + a.suggestions.View()
	case loadingView:
		return a.spinner.View() + " Parsing..."
	case previewView:
		return previewBox(a.preview)
	case confirmationView:
		if a.errMsg != "" {
			return errorStyle.Render("Error: ") + a.errMsg + "\n\n" + helpStyle.Render("Press any key to exit")
		}
		help := "Press any key to exit"
		if len(a.queue) > 0 {
			help = fmt.Sprintf("Press any key for the next event (%d left)", len(a.queue))
		}
		return successStyle.Render(a.result.Message) + "\n\n" + helpStyle.Render(help)
	}
	return ""
}

func (a *App) GetResult() *Result {
	return a.result
}

func (a *App) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)

	if isKey && keyMsg.String() == "tab" && a.suggestions.Len() > 0 {
		a.suggestions.focused = !a.suggestions.focused
		if a.suggestions.focused {
			a.input.textarea.Blur()
			return a, nil
		}
		return a, a.input.textarea.Focus()
	}

	if a.suggestions.focused {
		if !isKey {
			return a, nil
		}
		switch keyMsg.String() {
		case "up", "k":
			a.suggestions.Up()
		case "down", "j":
			a.suggestions.Down()
		case "enter":
			if s, ok := a.suggestions.Selected(); ok {
				a.state = loadingView
				return a, tea.Batch(a.spinner.Tick, a.logSuggestion(s))
			}
		case "esc":
			a.result = &Result{Skipped: true}
			return a, tea.Quit
		}
		return a, nil
	}

	if isKey && keyMsg.String() == "enter" && a.input.Value() != "" {
		a.warnMsg = ""
		a.state = loadingView
		return a, tea.Batch(a.spinner.Tick, a.parse(a.input.Value()))
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.spinner, cmd = a.spinner.Update(msg)
	return a, cmd
}

func (a *App) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "a", "enter":
			a.state = loadingView
			return a, tea.Batch(a.spinner.Tick, a.logCandidate(a.preview))
		case "r":
			return a, a.retry()
		case "s":
			a.result = &Result{Skipped: true}
			if len(a.queue) > 0 {
				return a, a.next()
			}
			return a, tea.Quit
		}
	}
	return a, nil
}

func (a *App) updateConfirmation(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		if a.errMsg == "" && len(a.queue) > 0 {
			return a, a.next()
		}
		return a, tea.Quit
	}
	return a, nil
}

// next moves on to the following queued prompt.
func (a *App) next() tea.Cmd {
	prompt := a.queue[0]
	a.queue = a.queue[1:]
	a.position++
	a.state = inputView
	a.preview = nil
	a.warnMsg = ""
	newInput := newInputModel(a.label(), prompt)
	newInput, _ = newInput.Update(tea.WindowSizeMsg{Width: a.input.width, Height: a.input.height})
	a.input = newInput
	return a.input.textarea.Focus()
}

// retry returns to the prompt with the previous text kept for editing.
func (a *App) retry() tea.Cmd {
	a.state = inputView
	a.preview = nil
	newInput := newInputModel(a.input.dateInfo, a.input.Value())
	newInput, _ = newInput.Update(tea.WindowSizeMsg{Width: a.input.width, Height: a.input.height})
	a.input = newInput
	return a.input.textarea.Focus()
}

func (a *App) handleParsed(msg parsedMsg) (tea.Model, tea.Cmd) {
	var failure *parser.Failure
	switch {
	case errors.As(msg.err, &failure):
		a.warnMsg = failure.Message
		return a, a.retry()
	case msg.err != nil:
		a.state = confirmationView
		a.errMsg = msg.err.Error()
		return a, nil
	}

	a.preview = msg.candidate
	a.state = previewView
	return a, nil
}

func (a *App) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.state = confirmationView
		a.errMsg = msg.err.Error()
		return a, nil
	}

	a.result = &Result{Entry: msg.entry, Message: msg.message}
	a.state = confirmationView
	return a, nil
}

func (a *App) parse(prompt string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		c, err := a.backend.ParsePrompt(ctx, prompt)
		return parsedMsg{candidate: c, err: err}
	}
}

func (a *App) logCandidate(c *parser.Candidate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res, err := a.backend.LogCandidate(ctx, a.userID, c)
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{entry: res.Entry, message: res.Message}
	}
}

func (a *App) logSuggestion(s timesheet.Suggestion) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		e, err := a.backend.CreateEntry(ctx, s.Entry(a.userID, a.date))
		if err != nil {
			return savedMsg{err: err}
		}
		msg := fmt.Sprintf("Logged %.2f hours for %s on %s.", e.Hours, s.ProjectTitle, e.Date.Format("Monday, January 2"))
		return savedMsg{entry: e, message: msg}
	}
}
