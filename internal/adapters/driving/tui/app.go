// Package tui provides the interactive search interface: a query
// input on top, search results below, keyboard navigation between
// them.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/riverfold/feedlens/internal/core/domain"
)

// QueryService answers semantic searches.
type QueryService interface {
	Query(ctx context.Context, query string, opts domain.QueryOptions) ([]domain.QueryResult, error)
}

// focus marks which pane receives key events.
type focus int

const (
	focusInput focus = iota
	focusResults
)

type resultsMsg struct {
	query   string
	results []domain.QueryResult
}

type errMsg struct {
	err error
}

// App is the bubbletea model for the search UI.
type App struct {
	query   QueryService
	input   textinput.Model
	styles  styles

	results   []domain.QueryResult
	lastQuery string
	selected  int
	focus     focus
	searching bool
	err       error

	width  int
	height int
}

// NewApp creates the search UI bound to a query service.
func NewApp(query QueryService) *App {
	ti := textinput.New()
	ti.Placeholder = "Search your articles..."
	ti.Focus()
	ti.CharLimit = 512

	return &App{
		query:  query,
		input:  ti,
		styles: defaultStyles(),
		focus:  focusInput,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case resultsMsg:
		a.searching = false
		a.err = nil
		a.lastQuery = msg.query
		a.results = msg.results
		a.selected = 0
		if len(a.results) > 0 {
			a.focus = focusResults
			a.input.Blur()
		}
		return a, nil

	case errMsg:
		a.searching = false
		a.err = msg.err
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "enter":
		if a.focus == focusInput {
			q := strings.TrimSpace(a.input.Value())
			if q == "" || a.searching {
				return a, nil
			}
			a.searching = true
			a.err = nil
			return a, a.search(q)
		}
		return a, nil

	case "esc":
		if a.focus == focusResults {
			a.focus = focusInput
			a.input.Focus()
			return a, textinput.Blink
		}
		a.input.SetValue("")
		return a, nil

	case "up", "k":
		if a.focus == focusResults && a.selected > 0 {
			a.selected--
			return a, nil
		}

	case "down", "j":
		if a.focus == focusResults && a.selected < len(a.results)-1 {
			a.selected++
			return a, nil
		}

	case "q":
		if a.focus == focusResults {
			return a, tea.Quit
		}

	case "tab":
		if a.focus == focusInput && len(a.results) > 0 {
			a.focus = focusResults
			a.input.Blur()
		} else if a.focus == focusResults {
			a.focus = focusInput
			a.input.Focus()
			return a, textinput.Blink
		}
		return a, nil
	}

	if a.focus == focusInput {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

// search runs the query off the update loop.
func (a *App) search(query string) tea.Cmd {
	return func() tea.Msg {
		results, err := a.query.Query(context.Background(), query, domain.QueryOptions{})
		if err != nil {
			return errMsg{err: err}
		}
		return resultsMsg{query: query, results: results}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.title.Render("feedlens"))
	b.WriteString("\n\n")
	b.WriteString(a.input.View())
	b.WriteString("\n\n")

	switch {
	case a.err != nil:
		b.WriteString(a.styles.errText.Render("Error: " + a.err.Error()))
	case a.searching:
		b.WriteString(a.styles.muted.Render("Searching..."))
	case a.lastQuery != "" && len(a.results) == 0:
		b.WriteString(a.styles.muted.Render(fmt.Sprintf("No results for %q.", a.lastQuery)))
	default:
		b.WriteString(a.renderResults())
	}

	b.WriteString("\n\n")
	b.WriteString(a.styles.muted.Render(a.helpLine()))
	return b.String()
}

func (a *App) renderResults() string {
	if len(a.results) == 0 {
		return a.styles.muted.Render("Type a query and press Enter.")
	}

	var b strings.Builder
	for i, r := range a.results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		header := fmt.Sprintf("[%d] %s", i+1, title)
		if r.FeedName != "" {
			header += a.styles.muted.Render("  — " + r.FeedName)
		}

		snippet := a.snippet(r.Chunk)
		if i == a.selected && a.focus == focusResults {
			b.WriteString(a.styles.selected.Render(header))
		} else {
			b.WriteString(a.styles.result.Render(header))
		}
		b.WriteString("\n")
		b.WriteString(a.styles.snippet.Render(snippet))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// snippet trims a chunk to a single display line.
func (a *App) snippet(chunk string) string {
	max := a.width - 6
	if max < 20 {
		max = 20
	}
	runes := []rune(chunk)
	if len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return chunk
}

func (a *App) helpLine() string {
	if a.focus == focusResults {
		return "↑/↓ navigate • esc back to input • q quit"
	}
	return "enter search • tab results • ctrl+c quit"
}

// styles groups the lipgloss styles used by the UI.
type styles struct {
	title    lipgloss.Style
	result   lipgloss.Style
	selected lipgloss.Style
	snippet  lipgloss.Style
	muted    lipgloss.Style
	errText  lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		result:   lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		snippet:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).PaddingLeft(4),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}
