package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverfold/feedlens/internal/core/domain"
)

type stubQueryService struct {
	results  []domain.QueryResult
	err      error
	gotQuery string
}

func (s *stubQueryService) Query(_ context.Context, query string, _ domain.QueryOptions) ([]domain.QueryResult, error) {
	s.gotQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func typeQuery(app *App, q string) {
	app.input.SetValue(q)
}

func pressKey(t *testing.T, app *App, key string) tea.Cmd {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	model, cmd := app.Update(msg)
	require.IsType(t, &App{}, model)
	return cmd
}

func TestAppSearchFlow(t *testing.T) {
	svc := &stubQueryService{results: []domain.QueryResult{
		{FeedName: "Go Blog", Title: "Alpha post", Chunk: "alpha content"},
		{FeedName: "World Report", Title: "Bravo post", Chunk: "bravo content"},
	}}
	app := NewApp(svc)

	typeQuery(app, "find alpha")
	cmd := pressKey(t, app, "enter")
	require.NotNil(t, cmd)
	assert.True(t, app.searching)

	// Run the search command and feed its message back, as the
	// bubbletea runtime would.
	msg := cmd()
	model, _ := app.Update(msg)
	app = model.(*App)

	assert.Equal(t, "find alpha", svc.gotQuery)
	assert.False(t, app.searching)
	assert.Len(t, app.results, 2)
	assert.Equal(t, focusResults, app.focus)

	view := app.View()
	assert.Contains(t, view, "Alpha post")
	assert.Contains(t, view, "Go Blog")
	assert.Contains(t, view, "Bravo post")
}

func TestAppEmptyQueryDoesNotSearch(t *testing.T) {
	app := NewApp(&stubQueryService{})
	typeQuery(app, "   ")
	cmd := pressKey(t, app, "enter")
	assert.Nil(t, cmd)
	assert.False(t, app.searching)
}

func TestAppResultNavigation(t *testing.T) {
	app := NewApp(&stubQueryService{})
	model, _ := app.Update(resultsMsg{query: "q", results: []domain.QueryResult{
		{Title: "one"}, {Title: "two"}, {Title: "three"},
	}})
	app = model.(*App)
	require.Equal(t, focusResults, app.focus)
	assert.Equal(t, 0, app.selected)

	pressKey(t, app, "down")
	assert.Equal(t, 1, app.selected)
	pressKey(t, app, "down")
	pressKey(t, app, "down")
	assert.Equal(t, 2, app.selected, "selection stops at the last result")

	pressKey(t, app, "up")
	assert.Equal(t, 1, app.selected)
}

func TestAppEscReturnsToInput(t *testing.T) {
	app := NewApp(&stubQueryService{})
	model, _ := app.Update(resultsMsg{query: "q", results: []domain.QueryResult{{Title: "one"}}})
	app = model.(*App)
	require.Equal(t, focusResults, app.focus)

	pressKey(t, app, "esc")
	assert.Equal(t, focusInput, app.focus)
}

func TestAppSearchErrorShown(t *testing.T) {
	svc := &stubQueryService{err: errors.New("store offline")}
	app := NewApp(svc)

	typeQuery(app, "anything")
	cmd := pressKey(t, app, "enter")
	require.NotNil(t, cmd)

	model, _ := app.Update(cmd())
	app = model.(*App)

	assert.Contains(t, app.View(), "store offline")
	assert.Empty(t, app.results)
}

func TestAppNoResultsMessage(t *testing.T) {
	app := NewApp(&stubQueryService{})
	model, _ := app.Update(resultsMsg{query: "nothing here", results: nil})
	app = model.(*App)

	assert.Contains(t, app.View(), "No results")
	assert.Equal(t, focusInput, app.focus)
}

func TestAppQuitKeys(t *testing.T) {
	app := NewApp(&stubQueryService{})
	cmd := pressKey(t, app, "ctrl+c")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	model, _ := app.Update(resultsMsg{query: "q", results: []domain.QueryResult{{Title: "one"}}})
	app = model.(*App)
	cmd = pressKey(t, app, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
