// Package tui renders the SSH admin console. It lists local accounts,
// shows follow suggestions for the selected account and offers a ranked
// account search prompt.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
	"github.com/deemkeen/anancus/search"
	"github.com/deemkeen/anancus/suggest"
	"github.com/deemkeen/anancus/util"
)

const (
	opTimeout      = 3 * time.Second
	suggestionSize = 5
	searchSize     = 10
)

// Deps carries the application services the console talks to.
type Deps struct {
	Db     *db.DB
	Engine *suggest.Engine
	Ranker *search.Ranker
}

type accountsLoadedMsg []domain.Account
type suggestionsMsg []domain.Account
type searchDoneMsg []search.RankedAccount
type opErrMsg struct{ err error }

type Model struct {
	deps Deps

	accounts    []domain.Account
	suggestions []domain.Account
	results     []search.RankedAccount

	input     textinput.Model
	searching bool

	cursor int
	width  int
	height int

	errText string
}

func NewModel(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "search accounts"
	ti.CharLimit = 64
	ti.Width = 40
	return Model{deps: deps, input: ti}
}

func (m Model) Init() tea.Cmd {
	return m.loadAccounts
}

func (m Model) loadAccounts() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	accounts, err := m.deps.Db.ListLocalAccounts(ctx)
	if err != nil {
		return opErrMsg{err}
	}
	return accountsLoadedMsg(accounts)
}

func (m Model) loadSuggestions(accountId int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		accounts, err := m.deps.Engine.Suggest(ctx, accountId, suggestionSize, 0, nil)
		if err != nil {
			return opErrMsg{err}
		}
		return suggestionsMsg(accounts)
	}
}

func (m Model) runSearch(terms string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		results, err := m.deps.Ranker.Search(ctx, terms, searchSize)
		if err != nil {
			return opErrMsg{err}
		}
		return searchDoneMsg(results)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case accountsLoadedMsg:
		m.accounts = msg
		if m.cursor >= len(m.accounts) {
			m.cursor = 0
		}
		return m, nil

	case suggestionsMsg:
		m.suggestions = msg
		m.errText = ""
		return m, nil

	case searchDoneMsg:
		m.results = msg
		m.errText = ""
		return m, nil

	case opErrMsg:
		m.errText = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.input.Blur()
		m.results = nil
		return m, nil
	case "enter":
		terms := util.NormalizeInput(m.input.Value())
		if terms == "" {
			return m, nil
		}
		return m, m.runSearch(terms)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.accounts)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if len(m.accounts) == 0 {
			return m, nil
		}
		return m, m.loadSuggestions(m.accounts[m.cursor].Id)
	case "r":
		return m, m.loadAccounts
	case "/":
		m.searching = true
		m.input.SetValue("")
		m.results = nil
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(captionStyle.Render(util.GetNameAndVersion() + " admin"))
	b.WriteString("\n")

	if m.searching {
		b.WriteString(rowStyle.Render(m.input.View()))
		b.WriteString("\n\n")
		if len(m.results) == 0 {
			b.WriteString(rowStyle.Render(emptyStyle.Render("no results")))
			b.WriteString("\n")
		}
		for _, r := range m.results {
			line := fmt.Sprintf("%-30s %s", r.Account.Acct(), statusStyle.Render(fmt.Sprintf("%.2f", r.Score)))
			b.WriteString(rowStyle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: search • esc: back • ctrl+c: quit"))
		return m.withError(b.String())
	}

	if len(m.accounts) == 0 {
		b.WriteString(rowStyle.Render(emptyStyle.Render("no local accounts yet")))
		b.WriteString("\n")
	}
	for i, acc := range m.accounts {
		line := fmt.Sprintf("%-30s statuses: %d  followers: %d", acc.Acct(), acc.StatusesCount, acc.FollowersCount)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(rowStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if len(m.suggestions) > 0 {
		b.WriteString(captionStyle.Render("suggested follows"))
		b.WriteString("\n")
		for _, acc := range m.suggestions {
			b.WriteString(rowStyle.Render(acc.Acct()))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: suggestions • /: search • r: reload • q: quit"))
	return m.withError(b.String())
}

func (m Model) withError(view string) string {
	if m.errText == "" {
		return view
	}
	return view + "\n" + rowStyle.Render(errorStyle.Render(m.errText))
}
