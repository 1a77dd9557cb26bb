// package ui renders the leaderboard TUI for the top command.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/beating-app/beating/internal/analytics"
	"github.com/beating-app/beating/internal/models"
)

var _ list.Item = rankedItem{}

// rankedItem wraps [analytics.RankedItem] to implement [list.Item].
type rankedItem struct {
	rank int
	item analytics.RankedItem
}

func (i rankedItem) FilterValue() string { return i.item.Title }
func (i rankedItem) Title() string {
	return fmt.Sprintf("%d. %s — %s", i.rank, i.item.Title, i.item.Artist)
}
func (i rankedItem) Description() string {
	return fmt.Sprintf("%.1f/5 across %d review(s) · %s",
		i.item.AvgScore*5, i.item.ReviewCount, i.item.Excerpt)
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up   key.Binding
	down key.Binding
	tab  key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "songs/albums"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.tab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.tab, k.quit},
	}
}

type itemsFetchedMsg struct {
	kind  models.TargetKind
	items []analytics.RankedItem
	err   error
}

// Model represents the leaderboard TUI state.
type Model struct {
	ctx    context.Context
	engine *analytics.Engine
	kind   models.TargetKind
	limit  int
	list   list.Model
	help   help.Model
	keys   keyMap
	err    error
}

// NewModel creates a leaderboard Model starting on the song board.
func NewModel(ctx context.Context, engine *analytics.Engine, limit int) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = boardTitle(models.KindSong)
	l.SetShowHelp(false)

	return Model{
		ctx:    ctx,
		engine: engine,
		kind:   models.KindSong,
		limit:  limit,
		list:   l,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

func boardTitle(kind models.TargetKind) string {
	if kind == models.KindAlbum {
		return "Top albums"
	}
	return "Top songs"
}

// Init kicks off the first fetch.
func (m Model) Init() tea.Cmd {
	return m.fetch(m.kind)
}

func (m Model) fetch(kind models.TargetKind) tea.Cmd {
	return func() tea.Msg {
		items, err := m.engine.TopItems(m.ctx, kind, "", m.limit)
		return itemsFetchedMsg{kind: kind, items: items, err: err}
	}
}

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case itemsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.kind = msg.kind
		m.list.Title = boardTitle(msg.kind)

		items := make([]list.Item, len(msg.items))
		for i, item := range msg.items {
			items[i] = rankedItem{rank: i + 1, item: item}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.tab):
			next := models.KindAlbum
			if m.kind == models.KindAlbum {
				next = models.KindSong
			}
			return m, m.fetch(next)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the current board.
func (m Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("error: %v", m.err)) + "\n" + styles.help.Render(m.help.View(m.keys))
	}
	return m.list.View() + "\n" + styles.help.Render(m.help.View(m.keys))
}

// Run starts the TUI program and blocks until it exits.
func Run(ctx context.Context, engine *analytics.Engine, limit int) error {
	program := tea.NewProgram(NewModel(ctx, engine, limit), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
