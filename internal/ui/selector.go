package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/victorlunam/spcheck/internal/config"
)

var ErrSelectionCancelled = errors.New("server selection cancelled")

type Item struct {
	Value       string
	Description string
	Selected    bool
}

func (i Item) FilterValue() string { return i.Value }

type keyMap struct {
	Toggle key.Binding
	All    key.Binding
	Accept key.Binding
	Quit   key.Binding
	Help   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.All, k.Accept, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.All, k.Accept, k.Quit, k.Help},
	}
}

var keys = keyMap{
	Toggle: key.NewBinding(
		key.WithKeys("space", " "),
		key.WithHelp("space", "toggle server"),
	),
	All: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle all"),
	),
	Accept: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run selected"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
}

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(Item)
	if !ok {
		return
	}

	style := itemStyle
	checkbox := "[ ]"
	if i.Selected {
		checkbox = "[x]"
		style = selectedItemStyle
	}

	str := fmt.Sprintf("%s %s", checkbox, i.Value)
	if i.Description != "" && i.Description != i.Value {
		str += " " + descriptionStyle.Render(i.Description)
	}

	fn := style.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render(strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model is the interactive server picker.
type Model struct {
	List      list.Model
	keys      keyMap
	help      help.Model
	quitting  bool
	cancelled bool
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.List.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Accept):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			i, ok := m.List.SelectedItem().(Item)
			if ok {
				i.Selected = !i.Selected
				m.List.SetItem(m.List.Index(), i)
			}
			return m, nil
		case key.Matches(msg, m.keys.All):
			m.toggleAll()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

// toggleAll selects every server, or clears the selection when all are
// already selected.
func (m *Model) toggleAll() {
	items := m.List.Items()
	all := len(m.SelectedValues()) == len(items)

	for idx, it := range items {
		if i, ok := it.(Item); ok {
			i.Selected = !all
			m.List.SetItem(idx, i)
		}
	}
}

// SelectedValues returns the ids of the selected servers in list order.
func (m Model) SelectedValues() []string {
	selected := []string{}
	for _, it := range m.List.Items() {
		if i, ok := it.(Item); ok && i.Selected {
			selected = append(selected, i.Value)
		}
	}
	return selected
}

func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m Model) View() string {
	if m.quitting {
		if m.cancelled {
			return "Cancelled.\n"
		}

		selected := m.SelectedValues()
		if len(selected) == 0 {
			return "You didn't select any server.\n"
		}

		return fmt.Sprintf("Checking: %s\n", strings.Join(selected, ", "))
	}

	return appStyle.Render(
		fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			titleStyle.Render("Servers to check"),
			m.List.View(),
			m.help.View(m.keys),
		),
	)
}

// NewSelectorModel lists the enabled servers. Servers whose id is in
// preselected start out checked.
func NewSelectorModel(servers []config.ServerConfig, preselected []string) Model {
	checked := make(map[string]bool)
	for _, id := range preselected {
		checked[strings.TrimSpace(id)] = true
	}

	items := []list.Item{}
	for _, s := range servers {
		if s.Disabled {
			continue
		}
		items = append(items, Item{Value: s.ID, Description: s.Description, Selected: checked[s.ID]})
	}

	l := list.New(items, itemDelegate{}, defaultWidth, listHeight)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	h := help.New()
	h.ShowAll = false

	m := Model{List: l, keys: keys, help: h}

	return m
}

// SelectServers runs the picker and returns the chosen server ids.
func SelectServers(servers []config.ServerConfig, preselected []string, opts ...tea.ProgramOption) ([]string, error) {
	program := tea.NewProgram(NewSelectorModel(servers, preselected), opts...)
	m, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("error running server selector: %w", err)
	}

	finalModel := m.(Model)
	if finalModel.Cancelled() {
		return nil, ErrSelectionCancelled
	}

	return finalModel.SelectedValues(), nil
}
