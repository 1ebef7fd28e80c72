package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/rastercade/internal/registry"
)

var menuStyle = lipgloss.NewStyle().Margin(1, 2)

// MenuItem represents a selectable sequence in the menu.
type MenuItem struct {
	info registry.Info
}

func (i MenuItem) Title() string       { return i.info.Title }
func (i MenuItem) Description() string { return i.info.Description }
func (i MenuItem) FilterValue() string { return i.info.ID + " " + i.info.Title }

// MenuModel is the Bubble Tea model for the sequence picker.
type MenuModel struct {
	list     list.Model
	keys     KeyMap
	selected string
	quitting bool
}

// NewMenuModel creates a picker over the given sequences.
func NewMenuModel(infos []registry.Info, width, height int) MenuModel {
	items := make([]list.Item, 0, len(infos))
	for _, info := range infos {
		items = append(items, MenuItem{info: info})
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "R A S T E R C A D E"
	l.SetShowStatusBar(false)

	return MenuModel{list: l, keys: DefaultKeyMap()}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Enter):
			if item, ok := m.list.SelectedItem().(MenuItem); ok {
				m.selected = item.info.ID
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		h, v := menuStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting || m.selected != "" {
		return ""
	}
	return menuStyle.Render(m.list.View())
}

// Selected returns the chosen sequence ID, empty if none.
func (m MenuModel) Selected() string {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// RunMenu runs the picker and returns the chosen sequence ID.
// An empty ID means the user quit.
func RunMenu(infos []registry.Info) (string, error) {
	p := tea.NewProgram(NewMenuModel(infos, 80, 24), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	m, ok := finalModel.(MenuModel)
	if !ok {
		return "", nil
	}
	return m.Selected(), nil
}
