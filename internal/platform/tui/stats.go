package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/rastercade/internal/storage"
)

// maxRuns is how many runs the stats view loads per sequence.
const maxRuns = 100

// RunSource provides recorded runs. *storage.Store implements it.
type RunSource interface {
	RecentRuns(sequenceID string, limit int) ([]storage.Run, error)
	GetAllSequenceStats() (map[string]*storage.SequenceStats, error)
}

// StatsKeyMap defines the key bindings for the stats view.
type StatsKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextSeq key.Binding
	PrevSeq key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k StatsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextSeq, k.PrevSeq, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k StatsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.NextSeq, k.PrevSeq, k.Quit}}
}

// DefaultStatsKeyMap returns default key bindings.
func DefaultStatsKeyMap() StatsKeyMap {
	return StatsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextSeq: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next sequence"),
		),
		PrevSeq: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev sequence"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// StatsModel is the Bubble Tea model browsing recorded runs per sequence.
type StatsModel struct {
	source    RunSource
	sequences []string
	summary   map[string]*storage.SequenceStats
	cursor    int
	runs      []storage.Run
	table     table.Model
	help      help.Model
	keys      StatsKeyMap
	width     int
	height    int
	err       error
	quitting  bool
}

// NewStatsModel creates a stats view over source.
func NewStatsModel(source RunSource, width, height int) StatsModel {
	m := StatsModel{
		source: source,
		keys:   DefaultStatsKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()

	m.summary, m.err = source.GetAllSequenceStats()
	for id := range m.summary {
		m.sequences = append(m.sequences, id)
	}
	sort.Strings(m.sequences)

	if len(m.sequences) > 0 {
		m.loadRuns()
	}
	return m
}

// createTable creates a new table with appropriate columns.
func (m *StatsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Policy", Width: 22},
		{Title: "FPS", Width: 6},
		{Title: "Frames", Width: 8},
		{Title: "Updates", Width: 8},
		{Title: "Time", Width: 8},
		{Title: "Date", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, m.height-8)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRuns loads runs of the selected sequence.
func (m *StatsModel) loadRuns() {
	runs, err := m.source.RecentRuns(m.sequences[m.cursor], maxRuns)
	if err != nil {
		m.err = err
		runs = nil
	}
	m.runs = runs

	rows := make([]table.Row, len(runs))
	for i, r := range runs {
		policy := r.Policy
		if r.Failed {
			policy += " (failed)"
		}
		rows[i] = table.Row{
			policy,
			fmt.Sprintf("%d", r.Fps),
			fmt.Sprintf("%d", r.Renders),
			fmt.Sprintf("%d", r.Updates),
			r.Duration.Truncate(100 * time.Millisecond).String(),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Selected returns the sequence currently shown, empty when none was recorded.
func (m StatsModel) Selected() string {
	if len(m.sequences) == 0 {
		return ""
	}
	return m.sequences[m.cursor]
}

// Init initializes the stats model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the stats view.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextSeq):
			if len(m.sequences) > 0 {
				m.cursor = (m.cursor + 1) % len(m.sequences)
				m.loadRuns()
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevSeq):
			if len(m.sequences) > 0 {
				m.cursor = (m.cursor - 1 + len(m.sequences)) % len(m.sequences)
				m.loadRuns()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(3, m.height-8))
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the stats view.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	if len(m.sequences) == 0 {
		b.WriteString(titleStyle.Render("RUN STATISTICS"))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Italic(true).Render("No runs recorded yet.\nRun a sequence to collect statistics!"))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(mutedStyle.Render("error: " + m.err.Error()))
			b.WriteString("\n")
		}
		return b.String()
	}

	id := m.sequences[m.cursor]
	b.WriteString(titleStyle.Render("RUN STATISTICS - " + id))
	b.WriteString("\n\n")
	if st := m.summary[id]; st != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d runs, %d failed, best %d fps, avg %.1f fps, %d frames",
			st.Runs, st.Failures, st.BestFps, st.AvgFps, st.TotalFrames)))
		b.WriteString("\n\n")
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.table.View()))

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// RunStats runs the stats view.
func RunStats(source RunSource, width, height int) error {
	p := tea.NewProgram(NewStatsModel(source, width, height), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
