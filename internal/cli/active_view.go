package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/cli/formatter"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// activeModel polls the activity view and shows it in a table. Elapsed
// times come from each poll; the model never counts on its own.
type activeModel struct {
	ctx      context.Context
	activity app.ActivityUseCase
	filter   app.ActiveFilter
	clock    func() time.Time
	interval time.Duration

	table    table.Model
	count    int
	asOf     time.Time
	err      error
	keys     activeKeys
	quitting bool
}

type activeKeys struct {
	Quit    key.Binding
	Refresh key.Binding
}

type activeLoadedMsg struct {
	views []app.ActiveSessionView
	at    time.Time
	err   error
}

type activeTickMsg struct{}

var activeColumnWidths = []int{14, 32, 8, 12, 10, 9, 12}

func newActiveModel(ctx context.Context, activity app.ActivityUseCase, filter app.ActiveFilter, clock func() time.Time, interval time.Duration) activeModel {
	if interval <= 0 {
		interval = time.Second
	}
	headers, _ := formatter.ActiveTable(nil)
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: activeColumnWidths[i]}
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(formatter.ColorHeader).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(formatter.ColorDim).
		BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(formatter.ColorFg).Background(lipgloss.Color("#504945"))

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(15),
		table.WithStyles(styles),
	)

	return activeModel{
		ctx:      ctx,
		activity: activity,
		filter:   filter,
		clock:    clock,
		interval: interval,
		table:    t,
		keys: activeKeys{
			Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
			Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		},
	}
}

func (m activeModel) Init() tea.Cmd {
	return m.load()
}

func (m activeModel) load() tea.Cmd {
	return func() tea.Msg {
		views, err := m.activity.ListActive(m.ctx, m.filter)
		return activeLoadedMsg{views: views, at: m.clock(), err: err}
	}
}

func (m activeModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return activeTickMsg{}
	})
}

func (m activeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activeLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			_, rows := formatter.ActiveTable(msg.views)
			tableRows := make([]table.Row, len(rows))
			for i, r := range rows {
				tableRows[i] = table.Row(r)
			}
			m.table.SetRows(tableRows)
			m.count = len(msg.views)
			m.asOf = msg.at
		}
		return m, m.tick()

	case activeTickMsg:
		return m, m.load()

	case tea.WindowSizeMsg:
		if h := msg.Height - 6; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m activeModel) View() string {
	if m.quitting {
		return ""
	}
	status := formatter.Dim("loading...")
	if !m.asOf.IsZero() {
		status = formatter.Dim(m.asOf.Local().Format("15:04:05") + " · ")
		status += formatter.Bold(strconv.Itoa(m.count)) + formatter.Dim(" active · r refresh · q quit")
	}
	if m.err != nil {
		status = formatter.StyleRed.Render("refresh failed: "+m.err.Error()) + formatter.Dim(" · retrying")
	}
	return formatter.Header("Active timers") + "\n" + m.table.View() + "\n" + status + "\n"
}
