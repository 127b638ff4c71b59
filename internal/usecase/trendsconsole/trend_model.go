package trendsconsole

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reviewflow/internal/ports"
	"reviewflow/internal/usecase/trends"
)

const maxShownRows = 30

type Options struct {
	RefreshInterval time.Duration
	OnlyAnomalies   bool
}

type trendModel struct {
	ctx             context.Context
	service         *trends.Service
	refreshInterval time.Duration

	rows          []ports.TrendRow
	onlyAnomalies bool
	status        string
}

type trendsLoadedMsg struct {
	rows []ports.TrendRow
	err  error
}

type tickMsg struct{}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	anomalyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statusStyle  = lipgloss.NewStyle().Faint(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

func NewTrendModel(ctx context.Context, service *trends.Service, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &trendModel{
		ctx:             ctx,
		service:         service,
		refreshInterval: interval,
		onlyAnomalies:   options.OnlyAnomalies,
		status:          "loading",
	}
}

func Run(ctx context.Context, service *trends.Service, options Options) error {
	program := tea.NewProgram(NewTrendModel(ctx, service, options))
	_, err := program.Run()
	return err
}

func (m *trendModel) Init() tea.Cmd {
	return tea.Batch(m.loadTrendsCmd(), m.tickCmd())
}

func (m *trendModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.status = "refreshing"
			return m, m.loadTrendsCmd()
		case "a":
			m.onlyAnomalies = !m.onlyAnomalies
			m.status = "refreshing"
			return m, m.loadTrendsCmd()
		}
	case trendsLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("load failed: %v", msg.err)
			return m, nil
		}
		m.rows = msg.rows
		m.status = fmt.Sprintf("loaded %d rows at %s", len(msg.rows), time.Now().Format("15:04:05"))
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.loadTrendsCmd(), m.tickCmd())
	}
	return m, nil
}

func (m *trendModel) View() string {
	var b strings.Builder

	title := "response trends"
	if m.onlyAnomalies {
		title += " (anomalies only)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-10s %-10s %-18s %6s %6s %6s",
		"date", "channel", "sentiment", "theme", "count", "esc", "avg")))
	b.WriteString("\n")

	shown := m.rows
	if len(shown) > maxShownRows {
		shown = shown[len(shown)-maxShownRows:]
	}
	for _, row := range shown {
		line := fmt.Sprintf("%-12s %-10s %-10s %-18s %6d %6d %6.2f",
			row.TrendDate,
			truncate(row.Channel, 10),
			truncate(row.Sentiment, 10),
			truncate(row.Theme, 18),
			row.ReviewCount,
			row.EscalationCount,
			row.AvgStarRating,
		)
		if row.Anomaly {
			line = anomalyStyle.Render(line + "  !")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(shown) == 0 {
		b.WriteString("(no trend rows)\n")
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r refresh · a toggle anomalies · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *trendModel) loadTrendsCmd() tea.Cmd {
	ctx := m.ctx
	onlyAnomalies := m.onlyAnomalies
	service := m.service
	return func() tea.Msg {
		rows, err := service.ListTrends(ctx, onlyAnomalies)
		return trendsLoadedMsg{rows: rows, err: err}
	}
}

func (m *trendModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
