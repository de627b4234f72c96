// Package tui renders the aggregated feeds as a tabbed terminal board.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trendpulse/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const fetchTimeout = 60 * time.Second

// Feed is the aggregator surface the board reads from.
type Feed interface {
	Trending(ctx context.Context) domain.AssetBatch
	Binance(ctx context.Context) domain.AssetBatch
	Alpha(ctx context.Context) domain.AssetBatch
	SocialSentiment(ctx context.Context) domain.SocialBatch
	BreakingNews(ctx context.Context) domain.NewsBatch
}

type tab int

const (
	tabTrending tab = iota
	tabBinance
	tabAlpha
	tabSocial
	tabNews
)

var tabNames = []string{"Trending", "Binance FOMO", "Alpha", "Social", "News"}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color("0")).Background(lipgloss.Color("212"))
	tabStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bullStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	bearStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// loadedMsg carries rows for one tab.
type loadedMsg struct {
	tab        tab
	columns    []table.Column
	rows       []table.Row
	provenance domain.Provenance
}

// Model is the bubbletea model for the board.
type Model struct {
	feed     Feed
	username string
	active   tab
	table    table.Model
	loading  bool
	status   string
	width    int
	height   int
}

// chromeLines counts the title, tab bar, spacer and status rows around the table.
const chromeLines = 4

func NewModel(feed Feed, username string) Model {
	t := table.New(table.WithColumns(assetColumns), table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)
	m := Model{feed: feed, username: username, table: t, loading: true}
	m.fitTable(16)
	return m
}

// SetSize fits the table to the terminal.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.fitTable(height - chromeLines)
}

// fitTable gives the table h lines including its header. The header height
// depends on the current columns, so this runs again after they change.
func (m *Model) fitTable(h int) {
	if h < 5 {
		return
	}
	m.table.SetHeight(h)
}

func (m Model) Init() tea.Cmd {
	return m.load(m.active)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case loadedMsg:
		if msg.tab != m.active {
			return m, nil
		}
		m.loading = false
		m.table.SetRows(nil)
		m.table.SetColumns(msg.columns)
		if m.height > 0 {
			m.fitTable(m.height - chromeLines)
		}
		m.table.SetRows(msg.rows)
		m.table.GotoTop()
		m.status = fmt.Sprintf("%d items, %s", len(msg.rows), msg.provenance)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			return m.switchTo((m.active + 1) % tab(len(tabNames)))
		case "shift+tab", "left", "h":
			return m.switchTo((m.active + tab(len(tabNames)) - 1) % tab(len(tabNames)))
		case "r":
			m.loading = true
			return m, m.load(m.active)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) switchTo(t tab) (tea.Model, tea.Cmd) {
	m.active = t
	m.loading = true
	return m, m.load(t)
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("trendpulse"))
	if m.username != "" {
		sb.WriteString(statusStyle.Render("  " + m.username))
	}
	sb.WriteString("\n")

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.active {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	sb.WriteString("\n\n")

	if m.loading {
		sb.WriteString("Loading " + tabNames[m.active] + "...\n")
	} else {
		sb.WriteString(m.table.View())
		sb.WriteString("\n")
	}
	sb.WriteString(statusStyle.Render(m.status + "  tab/←→ switch • r refresh • q quit"))
	return sb.String()
}

func (m Model) load(t tab) tea.Cmd {
	feed := m.feed
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		switch t {
		case tabBinance:
			return assetRows(t, feed.Binance(ctx))
		case tabAlpha:
			return assetRows(t, feed.Alpha(ctx))
		case tabSocial:
			return socialRows(feed.SocialSentiment(ctx))
		case tabNews:
			return newsRows(feed.BreakingNews(ctx))
		default:
			return assetRows(tabTrending, feed.Trending(ctx))
		}
	}
}

var assetColumns = []table.Column{
	{Title: "#", Width: 3},
	{Title: "Symbol", Width: 10},
	{Title: "Name", Width: 18},
	{Title: "Price", Width: 14},
	{Title: "24h", Width: 9},
	{Title: "Score", Width: 6},
	{Title: "Sentiment", Width: 10},
	{Title: "Auth", Width: 9},
	{Title: "Whale", Width: 6},
}

func assetRows(t tab, batch domain.AssetBatch) loadedMsg {
	rows := make([]table.Row, 0, len(batch.Items))
	for i, a := range batch.Items {
		whale := ""
		if a.HasWhaleAlert {
			whale = "🐋"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			a.Symbol,
			a.Name,
			formatPrice(a.Price),
			fmt.Sprintf("%+.2f%%", a.Change24h),
			strconv.Itoa(a.TrendScore),
			sentimentLabel(a.Sentiment),
			string(a.Authenticity),
			whale,
		})
	}
	return loadedMsg{
		tab:        t,
		columns:    assetColumns,
		rows:       rows,
		provenance: batch.Provenance,
	}
}

func socialRows(batch domain.SocialBatch) loadedMsg {
	rows := make([]table.Row, 0, len(batch.Items))
	for _, s := range batch.Items {
		rows = append(rows, table.Row{s.Hashtag, strconv.Itoa(s.Mentions), sentimentLabel(s.Sentiment)})
	}
	return loadedMsg{
		tab: tabSocial,
		columns: []table.Column{
			{Title: "Hashtag", Width: 16},
			{Title: "Mentions", Width: 10},
			{Title: "Sentiment", Width: 10},
		},
		rows:       rows,
		provenance: batch.Provenance,
	}
}

func newsRows(batch domain.NewsBatch) loadedMsg {
	rows := make([]table.Row, 0, len(batch.Items))
	for _, n := range batch.Items {
		rows = append(rows, table.Row{n.TimeLabel, string(n.Source), n.Headline})
	}
	return loadedMsg{
		tab: tabNews,
		columns: []table.Column{
			{Title: "Time", Width: 6},
			{Title: "Source", Width: 7},
			{Title: "Headline", Width: 70},
		},
		rows:       rows,
		provenance: batch.Provenance,
	}
}

func sentimentLabel(s domain.Sentiment) string {
	switch s {
	case domain.SentimentBullish:
		return bullStyle.Render(string(s))
	case domain.SentimentBearish:
		return bearStyle.Render(string(s))
	default:
		return string(s)
	}
}

func formatPrice(p float64) string {
	switch {
	case p >= 1:
		return "$" + strconv.FormatFloat(p, 'f', 2, 64)
	case p >= 0.01:
		return "$" + strconv.FormatFloat(p, 'f', 4, 64)
	default:
		return "$" + strconv.FormatFloat(p, 'f', 8, 64)
	}
}
