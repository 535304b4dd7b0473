// ABOUTME: Dashboard component listing the user's past evaluations
// ABOUTME: Shows a greeting, score trend and a selectable history table

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/calc"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/tui/icons"
	"github.com/markalston/crediteval/internal/tui/styles"
	"github.com/markalston/crediteval/internal/tui/widgets"
)

// EmptyMessage is shown when the user has no evaluations
const EmptyMessage = "No evaluations yet"

// Dashboard displays evaluation history
type Dashboard struct {
	user    *client.User
	history []client.CreditResult
	table   table.Model
	width   int
	height  int
}

// New creates a dashboard for user's history
func New(user *client.User, history []client.CreditResult, width, height int) *Dashboard {
	d := &Dashboard{
		user:    user,
		history: history,
		width:   width,
		height:  height,
	}

	t := table.New(
		table.WithColumns(columns()),
		table.WithRows(rows(history)),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Primary).
		Bold(false)
	t.SetStyles(s)
	d.table = t
	d.SetSize(width, height)
	return d
}

func columns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Date", Width: 11},
		{Title: "Income", Width: 14},
		{Title: "Debts", Width: 14},
		{Title: "Score", Width: 6},
		{Title: "Risk", Width: 8},
	}
}

func rows(history []client.CreditResult) []table.Row {
	out := make([]table.Row, 0, len(history))
	for _, item := range history {
		out = append(out, table.Row{
			item.InputID().String(),
			item.EvaluatedAt.Display(),
			calc.Money(item.Income.Float()),
			calc.Money(item.Debts.Float()),
			fmt.Sprintf("%d", item.CreditScore.Int()),
			item.RiskLevel,
		})
	}
	return out
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
	// greeting, summary cards and table header take about 10 lines
	d.table.SetHeight(max(3, height-10))
}

// Len returns the number of evaluations shown
func (d *Dashboard) Len() int {
	return len(d.history)
}

// Selected returns the input id of the highlighted evaluation
func (d *Dashboard) Selected() (client.ID, bool) {
	if len(d.history) == 0 {
		return "", false
	}
	i := d.table.Cursor()
	if i < 0 || i >= len(d.history) {
		return "", false
	}
	return d.history[i].InputID(), true
}

// Update moves the table cursor
func (d *Dashboard) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.table, cmd = d.table.Update(msg)
	return cmd
}

// scoreTrend returns scores oldest first; the backend lists newest first
func (d *Dashboard) scoreTrend() []float64 {
	trend := make([]float64, 0, len(d.history))
	for i := len(d.history) - 1; i >= 0; i-- {
		trend = append(trend, d.history[i].CreditScore.Float())
	}
	return trend
}

// View renders the dashboard
func (d *Dashboard) View() string {
	var sb strings.Builder

	name := "there"
	if d.user != nil && d.user.Username != "" {
		name = d.user.Username
	}
	sb.WriteString(styles.Title.Render(fmt.Sprintf("Welcome, %s", name)))
	sb.WriteString("\n")

	if len(d.history) == 0 {
		sb.WriteString(styles.Subtitle.Render(EmptyMessage))
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("Press n to run your first evaluation"))
		return d.frame(sb.String())
	}

	cfg := widgets.DefaultMetricBlockConfig()
	latest := d.history[0].CreditScore.Float()
	trend := d.scoreTrend()
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		widgets.CountBlock(icons.History, "Evaluations", len(d.history), "submitted", cfg),
		" ",
		widgets.MetricBlockWithSparkline(icons.Chart, "Score trend", fmt.Sprintf("%.0f", latest), trend,
			fmt.Sprintf("latest: %s", d.history[0].RiskLevel), cfg),
	)
	sb.WriteString(cards)
	sb.WriteString("\n\n")
	sb.WriteString(d.table.View())

	return d.frame(sb.String())
}

func (d *Dashboard) frame(s string) string {
	return lipgloss.NewStyle().
		Width(d.width).
		MaxHeight(max(1, d.height)).
		Render(s)
}
