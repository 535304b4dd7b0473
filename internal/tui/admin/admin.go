// ABOUTME: Admin panel showing aggregate stats and the user table
// ABOUTME: Tracks which row is selected and whether its role may be toggled

package admin

import (
	"errors"
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

// ErrOwnRole is returned when the admin tries to toggle their own row
var ErrOwnRole = errors.New("you cannot change your own role")

// Panel is the admin view
type Panel struct {
	self   client.ID
	users  []client.User
	stats  client.Stats
	table  table.Model
	width  int
	height int
}

// New creates the panel. self is the logged-in admin's id.
func New(self client.ID, overview *client.AdminOverview, width, height int) *Panel {
	p := &Panel{self: self, width: width, height: height}
	if overview != nil {
		p.users = overview.Users
		p.stats = overview.Stats
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Username", Width: 16},
			{Title: "Email", Width: 26},
			{Title: "Role", Width: 6},
			{Title: "Joined", Width: 11},
		}),
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
		Background(styles.Admin).
		Bold(false)
	t.SetStyles(s)
	p.table = t
	p.refreshRows()
	p.SetSize(width, height)
	return p
}

func (p *Panel) refreshRows() {
	rows := make([]table.Row, 0, len(p.users))
	for _, u := range p.users {
		username := u.Username
		if u.ID == p.self {
			username += " (you)"
		}
		rows = append(rows, table.Row{
			u.ID.String(),
			username,
			u.Email,
			string(u.Role.OrDefault()),
			u.CreatedAt.Display(),
		})
	}
	p.table.SetRows(rows)
}

// SetSize updates the panel dimensions
func (p *Panel) SetSize(width, height int) {
	p.width = width
	p.height = height
	// stat cards and distribution take about 14 lines
	p.table.SetHeight(max(3, height-14-len(p.stats.RiskDistribution)))
}

// Update moves the table cursor
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return cmd
}

// Users returns the users as currently displayed
func (p *Panel) Users() []client.User {
	return p.users
}

// Selected returns the highlighted user
func (p *Panel) Selected() (client.User, bool) {
	i := p.table.Cursor()
	if i < 0 || i >= len(p.users) {
		return client.User{}, false
	}
	return p.users[i], true
}

// ToggleTarget returns the selected user and the role it would switch to.
// The admin's own row cannot be toggled.
func (p *Panel) ToggleTarget() (client.User, client.Role, error) {
	u, ok := p.Selected()
	if !ok {
		return client.User{}, "", errors.New("no user selected")
	}
	if u.ID == p.self {
		return client.User{}, "", ErrOwnRole
	}
	return u, u.Role.OrDefault().Toggle(), nil
}

// ApplyRole records an acknowledged role change for id
func (p *Panel) ApplyRole(id client.ID, role client.Role) {
	for i := range p.users {
		if p.users[i].ID == id {
			p.users[i].Role = role
		}
	}
	p.refreshRows()
}

// View renders the panel
func (p *Panel) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render("Admin Panel"))
	sb.WriteString("\n")

	cfg := widgets.DefaultMetricBlockConfig()
	cfg.Width = 22
	avg := p.stats.AverageScore.Float()
	avgLabel := fmt.Sprintf("%.1f", avg)
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		widgets.CountBlock(icons.Users, "Users", p.stats.TotalUsers.Int(), "registered", cfg),
		" ",
		widgets.CountBlock(icons.History, "Evaluations", p.stats.TotalEvaluations.Int(), "submitted", cfg),
		" ",
		widgets.MetricBlockWithBar(icons.Score, "Avg Score", calc.ScorePercent(avg), avgLabel, "out of 100", widgets.ScoreGaugeConfig(), cfg),
	))
	sb.WriteString("\n\n")

	sb.WriteString(p.renderDistribution())
	sb.WriteString("\n\n")
	sb.WriteString(p.table.View())
	return lipgloss.NewStyle().Width(p.width).Render(sb.String())
}

// renderDistribution shows each risk bucket's share of all evaluations
func (p *Panel) renderDistribution() string {
	var sb strings.Builder
	sb.WriteString(styles.Label.Render("Risk Distribution"))
	if len(p.stats.RiskDistribution) == 0 {
		sb.WriteString("\n")
		sb.WriteString(styles.Label.Render("  No evaluations yet"))
		return sb.String()
	}

	total := p.stats.TotalEvaluations.Float()
	for _, bucket := range p.stats.RiskDistribution {
		share := calc.Share(bucket.Count.Float(), total)
		color := styles.RiskColor(calc.RiskClass(bucket.RiskLevel))
		fmt.Fprintf(&sb, "\n  %-8s %s %5.1f%% (%d)",
			bucket.RiskLevel,
			widgets.CompactProgressBar(share, 20, color),
			share,
			bucket.Count.Int())
	}
	return sb.String()
}
