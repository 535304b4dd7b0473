// ABOUTME: Status badge widgets for quick visual status indication
// ABOUTME: Provides colored risk and role badges plus inline status text

package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/calc"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/tui/icons"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

// Badge colors
var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeOKFg      = lipgloss.Color("#FFFFFF")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeWarnFg    = lipgloss.Color("#000000")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeCritFg    = lipgloss.Color("#FFFFFF")
	BadgeInfoBg    = lipgloss.Color("#8B5CF6")
	BadgeInfoFg    = lipgloss.Color("#FFFFFF")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
	BadgeNeutralFg = lipgloss.Color("#FFFFFF")
)

func levelColors(level StatusLevel) (bg, fg lipgloss.Color) {
	switch level {
	case StatusOK:
		return BadgeOKBg, BadgeOKFg
	case StatusWarning:
		return BadgeWarnBg, BadgeWarnFg
	case StatusCritical:
		return BadgeCritBg, BadgeCritFg
	case StatusInfo:
		return BadgeInfoBg, BadgeInfoFg
	default:
		return BadgeNeutralBg, BadgeNeutralFg
	}
}

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	bg, fg := levelColors(level)
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// RiskLevel maps a backend risk label to a status level
func RiskLevel(label string) StatusLevel {
	switch calc.RiskClass(label) {
	case "low":
		return StatusOK
	case "medium":
		return StatusWarning
	case "high":
		return StatusCritical
	default:
		return StatusNeutral
	}
}

// RiskBadge renders the risk label colored by its class. Unknown labels are
// shown as-is on a neutral badge.
func RiskBadge(label string) string {
	if label == "" {
		label = "Unknown"
	}
	return Badge(label, RiskLevel(label))
}

// RoleBadge renders a user's role; admins stand out
func RoleBadge(role client.Role) string {
	role = role.OrDefault()
	if role == client.RoleAdmin {
		return Badge(string(role), StatusInfo)
	}
	return Badge(string(role), StatusNeutral)
}

// StatusFromScore returns the status level for a 0-100 credit score
func StatusFromScore(score float64) StatusLevel {
	switch {
	case score >= 70:
		return StatusOK
	case score >= 50:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// StatusIcon returns the appropriate icon for a status level
func StatusIcon(level StatusLevel) string {
	bg, _ := levelColors(level)
	style := lipgloss.NewStyle().Foreground(bg)
	switch level {
	case StatusOK:
		return style.Render(icons.CheckOK.String())
	case StatusWarning:
		return style.Render(icons.Warning.String())
	case StatusCritical:
		return style.Render(icons.Critical.String())
	case StatusInfo:
		return style.Render(icons.Info.String())
	default:
		return style.Render("•")
	}
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	bg, _ := levelColors(level)
	return fmt.Sprintf("%s %s", StatusIcon(level), lipgloss.NewStyle().Foreground(bg).Render(text))
}
