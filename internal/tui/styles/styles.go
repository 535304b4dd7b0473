// ABOUTME: Shared lipgloss styles for consistent TUI appearance
// ABOUTME: Defines colors, borders, text styles and the form theme used across views

package styles

import (

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#2563EB") // Blue
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Text      = lipgloss.Color("#F9FAFB") // Light
	BgDark    = lipgloss.Color("#1F2937") // Dark gray

	// Colors - Extended palette
	Accent  = lipgloss.Color("#60A5FA") // Lighter blue for highlights
	Surface = lipgloss.Color("#374151") // Elevated surface background
	Info    = lipgloss.Color("#3B82F6")
	Admin   = lipgloss.Color("#8B5CF6") // Purple - admin role

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			MarginBottom(1)

	// Status indicators
	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	// Panels
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(1, 2)

	ActivePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	Help = lipgloss.NewStyle().
		Foreground(Muted).
		MarginTop(1)

	// Key style for keyboard shortcuts
	KeyStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	// Value style for emphasized data
	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	Label = lipgloss.NewStyle().
		Foreground(Muted)

	// ErrorBox frames inline error messages under forms and views
	ErrorBox = lipgloss.NewStyle().
			Foreground(Danger).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Danger).
			PaddingLeft(1)
)

// RiskColor maps a risk class (low, medium, high) to its color
func RiskColor(class string) lipgloss.Color {
	switch class {
	case "low":
		return Secondary
	case "medium":
		return Warning
	case "high":
		return Danger
	default:
		return Muted
	}
}

// ScoreColor colors a 0-100 credit score: higher is better
func ScoreColor(score float64) lipgloss.Color {
	switch {
	case score >= 70:
		return Secondary
	case score >= 50:
		return Warning
	default:
		return Danger
	}
}

// FormTheme returns the huh theme shared by every form view
func FormTheme() *huh.Theme {
	t := huh.ThemeBase()

	gray := lipgloss.Color("#9CA3AF")
	grayLight := lipgloss.Color("#E5E7EB")
	red := lipgloss.Color("#F87171")

	// Group styles (section headers)
	t.Group.Title = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(gray).
		MarginBottom(1)

	// Focused field styles
	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(red).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(red)

	// Select field styles
	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(Primary).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(grayLight)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)
	t.Focused.NextIndicator = lipgloss.NewStyle().
		Foreground(Primary).
		MarginLeft(1).
		SetString("→")
	t.Focused.PrevIndicator = lipgloss.NewStyle().
		Foreground(Primary).
		MarginRight(1).
		SetString("←")

	// Text input styles
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(Primary)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(Primary)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(grayLight)

	// Button styles
	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(Info).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(gray).
		Background(Surface).
		Padding(0, 2).
		MarginRight(1)

	// Blurred fields reuse the focused styles with muted colors
	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(gray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(gray).
		SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().
		Foreground(gray)

	return t
}
