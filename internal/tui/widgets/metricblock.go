// ABOUTME: Compact metric block widget for dashboard displays
// ABOUTME: Combines icon, value and a bar or sparkline in a bordered card

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/tui/icons"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       24,
		BorderColor: lipgloss.Color("#6B7280"), // Muted gray
		TitleColor:  lipgloss.Color("#2563EB"), // Blue
		ValueColor:  lipgloss.Color("#F9FAFB"), // Light
	}
}

// card assembles a bordered block. Body lines are padded by display width so
// styled text lines up with the border.
func card(icon icons.Icon, title string, body []string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = 24
	}
	innerWidth := config.Width - 4

	titleStr := truncate(fmt.Sprintf("%s %s", icon.String(), title), innerWidth)
	titleStyle := lipgloss.NewStyle().Foreground(config.TitleColor)
	borderStyle := lipgloss.NewStyle().Foreground(config.BorderColor)

	lines := []string{
		borderStyle.Render("┌─ ") + titleStyle.Render(titleStr) + " " +
			borderStyle.Render(strings.Repeat("─", max(0, config.Width-5-lipgloss.Width(titleStr)))+"┐"),
	}
	for _, b := range body {
		pad := max(0, innerWidth-lipgloss.Width(b))
		lines = append(lines, borderStyle.Render("│  ")+b+strings.Repeat(" ", pad)+borderStyle.Render("│"))
	}
	lines = append(lines, borderStyle.Render("└"+strings.Repeat("─", config.Width-2)+"┘"))
	return strings.Join(lines, "\n")
}

// MetricBlock renders a compact metric display block
func MetricBlock(icon icons.Icon, title, value, subtitle string, config MetricBlockConfig) string {
	innerWidth := max(1, config.Width-4)
	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	return card(icon, title, []string{
		valueStyle.Render(truncate(value, innerWidth)),
		subtitleStyle.Render(truncate(subtitle, innerWidth)),
	}, config)
}

// MetricBlockWithBar renders a metric block with a progress bar. label is
// printed beside the value so it can differ from the clamped fill.
func MetricBlockWithBar(icon icons.Icon, title string, percent float64, label, details string, bar ProgressBarConfig, config MetricBlockConfig) string {
	innerWidth := max(1, config.Width-4)
	bar.Width = max(4, innerWidth-2)
	bar.ShowZones = false

	detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(bar.colorFor(percent)).Bold(true)
	return card(icon, title, []string{
		valueStyle.Render(truncate(label, innerWidth)),
		ProgressBar(percent, bar),
		detailStyle.Render(truncate(details, innerWidth)),
	}, config)
}

// MetricBlockWithSparkline renders a metric block with a sparkline
func MetricBlockWithSparkline(icon icons.Icon, title, value string, sparkData []float64, subtitle string, config MetricBlockConfig) string {
	innerWidth := max(1, config.Width-4)
	sparkWidth := max(1, innerWidth-lipgloss.Width(value)-2)

	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	spark := Sparkline(sparkData, sparkWidth, config.TitleColor)
	return card(icon, title, []string{
		valueStyle.Render(value) + "  " + spark,
		subtitleStyle.Render(truncate(subtitle, innerWidth)),
	}, config)
}

// CountBlock renders a simple count metric
func CountBlock(icon icons.Icon, title string, count int, label string, config MetricBlockConfig) string {
	return MetricBlock(icon, title, fmt.Sprintf("%d", count), label, config)
}

// truncate shortens a string to maxLen display cells with ellipsis if needed
func truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:min(len(r), maxLen)])
	}
	for len(r) > 0 && lipgloss.Width(string(r))+3 > maxLen {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
