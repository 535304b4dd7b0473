// ABOUTME: Progress bars with visual threshold zones
// ABOUTME: Used for the score gauge, the debt-to-income bar and distribution shares

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/calc"
)

// ProgressBarConfig holds configuration for the progress bar
type ProgressBarConfig struct {
	Width         int
	WarnThreshold float64 // Percentage where warning zone starts
	CritThreshold float64 // Percentage where critical zone starts
	Inverted      bool    // Low values are bad (scores) instead of high values (ratios)
	OKColor       lipgloss.Color
	WarnColor     lipgloss.Color
	CritColor     lipgloss.Color
	EmptyColor    lipgloss.Color
	ShowZones     bool // Show threshold markers in the bar
}

// DefaultProgressBarConfig returns the debt-to-income zones
func DefaultProgressBarConfig() ProgressBarConfig {
	return ProgressBarConfig{
		Width:         20,
		WarnThreshold: 36,
		CritThreshold: 50,
		OKColor:       lipgloss.Color("#10B981"), // Green
		WarnColor:     lipgloss.Color("#F59E0B"), // Amber
		CritColor:     lipgloss.Color("#EF4444"), // Red
		EmptyColor:    lipgloss.Color("#374151"), // Dark gray
		ShowZones:     true,
	}
}

// ScoreGaugeConfig returns zones for a credit score, where higher is better
func ScoreGaugeConfig() ProgressBarConfig {
	cfg := DefaultProgressBarConfig()
	cfg.WarnThreshold = 70
	cfg.CritThreshold = 50
	cfg.Inverted = true
	return cfg
}

func (c ProgressBarConfig) colorFor(percent float64) lipgloss.Color {
	if c.Inverted {
		switch {
		case percent < c.CritThreshold:
			return c.CritColor
		case percent < c.WarnThreshold:
			return c.WarnColor
		default:
			return c.OKColor
		}
	}
	switch {
	case percent >= c.CritThreshold:
		return c.CritColor
	case percent >= c.WarnThreshold:
		return c.WarnColor
	default:
		return c.OKColor
	}
}

// ProgressBar renders a bar whose fill is clamped to 0..100. The fill takes
// the color of the zone the value falls in.
func ProgressBar(percent float64, config ProgressBarConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}

	percent = calc.Clamp(percent)
	filled := int(percent / 100.0 * float64(config.Width))
	warnPos := int(config.WarnThreshold / 100.0 * float64(config.Width))
	critPos := int(config.CritThreshold / 100.0 * float64(config.Width))

	fill := lipgloss.NewStyle().Foreground(config.colorFor(percent))
	empty := lipgloss.NewStyle().Foreground(config.EmptyColor)

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < config.Width; i++ {
		switch {
		case i < filled:
			bar.WriteString(fill.Render("█"))
		case config.ShowZones && (i == warnPos || i == critPos):
			bar.WriteString(empty.Render("│"))
		default:
			bar.WriteString(empty.Render("░"))
		}
	}
	bar.WriteString("]")
	return bar.String()
}

// ProgressBarWithLabel renders the bar followed by a label. The label is
// passed in so callers can print the true value while the bar stays clamped.
func ProgressBarWithLabel(percent float64, label string, config ProgressBarConfig) string {
	color := config.colorFor(calc.Clamp(percent))
	return fmt.Sprintf("%s %s", ProgressBar(percent, config), lipgloss.NewStyle().Foreground(color).Bold(true).Render(label))
}

// CompactProgressBar renders a minimal bar for tight spaces
func CompactProgressBar(percent float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}

	filled := int(calc.Clamp(percent) / 100.0 * float64(width))
	empty := width - filled

	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")).Render(strings.Repeat("░", empty))
}
