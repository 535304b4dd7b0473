// ABOUTME: Sparkline widget renders mini trend charts using block characters
// ABOUTME: Shows the credit score trend across a user's evaluations

package widgets

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/calc"
)

// SparklineBlocks are the Unicode block characters for different heights
var SparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values (oldest first) on a fixed 0-100 scale so that
// trends for different users compare directly.
func Sparkline(values []float64, width int, color lipgloss.Color) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	sampled := sampleValues(values, width)
	result := make([]rune, len(sampled))
	for i, v := range sampled {
		result[i] = scoreBlock(v)
	}

	style := lipgloss.NewStyle()
	if color != "" {
		style = style.Foreground(color)
	}
	return style.Render(string(result))
}

// sampleValues keeps the most recent width values, or spreads fewer values
// without padding so short histories stay short.
func sampleValues(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}

	result := make([]float64, width)
	ratio := float64(len(values)) / float64(width)
	for i := 0; i < width; i++ {
		idx := int(float64(i) * ratio)
		if idx >= len(values) {
			idx = len(values) - 1
		}
		result[i] = values[idx]
	}
	result[width-1] = values[len(values)-1]
	return result
}

// scoreBlock maps a 0-100 score to a block height
func scoreBlock(score float64) rune {
	top := len(SparklineBlocks) - 1
	return SparklineBlocks[int(calc.Clamp(score)/100*float64(top))]
}
