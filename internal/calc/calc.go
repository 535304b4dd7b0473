// ABOUTME: Display math for evaluation views
// ABOUTME: Debt-to-income ratio, bar clamping and risk distribution shares

package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Ratio is a percentage that may be undefined
type Ratio struct {
	Percent float64
	Defined bool
}

// DebtToIncome returns debts/income*100. It is undefined when income is not positive.
func DebtToIncome(income, debts float64) Ratio {
	if income <= 0 || math.IsNaN(income) || math.IsNaN(debts) {
		return Ratio{}
	}
	return Ratio{Percent: debts / income * 100, Defined: true}
}

// Label renders the true percentage with two decimals, or "n/a"
func (r Ratio) Label() string {
	if !r.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", r.Percent)
}

// Bar is the width to draw, clamped to [0, 100]. Undefined ratios draw empty.
func (r Ratio) Bar() float64 {
	if !r.Defined {
		return 0
	}
	return Clamp(r.Percent)
}

// Clamp limits a percentage to [0, 100]
func Clamp(percent float64) float64 {
	if math.IsNaN(percent) {
		return 0
	}
	return math.Max(0, math.Min(100, percent))
}

// Share is count as a percentage of total, clamped to [0, 100].
// A non-positive total yields 0 for every bucket.
func Share(count, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Clamp(count / total * 100)
}

// ScorePercent maps a score on the 0-100 scale to a gauge fill
func ScorePercent(score float64) float64 {
	return Clamp(score)
}

// RiskClass buckets a risk label into low, medium, high or unknown
func RiskClass(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return "low"
	case "medium", "moderate":
		return "medium"
	case "high":
		return "high"
	default:
		return "unknown"
	}
}

// Money formats an amount with thousands separators and the currency prefix
func Money(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := strconv.FormatFloat(math.Floor(amount), 'f', 0, 64)
	cents := int(math.Round((amount - math.Floor(amount)) * 100))
	if cents == 100 {
		whole = strconv.FormatFloat(math.Floor(amount)+1, 'f', 0, 64)
		cents = 0
	}

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if cents == 0 {
		return sign + "M" + b.String()
	}
	return fmt.Sprintf("%sM%s.%02d", sign, b.String(), cents)
}
