// ABOUTME: Result view showing one credit evaluation
// ABOUTME: Displays the score gauge, risk badge, recommendation and financial details

package result

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/crediteval/internal/calc"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/tui/styles"
	"github.com/markalston/crediteval/internal/tui/widgets"
)

// View displays an evaluation result
type View struct {
	result *client.CreditResult
	width  int
}

// New creates a new result view
func New(result *client.CreditResult, width int) *View {
	return &View{
		result: result,
		width:  width,
	}
}

// SetWidth updates the view width
func (v *View) SetWidth(width int) {
	v.width = width
}

// Result returns the evaluation being shown
func (v *View) Result() *client.CreditResult {
	return v.result
}

// View renders the result
func (v *View) View() string {
	if v.result == nil {
		return "No result data"
	}
	r := v.result

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Evaluation Result"))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("Evaluation %s · %s", r.InputID(), r.EvaluatedAt.Display())))
	sb.WriteString("\n")

	colWidth := (v.width - 4) / 2
	if colWidth < 36 {
		sb.WriteString(v.renderScore())
		sb.WriteString("\n\n")
		sb.WriteString(v.renderDetails())
		return sb.String()
	}

	left := lipgloss.NewStyle().Width(colWidth).Render(v.renderScore())
	right := lipgloss.NewStyle().Width(colWidth).Render(v.renderDetails())
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right))
	return sb.String()
}

func (v *View) renderScore() string {
	r := v.result
	score := r.CreditScore.Float()

	gauge := widgets.ScoreGaugeConfig()
	gauge.Width = 24

	var sb strings.Builder
	sb.WriteString(styles.Label.Render("Credit Score"))
	sb.WriteString("\n")
	scoreStyle := lipgloss.NewStyle().Foreground(styles.ScoreColor(score)).Bold(true)
	sb.WriteString(scoreStyle.Render(fmt.Sprintf("%.0f", score)))
	sb.WriteString(styles.Label.Render(" / 100"))
	sb.WriteString("\n")
	sb.WriteString(widgets.ProgressBar(calc.ScorePercent(score), gauge))
	sb.WriteString("\n\n")

	sb.WriteString(styles.Label.Render("Risk Level  "))
	sb.WriteString(widgets.RiskBadge(r.RiskLevel))
	sb.WriteString("\n")

	if r.Recommendation != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.Label.Render("Recommendation"))
		sb.WriteString("\n")
		sb.WriteString(styles.ValueStyle.Render(r.Recommendation))
	}
	return sb.String()
}

func (v *View) renderDetails() string {
	r := v.result
	dti := calc.DebtToIncome(r.Income.Float(), r.Debts.Float())

	dtiBar := widgets.DefaultProgressBarConfig()
	dtiBar.Width = 20
	historyBar := widgets.ScoreGaugeConfig()
	historyBar.Width = 20
	historyBar.ShowZones = false

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s\n", styles.Label.Render(fmt.Sprintf("%-17s", label)), value)
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Financial Details"))
	sb.WriteString("\n")
	sb.WriteString(row("Income", calc.Money(r.Income.Float())))
	sb.WriteString(row("Debts", calc.Money(r.Debts.Float())))
	if dti.Defined {
		sb.WriteString(row("Debt-to-Income", widgets.ProgressBarWithLabel(dti.Bar(), dti.Label(), dtiBar)))
	} else {
		sb.WriteString(row("Debt-to-Income", dti.Label()))
	}
	sb.WriteString(row("Employment", fmt.Sprintf("%d years", r.EmploymentYears.Int())))
	sb.WriteString(row("History Score",
		widgets.ProgressBarWithLabel(r.CreditHistoryScore.Float(), fmt.Sprintf("%d / 100", r.CreditHistoryScore.Int()), historyBar)))
	sb.WriteString(row("Requested Amount", calc.Money(r.RequestedAmount.Float())))
	return strings.TrimRight(sb.String(), "\n")
}
