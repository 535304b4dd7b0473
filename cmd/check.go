// ABOUTME: Check command for crediteval CLI
// ABOUTME: Gates an evaluation result against score, DTI and risk thresholds

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/markalston/crediteval/internal/calc"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/router"
	"github.com/spf13/cobra"
)

var (
	minScore float64
	maxDTI   float64
	maxRisk  string
)

var checkCmd = &cobra.Command{
	Use:   "check <result-id>",
	Short: "Check an evaluation against thresholds",
	Long: `Check an evaluation result against thresholds and exit non-zero if any fail.

Exit codes:
  0 - All checks passed
  1 - One or more thresholds failed, or invalid thresholds
  2 - Error (connectivity, backend)
  3 - Not logged in`,
	Args: cobra.ExactArgs(1),
	Run:  runner(runCheck),
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Float64Var(&minScore, "min-score", 60, "Minimum credit score (0-100)")
	checkCmd.Flags().Float64Var(&maxDTI, "max-dti", 40, "Maximum debt-to-income percentage")
	checkCmd.Flags().StringVar(&maxRisk, "max-risk", "medium", "Highest acceptable risk level (low|medium|high)")
}

// riskRank orders risk classes; unknown ranks above high
var riskRank = map[string]int{"low": 0, "medium": 1, "high": 2, "unknown": 3}

// checkResult represents the result of a single threshold check
type checkResult struct {
	name      string
	value     string
	threshold string
	passed    bool
}

// runCheck executes the threshold checks and returns exit code
func runCheck(ctx context.Context, e *environment, w io.Writer, args []string) int {
	if err := validateThresholds(minScore, maxDTI, maxRisk); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitValidation
	}

	path := router.ResultPath(client.ID(strings.TrimSpace(args[0])))
	loc := router.Parse(path)
	if loc.Route != router.RouteResult {
		fmt.Fprintf(w, "Error: invalid result id %q\n", args[0])
		return exitValidation
	}
	if _, code := authorize(ctx, e, w, path); code != exitOK {
		return code
	}

	result, err := e.client.CreditResult(ctx, loc.ID)
	if err != nil {
		return report(w, err, msgResultFailed)
	}

	results := performChecks(result)

	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(results))
	} else {
		fmt.Fprintln(w, formatCheckHuman(results))
	}

	_, failed := countResults(results)
	if failed > 0 {
		return exitValidation
	}
	return exitOK
}

// validateThresholds ensures threshold values are valid
func validateThresholds(score, dti float64, risk string) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("--min-score must be between 0 and 100")
	}
	if dti < 0 {
		return fmt.Errorf("--max-dti must not be negative")
	}
	if rank, ok := riskRank[strings.ToLower(risk)]; !ok || rank > riskRank["high"] {
		return fmt.Errorf("--max-risk must be low, medium or high")
	}
	return nil
}

// performChecks runs all threshold checks against one evaluation
func performChecks(r *client.CreditResult) []checkResult {
	score := r.CreditScore.Float()
	dti := calc.DebtToIncome(r.Income.Float(), r.Debts.Float())
	risk := calc.RiskClass(r.RiskLevel)
	limit := strings.ToLower(maxRisk)

	return []checkResult{
		{
			name:      "Credit score",
			value:     fmt.Sprintf("%.0f", score),
			threshold: fmt.Sprintf(">= %.0f", minScore),
			passed:    score >= minScore,
		},
		{
			// Without income the ratio is undefined and cannot pass.
			name:      "Debt-to-income",
			value:     dti.Label(),
			threshold: fmt.Sprintf("<= %.2f%%", maxDTI),
			passed:    dti.Defined && dti.Percent <= maxDTI,
		},
		{
			name:      "Risk level",
			value:     risk,
			threshold: "<= " + limit,
			passed:    riskRank[risk] <= riskRank[limit],
		},
	}
}

// countResults returns the count of passed and failed checks
func countResults(results []checkResult) (passed, failed int) {
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// formatCheckHuman formats check results for human readability
func formatCheckHuman(results []checkResult) string {
	var output string

	for _, r := range results {
		symbol := "✓"
		if !r.passed {
			symbol = "✗"
		}
		output += fmt.Sprintf("%s %s: %s (threshold: %s)\n", symbol, r.name, r.value, r.threshold)
	}

	passed, failed := countResults(results)
	if failed > 0 {
		output += fmt.Sprintf("\nFAILED: %d check(s) outside thresholds", failed)
	} else {
		output += fmt.Sprintf("\nPASSED: All %d check(s) within thresholds", passed)
	}

	return output
}

// formatCheckJSON formats check results as JSON
func formatCheckJSON(results []checkResult) string {
	_, failed := countResults(results)

	checks := make([]map[string]any, len(results))
	for i, r := range results {
		checks[i] = map[string]any{
			"name":      r.name,
			"value":     r.value,
			"threshold": r.threshold,
			"passed":    r.passed,
		}
	}

	status := "passed"
	if failed > 0 {
		status = "failed"
	}

	data, _ := json.MarshalIndent(map[string]any{"status": status, "checks": checks}, "", "  ")
	return string(data)
}
