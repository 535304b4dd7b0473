// ABOUTME: Credit evaluation commands: evaluate, history and result
// ABOUTME: Non-interactive equivalents of the evaluation form, dashboard and result views

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/markalston/crediteval/internal/calc"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/forms"
	"github.com/markalston/crediteval/internal/router"
	"github.com/spf13/cobra"
)

const (
	msgSubmitFailed  = "Submission failed"
	msgHistoryFailed = "Failed to load history"
	msgResultFailed  = "Failed to load result"
)

var creditFields forms.CreditFields

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Submit financial data for a credit evaluation",
	Long: `Submit financial data and print the computed risk result.

Example:
  crediteval evaluate --income 100 --debts 20 --employment-years 5 \
    --credit-history-score 80 --requested-amount 50 --json`,
	Args: cobra.NoArgs,
	Run:  runner(runEvaluate),
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your past evaluations",
	Args:  cobra.NoArgs,
	Run:   runner(runHistory),
}

var resultCmd = &cobra.Command{
	Use:   "result <id>",
	Short: "Show one evaluation result",
	Args:  cobra.ExactArgs(1),
	Run:   runner(runResult),
}

func init() {
	rootCmd.AddCommand(evaluateCmd, historyCmd, resultCmd)
	evaluateCmd.Flags().StringVar(&creditFields.Income, "income", "", "Monthly income")
	evaluateCmd.Flags().StringVar(&creditFields.Debts, "debts", "", "Monthly debt payments")
	evaluateCmd.Flags().StringVar(&creditFields.EmploymentYears, "employment-years", "", "Years employed (0-50)")
	evaluateCmd.Flags().StringVar(&creditFields.CreditHistoryScore, "credit-history-score", "", "Credit history score (0-100)")
	evaluateCmd.Flags().StringVar(&creditFields.RequestedAmount, "requested-amount", "", "Requested loan amount")
}

// runEvaluate validates the flags, submits them and prints the result
func runEvaluate(ctx context.Context, e *environment, w io.Writer, _ []string) int {
	input, err := forms.ParseCreditInput(creditFields)
	if err != nil {
		return report(w, err, msgSubmitFailed)
	}

	if _, code := authorize(ctx, e, w, router.Evaluate); code != exitOK {
		return code
	}

	result, err := e.client.SubmitCreditInput(ctx, input)
	if err != nil {
		return report(w, err, msgSubmitFailed)
	}

	if IsJSONOutput() {
		writeJSON(w, result)
	} else {
		fmt.Fprintln(w, formatResultHuman(result))
		fmt.Fprintf(w, "\nView again: crediteval result %s\n", result.InputID())
	}
	return exitOK
}

// runHistory lists the user's evaluations, newest first as returned by the backend
func runHistory(ctx context.Context, e *environment, w io.Writer, _ []string) int {
	if _, code := authorize(ctx, e, w, router.Dashboard); code != exitOK {
		return code
	}

	history, err := e.client.CreditHistory(ctx)
	if err != nil {
		return report(w, err, msgHistoryFailed)
	}

	if IsJSONOutput() {
		writeJSON(w, history)
	} else {
		fmt.Fprintln(w, formatHistoryHuman(history))
	}
	return exitOK
}

// runResult shows a single evaluation
func runResult(ctx context.Context, e *environment, w io.Writer, args []string) int {
	loc := router.Parse(router.ResultPath(client.ID(strings.TrimSpace(args[0]))))
	if loc.Route != router.RouteResult {
		fmt.Fprintf(w, "Error: invalid result id %q\n", args[0])
		return exitValidation
	}
	if _, code := authorize(ctx, e, w, loc.Path()); code != exitOK {
		return code
	}

	result, err := e.client.CreditResult(ctx, loc.ID)
	if err != nil {
		return report(w, err, msgResultFailed)
	}

	if IsJSONOutput() {
		writeJSON(w, result)
	} else {
		fmt.Fprintln(w, formatResultHuman(result))
	}
	return exitOK
}

// formatResultHuman formats an evaluation for human readability
func formatResultHuman(r *client.CreditResult) string {
	dti := calc.DebtToIncome(r.Income.Float(), r.Debts.Float())

	var b strings.Builder
	fmt.Fprintf(&b, "Credit Score:     %d / 100\n", r.CreditScore.Int())
	fmt.Fprintf(&b, "Risk Level:       %s\n", r.RiskLevel)
	if r.Recommendation != "" {
		fmt.Fprintf(&b, "Recommendation:   %s\n", r.Recommendation)
	}
	fmt.Fprintf(&b, "Evaluated:        %s\n", r.EvaluatedAt.Display())
	fmt.Fprintf(&b, "\nIncome:           %s\n", calc.Money(r.Income.Float()))
	fmt.Fprintf(&b, "Debts:            %s\n", calc.Money(r.Debts.Float()))
	fmt.Fprintf(&b, "Debt-to-Income:   %s\n", dti.Label())
	fmt.Fprintf(&b, "Employment:       %d years\n", r.EmploymentYears.Int())
	fmt.Fprintf(&b, "History Score:    %d / 100\n", r.CreditHistoryScore.Int())
	fmt.Fprintf(&b, "Requested Amount: %s", calc.Money(r.RequestedAmount.Float()))
	return b.String()
}

// formatHistoryHuman formats the evaluation list as a table
func formatHistoryHuman(history []client.CreditResult) string {
	if len(history) == 0 {
		return "No evaluations yet"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-12s %14s %14s %6s  %s\n", "ID", "DATE", "INCOME", "DEBTS", "SCORE", "RISK")
	for _, item := range history {
		fmt.Fprintf(&b, "%-8s %-12s %14s %14s %6d  %s\n",
			item.ID, item.EvaluatedAt.Display(),
			calc.Money(item.Income.Float()), calc.Money(item.Debts.Float()),
			item.CreditScore.Int(), item.RiskLevel)
	}
	fmt.Fprintf(&b, "\n%d evaluation(s)", len(history))
	return b.String()
}
