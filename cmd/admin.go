// ABOUTME: Admin commands: list users, show stats and change roles
// ABOUTME: Each subcommand is guarded by the /admin route

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/markalston/crediteval/internal/calc"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/router"
	"github.com/spf13/cobra"
)

const (
	msgAdminFailed = "Failed to load admin data"
	msgRoleFailed  = "Failed to update role"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations (admin accounts only)",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all users",
	Args:  cobra.NoArgs,
	Run:   runner(runAdminUsers),
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate evaluation statistics",
	Args:  cobra.NoArgs,
	Run:   runner(runAdminStats),
}

var adminSetRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <role>",
	Short: "Set a user's role (user|admin)",
	Args:  cobra.ExactArgs(2),
	Run:   runner(runAdminSetRole),
}

var adminToggleRoleCmd = &cobra.Command{
	Use:   "toggle-role <user-id>",
	Short: "Switch a user between user and admin",
	Args:  cobra.ExactArgs(1),
	Run:   runner(runAdminToggleRole),
}

func init() {
	adminCmd.AddCommand(adminUsersCmd, adminStatsCmd, adminSetRoleCmd, adminToggleRoleCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminUsers(ctx context.Context, e *environment, w io.Writer, _ []string) int {
	if _, code := authorize(ctx, e, w, router.Admin); code != exitOK {
		return code
	}

	users, err := e.client.AdminUsers(ctx)
	if err != nil {
		return report(w, err, msgAdminFailed)
	}

	if IsJSONOutput() {
		writeJSON(w, users)
	} else {
		fmt.Fprintln(w, formatUsersHuman(users))
	}
	return exitOK
}

func runAdminStats(ctx context.Context, e *environment, w io.Writer, _ []string) int {
	if _, code := authorize(ctx, e, w, router.Admin); code != exitOK {
		return code
	}

	stats, err := e.client.AdminStats(ctx)
	if err != nil {
		return report(w, err, msgAdminFailed)
	}

	if IsJSONOutput() {
		writeJSON(w, stats)
	} else {
		fmt.Fprintln(w, formatStatsHuman(stats))
	}
	return exitOK
}

func runAdminSetRole(ctx context.Context, e *environment, w io.Writer, args []string) int {
	role, err := client.ParseRole(args[1])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitValidation
	}
	return changeRole(ctx, e, w, args[0], func(client.Role) client.Role { return role })
}

func runAdminToggleRole(ctx context.Context, e *environment, w io.Writer, args []string) int {
	return changeRole(ctx, e, w, args[0], client.Role.Toggle)
}

// changeRole looks up the target's current role, computes the new one and
// patches it. The caller's own account is refused.
func changeRole(ctx context.Context, e *environment, w io.Writer, rawID string, next func(client.Role) client.Role) int {
	id := client.ID(strings.TrimSpace(rawID))
	if id == "" {
		fmt.Fprintln(w, "Error: user id is required")
		return exitValidation
	}

	me, code := authorize(ctx, e, w, router.Admin)
	if code != exitOK {
		return code
	}
	if me.ID == id {
		fmt.Fprintln(w, "Error: you cannot change your own role")
		return exitValidation
	}

	users, err := e.client.AdminUsers(ctx)
	if err != nil {
		return report(w, err, msgAdminFailed)
	}
	var target *client.User
	for i := range users {
		if users[i].ID == id {
			target = &users[i]
			break
		}
	}
	if target == nil {
		fmt.Fprintf(w, "Error: no user with id %s\n", id)
		return exitValidation
	}

	role := next(target.Role.OrDefault())
	updated, err := e.client.UpdateUserRole(ctx, id, role)
	if err != nil {
		return report(w, err, msgRoleFailed)
	}
	if !updated.Role.Valid() {
		updated.Role = role
	}

	if IsJSONOutput() {
		writeJSON(w, updated)
	} else {
		fmt.Fprintf(w, "%s (%s): %s -> %s\n", updated.Username, id, target.Role.OrDefault(), updated.Role)
	}
	return exitOK
}

// formatUsersHuman formats the user list as a table
func formatUsersHuman(users []client.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %-20s %-30s %-6s %s\n", "ID", "USERNAME", "EMAIL", "ROLE", "JOINED")
	for _, u := range users {
		fmt.Fprintf(&b, "%-6s %-20s %-30s %-6s %s\n", u.ID, u.Username, u.Email, u.Role.OrDefault(), u.CreatedAt.Display())
	}
	fmt.Fprintf(&b, "\n%d user(s)", len(users))
	return b.String()
}

// formatStatsHuman formats aggregate statistics with distribution bars
func formatStatsHuman(s *client.Stats) string {
	total := s.TotalEvaluations.Float()

	var b strings.Builder
	fmt.Fprintf(&b, "Total Users:       %d\n", s.TotalUsers.Int())
	fmt.Fprintf(&b, "Total Evaluations: %d\n", s.TotalEvaluations.Int())
	fmt.Fprintf(&b, "Average Score:     %.1f\n", s.AverageScore.Float())
	if len(s.RiskDistribution) == 0 {
		return b.String() + "\nNo risk data"
	}

	b.WriteString("\nRisk Distribution:\n")
	for _, bucket := range s.RiskDistribution {
		share := calc.Share(bucket.Count.Float(), total)
		filled := int(share / 5)
		fmt.Fprintf(&b, "  %-8s %-20s %5.1f%% (%d)\n",
			bucket.RiskLevel, strings.Repeat("#", filled), share, bucket.Count.Int())
	}
	return strings.TrimRight(b.String(), "\n")
}
