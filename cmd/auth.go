// ABOUTME: Session commands: login, register, logout and whoami
// ABOUTME: Persist the token/role pair in the config directory for later commands

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/forms"
	"github.com/markalston/crediteval/internal/router"
	"github.com/spf13/cobra"
)

const (
	msgLoginFailed    = "Login failed. Please check your credentials."
	msgRegisterFailed = "Registration failed. Please try again."
)

var (
	authEmail    string
	authPassword string
	authRole     string
	authUsername string
	authConfirm  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session",
	Long: `Log in with email and password. The password may also be supplied via CREDITEVAL_PASSWORD.

Example:
  crediteval login --email alice@example.com --role admin`,
	Args: cobra.NoArgs,
	Run:  runner(runLogin),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and save the session",
	Args:  cobra.NoArgs,
	Run:   runner(runRegister),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	Run:   runner(runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	Long:  `Verify the saved session with the backend and show the account it belongs to.`,
	Args:  cobra.NoArgs,
	Run:   runner(runWhoami),
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "Account password (or CREDITEVAL_PASSWORD)")
	loginCmd.Flags().StringVar(&authRole, "role", "user", "Role to log in as (user|admin)")

	registerCmd.Flags().StringVar(&authUsername, "username", "", "Username")
	registerCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&authPassword, "password", "", "Password, at least 6 characters (or CREDITEVAL_PASSWORD)")
	registerCmd.Flags().StringVar(&authConfirm, "confirm", "", "Password confirmation (defaults to --password)")
	registerCmd.Flags().StringVar(&authRole, "role", "user", "Account role (user|admin)")
}

func password() string {
	if authPassword != "" {
		return authPassword
	}
	return os.Getenv("CREDITEVAL_PASSWORD")
}

// runLogin executes login and returns exit code
func runLogin(ctx context.Context, e *environment, w io.Writer, _ []string) int {
	creds, err := forms.ValidateLogin(authEmail, password(), authRole)
	if err != nil {
		return report(w, err, msgLoginFailed)
	}

	sess, err := e.session.Login(ctx, creds)
	if err != nil && sess == nil {
		return report(w, err, msgLoginFailed)
	}
	if err != nil {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}

	printSession(w, e, sess.User, sess.Role)
	return exitOK
}

// runRegister executes registration and returns exit code
func runRegister(ctx context.Context, e *environment, w io.Writer, _ []string) int {
	confirm := authConfirm
	if confirm == "" {
		confirm = password()
	}

	sess, err := e.session.Register(ctx, forms.Registration{
		Username:        authUsername,
		Email:           authEmail,
		Password:        password(),
		ConfirmPassword: confirm,
		Role:            authRole,
	})
	if err != nil && sess == nil {
		return report(w, err, msgRegisterFailed)
	}
	if err != nil {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}

	printSession(w, e, sess.User, sess.Role)
	return exitOK
}

// runLogout clears the saved session
func runLogout(_ context.Context, e *environment, w io.Writer, _ []string) int {
	e.session.Logout()
	if IsJSONOutput() {
		writeJSON(w, map[string]any{"logged_in": false})
	} else {
		fmt.Fprintln(w, "Logged out")
	}
	return exitOK
}

// runWhoami resolves the current user through the backend
func runWhoami(ctx context.Context, e *environment, w io.Writer, _ []string) int {
	user := e.session.CurrentUser(ctx)
	if user == nil {
		if IsJSONOutput() {
			writeJSON(w, map[string]any{"backend": e.cfg.APIURL, "logged_in": false})
		} else {
			fmt.Fprintf(w, "Backend:  %s\nNot logged in\n", e.cfg.APIURL)
		}
		return exitForbidden
	}

	printSession(w, e, user, user.Role)
	return exitOK
}

func printSession(w io.Writer, e *environment, user *client.User, role client.Role) {
	if user == nil {
		user = &client.User{}
	}
	if IsJSONOutput() {
		writeJSON(w, map[string]any{
			"backend":   e.cfg.APIURL,
			"logged_in": true,
			"user":      user,
			"role":      role,
			"home":      router.Home(role),
		})
		return
	}
	fmt.Fprintln(w, formatSessionHuman(e.cfg.APIURL, user, role))
}

// formatSessionHuman formats the account for human readability
func formatSessionHuman(url string, user *client.User, role client.Role) string {
	return fmt.Sprintf(`Backend:  %s
User:     %s <%s>
Role:     %s
Joined:   %s
Home:     %s`, url, user.Username, user.Email, role, user.CreatedAt.Display(), router.Home(role))
}
