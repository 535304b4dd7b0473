// ABOUTME: Root command for crediteval CLI
// ABOUTME: Handles global flags, configuration and launching the TUI

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/crediteval/internal/config"
	"github.com/markalston/crediteval/internal/tui"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool
	configDir  string
	verbose    bool
)

// Exit codes shared by all commands
const (
	exitOK         = 0
	exitValidation = 1
	exitFailure    = 2
	exitForbidden  = 3
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "crediteval",
	Short: "Terminal client for the credit risk evaluation service",
	Long: `crediteval is a terminal client for the credit risk evaluation service.

Run without arguments to open the interactive interface, or use the
subcommands from scripts and CI pipelines.

Exit codes:
  0 - Success
  1 - Invalid input
  2 - Request failed (backend, network or authentication)
  3 - Not logged in, or the account's role cannot use this command

Environment Variables:
  CREDITEVAL_API_URL      Backend API URL (default: http://localhost:5000/api)
  CREDITEVAL_CONFIG_DIR   Session, log and trace directory (default: ~/.config/crediteval)
  CREDITEVAL_TIMEOUT_SEC  Request timeout in seconds (default: 30)
  CREDITEVAL_TRACE        Write OpenTelemetry spans to trace.json (default: false)
  LOG_LEVEL, LOG_FORMAT   Log verbosity (debug|info|warn|error) and format (text|json)`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runTUI("/"))
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui [path]",
	Short: "Open the interactive interface",
	Long: `Open the interactive interface, optionally at a path such as /evaluate or /result/42.

Access rules are the same as in the interface: paths you cannot open redirect to your home view.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		os.Exit(runTUI(path))
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides CREDITEVAL_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for session, log and trace files (overrides CREDITEVAL_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror log output to stderr")
	rootCmd.AddCommand(tuiCmd)
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	cfg, err := config.LoadWith(config.Overrides{APIURL: apiURL})
	if err != nil {
		if apiURL != "" {
			return apiURL
		}
		return config.DefaultAPIURL
	}
	return cfg.APIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// runTUI opens the interactive client at path
func runTUI(path string) int {
	e, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer e.close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	if err := tui.Run(ctx, e.client, e.session, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}
