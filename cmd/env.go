// ABOUTME: Shared wiring for commands: config, logging, tracing, client and session
// ABOUTME: Also holds the route guard check and error rendering used by every command

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/config"
	"github.com/markalston/crediteval/internal/forms"
	"github.com/markalston/crediteval/internal/logger"
	"github.com/markalston/crediteval/internal/router"
	"github.com/markalston/crediteval/internal/session"
	"github.com/markalston/crediteval/internal/tracing"
	"github.com/spf13/cobra"
)

// environment is everything a command needs to talk to the backend
type environment struct {
	cfg     *config.Config
	client  *client.Client
	session *session.Store
	tracer  *tracing.Provider
}

// setup loads configuration and wires logging, tracing, the client and the session
func setup() (*environment, error) {
	cfg, err := config.LoadWith(config.Overrides{APIURL: apiURL, ConfigDir: configDir})
	if err != nil {
		return nil, err
	}

	opts := logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}
	if cfg.ConfigDir != "" {
		opts.Path = cfg.LogFile()
	}
	if verbose {
		opts.Mirror = os.Stderr
	}
	if err := logger.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	e := newEnvironment(cfg, session.NewFileStore(cfg.SessionFile()))
	if cfg.Trace {
		tp, err := tracing.Setup(cfg.TraceFile())
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			e.tracer = tp
		}
	}
	slog.Debug("environment ready", "api_url", cfg.APIURL, "config_dir", cfg.ConfigDir, "trace", cfg.Trace)
	return e, nil
}

func newEnvironment(cfg *config.Config, persist session.Persister) *environment {
	c := client.New(cfg.APIURL, client.WithTimeout(cfg.Timeout))
	return &environment{
		cfg:     cfg,
		client:  c,
		session: session.Open(c, persist),
	}
}

// close flushes spans and the log file
func (e *environment) close() {
	if e.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.tracer.Shutdown(ctx); err != nil {
			slog.Warn("trace shutdown failed", "error", err)
		}
	}
	logger.Close()
}

// commandFunc is the testable body of a command
type commandFunc func(ctx context.Context, e *environment, w io.Writer, args []string) int

// runner adapts a commandFunc to cobra, exiting with its code
func runner(fn commandFunc) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		code := execute(fn, args)
		if code != exitOK {
			os.Exit(code)
		}
	}
}

func execute(fn commandFunc, args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		return exitFailure
	}
	defer e.close()

	return fn(ctx, e, os.Stdout, args)
}

// authorize resolves the current user and applies the route guard for path.
// It prints the refusal and returns a non-zero code when access is denied.
func authorize(ctx context.Context, e *environment, w io.Writer, path string) (*client.User, int) {
	user := e.session.CurrentUser(ctx)

	var gs *router.Session
	if user != nil {
		gs = &router.Session{Role: user.Role}
	}

	out := router.Decide(path, gs)
	if out.Action == router.Render {
		return user, exitOK
	}

	if user == nil {
		fmt.Fprintln(w, "Error: not logged in (run: crediteval login)")
	} else {
		fmt.Fprintf(w, "Error: %s is not available to %s accounts (home: %s)\n", path, user.Role, out.Target)
	}
	return nil, exitForbidden
}

// report prints err the way views show it and returns the matching exit code
func report(w io.Writer, err error, fallback string) int {
	msg := client.Message(err, fallback)
	var ne *client.NetworkError
	if errors.As(err, &ne) {
		msg = fmt.Sprintf("%s (%s)", msg, ne.Error())
	}
	fmt.Fprintf(w, "Error: %s\n", msg)

	var ve *forms.ValidationError
	if errors.As(err, &ve) {
		return exitValidation
	}
	return exitFailure
}

// writeJSON prints v indented
func writeJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
