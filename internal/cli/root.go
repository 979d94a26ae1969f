// Package cli is the console's command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/todo-console/internal/apiclient"
	"github.com/jaekwang-park/todo-console/internal/config"
	"github.com/jaekwang-park/todo-console/internal/console"
	"github.com/jaekwang-park/todo-console/internal/session"
)

type App struct {
	APIBaseURL  string
	SessionPath string
	PrettyJSON  bool

	// quiet keeps logs and notifications off the terminal while the
	// interactive browser owns it.
	quiet bool
	cfg   config.Console
	notes *notifier
}

// result is the JSON envelope written by mutating commands.
type result struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "todo-console",
		Short:         "Admin console for the task and user API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Sign in and list the first page of tasks
  todo-console signin --email admin@example.com --password 'Admin123!'
  todo-console tasks list --status PENDING --sort dueDate

  # Browse users interactively
  todo-console browse users
`),
	}

	cmd.PersistentFlags().StringVar(&app.APIBaseURL, "api", "", "API base URL (default $API_BASE_URL or "+config.DefaultAPIBaseURL+")")
	cmd.PersistentFlags().StringVar(&app.SessionPath, "session", "", "Session database path (default $SESSION_PATH)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newSignupCmd(app))
	cmd.AddCommand(newSigninCmd(app))
	cmd.AddCommand(newSignoutCmd(app))
	cmd.AddCommand(newMeCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newBrowseCmd(app))

	return cmd
}

// run opens the session and console for one command, checks that route is
// reachable with the stored session and closes everything afterwards.
func (a *App) run(cmd *cobra.Command, route string, fn func(ctx context.Context, c *console.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.LoadConsole()
	if a.APIBaseURL != "" {
		cfg.APIBaseURL = a.APIBaseURL
	}
	if a.SessionPath != "" {
		cfg.SessionPath = a.SessionPath
	}
	if err := cfg.Validate(); err != nil {
		return writeErr(cmd, err)
	}
	a.cfg = cfg

	logOut := cmd.ErrOrStderr()
	if a.quiet {
		logOut = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.ParseLogLevel()}))

	store, err := session.OpenSQLite(ctx, cfg.SessionPath)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer store.Close()

	sess, err := session.Open(ctx, store)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := sess.Guard(route); err != nil {
		return writeErr(cmd, fmt.Errorf("%w: run `todo-console signin` first", err))
	}

	a.notes = newNotifier(cmd.ErrOrStderr(), a.quiet)
	c := console.New(cfg, sess,
		console.WithNotifier(a.notes),
		console.WithLogger(logger),
	)
	defer c.Close()

	if err := fn(ctx, c); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// message returns the last success notification, or fallback.
func (a *App) message(fallback string) string {
	if n, ok := a.notes.Last(); ok && n.Message != "" {
		return n.Message
	}
	return fallback
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// writeErr prints the message a user should see for err and returns it.
// Server failures print the server's message.
func writeErr(cmd *cobra.Command, err error) error {
	msg := err.Error()
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		msg = apiclient.Message(err, msg)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", msg)
	return err
}
