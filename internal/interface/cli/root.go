// Package cli implements the studydash command-line interface. Commands parse
// flags, call the application layer and hand results to the presenter.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/application/command"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/application/query"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// App is what every subcommand needs. It is built once per invocation.
type App struct {
	Commands *command.Handler
	Queries  *query.Handler
	Store    *userstore.Store

	// DefaultUser is used when --user is empty.
	DefaultUser string

	// Close releases backends. May be nil.
	Close func() error
}

// Options are the global flags.
type Options struct {
	ConfigPath string
	UserID     string
	JSON       bool
}

// AppFactory builds the App from the global flags.
type AppFactory func(ctx context.Context, opts Options) (*App, error)

type contextKey struct{}

// ══════════════════════════════════════════════════════════════════════════════
// ROOT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// NewRootCommand returns the studydash command tree and a function that
// releases whatever the factory opened. The closer is safe to call when no
// subcommand ran.
func NewRootCommand(factory AppFactory) (*cobra.Command, func() error) {
	opts := &Options{}
	var app *App

	root := &cobra.Command{
		Use:           "studydash",
		Short:         "Study dashboard: XP, levels and per-subject rollups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			built, err := factory(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			app = built
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, app))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	flags.StringVarP(&opts.UserID, "user", "u", "", "user id (defaults to app.default_user)")
	flags.BoolVar(&opts.JSON, "json", false, "print results as JSON")

	root.AddCommand(
		newInitCommand(opts),
		newProfileCommand(opts),
		newRollupsCommand(opts),
		newReportCommand(opts),
		newCompleteCommand(opts),
		newSubtaskCommand(opts),
		newDeleteCommand(opts),
		newPurgeCommand(opts),
		newKeysCommand(opts),
	)

	closer := func() error {
		if app == nil || app.Close == nil {
			return nil
		}
		return app.Close()
	}
	return root, closer
}

// Execute runs the command tree with args and writes to out. Backends are
// closed even when the command fails.
func Execute(ctx context.Context, factory AppFactory, args []string, out io.Writer) error {
	root, closer := NewRootCommand(factory)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	err := root.ExecuteContext(ctx)
	return errors.Join(explain(err), closer())
}

// Exit statuses by error class.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInvalid     = 2
	ExitNotFound    = 3
	ExitUnavailable = 4
)

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case shared.IsNotFound(err):
		return ExitNotFound
	case shared.IsValidation(err):
		return ExitInvalid
	case shared.IsExternalService(err):
		return ExitUnavailable
	}
	return ExitFailure
}

// explain prefixes err with its class so the one-line message printed by
// main says what kind of failure it was.
func explain(err error) error {
	switch ExitCode(err) {
	case ExitNotFound:
		return fmt.Errorf("not found: %w", err)
	case ExitInvalid:
		return fmt.Errorf("invalid input: %w", err)
	case ExitUnavailable:
		return fmt.Errorf("storage unavailable: %w", err)
	}
	return err
}

// session resolves the App and the user for a subcommand.
func session(cmd *cobra.Command, opts *Options) (*App, shared.UserID, *Presenter, error) {
	app, ok := cmd.Context().Value(contextKey{}).(*App)
	if !ok {
		return nil, "", nil, errors.New("application not initialized")
	}

	raw := opts.UserID
	if strings.TrimSpace(raw) == "" {
		raw = app.DefaultUser
	}
	userID, err := shared.NewUserID(raw)
	if err != nil {
		return nil, "", nil, fmt.Errorf("--user: %w", err)
	}
	return app, userID, NewPresenter(cmd.OutOrStdout(), opts.JSON), nil
}
