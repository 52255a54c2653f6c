package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"snowclone/internal/config"
	"snowclone/internal/domain"
	"snowclone/internal/history"
	"snowclone/internal/warehouse"
)

// app carries the CLI's shared state and its injectable seams. Commands go
// through these function fields so tests can substitute fakes without a
// warehouse or a history file.
type app struct {
	configPath string
	logger     *slog.Logger

	openSession func(ctx context.Context, profile config.ConnectionProfile, logger *slog.Logger) (domain.StatementExecutor, func() error, error)
	openHistory func() (domain.RunHistory, func() error, error)
}

func newApp() *app {
	a := &app{logger: slog.Default()}
	a.openSession = func(ctx context.Context, profile config.ConnectionProfile, logger *slog.Logger) (domain.StatementExecutor, func() error, error) {
		session, err := warehouse.Open(ctx, profile, logger)
		if err != nil {
			return nil, nil, err
		}
		return session, session.Close, nil
	}
	a.openHistory = func() (domain.RunHistory, func() error, error) {
		path := os.Getenv("HISTORY_DB_PATH")
		if path == "" {
			path = "snowclone_history.sqlite"
		}
		store, err := history.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return a
}

// setupLogger installs a text logger at the requested level on stderr, so
// structured output stays separate from command results on stdout.
func (a *app) setupLogger(cmd *cobra.Command) {
	level, _ := cmd.Root().PersistentFlags().GetString("log-level")
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(level),
	}))
}

// loadProject reads and validates the project file, prompting for the
// warehouse password when neither the file nor the environment supplies one.
func (a *app) loadProject() (*config.Project, error) {
	project, err := config.LoadProject(a.configPath)
	if err != nil {
		return nil, err
	}
	if project.Snowflake.Password == "" && project.Snowflake.Authenticator == "" {
		password, err := promptPassword(project.Snowflake.User)
		if err != nil {
			return nil, err
		}
		project.Snowflake.Password = password
	}
	return project, nil
}

// session opens a warehouse session for the project's connection profile.
func (a *app) session(ctx context.Context, project *config.Project) (domain.StatementExecutor, func() error, error) {
	return a.openSession(ctx, project.Snowflake, a.logger)
}

// recordRun persists a run record, degrading to a warning when the history
// store is unavailable. A failed recording never fails the command: the
// operation itself already happened.
func (a *app) recordRun(ctx context.Context, rec domain.RunRecord) {
	store, closeStore, err := a.openHistory()
	if err != nil {
		a.logger.Warn("run history unavailable", "error", err)
		return
	}
	defer func() { _ = closeStore() }()

	if err := store.RecordRun(ctx, rec); err != nil {
		a.logger.Warn("could not record run", "id", rec.ID, "error", err)
	}
}

func promptPassword(user string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no password configured for %s: set SNOWFLAKE_PASSWORD or run interactively", user)
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", user)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
