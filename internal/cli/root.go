package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"expense-cli/internal/format"
	"expense-cli/internal/i18n"
	"expense-cli/internal/logging"
	"expense-cli/internal/mutate"
	"expense-cli/internal/perm"
	"expense-cli/internal/remote"
	"expense-cli/internal/store"
	"expense-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Workspace  string
	Email      string
	Locale     string
	PrettyJSON bool
	Format     string
	NoSync     bool

	cfg     *store.GlobalConfig
	log     *slog.Logger
	closeFn func() error

	// queued is set when a command put a request in the outbox.
	queued bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "expense",
		Short:        "Expense workspaces (local-first) CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  expense

  # Create a demo workspace with tags and a report
  expense init --email you@example.com && expense seed

  # Manage workspace tags
  expense tags list --policy <policy-id>
  expense tags disable --policy <policy-id> Audit Sales

  # Direct report lookup (shortcut for: expense reports show <report-id>)
  expense r-5f2c
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		defer app.teardown()
		// Writes from scripts reach the remote without a separate `expense sync`.
		// (The TUI flushes on its own tick.)
		if !app.queued || app.NoSync {
			return nil
		}
		return flushBestEffort(cmd, app)
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("EXPENSE_DIR", ""), "Path to workspace dir (advanced: overrides workspace resolution; for fixtures/tests)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", envOr("EXPENSE_WORKSPACE", ""), "Workspace name (default: 'default')")
	cmd.PersistentFlags().StringVar(&app.Email, "email", envOr("EXPENSE_EMAIL", ""), "Account email (overrides the session stored in the workspace)")
	cmd.PersistentFlags().StringVar(&app.Locale, "locale", envOr("EXPENSE_LOCALE", ""), "Locale for copy and tag ordering (en|es)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("EXPENSE_FORMAT", "json"), "Output format (json|edn|yaml)")
	cmd.PersistentFlags().BoolVar(&app.NoSync, "no-sync", envOr("EXPENSE_NO_SYNC", "") != "", "Leave queued requests in the outbox instead of flushing after writes")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newSeedCmd(app))
	cmd.AddCommand(newPoliciesCmd(app))
	cmd.AddCommand(newTagsCmd(app))
	cmd.AddCommand(newReportsCmd(app))
	cmd.AddCommand(newRequestsCmd(app))
	cmd.AddCommand(newPermissionCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newRemoteCmd(app))
	cmd.AddCommand(newWorkspaceCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup loads the global config and installs the logger. The TUI logs into the
// workspace dir because it owns the terminal.
func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, fmt.Errorf("load config: %w", err))
	}
	app.cfg = cfg
	if app.Locale == "" {
		app.Locale = cfg.Locale
	}

	opts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, W: cmd.ErrOrStderr()}
	if cmd == cmd.Root() {
		dir, err := resolveDir(app)
		if err != nil {
			return writeErr(cmd, err)
		}
		opts.Dir = dir
	}
	log, closeFn, err := logging.Setup(opts)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.log, app.closeFn = log.With("component", "cli"), closeFn
	return nil
}

func (app *App) teardown() {
	if app.closeFn != nil {
		_ = app.closeFn()
		app.closeFn = nil
	}
}

func (app *App) logger() *slog.Logger {
	return logging.OrDiscard(app.log)
}

func (app *App) config() *store.GlobalConfig {
	if app.cfg == nil {
		return &store.GlobalConfig{}
	}
	return app.cfg
}

func (app *App) translator() (*i18n.Translator, error) {
	return i18n.New(app.Locale)
}

func runTUI(cmd *cobra.Command, app *App) error {
	db, err := loadDB(cmd.Context(), app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer db.Close()

	email, err := currentEmail(cmd.Context(), app, db)
	if err != nil {
		return writeErr(cmd, err)
	}
	tr, err := app.translator()
	if err != nil {
		return writeErr(cmd, err)
	}
	cfg := app.config()
	return tui.Run(cmd.Context(), tui.Options{
		DB:         db,
		Workspace:  app.Workspace,
		Email:      email,
		Translator: tr,
		Client:     remote.NewClient(cfg.Remote, email),
		Config:     cfg,
		Logger:     app.log,
	})
}

// resolveDir picks the workspace dir:
// 1) --dir
// 2) --workspace
// 3) config current_workspace
// 4) the implicit "default" workspace
func resolveDir(app *App) (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}
	name := app.Workspace
	if name == "" {
		name = app.config().CurrentWorkspace
	}
	if name == "" {
		name = "default"
	}
	d, err := store.WorkspaceDir(name)
	if err != nil {
		return "", err
	}
	app.Workspace = name
	app.Dir = d
	return d, nil
}

func loadDB(ctx context.Context, app *App) (*store.DB, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, dir)
}

// currentEmail is --email, then the workspace session, then the config email.
func currentEmail(ctx context.Context, app *App, db *store.DB) (string, error) {
	if app.Email != "" {
		return app.Email, nil
	}
	sess, err := db.Session(ctx)
	if err != nil {
		return "", err
	}
	if sess.Email != "" {
		return sess.Email, nil
	}
	return app.config().Email, nil
}

// apply writes a mutation result and remembers that the outbox has work.
func apply(ctx context.Context, app *App, db *store.DB, res mutate.Result) error {
	if err := mutate.Apply(ctx, db, res); err != nil {
		return err
	}
	if res.Request != nil {
		app.queued = true
	}
	return nil
}

func flushBestEffort(cmd *cobra.Command, app *App) error {
	db, err := loadDB(cmd.Context(), app)
	if err != nil {
		app.logger().Warn("auto-sync skipped", "err", err)
		return nil
	}
	defer db.Close()
	email, err := currentEmail(cmd.Context(), app, db)
	if err != nil {
		app.logger().Warn("auto-sync skipped", "err", err)
		return nil
	}
	client := remote.NewClient(app.config().Remote, email)
	res, err := remote.Flush(cmd.Context(), db, client, app.log)
	if err != nil {
		app.logger().Warn("auto-sync failed", "err", err)
		return nil
	}
	app.logger().Debug("auto-sync", "sent", res.Sent, "failed", res.Failed, "remaining", res.Remaining)
	if res.Offline {
		return nil
	}

	// Answers can leave a required list with nothing enabled (deletes, reads).
	cleared, err := clearRequiredAfterSync(cmd.Context(), app, db, email)
	if err != nil {
		app.logger().Warn("required check failed", "err", err)
		return nil
	}
	if cleared {
		if _, err := remote.Flush(cmd.Context(), db, client, app.log); err != nil {
			app.logger().Warn("auto-sync failed", "err", err)
		}
	}
	return nil
}

func clearRequiredAfterSync(ctx context.Context, app *App, db *store.DB, email string) (bool, error) {
	policies, err := db.Policies(ctx)
	if err != nil {
		return false, err
	}
	cleared := false
	for i := range policies {
		p := &policies[i]
		if perm.CanManageTags(p, email) != nil {
			continue
		}
		lists, err := db.PolicyTags(ctx, p.ID)
		if err != nil {
			return cleared, err
		}
		ok, err := clearEmptyRequired(ctx, app, db, p.ID, lists)
		if err != nil {
			return cleared, err
		}
		cleared = cleared || ok
	}
	return cleared, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
