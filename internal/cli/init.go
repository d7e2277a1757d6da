package cli

import (
	"time"

	"expense-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize local storage (workspace-first) and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			email, err := currentEmail(ctx, app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			updates := []store.Update{
				store.MergeUpdate(store.KeyNetwork, map[string]any{"isOffline": false}),
				store.SetUpdate(store.KeyIsLoadingApp, false),
			}
			if email != "" {
				updates = append(updates, store.MergeUpdate(store.KeySession, map[string]any{"email": email}))
			}
			if err := db.Apply(ctx, updates); err != nil {
				return writeErr(cmd, err)
			}

			// If we're in workspace mode but no current workspace is set, set it.
			if app.Workspace != "" {
				cfg, err := store.LoadConfig()
				if err == nil && cfg.CurrentWorkspace == "" {
					cfg.CurrentWorkspace = app.Workspace
					_ = store.SaveConfig(cfg)
				}
			}

			app.logger().Info("workspace initialized", "dir", db.Dir(), "email", email)
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":        db.Dir(),
					"workspace":  app.Workspace,
					"email":      email,
					"sqlitePath": db.Path(),
				},
				"meta": map[string]any{"initializedAt": time.Now().UTC()},
			})
		},
	}
	return cmd
}
