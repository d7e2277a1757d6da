package cli

import (
	"expense-cli/internal/store"

	"github.com/spf13/cobra"
)

func newWorkspaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Workspace management (default workspace is recommended unless explicitly told otherwise)",
	}

	cmd.AddCommand(newWorkspaceUseCmd(app))
	cmd.AddCommand(newWorkspaceCurrentCmd(app))
	cmd.AddCommand(newWorkspaceListCmd(app))

	return cmd
}

func newWorkspaceUseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Set current workspace (creates its local store on first use)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeWorkspaceName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			dir, err := store.WorkspaceDir(name)
			if err != nil {
				return writeErr(cmd, err)
			}
			db, err := store.Open(cmd.Context(), dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			_ = db.Close()

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.CurrentWorkspace = name
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}

			app.Workspace = name
			app.Dir = dir
			app.logger().Info("workspace selected", "workspace", name)
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"workspace": name,
					"dir":       dir,
				},
			})
		},
	}
	return cmd
}

func newWorkspaceCurrentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"workspace": app.Workspace,
					"dir":       dir,
				},
			})
		},
	}
	return cmd
}

func newWorkspaceListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			current := app.config().CurrentWorkspace
			if current == "" {
				current = "default"
			}

			ws, err := store.ListWorkspaces()
			if err != nil {
				return writeErr(cmd, err)
			}

			type wsDetail struct {
				Name     string `json:"name"`
				Path     string `json:"path"`
				Policies int    `json:"policies"`
				Reports  int    `json:"reports"`
				Pending  int    `json:"pendingRequests"`
			}
			details := []wsDetail{}
			for _, name := range ws {
				dir, err := store.WorkspaceDir(name)
				if err != nil {
					continue
				}
				d := wsDetail{Name: name, Path: dir}
				if err := countWorkspace(cmd, dir, &d.Policies, &d.Reports, &d.Pending); err != nil {
					// A workspace that fails to open is still listed.
					app.logger().Warn("workspace unreadable", "workspace", name, "err", err)
				}
				details = append(details, d)
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"workspaces":       ws,
					"currentWorkspace": current,
				},
				"meta": map[string]any{
					"details": details,
				},
			})
		},
	}
	return cmd
}

func countWorkspace(cmd *cobra.Command, dir string, policies, reports, pending *int) error {
	ctx := cmd.Context()
	db, err := store.Open(ctx, dir)
	if err != nil {
		return err
	}
	defer db.Close()

	ps, err := db.Policies(ctx)
	if err != nil {
		return err
	}
	rs, err := db.Reports(ctx)
	if err != nil {
		return err
	}
	reqs, err := db.Pending(ctx)
	if err != nil {
		return err
	}
	*policies, *reports, *pending = len(ps), len(rs), len(reqs)
	return nil
}
