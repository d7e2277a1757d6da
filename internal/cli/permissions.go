package cli

import (
	"bufio"

	"expense-cli/internal/permission"

	"github.com/spf13/cobra"
)

func newPermissionCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "permission",
		Aliases: []string{"permissions"},
		Short:   "Simulated device permissions (stored per workspace)",
	}
	cmd.PersistentFlags().StringVar(&name, "name", "location", "Permission name")

	device := func(cmd *cobra.Command, behaviour string) (*permission.DevicePermission, func() error, error) {
		db, err := loadDB(cmd.Context(), app)
		if err != nil {
			return nil, nil, err
		}
		if behaviour == "" {
			behaviour = app.config().Permissions.Location
		}
		b, err := permission.ParseBehaviour(behaviour)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		asker := permission.TerminalAsker{In: bufio.NewReader(cmd.InOrStdin()), Out: cmd.ErrOrStderr()}
		return permission.NewDevicePermission(db, name, b, asker), db.Close, nil
	}

	writeStatus := func(cmd *cobra.Command, d *permission.DevicePermission, st permission.Status) error {
		return writeOut(cmd, app, map[string]any{
			"data": map[string]any{"name": d.Name(), "status": st, "allowed": st.Allowed()},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the stored status (never asked reads as denied)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := device(cmd, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()
			st, err := d.Status(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeStatus(cmd, d, st)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <granted|limited|denied|blocked|unavailable>",
		Short:     "Force the stored status",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"granted", "limited", "denied", "blocked", "unavailable"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := permission.ParseStatus(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			d, closeFn, err := device(cmd, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()
			if err := d.Set(cmd.Context(), st); err != nil {
				return writeErr(cmd, err)
			}
			return writeStatus(cmd, d, st)
		},
	})

	var behaviour string
	request := &cobra.Command{
		Use:   "request",
		Short: "Request the permission the way the OS would (no app prompt)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := device(cmd, behaviour)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()
			st, err := d.Request(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeStatus(cmd, d, st)
		},
	}
	request.Flags().StringVar(&behaviour, "behaviour", "", "grant|deny|block|ask (default: config, then ask)")
	cmd.AddCommand(request)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the stored status so the next request asks again",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := device(cmd, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()
			if err := d.Reset(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeStatus(cmd, d, permission.Denied)
		},
	})

	return cmd
}
